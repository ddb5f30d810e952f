package sentiment

import (
	"context"
	"strings"
	"unicode"
)

// Lexicon scores text by summing AFINN-style word valences in [-5, 5].
// A word directly preceded by a negator has its valence flipped.
type Lexicon struct {
	words map[string]int
}

// NewLexicon creates a lexicon classifier. extra entries override the
// built-in word list.
func NewLexicon(extra map[string]int) *Lexicon {
	words := make(map[string]int, len(afinn)+len(extra))
	for w, v := range afinn {
		words[w] = v
	}
	for w, v := range extra {
		words[strings.ToLower(w)] = v
	}
	return &Lexicon{words: words}
}

// Score implements service.Classifier. It never fails.
func (l *Lexicon) Score(_ context.Context, text string) (float64, error) {
	tokens := tokenize(text)

	score := 0
	for i, tok := range tokens {
		v, ok := l.words[tok]
		if !ok {
			continue
		}
		if i > 0 && negators[tokens[i-1]] {
			v = -v
		}
		score += v
	}
	return float64(score), nil
}

// tokenize lowercases text and splits it on anything that is not a letter,
// digit or apostrophe.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

var negators = map[string]bool{
	"not": true, "no": true, "never": true, "none": true, "nobody": true,
	"don't": true, "dont": true, "doesn't": true, "doesnt": true,
	"didn't": true, "didnt": true, "isn't": true, "isnt": true,
	"wasn't": true, "wasnt": true, "aren't": true, "arent": true,
	"can't": true, "cant": true, "cannot": true, "won't": true, "wont": true,
	"shouldn't": true, "wouldn't": true, "couldn't": true,
}

var afinn = map[string]int{
	// positive
	"amazing": 4, "awesome": 4, "brilliant": 4, "excellent": 3, "fantastic": 4,
	"outstanding": 5, "superb": 5, "wonderful": 4, "breathtaking": 5, "thrilled": 5,
	"love": 3, "loved": 3, "loves": 3, "lovely": 3, "adore": 3,
	"good": 3, "great": 3, "nice": 3, "cool": 1, "fine": 2,
	"happy": 3, "glad": 3, "joy": 3, "joyful": 3, "delighted": 3,
	"like": 2, "liked": 2, "likes": 2, "enjoy": 2, "enjoyed": 2,
	"thanks": 2, "thank": 2, "thankful": 2, "grateful": 3, "appreciate": 2,
	"best": 3, "better": 2, "win": 4, "won": 3, "winner": 4,
	"congrats": 2, "congratulations": 2, "celebrate": 3, "proud": 2, "success": 2,
	"helpful": 2, "kind": 2, "friendly": 2, "fun": 4, "funny": 4,
	"beautiful": 3, "perfect": 3, "impressive": 3, "agree": 1, "yes": 1,
	"welcome": 2, "exciting": 3, "excited": 3, "hope": 2, "hopeful": 2,
	"interesting": 2, "smart": 1, "useful": 2, "easy": 1, "safe": 1,
	"support": 2, "supported": 2, "recommend": 2, "wow": 4, "lol": 3,
	"haha": 3, "yay": 2, "ok": 1, "okay": 1, "calm": 2,

	// negative
	"bad": -3, "worse": -3, "worst": -3, "terrible": -3, "horrible": -3,
	"awful": -3, "poor": -2, "sad": -2, "unhappy": -2, "upset": -2,
	"hate": -3, "hated": -3, "hates": -3, "dislike": -2, "disliked": -2,
	"angry": -3, "anger": -3, "mad": -3, "furious": -3, "annoyed": -2,
	"annoying": -2, "boring": -3, "bored": -2, "stupid": -2, "dumb": -3,
	"ugly": -3, "wrong": -2, "fail": -2, "failed": -2, "failure": -2,
	"problem": -2, "problems": -2, "issue": -1, "issues": -1, "bug": -2,
	"broken": -1, "lost": -3, "lose": -3, "loss": -3, "crash": -2,
	"scam": -2, "spam": -2, "fake": -3, "fraud": -4, "lie": -2,
	"cry": -1, "crying": -2, "pain": -2, "hurt": -2, "fear": -2,
	"afraid": -2, "scared": -2, "worried": -3, "worry": -3, "sorry": -1,
	"disappointed": -2, "disappointing": -2, "useless": -2, "waste": -1, "sucks": -3,
	"no": -1, "never": -1, "damn": -4, "hell": -4, "shit": -4,
	"crap": -3, "wtf": -4, "kill": -3, "dead": -3, "die": -3,
	"disaster": -2, "danger": -2, "dangerous": -2, "error": -2, "confused": -2,
	"complain": -2, "complaint": -2, "ridiculous": -3, "nonsense": -2, "rude": -2,
}
