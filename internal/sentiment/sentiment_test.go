package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bhushanpardeshii/cribblebotbe/internal/config"
	"github.com/bhushanpardeshii/cribblebotbe/internal/models"
)

func TestLexiconScore(t *testing.T) {
	lex := NewLexicon(nil)
	ctx := context.Background()

	tests := []struct {
		text string
		want models.Verdict
	}{
		{"This is a great day, love it!", models.VerdictPositive},
		{"terrible service, I hate this", models.VerdictNegative},
		{"the meeting is at 5pm", models.VerdictNeutral},
		{"not good", models.VerdictNegative},
		{"I don't hate it", models.VerdictPositive},
		{"GREAT", models.VerdictPositive},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			score, err := lex.Score(ctx, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, models.VerdictFromScore(score))
		})
	}
}

func TestLexiconExtraWords(t *testing.T) {
	lex := NewLexicon(map[string]int{"Shipit": 3, "good": -1})

	score, err := lex.Score(context.Background(), "shipit")
	require.NoError(t, err)
	assert.Equal(t, 3.0, score)

	score, err = lex.Score(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, -1.0, score)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"don't", "stop", "me", "now"}, tokenize("Don't stop... me, NOW!"))
	assert.Empty(t, tokenize("   "))
}

func TestHTTPClientScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/sentiment", r.URL.Path)

		var req ScoreRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch req.Text {
		case "score":
			w.Write([]byte(`{"score": -2.5}`))
		case "label":
			w.Write([]byte(`{"label": "POSITIVE", "confidence": 0.8}`))
		case "unknown":
			w.Write([]byte(`{"label": "mixed"}`))
		default:
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL + "/")
	ctx := context.Background()

	score, err := client.Score(ctx, "score")
	require.NoError(t, err)
	assert.Equal(t, -2.5, score)

	score, err = client.Score(ctx, "label")
	require.NoError(t, err)
	assert.Equal(t, 0.8, score)

	_, err = client.Score(ctx, "unknown")
	assert.Error(t, err)

	_, err = client.Score(ctx, "down")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
}

func TestParseScore(t *testing.T) {
	score, err := parseScore("```json\n{\"score\": 3, \"label\": \"positive\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, 3.0, score)

	score, err = parseScore(`{"label": "neutral"}`)
	require.NoError(t, err)
	assert.Zero(t, score)

	_, err = parseScore("I think it is positive")
	assert.Error(t, err)
}

func TestNewGeminiClientRequestsJSON(t *testing.T) {
	c, err := NewGeminiClient(context.Background(), GeminiConfig{APIKey: "test-key"}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "application/json", c.model.ResponseMIMEType)
	require.NotNil(t, c.model.Temperature)
	assert.Equal(t, float32(0.2), *c.model.Temperature)
	assert.Equal(t, "gemini-2.0-flash-exp", c.modelName)

	_, err = NewGeminiClient(context.Background(), GeminiConfig{}, zap.NewNop())
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	c, closeFn, err := New(ctx, config.ClassifierConfig{Provider: ProviderLexicon}, logger)
	require.NoError(t, err)
	assert.IsType(t, &Lexicon{}, c)
	assert.NoError(t, closeFn())

	c, _, err = New(ctx, config.ClassifierConfig{Provider: ProviderHTTP, MLURL: "http://ml:8000"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &HTTPClient{}, c)

	_, _, err = New(ctx, config.ClassifierConfig{Provider: ProviderGemini}, logger)
	assert.Error(t, err)

	_, _, err = New(ctx, config.ClassifierConfig{Provider: "vader"}, logger)
	assert.Error(t, err)
}
