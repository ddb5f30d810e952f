package models

import "math"

// Verdict is the sentiment class of a single message.
type Verdict string

const (
	VerdictPositive Verdict = "positive"
	VerdictNegative Verdict = "negative"
	VerdictNeutral  Verdict = "neutral"
)

// VerdictFromScore maps a numeric sentiment score to a Verdict.
func VerdictFromScore(score float64) Verdict {
	switch {
	case score > 0:
		return VerdictPositive
	case score < 0:
		return VerdictNegative
	default:
		return VerdictNeutral
	}
}

// ScanState describes how message retrieval for an analysis ended.
type ScanState string

const (
	ScanScanning     ScanState = "scanning"
	ScanStoppedEarly ScanState = "stopped_early"
	ScanExhausted    ScanState = "exhausted"
)

// AnalysisReport holds aggregate statistics for one group over the analysis window.
type AnalysisReport struct {
	TotalMessages      int       `json:"totalMessages"`
	RecentMessages     int       `json:"recentMessages"`
	Positive           int       `json:"positive"`
	Negative           int       `json:"negative"`
	Neutral            int       `json:"neutral"`
	PositivePercentage float64   `json:"positivePercentage"`
	NegativePercentage float64   `json:"negativePercentage"`
	NeutralPercentage  float64   `json:"neutralPercentage"`
	UniqueUsers        int       `json:"uniqueUsers"`
	ScanState          ScanState `json:"scanState,omitempty"`
}

// Add counts one classified message.
func (r *AnalysisReport) Add(v Verdict) {
	switch v {
	case VerdictPositive:
		r.Positive++
	case VerdictNegative:
		r.Negative++
	default:
		r.Neutral++
	}
	r.RecentMessages++
}

// Finalize computes the percentages from the verdict counts.
func (r *AnalysisReport) Finalize() {
	if r.RecentMessages == 0 {
		r.PositivePercentage, r.NegativePercentage, r.NeutralPercentage = 0, 0, 0
		return
	}
	r.PositivePercentage = percentage(r.Positive, r.RecentMessages)
	r.NegativePercentage = percentage(r.Negative, r.RecentMessages)
	r.NeutralPercentage = percentage(r.Neutral, r.RecentMessages)
}

// percentage returns part/total*100 rounded to one decimal place.
func percentage(part, total int) float64 {
	return math.Round(float64(part)/float64(total)*1000) / 10
}
