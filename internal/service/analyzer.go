package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bhushanpardeshii/cribblebotbe/internal/models"
)

// NoRecentMessages is reported when the default seven day window holds no
// text messages.
const NoRecentMessages = "No messages found in the last 7 days"

// NoRecentMessagesIn is the empty-window message for a window of any length.
func NoRecentMessagesIn(window time.Duration) string {
	days := int(window / (24 * time.Hour))
	switch {
	case days == 1 && window%(24*time.Hour) == 0:
		return "No messages found in the last day"
	case days >= 1 && window%(24*time.Hour) == 0:
		return fmt.Sprintf("No messages found in the last %d days", days)
	default:
		return fmt.Sprintf("No messages found in the last %s", window)
	}
}

// SessionProvider hands out the authenticated connection.
type SessionProvider interface {
	Conn() (Conn, error)
}

// AnalyzerOptions bounds the history scan.
type AnalyzerOptions struct {
	Window         time.Duration
	MaxMessages    int
	OldStreakLimit int
}

// DefaultAnalyzerOptions returns the standard seven day window, 2000 message cap
// and stop after 10 consecutive old messages.
func DefaultAnalyzerOptions() AnalyzerOptions {
	return AnalyzerOptions{
		Window:         7 * 24 * time.Hour,
		MaxMessages:    2000,
		OldStreakLimit: 10,
	}
}

// Analysis is the outcome of analysing one group.
type Analysis struct {
	Group   models.Conversation
	Report  models.AnalysisReport
	Message string
}

// Analyzer computes sentiment and engagement statistics for group conversations.
type Analyzer struct {
	sessions   SessionProvider
	classifier Classifier
	opts       AnalyzerOptions
	logger     *zap.Logger
	now        func() time.Time
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(sessions SessionProvider, classifier Classifier, opts AnalyzerOptions, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		sessions:   sessions,
		classifier: classifier,
		opts:       opts,
		logger:     logger,
		now:        time.Now,
	}
}

// ListGroups returns the group conversations of the authenticated account,
// numbered from 1 in listing order.
func (a *Analyzer) ListGroups(ctx context.Context) ([]models.Conversation, error) {
	conn, err := a.sessions.Conn()
	if err != nil {
		return nil, err
	}
	return a.listGroups(ctx, conn)
}

func (a *Analyzer) listGroups(ctx context.Context, conn Conn) ([]models.Conversation, error) {
	dialogs, err := conn.Dialogs(ctx)
	if err != nil {
		return nil, upstream("get dialogs", err)
	}

	groups := make([]models.Conversation, 0, len(dialogs))
	for _, d := range dialogs {
		if !d.IsGroup {
			continue
		}
		groups = append(groups, models.Conversation{
			ID:   len(groups) + 1,
			Name: d.Name,
			Peer: d.Peer,
		})
	}
	return groups, nil
}

// Analyze scans the recent history of the group with the given ordinal and
// classifies every message inside the window.
func (a *Analyzer) Analyze(ctx context.Context, ordinal int) (*Analysis, error) {
	conn, err := a.sessions.Conn()
	if err != nil {
		return nil, err
	}
	if ordinal == 0 {
		return nil, ErrGroupIndexRequired
	}

	groups, err := a.listGroups(ctx, conn)
	if err != nil {
		return nil, err
	}
	if ordinal < 0 || ordinal > len(groups) {
		return nil, ErrInvalidSelector
	}
	group := groups[ordinal-1]

	cutoff := a.now().Add(-a.opts.Window).Unix()
	it := conn.Messages(group.Peer, a.opts.MaxMessages)

	scan, err := scanWindow(ctx, it, cutoff, a.opts.MaxMessages, a.opts.OldStreakLimit)
	if err != nil {
		return nil, upstream("get messages", err)
	}

	a.logger.Info("Scanned group history",
		zap.String("group", group.Name),
		zap.Int("retrieved", scan.Total),
		zap.Int("in_window", len(scan.Recent)),
		zap.String("state", string(scan.State)))

	result := &Analysis{Group: group}
	if len(scan.Recent) == 0 {
		result.Message = NoRecentMessagesIn(a.opts.Window)
		return result, nil
	}

	result.Report = a.aggregate(ctx, scan.Recent)
	result.Report.TotalMessages = scan.Total
	result.Report.ScanState = scan.State
	return result, nil
}

// aggregate classifies msgs and tallies verdicts and distinct authors.
// Messages that fail classification are left out of every count.
func (a *Analyzer) aggregate(ctx context.Context, msgs []models.Message) models.AnalysisReport {
	var report models.AnalysisReport
	authors := make(map[int64]struct{})

	for _, msg := range msgs {
		score, err := a.classifier.Score(ctx, msg.Text)
		if err != nil {
			a.logger.Warn("Error analyzing message", zap.Int("message_id", msg.ID), zap.Error(err))
			continue
		}
		report.Add(models.VerdictFromScore(score))
		if msg.AuthorID != 0 {
			authors[msg.AuthorID] = struct{}{}
		}
	}

	report.UniqueUsers = len(authors)
	report.Finalize()
	return report
}

type scanResult struct {
	Total  int
	Recent []models.Message
	State  models.ScanState
}

// scanWindow pulls messages newest-first and keeps the non-blank ones dated at
// or after cutoff. It stops after maxMessages retrieved messages, at the end of
// the history, or once oldStreakLimit consecutive non-blank messages fall
// before cutoff. Blank messages count as retrieved but never touch the streak.
func scanWindow(ctx context.Context, it MessageIterator, cutoff int64, maxMessages, oldStreakLimit int) (scanResult, error) {
	res := scanResult{State: models.ScanScanning}
	streak := 0

	for res.State == models.ScanScanning {
		if res.Total >= maxMessages || !it.Next(ctx) {
			res.State = models.ScanExhausted
			break
		}
		msg := it.Value()
		res.Total++

		if !msg.HasText() {
			continue
		}
		if msg.Date >= cutoff {
			res.Recent = append(res.Recent, msg)
			streak = 0
			continue
		}

		streak++
		if streak >= oldStreakLimit {
			res.State = models.ScanStoppedEarly
		}
	}

	if err := it.Err(); err != nil {
		return res, fmt.Errorf("iterate messages: %w", err)
	}
	return res, nil
}
