// Package sentiment provides the classifiers used to score message text.
package sentiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/bhushanpardeshii/cribblebotbe/internal/config"
	"github.com/bhushanpardeshii/cribblebotbe/internal/service"
)

const (
	ProviderLexicon = "lexicon"
	ProviderHTTP    = "http"
	ProviderGemini  = "gemini"
)

// New builds the classifier selected by cfg. The returned close function
// releases any client resources and is never nil.
func New(ctx context.Context, cfg config.ClassifierConfig, logger *zap.Logger) (service.Classifier, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Provider {
	case ProviderLexicon, "":
		return NewLexicon(nil), noop, nil
	case ProviderHTTP:
		return NewHTTPClient(cfg.MLURL), noop, nil
	case ProviderGemini:
		c, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:    cfg.Gemini.APIKey,
			ModelName: cfg.Gemini.ModelName,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown classifier provider %q", cfg.Provider)
	}
}
