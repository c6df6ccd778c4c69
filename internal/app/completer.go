package app

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/docsage/docsage/internal/config"
)

// genkitCompleter adapts genkit.Generate to the answer.Completer
// interface.
type genkitCompleter struct {
	g         *genkit.Genkit
	modelName string
	maxTokens int
	temp      float64
}

func newGenkitCompleter(g *genkit.Genkit, cfg *config.Config) *genkitCompleter {
	return &genkitCompleter{
		g:         g,
		modelName: cfg.FullModelName(),
		maxTokens: cfg.MaxAnswerTokens,
		temp:      cfg.Temperature,
	}
}

func (c *genkitCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	response, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.modelName),
		ai.WithMessages(ai.NewUserMessage(ai.NewTextPart(prompt))),
		ai.WithConfig(&ai.GenerationCommonConfig{
			MaxOutputTokens: c.maxTokens,
			Temperature:     c.temp,
		}),
	)
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}
	return response.Text(), nil
}
