// Package app wires the application together: configuration, database,
// Genkit provider plugins, and the domain components built on them.
package app

import (
	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/docsage/docsage/internal/answer"
	"github.com/docsage/docsage/internal/catalog"
	"github.com/docsage/docsage/internal/config"
	"github.com/docsage/docsage/internal/ingest"
	"github.com/docsage/docsage/internal/log"
	"github.com/docsage/docsage/internal/research"
	"github.com/docsage/docsage/internal/vectorindex"
)

// App is the application container. All fields are ready to use after
// Setup returns.
type App struct {
	Config *config.Config
	Logger log.Logger

	Genkit   *genkit.Genkit
	Embedder ai.Embedder
	DBPool   *pgxpool.Pool

	Index    *vectorindex.Index
	Catalog  *catalog.Catalog
	Engine   *answer.Engine
	Pipeline *ingest.Pipeline

	Arxiv     *research.ArxivClient
	WebSearch *research.WebSearcher
}

// Close releases application resources.
func (a *App) Close() error {
	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Debug("database pool closed")
	}
	return nil
}
