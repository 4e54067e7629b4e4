// Package catalog assembles the server's tools and resources from
// configuration.
// file: internal/catalog/catalog.go
package catalog

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/headlines/internal/config"
	"github.com/dkoosis/headlines/internal/logging"
	"github.com/dkoosis/headlines/internal/mcp"
	"github.com/dkoosis/headlines/internal/news"
	"github.com/dkoosis/headlines/internal/sampledata"
)

// New builds the immutable registry served by every transport.
func New(cfg *config.Config, logger logging.Logger, fetcherOpts ...news.FetcherOption) (*mcp.Registry, error) {
	if cfg == nil {
		return nil, errors.New("catalog requires a configuration")
	}
	if logger == nil {
		logger = logging.GetNoopLogger()
	}

	newsService := news.NewService(cfg.News, logger, fetcherOpts...)

	tools := []mcp.Tool{
		newsService.Tool(),
		sampledata.Tool(),
	}
	resources := []mcp.Resource{
		sampledata.Resource(),
	}

	reg, err := mcp.NewRegistry(tools, resources)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build tool catalog")
	}
	logger.Debug("Catalog built.", "tools", len(tools), "resources", len(resources))
	return reg, nil
}

// NewDispatcher builds the registry and wraps it in a dispatcher that
// identifies itself with the configured server name and version.
func NewDispatcher(cfg *config.Config, version string, logger logging.Logger, fetcherOpts ...news.FetcherOption) (*mcp.Dispatcher, error) {
	reg, err := New(cfg, logger, fetcherOpts...)
	if err != nil {
		return nil, err
	}
	return mcp.NewDispatcher(reg,
		mcp.Implementation{Name: cfg.Server.Name, Version: version},
		logger,
		mcp.WithInstructions(Instructions(cfg)),
	)
}

// Instructions is the free-text usage hint returned by initialize.
func Instructions(cfg *config.Config) string {
	return fmt.Sprintf("Use %s to read recent %s headlines (categories: %s) and %s for test records.",
		news.ToolName, cfg.News.SiteName, strings.Join(news.Categories(), ", "), sampledata.ToolName)
}
