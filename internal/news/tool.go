// file: internal/news/tool.go
package news

import (
	"context"
	"fmt"
	"strings"

	"github.com/dkoosis/headlines/internal/config"
	"github.com/dkoosis/headlines/internal/logging"
	"github.com/dkoosis/headlines/internal/mcp"
)

// ToolName is the registered name of the news tool.
const ToolName = "fetch_news"

// FetchArgs are the decoded fetch_news arguments.
type FetchArgs struct {
	Category string `json:"category"`
}

// Service backs the fetch_news tool.
type Service struct {
	cfg       config.NewsConfig
	fetcher   *Fetcher
	extractor *Extractor
	logger    logging.Logger
}

// NewService wires a Fetcher and Extractor from cfg. Fetcher options are
// passed through, mainly so tests can supply their own http.Client.
func NewService(cfg config.NewsConfig, logger logging.Logger, opts ...FetcherOption) *Service {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &Service{
		cfg:       cfg,
		fetcher:   NewFetcher(cfg.UserAgent, cfg.MaxBodyBytes, logger, opts...),
		extractor: NewExtractor(cfg.SiteName),
		logger:    logger.WithField("component", "news_service"),
	}
}

// FetchNews fetches the page for category and returns its text digest.
// Failures are reported in the returned text, never as an error.
func (s *Service) FetchNews(ctx context.Context, category string) string {
	logger := s.logger.WithContext(ctx)

	cat, ok := NormalizeCategory(category)
	if !ok {
		logger.Warn("Invalid category, defaulting to latest.", "category", category)
	}
	url := CategoryURL(s.cfg.BaseURL, cat)
	logger.Info("Fetching news.", "site", s.cfg.SiteName, "category", cat, "url", url)

	outcome := s.fetcher.Fetch(ctx, url, s.cfg.Timeout)
	return s.extractor.Extract(outcome, cat)
}

// Tool returns the fetch_news registration.
func (s *Service) Tool() mcp.Tool {
	return mcp.Tool{
		Descriptor: mcp.ToolDescriptor{
			Name:        ToolName,
			Description: fmt.Sprintf("Fetch the latest news from %s for a given category.", s.cfg.SiteName),
			InputSchema: mcp.MustMarshalJSON(map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"category": map[string]interface{}{
						"type":        "string",
						"default":     CategoryLatest,
						"description": "The news category to fetch (" + strings.Join(categories, ", ") + ")",
					},
				},
			}),
		},
		Handler: mcp.TypedHandler(func(ctx context.Context, args FetchArgs) (mcp.CallToolResult, error) {
			return mcp.TextResult(s.FetchNews(ctx, args.Category)), nil
		}),
	}
}
