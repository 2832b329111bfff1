package main

import (
	"context"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/custodia-labs/vetta/internal/adapters/driven/ai"
	"github.com/custodia-labs/vetta/internal/adapters/driven/config/file"
	"github.com/custodia-labs/vetta/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/vetta/internal/adapters/driving/cli"
	"github.com/custodia-labs/vetta/internal/config"
	"github.com/custodia-labs/vetta/internal/core/domain"
	"github.com/custodia-labs/vetta/internal/core/ports/driven"
	"github.com/custodia-labs/vetta/internal/core/services"
	"github.com/custodia-labs/vetta/internal/isolation"
	"github.com/custodia-labs/vetta/internal/logger"
	"github.com/custodia-labs/vetta/internal/sources/apify"
	"github.com/custodia-labs/vetta/internal/sources/httpx"
	"github.com/custodia-labs/vetta/internal/sources/registry"
	"github.com/custodia-labs/vetta/internal/sources/riskreport"
	"github.com/custodia-labs/vetta/internal/sources/websearch"
)

func openConfig(dir string) (driven.ConfigStore, error) {
	return file.NewConfigStore(dir)
}

// baseDir is the directory holding the configuration file.
func baseDir(store driven.ConfigStore) string {
	return filepath.Dir(store.Path())
}

func httpConfig(s *config.Settings) httpx.Config {
	return httpx.Config{
		Timeout:           s.HTTP.Timeout,
		RequestsPerSecond: s.HTTP.Rate,
	}
}

// buildServices wires every source into the pipeline for one process.
func buildServices(ctx context.Context, store driven.ConfigStore) (*cli.Services, error) {
	s, err := config.Load(store)
	if err != nil {
		return nil, err
	}
	dir := baseDir(store)

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return nil, errors.Wrap(err, "open prompt store")
	}
	llm := reportWriter(s)

	adapters, err := buildSources(ctx, s, store)
	if err != nil {
		return nil, err
	}
	orch, err := services.NewOrchestrator(adapters,
		services.WithExclusions(s.Pipeline.Exclude...),
		services.WithPipelineDeadline(s.Pipeline.Deadline),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create orchestrator")
	}

	history, err := sqlite.NewStore(filepath.Join(dir, "data"))
	if err != nil {
		return nil, errors.Wrap(err, "open history")
	}

	reports := services.NewReportGenerator(llm, prompts)
	return &cli.Services{
		Vetting:  services.NewVettingService(orch, history, reports),
		History:  services.NewHistoryService(history),
		Settings: s,
		Close: func() error {
			var errs error
			if llm != nil {
				errs = errors.CombineErrors(errs, llm.Close())
			}
			return errors.CombineErrors(errs, history.Close())
		},
	}, nil
}

// buildSources returns the adapters in declaration order.
func buildSources(ctx context.Context, s *config.Settings, store driven.ConfigStore) ([]driven.SourceAdapter, error) {
	hc := httpConfig(s)

	profiles := apify.NewClient(apify.Config{
		Token:      s.Apify.Token,
		PostsLimit: s.Apify.PostsLimit,
		HTTP:       hc,
	})

	reg := services.NewSourceRegistry()
	err := reg.Register(
		apify.NewProfileDetails(profiles),
		apify.NewProfilePosts(profiles, s.Apify.PostsLimit),
		apify.NewTrafficStats(profiles),
		registry.New(registry.Config{HTTP: hc}),
		websearch.New(searchProvider(ctx, s, hc),
			websearch.WithRegion(s.WebSearch.Region),
			websearch.WithMaxResults(s.WebSearch.MaxResults),
		),
		isolation.NewBoundary(domain.SourceRiskReport, s.RiskReport.Timeout,
			isolation.WithCommand(isolation.SelfCommand("--config-dir", baseDir(store))),
			isolation.WithPrecheck(riskreport.Precheck),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "register sources")
	}
	return reg.Adapters(), nil
}

// searchProvider returns nil when the chosen provider cannot be created;
// the web search source then fails with a configuration hint.
func searchProvider(ctx context.Context, s *config.Settings, hc httpx.Config) websearch.Provider {
	switch s.WebSearch.Provider {
	case config.ProviderGoogle:
		g, err := websearch.NewGoogle(ctx, websearch.GoogleConfig{
			APIKey:            s.WebSearch.GoogleAPIKey,
			EngineID:          s.WebSearch.GoogleCSEID,
			RequestsPerSecond: s.HTTP.Rate,
		})
		if err != nil {
			logger.Debug("Google search unavailable: %v", err)
			return nil
		}
		return g
	default:
		return websearch.NewTavily(websearch.TavilyConfig{APIKey: s.WebSearch.TavilyAPIKey, HTTP: hc})
	}
}

// reportWriter returns nil when no LLM is configured or it cannot be created.
func reportWriter(s *config.Settings) driven.LLMService {
	llm, err := ai.CreateLLMService(s.LLM)
	if err != nil {
		logger.Warn("Report writer unavailable: %v", err)
		return nil
	}
	return llm
}

// workerSource builds the adapter run inside an isolated worker process.
func workerSource(_ context.Context, store driven.ConfigStore, key domain.SourceKey) (driven.SourceAdapter, error) {
	if key != domain.SourceRiskReport {
		return nil, errors.Wrapf(domain.ErrUnsupportedSource, "%s does not run in a worker", key)
	}
	s, err := config.Load(store)
	if err != nil {
		return nil, err
	}

	var opts []riskreport.Option
	if llm := reportWriter(s); llm != nil {
		prompts, err := file.NewPromptStore(filepath.Join(baseDir(store), "prompts"))
		if err != nil {
			return nil, errors.Wrap(err, "open prompt store")
		}
		opts = append(opts, riskreport.WithCleaner(llm, prompts))
	}

	return riskreport.New(riskreport.Config{
		Email:    s.RiskReport.Email,
		Password: s.RiskReport.Password,
		BaseURL:  s.RiskReport.BaseURL,
		HTTP:     httpConfig(s),
	}, opts...), nil
}
