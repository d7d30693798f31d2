package server

import (
	"log/slog"

	"livematch-service/internal/config"
	"livematch-service/internal/metrics"
	"livematch-service/internal/providers"
	"livematch-service/internal/providers/backend"
	"livematch-service/internal/providers/fixture"
	"livematch-service/internal/providers/sofalive"
)

// buildProviders selects the data sources by cfg.Provider. "fixture" serves
// both surfaces from one in-process simulation; anything else wires the real
// backend client plus the rate-limited public feed.
func buildProviders(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (providers.DataProvider, providers.ExternalProvider, func()) {
	if cfg.Provider == "fixture" {
		sim := fixture.New()
		return sim, sim, func() {}
	}

	data := providers.NewRetryingProvider(
		backend.NewClient(cfg.Backend, logger), "backend", logger, recorder)
	external := providers.NewLimitedProvider(
		sofalive.NewClient(cfg.Sofalive, logger), "sofalive", cfg.Sofalive.MinCallSpacing, recorder)
	return data, external, external.Close
}
