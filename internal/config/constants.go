package config

import "time"

const (
	envPort               = "PORT"
	envProvider           = "PROVIDER"
	envLeague             = "LEAGUE"
	envMetricsPort        = "METRICS_PORT"
	envMetricsOn          = "METRICS_ENABLED"
	envOtelEndpoint       = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService        = "OTEL_SERVICE_NAME"
	envOtelInsecure       = "OTEL_EXPORTER_OTLP_INSECURE"
	envSnapshotInterval   = "SNAPSHOT_POLL_INTERVAL"
	envTimelineInterval   = "TIMELINE_POLL_INTERVAL"
	envScoreboardInterval = "SCOREBOARD_POLL_INTERVAL"
	envFeedInterval       = "EXTERNAL_FEED_POLL_INTERVAL"

	defaultPort     = "4000"
	defaultProvider = "fixture"
	defaultLeague   = "premier-league"

	defaultMetricsPort = "9090"

	// Backend snapshot polling is the primary feed; timeline and scoreboard
	// refresh less often, and the external feed slower still since it is a
	// best-effort supplemental source on a rate-limited public API.
	defaultSnapshotInterval   = 10 * Duration(time.Second)
	defaultTimelineInterval   = 30 * Duration(time.Second)
	defaultScoreboardInterval = 60 * Duration(time.Second)
	defaultFeedInterval       = 45 * Duration(time.Second)
)
