package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wayfare-group/trip-planner-cli/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Nominatim   NominatimConfig   `yaml:"nominatim" mapstructure:"nominatim"`
	Places      PlacesConfig      `yaml:"places" mapstructure:"places"`
	OpenTripMap OpenTripMapConfig `yaml:"opentripmap" mapstructure:"opentripmap"`
	OpenRoute   OpenRouteConfig   `yaml:"openroute" mapstructure:"openroute"`
	Gemini      GeminiConfig      `yaml:"gemini" mapstructure:"gemini"`
	Anthropic   AnthropicConfig   `yaml:"anthropic" mapstructure:"anthropic"`
	Pipeline    PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	Ranking     RankingConfig     `yaml:"ranking" mapstructure:"ranking"`
	Interests   InterestsConfig   `yaml:"interests" mapstructure:"interests"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Monitoring  MonitoringConfig  `yaml:"monitoring" mapstructure:"monitoring"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures run persistence.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite or postgres
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// NominatimConfig configures the free-text geocoding fallback.
type NominatimConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// PlacesConfig configures the structured places provider: geocoding, hotel
// search, and place details with reviews.
type PlacesConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	BaseURL      string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSec   float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	TimeoutSecs  int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	CacheTTLMins int     `yaml:"cache_ttl_mins" mapstructure:"cache_ttl_mins"`
	HotelRadiusM int     `yaml:"hotel_radius_m" mapstructure:"hotel_radius_m"`
	MaxHotels    int     `yaml:"max_hotels" mapstructure:"max_hotels"`
}

// OpenTripMapConfig configures the radius POI provider.
type OpenTripMapConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	RadiusM     int    `yaml:"radius_m" mapstructure:"radius_m"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// OpenRouteConfig configures the routing provider.
type OpenRouteConfig struct {
	Key         string `yaml:"key" mapstructure:"key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Profile     string `yaml:"profile" mapstructure:"profile"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// GeminiConfig holds API settings for the primary LLM.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// AnthropicConfig holds API settings for the fallback LLM.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PipelineConfig configures orchestration behavior.
type PipelineConfig struct {
	ProviderTimeoutSecs     int     `yaml:"provider_timeout_secs" mapstructure:"provider_timeout_secs"`
	MaxPOIs                 int     `yaml:"max_pois" mapstructure:"max_pois"`
	EnrichConcurrency       int     `yaml:"enrich_concurrency" mapstructure:"enrich_concurrency"`
	DedupLengthDelta        int     `yaml:"dedup_length_delta" mapstructure:"dedup_length_delta"`
	CostPerPOIUSD           float64 `yaml:"cost_per_poi_usd" mapstructure:"cost_per_poi_usd"`
	CostPerKmUSD            float64 `yaml:"cost_per_km_usd" mapstructure:"cost_per_km_usd"`
	RetryMaxAttempts        int     `yaml:"retry_max_attempts" mapstructure:"retry_max_attempts"`
	RetryInitialBackoffMs   int     `yaml:"retry_initial_backoff_ms" mapstructure:"retry_initial_backoff_ms"`
	BreakerFailureThreshold int     `yaml:"breaker_failure_threshold" mapstructure:"breaker_failure_threshold"`
	BreakerResetSecs        int     `yaml:"breaker_reset_secs" mapstructure:"breaker_reset_secs"`
}

// ProviderTimeout returns the time box applied to each provider call.
func (p PipelineConfig) ProviderTimeout() time.Duration {
	if p.ProviderTimeoutSecs <= 0 {
		return 15 * time.Second
	}
	return time.Duration(p.ProviderTimeoutSecs) * time.Second
}

// Retry returns the transient-failure retry policy applied inside each
// provider's time box. Unset fields keep the resilience defaults.
func (p PipelineConfig) Retry() resilience.RetryConfig {
	cfg := resilience.DefaultRetryConfig()
	if p.RetryMaxAttempts > 0 {
		cfg.MaxAttempts = p.RetryMaxAttempts
	}
	if p.RetryInitialBackoffMs > 0 {
		cfg.InitialBackoff = time.Duration(p.RetryInitialBackoffMs) * time.Millisecond
	}
	return cfg
}

// Breaker returns the per-provider circuit breaker policy.
func (p PipelineConfig) Breaker() resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig()
	if p.BreakerFailureThreshold > 0 {
		cfg.FailureThreshold = p.BreakerFailureThreshold
	}
	if p.BreakerResetSecs > 0 {
		cfg.ResetTimeout = time.Duration(p.BreakerResetSecs) * time.Second
	}
	return cfg
}

// RankingConfig holds the composite score weights. Heuristic and tunable,
// not contractual.
type RankingConfig struct {
	WeightRating     float64 `yaml:"weight_rating" mapstructure:"weight_rating"`
	WeightVolume     float64 `yaml:"weight_volume" mapstructure:"weight_volume"`
	VolumeCap        float64 `yaml:"volume_cap" mapstructure:"volume_cap"`
	WeightDistance   float64 `yaml:"weight_distance" mapstructure:"weight_distance"`
	DistanceScaleM   float64 `yaml:"distance_scale_m" mapstructure:"distance_scale_m"`
	SourceTrustBonus float64 `yaml:"source_trust_bonus" mapstructure:"source_trust_bonus"`
	RichnessPerChar  float64 `yaml:"richness_per_char" mapstructure:"richness_per_char"`
	RichnessCap      float64 `yaml:"richness_cap" mapstructure:"richness_cap"`
}

// InterestsConfig points at the vacation-type registry file.
type InterestsConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig configures background health checks and webhook alerts
// for the serve command.
type MonitoringConfig struct {
	Enabled               bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL            string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold  float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	DegradedRateThreshold float64 `yaml:"degraded_rate_threshold" mapstructure:"degraded_rate_threshold"`
	LookbackWindowHours   int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	CheckIntervalSecs     int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("TRIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "trips.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("nominatim.base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("nominatim.user_agent", "trip-planner-cli/1.0")
	v.SetDefault("nominatim.rate_per_sec", 1)
	v.SetDefault("nominatim.timeout_secs", 10)
	v.SetDefault("places.base_url", "https://maps.googleapis.com/maps/api")
	v.SetDefault("places.rate_per_sec", 10)
	v.SetDefault("places.timeout_secs", 10)
	v.SetDefault("places.cache_ttl_mins", 30)
	v.SetDefault("places.hotel_radius_m", 5000)
	v.SetDefault("places.max_hotels", 8)
	v.SetDefault("opentripmap.base_url", "https://api.opentripmap.com/0.1/en/places")
	v.SetDefault("opentripmap.radius_m", 15000)
	v.SetDefault("opentripmap.timeout_secs", 10)
	v.SetDefault("openroute.base_url", "https://api.openrouteservice.org")
	v.SetDefault("openroute.profile", "foot-walking")
	v.SetDefault("openroute.timeout_secs", 15)
	v.SetDefault("gemini.model", "gemini-2.0-flash")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 2048)
	v.SetDefault("pipeline.provider_timeout_secs", 15)
	v.SetDefault("pipeline.max_pois", 20)
	v.SetDefault("pipeline.enrich_concurrency", 4)
	v.SetDefault("pipeline.dedup_length_delta", 3)
	v.SetDefault("pipeline.cost_per_poi_usd", 5)
	v.SetDefault("pipeline.cost_per_km_usd", 0.15)
	v.SetDefault("pipeline.retry_max_attempts", 3)
	v.SetDefault("pipeline.retry_initial_backoff_ms", 300)
	v.SetDefault("pipeline.breaker_failure_threshold", 5)
	v.SetDefault("pipeline.breaker_reset_secs", 30)
	v.SetDefault("ranking.weight_rating", 20)
	v.SetDefault("ranking.weight_volume", 10)
	v.SetDefault("ranking.volume_cap", 30)
	v.SetDefault("ranking.weight_distance", 10)
	v.SetDefault("ranking.distance_scale_m", 10000)
	v.SetDefault("ranking.source_trust_bonus", 2)
	v.SetDefault("ranking.richness_per_char", 0.01)
	v.SetDefault("ranking.richness_cap", 5)
	v.SetDefault("interests.path", "interests.yaml")
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.degraded_rate_threshold", 0.75)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.check_interval_secs", 300)

	// Read config file if present
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
