package conf

import (
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultBaseURL is the hosted Faunagram backend
	DefaultBaseURL = "https://faunagram-api-express.vercel.app/api/v1"

	DefaultTimeout   = 15 * time.Second
	DefaultCacheTTL  = 5 * time.Minute
	DefaultUserAgent = "faunagram-go"
)

// setDefaultConfig sets default values for the configuration.
func setDefaultConfig() {
	viper.SetDefault("debug", false)

	viper.SetDefault("api.baseurl", DefaultBaseURL)
	viper.SetDefault("api.timeout", DefaultTimeout)
	viper.SetDefault("api.useragent", DefaultUserAgent)

	viper.SetDefault("session.tokenfile", defaultTokenFile())

	viper.SetDefault("cache.ttl", DefaultCacheTTL)
	viper.SetDefault("cache.cleanupinterval", 10*time.Minute)

	viper.SetDefault("imagesearch.enabled", true)
	viper.SetDefault("imagesearch.unsplashaccesskey", "")
	viper.SetDefault("imagesearch.pexelsapikey", "")
	viper.SetDefault("imagesearch.timeout", 10*time.Second)
	viper.SetDefault("imagesearch.cachettl", time.Hour)
	viper.SetDefault("imagesearch.ratelimit", 2.0)
	viper.SetDefault("imagesearch.burst", 2)

	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.dsn", "")
	viper.SetDefault("telemetry.environment", "production")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.textfilepath", "")

	viper.SetDefault("logging.default_level", "warn")
	viper.SetDefault("logging.timezone", "Local")
	viper.SetDefault("logging.console.enabled", true)
	viper.SetDefault("logging.file_output.enabled", false)
	viper.SetDefault("logging.file_output.path", "logs/faunagram.log")
}
