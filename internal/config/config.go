package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the companion runtime configuration.
type Config struct {
	Server struct {
		Port         string
		ReadTimeout  time.Duration
		WriteTimeout time.Duration
		// UIOrigins lists the browser origins allowed to call the companion.
		UIOrigins []string
		// LocalSecret is presented by the UI on every call. Generated when empty.
		LocalSecret string
		SecretFile  string
	}
	Backend struct {
		APIURL         string
		PushURL        string
		RequestTimeout time.Duration
		SubmitTimeout  time.Duration
	}
	Geocoder struct {
		URL    string
		APIKey string
	}
	Store struct {
		Driver string
		DSN    string
	}
	AMQP struct {
		URL        string
		Exchange   string
		RoutingKey string
	}
	Tracing struct {
		OTLPEndpoint string
		ServiceName  string
	}
	LogLevel    string
	Environment string
	DebugRoutes bool
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Server.Port = getEnv("PORT", "8090")
	cfg.Server.ReadTimeout = getEnvAsDuration("SERVER_READ_TIMEOUT", "10s")
	cfg.Server.WriteTimeout = getEnvAsDuration("SERVER_WRITE_TIMEOUT", "30s")
	cfg.Server.UIOrigins = getEnvAsList("UI_ORIGINS", "http://localhost:"+cfg.Server.Port+",http://127.0.0.1:"+cfg.Server.Port)
	cfg.Server.LocalSecret = getEnv("COMPANION_SECRET", "")
	cfg.Server.SecretFile = getEnv("COMPANION_SECRET_FILE", "evento.secret")

	cfg.Backend.APIURL = strings.TrimSuffix(getEnv("API_URL", "http://localhost:3000"), "/")
	cfg.Backend.PushURL = getEnv("PUSH_URL", pushURLFromAPI(cfg.Backend.APIURL))
	cfg.Backend.RequestTimeout = getEnvAsDuration("API_REQUEST_TIMEOUT", "30s")
	cfg.Backend.SubmitTimeout = getEnvAsDuration("API_SUBMIT_TIMEOUT", "15s")

	cfg.Geocoder.URL = getEnv("GEOCODER_URL", "https://api.opencagedata.com/geocode/v1/json")
	cfg.Geocoder.APIKey = getEnv("GEOCODER_API_KEY", "")

	cfg.Store.Driver = getEnv("STORE_DRIVER", "sqlite")
	cfg.Store.DSN = getEnv("STORE_DSN", "evento.db")

	cfg.AMQP.URL = getEnv("AMQP_URL", "")
	cfg.AMQP.Exchange = getEnv("AMQP_EXCHANGE", "evento.audit")
	cfg.AMQP.RoutingKey = getEnv("AMQP_ROUTING_KEY", "audit.companion")

	cfg.Tracing.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg.Tracing.ServiceName = getEnv("OTEL_SERVICE_NAME", "evento-companion")

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.Environment = getEnv("ENVIRONMENT", "local")
	cfg.DebugRoutes = getEnvAsBool("DEBUG_ROUTES", false)

	return cfg
}

// pushURLFromAPI derives the websocket endpoint served next to the REST API.
func pushURLFromAPI(apiURL string) string {
	switch {
	case strings.HasPrefix(apiURL, "https://"):
		return "wss://" + strings.TrimPrefix(apiURL, "https://") + "/ws"
	case strings.HasPrefix(apiURL, "http://"):
		return "ws://" + strings.TrimPrefix(apiURL, "http://") + "/ws"
	default:
		return apiURL + "/ws"
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvAsDuration(key, fallback string) time.Duration {
	if d, err := time.ParseDuration(getEnv(key, fallback)); err == nil {
		return d
	}
	d, _ := time.ParseDuration(fallback)
	return d
}

func getEnvAsBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return b
	}
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, fallback), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
