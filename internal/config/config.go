package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	Timezone    string

	CORSAllowedOrigins []string

	LogLevel  string
	LogFormat string

	OTLPEnabled       bool
	OTLPEndpoint      string
	OTLPProtocol      string
	OTLPSamplingRatio float64

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBSlowQueryMs     int

	Photo  PhotoConfig
	Redis  RedisConfig
	Twilio TwilioConfig

	TrackRatePerSecond float64
	TrackBurst         int
	ShopName           string
	ShopAddress        string
	ShopPhone          string
}

type PhotoConfig struct {
	Backend   string
	Dir       string
	BaseURL   string
	MaxEdge   int
	Quality   int
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
}

// Enabled reports whether WhatsApp notifications can be sent.
func (t TwilioConfig) Enabled() bool {
	return t.AccountSID != "" && t.AuthToken != "" && t.WhatsAppFrom != ""
}

const (
	PhotoBackendLocal = "local"
	PhotoBackendMinIO = "minio"
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "shoecare"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		Timezone:    getenv("APP_TIMEZONE", "Asia/Jakarta"),

		CORSAllowedOrigins: splitAndTrim(getenv("CORS_ALLOWED_ORIGINS", "")),

		LogLevel:  strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat: strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),

		OTLPEnabled:       getenvBool("OTEL_ENABLED", false),
		OTLPEndpoint:      strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
		OTLPProtocol:      strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
		OTLPSamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "shoecare"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBSlowQueryMs:     getenvInt("DATABASE_SLOW_QUERY_MS", 200),

		Photo: PhotoConfig{
			Backend:   strings.ToLower(getenv("PHOTO_BACKEND", PhotoBackendLocal)),
			Dir:       getenv("PHOTO_DIR", "media"),
			BaseURL:   strings.TrimRight(getenv("PHOTO_BASE_URL", "/photos"), "/"),
			MaxEdge:   getenvInt("PHOTO_MAX_EDGE", 1000),
			Quality:   getenvInt("PHOTO_JPEG_QUALITY", 80),
			Endpoint:  strings.TrimSpace(getenv("MINIO_ENDPOINT", "")),
			AccessKey: strings.TrimSpace(getenv("MINIO_ACCESS_KEY", "")),
			SecretKey: strings.TrimSpace(getenv("MINIO_SECRET_KEY", "")),
			Bucket:    getenv("MINIO_BUCKET", "shoecare-photos"),
			UseSSL:    getenvBool("MINIO_USE_SSL", false),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Twilio: TwilioConfig{
			AccountSID:   strings.TrimSpace(getenv("TWILIO_ACCOUNT_SID", "")),
			AuthToken:    strings.TrimSpace(getenv("TWILIO_AUTH_TOKEN", "")),
			WhatsAppFrom: strings.TrimSpace(getenv("TWILIO_WHATSAPP_NUMBER", "")),
		},

		TrackRatePerSecond: getenvFloat("TRACK_RATE_PER_SECOND", 1),
		TrackBurst:         getenvInt("TRACK_BURST", 10),
		ShopName:           getenv("SHOP_NAME", "Shoe Care"),
		ShopAddress:        getenv("SHOP_ADDRESS", ""),
		ShopPhone:          getenv("SHOP_PHONE", ""),
	}

	return cfg
}

// Location returns the business time zone, falling back to UTC.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil || loc == nil {
		return time.UTC
	}
	return loc
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitAndTrim(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
