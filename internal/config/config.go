// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Model    ModelConfig
	Training TrainingConfig
	Forecast ForecastConfig
	Archive  ArchiveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled        bool
	RedisURL       string
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	RiskTTLSeconds int
}

// ModelConfig locates the persisted model bundles.
type ModelConfig struct {
	Dir  string
	Name string
}

// TrainingConfig holds the knobs for dataset building and labeling.
// Seed and the real-sample switchover are configurable on purpose so
// training stays reproducible in thin-data environments.
type TrainingConfig struct {
	MinRealSamples   int
	SyntheticSamples int
	Seed             int64
	HorizonDays      int
	SafetyFactor     float64
}

type ForecastConfig struct {
	HorizonDays      int
	BatchResultLimit int
}

// ArchiveConfig configures the optional S3-compatible mirror for
// trained model bundles. Disabled unless an endpoint is set.
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "medstock")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_RISK_TTL_SECONDS", 60)
		viper.SetDefault("MODEL_DIR", "./data/models")
		viper.SetDefault("MODEL_NAME", "shortage")
		viper.SetDefault("TRAIN_MIN_REAL_SAMPLES", 50)
		viper.SetDefault("TRAIN_SYNTHETIC_SAMPLES", 2000)
		viper.SetDefault("TRAIN_SEED", 42)
		viper.SetDefault("LABEL_HORIZON_DAYS", 7)
		viper.SetDefault("LABEL_SAFETY_FACTOR", 1.2)
		viper.SetDefault("FORECAST_HORIZON_DAYS", 30)
		viper.SetDefault("BATCH_RESULT_LIMIT", 50)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_ACCESS_KEY", "")
		viper.SetDefault("ARCHIVE_SECRET_KEY", "")
		viper.SetDefault("ARCHIVE_BUCKET", "")
		viper.SetDefault("ARCHIVE_REGION", "")
		viper.SetDefault("ARCHIVE_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		// Ensure the model directory exists
		ensureDir(viper.GetString("MODEL_DIR"))

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:        viper.GetBool("CACHE_ENABLED"),
				RedisURL:       viper.GetString("REDIS_URL"),
				RedisHost:      viper.GetString("REDIS_HOST"),
				RedisPort:      viper.GetString("REDIS_PORT"),
				RedisPassword:  viper.GetString("REDIS_PASSWORD"),
				RedisDB:        viper.GetInt("REDIS_DB"),
				RiskTTLSeconds: viper.GetInt("CACHE_RISK_TTL_SECONDS"),
			},
			Model: ModelConfig{
				Dir:  viper.GetString("MODEL_DIR"),
				Name: viper.GetString("MODEL_NAME"),
			},
			Training: TrainingConfig{
				MinRealSamples:   viper.GetInt("TRAIN_MIN_REAL_SAMPLES"),
				SyntheticSamples: viper.GetInt("TRAIN_SYNTHETIC_SAMPLES"),
				Seed:             viper.GetInt64("TRAIN_SEED"),
				HorizonDays:      viper.GetInt("LABEL_HORIZON_DAYS"),
				SafetyFactor:     viper.GetFloat64("LABEL_SAFETY_FACTOR"),
			},
			Forecast: ForecastConfig{
				HorizonDays:      viper.GetInt("FORECAST_HORIZON_DAYS"),
				BatchResultLimit: viper.GetInt("BATCH_RESULT_LIMIT"),
			},
			Archive: ArchiveConfig{
				Enabled:   viper.GetString("ARCHIVE_ENDPOINT") != "",
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				Region:    viper.GetString("ARCHIVE_REGION"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
		}
	})

	return instance
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
