package blueprint

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Mode      string
	ApiPort   string
	LogConfig struct {
		Level string
		File  string
	}
	MainDatabase struct {
		Host         string
		Port         string
		User         string
		Password     string
		DatabaseName string
		SSLMode      string
	}
	RedisConfig struct {
		Enabled  bool
		Host     string
		Port     string
		Password string
		DB       int
	}
	NatsConfig struct {
		Enabled bool
		URL     string
	}
	EngineConfig struct {
		DefaultMaxGas  int64
		BatchLimit     int
		IdempotencyTTL time.Duration
	}
}

var config AppConfig

// InitConfig loads envfile, builds the AppConfig and connects the process globals.
func InitConfig(envfile string) {
	if err := godotenv.Load(envfile); err != nil {
		log.Printf("Could not load %s file, using process environment: %s", envfile, err)
	}
	config = LoadConfig()

	Logger = initLogger(config.LogConfig.Level, config.LogConfig.File)
	DB = connectToPostgres(config.MainDatabase.Host, config.MainDatabase.User, config.MainDatabase.Password, config.MainDatabase.DatabaseName, config.MainDatabase.Port, config.MainDatabase.SSLMode)
	if config.RedisConfig.Enabled {
		Redis = connectToRedis(config.RedisConfig.Host, config.RedisConfig.Port, config.RedisConfig.Password, config.RedisConfig.DB)
	}
	if config.NatsConfig.Enabled {
		Nats = connectToNats(config.NatsConfig.URL)
	}
}

// LoadConfig reads the AppConfig from the process environment.
func LoadConfig() AppConfig {
	var cfg AppConfig
	cfg.Mode = GetEnv("RUN_MODE", "prod")
	cfg.ApiPort = GetEnv("API_PORT", ":8080")

	cfg.LogConfig.Level = GetEnv("LOG_LEVEL", "info")
	cfg.LogConfig.File = GetEnv("LOG_FILE", "")

	cfg.MainDatabase.Host = getEnvOrPanic("DB_HOSTNAME")
	cfg.MainDatabase.Port = getEnvOrPanic("DB_PORT")
	cfg.MainDatabase.User = getEnvOrPanic("DB_USERNAME")
	cfg.MainDatabase.Password = getEnvOrPanic("DB_PASSWORD")
	cfg.MainDatabase.DatabaseName = getEnvOrPanic("DB_NAME")
	cfg.MainDatabase.SSLMode = GetEnv("DB_SSL_MODE", "disable")

	cfg.RedisConfig.Enabled = getBoolEnvOrDefault("REDIS_ENABLED", true)
	cfg.RedisConfig.Host = GetEnv("REDIS_HOST", "localhost")
	cfg.RedisConfig.Port = GetEnv("REDIS_PORT", "6379")
	cfg.RedisConfig.Password = GetEnv("REDIS_PASSWORD", "")
	cfg.RedisConfig.DB = getIntEnvOrDefault("REDIS_DB", 0)

	cfg.NatsConfig.Enabled = getBoolEnvOrDefault("NATS_ENABLED", true)
	cfg.NatsConfig.URL = GetEnv("NATS_URL", nats.DefaultURL)

	cfg.EngineConfig.DefaultMaxGas = int64(getIntEnvOrDefault("ENGINE_DEFAULT_MAX_GAS", 1000))
	cfg.EngineConfig.BatchLimit = getIntEnvOrDefault("ENGINE_BATCH_LIMIT", 8)
	cfg.EngineConfig.IdempotencyTTL = time.Duration(getIntEnvOrDefault("IDEMPOTENCY_TTL_MINUTES", 24*60)) * time.Minute
	return cfg
}

func GetConfig() AppConfig {
	return config
}

func getEnvOrPanic(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s must be set", key)
	}
	return value
}

func GetEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultValue
	}
	return value
}

func connectToPostgres(host string, username string, password string, dbname string, port string, ssl string) *gorm.DB {
	var err error
	var db *gorm.DB
	var conn *sql.DB

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, username, password, dbname, port, ssl)
	if db, err = gorm.Open(postgres.Open(dsn),
		&gorm.Config{
			Logger: logger.New(
				log.New(os.Stdout, "\r\n", log.LstdFlags),
				logger.Config{
					SlowThreshold: 0,
					LogLevel:      logger.Error,
				},
			),
			TranslateError: true,
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
			NamingStrategy: schema.NamingStrategy{
				SingularTable: true,
			}}); err != nil {
		panic(err)
	}
	if conn, err = db.DB(); err != nil {
		panic(err)
	}
	conn.SetMaxIdleConns(10)
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxLifetime(time.Hour)
	return db
}

func initLogger(level string, file string) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
		NoColor:    false,
		FormatLevel: func(i interface{}) string {
			return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("  %s  ", i)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s=", i)
		},
		FormatFieldValue: func(i interface{}) string {
			return fmt.Sprintf("%s", i)
		},
	}

	var w io.Writer = output
	if file != "" {
		// Rotated file gets plain JSON lines, the console keeps the pretty format.
		w = zerolog.MultiLevelWriter(output, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    50,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Caller().Logger()
}

func connectToRedis(host string, port string, password string, db int) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		panic(fmt.Sprintf("Failed to connect to Redis: %v", err))
	}

	return client
}

// connectToNats is best-effort: live log streaming is never worth failing startup for.
func connectToNats(url string) *nats.Conn {
	nc, err := nats.Connect(url, nats.Name("blueprint-api"))
	if err != nil {
		Logger.Warn().Err(err).Str("url", url).Msg("NATS connection failed, live run logs disabled")
		return nil
	}
	return nc
}
