package realtime

import "os"

type Config struct {
	NatsURL      string
	RealtimePort string
	LogLevel     string
}

func LoadConfig() Config {
	return Config{
		NatsURL:      getEnv("NATS_URL", "nats://localhost:4222"),
		RealtimePort: getEnv("REALTIME_PORT", ":8081"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
