package config

import (
	"os"
	"strings"
)

// Server captures process-level configuration. FromEnv keeps main lean; every
// value has a development default so the binary runs with no environment.
type Server struct {
	Addr          string
	LedgerBackend string // memory | postgres | redis
	PostgresDSN   string
	RedisURL      string
	KafkaBrokers  []string
	KafkaTopic    string
	JWTSigningKey string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("LANDLEDGER_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	backend := os.Getenv("LANDLEDGER_BACKEND")
	if backend == "" {
		backend = "memory"
	}

	topic := os.Getenv("LANDLEDGER_KAFKA_TOPIC")
	if topic == "" {
		topic = "landledger.events"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	var brokers []string
	if raw := os.Getenv("LANDLEDGER_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:          addr,
		LedgerBackend: backend,
		PostgresDSN:   os.Getenv("LANDLEDGER_POSTGRES_DSN"),
		RedisURL:      os.Getenv("LANDLEDGER_REDIS_URL"),
		KafkaBrokers:  brokers,
		KafkaTopic:    topic,
		JWTSigningKey: jwtSigningKey,
	}
}
