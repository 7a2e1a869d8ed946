package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port       string
	DBDSN      string
	LogFile    string
	AdminToken string

	RedisAddr    string // empty disables the snapshot cache
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	RecalcInterval time.Duration
	ChunkSize      int
	Workers        int
	SignalTimeout  time.Duration
}

func Load() Config {
	cfg := Config{
		Port:           getenv("PORT", "8080"),
		DBDSN:          getenv("DB_DSN", "soukly.db"),
		LogFile:        getenv("LOG_FILE", "./soukly.log"),
		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		KafkaTopic:     getenv("KAFKA_TOPIC", "order-events"),
		KafkaGroupID:   getenv("KAFKA_GROUP_ID", "soukly-repricer"),
		RecalcInterval: getdur("RECALC_INTERVAL", time.Hour),
		ChunkSize:      getint("RECALC_CHUNK_SIZE", 50),
		Workers:        getint("RECALC_WORKERS", 8),
		SignalTimeout:  getdur("SIGNAL_TIMEOUT", 3*time.Second),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	log.Printf("[config] PORT=%s DB_DSN=%s RECALC_INTERVAL=%s CHUNK=%d WORKERS=%d REDIS=%q KAFKA=%q",
		cfg.Port, cfg.DBDSN, cfg.RecalcInterval, cfg.ChunkSize, cfg.Workers, cfg.RedisAddr,
		strings.Join(cfg.KafkaBrokers, ","))
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("[config] invalid %s=%q, using %s", key, v, fallback)
	}
	return fallback
}
