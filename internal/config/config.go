package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries everything the server binary needs. Values come from
// the environment, with a .env file loaded first when present.
type Config struct {
	ServerAddr string

	MySQLDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int

	PlatformName string

	SessionInactivity    time.Duration
	SessionSweepInterval time.Duration
	LiveTTL              time.Duration
	LiveSweepInterval    time.Duration
	ReserveTimeout       time.Duration
}

func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServerAddr: getenv("SERVER_ADDR", ":8080"),

		MySQLDSN: getenv("MYSQL_DSN", "root:password@tcp(localhost:3306)/live_commerce?parseTime=true"),

		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getint("REDIS_DB", 0),
		RedisPoolSize: getint("REDIS_POOL_SIZE", 10),

		PlatformName: getenv("PLATFORM_NAME", "Apartalo"),

		SessionInactivity:    getduration("SESSION_INACTIVITY", 30*time.Minute),
		SessionSweepInterval: getduration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		LiveTTL:              getduration("LIVE_TTL", 5*time.Minute),
		LiveSweepInterval:    getduration("LIVE_SWEEP_INTERVAL", 30*time.Second),
		ReserveTimeout:       getduration("RESERVE_TIMEOUT", 3*time.Second),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
