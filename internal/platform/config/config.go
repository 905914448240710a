// Package config builds runtime configuration from environment variables
// so main stays lean. Validation that needs domain knowledge (scenario
// files, topic existence) happens in the packages that own it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pstrings "orrery/pkg/platform/strings"
)

// Config captures everything the simulator process needs at startup.
type Config struct {
	// HTTP ops surface (health, metrics, read-only state API).
	HTTPAddr string

	// Simulation pacing: DT simulated seconds applied every TickInterval
	// of wall clock.
	TickInterval time.Duration
	DT           float64

	// Broker connection.
	Brokers      []string
	ClientID     string
	SASLUser     string
	SASLPassword string
	TLS          bool

	// Topics, pre-provisioned by the deployment.
	PlanetTopic string
	ShipTopic   string

	// Publish queue behavior.
	QueueSize     int
	EnqueuePolicy string // "block" or "drop"
	RetryAttempts int
	RetryInitial  time.Duration
	RetryMax      time.Duration
	DrainTimeout  time.Duration

	// Optional latest-state mirror; empty disables it.
	RedisURL string

	// Scenario file; empty selects the built-in solar system.
	ScenarioPath string

	LogLevel string
}

// FromEnv builds a Config from ORRERY_* environment variables with
// development defaults.
func FromEnv() Config {
	return Config{
		HTTPAddr: getString("ORRERY_HTTP_ADDR", ":8080"),

		TickInterval: getDuration("ORRERY_TICK_INTERVAL", time.Second),
		DT:           getFloat("ORRERY_TICK_DT", 1.0),

		Brokers:      pstrings.DedupeAndTrim(strings.Split(getString("ORRERY_BROKERS", "localhost:9092"), ",")),
		ClientID:     getString("ORRERY_CLIENT_ID", "orrery"),
		SASLUser:     os.Getenv("ORRERY_SASL_USER"),
		SASLPassword: os.Getenv("ORRERY_SASL_PASSWORD"),
		TLS:          os.Getenv("ORRERY_TLS") == "true",

		PlanetTopic: getString("ORRERY_PLANET_TOPIC", "planet-positions"),
		ShipTopic:   getString("ORRERY_SHIP_TOPIC", "ship-positions"),

		QueueSize:     getInt("ORRERY_QUEUE_SIZE", 1024),
		EnqueuePolicy: getString("ORRERY_ENQUEUE_POLICY", "block"),
		RetryAttempts: getInt("ORRERY_RETRY_ATTEMPTS", 5),
		RetryInitial:  getDuration("ORRERY_RETRY_INITIAL", 100*time.Millisecond),
		RetryMax:      getDuration("ORRERY_RETRY_MAX", 2*time.Second),
		DrainTimeout:  getDuration("ORRERY_DRAIN_TIMEOUT", 10*time.Second),

		RedisURL:     os.Getenv("ORRERY_REDIS_URL"),
		ScenarioPath: os.Getenv("ORRERY_SCENARIO"),

		LogLevel: getString("ORRERY_LOG_LEVEL", "info"),
	}
}

// Validate catches configuration errors that should abort startup before
// any connection is attempted.
func (c Config) Validate() error {
	if c.DT <= 0 {
		return fmt.Errorf("config: tick dt must be positive, got %v", c.DT)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("config: tick interval must be positive, got %v", c.TickInterval)
	}
	if len(c.Brokers) == 0 || c.Brokers[0] == "" {
		return fmt.Errorf("config: at least one broker address is required")
	}
	if c.PlanetTopic == "" || c.ShipTopic == "" {
		return fmt.Errorf("config: both topics must be named")
	}
	if c.EnqueuePolicy != "block" && c.EnqueuePolicy != "drop" {
		return fmt.Errorf("config: enqueue policy must be block or drop, got %q", c.EnqueuePolicy)
	}
	return nil
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
