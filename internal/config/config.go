// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Ledger backends supported by the gateway.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

type Config struct {
	Environment   string
	Server        ServerConfig
	Ledger        LedgerConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	RateLimit     RateLimitConfig
	Log           LogConfig
	Organizations map[string]string // organization name -> MSP id
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type LedgerConfig struct {
	Backend    string
	SQLitePath string
}

type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	SQLitePath   string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

// JWTConfig enables organization tokens on the gateway when SecretKey is set.
// Without Required, requests may omit the token and name their organization in the body.
type JWTConfig struct {
	SecretKey string
	TokenTTL  int // in hours
	Required  bool
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type LogConfig struct {
	Level string
	JSON  bool
}

const defaultOrganizations = "manufacturer:manufacturerMSP,distributor:distributorMSP,retailer:retailerMSP,transporter:transporterMSP,consumer:consumerMSP"

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	backend := strings.ToLower(getEnv("LEDGER_BACKEND", BackendMemory))
	sqlitePath := getEnv("LEDGER_SQLITE_PATH", "pharmanet.db")

	organizations, err := ParseOrganizations(getEnv("ORGANIZATIONS", defaultOrganizations))
	if err != nil {
		return nil, err
	}

	environment := getEnv("ENVIRONMENT", "development")

	config := &Config{
		Environment: environment,
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "3000"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Ledger: LedgerConfig{
			Backend:    backend,
			SQLitePath: sqlitePath,
		},
		Database: DatabaseConfig{
			Driver:       backend,
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "pharmanet"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			SQLitePath:   sqlitePath,
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
			TokenTTL:  getEnvAsInt("JWT_TTL", 24),
			Required:  getEnvAsBool("JWT_REQUIRED", true),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			JSON:  getEnvAsBool("LOG_JSON", environment == "production"),
		},
		Organizations: organizations,
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	switch c.Ledger.Backend {
	case BackendMemory, BackendSQLite, BackendPostgres:
	default:
		return fmt.Errorf("unknown ledger backend %q", c.Ledger.Backend)
	}

	if c.Ledger.Backend == BackendSQLite && c.Ledger.SQLitePath == "" {
		return fmt.Errorf("sqlite ledger requires LEDGER_SQLITE_PATH")
	}

	if c.Ledger.Backend == BackendPostgres && c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if len(c.Organizations) == 0 {
		return fmt.Errorf("at least one organization must be configured")
	}

	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}

	return nil
}

// ParseOrganizations reads a comma separated list of name:MSP pairs. Names are lower-cased.
func ParseOrganizations(raw string) (map[string]string, error) {
	orgs := make(map[string]string)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, mspID, ok := strings.Cut(entry, ":")
		name = strings.ToLower(strings.TrimSpace(name))
		mspID = strings.TrimSpace(mspID)
		if !ok || name == "" || mspID == "" {
			return nil, fmt.Errorf("invalid organization entry %q, expected name:MSP", entry)
		}
		orgs[name] = mspID
	}
	return orgs, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
