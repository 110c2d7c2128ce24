package connection

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"taskmanager/database"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	SearchDriverDatabase  = "database"
	SearchDriverFirestore = "firestore"
)

type Config struct {
	Port             string
	DBDriver         string
	DBDSN            string
	JWTSecret        string
	TokenTTL         time.Duration
	CORSOrigins      []string
	SearchDriver     string
	CredentialsPath  string
	SearchCollection string
	ReindexSchedule  string
	DefaultPerPage   int
	PasswordCost     int
}

func getenvDefault(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found or failed to load")
	}

	cfg := Config{
		Port:             getenvDefault("PORT", "8080"),
		DBDriver:         getenvDefault("DB_DRIVER", database.DriverMySQL),
		DBDSN:            os.Getenv("DB_DSN"),
		JWTSecret:        os.Getenv("JWT_SECRET_KEY"),
		SearchDriver:     getenvDefault("SEARCH_DRIVER", SearchDriverDatabase),
		CredentialsPath:  os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_1"),
		SearchCollection: getenvDefault("SEARCH_COLLECTION", "tasks_index"),
		ReindexSchedule:  getenvDefault("REINDEX_SCHEDULE", "@every 5m"),
	}
	for _, origin := range strings.Split(os.Getenv("CORS_ORIGIN"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	var err error
	if cfg.TokenTTL, err = time.ParseDuration(getenvDefault("TOKEN_TTL", "24h")); err != nil || cfg.TokenTTL <= 0 {
		return Config{}, fmt.Errorf("invalid TOKEN_TTL %q", os.Getenv("TOKEN_TTL"))
	}
	if cfg.DefaultPerPage, err = strconv.Atoi(getenvDefault("DEFAULT_PER_PAGE", "15")); err != nil || cfg.DefaultPerPage < 1 {
		return Config{}, fmt.Errorf("invalid DEFAULT_PER_PAGE %q", os.Getenv("DEFAULT_PER_PAGE"))
	}
	cost := getenvDefault("BCRYPT_COST", strconv.Itoa(bcrypt.DefaultCost))
	if cfg.PasswordCost, err = strconv.Atoi(cost); err != nil || cfg.PasswordCost < bcrypt.MinCost || cfg.PasswordCost > bcrypt.MaxCost {
		return Config{}, fmt.Errorf("invalid BCRYPT_COST %q", cost)
	}

	if cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("missing required env DB_DSN")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("missing required env JWT_SECRET_KEY")
	}
	switch cfg.SearchDriver {
	case SearchDriverDatabase:
	case SearchDriverFirestore:
		if cfg.CredentialsPath == "" {
			return Config{}, fmt.Errorf("SEARCH_DRIVER=firestore requires GOOGLE_APPLICATION_CREDENTIALS_1")
		}
	default:
		return Config{}, fmt.Errorf("unsupported SEARCH_DRIVER %q", cfg.SearchDriver)
	}
	return cfg, nil
}
