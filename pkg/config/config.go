package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds the process configuration, resolved once at startup.
// Env:
//
//	HOSTNAME, PORT, DATADIR, RESERVATIONSDIR, RESERVATIONDURATION, XNODES, JWT_SECRET
type Config struct {
	Hostname            string
	Port                string
	DataDir             string
	ReservationsDir     string
	ReservationDuration int64 // seconds
	Xnodes              []string
	JWTSecret           string
	AuditDBPath         string
}

// Load reads the configuration from the environment, applying defaults for
// anything unset. A .env file in the working directory is loaded first if
// present. Malformed values are logged and replaced by defaults.
func Load() Config {
	_ = loadDotEnv()

	cfg := Config{
		Hostname:            getenv("HOSTNAME", "0.0.0.0"),
		Port:                getenv("PORT", "35963"),
		DataDir:             getenv("DATADIR", "/var/lib/xnode-reserved"),
		ReservationDuration: 3600,
		JWTSecret:           getenv("JWT_SECRET", "change-me-secret"),
	}
	cfg.ReservationsDir = getenv("RESERVATIONSDIR", filepath.Join(cfg.DataDir, "reservation"))
	cfg.AuditDBPath = getenv("AUDITDB", filepath.Join(cfg.DataDir, "audit.db"))

	if v := os.Getenv("RESERVATIONDURATION"); v != "" {
		d, err := strconv.ParseInt(v, 10, 64)
		if err != nil || d <= 0 {
			log.Printf("invalid RESERVATIONDURATION %q, using default %d: %v", v, cfg.ReservationDuration, err)
		} else {
			cfg.ReservationDuration = d
		}
	}
	cfg.Xnodes = strings.Fields(os.Getenv("XNODES"))

	return cfg
}

// Addr returns the listen address in host:port form.
func (c Config) Addr() string {
	return c.Hostname + ":" + c.Port
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func loadDotEnv() error {
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load(".env")
	}
	return nil
}
