package config

import (
	"os"
	"strings"
	"time"
)

// Server holds the sandbox backend's settings.
type Server struct {
	Addr           string        `yaml:"addr"`
	DatabaseDSN    string        `yaml:"database_dsn"`
	JWTSecret      string        `yaml:"jwt_secret"`
	UploadDir      string        `yaml:"upload_dir"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	ReminderLead   time.Duration `yaml:"reminder_lead"`
	Mode           string        `yaml:"mode"`
}

func DefaultServer() Server {
	return Server{
		Addr:           ":8145",
		DatabaseDSN:    "studysphere.db",
		JWTSecret:      "studysphere-dev-secret",
		UploadDir:      "uploads",
		AllowedOrigins: []string{"http://localhost:5173"},
		TokenTTL:       24 * time.Hour,
		ReminderLead:   15 * time.Minute,
	}
}

func LoadServer() (Server, error) {
	if err := LoadEnv(); err != nil {
		return Server{}, err
	}
	cfg := DefaultServer()
	if err := overlayYAML(os.Getenv("STUDYSPHERE_CONFIG"), "server", &cfg); err != nil {
		return Server{}, err
	}

	setString(&cfg.Addr, "DEV_ADDR")
	setString(&cfg.DatabaseDSN, "DATABASE_DSN")
	setString(&cfg.JWTSecret, "JWT_SECRET")
	setString(&cfg.UploadDir, "UPLOAD_DIR")
	setString(&cfg.Mode, "GIN_MODE")
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = nil
		for _, origin := range strings.Split(v, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			}
		}
	}
	if err := setDuration(&cfg.TokenTTL, "TOKEN_TTL"); err != nil {
		return Server{}, err
	}
	if err := setDuration(&cfg.ReminderLead, "REMINDER_LEAD"); err != nil {
		return Server{}, err
	}
	return cfg, nil
}
