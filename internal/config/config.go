package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Client holds the terminal client's settings.
// Priority: environment > YAML overlay > defaults.
type Client struct {
	ServerURL        string        `yaml:"server_url"`
	WSURL            string        `yaml:"ws_url"`
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	NotificationPoll time.Duration `yaml:"notification_poll"`
	ReminderLead     time.Duration `yaml:"reminder_lead"`
	SessionPath      string        `yaml:"session_path"`
	LogPath          string        `yaml:"log_path"`
}

func DefaultClient() Client {
	return Client{
		ServerURL:        "http://localhost:8145",
		ReconnectDelay:   4 * time.Second,
		CacheTTL:         2 * time.Minute,
		NotificationPoll: time.Minute,
		ReminderLead:     15 * time.Minute,
		LogPath:          "studysphere.log",
	}
}

// LoadEnv reads .env into the process environment. A missing file is fine.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// LoadClient resolves the client configuration.
func LoadClient() (Client, error) {
	if err := LoadEnv(); err != nil {
		return Client{}, err
	}
	cfg := DefaultClient()
	if err := overlayYAML(os.Getenv("STUDYSPHERE_CONFIG"), "client", &cfg); err != nil {
		return Client{}, err
	}

	setString(&cfg.ServerURL, "SERVER_URL")
	setString(&cfg.WSURL, "WS_URL")
	setString(&cfg.SessionPath, "STUDYSPHERE_SESSION")
	setString(&cfg.LogPath, "STUDYSPHERE_LOG")
	for key, dst := range map[string]*time.Duration{
		"RECONNECT_DELAY":   &cfg.ReconnectDelay,
		"CACHE_TTL":         &cfg.CacheTTL,
		"NOTIFICATION_POLL": &cfg.NotificationPoll,
		"REMINDER_LEAD":     &cfg.ReminderLead,
	} {
		if err := setDuration(dst, key); err != nil {
			return Client{}, err
		}
	}

	cfg.ServerURL = strings.TrimRight(cfg.ServerURL, "/")
	if cfg.WSURL == "" {
		ws, err := WebSocketURL(cfg.ServerURL)
		if err != nil {
			return Client{}, err
		}
		cfg.WSURL = ws
	}
	return cfg, nil
}

// WebSocketURL maps an http(s) origin onto the broker's raw websocket
// endpoint.
func WebSocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse SERVER_URL: %w", err)
	}
	if u.Scheme == "https" {
		u.Scheme = "wss"
	} else {
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/websocket"
	return u.String(), nil
}

// overlayYAML decodes the named section of a YAML file onto dst.
func overlayYAML(path, section string, dst any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	node, ok := doc[section]
	if !ok {
		return nil
	}
	if err := node.Decode(dst); err != nil {
		return fmt.Errorf("decode %s section: %w", section, err)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
