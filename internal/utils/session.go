package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Wal-20/studysphere-cli/internal/models"
	"github.com/golang-jwt/jwt/v5"
)

// Session is what the client keeps between runs: the bearer token and the
// user the backend returned at login.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

var ErrNoSession = errors.New("no stored session")

// SessionPath honours STUDYSPHERE_SESSION, falling back to a dotfile in
// the home directory.
func SessionPath() string {
	if p := os.Getenv("STUDYSPHERE_SESSION"); p != "" {
		return p
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".studysphere-session.json")
}

func SaveSession(path string, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	return os.WriteFile(path, data, 0600)
}

func LoadSession(path string) (Session, error) {
	var s Session
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, ErrNoSession
		}
		return s, err
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("decode session: %w", err)
	}
	if s.Token == "" {
		return s, ErrNoSession
	}
	return s, nil
}

func ClearSession(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// TokenExpired is true when the token carries an exp in the past or
// cannot be parsed at all. A well-formed token without exp is left to the
// server to judge.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return true
	}
	if exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// Valid reports whether the session can be used for protected screens.
func (s Session) Valid(now time.Time) bool {
	return s.Token != "" && !TokenExpired(s.Token, now)
}
