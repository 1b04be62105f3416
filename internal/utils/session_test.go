package utils

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Wal-20/studysphere-cli/internal/models"
)

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	if _, err := LoadSession(path); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession before save, got %v", err)
	}

	want := Session{Token: "abc", User: models.User{ID: 7, Name: "Ada", Email: "ada@uni.edu"}}
	if err := SaveSession(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("session file mode = %v, want 0600", perm)
	}

	got, err := LoadSession(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Token != want.Token || got.User.ID != want.User.ID || got.User.Name != want.User.Name {
		t.Errorf("loaded %+v, want %+v", got, want)
	}

	if err := ClearSession(path); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := ClearSession(path); err != nil {
		t.Fatalf("clearing twice should be a no-op: %v", err)
	}
	if _, err := LoadSession(path); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession after clear, got %v", err)
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()

	live, err := GenerateJWTToken("secret", 1, "a@b.c", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if TokenExpired(live, now) {
		t.Error("fresh token reported expired")
	}
	if !TokenExpired(live, now.Add(2*time.Hour)) {
		t.Error("token past exp reported live")
	}
	if !TokenExpired("not-a-jwt", now) {
		t.Error("unparseable token should count as expired")
	}
	if (Session{Token: "corrupt"}).Valid(now) {
		t.Error("session with a corrupt token should not be valid")
	}
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "1"}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if TokenExpired(noExp, now) {
		t.Error("token without exp should be left to the server")
	}

	s := Session{Token: live}
	if !s.Valid(now) {
		t.Error("session with live token should be valid")
	}
	if (Session{}).Valid(now) {
		t.Error("empty session should not be valid")
	}
}

func TestValidateJWTToken(t *testing.T) {
	token, err := GenerateJWTToken("secret", 42, "x@y.z", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ValidateJWTToken("secret", token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "x@y.z" {
		t.Errorf("claims = %+v", claims)
	}
	if _, err := ValidateJWTToken("other", token); err == nil {
		t.Error("expected signature mismatch")
	}
	if _, err := GenerateJWTToken("", 1, "", time.Minute); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestValidatePassword(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"short1", false},
		{"lettersonly", false},
		{"123456789", false},
		{"abcd1234", true},
	}
	for _, c := range cases {
		err := ValidatePassword(c.password)
		if (err == nil) != c.ok {
			t.Errorf("ValidatePassword(%q) error = %v, want ok=%v", c.password, err, c.ok)
		}
	}

	hash, err := HashPassword("abcd1234")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "abcd1234") || CheckPassword(hash, "wrong") {
		t.Error("bcrypt round trip failed")
	}
}

func TestForgetMembership(t *testing.T) {
	c := NewCaches()
	c.Membership.SetDefault(MembershipKey(1, 2), true)
	c.Membership.SetDefault(MembershipKey(1, 12), true)
	c.ForgetMembership(2)
	if _, ok := c.Membership.Get(MembershipKey(1, 2)); ok {
		t.Error("membership for group 2 should be forgotten")
	}
	if _, ok := c.Membership.Get(MembershipKey(1, 12)); !ok {
		t.Error("membership for group 12 should be kept")
	}
}
