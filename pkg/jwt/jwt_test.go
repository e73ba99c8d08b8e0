package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestManager() *Manager {
	return NewManager("test-secret-key-for-unit-testing", time.Hour, "course-service")
}

func TestGenerateAndParseAccessToken(t *testing.T) {
	m := newTestManager()

	token, expiresAt, err := m.GenerateAccessToken(Identity{
		UserID: "user-1",
		Name:   "Ana",
		Role:   "student",
		Email:  "ana@example.com",
	})
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	if time.Until(expiresAt) <= 59*time.Minute {
		t.Errorf("expiresAt = %v, want about one hour ahead", expiresAt)
	}

	claims, err := m.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "student" || claims.Email != "ana@example.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.Issuer != "course-service" {
		t.Errorf("Issuer = %s", claims.Issuer)
	}
}

func TestParseToken_Expired(t *testing.T) {
	m := newTestManager()
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, _, err := m.GenerateAccessToken(Identity{UserID: "user-1", Role: "student"})
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	m.now = time.Now
	if _, err := m.ParseToken(token); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("ParseToken() error = %v, want ErrTokenExpired", err)
	}
}

func TestParseToken_Invalid(t *testing.T) {
	m := newTestManager()
	token, _, _ := m.GenerateAccessToken(Identity{UserID: "user-1", Role: "student"})

	tests := []struct {
		name  string
		token string
		mgr   *Manager
	}{
		{name: "garbage", token: "not-a-token", mgr: m},
		{name: "tampered", token: token[:strings.LastIndex(token, ".")] + ".c2lnbmF0dXJl", mgr: m},
		{name: "wrong secret", token: token, mgr: NewManager("another-secret", time.Hour, "course-service")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.mgr.ParseToken(tt.token); !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
