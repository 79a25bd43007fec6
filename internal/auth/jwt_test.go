package auth

import (
	"testing"
	"time"

	"bandhan/config"
)

func TestGenerateAndParseToken(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "bandhan"}
	token, err := GenerateToken(cfg, 42, "user@example.com", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Email != "user@example.com" || claims.Role != "user" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Issuer != "bandhan" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "secret-a", Expiry: time.Hour, Issuer: "bandhan"}
	token, err := GenerateToken(cfg, 1, "a@example.com", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	other := &config.JWTConfig{Secret: "secret-b", Expiry: time.Hour, Issuer: "bandhan"}
	if _, err := ParseToken(other, token); err == nil {
		t.Fatal("token signed with different secret parsed")
	}
}

func TestParseExpiredToken(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "test-secret", Expiry: -time.Minute, Issuer: "bandhan"}
	token, err := GenerateToken(cfg, 1, "a@example.com", "user")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := ParseToken(cfg, token); err == nil {
		t.Fatal("expired token parsed")
	}
}

func TestParseGarbage(t *testing.T) {
	cfg := &config.JWTConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "bandhan"}
	if _, err := ParseToken(cfg, "not-a-token"); err == nil {
		t.Fatal("garbage token parsed")
	}
}
