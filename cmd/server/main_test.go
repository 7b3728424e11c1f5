package main

import (
	"testing"

	"github.com/youngspiritsbartending/youngspirits.co/internal/config"
)

func TestValidateSecurityConfigRejectsShortLinkSecret(t *testing.T) {
	err := validateSecurityConfig(config.Config{LinkSecret: "short", AllowedOrigin: "https://youngspirits.co"})
	if err == nil {
		t.Fatalf("expected short link secret to be rejected")
	}
}

func TestValidateSecurityConfigRejectsWildcardOriginWithSecureCookies(t *testing.T) {
	err := validateSecurityConfig(config.Config{
		LinkSecret:    "0123456789abcdef0123456789abcdef",
		AllowedOrigin: "*",
		CookieSecure:  true,
	})
	if err == nil {
		t.Fatalf("expected wildcard origin to be rejected with secure cookies")
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	err := validateSecurityConfig(config.Config{
		LinkSecret:    "0123456789abcdef0123456789abcdef",
		AllowedOrigin: "https://youngspirits.co",
		CookieSecure:  true,
	})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}
