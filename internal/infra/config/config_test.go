package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Auth.SessionTTL != 24*time.Hour || cfg.Auth.RememberMeTTL != 7*24*time.Hour {
		t.Fatalf("unexpected session ttls: %s / %s", cfg.Auth.SessionTTL, cfg.Auth.RememberMeTTL)
	}
	if cfg.Auth.TokenTTL != 30*24*time.Hour {
		t.Fatalf("unexpected structural ttl: %s", cfg.Auth.TokenTTL)
	}
	if cfg.Cache.IdentityTTL != 5*time.Minute || cfg.Cache.PermissionTTL != 5*time.Minute {
		t.Fatalf("unexpected cache ttls: %+v", cfg.Cache)
	}
	if len(cfg.Auth.PublicPaths) == 0 || cfg.Auth.PublicPaths[0] != "/api/auth/" {
		t.Fatalf("unexpected public paths: %v", cfg.Auth.PublicPaths)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CMS_AUTH_SESSION_TTL", "2h")
	t.Setenv("CMS_CACHE_IDENTITY_TTL", "30s")
	t.Setenv("CMS_AUTH_PUBLIC_PATHS", "/public/,/docs/")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Auth.SessionTTL != 2*time.Hour {
		t.Fatalf("expected session ttl override, got %s", cfg.Auth.SessionTTL)
	}
	if cfg.Cache.IdentityTTL != 30*time.Second {
		t.Fatalf("expected identity ttl override, got %s", cfg.Cache.IdentityTTL)
	}
	if len(cfg.Auth.PublicPaths) != 2 || cfg.Auth.PublicPaths[1] != "/docs/" {
		t.Fatalf("expected public path override, got %v", cfg.Auth.PublicPaths)
	}
}

func TestValidateRejectsDevSecretInProduction(t *testing.T) {
	t.Setenv("CMS_APP_ENV", "production")

	if _, err := Load(); err == nil {
		t.Fatal("expected production with the development secret to fail validation")
	}
}

func TestValidateRejectsShortSecret(t *testing.T) {
	t.Setenv("CMS_AUTH_JWT_SECRET", "short")

	if _, err := Load(); err == nil {
		t.Fatal("expected short secret to fail validation")
	}
}
