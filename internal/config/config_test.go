package config

import (
	"testing"

	"gocausal/internal/errors"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CI_TEST", "")
	t.Setenv("ALPHA", "")
	t.Setenv("Q", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Test != "fisherz" {
		t.Errorf("Test = %q, want fisherz", cfg.Search.Test)
	}
	if cfg.Search.Alpha != 0.05 {
		t.Errorf("Alpha = %g, want 0.05", cfg.Search.Alpha)
	}
	if cfg.Search.Q != 1.0 {
		t.Errorf("Q = %g, want 1", cfg.Search.Q)
	}
	if cfg.Database.URL != "" {
		t.Errorf("Database.URL = %q, want empty", cfg.Database.URL)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CI_TEST", "chisquare")
	t.Setenv("ALPHA", "0.01")
	t.Setenv("COLLIDER_ONLY", "true")
	t.Setenv("MAX_CONCURRENT_RUNS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Test != "chisquare" || cfg.Search.Alpha != 0.01 {
		t.Errorf("Search = %+v, overrides not applied", cfg.Search)
	}
	if !cfg.Search.ColliderOnly {
		t.Error("ColliderOnly not applied")
	}
	if cfg.Search.MaxConcurrent != 2 {
		t.Errorf("MaxConcurrent = %d, want 2", cfg.Search.MaxConcurrent)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		key, value string
	}{
		{"CI_TEST", "tea-leaves"},
		{"ALPHA", "1.5"},
		{"ALPHA", "0"},
		{"Q", "-0.2"},
		{"MAX_CONCURRENT_RUNS", "0"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			if err == nil {
				t.Fatalf("Load accepted %s=%s", tc.key, tc.value)
			}
			if errors.GetCode(err) != errors.CodeConfigInvalid {
				t.Errorf("code = %s, want %s", errors.GetCode(err), errors.CodeConfigInvalid)
			}
		})
	}
}
