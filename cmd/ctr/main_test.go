package main

import (
	"testing"
	"time"

	"github.com/bkyoung/clang-tidy-reviewer/internal/config"
)

func TestGithubTokenPrecedence(t *testing.T) {
	t.Setenv("INPUT_GITHUB_TOKEN", "input-token")
	t.Setenv("GITHUB_TOKEN", "ambient-token")
	if got := githubToken(); got != "input-token" {
		t.Errorf("githubToken() = %q, want input-token", got)
	}

	t.Setenv("INPUT_GITHUB_TOKEN", "")
	if got := githubToken(); got != "ambient-token" {
		t.Errorf("githubToken() = %q, want ambient-token", got)
	}
}

func TestBuildRetryConfig(t *testing.T) {
	conf := buildRetryConfig(config.GitHubConfig{
		MaxRetries:        5,
		InitialBackoff:    "1s",
		MaxBackoff:        "10s",
		BackoffMultiplier: 3.0,
	})

	if conf.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", conf.MaxRetries)
	}
	if conf.InitialBackoff != time.Second {
		t.Errorf("InitialBackoff = %v, want 1s", conf.InitialBackoff)
	}
	if conf.MaxBackoff != 10*time.Second {
		t.Errorf("MaxBackoff = %v, want 10s", conf.MaxBackoff)
	}
	if conf.Multiplier != 3.0 {
		t.Errorf("Multiplier = %v, want 3.0", conf.Multiplier)
	}
}

func TestBuildRetryConfigDefaults(t *testing.T) {
	conf := buildRetryConfig(config.GitHubConfig{InitialBackoff: "not a duration"})

	if conf.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want default 3", conf.MaxRetries)
	}
	if conf.InitialBackoff != 2*time.Second {
		t.Errorf("InitialBackoff = %v, want default 2s", conf.InitialBackoff)
	}
}
