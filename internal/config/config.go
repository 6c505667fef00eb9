package config

import "github.com/bkyoung/clang-tidy-reviewer/internal/engine"

// Config represents the full application configuration.
type Config struct {
	Markers       engine.Markers      `yaml:"markers"`
	GitHub        GitHubConfig        `yaml:"github"`
	Review        ReviewConfig        `yaml:"review"`
	Repository    RepositoryConfig    `yaml:"repository"`
	Output        OutputConfig        `yaml:"output"`
	Store         StoreConfig         `yaml:"store"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// GitHubConfig holds API endpoints and HTTP client settings.
type GitHubConfig struct {
	APIURL     string `yaml:"apiURL"`
	GraphQLURL string `yaml:"graphqlURL"`

	Timeout           string  `yaml:"timeout"`
	MaxRetries        int     `yaml:"maxRetries"`
	InitialBackoff    string  `yaml:"initialBackoff"`
	MaxBackoff        string  `yaml:"maxBackoff"`
	BackoffMultiplier float64 `yaml:"backoffMultiplier"`
}

// ReviewConfig configures how comments are posted.
type ReviewConfig struct {
	// SummaryPrefix opens each review body and identifies reviews from
	// earlier runs for dismissal.
	SummaryPrefix string `yaml:"summaryPrefix"`

	// RequestChanges submits reviews as REQUEST_CHANGES instead of COMMENT.
	RequestChanges bool `yaml:"requestChanges"`

	// SuggestionsPerComment caps inline comments per review submission.
	SuggestionsPerComment int `yaml:"suggestionsPerComment"`

	// AutoResolveConversations resolves threads from earlier runs whose
	// diagnostics no longer fire.
	AutoResolveConversations bool `yaml:"autoResolveConversations"`

	// BotUsername is the login engine comments appear under on GitHub.
	BotUsername string `yaml:"botUsername"`
}

// RepositoryConfig locates the reviewed sources.
type RepositoryConfig struct {
	// Root is the build-time path prefix stripped from diagnostic paths.
	Root string `yaml:"root"`

	// Dir is the working copy diagnostics resolve against.
	Dir string `yaml:"dir"`
}

// OutputConfig configures the local run report.
type OutputConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Directory string `yaml:"directory"`
}

// StoreConfig configures the posting history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig selects log verbosity and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warning
	Format string `yaml:"format"` // json, human
}

// Merge combines multiple configuration instances, prioritising the latter ones.
func Merge(configs ...Config) Config {
	result := Config{}
	for _, cfg := range configs {
		result = merge(result, cfg)
	}
	return result
}

func merge(base, overlay Config) Config {
	result := base

	result.Markers = chooseMarkers(base.Markers, overlay.Markers)
	result.GitHub = chooseGitHub(base.GitHub, overlay.GitHub)
	result.Review = chooseReview(base.Review, overlay.Review)
	result.Repository = chooseRepository(base.Repository, overlay.Repository)
	result.Output = chooseOutput(base.Output, overlay.Output)
	result.Store = chooseStore(base.Store, overlay.Store)
	result.Observability = chooseObservability(base.Observability, overlay.Observability)

	return result
}

func chooseMarkers(base, overlay engine.Markers) engine.Markers {
	result := base
	if overlay.Error != "" {
		result.Error = overlay.Error
	}
	if overlay.Warning != "" {
		result.Warning = overlay.Warning
	}
	if overlay.Remark != "" {
		result.Remark = overlay.Remark
	}
	if overlay.Fallback != "" {
		result.Fallback = overlay.Fallback
	}
	return result
}

func chooseGitHub(base, overlay GitHubConfig) GitHubConfig {
	result := base
	if overlay.APIURL != "" {
		result.APIURL = overlay.APIURL
	}
	if overlay.GraphQLURL != "" {
		result.GraphQLURL = overlay.GraphQLURL
	}
	if overlay.Timeout != "" {
		result.Timeout = overlay.Timeout
	}
	if overlay.MaxRetries != 0 {
		result.MaxRetries = overlay.MaxRetries
	}
	if overlay.InitialBackoff != "" {
		result.InitialBackoff = overlay.InitialBackoff
	}
	if overlay.MaxBackoff != "" {
		result.MaxBackoff = overlay.MaxBackoff
	}
	if overlay.BackoffMultiplier != 0 {
		result.BackoffMultiplier = overlay.BackoffMultiplier
	}
	return result
}

func chooseReview(base, overlay ReviewConfig) ReviewConfig {
	result := base
	if overlay.SummaryPrefix != "" {
		result.SummaryPrefix = overlay.SummaryPrefix
	}
	if overlay.RequestChanges {
		result.RequestChanges = true
	}
	if overlay.SuggestionsPerComment != 0 {
		result.SuggestionsPerComment = overlay.SuggestionsPerComment
	}
	if overlay.AutoResolveConversations {
		result.AutoResolveConversations = true
	}
	if overlay.BotUsername != "" {
		result.BotUsername = overlay.BotUsername
	}
	return result
}

func chooseRepository(base, overlay RepositoryConfig) RepositoryConfig {
	result := base
	if overlay.Root != "" {
		result.Root = overlay.Root
	}
	if overlay.Dir != "" {
		result.Dir = overlay.Dir
	}
	return result
}

func chooseOutput(base, overlay OutputConfig) OutputConfig {
	if overlay.Enabled || overlay.Directory != "" {
		return overlay
	}
	return base
}

func chooseStore(base, overlay StoreConfig) StoreConfig {
	if overlay.Enabled || overlay.Path != "" {
		return overlay
	}
	return base
}

func chooseObservability(base, overlay ObservabilityConfig) ObservabilityConfig {
	result := base
	if overlay.Logging.Level != "" || overlay.Logging.Format != "" {
		result.Logging = overlay.Logging
	}
	return result
}
