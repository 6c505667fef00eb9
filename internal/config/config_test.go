package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bkyoung/clang-tidy-reviewer/internal/engine"
)

func TestMergePrioritisesOverlay(t *testing.T) {
	base := Config{
		Markers: engine.DefaultMarkers(),
		GitHub: GitHubConfig{
			APIURL:     "https://api.github.com",
			Timeout:    "60s",
			MaxRetries: 3,
		},
		Review: ReviewConfig{
			SummaryPrefix:         "base prefix",
			SuggestionsPerComment: 10,
			BotUsername:           "github-actions",
		},
		Repository: RepositoryConfig{Dir: "."},
	}

	overlay := Config{
		GitHub: GitHubConfig{APIURL: "https://ghe.example.com/api/v3"},
		Review: ReviewConfig{
			RequestChanges:        true,
			SuggestionsPerComment: 5,
		},
		Repository: RepositoryConfig{Root: "/build/src"},
	}

	merged := Merge(base, overlay)

	assert.Equal(t, "https://ghe.example.com/api/v3", merged.GitHub.APIURL)
	assert.Equal(t, "60s", merged.GitHub.Timeout)
	assert.Equal(t, 3, merged.GitHub.MaxRetries)

	assert.Equal(t, "base prefix", merged.Review.SummaryPrefix)
	assert.True(t, merged.Review.RequestChanges)
	assert.Equal(t, 5, merged.Review.SuggestionsPerComment)
	assert.Equal(t, "github-actions", merged.Review.BotUsername)

	assert.Equal(t, "/build/src", merged.Repository.Root)
	assert.Equal(t, ".", merged.Repository.Dir)

	assert.Equal(t, ":x:", merged.Markers.Error)
}

func TestMergeMarkersPartialOverride(t *testing.T) {
	base := Config{Markers: engine.DefaultMarkers()}
	overlay := Config{Markers: engine.Markers{Error: ":boom:"}}

	merged := Merge(base, overlay)

	assert.Equal(t, ":boom:", merged.Markers.Error)
	assert.Equal(t, ":warning:", merged.Markers.Warning)
	assert.Equal(t, ":grey_question:", merged.Markers.Fallback)
}

func TestMergeEmptyOverlayKeepsBase(t *testing.T) {
	base := Config{
		Store:  StoreConfig{Enabled: true, Path: "runs.db"},
		Output: OutputConfig{Enabled: true, Directory: "out"},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{Level: "debug", Format: "json"},
		},
	}

	merged := Merge(base, Config{})

	assert.Equal(t, base.Store, merged.Store)
	assert.Equal(t, base.Output, merged.Output)
	assert.Equal(t, base.Observability, merged.Observability)
}
