package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment variables.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "ctr"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "CTR"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	return expandEnvVars(cfg), nil
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	cfg.GitHub.APIURL = expandEnvString(cfg.GitHub.APIURL)
	cfg.GitHub.GraphQLURL = expandEnvString(cfg.GitHub.GraphQLURL)
	cfg.Repository.Root = expandEnvString(cfg.Repository.Root)
	cfg.Repository.Dir = expandEnvString(cfg.Repository.Dir)
	cfg.Output.Directory = expandEnvString(cfg.Output.Directory)
	cfg.Store.Path = expandEnvString(cfg.Store.Path)
	return cfg
}

var (
	bracedVar = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	bareVar   = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
)

// expandEnvString replaces ${VAR} or $VAR with environment variable values,
// keeping the original text when the variable is unset.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	s = bracedVar.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[2 : len(match)-1]); val != "" {
			return val
		}
		return match
	})

	return bareVar.ReplaceAllStringFunc(s, func(match string) string {
		if val := os.Getenv(match[1:]); val != "" {
			return val
		}
		return match
	})
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	// Marker defaults
	v.SetDefault("markers.error", ":x:")
	v.SetDefault("markers.warning", ":warning:")
	v.SetDefault("markers.remark", ":speech_balloon:")
	v.SetDefault("markers.fallback", ":grey_question:")

	// GitHub API defaults
	v.SetDefault("github.apiURL", "https://api.github.com")
	v.SetDefault("github.graphqlURL", "https://api.github.com/graphql")
	v.SetDefault("github.timeout", "60s")
	v.SetDefault("github.maxRetries", 3)
	v.SetDefault("github.initialBackoff", "2s")
	v.SetDefault("github.maxBackoff", "32s")
	v.SetDefault("github.backoffMultiplier", 2.0)

	// Review defaults
	v.SetDefault("review.summaryPrefix", ":warning: `clang-tidy` found issue(s) with the introduced code")
	v.SetDefault("review.suggestionsPerComment", 10)
	v.SetDefault("review.botUsername", "github-actions")

	// Repository defaults
	v.SetDefault("repository.dir", ".")

	// Output defaults
	v.SetDefault("output.directory", "out")

	// Store defaults
	v.SetDefault("store.path", defaultStorePath())

	// Observability defaults
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "human")
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./runs.db"
	}
	return filepath.Join(home, ".config", "ctr", "runs.db")
}
