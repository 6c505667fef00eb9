package engine

import "github.com/bkyoung/clang-tidy-reviewer/internal/domain"

// Markers maps severity levels to the short visual token placed at the top
// of each comment body. The token doubles as a machine-detectable signature
// for finding engine-authored comments later, so it must survive rendering
// verbatim. Threaded explicitly so multiple configurations can coexist in
// one process.
type Markers struct {
	Error    string `mapstructure:"error" yaml:"error"`
	Warning  string `mapstructure:"warning" yaml:"warning"`
	Remark   string `mapstructure:"remark" yaml:"remark"`
	Fallback string `mapstructure:"fallback" yaml:"fallback"`
}

// DefaultMarkers returns the stock GitHub emoji tokens.
func DefaultMarkers() Markers {
	return Markers{
		Error:    ":x:",
		Warning:  ":warning:",
		Remark:   ":speech_balloon:",
		Fallback: ":grey_question:",
	}
}

// For returns the marker for a level, falling back for unrecognized ones.
func (m Markers) For(level domain.Level) string {
	switch level {
	case domain.LevelError:
		return m.Error
	case domain.LevelWarning:
		return m.Warning
	case domain.LevelRemark:
		return m.Remark
	default:
		return m.Fallback
	}
}

// All returns every configured marker token, fallback included.
func (m Markers) All() []string {
	return []string{m.Error, m.Warning, m.Remark, m.Fallback}
}
