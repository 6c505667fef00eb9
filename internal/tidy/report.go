// Package tidy reads clang-tidy "fixes" YAML reports and lifts both supported
// wire schemas into the internal diagnostic shape.
package tidy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bkyoung/clang-tidy-reviewer/internal/domain"
)

// rawReplacement mirrors one entry of a Replacements list on the wire.
type rawReplacement struct {
	FilePath        string `yaml:"FilePath"`
	Offset          int    `yaml:"Offset"`
	Length          int    `yaml:"Length"`
	ReplacementText string `yaml:"ReplacementText"`
}

// rawMessage is the nested DiagnosticMessage block of the clang-tidy 9+ schema.
type rawMessage struct {
	Message      string           `yaml:"Message"`
	FilePath     string           `yaml:"FilePath"`
	FileOffset   int              `yaml:"FileOffset"`
	Replacements []rawReplacement `yaml:"Replacements"`
}

// rawDiagnostic accepts both wire schemas: the clang-tidy 8 flat shape carries
// the message fields at the top level, the 9+ shape nests them under
// DiagnosticMessage.
type rawDiagnostic struct {
	DiagnosticName    string      `yaml:"DiagnosticName"`
	Level             string      `yaml:"Level"`
	DiagnosticMessage *rawMessage `yaml:"DiagnosticMessage"`

	// Legacy flat fields.
	Message      string           `yaml:"Message"`
	FilePath     string           `yaml:"FilePath"`
	FileOffset   int              `yaml:"FileOffset"`
	Replacements []rawReplacement `yaml:"Replacements"`
}

// rawReport is the top-level fixes file.
type rawReport struct {
	MainSourceFile string          `yaml:"MainSourceFile"`
	Diagnostics    []rawDiagnostic `yaml:"Diagnostics"`
}

// Report is a parsed fixes file.
type Report struct {
	MainSourceFile string
	Diagnostics    []domain.Diagnostic
}

// Empty reports whether the report carries no diagnostics.
func (r *Report) Empty() bool {
	return r == nil || len(r.Diagnostics) == 0
}

// Load reads and normalizes a fixes YAML file. A missing file is not an
// error: clang-tidy simply produced no findings, and Load returns (nil, nil).
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read fixes file: %w", err)
	}

	return Parse(data)
}

// Parse normalizes fixes YAML content into a Report.
func Parse(data []byte) (*Report, error) {
	var raw rawReport
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal fixes: %w", err)
	}

	report := &Report{MainSourceFile: raw.MainSourceFile}
	for _, d := range raw.Diagnostics {
		report.Diagnostics = append(report.Diagnostics, normalize(d))
	}

	return report, nil
}

// normalize lifts a wire diagnostic into the internal shape. Flat legacy
// fields are read only when the nested message block is absent.
func normalize(d rawDiagnostic) domain.Diagnostic {
	msg := d.DiagnosticMessage
	if msg == nil {
		msg = &rawMessage{
			Message:      d.Message,
			FilePath:     d.FilePath,
			FileOffset:   d.FileOffset,
			Replacements: d.Replacements,
		}
	}

	out := domain.Diagnostic{
		Name:       d.DiagnosticName,
		Level:      domain.Level(d.Level),
		Message:    msg.Message,
		FilePath:   msg.FilePath,
		FileOffset: msg.FileOffset,
	}
	for _, r := range msg.Replacements {
		out.Replacements = append(out.Replacements, domain.Replacement{
			FilePath: r.FilePath,
			Offset:   r.Offset,
			Length:   r.Length,
			Text:     r.ReplacementText,
		})
	}

	return out
}
