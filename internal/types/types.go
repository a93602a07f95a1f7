package types

import (
	"fmt"
	"go/token"
	"strings"
)

// Issue represents a lint issue found in the code base.
//
// Start and End use 1-based lines and 1-based columns counted in characters,
// the convention shared by the formatter and the JSON output.
type Issue struct {
	Rule       string
	Category   string
	Filename   string
	Message    string
	Suggestion string
	Note       string
	Severity   Severity
	Start      token.Position
	End        token.Position
}

// Severity is the level attached to an issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
	SeverityOff
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARNING"
	case SeverityInfo:
		return "INFO"
	case SeverityOff:
		return "OFF"
	}
	return "UNKNOWN"
}

// ParseSeverity converts a configuration value into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return SeverityError, nil
	case "WARNING", "WARN":
		return SeverityWarning, nil
	case "INFO":
		return SeverityInfo, nil
	case "OFF":
		return SeverityOff, nil
	}
	return SeverityError, fmt.Errorf("unknown severity %q", s)
}

func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

func (s *Severity) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseSeverity(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// ConfigRule is the per-rule section of the configuration file.
type ConfigRule struct {
	Severity Severity `yaml:"severity"`
}
