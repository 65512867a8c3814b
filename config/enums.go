package config

import (
	"fmt"
	"slices"
	"strings"
)

// Specification of change log export format.
// ENUM(none, text, yaml, xml)
type ChangeLogFormat int

const (
	ChangeLogFormatNone ChangeLogFormat = iota
	ChangeLogFormatText
	ChangeLogFormatYaml
	ChangeLogFormatXml
)

var changeLogFormatNames = []string{"none", "text", "yaml", "xml"}

// ErrInvalidChangeLogFormat is returned for unknown format names.
var ErrInvalidChangeLogFormat = fmt.Errorf("not a valid ChangeLogFormat, try [%s]", strings.Join(changeLogFormatNames, ", "))

// ChangeLogFormatNames returns list of possible string values.
func ChangeLogFormatNames() []string {
	return slices.Clone(changeLogFormatNames)
}

func (x ChangeLogFormat) String() string {
	if x.IsValid() {
		return changeLogFormatNames[x]
	}
	return fmt.Sprintf("ChangeLogFormat(%d)", x)
}

func (x ChangeLogFormat) IsValid() bool {
	return x >= 0 && int(x) < len(changeLogFormatNames)
}

// Ext returns file extension of exported change log.
func (x ChangeLogFormat) Ext() string {
	switch x {
	case ChangeLogFormatText:
		return ".changes.txt"
	case ChangeLogFormatYaml:
		return ".changes.yaml"
	case ChangeLogFormatXml:
		return ".changes.xml"
	default:
		return ""
	}
}

// ParseChangeLogFormat attempts to convert case insensitive name to ChangeLogFormat.
func ParseChangeLogFormat(name string) (ChangeLogFormat, error) {
	if i := slices.Index(changeLogFormatNames, strings.ToLower(name)); i >= 0 {
		return ChangeLogFormat(i), nil
	}
	return ChangeLogFormatNone, fmt.Errorf("%s is %w", name, ErrInvalidChangeLogFormat)
}

func (x ChangeLogFormat) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

func (x *ChangeLogFormat) UnmarshalText(text []byte) error {
	v, err := ParseChangeLogFormat(string(text))
	if err != nil {
		return err
	}
	*x = v
	return nil
}
