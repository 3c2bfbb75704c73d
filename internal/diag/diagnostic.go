package diag

import (
	"fmt"
	"strings"
)

// Diagnostic describes one problem found in a class document or during
// linking. Class and Member locate the problem; either may be empty.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Path     string
	Class    string
	Member   string
	Message  string
}

// Format renders the diagnostic as a single line:
//
//	ERROR STR2001 [zoo.toml] class Dog: unknown parent "Animal"
func (d Diagnostic) Format() string {
	var sb strings.Builder
	sb.WriteString(d.Severity.String())
	sb.WriteString(" ")
	sb.WriteString(d.Code.String())
	if d.Path != "" {
		fmt.Fprintf(&sb, " [%s]", d.Path)
	}
	if d.Class != "" {
		fmt.Fprintf(&sb, " class %s", d.Class)
		if d.Member != "" {
			fmt.Fprintf(&sb, ".%s", d.Member)
		}
	}
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	return sb.String()
}

// New builds a diagnostic with the code's default severity.
func New(code Code, class, member, format string, args ...any) Diagnostic {
	return Diagnostic{
		Severity: code.DefaultSeverity(),
		Code:     code,
		Class:    class,
		Member:   member,
		Message:  fmt.Sprintf(format, args...),
	}
}
