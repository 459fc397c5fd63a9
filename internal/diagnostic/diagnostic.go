// Package diagnostic collects data-consistency findings produced while the
// symbol model is built. Diagnostics are never fatal: the model is completed
// with best-effort linkage and the findings are reported alongside it.
package diagnostic

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityInfo:
		return "info"
	default:
		return "unknown"
	}
}

// MarshalText renders the severity by name in JSON output.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Category classifies diagnostics for filtering.
type Category string

const (
	// CategoryOverrideUnmatched: an override-flagged member has no matching ancestor signature.
	CategoryOverrideUnmatched Category = "override-unmatched"
	// CategoryInheritanceConflict: two interfaces contribute the same signature.
	CategoryInheritanceConflict Category = "inheritance-conflict"
	// CategoryBaseInterfaceConflict: a base-class member hides an interface member with the same signature.
	CategoryBaseInterfaceConflict Category = "base-interface-conflict"
	// CategoryExplicitTarget: an explicit implementation names a missing interface member.
	CategoryExplicitTarget Category = "explicit-target-missing"
	// CategoryExternalAncestor: an ancestor is outside the analyzed set, the walk stops there.
	CategoryExternalAncestor Category = "external-ancestor"
	// CategoryAncestorCycle: the base-type chain loops back on itself.
	CategoryAncestorCycle Category = "ancestor-cycle"
)

// Diagnostic represents a structured diagnostic message.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Category Category `json:"category"`
	Subject  string   `json:"subject"` // canonical ID of the type or member concerned
	Message  string   `json:"message"`
	Hint     string   `json:"hint,omitempty"`
}

// String formats the diagnostic for display.
func (d Diagnostic) String() string {
	var sb strings.Builder

	if d.Subject != "" {
		sb.WriteString(d.Subject)
		sb.WriteString(" - ")
	}

	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")

	if d.Category != "" {
		sb.WriteString("[")
		sb.WriteString(string(d.Category))
		sb.WriteString("] ")
	}

	sb.WriteString(d.Message)

	if d.Hint != "" {
		sb.WriteString("\n  hint: ")
		sb.WriteString(d.Hint)
	}

	return sb.String()
}

// Collector collects diagnostics during analysis. It is safe for concurrent
// use because the inheritance resolver reports from several goroutines.
type Collector struct {
	mu          sync.Mutex
	diagnostics []Diagnostic
	quiet       bool // if true, suppress info diagnostics
}

// NewCollector creates a new diagnostic collector.
func NewCollector(quiet bool) *Collector {
	return &Collector{quiet: quiet}
}

// Warn adds a warning diagnostic.
func (c *Collector) Warn(category Category, subject, message string) {
	c.add(Diagnostic{Severity: SeverityWarning, Category: category, Subject: subject, Message: message})
}

// Warnf adds a warning diagnostic with a formatted message.
func (c *Collector) Warnf(category Category, subject, format string, args ...interface{}) {
	c.Warn(category, subject, fmt.Sprintf(format, args...))
}

// WarnWithHint adds a warning with a suggestion.
func (c *Collector) WarnWithHint(category Category, subject, message, hint string) {
	c.add(Diagnostic{Severity: SeverityWarning, Category: category, Subject: subject, Message: message, Hint: hint})
}

// Info adds an informational diagnostic.
func (c *Collector) Info(category Category, subject, message string) {
	if c != nil && c.quiet {
		return
	}
	c.add(Diagnostic{Severity: SeverityInfo, Category: category, Subject: subject, Message: message})
}

func (c *Collector) add(d Diagnostic) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.diagnostics = append(c.diagnostics, d)
	c.mu.Unlock()
}

// Diagnostics returns all collected diagnostics ordered by subject, category
// and message so parallel collection still yields a stable report.
func (c *Collector) Diagnostics() []Diagnostic {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	out := make([]Diagnostic, len(c.diagnostics))
	copy(out, c.diagnostics)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Message < out[j].Message
	})
	return out
}

// WarningCount returns the number of warning diagnostics.
func (c *Collector) WarningCount() int {
	return c.count(SeverityWarning)
}

// Count returns the number of diagnostics in the given category.
func (c *Collector) Count(category Category) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.diagnostics {
		if d.Category == category {
			n++
		}
	}
	return n
}

func (c *Collector) count(sev Severity) int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, d := range c.diagnostics {
		if d.Severity == sev {
			n++
		}
	}
	return n
}
