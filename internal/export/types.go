// Package export writes a finished registry as text, JSON, TOML or a SCIP
// index, optionally zstd-compressed.
package export

import (
	"fmt"
	"strings"
)

// Snapshot is the serialized form of a registry, grouped by namespace.
type Snapshot struct {
	Metadata   Metadata    `json:"metadata" toml:"metadata"`
	Namespaces []Namespace `json:"namespaces" toml:"namespaces"`
}

// Metadata describes where a snapshot came from.
type Metadata struct {
	RunID            string `json:"runId,omitempty" toml:"runId,omitempty"`
	Generated        string `json:"generated" toml:"generated"` // RFC 3339
	Policy           string `json:"policy,omitempty" toml:"policy,omitempty"`
	MinAccessibility string `json:"minAccessibility,omitempty" toml:"minAccessibility,omitempty"`
	TypeCount        int    `json:"typeCount" toml:"typeCount"`
	MemberCount      int    `json:"memberCount" toml:"memberCount"`
	NamespaceCount   int    `json:"namespaceCount" toml:"namespaceCount"`
}

// Namespace holds the types of one namespace.
type Namespace struct {
	Name  string `json:"name" toml:"name"`
	Types []Type `json:"types" toml:"types"`
}

// Type is an exported type entry. Links are canonical IDs.
type Type struct {
	ID            string   `json:"id" toml:"id"`
	DisplayName   string   `json:"displayName" toml:"displayName"`
	Kind          string   `json:"kind" toml:"kind"`
	Assembly      string   `json:"assembly,omitempty" toml:"assembly,omitempty"`
	Accessibility string   `json:"accessibility" toml:"accessibility"`
	Static        bool     `json:"static,omitempty" toml:"static,omitempty"`
	Abstract      bool     `json:"abstract,omitempty" toml:"abstract,omitempty"`
	Sealed        bool     `json:"sealed,omitempty" toml:"sealed,omitempty"`
	Base          string   `json:"base,omitempty" toml:"base,omitempty"`
	Interfaces    []string `json:"interfaces,omitempty" toml:"interfaces,omitempty"`
	Members       []Member `json:"members,omitempty" toml:"members,omitempty"`
}

// Member is an exported member entry.
type Member struct {
	ID                string   `json:"id" toml:"id"`
	DisplayName       string   `json:"displayName" toml:"displayName"`
	Kind              string   `json:"kind" toml:"kind"`
	Accessibility     string   `json:"accessibility" toml:"accessibility"`
	Static            bool     `json:"static,omitempty" toml:"static,omitempty"`
	Inherited         bool     `json:"inherited,omitempty" toml:"inherited,omitempty"`
	Origin            string   `json:"origin,omitempty" toml:"origin,omitempty"` // qualified ID, inherited members only
	Overrides         string   `json:"overrides,omitempty" toml:"overrides,omitempty"`
	Implements        []string `json:"implements,omitempty" toml:"implements,omitempty"`
	ExplicitInterface string   `json:"explicitInterface,omitempty" toml:"explicitInterface,omitempty"`
}

// Format is an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatSCIP Format = "scip"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatTOML, FormatSCIP:
		return f, nil
	case "":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown export format %q (want text, json, toml or scip)", s)
}

// Extension returns the conventional file extension, with ".zst" appended
// when compressed.
func (f Format) Extension(compressed bool) string {
	ext := "." + string(f)
	if f == FormatText {
		ext = ".txt"
	}
	if compressed {
		ext += ".zst"
	}
	return ext
}

// Options configures an export.
type Options struct {
	Format   Format
	Compress bool
	// Declared drops inherited members from text, JSON and TOML output.
	// SCIP output always carries declared members only.
	Declared bool
}
