package main

import (
	"apidoc/internal/config"
	"apidoc/internal/diagnostic"
	"apidoc/internal/pipeline"
	"apidoc/internal/storage"
	"apidoc/internal/xref"
)

// BuildResponseCLI is the output of `apidoc build`.
type BuildResponseCLI struct {
	RunID       string                  `json:"runId"`
	Inputs      []string                `json:"inputs"`
	Stats       pipeline.Stats          `json:"stats"`
	DurationMs  int64                   `json:"durationMs"`
	Stored      bool                    `json:"stored"`
	Database    string                  `json:"database,omitempty"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics,omitempty"`
}

// ResolveResponseCLI is the output of `apidoc resolve`.
type ResolveResponseCLI struct {
	RunID   string           `json:"runId"`
	Results []ResolvedRefCLI `json:"results"`
}

// ResolvedRefCLI is one resolved reference.
type ResolvedRefCLI struct {
	xref.CrossReference
	Resolved bool   `json:"resolved"`
	Display  string `json:"display"`
	Href     string `json:"href,omitempty"`
}

// MembersResponseCLI is the output of `apidoc members`.
type MembersResponseCLI struct {
	RunID   string      `json:"runId"`
	Type    TypeCLI     `json:"type"`
	Members []MemberCLI `json:"members"`
}

// TypeCLI summarizes a type.
type TypeCLI struct {
	ID            string   `json:"id"`
	DisplayName   string   `json:"displayName"`
	Kind          string   `json:"kind"`
	Accessibility string   `json:"accessibility"`
	Base          string   `json:"base,omitempty"`
	Interfaces    []string `json:"interfaces,omitempty"`
}

// MemberCLI describes one member of a type.
type MemberCLI struct {
	ID             string   `json:"id"`
	DisplayName    string   `json:"displayName"`
	Kind           string   `json:"kind"`
	Accessibility  string   `json:"accessibility"`
	Static         bool     `json:"static,omitempty"`
	Inherited      bool     `json:"inherited,omitempty"`
	Origin         string   `json:"origin,omitempty"`
	Overrides      string   `json:"overrides,omitempty"`
	Implements     []string `json:"implements,omitempty"`
	InheritDocFrom string   `json:"inheritDocFrom,omitempty"`
}

// CheckResponseCLI is the output of `apidoc check`.
type CheckResponseCLI struct {
	RunID          string          `json:"runId"`
	Files          []string        `json:"files"`
	MembersChecked int             `json:"membersChecked"`
	CrefsChecked   int             `json:"crefsChecked"`
	Unresolved     []UnresolvedCLI `json:"unresolved,omitempty"`
}

// UnresolvedCLI is one problem found by check.
type UnresolvedCLI struct {
	File   string `json:"file"`
	Member string `json:"member"`
	Ref    string `json:"ref,omitempty"`
	Reason string `json:"reason"`
}

const (
	reasonMemberMissing = "documented member not in model"
	reasonCrefMissing   = "cref does not resolve"
	reasonNoInheritDoc  = "inheritdoc has no source"
)

// RunsResponseCLI is the output of `apidoc runs`.
type RunsResponseCLI struct {
	Database string        `json:"database"`
	Runs     []storage.Run `json:"runs"`
}

// ConfigShowResponse is the output of `apidoc config show`.
type ConfigShowResponse struct {
	ConfigPath   string               `json:"configPath"`
	UsedDefaults bool                 `json:"usedDefaults"`
	EnvOverrides []config.EnvOverride `json:"envOverrides,omitempty"`
	Entries      []ConfigEntryCLI     `json:"entries"`
}

// ConfigEntryCLI is one effective configuration value.
type ConfigEntryCLI struct {
	Key      string      `json:"key"`
	Value    interface{} `json:"value"`
	Default  interface{} `json:"default"`
	Modified bool        `json:"modified,omitempty"`
}
