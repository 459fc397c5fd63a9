// Package pipeline runs the model stages in order: build the registry,
// resolve inheritance, then filter by visibility.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"apidoc/internal/diagnostic"
	"apidoc/internal/inherit"
	"apidoc/internal/metadata"
	"apidoc/internal/registry"
	"apidoc/internal/slogutil"
	"apidoc/internal/visibility"
)

// Options configures a run.
type Options struct {
	Policy           inherit.Policy
	Roots            []string
	MinAccessibility metadata.Accessibility
	Workers          int
	// QuietDiagnostics drops info-level diagnostics.
	QuietDiagnostics bool
	Logger           *slog.Logger
}

// Stats summarizes a run.
type Stats struct {
	Types            int `json:"types"`
	Members          int `json:"members"`
	InheritedMembers int `json:"inheritedMembers"`
	TypesDropped     int `json:"typesDropped"`
	MembersDropped   int `json:"membersDropped"`
	Warnings         int `json:"warnings"`
}

// Result is the outcome of a run. Registry is frozen.
type Result struct {
	RunID       string                  `json:"runId"`
	StartedAt   time.Time               `json:"startedAt"`
	Duration    time.Duration           `json:"duration"`
	Options     Options                 `json:"-"`
	Registry    *registry.Registry      `json:"-"`
	Diagnostics []diagnostic.Diagnostic `json:"diagnostics"`
	Stats       Stats                   `json:"stats"`
}

// Run builds the symbol model for types. Fatal errors from any stage abort
// the run; consistency problems end up in Result.Diagnostics.
func Run(ctx context.Context, types []metadata.TypeDescriptor, opts Options) (*Result, error) {
	if opts.MinAccessibility == "" {
		opts.MinAccessibility = metadata.Public
	}
	if opts.Policy == "" {
		opts.Policy = inherit.PolicyNone
	}
	logger := opts.Logger
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}

	res := &Result{RunID: uuid.NewString(), StartedAt: time.Now(), Options: opts}
	logger = logger.With("run", res.RunID)
	diags := diagnostic.NewCollector(opts.QuietDiagnostics)

	stage := time.Now()
	reg, err := registry.Build(ctx, types, registry.BuildOptions{Workers: opts.Workers})
	if err != nil {
		logger.Error("Build failed", "error", err)
		return nil, err
	}
	logger.Info("Registry built", "types", reg.Len(), "members", reg.MemberCount(), "duration", time.Since(stage))

	stage = time.Now()
	reg, err = inherit.Resolve(ctx, reg, inherit.Options{Policy: opts.Policy, Roots: opts.Roots, Workers: opts.Workers}, diags)
	if err != nil {
		logger.Error("Inheritance resolution failed", "error", err)
		return nil, err
	}
	logger.Info("Inheritance resolved", "policy", string(opts.Policy), "members", reg.MemberCount(), "duration", time.Since(stage))

	reg, vstats := visibility.Filter(reg, opts.MinAccessibility)
	logger.Info("Visibility filtered", "min", string(opts.MinAccessibility),
		"typesDropped", vstats.TypesDropped, "membersDropped", vstats.MembersDropped)

	res.Registry = reg
	res.Diagnostics = diags.Diagnostics()
	res.Duration = time.Since(res.StartedAt)
	res.Stats = Stats{
		Types:          reg.Len(),
		Members:        reg.MemberCount(),
		TypesDropped:   vstats.TypesDropped,
		MembersDropped: vstats.MembersDropped,
		Warnings:       diags.WarningCount(),
	}
	for _, t := range reg.Types() {
		for _, m := range t.Members() {
			if m.Inherited {
				res.Stats.InheritedMembers++
			}
		}
	}
	for _, d := range res.Diagnostics {
		if d.Severity == diagnostic.SeverityWarning {
			logger.Warn(d.Message, "subject", d.Subject, "category", string(d.Category))
		} else {
			logger.Debug(d.Message, "subject", d.Subject, "category", string(d.Category))
		}
	}
	logger.Info("Run complete", "types", res.Stats.Types, "members", res.Stats.Members, "warnings", res.Stats.Warnings, "duration", res.Duration)
	return res, nil
}
