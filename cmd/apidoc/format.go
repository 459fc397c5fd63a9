package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *BuildResponseCLI:
		return formatBuildHuman(v), nil
	case *ResolveResponseCLI:
		return formatResolveHuman(v), nil
	case *MembersResponseCLI:
		return formatMembersHuman(v), nil
	case *CheckResponseCLI:
		return formatCheckHuman(v), nil
	case *RunsResponseCLI:
		return formatRunsHuman(v), nil
	case *ConfigShowResponse:
		return formatConfigHuman(v), nil
	default:
		// Unknown types fall back to JSON
		return formatJSON(resp)
	}
}

func formatBuildHuman(resp *BuildResponseCLI) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Build %s\n", resp.RunID))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	b.WriteString(fmt.Sprintf("Inputs: %d file(s)\n", len(resp.Inputs)))
	for _, in := range resp.Inputs {
		b.WriteString(fmt.Sprintf("  %s\n", in))
	}
	b.WriteString("\n")

	s := resp.Stats
	b.WriteString(fmt.Sprintf("Types:    %d (%d dropped)\n", s.Types, s.TypesDropped))
	b.WriteString(fmt.Sprintf("Members:  %d (%d inherited, %d dropped)\n", s.Members, s.InheritedMembers, s.MembersDropped))
	b.WriteString(fmt.Sprintf("Warnings: %d\n", s.Warnings))
	b.WriteString(fmt.Sprintf("Duration: %dms\n", resp.DurationMs))

	if resp.Stored {
		b.WriteString(fmt.Sprintf("Stored:   %s\n", resp.Database))
	} else {
		b.WriteString("Stored:   no\n")
	}

	if len(resp.Diagnostics) > 0 {
		b.WriteString("\nDiagnostics:\n")
		for _, d := range resp.Diagnostics {
			b.WriteString(fmt.Sprintf("  %s\n", d.String()))
		}
	}
	return b.String()
}

func formatResolveHuman(resp *ResolveResponseCLI) string {
	var b strings.Builder
	for _, r := range resp.Results {
		if !r.Resolved {
			b.WriteString(fmt.Sprintf("✗ %s  (unresolved)\n", r.RawText))
			continue
		}
		b.WriteString(fmt.Sprintf("✓ %s\n", r.RawText))
		b.WriteString(fmt.Sprintf("    %s", r.Display))
		if r.Href != "" {
			b.WriteString(fmt.Sprintf("  -> %s", r.Href))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatMembersHuman(resp *MembersResponseCLI) string {
	var b strings.Builder

	t := resp.Type
	b.WriteString(fmt.Sprintf("%s %s (%s)\n", t.Accessibility, t.ID, t.Kind))
	if t.Base != "" {
		b.WriteString(fmt.Sprintf("  base: %s\n", t.Base))
	}
	if len(t.Interfaces) > 0 {
		b.WriteString(fmt.Sprintf("  implements: %s\n", strings.Join(t.Interfaces, ", ")))
	}
	b.WriteString(strings.Repeat("-", 60) + "\n")

	for _, m := range resp.Members {
		marker := "#"
		if m.Inherited {
			marker = "^"
		}
		line := fmt.Sprintf("%s %-9s %-8s %s", marker, m.Accessibility, m.Kind, m.ID)
		if m.Static {
			line += " [static]"
		}
		b.WriteString(line + "\n")
		if m.Inherited {
			b.WriteString(fmt.Sprintf("      from %s\n", m.Origin))
		}
		if m.Overrides != "" {
			b.WriteString(fmt.Sprintf("      overrides %s\n", m.Overrides))
		}
		for _, impl := range m.Implements {
			b.WriteString(fmt.Sprintf("      implements %s\n", impl))
		}
	}
	b.WriteString(fmt.Sprintf("\n%d member(s)", len(resp.Members)))
	return b.String()
}

func formatCheckHuman(resp *CheckResponseCLI) string {
	var b strings.Builder

	icon, text := "✓", "All references resolve"
	if len(resp.Unresolved) > 0 {
		icon, text = "✗", fmt.Sprintf("%d problem(s) found", len(resp.Unresolved))
	}
	b.WriteString(fmt.Sprintf("%s %s\n", icon, text))
	b.WriteString(fmt.Sprintf("  files: %d, members: %d, crefs: %d\n", len(resp.Files), resp.MembersChecked, resp.CrefsChecked))

	if len(resp.Unresolved) > 0 {
		b.WriteString("\n")
		for _, u := range resp.Unresolved {
			b.WriteString(fmt.Sprintf("  %s: %s\n", u.File, u.Member))
			if u.Ref != "" {
				b.WriteString(fmt.Sprintf("      %s: %s\n", u.Reason, u.Ref))
			} else {
				b.WriteString(fmt.Sprintf("      %s\n", u.Reason))
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRunsHuman(resp *RunsResponseCLI) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Runs in %s\n", resp.Database))
	b.WriteString(strings.Repeat("=", 60) + "\n")
	if len(resp.Runs) == 0 {
		b.WriteString("(none)")
		return b.String()
	}
	for _, r := range resp.Runs {
		b.WriteString(fmt.Sprintf("%s  %s  policy=%s min=%s types=%d members=%d warnings=%d\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Policy, r.MinAccessibility, r.Types, r.Members, r.Warnings))
	}
	return strings.TrimRight(b.String(), "\n")
}
