package export

import (
	"fmt"
	"sort"
	"strings"

	"apidoc/internal/registry"
)

// Organize groups the registry by namespace. Namespaces and types keep
// registry ID order; members keep their collection order.
func Organize(reg *registry.Registry, meta Metadata, declaredOnly bool) *Snapshot {
	snap := &Snapshot{Metadata: meta}
	index := make(map[string]int)

	for _, t := range reg.Types() {
		i, ok := index[t.Namespace]
		if !ok {
			i = len(snap.Namespaces)
			index[t.Namespace] = i
			snap.Namespaces = append(snap.Namespaces, Namespace{Name: t.Namespace})
		}
		et := exportType(t, declaredOnly)
		snap.Namespaces[i].Types = append(snap.Namespaces[i].Types, et)
		snap.Metadata.TypeCount++
		snap.Metadata.MemberCount += len(et.Members)
	}

	sort.SliceStable(snap.Namespaces, func(i, j int) bool {
		return snap.Namespaces[i].Name < snap.Namespaces[j].Name
	})
	snap.Metadata.NamespaceCount = len(snap.Namespaces)
	return snap
}

func exportType(t *registry.TypeEntry, declaredOnly bool) Type {
	et := Type{
		ID:            t.ID,
		DisplayName:   t.DisplayName,
		Kind:          string(t.TypeKind),
		Assembly:      t.Assembly,
		Accessibility: string(t.Accessibility),
		Static:        t.Static,
		Abstract:      t.Abstract,
		Sealed:        t.Sealed,
	}
	if t.Base != nil {
		et.Base = t.Base.ID
	}
	for _, l := range t.Interfaces {
		et.Interfaces = append(et.Interfaces, l.ID)
	}
	for _, m := range t.Members() {
		if declaredOnly && m.Inherited {
			continue
		}
		em := Member{
			ID:                m.ID,
			DisplayName:       m.DisplayName,
			Kind:              m.Kind,
			Accessibility:     string(m.Accessibility),
			Static:            m.Static,
			Inherited:         m.Inherited,
			ExplicitInterface: m.ExplicitInterface,
		}
		if m.Inherited {
			em.Origin = m.OriginRef().QualifiedID()
		}
		if m.Overrides != nil {
			em.Overrides = m.Overrides.QualifiedID()
		}
		for _, impl := range m.Implements {
			em.Implements = append(em.Implements, impl.QualifiedID())
		}
		et.Members = append(et.Members, em)
	}
	return et
}

// NamespaceSummary is one line of the namespace map.
type NamespaceSummary struct {
	Name        string `json:"name"`
	TypeCount   int    `json:"typeCount"`
	MemberCount int    `json:"memberCount"`
}

// Bridge counts base and interface links from types of one namespace to
// types of another.
type Bridge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Links int    `json:"links"`
}

// Overview is the header of the text format.
type Overview struct {
	Namespaces []NamespaceSummary `json:"namespaces"`
	Bridges    []Bridge           `json:"bridges,omitempty"`
}

// Summarize computes the namespace map and the cross-namespace bridges.
// Links to types outside the snapshot are ignored.
func Summarize(snap *Snapshot) *Overview {
	ov := &Overview{}
	nsOf := make(map[string]string)
	for _, ns := range snap.Namespaces {
		s := NamespaceSummary{Name: ns.Name, TypeCount: len(ns.Types)}
		for _, t := range ns.Types {
			s.MemberCount += len(t.Members)
			nsOf[t.ID] = ns.Name
		}
		ov.Namespaces = append(ov.Namespaces, s)
	}

	counts := make(map[[2]string]int)
	for _, ns := range snap.Namespaces {
		for _, t := range ns.Types {
			targets := t.Interfaces
			if t.Base != "" {
				targets = append([]string{t.Base}, targets...)
			}
			for _, id := range targets {
				to, ok := nsOf[id]
				if !ok || to == ns.Name {
					continue
				}
				counts[[2]string{ns.Name, to}]++
			}
		}
	}
	for k, n := range counts {
		ov.Bridges = append(ov.Bridges, Bridge{From: k[0], To: k[1], Links: n})
	}
	sort.Slice(ov.Bridges, func(i, j int) bool {
		a, b := ov.Bridges[i], ov.Bridges[j]
		if a.Links != b.Links {
			return a.Links > b.Links
		}
		if a.From != b.From {
			return a.From < b.From
		}
		return a.To < b.To
	})
	return ov
}

// FormatOrganizedText renders a compact outline:
//
//	## Namespace
//	  $ Type : Base, IFace
//	    # Member
func FormatOrganizedText(snap *Snapshot) string {
	var sb strings.Builder
	m := snap.Metadata
	fmt.Fprintf(&sb, "# Run: %s\n", orDash(m.RunID))
	fmt.Fprintf(&sb, "# Generated: %s\n", m.Generated)
	fmt.Fprintf(&sb, "# Types: %d | Members: %d | Namespaces: %d\n\n", m.TypeCount, m.MemberCount, m.NamespaceCount)

	ov := Summarize(snap)
	for _, s := range ov.Namespaces {
		fmt.Fprintf(&sb, "  %-40s %4d types %5d members\n", orDash(s.Name), s.TypeCount, s.MemberCount)
	}
	if len(ov.Bridges) > 0 {
		sb.WriteString("\nBridges:\n")
		for _, b := range ov.Bridges {
			fmt.Fprintf(&sb, "  %s -> %s (%d)\n", orDash(b.From), orDash(b.To), b.Links)
		}
	}
	sb.WriteString("\n")

	for _, ns := range snap.Namespaces {
		fmt.Fprintf(&sb, "## %s\n\n", orDash(ns.Name))
		for _, t := range ns.Types {
			line := fmt.Sprintf("  $ %s", t.DisplayName)
			var supers []string
			if t.Base != "" {
				supers = append(supers, t.Base)
			}
			supers = append(supers, t.Interfaces...)
			if len(supers) > 0 {
				line += " : " + strings.Join(supers, ", ")
			}
			if t.Kind != "class" {
				line += "  " + t.Kind
			}
			sb.WriteString(line + "\n")
			for _, mem := range t.Members {
				sb.WriteString(memberLine(mem) + "\n")
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString("---\n")
	sb.WriteString("Legend:\n")
	sb.WriteString("  $  = type\n")
	sb.WriteString("  #  = member\n")
	sb.WriteString("  ^  = inherited\n")
	return sb.String()
}

func memberLine(m Member) string {
	prefix := "#"
	if m.Inherited {
		prefix = "^"
	}
	line := fmt.Sprintf("    %s %s", prefix, m.DisplayName)
	for len(line) < 40 {
		line += " "
	}
	line += "  " + m.Accessibility
	if m.Static {
		line += " static"
	}
	if m.Overrides != "" {
		line += "  overrides " + m.Overrides
	}
	if len(m.Implements) > 0 {
		line += "  implements " + strings.Join(m.Implements, ", ")
	}
	return line
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
