// Package visibility filters a registry by minimum accessibility.
package visibility

import (
	"apidoc/internal/metadata"
	"apidoc/internal/registry"
)

// Stats counts what a filter pass removed.
type Stats struct {
	TypesDropped   int `json:"typesDropped"`
	MembersDropped int `json:"membersDropped"`
}

// Filter returns a frozen copy of reg without the types and members that are
// strictly less visible than min. Links are canonical-ID strings and are
// kept as computed, so an override link may name a member that was dropped.
func Filter(reg *registry.Registry, min metadata.Accessibility) (*registry.Registry, Stats) {
	var stats Stats
	out := reg.Clone()

	out.RetainTypes(func(t *registry.TypeEntry) bool {
		if !t.Accessibility.AtLeast(min) {
			stats.TypesDropped++
			return false
		}
		return true
	})

	for _, t := range out.Types() {
		t.RetainMembers(func(m *registry.Member) bool {
			if Effective(reg, m).AtLeast(min) {
				return true
			}
			stats.MembersDropped++
			return false
		})
	}

	out.Freeze()
	return out, stats
}

// Effective returns the accessibility a member is judged by. An explicit
// interface implementation is as visible as the interface it implements;
// interfaces outside the registry are taken to be public.
func Effective(reg *registry.Registry, m *registry.Member) metadata.Accessibility {
	if m.ExplicitInterface == "" {
		return m.Accessibility
	}
	if iface, ok := reg.Type(m.ExplicitInterface); ok {
		return iface.Accessibility
	}
	return metadata.Public
}
