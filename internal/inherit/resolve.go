// Package inherit resolves inheritance over a registry: it links overrides
// and interface implementations and, depending on the policy, merges
// ancestor members into each type.
package inherit

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"apidoc/internal/canonical"
	"apidoc/internal/diagnostic"
	"apidoc/internal/metadata"
	"apidoc/internal/registry"
)

// Options controls inheritance resolution.
type Options struct {
	Policy Policy
	// Roots are the ancestors PolicyNonObject stops at. Nil means DefaultRoots.
	Roots []string
	// Workers bounds per-type parallelism. Zero means runtime.NumCPU().
	Workers int
}

// Resolve returns a new registry in which every member carries its override
// and implementation links and, under PolicyAll or PolicyNonObject, every
// type also exposes the members it inherits. reg is not modified.
//
// Resolution runs in two phases so that inherited copies carry the links
// of the ancestor's own resolution: first each type links its declared
// members, then members are merged.
func Resolve(ctx context.Context, reg *registry.Registry, opts Options, diags *diagnostic.Collector) (*registry.Registry, error) {
	if opts.Policy == "" {
		opts.Policy = PolicyNone
	}
	roots := opts.Roots
	if roots == nil {
		roots = DefaultRoots
	}
	rootSet := make(map[string]bool, len(roots))
	for _, r := range roots {
		rootSet[r] = true
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	out := reg.Clone()
	types := out.Types()
	for _, t := range types {
		t.RetainMembers(func(m *registry.Member) bool { return !m.Inherited })
	}

	// Phase 1: links. Each goroutine writes only to its own entry and reads
	// ancestors from the untouched input registry.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, t := range types {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return linkType(reg, t, diags)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !opts.Policy.Merges() {
		return out, nil
	}

	// Phase 2: merge. Additions are collected first and applied after every
	// goroutine has finished reading the linked entries.
	var stop func(string) bool
	if opts.Policy == PolicyNonObject {
		stop = func(id string) bool { return rootSet[id] }
	}
	additions := make([][]*registry.Member, len(types))
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, t := range types {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			added, err := mergeType(out, t, stop, diags)
			if err != nil {
				return err
			}
			additions[i] = added
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, t := range types {
		for _, m := range additions[i] {
			t.AddMember(m)
		}
		t.SortMembers()
	}
	return out, nil
}

// linkType sets Overrides and Implements on the declared members of t.
func linkType(reg *registry.Registry, t *registry.TypeEntry, diags *diagnostic.Collector) error {
	src, ok := reg.Type(t.ID)
	if !ok {
		return fmt.Errorf("type %s missing from source registry", t.ID)
	}
	lin, err := walk(reg, src, nil, diags)
	if err != nil {
		return err
	}
	self := canonical.NewTypeContext(t.TypeParameters)

	// Interface members claimed by explicit implementations are not
	// implemented implicitly.
	claimed := make(map[classRef]bool)

	declared := t.DeclaredMembers()
	for _, m := range declared {
		if m.Descriptor != nil {
			m.Overrides = nil
			m.Implements = nil
		}
	}

	for _, m := range declared {
		if m.Descriptor == nil || m.ExplicitInterface == "" {
			continue
		}
		target, found, err := explicitTarget(reg, m, self, t.Name)
		if err != nil {
			return fmt.Errorf("%s: %w", m.Ref().QualifiedID(), err)
		}
		if !found {
			if _, registered := reg.Type(m.ExplicitInterface); registered {
				diags.Warnf(diagnostic.CategoryExplicitTarget, m.Ref().QualifiedID(), "no member of %s matches the explicit implementation", m.ExplicitInterface)
			} else {
				diags.Info(diagnostic.CategoryExternalAncestor, m.Ref().QualifiedID(), "explicit implementation targets unregistered interface "+m.ExplicitInterface)
			}
			continue
		}
		m.Implements = []registry.MemberRef{target}
		claimed[classRef{target, m.Class()}] = true
	}

	for _, m := range declared {
		if m.Descriptor == nil || m.ExplicitInterface != "" {
			continue
		}
		kind := m.MemberKind()
		if kind == metadata.MemberConstructor {
			continue
		}

		if m.Descriptor.Override {
			if ref, ok, err := findOverride(lin, m); err != nil {
				return fmt.Errorf("%s: %w", m.Ref().QualifiedID(), err)
			} else if ok {
				m.Overrides = &ref
			} else {
				hint := ""
				if len(lin.external) > 0 {
					hint = "ancestors not in the registry: " + strings.Join(lin.external, ", ")
				}
				diags.WarnWithHint(diagnostic.CategoryOverrideUnmatched, m.Ref().QualifiedID(), "override has no matching member in the base chain", hint)
			}
		}

		if m.Static {
			continue
		}
		for _, a := range lin.interfaces {
			for _, im := range a.entry.DeclaredMembers() {
				if im.MemberKind() != kind || claimed[refOfClass(im)] {
					continue
				}
				id, err := viewID(im, a.entry, a.ctx)
				if err != nil {
					return fmt.Errorf("%s: %w", im.Ref().QualifiedID(), err)
				}
				if id == m.ID {
					m.Implements = append(m.Implements, im.Ref())
				}
			}
		}
	}
	return nil
}

// findOverride searches the base chain nearest-first, private members
// included, for a same-kind member with the same signature.
func findOverride(lin *lineage, m *registry.Member) (registry.MemberRef, bool, error) {
	for _, a := range lin.bases {
		for _, bm := range a.entry.DeclaredMembers() {
			if bm.MemberKind() != m.MemberKind() || bm.ExplicitInterface != "" {
				continue
			}
			id, err := viewID(bm, a.entry, a.ctx)
			if err != nil {
				return registry.MemberRef{}, false, err
			}
			if id == m.ID {
				return bm.Ref(), true, nil
			}
		}
	}
	return registry.MemberRef{}, false, nil
}

// explicitTarget finds the interface member an explicit implementation names.
func explicitTarget(reg *registry.Registry, m *registry.Member, self *canonical.Context, owner string) (registry.MemberRef, bool, error) {
	md := m.Descriptor
	iface, ok := reg.Lookup(*md.ExplicitInterface)
	if !ok {
		return registry.MemberRef{}, false, nil
	}

	// The member's signature without the interface qualification.
	plain := *md
	plain.ExplicitInterface = nil
	if i := strings.LastIndex(plain.Name, "."); i >= 0 {
		plain.Name = plain.Name[i+1:]
	}
	want, err := canonical.MemberID(&plain, self, owner)
	if err != nil {
		return registry.MemberRef{}, false, err
	}

	ctx, err := substitute(iface, *md.ExplicitInterface, self)
	if err != nil {
		return registry.MemberRef{}, false, err
	}
	for _, im := range iface.DeclaredMembers() {
		if im.MemberKind() != m.MemberKind() {
			continue
		}
		id, err := viewID(im, iface, ctx)
		if err != nil {
			return registry.MemberRef{}, false, err
		}
		if id == want.ID {
			return im.Ref(), true, nil
		}
	}
	return registry.MemberRef{}, false, nil
}

// memberKey keys the working set. Members of different classes never hide
// each other.
type memberKey struct {
	class metadata.MemberClass
	id    string
}

// classRef is a member reference qualified by member class. Links always
// join members of one class.
type classRef struct {
	registry.MemberRef
	class metadata.MemberClass
}

func refOfClass(m *registry.Member) classRef {
	return classRef{m.Ref(), m.Class()}
}

type source struct {
	typeID       string
	viaInterface bool
	// base is set for members inherited from the base-class chain.
	base bool
	// implements are the ancestor member's own links.
	implements []registry.MemberRef
}

type ifaceMember struct {
	kind metadata.MemberKind
	ref  registry.MemberRef
}

// mergeType computes the inherited members t exposes. It only reads.
func mergeType(reg *registry.Registry, t *registry.TypeEntry, stop func(string) bool, diags *diagnostic.Collector) ([]*registry.Member, error) {
	// Cycles were already reported while linking.
	lin, err := walk(reg, t, stop, nil)
	if err != nil {
		return nil, err
	}

	present := make(map[memberKey]source)
	for _, m := range t.DeclaredMembers() {
		present[memberKey{m.Class(), m.ID}] = source{typeID: t.ID}
	}

	// Explicit implementations anywhere in the base chain hide their target.
	hidden := make(map[classRef]bool)
	for _, m := range t.DeclaredMembers() {
		if m.ExplicitInterface != "" {
			for _, ref := range m.Implements {
				hidden[classRef{ref, m.Class()}] = true
			}
		}
	}
	for _, a := range lin.bases {
		for _, m := range a.entry.DeclaredMembers() {
			if m.ExplicitInterface != "" {
				for _, ref := range m.Implements {
					hidden[classRef{ref, m.Class()}] = true
				}
			}
		}
	}

	// Interface members by their signature as seen from t, so that members
	// inherited from a base class pick up the interfaces t implements.
	ifaces := make(map[string][]ifaceMember)
	for _, a := range lin.interfaces {
		for _, im := range a.entry.DeclaredMembers() {
			if im.Static || hidden[refOfClass(im)] {
				continue
			}
			id, err := viewID(im, a.entry, a.ctx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", im.Ref().QualifiedID(), err)
			}
			ifaces[id] = append(ifaces[id], ifaceMember{kind: im.MemberKind(), ref: im.Ref()})
		}
	}

	var added []*registry.Member
	for _, a := range lin.all() {
		for _, am := range a.entry.DeclaredMembers() {
			if !inheritable(am) || hidden[refOfClass(am)] {
				continue
			}
			id, err := viewID(am, a.entry, a.ctx)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", am.Ref().QualifiedID(), err)
			}
			key := memberKey{am.Class(), id}
			if prev, ok := present[key]; ok {
				switch {
				case a.viaInterface && prev.viaInterface && prev.typeID != a.entry.ID:
					diags.Info(diagnostic.CategoryInheritanceConflict, t.ID+"."+id,
						fmt.Sprintf("%s and %s both contribute the member; %s wins by declaration order", prev.typeID, a.entry.ID, prev.typeID))
				case a.viaInterface && prev.base && !slices.Contains(prev.implements, am.Ref()):
					diags.Info(diagnostic.CategoryBaseInterfaceConflict, t.ID+"."+id,
						fmt.Sprintf("%s and %s both contribute the member; the base-class member from %s takes precedence", prev.typeID, a.entry.ID, prev.typeID))
				}
				continue
			}
			present[key] = source{
				typeID:       a.entry.ID,
				viaInterface: a.viaInterface,
				base:         !a.viaInterface,
				implements:   am.Implements,
			}

			c := *am
			c.ID = id
			c.DeclaringType = t.ID
			c.Inherited = true
			if am.Overrides != nil {
				o := *am.Overrides
				c.Overrides = &o
			}
			c.Implements = append([]registry.MemberRef(nil), am.Implements...)
			if !a.viaInterface && !am.Static {
				for _, im := range ifaces[id] {
					if im.kind == am.MemberKind() && !slices.Contains(c.Implements, im.ref) {
						c.Implements = append(c.Implements, im.ref)
					}
				}
			}
			added = append(added, &c)
		}
	}
	return added, nil
}

// inheritable reports whether an ancestor member can be merged into a
// descendant: constructors, private members and explicit implementations
// never are.
func inheritable(m *registry.Member) bool {
	if m.MemberKind() == metadata.MemberConstructor {
		return false
	}
	if m.Accessibility == metadata.Private || m.ExplicitInterface != "" {
		return false
	}
	return true
}
