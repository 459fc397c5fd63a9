package inherit

import (
	"fmt"

	"apidoc/internal/canonical"
	"apidoc/internal/diagnostic"
	"apidoc/internal/metadata"
	"apidoc/internal/registry"
)

// ancestor is a registered ancestor together with the context that maps its
// generic parameters to the arguments the descendant supplied.
type ancestor struct {
	entry        *registry.TypeEntry
	ctx          *canonical.Context
	viaInterface bool
}

// lineage is the ordered ancestor set of one type: base chain nearest
// first, then the transitive interface set.
type lineage struct {
	bases      []ancestor
	interfaces []ancestor

	// external lists ancestors referenced but not registered.
	external []string
}

func (l *lineage) all() []ancestor {
	out := make([]ancestor, 0, len(l.bases)+len(l.interfaces))
	out = append(out, l.bases...)
	return append(out, l.interfaces...)
}

type pending struct {
	ref      metadata.TypeRef
	declCtx  *canonical.Context
	declarer string
}

// walk computes the lineage of t against reg. stop, when non-nil, ends the
// base chain before an ancestor for which it returns true.
func walk(reg *registry.Registry, t *registry.TypeEntry, stop func(id string) bool, diags *diagnostic.Collector) (*lineage, error) {
	l := &lineage{}
	self := canonical.NewTypeContext(t.TypeParameters)

	var queue []pending
	for _, iface := range t.Interfaces {
		queue = append(queue, pending{ref: refOf(iface), declCtx: self, declarer: t.ID})
	}

	visited := map[string]bool{t.ID: true}
	cur, curCtx := t, self
	for cur.Base != nil {
		base, ok := reg.Type(cur.Base.ID)
		if !ok {
			l.external = append(l.external, cur.Base.ID)
			break
		}
		if stop != nil && stop(base.ID) {
			break
		}
		if visited[base.ID] {
			diags.Warnf(diagnostic.CategoryAncestorCycle, t.ID, "base chain revisits %s", base.ID)
			break
		}
		visited[base.ID] = true

		ctx, err := substitute(base, refOf(*cur.Base), curCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: base %s: %w", t.ID, base.ID, err)
		}
		l.bases = append(l.bases, ancestor{entry: base, ctx: ctx})
		for _, iface := range base.Interfaces {
			queue = append(queue, pending{ref: refOf(iface), declCtx: ctx, declarer: base.ID})
		}
		cur, curCtx = base, ctx
	}

	seen := make(map[string]bool)
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]

		key, err := canonical.EncodeRef(p.ref, p.declCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: interface of %s: %w", t.ID, p.declarer, err)
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		iface, ok := reg.Lookup(p.ref)
		if !ok {
			l.external = append(l.external, canonical.RefDefinitionID(p.ref))
			continue
		}
		if stop != nil && stop(iface.ID) {
			continue
		}
		ctx, err := substitute(iface, p.ref, p.declCtx)
		if err != nil {
			return nil, fmt.Errorf("%s: interface %s: %w", t.ID, iface.ID, err)
		}
		l.interfaces = append(l.interfaces, ancestor{entry: iface, ctx: ctx, viaInterface: true})
		for _, next := range iface.Interfaces {
			queue = append(queue, pending{ref: refOf(next), declCtx: ctx, declarer: iface.ID})
		}
	}
	return l, nil
}

// substitute builds the context in which the ancestor's members are seen
// from the type that referenced it through ref.
func substitute(entry *registry.TypeEntry, ref metadata.TypeRef, from *canonical.Context) (*canonical.Context, error) {
	return canonical.NewTypeContext(entry.TypeParameters).Substitute(ref.Arguments, from)
}

// viewID is the ID an ancestor member has when seen through ctx.
func viewID(m *registry.Member, owner *registry.TypeEntry, ctx *canonical.Context) (string, error) {
	if m.Descriptor == nil {
		return m.ID, nil
	}
	e, err := canonical.MemberID(m.Descriptor, ctx, owner.Name)
	if err != nil {
		return "", err
	}
	return e.ID, nil
}

// refOf returns the declared reference of a link. Registries reloaded from
// storage may only carry the definition ID.
func refOf(l registry.Link) metadata.TypeRef {
	if l.Ref != nil {
		return *l.Ref
	}
	return metadata.TypeRef{Name: l.ID}
}
