package registry

import (
	"sort"

	"apidoc/internal/canonical"
	apierrors "apidoc/internal/errors"
	"apidoc/internal/metadata"
)

// Registry maps canonical type IDs to type entries. Lookups are read-only;
// stages that change the model produce a new Registry.
type Registry struct {
	types  map[string]*TypeEntry
	order  []string
	frozen bool
}

// New assembles a registry from type entries. Duplicate IDs are an error.
func New(types []*TypeEntry) (*Registry, error) {
	r := &Registry{types: make(map[string]*TypeEntry, len(types))}
	for _, t := range types {
		if _, dup := r.types[t.ID]; dup {
			return nil, apierrors.Newf(apierrors.DuplicateID, "type ID %q registered twice", t.ID).WithSubject(t.ID)
		}
		r.types[t.ID] = t
		r.order = append(r.order, t.ID)
	}
	sort.Strings(r.order)
	return r, nil
}

// Type looks up a type by canonical ID.
func (r *Registry) Type(id string) (*TypeEntry, bool) {
	t, ok := r.types[id]
	return t, ok
}

// Lookup resolves a declared reference (possibly closed over arguments) to
// the registered definition.
func (r *Registry) Lookup(ref metadata.TypeRef) (*TypeEntry, bool) {
	return r.Type(canonical.RefDefinitionID(ref))
}

// Member looks up a member by type ID and type-relative member ID.
func (r *Registry) Member(typeID, memberID string) (*Member, bool) {
	t, ok := r.types[typeID]
	if !ok {
		return nil, false
	}
	return t.Member(memberID)
}

// MemberOfClass looks up a member of one class by type ID and member ID.
func (r *Registry) MemberOfClass(typeID string, class metadata.MemberClass, memberID string) (*Member, bool) {
	t, ok := r.types[typeID]
	if !ok {
		return nil, false
	}
	return t.MemberOfClass(class, memberID)
}

// MemberByRef looks up a member reference.
func (r *Registry) MemberByRef(ref MemberRef) (*Member, bool) {
	return r.Member(ref.TypeID, ref.MemberID)
}

// Types returns every type in ID order.
func (r *Registry) Types() []*TypeEntry {
	out := make([]*TypeEntry, len(r.order))
	for i, id := range r.order {
		out[i] = r.types[id]
	}
	return out
}

// IDs returns every type ID in order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) byCategory(c Category) []*TypeEntry {
	var out []*TypeEntry
	for _, id := range r.order {
		if t := r.types[id]; t.Category() == c {
			out = append(out, t)
		}
	}
	return out
}

// Objects returns classes, structs and interfaces.
func (r *Registry) Objects() []*TypeEntry { return r.byCategory(CategoryObject) }

// Enums returns enum types.
func (r *Registry) Enums() []*TypeEntry { return r.byCategory(CategoryEnum) }

// Delegates returns delegate types.
func (r *Registry) Delegates() []*TypeEntry { return r.byCategory(CategoryDelegate) }

// Namespaces returns the distinct namespaces of registered types, sorted.
func (r *Registry) Namespaces() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range r.types {
		if !seen[t.Namespace] {
			seen[t.Namespace] = true
			out = append(out, t.Namespace)
		}
	}
	sort.Strings(out)
	return out
}

// HasNamespace reports whether any registered type lives in ns or below it.
func (r *Registry) HasNamespace(ns string) bool {
	for _, t := range r.types {
		if t.Namespace == ns || (len(t.Namespace) > len(ns) && t.Namespace[:len(ns)+1] == ns+".") {
			return true
		}
	}
	return false
}

// Len returns the number of types.
func (r *Registry) Len() int {
	return len(r.order)
}

// MemberCount returns the number of exposed members across all types.
func (r *Registry) MemberCount() int {
	n := 0
	for _, t := range r.types {
		n += len(t.Members())
	}
	return n
}

// Freeze marks the registry as final. It is informational: a frozen
// registry is never handed to a stage that produces a new one.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze was called.
func (r *Registry) Frozen() bool {
	return r.frozen
}

// RetainTypes drops the types for which keep returns false.
func (r *Registry) RetainTypes(keep func(*TypeEntry) bool) {
	order := r.order[:0:0]
	for _, id := range r.order {
		if keep(r.types[id]) {
			order = append(order, id)
		} else {
			delete(r.types, id)
		}
	}
	r.order = order
}

// Clone returns a deep copy of the registry, unfrozen.
func (r *Registry) Clone() *Registry {
	c := &Registry{types: make(map[string]*TypeEntry, len(r.types)), order: append([]string(nil), r.order...)}
	for id, t := range r.types {
		c.types[id] = t.Clone()
	}
	return c
}
