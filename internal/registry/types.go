// Package registry holds the canonical symbol model: every type keyed by its
// canonical ID, with members split into ordered-by-kind collections.
//
// Links between types are canonical-ID strings, never pointers, so cycles in
// the declared graph need no special handling and a registry can be filtered
// without leaving dangling references.
package registry

import (
	"sort"

	"apidoc/internal/canonical"
	"apidoc/internal/metadata"
)

// CanonicalEntry is the immutable identity shared by types and members.
type CanonicalEntry = canonical.Entry

// Link points at another type. ID is the canonical ID of the open definition
// (a registry key); Ref is the reference as declared, carrying any closed
// generic arguments.
type Link struct {
	ID  string            `json:"id"`
	Ref *metadata.TypeRef `json:"ref,omitempty"`
}

// MemberRef names a member by its type and its type-relative ID.
type MemberRef struct {
	TypeID   string `json:"typeId"`
	MemberID string `json:"memberId"`
}

// QualifiedID is globally unique: TypeID + "." + MemberID.
func (r MemberRef) QualifiedID() string {
	return r.TypeID + "." + r.MemberID
}

// IsZero reports whether the reference is empty.
func (r MemberRef) IsZero() bool {
	return r.TypeID == "" && r.MemberID == ""
}

// Member is a member as exposed by a type, either declared there or
// inherited from an ancestor.
type Member struct {
	CanonicalEntry

	// DeclaringType is the type exposing the member; OriginType is where it
	// was declared. OriginID is the member's ID in the origin type, which
	// differs from ID when a closed generic ancestor was substituted.
	DeclaringType string `json:"declaringType"`
	OriginType    string `json:"originType"`
	OriginID      string `json:"originId"`
	Inherited     bool   `json:"inherited,omitempty"`

	Overrides  *MemberRef  `json:"overrides,omitempty"`
	Implements []MemberRef `json:"implements,omitempty"`

	Accessibility metadata.Accessibility `json:"accessibility"`
	Static        bool                   `json:"static,omitempty"`

	// ExplicitInterface is the definition ID of the interface an explicit
	// implementation targets.
	ExplicitInterface string `json:"explicitInterface,omitempty"`

	// Descriptor is nil for registries reloaded from storage.
	Descriptor *metadata.MemberDescriptor `json:"-"`
}

// Ref returns the reference of the member as exposed by its declaring type.
func (m *Member) Ref() MemberRef {
	return MemberRef{TypeID: m.DeclaringType, MemberID: m.ID}
}

// OriginRef returns the reference of the declaration the member came from.
func (m *Member) OriginRef() MemberRef {
	return MemberRef{TypeID: m.OriginType, MemberID: m.OriginID}
}

// MemberKind returns the member's kind.
func (m *Member) MemberKind() metadata.MemberKind {
	return metadata.MemberKind(m.Kind)
}

// Class returns the member's class.
func (m *Member) Class() metadata.MemberClass {
	return m.MemberKind().Class()
}

func (m *Member) clone() *Member {
	c := *m
	if m.Overrides != nil {
		o := *m.Overrides
		c.Overrides = &o
	}
	c.Implements = append([]MemberRef(nil), m.Implements...)
	return &c
}

// TypeEntry is a registered type.
type TypeEntry struct {
	CanonicalEntry

	Namespace      string                      `json:"namespace"`
	Name           string                      `json:"name"`
	Assembly       string                      `json:"assembly"`
	TypeKind       metadata.TypeKind           `json:"typeKind"`
	Accessibility  metadata.Accessibility      `json:"accessibility"`
	TypeParameters []metadata.GenericParameter `json:"typeParameters,omitempty"`
	Static         bool                        `json:"static,omitempty"`
	Abstract       bool                        `json:"abstract,omitempty"`
	Sealed         bool                        `json:"sealed,omitempty"`

	Base       *Link  `json:"base,omitempty"`
	Interfaces []Link `json:"interfaces,omitempty"`

	Constructors []*Member `json:"constructors,omitempty"`
	Fields       []*Member `json:"fields,omitempty"`
	Properties   []*Member `json:"properties,omitempty"`
	Methods      []*Member `json:"methods,omitempty"`
	Events       []*Member `json:"events,omitempty"`

	Descriptor *metadata.TypeDescriptor `json:"-"`
}

// Category groups type kinds the way the registry buckets them.
type Category string

const (
	CategoryObject   Category = "object"
	CategoryEnum     Category = "enum"
	CategoryDelegate Category = "delegate"
)

// Category returns the bucket the type belongs to.
func (t *TypeEntry) Category() Category {
	switch t.TypeKind {
	case metadata.KindEnum:
		return CategoryEnum
	case metadata.KindDelegate:
		return CategoryDelegate
	}
	return CategoryObject
}

// IsInterface reports whether the entry is an interface.
func (t *TypeEntry) IsInterface() bool {
	return t.TypeKind == metadata.KindInterface
}

// Members returns every member in collection order: constructors, fields,
// properties, methods, events.
func (t *TypeEntry) Members() []*Member {
	out := make([]*Member, 0, len(t.Constructors)+len(t.Fields)+len(t.Properties)+len(t.Methods)+len(t.Events))
	out = append(out, t.Constructors...)
	out = append(out, t.Fields...)
	out = append(out, t.Properties...)
	out = append(out, t.Methods...)
	out = append(out, t.Events...)
	return out
}

// DeclaredMembers returns the members not inherited from an ancestor.
func (t *TypeEntry) DeclaredMembers() []*Member {
	var out []*Member
	for _, m := range t.Members() {
		if !m.Inherited {
			out = append(out, m)
		}
	}
	return out
}

// Member finds a member by its type-relative ID. When members of two
// classes share the ID, the first in collection order wins; MemberOfClass
// disambiguates.
func (t *TypeEntry) Member(id string) (*Member, bool) {
	for _, c := range t.collections() {
		for _, m := range *c {
			if m.ID == id {
				return m, true
			}
		}
	}
	return nil, false
}

// MemberOfClass finds a member by ID within one member class.
func (t *TypeEntry) MemberOfClass(class metadata.MemberClass, id string) (*Member, bool) {
	for _, c := range t.collections() {
		for _, m := range *c {
			if m.ID == id && m.Class() == class {
				return m, true
			}
		}
	}
	return nil, false
}

func (t *TypeEntry) collections() [5]*[]*Member {
	return [5]*[]*Member{&t.Constructors, &t.Fields, &t.Properties, &t.Methods, &t.Events}
}

// HasMember reports whether a member with the ID is exposed.
func (t *TypeEntry) HasMember(id string) bool {
	_, ok := t.Member(id)
	return ok
}

// AddMember appends a member to the collection for its kind.
func (t *TypeEntry) AddMember(m *Member) {
	c := t.collection(m.MemberKind())
	*c = append(*c, m)
}

func (t *TypeEntry) collection(kind metadata.MemberKind) *[]*Member {
	switch kind {
	case metadata.MemberConstructor:
		return &t.Constructors
	case metadata.MemberField:
		return &t.Fields
	case metadata.MemberProperty, metadata.MemberIndexer:
		return &t.Properties
	case metadata.MemberEvent:
		return &t.Events
	}
	return &t.Methods
}

// SortMembers orders every collection by ID.
func (t *TypeEntry) SortMembers() {
	for _, c := range t.collections() {
		ms := *c
		sort.SliceStable(ms, func(i, j int) bool { return ms[i].ID < ms[j].ID })
	}
}

// RetainMembers keeps the members for which keep returns true.
func (t *TypeEntry) RetainMembers(keep func(*Member) bool) {
	for _, c := range t.collections() {
		out := (*c)[:0:0]
		for _, m := range *c {
			if keep(m) {
				out = append(out, m)
			}
		}
		*c = out
	}
}

// Clone returns a deep copy of the entry and its members. Descriptors are
// shared; they are read-only.
func (t *TypeEntry) Clone() *TypeEntry {
	c := *t
	if t.Base != nil {
		b := *t.Base
		c.Base = &b
	}
	c.Interfaces = append([]Link(nil), t.Interfaces...)
	c.Constructors = cloneMembers(t.Constructors)
	c.Fields = cloneMembers(t.Fields)
	c.Properties = cloneMembers(t.Properties)
	c.Methods = cloneMembers(t.Methods)
	c.Events = cloneMembers(t.Events)
	return &c
}

func cloneMembers(ms []*Member) []*Member {
	if ms == nil {
		return nil
	}
	out := make([]*Member, len(ms))
	for i, m := range ms {
		out[i] = m.clone()
	}
	return out
}
