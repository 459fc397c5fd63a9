// Package xref resolves documentation cross-reference strings
// ("T:N.Type", "M:N.Type.Method(System.Int32)") against a registry.
//
// Resolution never fails: a reference that cannot be matched is returned
// unresolved with its raw text preserved so renderers can fall back to it.
package xref

import (
	"strings"
	"sync"

	"apidoc/internal/metadata"
	"apidoc/internal/registry"
)

// Kind is the cross-reference prefix.
type Kind string

const (
	KindUnknown   Kind = ""
	KindType      Kind = "T"
	KindMethod    Kind = "M"
	KindProperty  Kind = "P"
	KindField     Kind = "F"
	KindEvent     Kind = "E"
	KindNamespace Kind = "N"
	// KindError marks a reference the compiler could not bind.
	KindError Kind = "!"
)

// CrossReference is the outcome of resolving one raw reference string.
type CrossReference struct {
	RawText          string `json:"rawText"`
	Kind             Kind   `json:"kind,omitempty"`
	ResolvedTypeID   string `json:"resolvedTypeId,omitempty"`
	ResolvedMemberID string `json:"resolvedMemberId,omitempty"`
	Namespace        string `json:"namespace,omitempty"`
}

// Resolved reports whether the reference matched a type, member or namespace.
func (c CrossReference) Resolved() bool {
	return c.ResolvedTypeID != "" || c.Namespace != ""
}

// IsMember reports whether the reference resolved to a member.
func (c CrossReference) IsMember() bool {
	return c.ResolvedMemberID != ""
}

// MemberRef returns the resolved member reference.
func (c CrossReference) MemberRef() registry.MemberRef {
	return registry.MemberRef{TypeID: c.ResolvedTypeID, MemberID: c.ResolvedMemberID}
}

// Resolver resolves references against a finished registry. It is safe for
// concurrent use; results are cached per raw string.
type Resolver struct {
	reg   *registry.Registry
	cache sync.Map // raw string -> CrossReference
}

// NewResolver creates a resolver over reg. reg must not change afterwards.
func NewResolver(reg *registry.Registry) *Resolver {
	return &Resolver{reg: reg}
}

// Registry returns the registry the resolver reads.
func (r *Resolver) Registry() *registry.Registry {
	return r.reg
}

// Resolve resolves a raw reference string.
func (r *Resolver) Resolve(raw string) CrossReference {
	if v, ok := r.cache.Load(raw); ok {
		return v.(CrossReference)
	}
	// Concurrent callers may compute the same value; the first one stored wins.
	v, _ := r.cache.LoadOrStore(raw, r.resolve(raw))
	return v.(CrossReference)
}

func (r *Resolver) resolve(raw string) CrossReference {
	ref := CrossReference{RawText: raw}
	text := strings.TrimSpace(raw)

	kind, payload := splitPrefix(text)
	ref.Kind = kind
	if payload == "" {
		return ref
	}

	switch kind {
	case KindError:
		return ref
	case KindNamespace:
		if r.reg.HasNamespace(payload) {
			ref.Namespace = payload
		}
	case KindType:
		r.resolveType(&ref, payload)
	case KindMethod, KindProperty, KindField, KindEvent:
		r.resolveMember(&ref, payload, kind)
	case KindUnknown:
		if r.resolveType(&ref, payload) {
			ref.Kind = KindType
			break
		}
		if mk, ok := r.resolveMember(&ref, payload, KindUnknown); ok {
			ref.Kind = prefixFor(mk)
		}
	}
	return ref
}

func splitPrefix(text string) (Kind, string) {
	if len(text) >= 2 && text[1] == ':' {
		switch k := Kind(text[:1]); k {
		case KindType, KindMethod, KindProperty, KindField, KindEvent, KindNamespace, KindError:
			return k, text[2:]
		}
	}
	return KindUnknown, text
}

func (r *Resolver) resolveType(ref *CrossReference, payload string) bool {
	t, ok := r.reg.Type(payload)
	if !ok {
		return false
	}
	ref.ResolvedTypeID = t.ID
	ref.Namespace = t.Namespace
	return true
}

func (r *Resolver) resolveMember(ref *CrossReference, payload string, kind Kind) (metadata.MemberKind, bool) {
	typeID, memberID, ok := SplitMemberPayload(payload)
	if !ok {
		return "", false
	}
	t, ok := r.reg.Type(typeID)
	if !ok {
		return "", false
	}
	var m *registry.Member
	if kind == KindUnknown {
		m, ok = t.Member(memberID)
	} else {
		m, ok = t.MemberOfClass(metadata.MemberClass(kind), memberID)
	}
	if !ok {
		return "", false
	}
	ref.ResolvedTypeID = t.ID
	ref.ResolvedMemberID = m.ID
	ref.Namespace = t.Namespace
	return m.MemberKind(), true
}

// SplitMemberPayload splits "N.Type.Member(params)" into the type ID and the
// type-relative member ID. The parameter list starts at the first "(" (or a
// "~" conversion suffix); the boundary is the last "." before it that is
// not inside generic braces.
func SplitMemberPayload(payload string) (typeID, memberID string, ok bool) {
	end := strings.IndexByte(payload, '(')
	if end < 0 {
		end = strings.IndexByte(payload, '~')
	}
	if end < 0 {
		end = len(payload)
	}

	depth, dot := 0, -1
	for i := 0; i < end; i++ {
		switch payload[i] {
		case '{':
			depth++
		case '}':
			depth--
		case '.':
			if depth == 0 {
				dot = i
			}
		}
	}
	if dot <= 0 || dot == len(payload)-1 {
		return "", "", false
	}
	return payload[:dot], payload[dot+1:], true
}

func prefixFor(mk metadata.MemberKind) Kind {
	return Kind(mk.Class())
}
