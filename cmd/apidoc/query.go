package main

import (
	"fmt"
	"sort"

	apierrors "apidoc/internal/errors"
	"apidoc/internal/markup"
	"apidoc/internal/xref"
)

func resolveRefs(r *xref.Resolver, runID string, raws []string) *ResolveResponseCLI {
	resp := &ResolveResponseCLI{RunID: runID, Results: make([]ResolvedRefCLI, 0, len(raws))}
	for _, raw := range raws {
		ref := r.Resolve(raw)
		out := ResolvedRefCLI{CrossReference: ref, Resolved: ref.Resolved(), Display: r.DisplayText(ref)}
		if out.Resolved {
			out.Href = xref.Href(ref)
		}
		resp.Results = append(resp.Results, out)
	}
	return resp
}

// describeType lists the members of a type. The type may be given with or
// without its "T:" prefix.
func describeType(r *xref.Resolver, runID, typeID string, declaredOnly bool) (*MembersResponseCLI, error) {
	ref := r.Resolve(typeID)
	if ref.Kind != xref.KindType || !ref.Resolved() {
		return nil, apierrors.Newf(apierrors.SymbolNotFound, "type not found in model").WithSubject(typeID)
	}
	t, _ := r.Registry().Type(ref.ResolvedTypeID)

	resp := &MembersResponseCLI{
		RunID: runID,
		Type: TypeCLI{
			ID:            t.ID,
			DisplayName:   t.DisplayName,
			Kind:          t.Kind,
			Accessibility: string(t.Accessibility),
		},
	}
	if t.Base != nil {
		resp.Type.Base = t.Base.ID
	}
	for _, iface := range t.Interfaces {
		resp.Type.Interfaces = append(resp.Type.Interfaces, iface.ID)
	}

	members := t.Members()
	if declaredOnly {
		members = t.DeclaredMembers()
	}
	for _, m := range members {
		mc := MemberCLI{
			ID:            m.ID,
			DisplayName:   m.DisplayName,
			Kind:          m.Kind,
			Accessibility: string(m.Accessibility),
			Static:        m.Static,
			Inherited:     m.Inherited,
		}
		if m.Inherited {
			mc.Origin = m.OriginRef().QualifiedID()
		}
		if m.Overrides != nil {
			mc.Overrides = m.Overrides.QualifiedID()
		}
		for _, impl := range m.Implements {
			mc.Implements = append(mc.Implements, impl.QualifiedID())
		}
		if src, ok := xref.InheritDocFrom(m); ok {
			mc.InheritDocFrom = src.QualifiedID()
		}
		resp.Members = append(resp.Members, mc)
	}
	return resp, nil
}

// checkDocs verifies documentation files against the model: every
// documented name must resolve, every cref inside must resolve, and every
// bare <inheritdoc/> must have a source to copy from.
func checkDocs(r *xref.Resolver, runID string, docs map[string]*markup.DocSet) *CheckResponseCLI {
	resp := &CheckResponseCLI{RunID: runID}
	files := make([]string, 0, len(docs))
	for f := range docs {
		files = append(files, f)
	}
	sort.Strings(files)
	resp.Files = files

	for _, file := range files {
		set := docs[file]
		for _, name := range set.Names() {
			resp.MembersChecked++
			el := set.Members[name]

			self := r.Resolve(name)
			if !self.Resolved() {
				resp.Unresolved = append(resp.Unresolved, UnresolvedCLI{File: file, Member: name, Reason: reasonMemberMissing})
				continue
			}

			for _, ref := range r.ResolveTree(el) {
				resp.CrefsChecked++
				if !ref.Resolved() {
					resp.Unresolved = append(resp.Unresolved, UnresolvedCLI{File: file, Member: name, Ref: ref.RawText, Reason: reasonCrefMissing})
				}
			}

			if bareInheritDoc(el) && !hasInheritSource(r, self) {
				resp.Unresolved = append(resp.Unresolved, UnresolvedCLI{File: file, Member: name, Reason: reasonNoInheritDoc})
			}
		}
	}
	return resp
}

func bareInheritDoc(el *markup.Element) bool {
	found := false
	el.Walk(func(e *markup.Element) bool {
		if e.Name == "inheritdoc" {
			if _, ok := e.Attr("cref"); !ok {
				found = true
			}
		}
		return !found
	})
	return found
}

// hasInheritSource reports whether ref has something to inherit docs from:
// a base or interface for types, an origin, override or implementation for
// members.
func hasInheritSource(r *xref.Resolver, ref xref.CrossReference) bool {
	if ref.IsMember() {
		m, ok := r.MemberOf(ref)
		if !ok {
			return false
		}
		_, ok = xref.InheritDocFrom(m)
		return ok
	}
	t, ok := r.Registry().Type(ref.ResolvedTypeID)
	if !ok {
		return false
	}
	return t.Base != nil || len(t.Interfaces) > 0
}

func unresolvedError(resp *CheckResponseCLI) error {
	if len(resp.Unresolved) == 0 {
		return nil
	}
	return fmt.Errorf("%d documentation problem(s) found", len(resp.Unresolved))
}

