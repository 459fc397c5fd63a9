package xref

import (
	"strings"

	"apidoc/internal/markup"
	"apidoc/internal/metadata"
	"apidoc/internal/registry"
)

// ResolveTree resolves every cref attribute in the markup tree, in document
// order. see, seealso, exception, permission and inheritdoc carry crefs in
// practice, but any element's cref is honored.
func (r *Resolver) ResolveTree(root *markup.Element) []CrossReference {
	var out []CrossReference
	if root == nil {
		return out
	}
	root.Walk(func(el *markup.Element) bool {
		if cref, ok := el.Attr("cref"); ok {
			out = append(out, r.Resolve(cref))
		}
		return true
	})
	return out
}

// Link is a presentable link target for a renderer.
type Link struct {
	CrossReference
	Href string `json:"href,omitempty"`
	Text string `json:"text"`
}

// Links resolves the crefs of a tree into presentable targets. The link
// text is the element's own text when it has any, then the display name of
// the target, then the raw reference without its prefix.
func (r *Resolver) Links(root *markup.Element) []Link {
	var out []Link
	if root == nil {
		return out
	}
	root.Walk(func(el *markup.Element) bool {
		cref, ok := el.Attr("cref")
		if !ok {
			return true
		}
		ref := r.Resolve(cref)
		link := Link{CrossReference: ref, Text: el.Text()}
		if ref.Resolved() {
			link.Href = Href(ref)
		}
		if link.Text == "" {
			link.Text = r.DisplayText(ref)
		}
		out = append(out, link)
		return true
	})
	return out
}

// DisplayText is the text a renderer shows for ref when the source gives
// none: the display name of the target, else the raw reference without its
// prefix.
func (r *Resolver) DisplayText(ref CrossReference) string {
	if ref.IsMember() {
		if m, ok := r.MemberOf(ref); ok {
			return m.DisplayName
		}
	}
	if ref.ResolvedTypeID != "" {
		if t, ok := r.reg.Type(ref.ResolvedTypeID); ok {
			return t.DisplayName
		}
	}
	if ref.Namespace != "" && ref.Kind == KindNamespace {
		return ref.Namespace
	}
	_, payload := splitPrefix(strings.TrimSpace(ref.RawText))
	return payload
}

// Href derives a relative page address from a resolved reference: one page
// per type, members as fragments, namespaces as index pages.
func Href(ref CrossReference) string {
	if ref.ResolvedTypeID == "" {
		if ref.Namespace != "" {
			return pageName(ref.Namespace) + "/index.html"
		}
		return ""
	}
	href := pageName(ref.ResolvedTypeID) + ".html"
	if ref.ResolvedMemberID != "" {
		href += "#" + pageName(ref.ResolvedMemberID)
	}
	return href
}

// pageName maps an ID to a file-system and URL safe name.
func pageName(id string) string {
	var b strings.Builder
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '.', c == '_', c == '-':
			b.WriteRune(c)
		case c == '`':
			b.WriteByte('-')
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// MemberOf returns the member a resolved reference points at, looked up
// within the class its prefix names.
func (r *Resolver) MemberOf(ref CrossReference) (*registry.Member, bool) {
	if !ref.IsMember() {
		return nil, false
	}
	switch ref.Kind {
	case KindMethod, KindProperty, KindField, KindEvent:
		return r.reg.MemberOfClass(ref.ResolvedTypeID, metadata.MemberClass(ref.Kind), ref.ResolvedMemberID)
	}
	return r.reg.Member(ref.ResolvedTypeID, ref.ResolvedMemberID)
}

// InheritDocSource returns the member whose documentation an <inheritdoc/>
// on ref should copy. See InheritDocFrom.
func (r *Resolver) InheritDocSource(ref registry.MemberRef) (registry.MemberRef, bool) {
	m, ok := r.reg.MemberByRef(ref)
	if !ok {
		return registry.MemberRef{}, false
	}
	return InheritDocFrom(m)
}

// InheritDocFrom returns the declaration an inherited member came from,
// then the overridden member, then the first implemented interface member.
// The source has the same member class as m.
func InheritDocFrom(m *registry.Member) (registry.MemberRef, bool) {
	switch {
	case m.Inherited:
		return m.OriginRef(), true
	case m.Overrides != nil:
		return *m.Overrides, true
	case len(m.Implements) > 0:
		return m.Implements[0], true
	}
	return registry.MemberRef{}, false
}

// Unresolved filters the references that did not resolve.
func Unresolved(refs []CrossReference) []CrossReference {
	var out []CrossReference
	for _, ref := range refs {
		if !ref.Resolved() {
			out = append(out, ref)
		}
	}
	return out
}
