// Package canonical computes canonical IDs for types and members.
//
// A canonical ID is a deterministic string that encodes a declaration's full
// signature, including generic arity, parameter types and conversion return
// types. Equal IDs denote the same entity, so IDs are used as registry keys
// and as cross-reference targets.
package canonical

import (
	"fmt"
	"strings"

	apierrors "apidoc/internal/errors"
	"apidoc/internal/metadata"
)

// Entry is the canonical identity of a type or member.
type Entry struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Kind        string `json:"kind"`
}

// TypeID computes the canonical entry of a type definition:
// namespace.Name, plus `N when the type declares N generic parameters.
func TypeID(t *metadata.TypeDescriptor) (Entry, error) {
	if strings.TrimSpace(t.Name) == "" {
		return Entry{}, apierrors.Newf(apierrors.InvalidDescriptor, "type has no name").WithSubject(t.Namespace)
	}
	return Entry{
		ID:          DefinitionID(t.Namespace, t.Name, len(t.TypeParameters)),
		DisplayName: t.Name + displayParams(t.TypeParameters),
		Kind:        string(t.Kind),
	}, nil
}

// DefinitionID is the ID of an open type definition.
func DefinitionID(namespace, name string, arity int) string {
	id := name
	if namespace != "" {
		id = namespace + "." + name
	}
	if arity > 0 {
		id += fmt.Sprintf("`%d", arity)
	}
	return id
}

// RefDefinitionID returns the ID of the definition a named reference points
// at, discarding its generic arguments: List{System.Int32} -> List`1.
func RefDefinitionID(ref metadata.TypeRef) string {
	base, _, _ := splitMarkers(ref.Name)
	arity := len(ref.Arguments)
	if b, n, ok := metadata.SplitArity(base); ok {
		base = b
		if arity == 0 {
			arity = n
		}
	}
	return DefinitionID(ref.Namespace, base, arity)
}

// TypeContext is the generic context of a type's own declarations.
func TypeContext(t *metadata.TypeDescriptor) *Context {
	return NewTypeContext(t.TypeParameters)
}

// MemberID computes the canonical entry of a member. ctx is the generic
// context of the type whose view of the member is being encoded; the
// member's own generic parameters are added to it here.
func MemberID(m *metadata.MemberDescriptor, ctx *Context, owner string) (Entry, error) {
	mctx := ctx.WithMethod(m.TypeParameters)

	name, err := memberName(m, mctx)
	if err != nil {
		return Entry{}, err
	}
	id := name
	if n := len(m.TypeParameters); n > 0 {
		id += fmt.Sprintf("``%d", n)
	}
	if len(m.Parameters) > 0 {
		params, err := encodeParameters(m.Parameters, mctx)
		if err != nil {
			return Entry{}, fmt.Errorf("%s: %w", id, err)
		}
		id += "(" + params + ")"
	}
	if isConversion(name) {
		if m.ReturnType == nil {
			return Entry{}, apierrors.Newf(apierrors.InvalidDescriptor, "conversion operator has no return type").WithSubject(owner + "." + id)
		}
		ret, err := EncodeRef(*m.ReturnType, mctx)
		if err != nil {
			return Entry{}, fmt.Errorf("%s: %w", id, err)
		}
		id += "~" + ret
	}

	return Entry{ID: id, DisplayName: MemberDisplay(m, owner), Kind: string(m.Kind)}, nil
}

func memberName(m *metadata.MemberDescriptor, ctx *Context) (string, error) {
	var name string
	switch m.Kind {
	case metadata.MemberConstructor:
		if m.Static {
			return "#cctor", nil
		}
		return "#ctor", nil
	case metadata.MemberIndexer:
		name = "Item"
	case metadata.MemberOperator:
		op, err := OperatorName(m.Operator, m.Name, len(m.Parameters))
		if err != nil {
			return "", err
		}
		name = op
	default:
		name = m.Name
		if m.ExplicitInterface != nil {
			// Reflection names explicit implementations "N.IFoo.M".
			if i := strings.LastIndex(name, "."); i >= 0 {
				name = name[i+1:]
			}
		}
	}
	if name == "" {
		return "", apierrors.Newf(apierrors.InvalidDescriptor, "%s has no name", m.Kind)
	}

	if m.ExplicitInterface != nil {
		iface, err := EncodeRef(*m.ExplicitInterface, ctx)
		if err != nil {
			return "", err
		}
		name = strings.ReplaceAll(iface, ".", "#") + "#" + name
	}
	return name, nil
}

func encodeParameters(params []metadata.Parameter, ctx *Context) (string, error) {
	parts := make([]string, len(params))
	for i, p := range params {
		enc, err := EncodeRef(p.Type, ctx)
		if err != nil {
			return "", fmt.Errorf("parameter %q: %w", p.Name, err)
		}
		if p.ByRef != metadata.ByValue && !strings.HasSuffix(enc, "@") {
			enc += "@"
		}
		parts[i] = enc
	}
	return strings.Join(parts, ","), nil
}

// EncodeRef encodes a type reference as it appears inside a signature.
func EncodeRef(ref metadata.TypeRef, ctx *Context) (string, error) {
	switch ref.Kind {
	case metadata.RefArray:
		if ref.Element == nil {
			return "", apierrors.Newf(apierrors.InvalidDescriptor, "array reference has no element type")
		}
		elem, err := EncodeRef(*ref.Element, ctx)
		if err != nil {
			return "", err
		}
		return elem + arraySuffix(ref.Rank), nil

	case metadata.RefPointer:
		if ref.Element == nil {
			return "", apierrors.Newf(apierrors.InvalidDescriptor, "pointer reference has no element type")
		}
		elem, err := EncodeRef(*ref.Element, ctx)
		if err != nil {
			return "", err
		}
		return elem + "*", nil

	case metadata.RefGenericParameter:
		base, suffix, err := splitMarkers(ref.Name)
		if err != nil {
			return "", err
		}
		b, ok := ctx.Lookup(base)
		if !ok {
			return "", missingBinding(base)
		}
		enc, err := ctx.encodeBinding(b)
		if err != nil {
			return "", err
		}
		return enc + suffix, nil

	case metadata.RefNamed:
		return encodeNamed(ref, ctx)
	}
	return "", apierrors.Newf(apierrors.InvalidDescriptor, "unknown type reference kind %q", ref.Kind)
}

func encodeNamed(ref metadata.TypeRef, ctx *Context) (string, error) {
	base, suffix, err := splitMarkers(ref.Name)
	if err != nil {
		return "", err
	}
	if base == "" {
		return "", apierrors.Newf(apierrors.InvalidDescriptor, "type reference has no name")
	}

	// Reflection hands generic parameters out as bare names ("T", "T[]").
	if ref.Namespace == "" && len(ref.Arguments) == 0 {
		if b, ok := ctx.Lookup(base); ok {
			enc, err := ctx.encodeBinding(b)
			if err != nil {
				return "", err
			}
			return enc + suffix, nil
		}
	}

	name, arity, hasArity := metadata.SplitArity(base)
	if len(ref.Arguments) == 0 {
		if hasArity {
			return DefinitionID(ref.Namespace, name, arity) + suffix, nil
		}
		return DefinitionID(ref.Namespace, base, 0) + suffix, nil
	}
	if hasArity && arity != len(ref.Arguments) {
		return "", apierrors.Newf(apierrors.InvalidDescriptor, "%s closed over %d arguments", base, len(ref.Arguments))
	}

	args := make([]string, len(ref.Arguments))
	for i, a := range ref.Arguments {
		enc, err := EncodeRef(a, ctx)
		if err != nil {
			return "", err
		}
		args[i] = enc
	}
	return DefinitionID(ref.Namespace, name, 0) + "{" + strings.Join(args, ",") + "}" + suffix, nil
}

func arraySuffix(rank int) string {
	if rank <= 1 {
		return "[]"
	}
	return "[" + strings.TrimSuffix(strings.Repeat("0:,", rank), ",") + "]"
}

// splitMarkers splits reflection-style trailing markers off a name and
// returns them in encoded form: "T[]" -> ("T", "[]"), "Int32[,]" ->
// ("Int32", "[0:,0:]"), "Byte*&" -> ("Byte", "*@").
func splitMarkers(name string) (string, string, error) {
	end := len(name)
	var parts []string
loop:
	for end > 0 {
		switch name[end-1] {
		case '&':
			parts = append(parts, "@")
			end--
		case '*':
			parts = append(parts, "*")
			end--
		case ']':
			open := strings.LastIndexByte(name[:end], '[')
			if open < 0 {
				return "", "", apierrors.Newf(apierrors.InvalidDescriptor, "unbalanced array marker in %q", name)
			}
			inner := name[open+1 : end-1]
			if strings.Trim(inner, ",") != "" {
				return "", "", apierrors.Newf(apierrors.InvalidDescriptor, "malformed array marker in %q", name)
			}
			parts = append(parts, arraySuffix(len(inner)+1))
			end = open
		default:
			break loop
		}
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(parts[i])
	}
	return name[:end], b.String(), nil
}
