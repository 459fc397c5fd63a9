package canonical

import (
	"strings"

	"apidoc/internal/metadata"
)

// DisplayRef renders a type reference the way a reader writes it:
// List<Int32>, T[], Byte*.
func DisplayRef(ref metadata.TypeRef) string {
	switch ref.Kind {
	case metadata.RefArray:
		if ref.Element == nil {
			return "[]"
		}
		rank := ref.Rank
		if rank < 1 {
			rank = 1
		}
		return DisplayRef(*ref.Element) + "[" + strings.Repeat(",", rank-1) + "]"
	case metadata.RefPointer:
		if ref.Element == nil {
			return "*"
		}
		return DisplayRef(*ref.Element) + "*"
	}

	name := strings.TrimSuffix(ref.Name, "&")
	if base, _, ok := metadata.SplitArity(name); ok {
		name = base
	}
	if len(ref.Arguments) == 0 {
		return name
	}
	args := make([]string, len(ref.Arguments))
	for i, a := range ref.Arguments {
		args[i] = DisplayRef(a)
	}
	return name + "<" + strings.Join(args, ", ") + ">"
}

func displayParams(params []metadata.GenericParameter) string {
	if len(params) == 0 {
		return ""
	}
	names := make([]string, len(params))
	for i, gp := range params {
		names[i] = gp.Name
	}
	return "<" + strings.Join(names, ", ") + ">"
}

func displayParameterList(params []metadata.Parameter) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = DisplayRef(p.Type)
	}
	return strings.Join(parts, ", ")
}

// MemberDisplay renders a member's display name. owner is the short name of
// the declaring type, used for constructors.
func MemberDisplay(m *metadata.MemberDescriptor, owner string) string {
	var prefix string
	if m.ExplicitInterface != nil {
		prefix = DisplayRef(*m.ExplicitInterface) + "."
	}
	params := displayParameterList(m.Parameters)

	switch m.Kind {
	case metadata.MemberConstructor:
		return owner + "(" + params + ")"
	case metadata.MemberIndexer:
		return prefix + "this[" + params + "]"
	case metadata.MemberOperator:
		reserved, err := OperatorName(m.Operator, m.Name, len(m.Parameters))
		if err != nil {
			return m.Name
		}
		sym, _ := OperatorSymbol(reserved)
		if isConversion(reserved) {
			ret := ""
			if m.ReturnType != nil {
				ret = DisplayRef(*m.ReturnType)
			}
			return sym + " operator " + ret + "(" + params + ")"
		}
		return "operator " + sym + "(" + params + ")"
	case metadata.MemberMethod:
		name := m.Name
		if i := strings.LastIndex(name, "."); i >= 0 && m.ExplicitInterface != nil {
			name = name[i+1:]
		}
		return prefix + name + displayParams(m.TypeParameters) + "(" + params + ")"
	}

	name := m.Name
	if i := strings.LastIndex(name, "."); i >= 0 && m.ExplicitInterface != nil {
		name = name[i+1:]
	}
	return prefix + name
}
