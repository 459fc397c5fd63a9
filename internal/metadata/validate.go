package metadata

import (
	"fmt"
	"strconv"
	"strings"

	apierrors "apidoc/internal/errors"
)

// Normalize canonicalizes spellings in place: accessibility keywords,
// reflection arity suffixes on type names and missing generic ordinals.
// It is applied by the loader before descriptors are handed out.
func Normalize(t *TypeDescriptor) error {
	acc, ok := ParseAccessibility(string(t.Accessibility))
	if !ok {
		return invalid(t.FullName(), "unknown accessibility %q", t.Accessibility)
	}
	t.Accessibility = acc

	if base, arity, ok := SplitArity(t.Name); ok {
		if len(t.TypeParameters) == 0 {
			return invalid(t.FullName(), "name declares arity %d but the type has no generic parameters", arity)
		}
		if arity != len(t.TypeParameters) {
			return invalid(t.FullName(), "name declares arity %d but %d generic parameters are listed", arity, len(t.TypeParameters))
		}
		t.Name = base
	}
	fillOrdinals(t.TypeParameters)

	for i := range t.Members {
		if err := normalizeMember(t, &t.Members[i]); err != nil {
			return err
		}
	}
	if t.Invoke != nil {
		if err := normalizeMember(t, t.Invoke); err != nil {
			return err
		}
	}
	return nil
}

func normalizeMember(t *TypeDescriptor, m *MemberDescriptor) error {
	for _, field := range []*Accessibility{&m.Accessibility, &m.Getter, &m.Setter} {
		acc, ok := ParseAccessibility(string(*field))
		if !ok {
			return invalid(t.FullName()+"."+m.Name, "unknown accessibility %q", *field)
		}
		*field = acc
	}
	if base, _, ok := SplitArity(m.Name); ok && len(m.TypeParameters) > 0 {
		m.Name = base
	}
	fillOrdinals(m.TypeParameters)
	return nil
}

// fillOrdinals assigns positional ordinals when a provider left them all zero.
func fillOrdinals(params []GenericParameter) {
	for i := range params {
		if params[i].Ordinal != 0 {
			return
		}
	}
	for i := range params {
		params[i].Ordinal = i
	}
}

// Validate checks a normalized type descriptor for shape errors. These are
// contract violations by the provider and fail the run.
func Validate(t *TypeDescriptor) error {
	subject := t.FullName()
	if strings.TrimSpace(t.Name) == "" {
		return invalid(subject, "type has no name")
	}
	switch t.Kind {
	case KindClass, KindStruct, KindInterface, KindEnum, KindDelegate:
	default:
		return invalid(subject, "unknown type kind %q", t.Kind)
	}
	if err := validateGenericParameters(subject, t.TypeParameters); err != nil {
		return err
	}
	if t.Kind == KindInterface && t.BaseType != nil {
		return invalid(subject, "interfaces cannot declare a base type")
	}

	for i := range t.Members {
		if err := validateMember(t, &t.Members[i]); err != nil {
			return err
		}
	}
	if t.Invoke != nil {
		if t.Kind != KindDelegate {
			return invalid(subject, "only delegates carry an invoke signature")
		}
		if err := validateMember(t, t.Invoke); err != nil {
			return err
		}
	}
	return nil
}

func validateMember(t *TypeDescriptor, m *MemberDescriptor) error {
	subject := t.FullName() + "." + m.Name
	switch m.Kind {
	case MemberField, MemberProperty, MemberIndexer, MemberMethod, MemberOperator, MemberEvent, MemberConstructor:
	default:
		return invalid(subject, "unknown member kind %q", m.Kind)
	}
	if m.Kind != MemberConstructor && m.Kind != MemberIndexer && strings.TrimSpace(m.Name) == "" {
		if m.Kind != MemberOperator || m.Operator == "" {
			return invalid(t.FullName(), "%s has no name", m.Kind)
		}
	}
	if m.Kind == MemberIndexer && len(m.Parameters) == 0 {
		return invalid(subject, "indexer declares no parameters")
	}
	if m.Kind == MemberOperator && m.Operator == "" && !strings.HasPrefix(m.Name, "op_") {
		return apierrors.Newf(apierrors.UnknownOperator, "operator has neither a symbol nor a reserved name").WithSubject(subject)
	}
	if len(m.TypeParameters) > 0 && m.Kind != MemberMethod {
		return invalid(subject, "only methods declare generic parameters, %s has %d", m.Kind, len(m.TypeParameters))
	}
	if err := validateGenericParameters(subject, m.TypeParameters); err != nil {
		return err
	}
	for i, p := range m.Parameters {
		if p.ExtensionReceiver && (i != 0 || !m.Static) {
			return invalid(subject, "extension receiver %q must be the first parameter of a static method", p.Name)
		}
	}
	return nil
}

func validateGenericParameters(subject string, params []GenericParameter) error {
	seen := make(map[string]bool, len(params))
	for i, gp := range params {
		if gp.Name == "" {
			return invalid(subject, "generic parameter %d has no name", i)
		}
		if gp.Ordinal != i {
			return invalid(subject, "generic parameter %q has ordinal %d, want %d", gp.Name, gp.Ordinal, i)
		}
		if seen[gp.Name] {
			return invalid(subject, "generic parameter %q declared twice", gp.Name)
		}
		seen[gp.Name] = true
	}
	return nil
}

// SplitArity splits a reflection arity suffix: "List`1" -> ("List", 1, true).
// Method arity ("M``2") is accepted as well.
func SplitArity(name string) (string, int, bool) {
	idx := strings.Index(name, "`")
	if idx <= 0 {
		return name, 0, false
	}
	digits := strings.TrimLeft(name[idx:], "`")
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return name, 0, false
	}
	return name[:idx], n, true
}

func invalid(subject, format string, args ...interface{}) error {
	return apierrors.New(apierrors.InvalidDescriptor, fmt.Sprintf(format, args...), nil).WithSubject(subject)
}
