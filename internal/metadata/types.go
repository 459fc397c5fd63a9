// Package metadata defines the structural descriptors produced by the
// metadata provider: declared types, their members, signatures, generic
// parameters and custom-attribute data. Descriptors are read-only once loaded.
package metadata

import "strings"

// Accessibility is the declared visibility of a type or member.
type Accessibility string

const (
	NotApplicable     Accessibility = ""
	Private           Accessibility = "private"
	PrivateProtected  Accessibility = "private protected"
	Protected         Accessibility = "protected"
	Internal          Accessibility = "internal"
	ProtectedInternal Accessibility = "protected internal"
	Public            Accessibility = "public"
)

var accessibilityRank = map[Accessibility]int{
	NotApplicable:     0,
	Private:           1,
	PrivateProtected:  2,
	Protected:         3,
	Internal:          4,
	ProtectedInternal: 5,
	Public:            6,
}

// Rank orders accessibilities from most restrictive to least restrictive.
func (a Accessibility) Rank() int {
	return accessibilityRank[a]
}

// AtLeast reports whether a is at least as visible as min.
func (a Accessibility) AtLeast(min Accessibility) bool {
	return a.Rank() >= min.Rank()
}

// ParseAccessibility accepts the keyword spellings and the camel-case
// reflection spellings ("ProtectedOrInternal", "FamANDAssem", ...).
func ParseAccessibility(s string) (Accessibility, bool) {
	key := strings.ToLower(strings.Join(strings.Fields(s), ""))
	switch key {
	case "", "notapplicable":
		return NotApplicable, true
	case "private":
		return Private, true
	case "privateprotected", "protectedandinternal", "famandassem":
		return PrivateProtected, true
	case "protected", "family":
		return Protected, true
	case "internal", "assembly":
		return Internal, true
	case "protectedinternal", "protectedorinternal", "famorassem":
		return ProtectedInternal, true
	case "public":
		return Public, true
	}
	return NotApplicable, false
}

// TypeKind is the declared kind of a type.
type TypeKind string

const (
	KindClass     TypeKind = "class"
	KindStruct    TypeKind = "struct"
	KindInterface TypeKind = "interface"
	KindEnum      TypeKind = "enum"
	KindDelegate  TypeKind = "delegate"
)

// MemberKind tags the member variant. Algorithms switch on it instead of
// dispatching through a member hierarchy.
type MemberKind string

const (
	MemberField       MemberKind = "field"
	MemberProperty    MemberKind = "property"
	MemberIndexer     MemberKind = "indexer"
	MemberMethod      MemberKind = "method"
	MemberOperator    MemberKind = "operator"
	MemberEvent       MemberKind = "event"
	MemberConstructor MemberKind = "constructor"
)

// MemberClass groups member kinds by cross-reference prefix. Members of
// different classes never hide each other, even when their IDs are equal
// (property Foo and method Foo()).
type MemberClass string

const (
	ClassMethod   MemberClass = "M"
	ClassProperty MemberClass = "P"
	ClassField    MemberClass = "F"
	ClassEvent    MemberClass = "E"
)

// Class returns the member class of k. Constructors and operators are
// methods, indexers are properties.
func (k MemberKind) Class() MemberClass {
	switch k {
	case MemberProperty, MemberIndexer:
		return ClassProperty
	case MemberField:
		return ClassField
	case MemberEvent:
		return ClassEvent
	}
	return ClassMethod
}

// Variance of a generic parameter.
type Variance string

const (
	Invariant     Variance = ""
	Covariant     Variance = "out"
	Contravariant Variance = "in"
)

// ByRefKind describes how a parameter is passed.
type ByRefKind string

const (
	ByValue ByRefKind = ""
	ByIn    ByRefKind = "in"
	ByOut   ByRefKind = "out"
	ByRef   ByRefKind = "ref"
)

// TypeRefKind distinguishes the shapes a type reference can take.
type TypeRefKind string

const (
	RefNamed            TypeRefKind = ""
	RefArray            TypeRefKind = "array"
	RefPointer          TypeRefKind = "pointer"
	RefGenericParameter TypeRefKind = "generic-parameter"
)

// TypeRef is a reference to a type as it appears in a signature, a base type
// list or an explicit implementation target.
//
// Named references may carry reflection-style markers in Name ("T[]",
// "Int32*", "T&", "List`1"); the canonicalizer splits them off before any
// generic parameter lookup.
type TypeRef struct {
	Kind      TypeRefKind `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Namespace string      `json:"namespace,omitempty" yaml:"namespace,omitempty" toml:"namespace,omitempty"`
	Name      string      `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	Arguments []TypeRef   `json:"arguments,omitempty" yaml:"arguments,omitempty" toml:"arguments,omitempty"`
	Element   *TypeRef    `json:"element,omitempty" yaml:"element,omitempty" toml:"element,omitempty"`
	Rank      int         `json:"rank,omitempty" yaml:"rank,omitempty" toml:"rank,omitempty"`
}

// Named builds a reference to a named type, optionally closed over arguments.
func Named(namespace, name string, args ...TypeRef) TypeRef {
	return TypeRef{Namespace: namespace, Name: name, Arguments: args}
}

// GenericParam builds a reference to a generic parameter by name.
func GenericParam(name string) TypeRef {
	return TypeRef{Kind: RefGenericParameter, Name: name}
}

// ArrayOf builds an array reference; rank 0 is treated as 1.
func ArrayOf(elem TypeRef, rank int) TypeRef {
	if rank < 1 {
		rank = 1
	}
	return TypeRef{Kind: RefArray, Element: &elem, Rank: rank}
}

// PointerTo builds a pointer reference.
func PointerTo(elem TypeRef) TypeRef {
	return TypeRef{Kind: RefPointer, Element: &elem}
}

// FullName returns namespace-qualified name of a named reference.
func (r TypeRef) FullName() string {
	if r.Namespace == "" {
		return r.Name
	}
	return r.Namespace + "." + r.Name
}

// GenericParameter is a declared type or method generic parameter.
type GenericParameter struct {
	Name        string    `json:"name" yaml:"name" toml:"name"`
	Ordinal     int       `json:"ordinal" yaml:"ordinal" toml:"ordinal"`
	Variance    Variance  `json:"variance,omitempty" yaml:"variance,omitempty" toml:"variance,omitempty"`
	Constraints []TypeRef `json:"constraints,omitempty" yaml:"constraints,omitempty" toml:"constraints,omitempty"`
}

// Parameter is a method, indexer, operator or constructor parameter.
type Parameter struct {
	Name              string    `json:"name" yaml:"name" toml:"name"`
	Type              TypeRef   `json:"type" yaml:"type" toml:"type"`
	ByRef             ByRefKind `json:"byRef,omitempty" yaml:"byRef,omitempty" toml:"byRef,omitempty"`
	Optional          bool      `json:"optional,omitempty" yaml:"optional,omitempty" toml:"optional,omitempty"`
	Default           string    `json:"default,omitempty" yaml:"default,omitempty" toml:"default,omitempty"`
	Params            bool      `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
	ExtensionReceiver bool      `json:"extensionReceiver,omitempty" yaml:"extensionReceiver,omitempty" toml:"extensionReceiver,omitempty"`
}

// Attribute is custom-attribute data attached to a type or member.
type Attribute struct {
	Type      TypeRef           `json:"type" yaml:"type" toml:"type"`
	Arguments []string          `json:"arguments,omitempty" yaml:"arguments,omitempty" toml:"arguments,omitempty"`
	Named     map[string]string `json:"named,omitempty" yaml:"named,omitempty" toml:"named,omitempty"`
}

// MemberDescriptor describes one declared member.
type MemberDescriptor struct {
	Kind          MemberKind    `json:"kind" yaml:"kind" toml:"kind"`
	Name          string        `json:"name" yaml:"name" toml:"name"`
	Accessibility Accessibility `json:"accessibility" yaml:"accessibility" toml:"accessibility"`

	Static   bool `json:"static,omitempty" yaml:"static,omitempty" toml:"static,omitempty"`
	Abstract bool `json:"abstract,omitempty" yaml:"abstract,omitempty" toml:"abstract,omitempty"`
	Virtual  bool `json:"virtual,omitempty" yaml:"virtual,omitempty" toml:"virtual,omitempty"`
	Override bool `json:"override,omitempty" yaml:"override,omitempty" toml:"override,omitempty"`
	Sealed   bool `json:"sealed,omitempty" yaml:"sealed,omitempty" toml:"sealed,omitempty"`
	Async    bool `json:"async,omitempty" yaml:"async,omitempty" toml:"async,omitempty"`
	New      bool `json:"new,omitempty" yaml:"new,omitempty" toml:"new,omitempty"`
	ReadOnly bool `json:"readOnly,omitempty" yaml:"readOnly,omitempty" toml:"readOnly,omitempty"`
	Const    bool `json:"const,omitempty" yaml:"const,omitempty" toml:"const,omitempty"`

	Parameters     []Parameter        `json:"parameters,omitempty" yaml:"parameters,omitempty" toml:"parameters,omitempty"`
	TypeParameters []GenericParameter `json:"typeParameters,omitempty" yaml:"typeParameters,omitempty" toml:"typeParameters,omitempty"`
	ReturnType     *TypeRef           `json:"returnType,omitempty" yaml:"returnType,omitempty" toml:"returnType,omitempty"`

	// ExplicitInterface is set when the member explicitly implements a member
	// of this interface; Name is then the interface member's simple name.
	ExplicitInterface *TypeRef `json:"explicitInterface,omitempty" yaml:"explicitInterface,omitempty" toml:"explicitInterface,omitempty"`

	// Operator is the operator identity: a symbol ("+", "==", "implicit")
	// or a reserved name ("op_Addition").
	Operator string `json:"operator,omitempty" yaml:"operator,omitempty" toml:"operator,omitempty"`

	// Getter and Setter carry accessor accessibility for properties and
	// indexers; NotApplicable means the accessor is absent.
	Getter Accessibility `json:"getter,omitempty" yaml:"getter,omitempty" toml:"getter,omitempty"`
	Setter Accessibility `json:"setter,omitempty" yaml:"setter,omitempty" toml:"setter,omitempty"`

	Value      string      `json:"value,omitempty" yaml:"value,omitempty" toml:"value,omitempty"`
	Attributes []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty" toml:"attributes,omitempty"`
}

// IsOverridable reports whether the member can be the target of an override.
func (m *MemberDescriptor) IsOverridable() bool {
	return m.Virtual || m.Abstract || m.Override
}

// IsExplicitImplementation reports whether the member explicitly implements an interface member.
func (m *MemberDescriptor) IsExplicitImplementation() bool {
	return m.ExplicitInterface != nil
}

// TypeDescriptor describes one declared type.
type TypeDescriptor struct {
	Assembly       string             `json:"assembly,omitempty" yaml:"assembly,omitempty" toml:"assembly,omitempty"`
	Namespace      string             `json:"namespace" yaml:"namespace" toml:"namespace"`
	Name           string             `json:"name" yaml:"name" toml:"name"`
	Kind           TypeKind           `json:"kind" yaml:"kind" toml:"kind"`
	Accessibility  Accessibility      `json:"accessibility" yaml:"accessibility" toml:"accessibility"`
	TypeParameters []GenericParameter `json:"typeParameters,omitempty" yaml:"typeParameters,omitempty" toml:"typeParameters,omitempty"`
	BaseType       *TypeRef           `json:"baseType,omitempty" yaml:"baseType,omitempty" toml:"baseType,omitempty"`
	Interfaces     []TypeRef          `json:"interfaces,omitempty" yaml:"interfaces,omitempty" toml:"interfaces,omitempty"`

	Static   bool `json:"static,omitempty" yaml:"static,omitempty" toml:"static,omitempty"`
	Abstract bool `json:"abstract,omitempty" yaml:"abstract,omitempty" toml:"abstract,omitempty"`
	Sealed   bool `json:"sealed,omitempty" yaml:"sealed,omitempty" toml:"sealed,omitempty"`

	Members []MemberDescriptor `json:"members,omitempty" yaml:"members,omitempty" toml:"members,omitempty"`

	// Invoke is the delegate signature; only meaningful for delegates.
	Invoke *MemberDescriptor `json:"invoke,omitempty" yaml:"invoke,omitempty" toml:"invoke,omitempty"`

	Attributes []Attribute `json:"attributes,omitempty" yaml:"attributes,omitempty" toml:"attributes,omitempty"`
}

// FullName returns the namespace-qualified type name without arity.
func (t *TypeDescriptor) FullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return t.Namespace + "." + t.Name
}

// Ref returns the open self-reference of the type, with its own generic
// parameters as arguments.
func (t *TypeDescriptor) Ref() TypeRef {
	ref := TypeRef{Namespace: t.Namespace, Name: t.Name}
	for _, gp := range t.TypeParameters {
		ref.Arguments = append(ref.Arguments, GenericParam(gp.Name))
	}
	return ref
}

// Assembly is the content of one descriptor file.
type Assembly struct {
	Name  string           `json:"name" yaml:"name" toml:"name"`
	Types []TypeDescriptor `json:"types" yaml:"types" toml:"types"`
}
