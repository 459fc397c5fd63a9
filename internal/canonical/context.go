package canonical

import (
	"fmt"

	apierrors "apidoc/internal/errors"
	"apidoc/internal/metadata"
)

// Scope is the binding scope of a generic parameter.
type Scope int

const (
	// TypeScope parameters encode as `i.
	TypeScope Scope = iota
	// MethodScope parameters encode as ``j.
	MethodScope
)

// Binding is what a generic parameter name resolves to inside a Context.
type Binding struct {
	Name    string
	Ordinal int
	Scope   Scope

	// Arg, when set, replaces the parameter: the parameter belongs to a
	// closed generic ancestor and Arg is the argument supplied by the
	// descendant, to be encoded in ArgContext.
	Arg        *metadata.TypeRef
	ArgContext *Context
}

// Context is the ordered name -> (ordinal, scope) mapping the canonicalizer
// needs to emit back-references instead of parameter names. Contexts are
// immutable; the With* methods return extended copies.
type Context struct {
	typeParams   []Binding
	methodParams []Binding
}

// NewTypeContext creates a context for the generic parameters declared by a type.
func NewTypeContext(params []metadata.GenericParameter) *Context {
	c := &Context{typeParams: make([]Binding, len(params))}
	for i, gp := range params {
		c.typeParams[i] = Binding{Name: gp.Name, Ordinal: gp.Ordinal, Scope: TypeScope}
	}
	return c
}

// WithMethod returns a context that adds method-level generic parameters.
// Method-level names shadow type-level names.
func (c *Context) WithMethod(params []metadata.GenericParameter) *Context {
	if len(params) == 0 {
		return c
	}
	out := &Context{}
	if c != nil {
		out.typeParams = c.typeParams
	}
	out.methodParams = make([]Binding, len(params))
	for i, gp := range params {
		out.methodParams[i] = Binding{Name: gp.Name, Ordinal: gp.Ordinal, Scope: MethodScope}
	}
	return out
}

// Substitute binds the type-level parameters positionally to args, which
// are expressed in argCtx (the context of the type that supplied them).
// It is how a closed generic ancestor's member signatures are seen from a
// descendant.
func (c *Context) Substitute(args []metadata.TypeRef, argCtx *Context) (*Context, error) {
	if c == nil || len(c.typeParams) == 0 {
		if len(args) > 0 {
			return nil, fmt.Errorf("%d type arguments supplied to a non-generic type", len(args))
		}
		return c, nil
	}
	if len(args) == 0 {
		return c, nil
	}
	if len(args) != len(c.typeParams) {
		return nil, fmt.Errorf("%d type arguments supplied for %d generic parameters", len(args), len(c.typeParams))
	}

	out := &Context{methodParams: c.methodParams, typeParams: make([]Binding, len(c.typeParams))}
	for i, b := range c.typeParams {
		arg := args[i]
		b.Arg = &arg
		b.ArgContext = argCtx
		out.typeParams[i] = b
	}
	return out, nil
}

// Lookup resolves a generic parameter name, method scope first.
func (c *Context) Lookup(name string) (Binding, bool) {
	if c == nil {
		return Binding{}, false
	}
	for _, b := range c.methodParams {
		if b.Name == name {
			return b, true
		}
	}
	for _, b := range c.typeParams {
		if b.Name == name {
			return b, true
		}
	}
	return Binding{}, false
}

// TypeArity is the number of type-level parameters in scope.
func (c *Context) TypeArity() int {
	if c == nil {
		return 0
	}
	return len(c.typeParams)
}

func (c *Context) encodeBinding(b Binding) (string, error) {
	if b.Arg != nil {
		return EncodeRef(*b.Arg, b.ArgContext)
	}
	if b.Scope == MethodScope {
		return fmt.Sprintf("``%d", b.Ordinal), nil
	}
	return fmt.Sprintf("`%d", b.Ordinal), nil
}

func missingBinding(name string) error {
	return apierrors.Newf(apierrors.GenericBindingMissing, "generic parameter %q has no binding in scope", name)
}
