package canonical

import (
	"testing"

	apierrors "apidoc/internal/errors"
	"apidoc/internal/metadata"
)

var (
	int32Ref  = metadata.Named("System", "Int32")
	stringRef = metadata.Named("System", "String")
)

func param(name string, ref metadata.TypeRef) metadata.Parameter {
	return metadata.Parameter{Name: name, Type: ref}
}

func generics(names ...string) []metadata.GenericParameter {
	out := make([]metadata.GenericParameter, len(names))
	for i, n := range names {
		out[i] = metadata.GenericParameter{Name: n, Ordinal: i}
	}
	return out
}

func TestTypeID(t *testing.T) {
	tests := []struct {
		name        string
		td          metadata.TypeDescriptor
		wantID      string
		wantDisplay string
	}{
		{"plain", metadata.TypeDescriptor{Namespace: "N", Name: "T", Kind: metadata.KindClass}, "N.T", "T"},
		{"generic", metadata.TypeDescriptor{Namespace: "N", Name: "T", Kind: metadata.KindClass, TypeParameters: generics("A")}, "N.T`1", "T<A>"},
		{"two parameters", metadata.TypeDescriptor{Namespace: "System.Collections.Generic", Name: "Dictionary", TypeParameters: generics("TKey", "TValue")}, "System.Collections.Generic.Dictionary`2", "Dictionary<TKey, TValue>"},
		{"global namespace", metadata.TypeDescriptor{Name: "Program"}, "Program", "Program"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TypeID(&tt.td)
			if err != nil {
				t.Fatalf("TypeID() error = %v", err)
			}
			if got.ID != tt.wantID {
				t.Errorf("ID = %q, want %q", got.ID, tt.wantID)
			}
			if got.DisplayName != tt.wantDisplay {
				t.Errorf("DisplayName = %q, want %q", got.DisplayName, tt.wantDisplay)
			}
		})
	}
}

func TestMemberID(t *testing.T) {
	typeCtx := NewTypeContext(generics("T"))
	vRef := metadata.Named("N", "V")

	tests := []struct {
		name string
		m    metadata.MemberDescriptor
		want string
	}{
		{
			name: "no parameters",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "M"},
			want: "M",
		},
		{
			name: "property",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberProperty, Name: "Count"},
			want: "Count",
		},
		{
			name: "named parameters",
			m: metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "M", Parameters: []metadata.Parameter{
				param("a", int32Ref), param("b", stringRef),
			}},
			want: "M(System.Int32,System.String)",
		},
		{
			name: "type generic parameter",
			m: metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "Add", Parameters: []metadata.Parameter{
				param("item", metadata.GenericParam("T")),
			}},
			want: "Add(`0)",
		},
		{
			name: "method generic parameter",
			m: metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "Select", TypeParameters: generics("U"), Parameters: []metadata.Parameter{
				param("u", metadata.GenericParam("U")), param("t", metadata.GenericParam("T")),
			}},
			want: "Select``1(``0,`0)",
		},
		{
			name: "method parameter shadows type parameter",
			m: metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "Shadow", TypeParameters: generics("T"), Parameters: []metadata.Parameter{
				param("t", metadata.GenericParam("T")),
			}},
			want: "Shadow``1(``0)",
		},
		{
			name: "arrays pointers and by-ref",
			m: metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "M", Parameters: []metadata.Parameter{
				param("a", metadata.ArrayOf(int32Ref, 1)),
				param("b", metadata.ArrayOf(int32Ref, 2)),
				param("c", metadata.PointerTo(metadata.Named("System", "Byte"))),
				{Name: "d", Type: int32Ref, ByRef: metadata.ByOut},
			}},
			want: "M(System.Int32[],System.Int32[0:,0:],System.Byte*,System.Int32@)",
		},
		{
			name: "reflection markers",
			m: metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "M", Parameters: []metadata.Parameter{
				param("a", metadata.Named("", "T[]")),
				param("b", metadata.Named("", "T[,]")),
				{Name: "c", Type: metadata.Named("System", "Int32&"), ByRef: metadata.ByRef},
			}},
			want: "M(`0[],`0[0:,0:],System.Int32@)",
		},
		{
			name: "closed generic argument",
			m: metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "AddRange", Parameters: []metadata.Parameter{
				param("items", metadata.Named("System.Collections.Generic", "IEnumerable`1", metadata.GenericParam("T"))),
				param("lookup", metadata.Named("System.Collections.Generic", "Dictionary", int32Ref, stringRef)),
			}},
			want: "AddRange(System.Collections.Generic.IEnumerable{`0},System.Collections.Generic.Dictionary{System.Int32,System.String})",
		},
		{
			name: "constructor",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberConstructor, Parameters: []metadata.Parameter{param("x", int32Ref)}},
			want: "#ctor(System.Int32)",
		},
		{
			name: "static constructor",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberConstructor, Static: true},
			want: "#cctor",
		},
		{
			name: "indexer",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberIndexer, Name: "this[]", Parameters: []metadata.Parameter{param("i", int32Ref)}},
			want: "Item(System.Int32)",
		},
		{
			name: "binary operator symbol",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberOperator, Operator: "+", Static: true, Parameters: []metadata.Parameter{param("a", vRef), param("b", vRef)}},
			want: "op_Addition(N.V,N.V)",
		},
		{
			name: "unary operator symbol",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberOperator, Operator: "-", Static: true, Parameters: []metadata.Parameter{param("a", vRef)}},
			want: "op_UnaryNegation(N.V)",
		},
		{
			name: "reserved operator name",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberOperator, Name: "op_Equality", Static: true, Parameters: []metadata.Parameter{param("a", vRef), param("b", vRef)}},
			want: "op_Equality(N.V,N.V)",
		},
		{
			name: "conversion operator",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberOperator, Operator: "implicit", Static: true, Parameters: []metadata.Parameter{param("v", vRef)}, ReturnType: &int32Ref},
			want: "op_Implicit(N.V)~System.Int32",
		},
		{
			name: "explicit implementation",
			m: metadata.MemberDescriptor{
				Kind:              metadata.MemberMethod,
				Name:              "System.IComparable<N.V>.CompareTo",
				ExplicitInterface: &metadata.TypeRef{Namespace: "System", Name: "IComparable`1", Arguments: []metadata.TypeRef{vRef}},
				Parameters:        []metadata.Parameter{param("other", vRef)},
			},
			want: "System#IComparable{N#V}#CompareTo(N.V)",
		},
		{
			name: "explicit property",
			m: metadata.MemberDescriptor{
				Kind:              metadata.MemberProperty,
				Name:              "Current",
				ExplicitInterface: &metadata.TypeRef{Namespace: "System.Collections", Name: "IEnumerator"},
			},
			want: "System#Collections#IEnumerator#Current",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MemberID(&tt.m, typeCtx, "V")
			if err != nil {
				t.Fatalf("MemberID() error = %v", err)
			}
			if got.ID != tt.want {
				t.Errorf("ID = %q, want %q", got.ID, tt.want)
			}
			if got.Kind != string(tt.m.Kind) {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.m.Kind)
			}
		})
	}
}

func TestMemberIDErrors(t *testing.T) {
	vRef := metadata.Named("N", "V")
	tests := []struct {
		name string
		m    metadata.MemberDescriptor
		code apierrors.ErrorCode
	}{
		{
			name: "unbound generic parameter",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "M", Parameters: []metadata.Parameter{param("x", metadata.GenericParam("X"))}},
			code: apierrors.GenericBindingMissing,
		},
		{
			name: "unknown reserved name",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberOperator, Name: "op_Bogus", Parameters: []metadata.Parameter{param("a", vRef)}},
			code: apierrors.UnknownOperator,
		},
		{
			name: "symbol with wrong arity",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberOperator, Operator: "==", Parameters: []metadata.Parameter{param("a", vRef)}},
			code: apierrors.UnknownOperator,
		},
		{
			name: "conversion without return type",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberOperator, Operator: "explicit", Parameters: []metadata.Parameter{param("a", vRef)}},
			code: apierrors.InvalidDescriptor,
		},
		{
			name: "malformed array marker",
			m:    metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "M", Parameters: []metadata.Parameter{param("x", metadata.Named("System", "Int32]"))}},
			code: apierrors.InvalidDescriptor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MemberID(&tt.m, NewTypeContext(nil), "V")
			if !apierrors.HasCode(err, tt.code) {
				t.Errorf("MemberID() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestSubstitution(t *testing.T) {
	// Base<T> declares M(T) and G<V>(T, V).
	baseParams := generics("T")
	m := metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "M", Parameters: []metadata.Parameter{param("t", metadata.GenericParam("T"))}}
	g := metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "G", TypeParameters: generics("V"), Parameters: []metadata.Parameter{
		param("t", metadata.GenericParam("T")), param("v", metadata.GenericParam("V")),
	}}

	// Derived : Base<Int32>
	derivedCtx := NewTypeContext(nil)
	baseCtx, err := NewTypeContext(baseParams).Substitute([]metadata.TypeRef{int32Ref}, derivedCtx)
	if err != nil {
		t.Fatalf("Substitute() error = %v", err)
	}
	if got, _ := MemberID(&m, baseCtx, "Base"); got.ID != "M(System.Int32)" {
		t.Errorf("substituted M = %q", got.ID)
	}
	if got, _ := MemberID(&g, baseCtx, "Base"); got.ID != "G``1(System.Int32,``0)" {
		t.Errorf("substituted G = %q", got.ID)
	}

	// Leaf : Mid<String>, Mid<U> : Base<List<U>>
	leafCtx := NewTypeContext(nil)
	midCtx, err := NewTypeContext(generics("U")).Substitute([]metadata.TypeRef{stringRef}, leafCtx)
	if err != nil {
		t.Fatalf("Substitute() error = %v", err)
	}
	listOfU := metadata.Named("System.Collections.Generic", "List`1", metadata.GenericParam("U"))
	baseFromLeaf, err := NewTypeContext(baseParams).Substitute([]metadata.TypeRef{listOfU}, midCtx)
	if err != nil {
		t.Fatalf("Substitute() error = %v", err)
	}
	if got, _ := MemberID(&m, baseFromLeaf, "Base"); got.ID != "M(System.Collections.Generic.List{System.String})" {
		t.Errorf("two-level substitution = %q", got.ID)
	}

	// Open generic descendant: Open<X> : Base<X> sees M(`0).
	openCtx := NewTypeContext(generics("X"))
	baseFromOpen, _ := NewTypeContext(baseParams).Substitute([]metadata.TypeRef{metadata.GenericParam("X")}, openCtx)
	if got, _ := MemberID(&m, baseFromOpen, "Base"); got.ID != "M(`0)" {
		t.Errorf("open substitution = %q", got.ID)
	}

	if _, err := NewTypeContext(baseParams).Substitute([]metadata.TypeRef{int32Ref, stringRef}, derivedCtx); err == nil {
		t.Error("Substitute() with wrong argument count should fail")
	}
}

func TestMemberIDUniqueness(t *testing.T) {
	members := []metadata.MemberDescriptor{
		{Kind: metadata.MemberMethod, Name: "M"},
		{Kind: metadata.MemberMethod, Name: "M", Parameters: []metadata.Parameter{param("a", int32Ref)}},
		{Kind: metadata.MemberMethod, Name: "M", Parameters: []metadata.Parameter{param("a", stringRef)}},
		{Kind: metadata.MemberMethod, Name: "M", Parameters: []metadata.Parameter{{Name: "a", Type: int32Ref, ByRef: metadata.ByRef}}},
		{Kind: metadata.MemberMethod, Name: "M", TypeParameters: generics("U"), Parameters: []metadata.Parameter{param("a", metadata.GenericParam("U"))}},
		{Kind: metadata.MemberMethod, Name: "M", Parameters: []metadata.Parameter{param("a", metadata.ArrayOf(int32Ref, 1))}},
		{Kind: metadata.MemberOperator, Operator: "implicit", Static: true, Parameters: []metadata.Parameter{param("v", metadata.Named("N", "V"))}, ReturnType: &int32Ref},
		{Kind: metadata.MemberOperator, Operator: "implicit", Static: true, Parameters: []metadata.Parameter{param("v", metadata.Named("N", "V"))}, ReturnType: &stringRef},
	}

	seen := make(map[string]int)
	for i := range members {
		e, err := MemberID(&members[i], NewTypeContext(nil), "V")
		if err != nil {
			t.Fatalf("MemberID(%d) error = %v", i, err)
		}
		if prev, dup := seen[e.ID]; dup {
			t.Errorf("members %d and %d share ID %q", prev, i, e.ID)
		}
		seen[e.ID] = i
	}
}

func TestMemberDisplay(t *testing.T) {
	vRef := metadata.Named("N", "V")
	tests := []struct {
		m    metadata.MemberDescriptor
		want string
	}{
		{metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "Select", TypeParameters: generics("U"), Parameters: []metadata.Parameter{param("u", metadata.GenericParam("U")), param("n", int32Ref)}}, "Select<U>(U, Int32)"},
		{metadata.MemberDescriptor{Kind: metadata.MemberOperator, Operator: "+", Parameters: []metadata.Parameter{param("a", vRef), param("b", vRef)}}, "operator +(V, V)"},
		{metadata.MemberDescriptor{Kind: metadata.MemberOperator, Operator: "op_Implicit", Parameters: []metadata.Parameter{param("a", vRef)}, ReturnType: &int32Ref}, "implicit operator Int32(V)"},
		{metadata.MemberDescriptor{Kind: metadata.MemberIndexer, Parameters: []metadata.Parameter{param("i", int32Ref)}}, "this[Int32]"},
		{metadata.MemberDescriptor{Kind: metadata.MemberConstructor, Parameters: []metadata.Parameter{param("i", int32Ref)}}, "V(Int32)"},
		{metadata.MemberDescriptor{Kind: metadata.MemberMethod, Name: "Sum", Parameters: []metadata.Parameter{param("xs", metadata.Named("System.Collections.Generic", "List`1", int32Ref))}}, "Sum(List<Int32>)"},
		{metadata.MemberDescriptor{Kind: metadata.MemberField, Name: "count"}, "count"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := MemberDisplay(&tt.m, "V"); got != tt.want {
				t.Errorf("MemberDisplay() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitMarkers(t *testing.T) {
	tests := []struct {
		in         string
		wantBase   string
		wantSuffix string
		wantErr    bool
	}{
		{"T[]", "T", "[]", false},
		{"Int32[,]", "Int32", "[0:,0:]", false},
		{"Int32[,,]", "Int32", "[0:,0:,0:]", false},
		{"Byte*&", "Byte", "*@", false},
		{"Int32[][]", "Int32", "[][]", false},
		{"Plain", "Plain", "", false},
		{"Bad]", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			base, suffix, err := splitMarkers(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("splitMarkers(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if base != tt.wantBase || suffix != tt.wantSuffix {
				t.Errorf("splitMarkers(%q) = (%q, %q), want (%q, %q)", tt.in, base, suffix, tt.wantBase, tt.wantSuffix)
			}
		})
	}
}

func TestRefDefinitionID(t *testing.T) {
	tests := []struct {
		ref  metadata.TypeRef
		want string
	}{
		{metadata.Named("System", "Object"), "System.Object"},
		{metadata.Named("System.Collections.Generic", "List`1", int32Ref), "System.Collections.Generic.List`1"},
		{metadata.Named("System.Collections.Generic", "Dictionary", int32Ref, stringRef), "System.Collections.Generic.Dictionary`2"},
		{metadata.Named("N", "Open`1"), "N.Open`1"},
	}
	for _, tt := range tests {
		if got := RefDefinitionID(tt.ref); got != tt.want {
			t.Errorf("RefDefinitionID(%+v) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}
