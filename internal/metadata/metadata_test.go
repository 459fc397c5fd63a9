package metadata

import (
	"os"
	"path/filepath"
	"testing"

	apierrors "apidoc/internal/errors"
)

func TestAccessibilityOrdering(t *testing.T) {
	ordered := []Accessibility{NotApplicable, Private, PrivateProtected, Protected, Internal, ProtectedInternal, Public}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("%q should rank below %q", ordered[i-1], ordered[i])
		}
	}
	if !Public.AtLeast(Protected) {
		t.Error("public should be at least protected")
	}
	if Private.AtLeast(Public) {
		t.Error("private should not be at least public")
	}
}

func TestParseAccessibility(t *testing.T) {
	tests := []struct {
		in   string
		want Accessibility
		ok   bool
	}{
		{"public", Public, true},
		{"Public", Public, true},
		{"protected internal", ProtectedInternal, true},
		{"ProtectedOrInternal", ProtectedInternal, true},
		{"private protected", PrivateProtected, true},
		{"FamANDAssem", PrivateProtected, true},
		{"assembly", Internal, true},
		{"", NotApplicable, true},
		{"friend", NotApplicable, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAccessibility(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseAccessibility(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSplitArity(t *testing.T) {
	tests := []struct {
		in       string
		wantBase string
		wantN    int
		wantOK   bool
	}{
		{"List`1", "List", 1, true},
		{"Dictionary`2", "Dictionary", 2, true},
		{"Select``2", "Select", 2, true},
		{"Plain", "Plain", 0, false},
		{"Bad`x", "Bad`x", 0, false},
		{"`1", "`1", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			base, n, ok := SplitArity(tt.in)
			if base != tt.wantBase || n != tt.wantN || ok != tt.wantOK {
				t.Errorf("SplitArity(%q) = (%q, %d, %v), want (%q, %d, %v)", tt.in, base, n, ok, tt.wantBase, tt.wantN, tt.wantOK)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	td := TypeDescriptor{
		Namespace:      "N",
		Name:           "T`2",
		Kind:           KindClass,
		Accessibility:  "ProtectedOrInternal",
		TypeParameters: []GenericParameter{{Name: "A"}, {Name: "B"}},
		Members: []MemberDescriptor{
			{Kind: MemberMethod, Name: "M``1", Accessibility: "Family", TypeParameters: []GenericParameter{{Name: "U"}}},
		},
	}

	if err := Normalize(&td); err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if td.Name != "T" {
		t.Errorf("Name = %q, want %q", td.Name, "T")
	}
	if td.Accessibility != ProtectedInternal {
		t.Errorf("Accessibility = %q", td.Accessibility)
	}
	if td.TypeParameters[1].Ordinal != 1 {
		t.Errorf("second ordinal = %d, want 1", td.TypeParameters[1].Ordinal)
	}
	if td.Members[0].Name != "M" || td.Members[0].Accessibility != Protected {
		t.Errorf("member = %+v", td.Members[0])
	}

	bad := TypeDescriptor{Name: "T`3", Kind: KindClass, TypeParameters: []GenericParameter{{Name: "A"}}}
	if err := Normalize(&bad); !apierrors.HasCode(err, apierrors.InvalidDescriptor) {
		t.Errorf("arity mismatch error = %v, want INVALID_DESCRIPTOR", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		td   TypeDescriptor
		code apierrors.ErrorCode
	}{
		{
			name: "missing name",
			td:   TypeDescriptor{Namespace: "N", Kind: KindClass},
			code: apierrors.InvalidDescriptor,
		},
		{
			name: "unknown kind",
			td:   TypeDescriptor{Namespace: "N", Name: "T", Kind: "record"},
			code: apierrors.InvalidDescriptor,
		},
		{
			name: "indexer without parameters",
			td: TypeDescriptor{Namespace: "N", Name: "T", Kind: KindClass, Members: []MemberDescriptor{
				{Kind: MemberIndexer, Accessibility: Public},
			}},
			code: apierrors.InvalidDescriptor,
		},
		{
			name: "operator without identity",
			td: TypeDescriptor{Namespace: "N", Name: "T", Kind: KindStruct, Members: []MemberDescriptor{
				{Kind: MemberOperator, Name: "Plus", Static: true},
			}},
			code: apierrors.UnknownOperator,
		},
		{
			name: "extension receiver not first",
			td: TypeDescriptor{Namespace: "N", Name: "Ext", Kind: KindClass, Static: true, Members: []MemberDescriptor{
				{Kind: MemberMethod, Name: "M", Static: true, Parameters: []Parameter{
					{Name: "a", Type: Named("System", "Int32")},
					{Name: "b", Type: Named("System", "String"), ExtensionReceiver: true},
				}},
			}},
			code: apierrors.InvalidDescriptor,
		},
		{
			name: "generic parameter on property",
			td: TypeDescriptor{Namespace: "N", Name: "T", Kind: KindClass, Members: []MemberDescriptor{
				{Kind: MemberProperty, Name: "P", TypeParameters: []GenericParameter{{Name: "U"}}},
			}},
			code: apierrors.InvalidDescriptor,
		},
		{
			name: "interface with base type",
			td:   TypeDescriptor{Namespace: "N", Name: "I", Kind: KindInterface, BaseType: &TypeRef{Namespace: "System", Name: "Object"}},
			code: apierrors.InvalidDescriptor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.td)
			if !apierrors.HasCode(err, tt.code) {
				t.Errorf("Validate() error = %v, want code %s", err, tt.code)
			}
		})
	}

	ok := TypeDescriptor{Namespace: "N", Name: "T", Kind: KindClass, Members: []MemberDescriptor{
		{Kind: MemberConstructor, Accessibility: Public},
		{Kind: MemberOperator, Operator: "+", Static: true, Accessibility: Public},
	}}
	if err := Validate(&ok); err != nil {
		t.Errorf("Validate(valid) error = %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	asm, err := Load(filepath.Join("testdata", "shapes.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if asm.Name != "Shapes" {
		t.Errorf("Name = %q, want Shapes", asm.Name)
	}
	if len(asm.Types) != 3 {
		t.Fatalf("len(Types) = %d, want 3", len(asm.Types))
	}
	circle := asm.Types[1]
	if circle.BaseType == nil || circle.BaseType.FullName() != "Geometry.Shape" {
		t.Errorf("Circle base = %+v", circle.BaseType)
	}
	if circle.Assembly != "Shapes" {
		t.Errorf("Assembly = %q, want Shapes", circle.Assembly)
	}
	if cache := asm.Types[2]; cache.Name != "Cache" {
		t.Errorf("arity suffix not stripped: %q", cache.Name)
	}
}

func TestLoadTOML(t *testing.T) {
	asm, err := Load(filepath.Join("testdata", "collections.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	bag := asm.Types[0]
	if bag.Accessibility != Public {
		t.Errorf("Accessibility = %q, want public", bag.Accessibility)
	}
	if len(bag.Members) != 1 || len(bag.Members[0].Parameters) != 1 {
		t.Fatalf("members = %+v", bag.Members)
	}
	if got := bag.Members[0].Parameters[0].Type.Kind; got != RefGenericParameter {
		t.Errorf("parameter kind = %q, want generic-parameter", got)
	}
}

func TestLoadJSONAndExclusions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Core.json")
	content := `{"types":[
		{"namespace":"Core","name":"A","kind":"class","accessibility":"public"},
		{"namespace":"Core.Internal","name":"B","kind":"class","accessibility":"internal"},
		{"namespace":"Core.InternalTools","name":"C","kind":"struct","accessibility":"public"}
	]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	types, err := LoadAll([]string{path}, Exclusions{Namespaces: []string{"Core.Internal"}})
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(types) != 2 {
		t.Fatalf("len(types) = %d, want 2: %+v", len(types), types)
	}
	if types[0].Assembly != "Core" {
		t.Errorf("assembly name should default to the file name, got %q", types[0].Assembly)
	}
	if types[1].FullName() != "Core.InternalTools.C" {
		t.Errorf("prefix match must respect namespace boundaries, got %q", types[1].FullName())
	}

	none, err := LoadAll([]string{path}, Exclusions{Assemblies: []string{"core"}})
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("assembly exclusion kept %d types", len(none))
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.xml")
	if err := os.WriteFile(path, []byte("<x/>"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !apierrors.HasCode(err, apierrors.InvalidDescriptor) {
		t.Errorf("Load() error = %v, want INVALID_DESCRIPTOR", err)
	}
}
