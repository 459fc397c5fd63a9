package export

import (
	"bytes"
	"context"
	"reflect"
	"strings"
	"testing"

	apierrors "apidoc/internal/errors"
	"apidoc/internal/inherit"
	"apidoc/internal/metadata"
	"apidoc/internal/pipeline"
	"apidoc/internal/registry"
	"apidoc/internal/slogutil"
)

func fixture(t *testing.T) *registry.Registry {
	t.Helper()
	int32Ref := metadata.Named("System", "Int32")
	types := []metadata.TypeDescriptor{
		{
			Assembly: "Demo.Core", Namespace: "Demo.Abstractions", Name: "IResettable", Kind: metadata.KindInterface, Accessibility: metadata.Public,
			Members: []metadata.MemberDescriptor{{Kind: metadata.MemberMethod, Name: "Reset", Accessibility: metadata.Public, Abstract: true}},
		},
		{
			Assembly: "Demo.Core", Namespace: "Demo", Name: "Bag", Kind: metadata.KindClass, Accessibility: metadata.Public,
			TypeParameters: []metadata.GenericParameter{{Name: "T"}},
			Members: []metadata.MemberDescriptor{
				{Kind: metadata.MemberMethod, Name: "Add", Accessibility: metadata.Public, Virtual: true,
					Parameters: []metadata.Parameter{{Name: "item", Type: metadata.GenericParam("T")}}},
				{Kind: metadata.MemberProperty, Name: "Count", Accessibility: metadata.Public, ReturnType: &int32Ref},
			},
		},
		{
			Assembly: "Demo.Core", Namespace: "Demo", Name: "IntBag", Kind: metadata.KindClass, Accessibility: metadata.Public, Sealed: true,
			BaseType:   &metadata.TypeRef{Namespace: "Demo", Name: "Bag`1", Arguments: []metadata.TypeRef{int32Ref}},
			Interfaces: []metadata.TypeRef{metadata.Named("Demo.Abstractions", "IResettable")},
			Members: []metadata.MemberDescriptor{
				{Kind: metadata.MemberMethod, Name: "Add", Accessibility: metadata.Public, Override: true,
					Parameters: []metadata.Parameter{{Name: "item", Type: int32Ref}}},
				{Kind: metadata.MemberMethod, Name: "Reset", Accessibility: metadata.Public},
			},
		},
	}
	res, err := pipeline.Run(context.Background(), types, pipeline.Options{Policy: inherit.PolicyAll})
	if err != nil {
		t.Fatalf("pipeline.Run() error = %v", err)
	}
	return res.Registry
}

var testMeta = Metadata{RunID: "run-1", Generated: "2026-01-01T00:00:00Z", Policy: "all", MinAccessibility: "public"}

func TestOrganize(t *testing.T) {
	snap := Organize(fixture(t), testMeta, false)

	if snap.Metadata.TypeCount != 3 || snap.Metadata.NamespaceCount != 2 {
		t.Errorf("metadata = %+v", snap.Metadata)
	}
	if snap.Namespaces[0].Name != "Demo" || snap.Namespaces[1].Name != "Demo.Abstractions" {
		t.Fatalf("namespaces = %+v", snap.Namespaces)
	}

	var intBag Type
	for _, ty := range snap.Namespaces[0].Types {
		if ty.ID == "Demo.IntBag" {
			intBag = ty
		}
	}
	if intBag.Base != "Demo.Bag`1" || !reflect.DeepEqual(intBag.Interfaces, []string{"Demo.Abstractions.IResettable"}) {
		t.Errorf("IntBag links = %q %q", intBag.Base, intBag.Interfaces)
	}

	byID := make(map[string]Member)
	for _, m := range intBag.Members {
		byID[m.ID] = m
	}
	if got := byID["Add(System.Int32)"].Overrides; got != "Demo.Bag`1.Add(`0)" {
		t.Errorf("Add overrides = %q", got)
	}
	if got := byID["Reset"].Implements; !reflect.DeepEqual(got, []string{"Demo.Abstractions.IResettable.Reset"}) {
		t.Errorf("Reset implements = %q", got)
	}
	if c := byID["Count"]; !c.Inherited || c.Origin != "Demo.Bag`1.Count" {
		t.Errorf("Count = %+v", c)
	}

	declared := Organize(fixture(t), testMeta, true)
	if declared.Metadata.MemberCount != snap.Metadata.MemberCount-1 {
		t.Errorf("declared-only member count = %d, full = %d", declared.Metadata.MemberCount, snap.Metadata.MemberCount)
	}
}

func TestSummarizeBridges(t *testing.T) {
	ov := Summarize(Organize(fixture(t), testMeta, false))
	want := []Bridge{{From: "Demo", To: "Demo.Abstractions", Links: 1}}
	if !reflect.DeepEqual(ov.Bridges, want) {
		t.Errorf("Bridges = %+v, want %+v", ov.Bridges, want)
	}
	if ov.Namespaces[0].TypeCount != 2 {
		t.Errorf("namespace map = %+v", ov.Namespaces)
	}
}

func TestExportRoundTrip(t *testing.T) {
	reg := fixture(t)
	e := NewExporter(slogutil.NewDiscardLogger())
	want := Organize(reg, testMeta, false)

	for _, tt := range []struct {
		format   Format
		compress bool
	}{
		{FormatJSON, false},
		{FormatJSON, true},
		{FormatTOML, false},
		{FormatTOML, true},
	} {
		t.Run(string(tt.format)+tt.format.Extension(tt.compress), func(t *testing.T) {
			var buf bytes.Buffer
			if err := e.Export(&buf, reg, testMeta, Options{Format: tt.format, Compress: tt.compress}); err != nil {
				t.Fatalf("Export() error = %v", err)
			}
			got, err := Decode(&buf, tt.format, tt.compress)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestExportSCIP(t *testing.T) {
	reg := fixture(t)
	var buf bytes.Buffer
	if err := NewExporter(slogutil.NewDiscardLogger()).Export(&buf, reg, testMeta, Options{Format: FormatSCIP, Compress: true}); err != nil {
		t.Fatal(err)
	}
	index, err := ReadSCIP(&buf, true)
	if err != nil {
		t.Fatalf("ReadSCIP() error = %v", err)
	}
	if index.Metadata.GetToolInfo().GetName() != "apidoc" {
		t.Errorf("tool info = %+v", index.Metadata.GetToolInfo())
	}
	if len(index.Documents) != 1 || index.Documents[0].RelativePath != "Demo.Core" {
		t.Fatalf("documents = %+v", index.Documents)
	}

	symbols := make(map[string][]string)
	for _, si := range index.Documents[0].Symbols {
		for _, rel := range si.Relationships {
			symbols[si.Symbol] = append(symbols[si.Symbol], rel.Symbol)
		}
		if _, ok := symbols[si.Symbol]; !ok {
			symbols[si.Symbol] = nil
		}
	}

	bag := "apidoc . Demo.Core . Demo/`Bag``1`#"
	intBagAdd := "apidoc . Demo.Core . Demo/IntBag#`Add(System.Int32)`()."
	if _, ok := symbols[bag]; !ok {
		t.Errorf("missing %s in %v", bag, keys(symbols))
	}
	if got := symbols[intBagAdd]; len(got) != 1 || got[0] != bag+"`Add(``0)`()." {
		t.Errorf("Add relationships = %v", got)
	}
	if _, ok := symbols["apidoc . Demo.Core . Demo/IntBag#Count."]; ok {
		t.Error("inherited members should not become SCIP symbols")
	}
	if got := symbols["apidoc . Demo.Core . Demo/IntBag#"]; len(got) != 2 {
		t.Errorf("IntBag relationships = %v", got)
	}
}

func keys(m map[string][]string) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestFormatText(t *testing.T) {
	out := FormatOrganizedText(Organize(fixture(t), testMeta, false))
	for _, want := range []string{
		"# Run: run-1",
		"# Types: 3 | Members: ",
		"Demo -> Demo.Abstractions (1)",
		"## Demo\n",
		"  $ IntBag : Demo.Bag`1, Demo.Abstractions.IResettable\n",
		"    ^ Count",
		"overrides Demo.Bag`1.Add(`0)",
		"  $ IResettable  interface\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"json": FormatJSON, "TOML": FormatTOML, " scip ": FormatSCIP, "text": FormatText, "": FormatJSON}
	for in, want := range tests {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) should fail")
	}
	if got := FormatSCIP.Extension(true); got != ".scip.zst" {
		t.Errorf("Extension = %q", got)
	}
	if got := FormatText.Extension(false); got != ".txt" {
		t.Errorf("Extension = %q", got)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	err := NewExporter(slogutil.NewDiscardLogger()).Export(&bytes.Buffer{}, fixture(t), testMeta, Options{Format: "xml"})
	if !apierrors.HasCode(err, apierrors.ExportError) {
		t.Errorf("error = %v, want EXPORT_ERROR", err)
	}
}
