package export

import (
	"sort"
	"strings"

	scippb "github.com/sourcegraph/scip/bindings/go/scip"

	"apidoc/internal/metadata"
	"apidoc/internal/registry"
	"apidoc/internal/version"
)

const scipScheme = "apidoc"

// BuildSCIP converts reg into a SCIP index with one document per assembly.
// Only declared members become symbols; inheritance is expressed through
// relationships instead. The documents carry no text or occurrences.
func BuildSCIP(reg *registry.Registry, meta Metadata) *scippb.Index {
	index := &scippb.Index{
		Metadata: &scippb.Metadata{
			Version: scippb.ProtocolVersion_UnspecifiedProtocolVersion,
			ToolInfo: &scippb.ToolInfo{
				Name:      "apidoc",
				Version:   version.Version,
				Arguments: scipArguments(meta),
			},
			TextDocumentEncoding: scippb.TextEncoding_UTF8,
		},
	}

	s := symbolizer{reg: reg}
	docs := make(map[string]*scippb.Document)
	for _, t := range reg.Types() {
		doc := docs[t.Assembly]
		if doc == nil {
			doc = &scippb.Document{Language: "csharp", RelativePath: documentPath(t.Assembly)}
			docs[t.Assembly] = doc
		}

		info := &scippb.SymbolInformation{
			Symbol:      s.typeSymbol(t.ID),
			DisplayName: t.DisplayName,
			Kind:        typeKind(t.TypeKind),
		}
		if t.Base != nil {
			info.Relationships = append(info.Relationships, &scippb.Relationship{Symbol: s.typeSymbol(t.Base.ID), IsImplementation: true})
		}
		for _, l := range t.Interfaces {
			info.Relationships = append(info.Relationships, &scippb.Relationship{Symbol: s.typeSymbol(l.ID), IsImplementation: true})
		}
		doc.Symbols = append(doc.Symbols, info)

		for _, m := range t.DeclaredMembers() {
			mi := &scippb.SymbolInformation{
				Symbol:          s.memberSymbol(m.Ref(), m.Class()),
				DisplayName:     m.DisplayName,
				Kind:            memberKind(m.MemberKind()),
				EnclosingSymbol: info.Symbol,
			}
			if m.Overrides != nil {
				mi.Relationships = append(mi.Relationships, &scippb.Relationship{Symbol: s.memberSymbol(*m.Overrides, m.Class()), IsImplementation: true, IsReference: true})
			}
			for _, impl := range m.Implements {
				mi.Relationships = append(mi.Relationships, &scippb.Relationship{Symbol: s.memberSymbol(impl, m.Class()), IsImplementation: true})
			}
			doc.Symbols = append(doc.Symbols, mi)
		}
	}

	names := make([]string, 0, len(docs))
	for name := range docs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		index.Documents = append(index.Documents, docs[name])
	}
	return index
}

func scipArguments(meta Metadata) []string {
	var args []string
	if meta.RunID != "" {
		args = append(args, "--run="+meta.RunID)
	}
	if meta.Policy != "" {
		args = append(args, "--policy="+meta.Policy)
	}
	if meta.MinAccessibility != "" {
		args = append(args, "--min-accessibility="+meta.MinAccessibility)
	}
	return args
}

func documentPath(assembly string) string {
	if assembly == "" {
		return "_"
	}
	return assembly
}

type symbolizer struct {
	reg *registry.Registry
}

// typeSymbol formats "apidoc . <assembly> . Ns/Sub/Name#". Types outside the
// registry get an empty package.
func (s symbolizer) typeSymbol(typeID string) string {
	assembly, ns, name := "", "", typeID
	if t, ok := s.reg.Type(typeID); ok {
		assembly, ns = t.Assembly, t.Namespace
		name = strings.TrimPrefix(typeID, ns+".")
		if ns == "" {
			name = typeID
		}
	} else if i := strings.LastIndexByte(typeID, '.'); i > 0 {
		ns, name = typeID[:i], typeID[i+1:]
	}

	var b strings.Builder
	b.WriteString(scipScheme)
	b.WriteString(" . ")
	b.WriteString(packageName(assembly))
	b.WriteString(" . ")
	if ns != "" {
		for _, seg := range strings.Split(ns, ".") {
			b.WriteString(escapeIdent(seg))
			b.WriteByte('/')
		}
	}
	b.WriteString(escapeIdent(name))
	b.WriteByte('#')
	return b.String()
}

// memberSymbol appends a term descriptor for fields, properties and events
// and a method descriptor for everything callable. The canonical member ID
// is the descriptor name, so overloads need no disambiguator. Linked
// members share the class of the member linking to them.
func (s symbolizer) memberSymbol(ref registry.MemberRef, class metadata.MemberClass) string {
	sym := s.typeSymbol(ref.TypeID) + escapeIdent(ref.MemberID)
	if class == metadata.ClassMethod {
		return sym + "()."
	}
	return sym + "."
}

func packageName(assembly string) string {
	if assembly == "" {
		return "."
	}
	return strings.ReplaceAll(assembly, " ", "  ")
}

func escapeIdent(s string) string {
	simple := s != ""
	for _, c := range s {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '+' || c == '-' || c == '$') {
			simple = false
			break
		}
	}
	if simple {
		return s
	}
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

func typeKind(k metadata.TypeKind) scippb.SymbolInformation_Kind {
	switch k {
	case metadata.KindClass:
		return scippb.SymbolInformation_Class
	case metadata.KindStruct:
		return scippb.SymbolInformation_Struct
	case metadata.KindInterface:
		return scippb.SymbolInformation_Interface
	case metadata.KindEnum:
		return scippb.SymbolInformation_Enum
	}
	return scippb.SymbolInformation_UnspecifiedKind
}

func memberKind(k metadata.MemberKind) scippb.SymbolInformation_Kind {
	switch k {
	case metadata.MemberConstructor:
		return scippb.SymbolInformation_Constructor
	case metadata.MemberField:
		return scippb.SymbolInformation_Field
	case metadata.MemberProperty, metadata.MemberIndexer:
		return scippb.SymbolInformation_Property
	case metadata.MemberEvent:
		return scippb.SymbolInformation_Event
	}
	return scippb.SymbolInformation_Method
}
