package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	apierrors "apidoc/internal/errors"
)

// Exclusions are applied while descriptors are loaded, before any of them
// reach the canonicalizer.
type Exclusions struct {
	Assemblies []string
	Namespaces []string
}

// ExcludesAssembly reports whether an assembly name is excluded (case-insensitive).
func (e Exclusions) ExcludesAssembly(name string) bool {
	for _, a := range e.Assemblies {
		if strings.EqualFold(a, name) {
			return true
		}
	}
	return false
}

// ExcludesNamespace reports whether a namespace or one of its parents is excluded.
func (e Exclusions) ExcludesNamespace(ns string) bool {
	for _, x := range e.Namespaces {
		if ns == x || strings.HasPrefix(ns, x+".") {
			return true
		}
	}
	return false
}

// Load reads one descriptor file. The format is chosen by extension:
// .json, .yaml/.yml or .toml.
func Load(path string) (*Assembly, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor file: %w", err)
	}

	var asm Assembly
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &asm)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &asm)
	case ".toml":
		_, err = toml.Decode(string(data), &asm)
	default:
		return nil, apierrors.Newf(apierrors.InvalidDescriptor, "unsupported descriptor format %q", ext).WithSubject(path)
	}
	if err != nil {
		return nil, apierrors.New(apierrors.InvalidDescriptor, "failed to decode descriptor file", err).WithSubject(path)
	}

	if asm.Name == "" {
		asm.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	for i := range asm.Types {
		t := &asm.Types[i]
		if t.Assembly == "" {
			t.Assembly = asm.Name
		}
		if err := Normalize(t); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := Validate(t); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return &asm, nil
}

// LoadAll loads every descriptor file, drops excluded assemblies and
// namespaces, and returns the remaining types ordered by assembly and name.
func LoadAll(paths []string, excl Exclusions) ([]TypeDescriptor, error) {
	var types []TypeDescriptor
	for _, path := range paths {
		asm, err := Load(path)
		if err != nil {
			return nil, err
		}
		if excl.ExcludesAssembly(asm.Name) {
			continue
		}
		types = append(types, Filter(asm.Types, excl)...)
	}

	sort.SliceStable(types, func(i, j int) bool {
		if types[i].Assembly != types[j].Assembly {
			return types[i].Assembly < types[j].Assembly
		}
		return types[i].FullName() < types[j].FullName()
	})
	return types, nil
}

// Filter returns the types not excluded by assembly or namespace.
func Filter(types []TypeDescriptor, excl Exclusions) []TypeDescriptor {
	out := make([]TypeDescriptor, 0, len(types))
	for _, t := range types {
		if excl.ExcludesAssembly(t.Assembly) || excl.ExcludesNamespace(t.Namespace) {
			continue
		}
		out = append(out, t)
	}
	return out
}
