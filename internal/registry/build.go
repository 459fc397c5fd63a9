package registry

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"apidoc/internal/canonical"
	apierrors "apidoc/internal/errors"
	"apidoc/internal/metadata"
)

// BuildOptions controls registry construction.
type BuildOptions struct {
	// Workers bounds the number of types canonicalized concurrently.
	// Zero means runtime.NumCPU().
	Workers int
}

// Build canonicalizes every type and its declared members. Types are
// processed in parallel; the first error cancels the rest.
func Build(ctx context.Context, types []metadata.TypeDescriptor, opts BuildOptions) (*Registry, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	entries := make([]*TypeEntry, len(types))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range types {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entry, err := BuildType(&types[i])
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return New(entries)
}

// BuildType canonicalizes a single type. The descriptor is not modified.
func BuildType(td *metadata.TypeDescriptor) (*TypeEntry, error) {
	entry, err := canonical.TypeID(td)
	if err != nil {
		return nil, err
	}

	t := &TypeEntry{
		CanonicalEntry: entry,
		Namespace:      td.Namespace,
		Name:           td.Name,
		Assembly:       td.Assembly,
		TypeKind:       td.Kind,
		Accessibility:  td.Accessibility,
		TypeParameters: td.TypeParameters,
		Static:         td.Static,
		Abstract:       td.Abstract,
		Sealed:         td.Sealed,
		Descriptor:     td,
	}
	if td.BaseType != nil {
		t.Base = linkTo(*td.BaseType)
	}
	for _, iface := range td.Interfaces {
		t.Interfaces = append(t.Interfaces, *linkTo(iface))
	}

	ctx := canonical.TypeContext(td)
	type memberKey struct {
		class metadata.MemberClass
		id    string
	}
	seen := make(map[memberKey]bool, len(td.Members))
	add := func(md *metadata.MemberDescriptor) error {
		me, err := canonical.MemberID(md, ctx, td.Name)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.ID, err)
		}
		key := memberKey{md.Kind.Class(), me.ID}
		if seen[key] {
			return apierrors.Newf(apierrors.DuplicateID, "member ID %q declared twice", me.ID).WithSubject(entry.ID + "." + me.ID)
		}
		seen[key] = true

		m := &Member{
			CanonicalEntry: me,
			DeclaringType:  entry.ID,
			OriginType:     entry.ID,
			OriginID:       me.ID,
			Accessibility:  md.Accessibility,
			Static:         md.Static,
			Descriptor:     md,
		}
		if md.ExplicitInterface != nil {
			m.ExplicitInterface = canonical.RefDefinitionID(*md.ExplicitInterface)
		}
		t.AddMember(m)
		return nil
	}

	for i := range td.Members {
		if err := add(&td.Members[i]); err != nil {
			return nil, err
		}
	}
	if td.Kind == metadata.KindDelegate && td.Invoke != nil {
		invoke := *td.Invoke
		invoke.Kind = metadata.MemberMethod
		if invoke.Name == "" {
			invoke.Name = "Invoke"
		}
		if invoke.Accessibility == metadata.NotApplicable {
			invoke.Accessibility = metadata.Public
		}
		if err := add(&invoke); err != nil {
			return nil, err
		}
	}

	t.SortMembers()
	return t, nil
}

func linkTo(ref metadata.TypeRef) *Link {
	r := ref
	return &Link{ID: canonical.RefDefinitionID(ref), Ref: &r}
}
