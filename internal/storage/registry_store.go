package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apierrors "apidoc/internal/errors"
	"apidoc/internal/metadata"
	"apidoc/internal/registry"
)

// Run describes one stored registry.
type Run struct {
	ID               string    `json:"id"`
	StartedAt        time.Time `json:"startedAt"`
	Policy           string    `json:"policy"`
	MinAccessibility string    `json:"minAccessibility"`
	Types            int       `json:"types"`
	Members          int       `json:"members"`
	Warnings         int       `json:"warnings"`
}

// ErrRunNotFound is returned when a run ID (or any run at all) is missing.
var ErrRunNotFound = errors.New("run not found")

// RegistryRepository reads and writes registries.
type RegistryRepository struct {
	db *DB
}

// NewRegistryRepository creates a repository over db.
func NewRegistryRepository(db *DB) *RegistryRepository {
	return &RegistryRepository{db: db}
}

// Save stores reg under run.ID. Types and Members of run are taken from
// reg. Descriptors are not stored; a reloaded registry has nil descriptors.
func (r *RegistryRepository) Save(ctx context.Context, run Run, reg *registry.Registry) error {
	run.Types, run.Members = reg.Len(), reg.MemberCount()

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO runs (run_id, started_at, policy, min_accessibility, type_count, member_count, warning_count)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.StartedAt.UTC().Format(time.RFC3339Nano), run.Policy, run.MinAccessibility,
			run.Types, run.Members, run.Warnings,
		); err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}

		w, err := newWriter(ctx, tx, run.ID)
		if err != nil {
			return err
		}
		defer w.close()
		for _, t := range reg.Types() {
			if err := w.writeType(ctx, t); err != nil {
				return fmt.Errorf("%s: %w", t.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return apierrors.New(apierrors.StorageError, "failed to save registry", err).WithSubject(run.ID)
	}
	r.db.logger.Info("Registry saved", "run", run.ID, "types", run.Types, "members", run.Members)
	return nil
}

type writer struct {
	runID   string
	types   *sql.Stmt
	ifaces  *sql.Stmt
	members *sql.Stmt
	impls   *sql.Stmt
}

func newWriter(ctx context.Context, tx *sql.Tx, runID string) (*writer, error) {
	w := &writer{runID: runID}
	var err error
	prepare := func(query string) *sql.Stmt {
		if err != nil {
			return nil
		}
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx, query)
		return stmt
	}
	w.types = prepare(`INSERT INTO types (run_id, type_id, display_name, namespace, name, assembly, type_kind,
		accessibility, type_parameters_json, is_static, is_abstract, is_sealed, base_id, base_ref_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	w.ifaces = prepare(`INSERT INTO type_interfaces (run_id, type_id, ordinal, interface_id, ref_json) VALUES (?, ?, ?, ?, ?)`)
	w.members = prepare(`INSERT INTO members (run_id, type_id, member_class, member_id, display_name, kind, origin_type, origin_id,
		inherited, accessibility, is_static, explicit_interface, overrides_type, overrides_member)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	w.impls = prepare(`INSERT INTO member_implements (run_id, type_id, member_class, member_id, ordinal, target_type, target_member)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		w.close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return w, nil
}

func (w *writer) close() {
	for _, s := range []*sql.Stmt{w.types, w.ifaces, w.members, w.impls} {
		if s != nil {
			_ = s.Close()
		}
	}
}

func (w *writer) writeType(ctx context.Context, t *registry.TypeEntry) error {
	params, err := marshalOptional(t.TypeParameters, len(t.TypeParameters) > 0)
	if err != nil {
		return err
	}
	var baseID, baseRef any
	if t.Base != nil {
		baseID = t.Base.ID
		if baseRef, err = marshalOptional(t.Base.Ref, t.Base.Ref != nil); err != nil {
			return err
		}
	}
	if _, err := w.types.ExecContext(ctx, w.runID, t.ID, t.DisplayName, t.Namespace, t.Name, t.Assembly,
		string(t.TypeKind), string(t.Accessibility), params, t.Static, t.Abstract, t.Sealed, baseID, baseRef); err != nil {
		return err
	}

	for i, l := range t.Interfaces {
		ref, err := marshalOptional(l.Ref, l.Ref != nil)
		if err != nil {
			return err
		}
		if _, err := w.ifaces.ExecContext(ctx, w.runID, t.ID, i, l.ID, ref); err != nil {
			return err
		}
	}

	for _, m := range t.Members() {
		var ovType, ovMember, explicit any
		if m.Overrides != nil {
			ovType, ovMember = m.Overrides.TypeID, m.Overrides.MemberID
		}
		if m.ExplicitInterface != "" {
			explicit = m.ExplicitInterface
		}
		class := string(m.Class())
		if _, err := w.members.ExecContext(ctx, w.runID, t.ID, class, m.ID, m.DisplayName, m.Kind, m.OriginType, m.OriginID,
			m.Inherited, string(m.Accessibility), m.Static, explicit, ovType, ovMember); err != nil {
			return fmt.Errorf("member %s: %w", m.ID, err)
		}
		for i, impl := range m.Implements {
			if _, err := w.impls.ExecContext(ctx, w.runID, t.ID, class, m.ID, i, impl.TypeID, impl.MemberID); err != nil {
				return err
			}
		}
	}
	return nil
}

// marshalOptional returns the JSON text of v, or nil (SQL NULL) when !present.
func marshalOptional(v any, present bool) (any, error) {
	if !present {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Load rebuilds the registry stored under runID. The result is frozen.
func (r *RegistryRepository) Load(ctx context.Context, runID string) (*registry.Registry, error) {
	if _, err := r.Run(ctx, runID); err != nil {
		return nil, err
	}
	reg, err := r.load(ctx, runID)
	if err != nil {
		return nil, apierrors.New(apierrors.StorageError, "failed to load registry", err).WithSubject(runID)
	}
	return reg, nil
}

// LoadLatest rebuilds the most recently stored registry.
func (r *RegistryRepository) LoadLatest(ctx context.Context) (*registry.Registry, Run, error) {
	run, err := r.Latest(ctx)
	if err != nil {
		return nil, Run{}, err
	}
	reg, err := r.Load(ctx, run.ID)
	return reg, run, err
}

func (r *RegistryRepository) load(ctx context.Context, runID string) (*registry.Registry, error) {
	byID := make(map[string]*registry.TypeEntry)
	var order []*registry.TypeEntry

	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT type_id, display_name, namespace, name, assembly, type_kind, accessibility,
			type_parameters_json, is_static, is_abstract, is_sealed, base_id, base_ref_json
		FROM types WHERE run_id = ? ORDER BY type_id`, runID)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		t := &registry.TypeEntry{}
		var kind, access string
		var params, baseID, baseRef sql.NullString
		if err := rows.Scan(&t.ID, &t.DisplayName, &t.Namespace, &t.Name, &t.Assembly, &kind, &access,
			&params, &t.Static, &t.Abstract, &t.Sealed, &baseID, &baseRef); err != nil {
			_ = rows.Close()
			return nil, err
		}
		t.Kind = kind
		t.TypeKind = metadata.TypeKind(kind)
		t.Accessibility = metadata.Accessibility(access)
		if params.Valid {
			if err := json.Unmarshal([]byte(params.String), &t.TypeParameters); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("%s: type parameters: %w", t.ID, err)
			}
		}
		if baseID.Valid {
			t.Base = &registry.Link{ID: baseID.String}
			if t.Base.Ref, err = unmarshalRef(baseRef); err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("%s: base: %w", t.ID, err)
			}
		}
		byID[t.ID] = t
		order = append(order, t)
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	if err := r.loadInterfaces(ctx, runID, byID); err != nil {
		return nil, err
	}
	members, err := r.loadMembers(ctx, runID, byID)
	if err != nil {
		return nil, err
	}
	if err := r.loadImplements(ctx, runID, members); err != nil {
		return nil, err
	}

	for _, t := range order {
		t.SortMembers()
	}
	reg, err := registry.New(order)
	if err != nil {
		return nil, err
	}
	reg.Freeze()
	return reg, nil
}

func (r *RegistryRepository) loadInterfaces(ctx context.Context, runID string, byID map[string]*registry.TypeEntry) error {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT type_id, interface_id, ref_json FROM type_interfaces
		WHERE run_id = ? ORDER BY type_id, ordinal`, runID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var typeID string
		var l registry.Link
		var ref sql.NullString
		if err := rows.Scan(&typeID, &l.ID, &ref); err != nil {
			_ = rows.Close()
			return err
		}
		if l.Ref, err = unmarshalRef(ref); err != nil {
			_ = rows.Close()
			return fmt.Errorf("%s: interface: %w", typeID, err)
		}
		if t := byID[typeID]; t != nil {
			t.Interfaces = append(t.Interfaces, l)
		}
	}
	return closeRows(rows)
}

// memberKey identifies a stored member row.
type memberKey struct {
	registry.MemberRef
	class metadata.MemberClass
}

func (r *RegistryRepository) loadMembers(ctx context.Context, runID string, byID map[string]*registry.TypeEntry) (map[memberKey]*registry.Member, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT type_id, member_id, display_name, kind, origin_type, origin_id, inherited,
			accessibility, is_static, explicit_interface, overrides_type, overrides_member
		FROM members WHERE run_id = ?`, runID)
	if err != nil {
		return nil, err
	}
	out := make(map[memberKey]*registry.Member)
	for rows.Next() {
		m := &registry.Member{}
		var access string
		var explicit, ovType, ovMember sql.NullString
		if err := rows.Scan(&m.DeclaringType, &m.ID, &m.DisplayName, &m.Kind, &m.OriginType, &m.OriginID,
			&m.Inherited, &access, &m.Static, &explicit, &ovType, &ovMember); err != nil {
			_ = rows.Close()
			return nil, err
		}
		m.Accessibility = metadata.Accessibility(access)
		m.ExplicitInterface = explicit.String
		if ovType.Valid {
			m.Overrides = &registry.MemberRef{TypeID: ovType.String, MemberID: ovMember.String}
		}
		if t := byID[m.DeclaringType]; t != nil {
			t.AddMember(m)
			out[memberKey{m.Ref(), m.Class()}] = m
		}
	}
	return out, closeRows(rows)
}

func (r *RegistryRepository) loadImplements(ctx context.Context, runID string, members map[memberKey]*registry.Member) error {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT type_id, member_class, member_id, target_type, target_member FROM member_implements
		WHERE run_id = ? ORDER BY type_id, member_class, member_id, ordinal`, runID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var owner memberKey
		var target registry.MemberRef
		if err := rows.Scan(&owner.TypeID, &owner.class, &owner.MemberID, &target.TypeID, &target.MemberID); err != nil {
			_ = rows.Close()
			return err
		}
		if m := members[owner]; m != nil {
			m.Implements = append(m.Implements, target)
		}
	}
	return closeRows(rows)
}

func unmarshalRef(s sql.NullString) (*metadata.TypeRef, error) {
	if !s.Valid {
		return nil, nil
	}
	var ref metadata.TypeRef
	if err := json.Unmarshal([]byte(s.String), &ref); err != nil {
		return nil, err
	}
	return &ref, nil
}

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	return err
}

// Run returns the stored run with the given ID.
func (r *RegistryRepository) Run(ctx context.Context, runID string) (Run, error) {
	row := r.db.conn.QueryRowContext(ctx, `
		SELECT run_id, started_at, policy, min_accessibility, type_count, member_count, warning_count
		FROM runs WHERE run_id = ?`, runID)
	return scanRun(row, runID)
}

// Latest returns the most recent run.
func (r *RegistryRepository) Latest(ctx context.Context) (Run, error) {
	row := r.db.conn.QueryRowContext(ctx, `
		SELECT run_id, started_at, policy, min_accessibility, type_count, member_count, warning_count
		FROM runs ORDER BY started_at DESC, run_id DESC LIMIT 1`)
	return scanRun(row, "latest")
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner, subject string) (Run, error) {
	var run Run
	var started string
	err := s.Scan(&run.ID, &started, &run.Policy, &run.MinAccessibility, &run.Types, &run.Members, &run.Warnings)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, apierrors.New(apierrors.StorageError, "no stored registry", ErrRunNotFound).WithSubject(subject)
	}
	if err != nil {
		return Run{}, apierrors.New(apierrors.StorageError, "failed to read run", err).WithSubject(subject)
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return Run{}, apierrors.New(apierrors.StorageError, "invalid run timestamp", err).WithSubject(run.ID)
	}
	return run, nil
}

// Runs lists stored runs, newest first. limit <= 0 lists all.
func (r *RegistryRepository) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, started_at, policy, min_accessibility, type_count, member_count, warning_count
		FROM runs ORDER BY started_at DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apierrors.New(apierrors.StorageError, "failed to list runs", err)
	}
	var out []Run
	for rows.Next() {
		run, err := scanRun(rows, "")
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, run)
	}
	if err := closeRows(rows); err != nil {
		return nil, apierrors.New(apierrors.StorageError, "failed to list runs", err)
	}
	return out, nil
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (r *RegistryRepository) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := r.db.conn.ExecContext(ctx, `
		DELETE FROM runs WHERE run_id NOT IN (
			SELECT run_id FROM runs ORDER BY started_at DESC, run_id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, apierrors.New(apierrors.StorageError, "failed to prune runs", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.db.logger.Info("Pruned stored registries", "removed", n, "kept", keep)
	}
	return int(n), nil
}
