package storage

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"cinterop/internal/bag"
	"cinterop/internal/errors"
	"cinterop/internal/native"
)

// Namespaces of the symbols table
const (
	NamespaceDefined   = "defined"
	NamespaceTypeDef   = "typedef"
	NamespaceProcedure = "procedure"
	NamespaceConstant  = "constant"
	NamespaceEnumValue = "enumvalue"
)

// Unit is a saved translation unit
type Unit struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Digest      string    `json:"digest" yaml:"digest"`
	SymbolCount int       `json:"symbolCount" yaml:"symbolCount"`
	CreatedAt   time.Time `json:"createdAt" yaml:"createdAt"`
}

// Store persists resolved declarations and serves them back as a chained
// lookup. It implements bag.Lookup and bag.Saver. Every lookup hit is
// decoded into a fresh table, so callers never share mutable state.
type Store struct {
	db     *DB
	logger *slog.Logger
	codec  codec
	owned  bool
}

// NewStore wraps an open database
func NewStore(db *DB) *Store {
	return &Store{db: db, logger: db.logger}
}

// OpenStore opens the database in dir and wraps it. Close releases both.
func OpenStore(dir string, logger *slog.Logger) (*Store, error) {
	db, err := Open(dir, logger)
	if err != nil {
		return nil, err
	}
	s := NewStore(db)
	s.owned = true
	return s, nil
}

// Close releases the compressor and, for OpenStore, the database
func (s *Store) Close() error {
	s.codec.close()
	if s.owned {
		return s.db.Close()
	}
	return nil
}

// Digest returns the hex blake2b-256 digest of a translation unit's source
func Digest(source []byte) string {
	sum := blake2b.Sum256(source)
	return hex.EncodeToString(sum[:])
}

func namespaceOf(kind native.Kind) (string, bool) {
	switch kind.Category() {
	case native.CategoryDefined:
		return NamespaceDefined, true
	case native.CategoryProcedure:
		return NamespaceProcedure, true
	}
	switch kind {
	case native.KindTypeDef:
		return NamespaceTypeDef, true
	case native.KindConstant:
		return NamespaceConstant, true
	}
	return "", false
}

// SaveSymbols upserts top-level declarations in one transaction. It
// implements bag.Saver.
func (s *Store) SaveSymbols(ctx context.Context, table *native.Table, ids []native.SymbolID) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		return s.saveSymbols(ctx, tx, table, ids, nil)
	})
}

// SaveUnit records a translation unit and its declarations. When a unit
// with the same source digest was saved before nothing is written and
// saved is false.
func (s *Store) SaveUnit(ctx context.Context, name string, source []byte, table *native.Table, ids []native.SymbolID) (unit Unit, saved bool, err error) {
	digest := Digest(source)

	existing, err := s.unitByDigest(ctx, digest)
	if err != nil {
		return Unit{}, false, err
	}
	if existing != nil {
		s.logger.Debug("Translation unit unchanged, skipping save", "name", name, "digest", digest)
		return *existing, false, nil
	}

	unit = Unit{
		ID:          uuid.New().String(),
		Name:        name,
		Digest:      digest,
		SymbolCount: len(ids),
		CreatedAt:   time.Now().UTC(),
	}

	err = s.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO translation_units (id, name, digest, symbol_count, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, unit.ID, unit.Name, unit.Digest, unit.SymbolCount, unit.CreatedAt.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("failed to insert translation unit: %w", err)
		}
		return s.saveSymbols(ctx, tx, table, ids, &unit.ID)
	})
	if err != nil {
		return Unit{}, false, err
	}

	s.logger.Info("Saved translation unit", "name", name, "id", unit.ID, "symbols", len(ids))
	return unit, true, nil
}

func (s *Store) saveSymbols(ctx context.Context, tx *sql.Tx, table *native.Table, ids []native.SymbolID, unitID *string) error {
	if table == nil {
		return errors.Newf(errors.InvalidArgument, "table is required")
	}
	now := time.Now().UTC().Format(time.RFC3339)

	for _, id := range ids {
		sym := table.Get(id)
		if sym == nil {
			return errors.Newf(errors.InvalidArgument, "symbol %d is not in the table", id)
		}
		ns, ok := namespaceOf(sym.Kind)
		if !ok || sym.Name == "" {
			return errors.Newf(errors.InvalidArgument, "cannot store %s '%s'", sym.Kind, sym.Name)
		}

		p, err := encodeSymbol(table, id)
		if err != nil {
			return errors.NewCodedError(errors.StorageFailed, fmt.Sprintf("encode '%s'", sym.Name), err)
		}
		data, err := s.codec.marshal(p)
		if err != nil {
			return errors.NewCodedError(errors.StorageFailed, fmt.Sprintf("encode '%s'", sym.Name), err)
		}

		if err := upsertSymbol(ctx, tx, ns, sym.Name, sym.Kind.String(), nil, unitID, data, now); err != nil {
			return err
		}

		if sym.Kind == native.KindEnum {
			for _, m := range sym.Members {
				value := table.Get(m)
				if value == nil || value.Name == "" {
					continue
				}
				if err := upsertSymbol(ctx, tx, NamespaceEnumValue, value.Name, value.Kind.String(), &sym.Name, unitID, nil, now); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func upsertSymbol(ctx context.Context, tx *sql.Tx, ns, name, kind string, owner, unitID *string, data []byte, now string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO symbols (namespace, name, kind, owner, unit_id, payload, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(namespace, name) DO UPDATE SET
			kind = excluded.kind,
			owner = excluded.owner,
			unit_id = excluded.unit_id,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, ns, name, kind, owner, unitID, data, now)
	if err != nil {
		return errors.NewCodedError(errors.StorageFailed, fmt.Sprintf("save %s '%s'", ns, name), err)
	}
	return nil
}

func (s *Store) unitByDigest(ctx context.Context, digest string) (*Unit, error) {
	var (
		u         Unit
		createdAt string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, digest, symbol_count, created_at
		FROM translation_units WHERE digest = ?
	`, digest).Scan(&u.ID, &u.Name, &u.Digest, &u.SymbolCount, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewCodedError(errors.StorageFailed, "query translation unit", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

// Units lists the saved translation units, oldest first
func (s *Store) Units(ctx context.Context) ([]Unit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, digest, symbol_count, created_at
		FROM translation_units ORDER BY created_at, name
	`)
	if err != nil {
		return nil, errors.NewCodedError(errors.StorageFailed, "query translation units", err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		var (
			u         Unit
			createdAt string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Digest, &u.SymbolCount, &createdAt); err != nil {
			return nil, err
		}
		u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		units = append(units, u)
	}
	return units, rows.Err()
}

// Count returns the number of stored symbols, enum values included
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM symbols").Scan(&n); err != nil {
		return 0, errors.NewCodedError(errors.StorageFailed, "count symbols", err)
	}
	return n, nil
}

// Names lists the symbol names of a namespace in alphabetical order
func (s *Store) Names(ctx context.Context, namespace string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM symbols WHERE namespace = ? ORDER BY name", namespace)
	if err != nil {
		return nil, errors.NewCodedError(errors.StorageFailed, "query names", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Load decodes the symbol stored under namespace and name
func (s *Store) Load(ctx context.Context, namespace, name string) (bag.Ref, bool, error) {
	if namespace == NamespaceEnumValue {
		return s.loadEnumValue(ctx, name)
	}

	var data []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM symbols WHERE namespace = ? AND name = ?", namespace, name,
	).Scan(&data)
	if err == sql.ErrNoRows {
		return bag.Ref{}, false, nil
	}
	if err != nil {
		return bag.Ref{}, false, errors.NewCodedError(errors.StorageFailed, fmt.Sprintf("load %s '%s'", namespace, name), err)
	}

	table, id, err := s.decode(data)
	if err != nil {
		return bag.Ref{}, false, errors.NewCodedError(errors.StorageFailed, fmt.Sprintf("decode %s '%s'", namespace, name), err)
	}
	return bag.Ref{Table: table, ID: id}, true, nil
}

// loadEnumValue decodes the owning enum and returns the value inside it
func (s *Store) loadEnumValue(ctx context.Context, name string) (bag.Ref, bool, error) {
	var owner string
	err := s.db.QueryRowContext(ctx,
		"SELECT owner FROM symbols WHERE namespace = ? AND name = ?", NamespaceEnumValue, name,
	).Scan(&owner)
	if err == sql.ErrNoRows {
		return bag.Ref{}, false, nil
	}
	if err != nil {
		return bag.Ref{}, false, errors.NewCodedError(errors.StorageFailed, fmt.Sprintf("load enum value '%s'", name), err)
	}

	enumRef, ok, err := s.Load(ctx, NamespaceDefined, owner)
	if err != nil || !ok {
		return bag.Ref{}, false, err
	}
	for _, m := range enumRef.Symbol().Members {
		if v := enumRef.Table.Get(m); v != nil && v.Name == name {
			return bag.Ref{Table: enumRef.Table, ID: m}, true, nil
		}
	}
	return bag.Ref{}, false, nil
}

func (s *Store) decode(data []byte) (*native.Table, native.SymbolID, error) {
	p, err := s.codec.unmarshal(data)
	if err != nil {
		return nil, native.NoSymbol, err
	}
	return decodeSymbol(p)
}

func (s *Store) first(namespaces []string, name string) (bag.Ref, bool) {
	ctx := context.Background()
	for _, ns := range namespaces {
		ref, ok, err := s.Load(ctx, ns, name)
		if err != nil {
			s.logger.Warn("Symbol lookup failed", "namespace", ns, "name", name, "error", err.Error())
			return bag.Ref{}, false
		}
		if ok {
			return ref, true
		}
	}
	return bag.Ref{}, false
}

// TryGetGlobalSymbol implements bag.Lookup
func (s *Store) TryGetGlobalSymbol(name string) (bag.Ref, bool) {
	return s.first([]string{NamespaceDefined, NamespaceTypeDef, NamespaceProcedure, NamespaceConstant, NamespaceEnumValue}, name)
}

// TryGetType implements bag.Lookup
func (s *Store) TryGetType(name string) (bag.Ref, bool) {
	return s.first([]string{NamespaceDefined, NamespaceTypeDef}, name)
}

// TryGetValue implements bag.Lookup
func (s *Store) TryGetValue(name string) (bag.Ref, bool) {
	return s.first([]string{NamespaceConstant, NamespaceEnumValue}, name)
}
