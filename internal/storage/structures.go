package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"mvnsrc-cli/internal/coordinate"
	"mvnsrc-cli/internal/domain"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// StructureStore keeps dependency structures keyed by repository root and
// "group:artifact:version". Each row carries a fingerprint of the version
// directory it was computed from; a row whose directory changed on disk is
// treated as absent.
type StructureStore struct {
	db     *DB
	logger *zap.Logger
}

func NewStructureStore(db *DB, logger *zap.Logger) *StructureStore {
	return &StructureStore{db: db, logger: logger}
}

// Load returns the stored structure for coord under root when its version
// directory is unchanged.
func (s *StructureStore) Load(ctx context.Context, root string, coord domain.Coordinate) (*domain.DependencyStructure, bool, error) {
	root = filepath.Clean(root)
	key := coord.Key()

	var fingerprint, payload string
	err := s.db.conn.QueryRowContext(ctx,
		"SELECT fingerprint, payload_json FROM structures WHERE root = ? AND key = ?", root, key,
	).Scan(&fingerprint, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load structure %s: %w", key, err)
	}

	var structure domain.DependencyStructure
	if err := json.Unmarshal([]byte(payload), &structure); err != nil {
		s.logger.Warn("Discarding corrupt structure row", zap.String("key", key), zap.Error(err))
		return nil, false, s.Delete(ctx, root, coord)
	}

	if Fingerprint(root, coord) != fingerprint {
		s.logger.Debug("Stored structure is stale", zap.String("root", root), zap.String("key", key))
		return nil, false, s.Delete(ctx, root, coord)
	}
	return &structure, true, nil
}

// Save upserts a structure under root and its coordinate key.
func (s *StructureStore) Save(ctx context.Context, root string, structure *domain.DependencyStructure) error {
	root = filepath.Clean(root)
	payload, err := json.Marshal(structure)
	if err != nil {
		return fmt.Errorf("failed to encode structure: %w", err)
	}

	return s.db.WithTx(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO structures (root, key, fingerprint, payload_json, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(root, key) DO UPDATE SET
				fingerprint = excluded.fingerprint,
				payload_json = excluded.payload_json,
				updated_at = excluded.updated_at
		`, root, structure.Key(), Fingerprint(root, structure.Coordinate), string(payload), time.Now().UTC().Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("failed to save structure %s: %w", structure.Key(), err)
		}
		return nil
	})
}

func (s *StructureStore) Delete(ctx context.Context, root string, coord domain.Coordinate) error {
	_, err := s.db.conn.ExecContext(ctx,
		"DELETE FROM structures WHERE root = ? AND key = ?", filepath.Clean(root), coord.Key())
	if err != nil {
		return fmt.Errorf("failed to delete structure %s: %w", coord.Key(), err)
	}
	return nil
}

func (s *StructureStore) Clear(ctx context.Context) error {
	if _, err := s.db.conn.ExecContext(ctx, "DELETE FROM structures"); err != nil {
		return fmt.Errorf("failed to clear structures: %w", err)
	}
	return nil
}

// Count returns the number of stored rows.
func (s *StructureStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM structures").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count structures: %w", err)
	}
	return n, nil
}

// Fingerprint summarises name, size and modification time of every archive in
// the version directory of coord. Adding, removing or rewriting an archive
// changes it.
func Fingerprint(root string, coord domain.Coordinate) string {
	dir := coordinate.VersionDir(root, coord.GroupID, coord.ArtifactID, coord.Version)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "missing"
	}

	tokens := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), coordinate.ArchiveExt) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			tokens = append(tokens, entry.Name()+":missing")
			continue
		}
		tokens = append(tokens, fmt.Sprintf("%s:%d:%d", entry.Name(), info.Size(), info.ModTime().UnixNano()))
	}
	return strings.Join(tokens, "|")
}

// NullStore is a StructureStore that keeps nothing.
type NullStore struct{}

func (NullStore) Load(context.Context, string, domain.Coordinate) (*domain.DependencyStructure, bool, error) {
	return nil, false, nil
}

func (NullStore) Save(context.Context, string, *domain.DependencyStructure) error { return nil }

func (NullStore) Delete(context.Context, string, domain.Coordinate) error { return nil }

func (NullStore) Clear(context.Context) error { return nil }
