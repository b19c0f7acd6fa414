package store

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"go.etcd.io/bbolt"
)

// CurrentSchemaVersion is the current schema version.
// Increment this when making breaking changes to the storage format.
const CurrentSchemaVersion = 2

var keySchemaVersion = []byte("schema_version")

// SchemaInfo is what the meta bucket records about the layout.
type SchemaInfo struct {
	Version int `json:"version"`
}

// GetSchemaInfo retrieves the current schema info from the database.
func (s *BoltStore) GetSchemaInfo() (*SchemaInfo, error) {
	var info SchemaInfo
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if b == nil {
			return nil
		}
		if data := b.Get(keySchemaVersion); data != nil {
			if err := json.Unmarshal(data, &info.Version); err != nil {
				info.Version = 1
			}
		}
		return nil
	})
	return &info, err
}

// SetSchemaInfo stores the schema info in the database.
func (s *BoltStore) SetSchemaInfo(info *SchemaInfo) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := json.Marshal(info.Version)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketMeta).Put(keySchemaVersion, data)
	})
}

// MigrationResult describes the result of a migration check.
type MigrationResult struct {
	NeedsMigration bool
	Unsupported    bool
	OldVersion     int
	NewVersion     int
	Reason         string
}

// CheckMigration reports whether the database needs upgrading or was
// written by a newer release.
func (s *BoltStore) CheckMigration() (*MigrationResult, error) {
	info, err := s.GetSchemaInfo()
	if err != nil {
		return nil, fmt.Errorf("failed to get schema info: %w", err)
	}

	result := &MigrationResult{
		OldVersion: info.Version,
		NewVersion: CurrentSchemaVersion,
	}

	switch {
	case info.Version == 0:
		result.NeedsMigration = true
		result.Reason = "initializing schema version"
	case info.Version < CurrentSchemaVersion:
		result.NeedsMigration = true
		result.Reason = fmt.Sprintf("schema upgrade from v%d to v%d", info.Version, CurrentSchemaVersion)
	case info.Version > CurrentSchemaVersion:
		result.Unsupported = true
		result.Reason = fmt.Sprintf("database created by newer version (v%d > v%d)", info.Version, CurrentSchemaVersion)
	}
	return result, nil
}

// Migrate performs any necessary schema migrations.
func (s *BoltStore) Migrate() error {
	check, err := s.CheckMigration()
	if err != nil {
		return err
	}
	if check.Unsupported {
		return fmt.Errorf("cannot open store: %s", check.Reason)
	}
	if !check.NeedsMigration {
		return nil
	}

	slog.Debug("migrating store", "reason", check.Reason)
	for v := check.OldVersion; v < CurrentSchemaVersion; v++ {
		if err := s.runMigration(v, v+1); err != nil {
			return fmt.Errorf("migration from v%d to v%d failed: %w", v, v+1, err)
		}
	}
	return s.SetSchemaInfo(&SchemaInfo{Version: CurrentSchemaVersion})
}

// runMigration runs a specific version migration.
func (s *BoltStore) runMigration(from, to int) error {
	switch {
	case from == 0 && to == 1:
		return nil
	case from == 1 && to == 2:
		// v1 did not persist profile snapshots.
		return s.db.Update(func(tx *bbolt.Tx) error {
			users := tx.Bucket(bucketUsers)
			var names [][]byte
			err := users.ForEach(func(k, v []byte) error {
				if v == nil {
					names = append(names, append([]byte(nil), k...))
				}
				return nil
			})
			if err != nil {
				return err
			}
			for _, name := range names {
				if _, err := users.Bucket(name).CreateBucketIfNotExists(bucketProfileHistory); err != nil {
					return err
				}
			}
			return nil
		})
	default:
		return nil
	}
}
