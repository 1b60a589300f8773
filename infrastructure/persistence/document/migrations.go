package document

import (
	"fmt"
	"time"
)

// LegacyVersion is the version assumed for documents without a version field.
const LegacyVersion = "0"

// Migration upgrades a raw document from one version to the next
type Migration struct {
	FromVersion string
	ToVersion   string
	Description string
	Up          MigrationFunc
}

// MigrationFunc rewrites a raw document in place
type MigrationFunc func(doc *RawDocument) error

// AppliedMigration records one step taken by Migrate
type AppliedMigration struct {
	FromVersion string
	ToVersion   string
	Description string
	AppliedAt   time.Time
}

// Migrator manages document schema evolution
type Migrator struct {
	migrations map[string]Migration
	history    []AppliedMigration
}

// NewMigrator creates an empty migrator
func NewMigrator() *Migrator {
	return &Migrator{migrations: make(map[string]Migration)}
}

// RegisterMigration registers a new migration
func (m *Migrator) RegisterMigration(migration Migration) error {
	if migration.FromVersion == migration.ToVersion {
		return fmt.Errorf("invalid migration: from and to version are both %s", migration.FromVersion)
	}
	if migration.Up == nil {
		return fmt.Errorf("migration %s->%s has no Up step", migration.FromVersion, migration.ToVersion)
	}
	if _, exists := m.migrations[migration.FromVersion]; exists {
		return fmt.Errorf("migration from %s already exists", migration.FromVersion)
	}
	m.migrations[migration.FromVersion] = migration
	return nil
}

// Migrate walks registered migrations from the document's version until
// target is reached. A version with no registered step is left as is so
// documents written by newer releases still load.
func (m *Migrator) Migrate(doc *RawDocument, target string) error {
	current := LegacyVersion
	if doc.Version != nil && *doc.Version != "" {
		current = *doc.Version
	}

	seen := map[string]bool{}
	for current != target {
		if seen[current] {
			return fmt.Errorf("migration cycle at version %s", current)
		}
		seen[current] = true

		migration, ok := m.migrations[current]
		if !ok {
			return nil
		}
		if err := migration.Up(doc); err != nil {
			return fmt.Errorf("migration %s->%s failed: %w", migration.FromVersion, migration.ToVersion, err)
		}

		next := migration.ToVersion
		doc.Version = &next
		m.history = append(m.history, AppliedMigration{
			FromVersion: migration.FromVersion,
			ToVersion:   migration.ToVersion,
			Description: migration.Description,
			AppliedAt:   time.Now(),
		})
		current = next
	}
	return nil
}

// History returns the steps applied so far
func (m *Migrator) History() []AppliedMigration {
	return m.history
}

// DefaultMigrator returns the migrations known to this release, ending at
// currentVersion.
func DefaultMigrator(currentVersion string) *Migrator {
	m := NewMigrator()
	_ = m.RegisterMigration(Migration{
		FromVersion: LegacyVersion,
		ToVersion:   currentVersion,
		Description: "stamp unversioned documents and assign missing media ids",
		Up:          assignMediaIDs,
	})
	return m
}

func assignMediaIDs(doc *RawDocument) error {
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		owner := "node"
		if n.ID != nil {
			owner = *n.ID
		}
		for j := range n.Media {
			if n.Media[j].ID == "" {
				n.Media[j].ID = fmt.Sprintf("%s-media-%d", owner, j+1)
			}
		}
	}
	return nil
}
