// Package schema holds the embedded database migrations for the
// cleanroom runs/checks schema and the validation logic applied to
// them before any migration is allowed to run. It is imported both by
// the migrator CLI and by internal/service's DatabaseContainerPlugin.
package schema

import (
	"crypto/sha256"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

// MigrationSet wraps the embedded schema migration files for the
// cleanroom database plugin, validating filename format, up/down
// pairing, sequence continuity, and checksum integrity before any
// migration is allowed to run.
type MigrationSet struct {
	fs        fs.FS
	checksums map[string]string
}

// migrationFile is one parsed NNN_name.(up|down).sql filename.
type migrationFile struct {
	Sequence  int
	Name      string
	Direction string
	Filename  string
}

//go:embed *.sql
var embeddedMigrations embed.FS

var migrationFilenameRegex = regexp.MustCompile(`^(\d{3})_([a-zA-Z0-9_]+)\.(up|down)\.sql$`)

// NewMigrationSet wraps filesystem with validation helpers. Passing nil
// uses the binary's own embedded *.sql files.
func NewMigrationSet(filesystem fs.FS) *MigrationSet {
	if filesystem == nil {
		filesystem = embeddedMigrations
	}

	return &MigrationSet{fs: filesystem, checksums: make(map[string]string)}
}

// FS returns the underlying filesystem, for handing to iofs.New.
func (m *MigrationSet) FS() fs.FS {
	return m.fs
}

// ListFiles returns every embedded *.sql file matching the naming
// convention, lexicographically sorted (which is also sequence order).
func (m *MigrationSet) ListFiles() ([]string, error) {
	entries, err := fs.ReadDir(m.fs, ".")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}

	var files []string

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if filepath.Ext(name) == ".sql" && migrationFilenameRegex.MatchString(name) {
			files = append(files, name)
		}
	}

	sort.Strings(files)

	return files, nil
}

// Validate checks filename format, up/down pairing, sequence
// continuity starting at 001, and (on repeat calls) that no previously
// seen file's content has changed underneath it.
func (m *MigrationSet) Validate() error {
	files, err := m.ListFiles()
	if err != nil {
		return err
	}

	if len(files) == 0 {
		return fmt.Errorf("no embedded migration files found")
	}

	parsed := make([]migrationFile, 0, len(files))

	for _, f := range files {
		mf, err := parseMigrationFilename(f)
		if err != nil {
			return err
		}

		parsed = append(parsed, mf)
	}

	if err := validatePairing(parsed); err != nil {
		return err
	}

	if err := validateSequence(parsed); err != nil {
		return err
	}

	for _, f := range files {
		content, err := fs.ReadFile(m.fs, f)
		if err != nil {
			return fmt.Errorf("read migration file %s: %w", f, err)
		}

		sum := fmt.Sprintf("%x", sha256.Sum256(content))

		if prior, seen := m.checksums[f]; seen && prior != sum {
			return fmt.Errorf("checksum mismatch for %s: file changed after first read", f)
		}

		m.checksums[f] = sum
	}

	return nil
}

// HighestSequence returns the largest migration sequence number among
// the embedded files, or 0 if none are present.
func (m *MigrationSet) HighestSequence() int {
	files, err := m.ListFiles()
	if err != nil {
		return 0
	}

	max := 0

	for _, f := range files {
		if mf, err := parseMigrationFilename(f); err == nil && mf.Sequence > max {
			max = mf.Sequence
		}
	}

	return max
}

func parseMigrationFilename(filename string) (migrationFile, error) {
	matches := migrationFilenameRegex.FindStringSubmatch(filename)
	if len(matches) != 4 {
		return migrationFile{}, fmt.Errorf(
			"invalid migration filename %q (want NNN_name.up.sql or NNN_name.down.sql)", filename,
		)
	}

	sequence, err := strconv.Atoi(matches[1])
	if err != nil {
		return migrationFile{}, fmt.Errorf("invalid sequence in %q: %w", filename, err)
	}

	return migrationFile{Sequence: sequence, Name: matches[2], Direction: matches[3], Filename: filename}, nil
}

func validatePairing(files []migrationFile) error {
	byKey := make(map[string]map[string]bool)

	for _, f := range files {
		key := fmt.Sprintf("%03d_%s", f.Sequence, f.Name)
		if byKey[key] == nil {
			byKey[key] = make(map[string]bool)
		}

		byKey[key][f.Direction] = true
	}

	for key, directions := range byKey {
		if !directions["up"] {
			return fmt.Errorf("orphaned down migration: missing up migration for %s", key)
		}

		if !directions["down"] {
			return fmt.Errorf("orphaned up migration: missing down migration for %s", key)
		}
	}

	return nil
}

func validateSequence(files []migrationFile) error {
	seen := make(map[int]bool)
	for _, f := range files {
		seen[f.Sequence] = true
	}

	sequences := make([]int, 0, len(seen))
	for s := range seen {
		sequences = append(sequences, s)
	}

	sort.Ints(sequences)

	if len(sequences) == 0 {
		return nil
	}

	if sequences[0] != 1 {
		return fmt.Errorf("migration sequence must start at 001, found %03d", sequences[0])
	}

	for i := 1; i < len(sequences); i++ {
		if sequences[i] != sequences[i-1]+1 {
			return fmt.Errorf("gap in migration sequence: expected %03d, found %03d", sequences[i-1]+1, sequences[i])
		}
	}

	return nil
}
