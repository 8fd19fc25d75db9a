package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	fileNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	slugRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

// Migration is a goose SQL file on disk.
type Migration struct {
	Version int64
	Name    string
	Path    string
}

// List returns the SQL migrations in dir ordered by version. It fails on a
// malformed file name, a repeated version or a file without both goose sections.
func List(dir string) ([]Migration, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("migrations dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations dir %q: %w", dir, err)
	}

	var out []Migration
	byVersion := make(map[int64]string)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".sql" {
			continue
		}
		m, err := parseFile(dir, entry.Name())
		if err != nil {
			return nil, err
		}
		if other, dup := byVersion[m.Version]; dup {
			return nil, fmt.Errorf("version %d used by both %s and %s", m.Version, other, entry.Name())
		}
		byVersion[m.Version] = entry.Name()
		out = append(out, m)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// ValidateDir reports the first problem List finds in dir.
func ValidateDir(dir string) error {
	_, err := List(dir)
	return err
}

func parseFile(dir, file string) (Migration, error) {
	parts := fileNameRe.FindStringSubmatch(file)
	if parts == nil {
		return Migration{}, fmt.Errorf("migration %q: name must look like YYYYMMDDHHMMSS_name.sql", file)
	}
	version, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Migration{}, fmt.Errorf("migration %q: %w", file, err)
	}

	path := filepath.Join(dir, file)
	body, err := os.ReadFile(path)
	if err != nil {
		return Migration{}, fmt.Errorf("reading %q: %w", path, err)
	}
	for _, section := range []string{"-- +goose Up", "-- +goose Down"} {
		if !strings.Contains(string(body), section) {
			return Migration{}, fmt.Errorf("migration %q lacks %q", file, section)
		}
	}

	return Migration{Version: version, Name: parts[2], Path: path}, nil
}

// CreateSQLMigration writes an empty goose migration named after name and returns
// its path. The version is the current UTC time, bumped past the newest existing
// migration so two files created in the same second never collide.
func CreateSQLMigration(dir, name string) (string, error) {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating migrations dir: %w", err)
	}

	existing, err := List(dir)
	if err != nil {
		return "", err
	}
	version, _ := strconv.ParseInt(time.Now().UTC().Format(versionLayout), 10, 64)
	if n := len(existing); n > 0 && existing[n-1].Version >= version {
		version = existing[n-1].Version + 1
	}

	path := filepath.Join(dir, fmt.Sprintf("%d_%s.sql", version, slug))
	body := "-- +goose Up\n-- +goose StatementBegin\n\n-- +goose StatementEnd\n\n" +
		"-- +goose Down\n-- +goose StatementBegin\n\n-- +goose StatementEnd\n"
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("creating %q: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(body); err != nil {
		return "", fmt.Errorf("writing %q: %w", path, err)
	}
	return path, nil
}
