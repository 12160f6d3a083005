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

	"go.uber.org/multierr"
)

const (
	versionLayout = "20060102150405"

	annotationUp    = "-- +goose Up"
	annotationDown  = "-- +goose Down"
	annotationBegin = "-- +goose StatementBegin"
	annotationEnd   = "-- +goose StatementEnd"
)

var (
	fileNameRe   = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)
	nameSafeRe   = regexp.MustCompile(`[^a-z0-9]+`)
	nowForCreate = time.Now
)

type migrationFile struct {
	version int64
	name    string
}

// ValidateDir checks every .sql file in dir and reports all problems at once:
// file names, duplicate versions, Up before Down, balanced statement blocks.
func ValidateDir(dir string) error {
	files, err := listMigrations(dir)
	if err != nil {
		return err
	}

	var errs error
	seen := make(map[int64]string, len(files))
	for _, f := range files {
		if f.version == 0 {
			errs = multierr.Append(errs, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", f.name))
			continue
		}
		if prev, ok := seen[f.version]; ok {
			errs = multierr.Append(errs, fmt.Errorf("duplicate migration version %d in %q and %q", f.version, prev, f.name))
		}
		seen[f.version] = f.name

		body, err := os.ReadFile(filepath.Join(dir, f.name))
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("read %q: %w", f.name, err))
			continue
		}
		errs = multierr.Append(errs, checkAnnotations(f.name, string(body)))
	}
	return errs
}

func checkAnnotations(name, body string) error {
	up := strings.Index(body, annotationUp)
	down := strings.Index(body, annotationDown)
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing %q", name, annotationUp)
	case down < 0:
		return fmt.Errorf("migration %q missing %q", name, annotationDown)
	case down < up:
		return fmt.Errorf("migration %q has %q before %q", name, annotationDown, annotationUp)
	}

	open := false
	for i, line := range strings.Split(body, "\n") {
		switch strings.TrimSpace(line) {
		case annotationBegin:
			if open {
				return fmt.Errorf("migration %q line %d: nested StatementBegin", name, i+1)
			}
			open = true
		case annotationEnd:
			if !open {
				return fmt.Errorf("migration %q line %d: StatementEnd without StatementBegin", name, i+1)
			}
			open = false
		case annotationDown:
			if open {
				return fmt.Errorf("migration %q line %d: Down inside an open statement", name, i+1)
			}
		}
	}
	if open {
		return fmt.Errorf("migration %q: unterminated StatementBegin", name)
	}
	return nil
}

// CreateSQLMigration writes an empty goose migration named <version>_<name>.sql.
// The version is the current UTC time, bumped past the newest existing file.
func CreateSQLMigration(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	safe := strings.Trim(nameSafeRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	files, err := listMigrations(dir)
	if err != nil {
		return "", err
	}
	version, _ := strconv.ParseInt(nowForCreate().UTC().Format(versionLayout), 10, 64)
	if n := len(files); n > 0 && files[n-1].version >= version {
		version = files[n-1].version + 1
	}

	path := filepath.Join(dir, fmt.Sprintf("%d_%s.sql", version, safe))
	body := fmt.Sprintf("%s\n%s\n-- %s\n%s\n\n%s\n%s\n-- rollback %s\n%s\n",
		annotationUp, annotationBegin, safe, annotationEnd,
		annotationDown, annotationBegin, safe, annotationEnd)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create migration %q: %w", path, err)
	}
	if _, err := f.WriteString(body); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write migration %q: %w", path, err)
	}
	return path, f.Close()
}

// listMigrations returns the .sql files of dir sorted by version; files with
// malformed names sort first with version 0.
func listMigrations(dir string) ([]migrationFile, error) {
	if dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}
	files := make([]migrationFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		f := migrationFile{name: e.Name()}
		if m := fileNameRe.FindStringSubmatch(e.Name()); m != nil {
			f.version, _ = strconv.ParseInt(m[1], 10, 64)
		}
		files = append(files, f)
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].version < files[j].version })
	return files, nil
}
