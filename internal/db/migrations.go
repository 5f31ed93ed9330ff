package db

import (
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/ronospace/flowiq/migrations"
)

var (
	migrationNamePattern = regexp.MustCompile(`^(\d+)_.*\.sql$`)
	addColumnPattern     = regexp.MustCompile(`(?i)^ALTER\s+TABLE\s+([^\s]+)\s+ADD\s+COLUMN\s+([^\s]+)\b`)
)

type migrationScript struct {
	Version string
	Order   int
	Name    string
	SQL     string
}

// applyMigrations runs every embedded migration not yet recorded in
// schema_migrations, each in its own transaction. ADD COLUMN statements whose
// column already exists are skipped, so databases created before the script
// existed converge instead of failing.
func applyMigrations(database *gorm.DB) error {
	const createTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	if err := database.Exec(createTable).Error; err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}

	scripts, err := loadMigrationScripts()
	if err != nil {
		return err
	}
	applied, err := appliedVersions(database)
	if err != nil {
		return err
	}

	for _, script := range scripts {
		if applied[script.Version] {
			continue
		}
		if err := runMigrationScript(database, script); err != nil {
			return err
		}
	}
	return nil
}

func loadMigrationScripts() ([]migrationScript, error) {
	entries, err := fs.ReadDir(migrations.Files, ".")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}

	scripts := make([]migrationScript, 0, len(entries))
	seen := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := migrationNamePattern.FindStringSubmatch(entry.Name())
		if len(matches) != 2 {
			continue
		}

		version := matches[1]
		order, err := strconv.Atoi(version)
		if err != nil {
			return nil, fmt.Errorf("parse migration version from %s: %w", entry.Name(), err)
		}
		if previous, exists := seen[version]; exists {
			return nil, fmt.Errorf("duplicate migration version %s in %s and %s", version, previous, entry.Name())
		}
		seen[version] = entry.Name()

		raw, err := fs.ReadFile(migrations.Files, entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		scripts = append(scripts, migrationScript{
			Version: version,
			Order:   order,
			Name:    entry.Name(),
			SQL:     string(raw),
		})
	}

	sort.Slice(scripts, func(i, j int) bool {
		if scripts[i].Order == scripts[j].Order {
			return scripts[i].Name < scripts[j].Name
		}
		return scripts[i].Order < scripts[j].Order
	})
	return scripts, nil
}

func appliedVersions(database *gorm.DB) (map[string]bool, error) {
	rows := make([]struct {
		Version string `gorm:"column:version"`
	}, 0)
	if err := database.Raw(`SELECT version FROM schema_migrations`).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load applied migrations: %w", err)
	}

	applied := make(map[string]bool, len(rows))
	for _, row := range rows {
		applied[row.Version] = true
	}
	return applied, nil
}

func runMigrationScript(database *gorm.DB, script migrationScript) error {
	return database.Transaction(func(tx *gorm.DB) error {
		statements := splitStatements(script.SQL)
		if len(statements) == 0 {
			return fmt.Errorf("migration %s has no statements", script.Name)
		}

		for _, statement := range statements {
			skip, err := columnAlreadyPresent(tx, statement)
			if err != nil {
				return fmt.Errorf("inspect migration %s: %w", script.Name, err)
			}
			if skip {
				continue
			}
			if err := tx.Exec(statement).Error; err != nil {
				return fmt.Errorf("run migration %s statement %q: %w", script.Name, statement, err)
			}
		}

		if err := tx.Exec(
			`INSERT INTO schema_migrations(version, name) VALUES (?, ?)`,
			script.Version,
			script.Name,
		).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", script.Name, err)
		}
		return nil
	})
}

func splitStatements(sqlText string) []string {
	parts := strings.Split(sqlText, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		statement := strings.TrimSpace(part)
		if statement != "" {
			statements = append(statements, statement)
		}
	}
	return statements
}

func columnAlreadyPresent(database *gorm.DB, statement string) (bool, error) {
	matches := addColumnPattern.FindStringSubmatch(strings.TrimSpace(statement))
	if len(matches) != 3 {
		return false, nil
	}
	table := strings.Trim(strings.TrimSpace(matches[1]), "\"`[]")
	column := strings.Trim(strings.TrimSpace(matches[2]), "\"`[]")

	columns := make([]struct {
		Name string `gorm:"column:name"`
	}, 0)
	query := fmt.Sprintf(`PRAGMA table_info("%s")`, strings.ReplaceAll(table, `"`, `""`))
	if err := database.Raw(query).Scan(&columns).Error; err != nil {
		return false, fmt.Errorf("load table_info for %s: %w", table, err)
	}

	for _, existing := range columns {
		if strings.EqualFold(strings.TrimSpace(existing.Name), column) {
			return true, nil
		}
	}
	return false, nil
}
