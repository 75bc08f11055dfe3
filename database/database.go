// Package database, SQLite bağlantısını ve migration sistemini yönetir.
//
// SQLite hem kullanıcı/oturum tablolarını hem de okuma durumu slot'larını
// (kv_slots) tutar. Okuma durumu için Redis backend'i seçildiğinde bile
// kullanıcılar burada kalır.
package database

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strings"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver, CGO gerekmez
)

// MemoryPath, dosyasız (test) veritabanı için kullanılan özel yol.
const MemoryPath = ":memory:"

// recoverableErrors, migration sırasında atlanabilen hata pattern'ları.
// Yarım kalan bir migration tekrar çalıştığında ALTER TABLE ADD COLUMN
// "duplicate column name" döner; kolon zaten var demektir.
var recoverableErrors = []string{
	"duplicate column name",
}

// DB, *sql.DB connection pool'unu saran struct.
type DB struct {
	Conn *sql.DB
}

// New, SQLite bağlantısını açar ve migration'ları uygular.
//
// dbPath MemoryPath ise dosya oluşturulmaz; pool tek bağlantıya
// sınırlanır çünkü her :memory: bağlantısı ayrı bir veritabanıdır.
func New(dbPath string, migrationsFS fs.FS) (*DB, error) {
	dsn := dbPath
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// foreign_keys SQLite'ta varsayılan kapalıdır. WAL eşzamanlı okuma sağlar,
	// busy_timeout ise kısa yazma çakışmalarında SQLITE_BUSY yerine bekletir.
	dsn += "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == MemoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{Conn: conn}

	if err := db.runMigrations(migrationsFS); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Printf("[database] connected (%s) and migrations applied", dbPath)
	return db, nil
}

// Close, bağlantı havuzunu kapatır.
func (db *DB) Close() error {
	return db.Conn.Close()
}

// runMigrations, migrationsFS kökündeki .sql dosyalarını isim sırasıyla
// çalıştırır (001_init.sql, 002_...). Uygulananlar schema_migrations
// tablosuna yazılır ve bir daha çalıştırılmaz.
func (db *DB) runMigrations(migrationsFS fs.FS) error {
	if _, err := db.Conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	sqlFiles, err := listMigrations(migrationsFS)
	if err != nil {
		return err
	}

	applied, err := db.appliedMigrations()
	if err != nil {
		return err
	}

	// Bootstrap: tracking tablosu boş ama şema zaten kurulu (kv_slots var).
	// Eski kurulumda her şeyi uygulanmış say, ALTER TABLE'lar tekrar koşmasın.
	if len(applied) == 0 {
		var tableCount int
		if err := db.Conn.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='kv_slots'",
		).Scan(&tableCount); err != nil {
			return fmt.Errorf("failed to check existing tables: %w", err)
		}

		if tableCount > 0 {
			for _, file := range sqlFiles {
				if err := db.recordMigration(file); err != nil {
					return fmt.Errorf("failed to bootstrap migration %s: %w", file, err)
				}
			}
			log.Printf("[database] bootstrapped %d existing migrations", len(sqlFiles))
			return nil
		}
	}

	for _, file := range sqlFiles {
		if applied[file] {
			continue
		}

		content, err := fs.ReadFile(migrationsFS, file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		if err := db.execStatements(file, string(content)); err != nil {
			return err
		}

		if err := db.recordMigration(file); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", file, err)
		}

		log.Printf("[database] migration applied: %s", file)
	}

	return nil
}

// listMigrations, FS kökündeki .sql dosyalarını sıralı döner.
func listMigrations(migrationsFS fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(migrationsFS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	slices.Sort(files)
	return files, nil
}

func (db *DB) appliedMigrations() (map[string]bool, error) {
	rows, err := db.Conn.Query("SELECT filename FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query schema_migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan migration row: %w", err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}

func (db *DB) recordMigration(file string) error {
	_, err := db.Conn.Exec("INSERT INTO schema_migrations (filename) VALUES (?)", file)
	return err
}

// execStatements, migration'ı statement statement çalıştırır.
// recoverableErrors'taki hatalar loglanıp atlanır.
func (db *DB) execStatements(filename, content string) error {
	for i, stmt := range splitStatements(content) {
		if _, err := db.Conn.Exec(stmt); err != nil {
			errMsg := err.Error()
			if slices.ContainsFunc(recoverableErrors, func(p string) bool {
				return strings.Contains(errMsg, p)
			}) {
				log.Printf("[database] %s: statement %d skipped (recoverable: %s)", filename, i+1, errMsg)
				continue
			}
			return fmt.Errorf("failed to execute migration %s (statement %d): %w", filename, i+1, err)
		}
	}
	return nil
}

// splitStatements, SQL metnini ';' ile böler. Tek tırnaklı string
// literal'lerin içindeki ';' ve '--' satır yorumları dikkate alınmaz.
func splitStatements(sql string) []string {
	var statements []string
	var current strings.Builder
	inString := false

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			statements = append(statements, s)
		}
		current.Reset()
	}

	for i := 0; i < len(sql); i++ {
		ch := sql[i]

		// Satır yorumu: satır sonuna kadar atla
		if !inString && ch == '-' && i+1 < len(sql) && sql[i+1] == '-' {
			for i < len(sql) && sql[i] != '\n' {
				i++
			}
			current.WriteByte('\n')
			continue
		}

		if ch == '\'' {
			// '' escape
			if inString && i+1 < len(sql) && sql[i+1] == '\'' {
				current.WriteString("''")
				i++
				continue
			}
			inString = !inString
		}

		if ch == ';' && !inString {
			flush()
			continue
		}

		current.WriteByte(ch)
	}
	flush()

	return statements
}
