package database

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrations, gömülü migration dosyalarını kök dizinde sunan FS döner.
func Migrations() fs.FS {
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		// Sadece pattern derleme zamanında yanlışsa olur.
		panic(fmt.Sprintf("database: embedded migrations: %v", err))
	}
	return sub
}
