// Package repository, veri erişim katmanını tanımlar.
//
// Service katmanı doğrudan SQL veya Redis komutu yazmaz; buradaki
// interface'ler üzerinden çalışır. Her interface'in bir SQLite
// implementasyonu vardır, okuma durumu deposunun ayrıca Redis ve bellek
// implementasyonları bulunur.
package repository

import (
	"context"

	"github.com/akinalp/feedmark/models"
)

// UserRepository, kullanıcı veritabanı işlemleri için interface.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Count(ctx context.Context) (int, error)
	// Delete, kullanıcıyı siler. FK cascade ile oturumları da silinir;
	// okuma durumu slot'ları ayrı depoda olduğu için service temizler.
	Delete(ctx context.Context, id string) error
}
