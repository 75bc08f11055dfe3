// Package config, uygulamanın tüm konfigürasyonunu merkezi olarak yönetir.
// Environment variable'lardan okur, .env dosyasını da destekler.
//
// Alanlar struct tag'leriyle tanımlanır (caarlos0/env): `env` değişkenin
// adı, `envDefault` yoksa kullanılacak değer, `envPrefix` alt bölümün ön eki.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Okuma durumu backend'leri.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config, uygulamanın tüm konfigürasyon değerlerini taşır.
type Config struct {
	Server    ServerConfig    `envPrefix:"SERVER_"`
	Database  DatabaseConfig  `envPrefix:"DATABASE_"`
	JWT       JWTConfig       `envPrefix:"JWT_"`
	Store     StoreConfig     `envPrefix:"STORE_"`
	Redis     RedisConfig     `envPrefix:"REDIS_"`
	RateLimit RateLimitConfig `envPrefix:"RATE_LIMIT_"`
}

// ServerConfig, HTTP server ayarları.
type ServerConfig struct {
	Host        string   `env:"HOST" envDefault:"0.0.0.0"`
	Port        int      `env:"PORT" envDefault:"9090"`
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
}

// DatabaseConfig, SQLite database ayarları.
type DatabaseConfig struct {
	Path string `env:"PATH" envDefault:"./data/feedmark.db"` // ":memory:" da olabilir
}

// JWTConfig, JWT token ayarları.
type JWTConfig struct {
	Secret             string `env:"SECRET,required,notEmpty"` // GİZLİ TUTULMALI
	AccessTokenExpiry  int    `env:"ACCESS_EXPIRY_MINUTES" envDefault:"15"`
	RefreshTokenExpiry int    `env:"REFRESH_EXPIRY_DAYS" envDefault:"7"`
	BcryptCost         int    `env:"BCRYPT_COST" envDefault:"12"`
}

// StoreConfig, okuma durumu slot'larının nerede tutulacağı.
// CacheTTL sıfırsa cache katmanı kullanılmaz.
type StoreConfig struct {
	Backend  string        `env:"BACKEND" envDefault:"sqlite"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"30s"`
}

// RedisConfig, STORE_BACKEND=redis iken kullanılır.
type RedisConfig struct {
	Addr      string `env:"ADDR" envDefault:"localhost:6379"`
	Password  string `env:"PASSWORD"`
	DB        int    `env:"DB" envDefault:"0"`
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"feedmark:readstate:"`
}

// RateLimitConfig, login ve yazma endpoint'lerinin limitleri.
// MutationMax sıfırsa yazma limiti kapalıdır.
type RateLimitConfig struct {
	LoginAttempts    int           `env:"LOGIN_ATTEMPTS" envDefault:"5"`
	LoginWindow      time.Duration `env:"LOGIN_WINDOW" envDefault:"5m"`
	MutationMax      int           `env:"MUTATION_MAX" envDefault:"120"`
	MutationWindow   time.Duration `env:"MUTATION_WINDOW" envDefault:"10s"`
	MutationCooldown time.Duration `env:"MUTATION_COOLDOWN" envDefault:"30s"`
}

// Load, .env dosyasını (varsa) ve environment variable'ları okuyup
// doğrulanmış Config döner.
func Load() (*Config, error) {
	// .env yoksa hata vermez. Gerçek env variable'lar .env'i ezer.
	_ = godotenv.Load()

	return Parse()
}

// Parse, sadece mevcut environment'tan Config oluşturur (.env okunmaz).
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate, env'den gelen değerlerin tutarlılığını kontrol eder.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("DATABASE_PATH must not be empty"))
	}
	if c.JWT.AccessTokenExpiry < 1 {
		errs = append(errs, errors.New("JWT_ACCESS_EXPIRY_MINUTES must be positive"))
	}
	if c.JWT.RefreshTokenExpiry < 1 {
		errs = append(errs, errors.New("JWT_REFRESH_EXPIRY_DAYS must be positive"))
	}
	if c.JWT.BcryptCost < 4 || c.JWT.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("JWT_BCRYPT_COST must be between 4 and 31, got %d", c.JWT.BcryptCost))
	}

	switch c.Store.Backend {
	case BackendSQLite, BackendMemory:
	case BackendRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when STORE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be one of sqlite, redis, memory, got %q", c.Store.Backend))
	}
	if c.Store.CacheTTL < 0 {
		errs = append(errs, errors.New("STORE_CACHE_TTL must not be negative"))
	}

	if c.RateLimit.LoginAttempts < 1 || c.RateLimit.LoginWindow <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_LOGIN_ATTEMPTS and RATE_LIMIT_LOGIN_WINDOW must be positive"))
	}
	if c.RateLimit.MutationMax < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_MUTATION_MAX must not be negative"))
	}
	if c.RateLimit.MutationMax > 0 && (c.RateLimit.MutationWindow <= 0 || c.RateLimit.MutationCooldown <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_MUTATION_WINDOW and RATE_LIMIT_MUTATION_COOLDOWN must be positive"))
	}

	return errors.Join(errs...)
}

// Addr, HTTP server'ın dinleyeceği adresi döner (ör: "0.0.0.0:9090").
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AccessExpiry ve RefreshExpiry, JWT ömürlerini time.Duration olarak döner.
func (c *JWTConfig) AccessExpiry() time.Duration {
	return time.Duration(c.AccessTokenExpiry) * time.Minute
}

func (c *JWTConfig) RefreshExpiry() time.Duration {
	return time.Duration(c.RefreshTokenExpiry) * 24 * time.Hour
}
