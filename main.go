// Package main, feedmark backend uygulamasının giriş noktasıdır.
//
// Bu dosyanın görevi Dependency Injection "wire-up":
//  1. Config'i yükle
//  2. Database'i başlat (gömülü migration'lar)
//  3. Repository'leri ve okuma durumu backend'ini oluştur
//  4. Service'leri ve rate limiter'ları oluştur
//  5. Handler'ları oluştur, route'ları bağla
//  6. CORS yapılandır
//  7. HTTP Server'ı başlat
//  8. Graceful shutdown
//
// Global değişken YOK; her şey bu fonksiyonda oluşturulup birbirine bağlanıyor.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/feedmark/config"
	"github.com/akinalp/feedmark/database"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] feedmark server starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	log.Printf("[main] config loaded (port=%d, backend=%s)", cfg.Server.Port, cfg.Store.Backend)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ─── 2. Database ───
	db, err := database.New(cfg.Database.Path, database.Migrations())
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Repository Layer ───
	repos, err := initRepositories(ctx, db, cfg)
	if err != nil {
		log.Fatalf("[main] failed to initialize repositories: %v", err)
	}
	defer repos.Close()

	// ─── 4. Service Layer ───
	svcs, limiters := initServices(repos, cfg)
	defer limiters.Close()

	startSessionPurge(ctx, svcs.Auth)

	// ─── 5. Handlers + Routes ───
	h := initHandlers(svcs, repos, limiters, cfg)

	mux := http.NewServeMux()
	initRoutes(mux, h, svcs.Auth, limiters)

	// ─── 6. CORS ───
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: true,
	})

	// ─── 7. HTTP Server ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("[main] server listening on %s", cfg.Server.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// ─── 8. Graceful Shutdown ───
	select {
	case <-ctx.Done():
		log.Println("[main] shutting down...")
	case err := <-serverErr:
		log.Printf("[main] server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] forced shutdown: %v", err)
		return
	}

	log.Println("[main] server stopped gracefully")
}
