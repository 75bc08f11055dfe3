package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/akinalp/feedmark/pkg"
)

// Pinger, health check'te erişilebilirliği kontrol edilen bağımlılık
// (SQLite *sql.DB, Redis client adaptörü).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse, GET /api/health yanıtı.
type HealthResponse struct {
	Status       string `json:"status"`
	StoreBackend string `json:"store_backend"`
}

// HealthHandler, auth gerektirmeyen health endpoint'i.
type HealthHandler struct {
	backend string
	checks  map[string]Pinger
}

// NewHealthHandler, constructor. checks boş olabilir.
func NewHealthHandler(backend string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{backend: backend, checks: checks}
}

// Health godoc
// GET /api/health
// Bağımlılıklardan biri 2 saniye içinde cevap vermezse 503 döner.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, p := range h.checks {
		if err := p.PingContext(ctx); err != nil {
			pkg.ErrorWithMessage(w, http.StatusServiceUnavailable, name+" unavailable")
			return
		}
	}

	pkg.JSON(w, http.StatusOK, HealthResponse{Status: "ok", StoreBackend: h.backend})
}
