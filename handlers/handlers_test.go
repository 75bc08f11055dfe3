package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/feedmark/database"
	"github.com/akinalp/feedmark/models"
	"github.com/akinalp/feedmark/repository"
	"github.com/akinalp/feedmark/services"
)

// envelope, pkg.JSON zarfının test tarafı; Data sonradan çözülür.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testEnv struct {
	auth      services.AuthService
	readState services.ReadStateService
	users     repository.UserRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(database.MemoryPath, database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	users := repository.NewSQLiteUserRepo(db.Conn)
	slots := repository.NewSQLiteKVRepo(db.Conn)
	return &testEnv{
		auth: services.NewAuthService(users, repository.NewSQLiteSessionRepo(db.Conn), slots, services.AuthOptions{
			JWTSecret:  "handler-test-secret",
			AccessExp:  15 * time.Minute,
			RefreshExp: time.Hour,
			BcryptCost: bcrypt.MinCost,
		}),
		readState: services.NewReadStateService(slots),
		users:     users,
	}
}

func (e *testEnv) registerUser(t *testing.T, username string) *services.AuthTokens {
	t.Helper()
	tokens, err := e.auth.Register(context.Background(), &models.CreateUserRequest{
		Username: username,
		Password: "password123",
	}, "test")
	require.NoError(t, err)
	return tokens
}

// asUser, auth middleware'ın yaptığı gibi kullanıcıyı context'e koyar.
func asUser(user *models.User, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fn(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}
