// Package services, iş mantığı katmanını barındırır.
//
// Handler (HTTP) ile repository (depo) arasında oturur. Service
// http.Request bilmez, doğrudan SQL de çalıştırmaz; repository
// interface'leri üzerinden çalışır ve domain error'ları (pkg.Err*) döner.
package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/feedmark/models"
	"github.com/akinalp/feedmark/pkg"
	"github.com/akinalp/feedmark/repository"
)

// TokenIssuer, access token'ların iss claim'i.
const TokenIssuer = "feedmark"

// AuthService interface'i. Handler ve middleware buna bağımlıdır.
type AuthService interface {
	Register(ctx context.Context, req *models.CreateUserRequest, userAgent string) (*AuthTokens, error)
	Login(ctx context.Context, req *models.LoginRequest, userAgent string) (*AuthTokens, error)
	RefreshToken(ctx context.Context, refreshToken, userAgent string) (*AuthTokens, error)
	Logout(ctx context.Context, refreshToken string) error
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
	Me(ctx context.Context, userID string) (*models.User, error)
	// DeleteAccount, şifre doğrulandıktan sonra kullanıcıyı, oturumlarını
	// ve okuma durumu namespace'ini siler.
	DeleteAccount(ctx context.Context, userID, password string) error
	// PurgeExpiredSessions, süresi dolmuş refresh oturumlarını temizler.
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// AuthTokens, login/register/refresh sonrası dönen token çifti.
type AuthTokens struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"` // access token ömrü, saniye
	User         models.User `json:"user"`
}

// AuthOptions, token ömürleri ve bcrypt maliyeti.
type AuthOptions struct {
	JWTSecret  string
	AccessExp  time.Duration
	RefreshExp time.Duration
	BcryptCost int
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	slots       repository.KVRepository
	jwtSecret   []byte
	accessExp   time.Duration
	refreshExp  time.Duration
	bcryptCost  int
	now         func() time.Time
}

// NewAuthService, constructor. slots, hesap silinirken okuma durumu
// namespace'inin temizlendiği depodur.
func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	slots repository.KVRepository,
	opts AuthOptions,
) AuthService {
	cost := opts.BcryptCost
	if cost == 0 {
		cost = 12
	}

	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		slots:       slots,
		jwtSecret:   []byte(opts.JWTSecret),
		accessExp:   opts.AccessExp,
		refreshExp:  opts.RefreshExp,
		bcryptCost:  cost,
		now:         time.Now,
	}
}

// Register, yeni kullanıcı oluşturur ve ilk oturumu açar.
func (s *authService) Register(ctx context.Context, req *models.CreateUserRequest, userAgent string) (*AuthTokens, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var displayName *string
	if req.DisplayName != "" {
		displayName = &req.DisplayName
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err // ErrAlreadyExists olabilir
	}

	log.Printf("[auth] user registered: %s (%s)", user.Username, user.ID)
	return s.generateTokens(ctx, user, userAgent)
}

// Login, kullanıcı adı + şifre ile giriş yapar. Kullanıcı yoksa da aynı
// hata döner; hangi alanın yanlış olduğu belli edilmez.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest, userAgent string) (*AuthTokens, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
	}

	return s.generateTokens(ctx, user, userAgent)
}

// RefreshToken, refresh token'ı döndürür (rotation): eski oturum silinir,
// yeni token çifti üretilir.
func (s *authService) RefreshToken(ctx context.Context, refreshToken, userAgent string) (*AuthTokens, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: refresh_token is required", pkg.ErrBadRequest)
	}

	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := s.sessionRepo.DeleteByID(ctx, session.ID); err != nil {
		return nil, fmt.Errorf("failed to delete old session: %w", err)
	}

	if s.now().After(session.ExpiresAt) {
		return nil, fmt.Errorf("%w: refresh token expired", pkg.ErrUnauthorized)
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	return s.generateTokens(ctx, user, userAgent)
}

// Logout, refresh token'ın oturumunu siler. Bilinmeyen token hata değildir.
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.sessionRepo.GetByRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil
		}
		return err
	}

	return s.sessionRepo.DeleteByID(ctx, session.ID)
}

// ValidateAccessToken, JWT'yi doğrular ve claims'i döner.
// Sadece HS256 ve feedmark issuer'ı kabul edilir.
func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{},
		func(token *jwt.Token) (any, error) {
			return s.jwtSecret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	return claims, nil
}

func (s *authService) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

func (s *authService) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return fmt.Errorf("%w: password is incorrect", pkg.ErrUnauthorized)
	}

	// Önce okuma durumu: kullanıcı silinip slot'lar kalırsa sahipsiz veri olur.
	if err := s.slots.DeleteNamespace(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete read state: %w", err)
	}

	if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to delete sessions: %w", err)
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return err
	}

	log.Printf("[auth] user deleted: %s (%s)", user.Username, user.ID)
	return nil
}

func (s *authService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx)
}

// ─── Private Helpers ───

func (s *authService) generateTokens(ctx context.Context, user *models.User, userAgent string) (*AuthTokens, error) {
	now := s.now()
	accessClaims := &models.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessExp)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
		},
	}

	accessString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refreshBytes := make([]byte, 32)
	if _, err := rand.Read(refreshBytes); err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	refreshString := hex.EncodeToString(refreshBytes)

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: refreshString,
		UserAgent:    userAgent,
		ExpiresAt:    now.Add(s.refreshExp).UTC(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	user.PasswordHash = ""

	return &AuthTokens{
		AccessToken:  accessString,
		RefreshToken: refreshString,
		ExpiresIn:    int(s.accessExp.Seconds()),
		User:         *user,
	}, nil
}
