package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/menolabs/wellness-backend/internal/config"
	"github.com/menolabs/wellness-backend/internal/dto"
	"github.com/menolabs/wellness-backend/internal/lifecycle"
	"github.com/menolabs/wellness-backend/internal/models"
	"github.com/menolabs/wellness-backend/internal/privacy"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
)

// AuthService issues and verifies credentials. User identities are
// global: the same account signs in to both apps, so there is no tenant
// scope on the user lookup, only on the refresh tokens.
type AuthService struct {
	db        *gorm.DB
	cfg       *config.Config
	lifecycle *lifecycle.Service
}

func NewAuthService(db *gorm.DB, cfg *config.Config, lc *lifecycle.Service) *AuthService {
	return &AuthService{db: db, cfg: cfg, lifecycle: lc}
}

// Register creates the identity through the lifecycle manager so the
// account gets its retention schedule and onboarding audit entry, then
// attaches the password credential.
func (s *AuthService) Register(ctx context.Context, appID string, req *dto.RegisterRequest, meta privacy.RequestMeta) (*dto.AuthResponse, error) {
	if len(req.Email) == 0 || len(req.Password) < 8 {
		return nil, errors.New("email required and password must be at least 8 characters")
	}

	var existing models.User
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	res, err := s.lifecycle.Onboard(ctx, uuid.NewString(), req.Email, req.DisplayName, meta)
	if err != nil {
		return nil, err
	}

	user := res.User
	user.PasswordHash = string(hash)
	user.AuthProvider = "email"
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("uid = ?", user.UID).
		Updates(map[string]interface{}{
			"password_hash": user.PasswordHash,
			"auth_provider": user.AuthProvider,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to attach credential: %w", err)
	}

	return s.generateTokenPair(ctx, appID, user)
}

func (s *AuthService) Login(ctx context.Context, appID string, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", req.Email).First(&user).Error; err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	s.db.WithContext(ctx).Model(&user).Update("last_active_at", time.Now().UTC())
	return s.generateTokenPair(ctx, appID, &user)
}

func (s *AuthService) Refresh(ctx context.Context, appID string, req *dto.RefreshRequest) (*dto.AuthResponse, error) {
	tokenHash := hashToken(req.RefreshToken)

	var stored models.RefreshToken
	if err := s.db.WithContext(ctx).
		Where("token_hash = ? AND app_id = ? AND revoked = false", tokenHash, appID).
		First(&stored).Error; err != nil {
		return nil, ErrInvalidToken
	}

	if time.Now().After(stored.ExpiresAt) {
		s.db.WithContext(ctx).Model(&stored).Update("revoked", true)
		return nil, ErrInvalidToken
	}

	s.db.WithContext(ctx).Model(&stored).Update("revoked", true)

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "uid = ?", stored.UserID).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return s.generateTokenPair(ctx, appID, &user)
}

func (s *AuthService) Logout(ctx context.Context, appID string, req *dto.LogoutRequest) error {
	tokenHash := hashToken(req.RefreshToken)
	return s.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ? AND app_id = ?", tokenHash, appID).
		Update("revoked", true).Error
}

// DeletePrincipal revokes every credential for a user across both apps.
// Called by the lifecycle manager at the end of account deletion.
func (s *AuthService) DeletePrincipal(ctx context.Context, uid string) error {
	return s.db.WithContext(ctx).
		Where("user_id = ?", uid).Delete(&models.RefreshToken{}).Error
}

func (s *AuthService) generateTokenPair(ctx context.Context, appID string, user *models.User) (*dto.AuthResponse, error) {
	accessToken, err := s.generateAccessToken(appID, user)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.generateRefreshToken(ctx, appID, user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: dto.UserResponse{
			UID:         user.UID,
			Email:       user.Email,
			DisplayName: user.DisplayName,
			Role:        user.Role,
			PartnerID:   user.PartnerID,
		},
	}, nil
}

func (s *AuthService) generateAccessToken(appID string, user *models.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":    user.UID,
		"email":  user.Email,
		"app_id": appID,
		"role":   user.Role,
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(s.cfg.JWTAccessExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

func (s *AuthService) generateRefreshToken(ctx context.Context, appID string, user *models.User) (string, error) {
	rawBytes := make([]byte, 32)
	if _, err := rand.Read(rawBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	rawToken := base64.URLEncoding.EncodeToString(rawBytes)
	tokenHash := hashToken(rawToken)

	record := models.RefreshToken{
		ID:        uuid.New(),
		AppID:     appID,
		UserID:    user.UID,
		TokenHash: tokenHash,
		ExpiresAt: time.Now().Add(s.cfg.JWTRefreshExpiry),
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}

	return rawToken, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return fmt.Sprintf("%x", h)
}
