package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/citamed/citamed/internal/domain"
	"github.com/citamed/citamed/internal/repository"
	"github.com/citamed/citamed/pkg/auth"
	"github.com/citamed/citamed/pkg/tokenstore"
)

// UserStore is the slice of the user repository the auth service needs.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type AuthService struct {
	users    UserStore
	jwt      *auth.JWTManager
	tokens   tokenstore.Store
	auditSvc *AuditService
	log      *zap.Logger
}

func NewAuthService(users UserStore, jwt *auth.JWTManager, tokens tokenstore.Store, auditSvc *AuditService, log *zap.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwt:      jwt,
		tokens:   tokens,
		auditSvc: auditSvc,
		log:      log,
	}
}

type RegisterCommand struct {
	Email    string
	Password string
	CURP     string
}

func (c *RegisterCommand) validate() error {
	var fields []string
	if c.Email == "" {
		fields = append(fields, "email: required")
	}
	if len(c.Password) < 8 {
		fields = append(fields, "password: must be at least 8 characters")
	}
	if c.CURP != "" && len(c.CURP) != 18 {
		fields = append(fields, "curp: must be 18 characters")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, cmd *RegisterCommand, ip string) (*domain.User, error) {
	if err := cmd.validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		Email:        cmd.Email,
		PasswordHash: string(hash),
		CURP:         cmd.CURP,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       user.ID,
		Action:       domain.ActionCreate,
		ResourceType: "user",
		ResourceID:   user.ID.String(),
		IPAddress:    ip,
	})

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*domain.TokenPair, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Burn a comparison anyway so missing accounts cost the same as
			// wrong passwords.
			_ = bcrypt.CompareHashAndPassword([]byte("$2a$10$000000000000000000000u"), []byte(password))
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.TouchLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.log.Warn("failed to record login time", zap.String("user_id", user.ID.String()), zap.Error(err))
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       user.ID,
		Action:       domain.ActionLogin,
		ResourceType: "user",
		ResourceID:   user.ID.String(),
		IPAddress:    ip,
	})

	return pair, user, nil
}

// Refresh rotates the refresh token: the presented jti is consumed before
// the replacement pair is issued, so a replayed token fails with
// ErrInvalidCredentials even when its signature is still valid.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.tokens.Consume(ctx, claims.UserID, claims.JTI); err != nil {
		if errors.Is(err, tokenstore.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

// Logout revokes the presented refresh token. With revokeAll it drops
// every live refresh token for the user instead.
func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID, refreshToken string, revokeAll bool, ip string) error {
	if revokeAll {
		if err := s.tokens.RevokeAll(ctx, userID); err != nil {
			return err
		}
	} else if refreshToken != "" {
		claims, err := s.jwt.ValidateRefreshToken(refreshToken)
		if err == nil && claims.UserID == userID {
			if err := s.tokens.Revoke(ctx, userID, claims.JTI); err != nil {
				return err
			}
		}
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		UserID:       userID,
		Action:       domain.ActionLogout,
		ResourceType: "user",
		ResourceID:   userID.String(),
		IPAddress:    ip,
	})

	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	pair, jti, err := s.jwt.GenerateTokenPair(&domain.Claims{
		UserID: user.ID,
		Email:  user.Email,
	})
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Save(ctx, user.ID, jti, s.jwt.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("registering refresh token: %w", err)
	}
	return pair, nil
}

var _ UserStore = (*repository.UserRepository)(nil)
