package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/go-marketplace/internal/dto"
	"github.com/flicky/go-marketplace/internal/model"
	"github.com/flicky/go-marketplace/internal/repository"
)

var (
	ErrUserAlreadyExists  = fmt.Errorf("user already exists: %w", ErrConflict)
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

type AuthService struct {
	userRepo  repository.UserRepository
	jwtSecret []byte
	jwtExpiry time.Duration
	log       *slog.Logger
}

func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiry time.Duration, log *slog.Logger) *AuthService {
	return &AuthService{userRepo: userRepo, jwtSecret: []byte(jwtSecret), jwtExpiry: jwtExpiry, log: log}
}

func (s *AuthService) RegisterClient(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Username: req.Username, Email: req.Email, PasswordHash: hashed}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("client registered", "user_id", user.ID)
	return s.issue(model.ClientPrincipal(user.ID, user.Username, uuid.NewString()))
}

// RegisterSeller creates the user account together with its seller profile.
func (s *AuthService) RegisterSeller(ctx context.Context, req dto.RegisterSellerRequest) (*dto.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{Username: req.Username, Email: req.Email, PasswordHash: hashed}
	seller := &model.Seller{BusinessName: strings.TrimSpace(req.BusinessName), PhoneNumber: strings.TrimSpace(req.PhoneNumber)}
	if err := s.userRepo.CreateSeller(ctx, user, seller); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create seller: %w", err)
	}

	s.log.Info("seller registered", "user_id", user.ID, "seller_id", seller.ID)
	return s.issue(model.SellerPrincipal(seller.ID, user.Username, uuid.NewString()))
}

// Login authenticates through one realm. Accounts of another role are rejected as bad credentials.
func (s *AuthService) Login(ctx context.Context, realm model.Role, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	principal := ResolvePrincipal(user, uuid.NewString())
	if principal.Role != realm {
		return nil, ErrInvalidCredentials
	}
	return s.issue(principal)
}

// EnsureSuperAdmin creates the superadmin account if no user holds the email yet.
// It reports whether an account was created.
func (s *AuthService) EnsureSuperAdmin(ctx context.Context, email, username, password string) (bool, error) {
	email = normalizeEmail(email)
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}
	if existing != nil {
		if !existing.IsSuperuser {
			s.log.Warn("admin email belongs to a regular account", "user_id", existing.ID)
		}
		return false, nil
	}

	hashed, err := hashPassword(password)
	if err != nil {
		return false, err
	}
	user := &model.User{Username: username, Email: email, PasswordHash: hashed, IsSuperuser: true}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return false, fmt.Errorf("create superadmin: %w", err)
	}
	s.log.Info("superadmin created", "user_id", user.ID)
	return true, nil
}

// ParseToken verifies a signed token and returns the principal it carries.
func (s *AuthService) ParseToken(raw string) (model.Principal, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return model.Principal{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Principal{}, ErrInvalidToken
	}

	role, _ := claims["role"].(string)
	pid, _ := claims["pid"].(float64)
	name, _ := claims["name"].(string)
	sid, _ := claims["sid"].(string)

	p := model.Principal{Role: model.Role(role), ID: int64(pid), Username: name, SessionID: sid}
	if !p.Role.Valid() || p.ID <= 0 {
		return model.Principal{}, ErrInvalidToken
	}
	return p, nil
}

// ResolvePrincipal maps an account to its role: superuser first, then seller profile, else client.
func ResolvePrincipal(user *model.User, session string) model.Principal {
	switch {
	case user.IsSuperuser:
		return model.SuperAdminPrincipal(user.ID, user.Username, session)
	case user.SellerID != nil:
		return model.SellerPrincipal(*user.SellerID, user.Username, session)
	default:
		return model.ClientPrincipal(user.ID, user.Username, session)
	}
}

func (s *AuthService) ensureEmailFree(ctx context.Context, email string) error {
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if existing != nil {
		return ErrUserAlreadyExists
	}
	return nil
}

func (s *AuthService) issue(p model.Principal) (*dto.AuthResponse, error) {
	now := time.Now()
	expires := now.Add(s.jwtExpiry)
	claims := jwt.MapClaims{
		"sub":  fmt.Sprintf("%s:%d", p.Role, p.ID),
		"role": string(p.Role),
		"pid":  p.ID,
		"name": p.Username,
		"sid":  p.SessionID,
		"exp":  expires.Unix(),
		"iat":  now.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &dto.AuthResponse{
		Token:     token,
		ExpiresAt: expires,
		Principal: dto.PrincipalResponse{Role: p.Role, ID: p.ID, Username: p.Username},
	}, nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
