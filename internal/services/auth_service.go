package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"plantshop/internal/models"
	"plantshop/internal/repositories"
	pkgerrors "plantshop/pkg/errors"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// RegisterInput is a validated sign-up request.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Country   string
	Address   string
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID   uint
	Username string
	Role     models.Role
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo    repositories.UserRepository
	jwtSecret   []byte
	tokenTTL    time.Duration
	adminEmails map[string]struct{}
}

// NewAuthService creates a new AuthService. Accounts registered with one of
// adminEmails receive the ADMIN role.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenTTL time.Duration, adminEmails ...string) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		if email = normalizeEmail(email); email != "" {
			admins[email] = struct{}{}
		}
	}
	return &AuthService{
		userRepo:    userRepo,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
		adminEmails: admins,
	}
}

// RegisterUser registers a new user, hashes their password, and saves them to the database.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := normalizeEmail(in.Email)

	if existing, err := s.userRepo.GetByUsername(ctx, username); err == nil && existing != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "username '%s' already taken", username)
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check username")
	}
	if existing, err := s.userRepo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "email '%s' already registered", email)
	} else if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to check email")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to hash password")
	}

	role := models.RoleUser
	if _, ok := s.adminEmails[email]; ok {
		role = models.RoleAdmin
	}
	user := &models.User{
		Username:  username,
		Email:     email,
		Password:  string(hashedPassword),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Country:   in.Country,
		Address:   in.Address,
		Role:      role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to register user")
	}
	return user, nil
}

// LoginUser authenticates a user and returns a signed token.
func (s *AuthService) LoginUser(ctx context.Context, username, password string) (string, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthenticated, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthenticated, "invalid credentials")
	}
	return s.IssueToken(user)
}

// IssueToken signs an HS256 token for user.
func (s *AuthService) IssueToken(user *models.User) (string, error) {
	now := time.Now()
	role := user.Role
	if role == "" {
		role = models.RoleUser
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"role":     string(role),
		"exp":      now.Add(s.tokenTTL).Unix(),
		"iat":      now.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to generate token")
	}
	return tokenString, nil
}

// ValidateToken parses and validates a token, returning the identity it carries.
func (s *AuthService) ValidateToken(tokenString string) (*Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthenticated, err, "invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "invalid token")
	}

	// numeric claims decode as float64
	rawID, ok := claims["user_id"].(float64)
	if !ok || rawID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "invalid token: missing user_id")
	}
	identity := &Identity{UserID: uint(rawID), Role: models.RoleUser}
	if username, ok := claims["username"].(string); ok {
		identity.Username = username
	}
	if role, ok := claims["role"].(string); ok && models.Role(role) == models.RoleAdmin {
		identity.Role = models.RoleAdmin
	}
	return identity, nil
}

// GetUser loads the account behind an identity.
func (s *AuthService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeUserNotFound, "user %d not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load user")
	}
	return user, nil
}

// UpdateAddress replaces the caller's delivery address and country. Empty values clear them.
func (s *AuthService) UpdateAddress(ctx context.Context, userID uint, address, country string) (*models.User, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "authentication required")
	}
	err := s.userRepo.UpdateAddress(ctx, userID, strings.TrimSpace(address), strings.TrimSpace(country))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeUserNotFound, "user %d not found", userID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update address")
	}
	return s.GetUser(ctx, userID)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
