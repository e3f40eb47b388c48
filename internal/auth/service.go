package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/itwhiprentals/itwhip-website-sub025/internal/hosts"
	"github.com/itwhiprentals/itwhip-website-sub025/internal/shared/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrHostNotFound       = errors.New("host not found")
	ErrHostAlreadyExists  = errors.New("host already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

type Service interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error)
	ChangePassword(ctx context.Context, hostID string, req *ChangePasswordRequest) error
	ValidateToken(tokenString string) (*JWTClaims, error)
}

type service struct {
	repo   Repository
	config *config.Config
}

func NewService(repo Repository, cfg *config.Config) Service {
	return &service{
		repo:   repo,
		config: cfg,
	}
}

func (s *service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	// Check if host already exists
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrHostAlreadyExists
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// Set default role if not provided
	role := req.Role
	if role == "" {
		role = string(hosts.RoleHost)
	}
	role = strings.ToUpper(role) // stored as uppercase enum
	// Validate role
	if !hosts.IsValidRole(role) {
		role = string(hosts.RoleHost)
	}

	// Create host
	host := &hosts.Host{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		CompanyName: req.CompanyName,
		Email:       req.Email,
		Phone:       req.Phone,
		Password:    string(hashedPassword),
		Role:        hosts.Role(role),
	}

	if err := s.repo.CreateHost(ctx, host); err != nil {
		return nil, err
	}

	// Generate tokens
	tokenPair, err := s.generateTokenPair(host.ID.String(), host.Email, string(host.Role))
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Host:         toHostResponse(host),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

func (s *service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	host, err := s.repo.GetHostByEmail(ctx, req.Email)
	if err != nil {
		if err == ErrHostNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(host.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Generate tokens
	tokenPair, err := s.generateTokenPair(host.ID.String(), host.Email, string(host.Role))
	if err != nil {
		return nil, err
	}

	return &AuthResponse{
		Host:         toHostResponse(host),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresIn:    tokenPair.ExpiresIn,
	}, nil
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.validateToken(refreshToken)
	if err != nil {
		return nil, err
	}

	if claims.Type != "refresh" {
		return nil, ErrInvalidToken
	}

	// Verify host still exists
	host, err := s.repo.GetHostByID(ctx, claims.HostID)
	if err != nil {
		return nil, ErrHostNotFound
	}

	// Generate new token pair
	return s.generateTokenPair(host.ID.String(), host.Email, string(host.Role))
}

func (s *service) ChangePassword(ctx context.Context, hostID string, req *ChangePasswordRequest) error {
	host, err := s.repo.GetHostByID(ctx, hostID)
	if err != nil {
		return ErrHostNotFound
	}

	// Verify current password
	if err := bcrypt.CompareHashAndPassword([]byte(host.Password), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	// Hash new password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	// Update password
	return s.repo.UpdateHostPassword(ctx, hostID, string(hashedPassword))
}

func (s *service) ValidateToken(tokenString string) (*JWTClaims, error) {
	return s.validateToken(tokenString)
}

func (s *service) generateTokenPair(hostID, email, role string) (*TokenPair, error) {
	now := time.Now()

	accessClaims := JWTClaims{
		HostID: hostID,
		Email:  email,
		Role:   role,
		Type:   "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWT.JWTExpiresIn)),
			Issuer:    "itwhip",
			Subject:   hostID,
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(s.config.JWT.Secret))
	if err != nil {
		return nil, err
	}

	refreshClaims := JWTClaims{
		HostID: hostID,
		Email:  email,
		Role:   role,
		Type:   "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.JWT.RefreshExpiresIn)),
			Issuer:    "itwhip",
			Subject:   hostID,
		},
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshTokenString, err := refreshToken.SignedString([]byte(s.config.JWT.Secret))
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessTokenString,
		RefreshToken: refreshTokenString,
		ExpiresIn:    int64(s.config.JWT.JWTExpiresIn.Seconds()),
	}, nil
}

func (s *service) validateToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.config.JWT.Secret), nil
	})

	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

func toHostResponse(host *hosts.Host) HostResponse {
	return HostResponse{
		ID:          host.ID.String(),
		FirstName:   host.FirstName,
		LastName:    host.LastName,
		CompanyName: host.CompanyName,
		Email:       host.Email,
		Role:        string(host.Role),
		CreatedAt:   host.CreatedAt,
		UpdatedAt:   host.UpdatedAt,
	}
}
