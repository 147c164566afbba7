package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/slotbook-api/internal/model"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

type JWTService interface {
	// Issue signs an access token for p and returns it with its expiry.
	Issue(p *model.Principal) (string, time.Time, error)
	Validate(token string) (*model.Principal, error)
}

// Claims is the access token payload. Subject carries the account id.
type Claims struct {
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
	jwt.RegisteredClaims
}

type jwtService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewJWTService(secret string, expiry time.Duration) JWTService {
	return &jwtService{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

func (s *jwtService) Issue(p *model.Principal) (string, time.Time, error) {
	if p == nil || p.ID == uuid.Nil {
		return "", time.Time{}, errors.New("principal id is required")
	}
	if !p.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("invalid role %q", p.Role)
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.expiry)
	claims := Claims{
		Name:  p.Name,
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *jwtService) Validate(tokenString string) (*model.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: bad role", ErrInvalidToken)
	}

	return &model.Principal{
		ID:        id,
		Name:      claims.Name,
		Email:     claims.Email,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
