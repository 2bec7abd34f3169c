// Package access issues per-layout tokens. A layout without a passphrase
// is open for editing; with one, the passphrase grants edit and anything
// else grants view.
package access

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/boothmap/boothmap/internal/store"
)

var (
	ErrInvalidPassphrase = errors.New("invalid passphrase")
	ErrInvalidToken      = errors.New("invalid token")
)

type Role string

const (
	RoleEdit Role = "edit"
	RoleView Role = "view"
)

// Layouts is the slice of the store the service needs.
type Layouts interface {
	GetLayout(ctx context.Context, id string) (*store.Layout, error)
	SetPassphraseHash(ctx context.Context, id, hash string) error
}

type Service struct {
	layouts   Layouts
	jwtSecret []byte
	cost      int
	ttl       time.Duration
}

func NewService(layouts Layouts, jwtSecret string) *Service {
	return &Service{
		layouts:   layouts,
		jwtSecret: []byte(jwtSecret),
		cost:      12,
		ttl:       24 * time.Hour,
	}
}

// Grant is the result of an access request.
type Grant struct {
	Token    string `json:"token"`
	LayoutID string `json:"layoutId"`
	Role     Role   `json:"role"`
}

// Claims are what a valid token carries.
type Claims struct {
	LayoutID string
	Role     Role
}

func (c Claims) CanEdit() bool { return c.Role == RoleEdit }

// HashPassphrase returns the bcrypt hash of p, or "" for an empty p.
func (s *Service) HashPassphrase(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash passphrase: %w", err)
	}
	return string(hash), nil
}

// Grant checks passphrase against the layout and issues a token. An empty
// passphrase on a protected layout yields a view token.
func (s *Service) Grant(ctx context.Context, layoutID, passphrase string) (*Grant, error) {
	l, err := s.layouts.GetLayout(ctx, layoutID)
	if err != nil {
		return nil, err
	}

	role := RoleEdit
	switch {
	case l.PassphraseHash == "":
	case passphrase == "":
		role = RoleView
	default:
		if err := bcrypt.CompareHashAndPassword([]byte(l.PassphraseHash), []byte(passphrase)); err != nil {
			return nil, ErrInvalidPassphrase
		}
	}

	token, err := s.IssueToken(layoutID, role)
	if err != nil {
		return nil, err
	}
	return &Grant{Token: token, LayoutID: layoutID, Role: role}, nil
}

// SetPassphrase replaces the layout's passphrase. An empty passphrase
// opens the layout to everyone.
func (s *Service) SetPassphrase(ctx context.Context, layoutID, passphrase string) error {
	hash, err := s.HashPassphrase(passphrase)
	if err != nil {
		return err
	}
	return s.layouts.SetPassphraseHash(ctx, layoutID, hash)
}

func (s *Service) IssueToken(layoutID string, role Role) (string, error) {
	claims := jwt.MapClaims{
		"sub":  layoutID,
		"role": string(role),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(s.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	layoutID, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if layoutID == "" || (Role(role) != RoleEdit && Role(role) != RoleView) {
		return nil, ErrInvalidToken
	}

	return &Claims{LayoutID: layoutID, Role: Role(role)}, nil
}
