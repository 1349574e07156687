package session

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/mugilan0610/institute-management-system/core"
)

var (
	ErrTokenRequired = core.NewAuthError(errors.New("Not authorised. Token required."))
	ErrInvalidToken  = core.NewAuthError(errors.New("Token invalid or expired. Please login again."))

	signingMethod = jwt.SigningMethodHS256
)

// Claims is the payload of a session token.
type Claims struct {
	StudentID int    `json:"id"`
	Email     string `json:"email"`
	CourseID  *int   `json:"course_id"`
	jwt.RegisteredClaims
}

// Identity is what a token is issued for.
type Identity struct {
	StudentID int
	Email     string
	CourseID  *int
}

// Manager issues and verifies signed, time-limited session tokens.
type Manager struct {
	key    []byte
	issuer string
	expiry time.Duration
	now    func() time.Time
}

func NewManager(conf *core.Config) *Manager {
	return &Manager{
		key:    []byte(conf.SecretKey),
		issuer: conf.AppName,
		expiry: conf.Auth.TokenExpiry,
		now:    time.Now,
	}
}

// WithClock returns a copy of the manager reading the time from now.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	cp := *m
	cp.now = now
	return &cp
}

func (m *Manager) Issue(id Identity) (string, error) {
	now := m.now()
	claims := Claims{
		StudentID: id.StudentID,
		Email:     id.Email,
		CourseID:  id.CourseID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   strconv.Itoa(id.StudentID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}
	ss, err := jwt.NewWithClaims(signingMethod, claims).SignedString(m.key)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// Parse verifies the signature, issuer and expiry of token and returns its claims.
// Any failure is reported as ErrInvalidToken.
func (m *Manager) Parse(token string) (Claims, error) {
	if token == "" {
		return Claims{}, ErrTokenRequired
	}

	claims := new(Claims)
	_, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (interface{}, error) { return m.key, nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || claims.StudentID <= 0 {
		return Claims{}, ErrInvalidToken
	}
	return *claims, nil
}
