package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mugilan0610/institute-management-system/core"
)

func testManager(now time.Time) *Manager {
	conf := &core.Config{AppName: "Institute", SecretKey: "secret"}
	conf.Auth.TokenExpiry = 12 * time.Hour
	return NewManager(conf).WithClock(func() time.Time { return now })
}

func TestManager_IssueParse(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mgr := testManager(now)
	courseID := 7

	token, err := mgr.Issue(Identity{StudentID: 42, Email: "ann@x.com", CourseID: &courseID})
	require.NoError(t, err)

	claims, err := mgr.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, 42, claims.StudentID)
	assert.Equal(t, "ann@x.com", claims.Email)
	require.NotNil(t, claims.CourseID)
	assert.Equal(t, 7, *claims.CourseID)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, now.Add(12*time.Hour), claims.ExpiresAt.Time.UTC())

	noCourse, err := mgr.Issue(Identity{StudentID: 43, Email: "bob@x.com"})
	require.NoError(t, err)
	claims, err = mgr.Parse(noCourse)
	require.NoError(t, err)
	assert.Nil(t, claims.CourseID)
}

func TestManager_Parse(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	mgr := testManager(now)

	valid, err := mgr.Issue(Identity{StudentID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	expired, err := testManager(now.Add(-13 * time.Hour)).Issue(Identity{StudentID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	otherKey := &Manager{key: []byte("other"), issuer: "Institute", expiry: time.Hour, now: func() time.Time { return now }}
	forged, err := otherKey.Issue(Identity{StudentID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	otherIssuer := &Manager{key: []byte("secret"), issuer: "Elsewhere", expiry: time.Hour, now: func() time.Time { return now }}
	foreign, err := otherIssuer.Issue(Identity{StudentID: 1, Email: "a@x.com"})
	require.NoError(t, err)

	noSubject, err := mgr.Issue(Identity{Email: "a@x.com"})
	require.NoError(t, err)

	// alg=none tokens must never verify
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		StudentID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "Institute",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{name: "no token", token: "", wantErr: ErrTokenRequired},
		{name: "garbage", token: "lmaooolol", wantErr: ErrInvalidToken},
		{name: "expired token", token: expired, wantErr: ErrInvalidToken},
		{name: "wrong key", token: forged, wantErr: ErrInvalidToken},
		{name: "wrong issuer", token: foreign, wantErr: ErrInvalidToken},
		{name: "no student", token: noSubject, wantErr: ErrInvalidToken},
		{name: "unsigned", token: unsigned, wantErr: ErrInvalidToken},
		{name: "valid token", token: valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mgr.Parse(tt.token)
			assert.Equal(t, tt.wantErr, err)
		})
	}
}
