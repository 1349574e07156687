package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	notFound := NewNotFoundError(errors.New("Student not found."))
	wrapped := errors.Wrap(notFound, "finding student")

	var nf *NotFoundError
	assert.True(t, errors.As(wrapped, &nf))
	assert.Equal(t, notFound, errors.Cause(wrapped))
	assert.Equal(t, "finding student: Student not found.", wrapped.Error())

	var conflict *ConflictError
	assert.False(t, errors.As(wrapped, &conflict))
	assert.True(t, errors.As(NewConflictError(errors.New("taken")), &conflict))

	var auth *AuthError
	assert.True(t, errors.As(errors.WithStack(NewAuthError(errors.New("nope"))), &auth))
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "bad input", NewValidationError(errors.New("bad input")).Error())
	assert.Equal(t, "name: name is required", NewValidationError(nil, FieldError{Field: "name", Error: "name is required"}).Error())
	assert.Equal(t, "validation failed", NewValidationError(nil).Error())
}

func TestIsShutdown(t *testing.T) {
	assert.True(t, IsShutdown(errors.Wrap(NewShutdownError("integrity issue"), "handling request")))
	assert.False(t, IsShutdown(errors.New("other")))
}
