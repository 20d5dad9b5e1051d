package sessions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"nido/models"
)

var identity = models.Identity{ID: "member-dani", Email: "dani@nido.casa", Name: "Dani"}

func TestCreateAndValidate(t *testing.T) {
	svc := NewService(time.Hour)

	token := svc.Create(identity)
	require.NotEmpty(t, token)

	got, err := svc.Validate(token)
	require.NoError(t, err)
	require.Equal(t, identity.ID, got.ID)
}

func TestTokensAreUnique(t *testing.T) {
	svc := NewService(time.Hour)

	first := svc.Create(identity)
	second := svc.Create(identity)
	require.NotEqual(t, first, second)
}

func TestValidateUnknownToken(t *testing.T) {
	svc := NewService(time.Hour)

	_, err := svc.Validate("nope")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestExpiredSessionIsRemoved(t *testing.T) {
	svc := NewService(-time.Minute)

	token := svc.Create(identity)
	_, err := svc.Validate(token)
	require.ErrorIs(t, err, ErrSessionExpired)

	// A second probe sees it gone entirely.
	_, err = svc.Validate(token)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRevoke(t *testing.T) {
	svc := NewService(time.Hour)

	token := svc.Create(identity)
	svc.Revoke(token)

	_, err := svc.Validate(token)
	require.ErrorIs(t, err, ErrSessionNotFound)

	svc.Revoke("unknown") // no-op
}
