package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"barback/b/domain"
)

func TestRegisterAndLogin(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "alice",
		"email":    "Alice@bar.test",
		"password": "secret1",
		"role":     domain.RoleBartender,
	})
	requireStatus(t, rec, http.StatusCreated)

	var created authResponse
	decodeBody(t, rec, &created)
	require.NotEmpty(t, created.Token)
	require.Equal(t, "alice@bar.test", created.User.Email)

	rec = doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "alice@bar.test",
		"password": "secret1",
	})
	requireStatus(t, rec, http.StatusOK)

	rec = doJSON(t, h, http.MethodPost, "/auth/login", "", map[string]any{
		"email":    "alice@bar.test",
		"password": "wrong",
	})
	requireStatus(t, rec, http.StatusUnauthorized)
}

func TestRegisterRejectsUnknownRole(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", map[string]any{
		"username": "alice",
		"email":    "alice@bar.test",
		"password": "secret1",
		"role":     "sommelier",
	})
	requireStatus(t, rec, http.StatusBadRequest)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h := newTestHandler(t)

	payload := map[string]any{
		"username": "alice",
		"email":    "alice@bar.test",
		"password": "secret1",
		"role":     domain.RoleBartender,
	}
	rec := doJSON(t, h, http.MethodPost, "/auth/register", "", payload)
	requireStatus(t, rec, http.StatusCreated)

	rec = doJSON(t, h, http.MethodPost, "/auth/register", "", payload)
	requireStatus(t, rec, http.StatusConflict)
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)
	rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
	requireStatus(t, rec, http.StatusOK)
}
