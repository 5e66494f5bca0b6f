package iam

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/client"
	"github.com/tendant/dental-idm/pkg/tokengenerator"
)

type adminEnv struct {
	accounts *account.AccountService
	tokens   *tokengenerator.JwtTokenGenerator
	router   chi.Router
}

func setupAdmin(t *testing.T) *adminEnv {
	t.Helper()
	accounts := account.NewAccountService(account.NewInMemoryRepository(),
		account.WithPasswordHasher(account.NewBcryptHasher(bcrypt.MinCost)))
	tokens := tokengenerator.NewJwtTokenGenerator("iam-test-secret", "dental-idm", "dental-web")
	auth := client.NewAuthenticator(tokens.JWTAuth(), accounts)

	r := chi.NewRouter()
	r.Route("/admin", func(r chi.Router) {
		r.Use(auth.Verifier(), auth.RequireAuth)
		NewHandle(accounts).Routes(r)
	})
	return &adminEnv{accounts: accounts, tokens: tokens, router: r}
}

func (e *adminEnv) create(t *testing.T, email string, role account.Role) (*account.User, string) {
	t.Helper()
	ctx := context.Background()
	u, err := e.accounts.Create(ctx, account.CreateParams{Email: email, Password: "password1"})
	require.NoError(t, err)
	if role != account.RoleUser {
		u, err = e.accounts.SetRole(ctx, u.ID.Hex(), role)
		require.NoError(t, err)
	}
	tv, err := e.tokens.GenerateToken(tokengenerator.Subject{ID: u.ID.Hex(), Email: u.Email, Role: string(u.Role)})
	require.NoError(t, err)
	return u, tv.Token
}

func (e *adminEnv) put(target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestAdminEndpoints(t *testing.T) {
	env := setupAdmin(t)
	admin, adminToken := env.create(t, "admin@example.com", account.RoleAdmin)
	user, userToken := env.create(t, "pat@example.com", account.RoleUser)
	target := "/admin/users/" + user.ID.Hex()

	t.Run("non admin is forbidden", func(t *testing.T) {
		rec := env.put(target+"/role", userToken, `{"role":"admin"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("get user", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", "Bearer "+adminToken)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "pat@example.com")
	})

	t.Run("change role", func(t *testing.T) {
		rec := env.put(target+"/role", adminToken, `{"role":"admin"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"role":"admin"`)

		rec = env.put(target+"/role", adminToken, `{"role":"owner"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("block and unblock", func(t *testing.T) {
		rec := env.put(target+"/block", adminToken, `{"blocked":true}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"blocked":true`)

		_, err := env.accounts.Authenticate(context.Background(), "pat@example.com", "password1")
		assert.ErrorIs(t, err, account.ErrBlocked)

		rec = env.put(target+"/block", adminToken, `{"blocked":false}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, http.StatusBadRequest, env.put(target+"/block", adminToken, `{}`).Code)
	})

	t.Run("admin can not block self", func(t *testing.T) {
		rec := env.put("/admin/users/"+admin.ID.Hex()+"/block", adminToken, `{"blocked":true}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := env.put("/admin/users/65e1f0c2a1b2c3d4e5f60718/role", adminToken, `{"role":"user"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = env.put("/admin/users/not-an-id/role", adminToken, `{"role":"user"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
