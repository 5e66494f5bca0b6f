package externalprovider

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/errors"
)

// fakeGoogle serves token and userinfo endpoints. Each authorization code
// maps to the profile returned for it.
type fakeGoogle struct {
	*httptest.Server
	profiles map[string]map[string]interface{}

	mu        sync.Mutex
	verifiers map[string]string
}

func (f *fakeGoogle) verifier(code string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifiers[code]
}

func newFakeGoogle(t *testing.T) *fakeGoogle {
	t.Helper()
	f := &fakeGoogle{profiles: map[string]map[string]interface{}{}, verifiers: map[string]string{}}
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		code := r.PostForm.Get("code")
		f.mu.Lock()
		f.verifiers[code] = r.PostForm.Get("code_verifier")
		f.mu.Unlock()
		if _, ok := f.profiles[code]; !ok || r.PostForm.Get("code_verifier") == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "at-" + code,
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		code := r.Header.Get("Authorization")[len("Bearer at-"):]
		profile, ok := f.profiles[code]
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(profile)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

type googleEnv struct {
	fake     *fakeGoogle
	accounts *account.AccountService
	service  *GoogleService
}

func setupGoogle(t *testing.T, opts ...Option) *googleEnv {
	t.Helper()
	fake := newFakeGoogle(t)
	states, err := NewCacheStateStore()
	require.NoError(t, err)
	t.Cleanup(states.Close)

	accounts := account.NewAccountService(account.NewInMemoryRepository(),
		account.WithPasswordHasher(account.NewBcryptHasher(bcrypt.MinCost)))
	opts = append([]Option{
		WithEndpoint(oauth2.Endpoint{
			AuthURL:   fake.URL + "/auth",
			TokenURL:  fake.URL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		}),
		WithUserInfoURL(fake.URL + "/userinfo"),
	}, opts...)
	service := NewGoogleService(ProviderConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURL:  "http://localhost:4000/api/v1/auth/oauth/google/callback",
	}, states, accounts, opts...)
	return &googleEnv{fake: fake, accounts: accounts, service: service}
}

func (e *googleEnv) begin(t *testing.T) string {
	t.Helper()
	return e.beginQuery(t).Get("state")
}

func (e *googleEnv) beginQuery(t *testing.T) url.Values {
	t.Helper()
	authURL, err := e.service.AuthCodeURL()
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	return u.Query()
}

func googleProfile(id, email string) map[string]interface{} {
	return map[string]interface{}{
		"id":             id,
		"email":          email,
		"verified_email": true,
		"name":           "Gale Ortiz",
		"picture":        "https://lh3.googleusercontent.com/a/photo",
	}
}

func TestAuthCodeURL(t *testing.T) {
	env := setupGoogle(t)
	authURL, err := env.service.AuthCodeURL()
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, env.fake.URL+"/auth", u.Scheme+"://"+u.Host+u.Path)
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "openid email profile", q.Get("scope"))
	assert.Len(t, q.Get("state"), 64)
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.Len(t, q.Get("code_challenge"), 43)

	other, err := env.service.AuthCodeURL()
	require.NoError(t, err)
	assert.NotEqual(t, authURL, other)
}

func TestHandleCallback(t *testing.T) {
	ctx := context.Background()

	t.Run("first sign-in provisions a verified account", func(t *testing.T) {
		env := setupGoogle(t)
		env.fake.profiles["c1"] = googleProfile("g-1", "g@oauth.com")

		user, created, err := env.service.HandleCallback(ctx, "c1", env.begin(t))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, "g@oauth.com", user.Email)
		assert.Equal(t, account.OriginGoogle, user.Origin)
		assert.True(t, user.Verified)
		assert.Equal(t, "g-1", user.GoogleID)

		again, created, err := env.service.HandleCallback(ctx, "c1", env.begin(t))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, user.ID, again.ID)
	})

	t.Run("exchange sends the pkce verifier", func(t *testing.T) {
		env := setupGoogle(t)
		env.fake.profiles["c6"] = googleProfile("g-6", "g6@oauth.com")
		q := env.beginQuery(t)

		_, _, err := env.service.HandleCallback(ctx, "c6", q.Get("state"))
		require.NoError(t, err)
		sum := sha256.Sum256([]byte(env.fake.verifier("c6")))
		assert.Equal(t, q.Get("code_challenge"), base64.RawURLEncoding.EncodeToString(sum[:]))
	})

	t.Run("password account with same email", func(t *testing.T) {
		env := setupGoogle(t)
		_, err := env.accounts.Create(ctx, account.CreateParams{Email: "pat@example.com", Password: "password1"})
		require.NoError(t, err)
		env.fake.profiles["c2"] = googleProfile("g-2", "pat@example.com")

		_, _, err = env.service.HandleCallback(ctx, "c2", env.begin(t))
		assert.ErrorIs(t, err, account.ErrWrongOrigin)
	})

	t.Run("state is single use", func(t *testing.T) {
		env := setupGoogle(t)
		env.fake.profiles["c3"] = googleProfile("g-3", "g3@oauth.com")
		state := env.begin(t)

		_, _, err := env.service.HandleCallback(ctx, "c3", state)
		require.NoError(t, err)
		_, _, err = env.service.HandleCallback(ctx, "c3", state)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("unknown state", func(t *testing.T) {
		env := setupGoogle(t)
		_, _, err := env.service.HandleCallback(ctx, "c", "forged")
		assert.ErrorIs(t, err, ErrInvalidState)
		assert.Equal(t, http.StatusBadRequest, errors.MapErrorCodeToHTTPStatus(errors.GetCode(err)))
	})

	t.Run("expired state", func(t *testing.T) {
		env := setupGoogle(t, WithStateTTL(50*time.Millisecond))
		env.fake.profiles["c4"] = googleProfile("g-4", "g4@oauth.com")
		state := env.begin(t)
		time.Sleep(150 * time.Millisecond)

		_, _, err := env.service.HandleCallback(ctx, "c4", state)
		assert.ErrorIs(t, err, ErrInvalidState)
	})

	t.Run("rejected code", func(t *testing.T) {
		env := setupGoogle(t)
		_, _, err := env.service.HandleCallback(ctx, "bogus", env.begin(t))
		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeUnauthorized, errors.GetCode(err))
	})

	t.Run("unverified google email", func(t *testing.T) {
		env := setupGoogle(t)
		profile := googleProfile("g-5", "g5@oauth.com")
		profile["verified_email"] = false
		env.fake.profiles["c5"] = profile

		_, _, err := env.service.HandleCallback(ctx, "c5", env.begin(t))
		assert.ErrorIs(t, err, ErrEmailMissing)
	})
}

func TestParseUserInfo(t *testing.T) {
	info := parseUserInfo(map[string]interface{}{
		"sub":            "oidc-1",
		"email":          " g@oauth.com ",
		"email_verified": true,
		"name":           "Gale",
	})
	assert.Equal(t, "oidc-1", info.ExternalID)
	assert.Equal(t, "g@oauth.com", info.Email)
	assert.True(t, info.EmailVerified)
	assert.Empty(t, info.Picture)
}

func TestCacheStateStore(t *testing.T) {
	store, err := NewCacheStateStore()
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save("abc", "verifier", time.Minute))
	_, ok := store.Consume("")
	assert.False(t, ok)
	_, ok = store.Consume("xyz")
	assert.False(t, ok)

	verifier, ok := store.Consume("abc")
	assert.True(t, ok)
	assert.Equal(t, "verifier", verifier)
	_, ok = store.Consume("abc")
	assert.False(t, ok)
}
