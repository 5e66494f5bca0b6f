package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/common"
	"github.com/tendant/dental-idm/pkg/notification"
	"github.com/tendant/dental-idm/pkg/ratelimit"
	"github.com/tendant/dental-idm/pkg/tokengenerator"
	"github.com/tendant/dental-idm/pkg/verification"
)

type fixedSecrets struct {
	mu    sync.Mutex
	queue []string
}

func (g *fixedSecrets) Generate(account.SecretKind) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queue) == 0 {
		return "", stderrors.New("no secrets queued")
	}
	s := g.queue[0]
	g.queue = g.queue[1:]
	return s, nil
}

type apiEnv struct {
	accounts *account.AccountService
	notifier *notification.MockNotifier
	mailer   *verification.Mailer
	now      time.Time
	router   chi.Router
}

func setupAPI(t *testing.T, secrets []string, opts ...Option) *apiEnv {
	t.Helper()
	env := &apiEnv{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC), notifier: &notification.MockNotifier{}}
	clock := func() time.Time { return env.now }

	repo := account.NewInMemoryRepository()
	hasher := account.NewBcryptHasher(bcrypt.MinCost)
	env.accounts = account.NewAccountService(repo, account.WithPasswordHasher(hasher), account.WithClock(clock))
	service := verification.NewService(repo,
		verification.WithClock(clock),
		verification.WithPasswordHasher(hasher),
		verification.WithGenerator(&fixedSecrets{queue: secrets}))
	notices, err := notification.NewNotificationManager(env.notifier, notification.WithDefaultTemplates())
	require.NoError(t, err)
	env.mailer = verification.NewMailer(service, notices, "http://localhost:4000/api/v1/auth/verify/email")
	tokens := tokengenerator.NewJwtTokenGenerator("verification-api-secret", "dental-idm", "dental-web")
	sessions := common.NewSessionIssuer(tokens, tokengenerator.NewCookieSetter(false))

	env.router = chi.NewRouter()
	NewHandle(service, env.mailer, env.accounts, sessions, opts...).Routes(env.router)
	return env
}

func (e *apiEnv) signup(t *testing.T, email string) *account.User {
	t.Helper()
	u, err := e.accounts.Create(context.Background(), account.CreateParams{Email: email, Password: "old-password"})
	require.NoError(t, err)
	return u
}

func (e *apiEnv) do(method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return string(resp.Code)
}

func TestVerificationCodeFlow(t *testing.T) {
	env := setupAPI(t, []string{"052301", "118822"})
	user := env.signup(t, "pat@example.com")

	rec := env.do(http.MethodPost, "/send-verification-code", `{"email":"pat@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sent SentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sent))
	assert.Equal(t, 600, sent.ExpiresIn)
	msg, _ := env.notifier.Last()
	assert.Contains(t, msg.Text, "052301")

	rec = env.do(http.MethodPost, "/verify-code", `{"email":"pat@example.com","code":"999999"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CODE_MISMATCH", errorCode(t, rec))

	rec = env.do(http.MethodPost, "/verify-code", `{"email":"pat@example.com","code":"12ab"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))

	rec = env.do(http.MethodGet, "/check-verification?email=pat@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"verified":false}`, rec.Body.String())

	rec = env.do(http.MethodPost, "/verify-code", `{"user_id":"`+user.ID.Hex()+`","code":"052301"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var verified VerifiedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &verified))
	assert.True(t, verified.User.Verified)
	assert.NotEmpty(t, verified.Token)

	rec = env.do(http.MethodPost, "/verify-code", `{"email":"pat@example.com","code":"052301"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodGet, "/check-verification?email=pat@example.com", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"verified":true}`, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())

	rec = env.do(http.MethodPost, "/send-verification-code", `{"email":"pat@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_ALREADY_VERIFIED", errorCode(t, rec))
}

func TestCheckVerificationIssuesNoSession(t *testing.T) {
	env := setupAPI(t, nil)
	_, err := env.accounts.Create(context.Background(), account.CreateParams{Email: "gina@example.com", GoogleID: "google-123"})
	require.NoError(t, err)

	t.Run("google account", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/check-verification?email=gina@example.com", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"verified":true}`, rec.Body.String())
		assert.NotContains(t, rec.Body.String(), "token")
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("missing email", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/check-verification", "").Code)
	})

	t.Run("unknown email", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/check-verification?email=nobody@example.com", "").Code)
	})
}

func TestVerifyCodeExpired(t *testing.T) {
	env := setupAPI(t, []string{"052301"})
	env.signup(t, "pat@example.com")
	require.Equal(t, http.StatusOK, env.do(http.MethodPost, "/send-verification-code", `{"email":"pat@example.com"}`).Code)

	env.now = env.now.Add(11 * time.Minute)
	rec := env.do(http.MethodPost, "/verify-code", `{"email":"pat@example.com","code":"052301"}`)
	assert.Equal(t, http.StatusGone, rec.Code)
	assert.Equal(t, "CODE_EXPIRED", errorCode(t, rec))
}

func TestVerifyCodeRequiresIdentity(t *testing.T) {
	env := setupAPI(t, nil)
	rec := env.do(http.MethodPost, "/verify-code", `{"code":"052301"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/verify-code", `{"user_id":"nope","code":"052301"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyEmailLink(t *testing.T) {
	ctx := context.Background()

	t.Run("json", func(t *testing.T) {
		env := setupAPI(t, []string{"cafe01"})
		env.signup(t, "pat@example.com")
		_, err := env.mailer.SendVerification(ctx, "pat@example.com", account.KindLink)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/verify/email?token=unknown", "").Code)
		assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/verify/email", "").Code)

		rec := env.do(http.MethodGet, "/verify/email?token=cafe01", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp VerifiedResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "Email verified successfully", resp.Message)
		assert.True(t, resp.User.Verified)

		assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/verify/email?token=cafe01", "").Code)
	})

	t.Run("expired", func(t *testing.T) {
		env := setupAPI(t, []string{"cafe02"})
		env.signup(t, "pat@example.com")
		_, err := env.mailer.SendVerification(ctx, "pat@example.com", account.KindLink)
		require.NoError(t, err)

		env.now = env.now.Add(2 * time.Hour)
		assert.Equal(t, http.StatusGone, env.do(http.MethodGet, "/verify/email?token=cafe02", "").Code)
	})

	t.Run("redirect", func(t *testing.T) {
		env := setupAPI(t, []string{"cafe03"}, WithVerifiedRedirect("http://localhost:3000/signin?verified=1"))
		env.signup(t, "pat@example.com")
		_, err := env.mailer.SendVerification(ctx, "pat@example.com", account.KindLink)
		require.NoError(t, err)

		rec := env.do(http.MethodGet, "/verify/email?token=cafe03", "")
		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "http://localhost:3000/signin?verified=1", rec.Header().Get("Location"))
	})
}

func TestPasswordResetFlow(t *testing.T) {
	env := setupAPI(t, []string{"482913"})
	env.signup(t, "a@b.com")

	rec := env.do(http.MethodPost, "/forgot-password", `{"email":"a@b.com"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	msg, _ := env.notifier.Last()
	assert.Equal(t, "Password Reset Code", msg.Subject)

	rec = env.do(http.MethodPost, "/verify-reset-code", `{"email":"a@b.com","code":"000000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env.now = env.now.Add(599 * time.Second)
	rec = env.do(http.MethodPost, "/verify-reset-code", `{"email":"a@b.com","code":"482913"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/reset-password", `{"email":"a@b.com","code":"482913","new_password":"short"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/reset-password", `{"email":"a@b.com","code":"482913","new_password":"N3wPassw0rd"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	stored, err := env.accounts.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	ok, err := env.accounts.Hasher().Verify("N3wPassw0rd", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	rec = env.do(http.MethodPost, "/reset-password", `{"email":"a@b.com","code":"482913","new_password":"N3wPassw0rd"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForgotPasswordErrors(t *testing.T) {
	t.Run("unknown email", func(t *testing.T) {
		env := setupAPI(t, []string{"111111"})
		assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/forgot-password", `{"email":"ghost@b.com"}`).Code)
	})

	t.Run("delivery failure", func(t *testing.T) {
		env := setupAPI(t, []string{"111111"})
		env.signup(t, "a@b.com")
		env.notifier.Err = stderrors.New("smtp down")

		rec := env.do(http.MethodPost, "/forgot-password", `{"email":"a@b.com"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "DELIVERY_FAILED", errorCode(t, rec))

		// the code was stored even though the email bounced
		rec = env.do(http.MethodPost, "/verify-reset-code", `{"email":"a@b.com","code":"111111"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("invalid body", func(t *testing.T) {
		env := setupAPI(t, nil)
		assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPost, "/forgot-password", `{"email":""}`).Code)
	})
}

func TestSendCooldown(t *testing.T) {
	env := setupAPI(t, []string{"111111", "222222", "333333"}, WithCooldown(ratelimit.NewCooldown(time.Minute)))
	env.signup(t, "a@b.com")

	// a failed attempt does not start the cooldown
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/forgot-password", `{"email":"ghost@b.com"}`).Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPost, "/forgot-password", `{"email":"ghost@b.com"}`).Code)

	rec := env.do(http.MethodPost, "/forgot-password", `{"email":"a@b.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var sent SentResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sent))
	assert.Equal(t, 60, sent.RetryAfter)

	rec = env.do(http.MethodPost, "/forgot-password", `{"email":"A@B.com"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// cooldowns are per purpose
	assert.Equal(t, http.StatusOK, env.do(http.MethodPost, "/send-verification-code", `{"email":"a@b.com"}`).Code)
}
