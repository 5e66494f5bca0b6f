package externalprovider

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"

	"github.com/tendant/dental-idm/pkg/account"
	"github.com/tendant/dental-idm/pkg/errors"
)

const (
	DefaultStateTTL        = 10 * time.Minute
	DefaultExchangeTimeout = 10 * time.Second
)

var (
	ErrInvalidState  = errors.New(errors.ErrCodeTokenInvalid, "invalid or expired oauth state")
	ErrAuthorization = errors.New(errors.ErrCodeUnauthorized, "google sign-in failed")
	ErrEmailMissing  = errors.New(errors.ErrCodeForbidden, "google account has no verified email")
)

// Provisioner creates or loads the account behind an OAuth profile
type Provisioner interface {
	ProvisionOAuth(ctx context.Context, profile account.OAuthProfile) (*account.User, bool, error)
}

// GoogleService runs the authorization code flow against Google
type GoogleService struct {
	config          *oauth2.Config
	states          StateStore
	accounts        Provisioner
	client          *resty.Client
	userInfoURL     string
	stateTTL        time.Duration
	exchangeTimeout time.Duration
}

// Option configures a GoogleService
type Option func(*GoogleService)

// WithStateTTL sets how long an authorization may stay pending
func WithStateTTL(ttl time.Duration) Option {
	return func(s *GoogleService) {
		if ttl > 0 {
			s.stateTTL = ttl
		}
	}
}

// WithExchangeTimeout bounds the token exchange and userinfo fetch together
func WithExchangeTimeout(d time.Duration) Option {
	return func(s *GoogleService) {
		if d > 0 {
			s.exchangeTimeout = d
		}
	}
}

// WithEndpoint overrides the Google authorization and token endpoints
func WithEndpoint(endpoint oauth2.Endpoint) Option {
	return func(s *GoogleService) {
		s.config.Endpoint = endpoint
	}
}

// WithUserInfoURL overrides the userinfo endpoint
func WithUserInfoURL(url string) Option {
	return func(s *GoogleService) {
		s.userInfoURL = url
	}
}

// WithHTTPClient sets the client used for every call to the provider
func WithHTTPClient(client *http.Client) Option {
	return func(s *GoogleService) {
		s.client = resty.NewWithClient(client)
	}
}

// NewGoogleService creates the Google sign-in flow
func NewGoogleService(cfg ProviderConfig, states StateStore, accounts Provisioner, opts ...Option) *GoogleService {
	s := &GoogleService{
		config:          newOAuth2Config(cfg),
		states:          states,
		accounts:        accounts,
		client:          resty.New(),
		userInfoURL:     GoogleUserInfoURL,
		stateTTL:        DefaultStateTTL,
		exchangeTimeout: DefaultExchangeTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthCodeURL starts a sign-in and returns the consent page to redirect to.
// The request carries an S256 PKCE challenge.
func (s *GoogleService) AuthCodeURL() (string, error) {
	state, err := generateState()
	if err != nil {
		return "", errors.InternalWrap(err, "failed to generate oauth state")
	}
	verifier := oauth2.GenerateVerifier()
	if err := s.states.Save(state, verifier, s.stateTTL); err != nil {
		return "", errors.InternalWrap(err, "failed to store oauth state")
	}
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier)), nil
}

// HandleCallback completes a sign-in. It consumes state, exchanges code for
// a token, reads the profile and provisions the account. created reports a
// first sign-in.
func (s *GoogleService) HandleCallback(ctx context.Context, code, state string) (*account.User, bool, error) {
	verifier, ok := s.states.Consume(state)
	if !ok {
		return nil, false, ErrInvalidState
	}
	if code == "" {
		return nil, false, errors.InvalidInput("code", "authorization code is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.exchangeTimeout)
	defer cancel()

	info, err := s.fetchProfile(ctx, code, verifier)
	if err != nil {
		return nil, false, err
	}
	if info.Email == "" || !info.EmailVerified {
		slog.Warn("Google profile without verified email", "google_id", info.ExternalID)
		return nil, false, ErrEmailMissing
	}

	user, created, err := s.accounts.ProvisionOAuth(ctx, account.OAuthProfile{
		Subject: info.ExternalID,
		Email:   info.Email,
		Name:    info.Name,
		Picture: info.Picture,
	})
	if err != nil {
		return nil, false, err
	}
	slog.Info("Google sign-in", "user_id", user.ID.Hex(), "created", created)
	return user, created, nil
}

func (s *GoogleService) fetchProfile(ctx context.Context, code, verifier string) (ExternalUserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client.GetClient())
	token, err := s.config.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		slog.Error("Google token exchange failed", "error", err)
		return ExternalUserInfo{}, errors.Wrap(err, errors.ErrCodeUnauthorized, ErrAuthorization.Message)
	}

	var raw map[string]interface{}
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetResult(&raw).
		Get(s.userInfoURL)
	if err != nil {
		slog.Error("Google userinfo request failed", "error", err)
		return ExternalUserInfo{}, errors.Wrap(err, errors.ErrCodeUnauthorized, ErrAuthorization.Message)
	}
	if resp.IsError() {
		slog.Error("Google userinfo rejected", "status", resp.StatusCode())
		return ExternalUserInfo{}, ErrAuthorization
	}
	return parseUserInfo(raw), nil
}
