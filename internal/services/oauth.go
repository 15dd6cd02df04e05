// OAuth authorization-code and refresh-token flows
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/spotexport/internal/models"
	"github.com/desertthunder/spotexport/internal/server"
	"github.com/desertthunder/spotexport/internal/shared"
)

// DefaultRedirectURI is used when the credentials carry no redirect URI.
const DefaultRedirectURI = "http://localhost:8888/callback"

const (
	defaultCallbackHost = "localhost"
	defaultCallbackPort = "8888"
	defaultCallbackPath = "/callback"
	defaultAuthTimeout  = 300 * time.Second
	shutdownGrace       = 5 * time.Second
)

// Scopes requested during authorization.
var Scopes = []string{"playlist-read-private", "playlist-read-collaborative"}

// BrowserOpener opens url for the user.
type BrowserOpener func(url string) error

// OAuthFlow runs the OAuth exchanges against the accounts service.
type OAuthFlow struct {
	authURL     string
	tokenURL    string
	client      *http.Client
	timeout     time.Duration
	openBrowser BrowserOpener
	out         io.Writer
	logger      *log.Logger
	newState    func() (string, error)
}

// OAuthOption configures an [OAuthFlow].
type OAuthOption func(*OAuthFlow)

// WithEndpoints overrides the authorize and token URLs. Empty values keep the defaults.
func WithEndpoints(authURL, tokenURL string) OAuthOption {
	return func(f *OAuthFlow) {
		if authURL != "" {
			f.authURL = authURL
		}
		if tokenURL != "" {
			f.tokenURL = tokenURL
		}
	}
}

// WithHTTPClient sets the client used for token requests.
func WithHTTPClient(c *http.Client) OAuthOption {
	return func(f *OAuthFlow) { f.client = c }
}

// WithAuthTimeout sets how long to wait for the redirect.
func WithAuthTimeout(d time.Duration) OAuthOption {
	return func(f *OAuthFlow) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithBrowser replaces [shared.OpenBrowser].
func WithBrowser(open BrowserOpener) OAuthOption {
	return func(f *OAuthFlow) { f.openBrowser = open }
}

// WithOutput sets where user instructions are printed.
func WithOutput(w io.Writer) OAuthOption {
	return func(f *OAuthFlow) { f.out = w }
}

// WithOAuthLogger sets the logger for flow progress and callback requests.
func WithOAuthLogger(l *log.Logger) OAuthOption {
	return func(f *OAuthFlow) { f.logger = l }
}

// NewOAuthFlow creates a flow against the public accounts service.
func NewOAuthFlow(opts ...OAuthOption) *OAuthFlow {
	f := &OAuthFlow{
		authURL:     spotifyAuthURL,
		tokenURL:    spotifyTokenURL,
		timeout:     defaultAuthTimeout,
		openBrowser: shared.OpenBrowser,
		out:         os.Stdout,
		logger:      log.New(io.Discard),
		newState:    shared.GenerateState,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *OAuthFlow) config(creds models.Credentials, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   f.authURL,
			TokenURL:  f.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (f *OAuthFlow) oauthContext(ctx context.Context) context.Context {
	if f.client == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, f.client)
}

// AuthURL builds the authorize URL the user is sent to.
func (f *OAuthFlow) AuthURL(creds models.Credentials, redirectURI, state string) string {
	return f.config(creds, redirectURI).AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))
}

// callbackTarget is the listener address and path derived from a redirect URI.
//
// A redirect URI without a path is sent to the authorize endpoint as is, so the listener
// accepts the redirect on any path.
type callbackTarget struct {
	u       *url.URL
	host    string
	port    string
	path    string
	anyPath bool
}

func parseRedirect(raw string) (*callbackTarget, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: redirect uri %q: %v", shared.ErrInvalidConfig, raw, err)
	}

	t := &callbackTarget{u: u, host: u.Hostname(), port: u.Port(), path: u.Path}
	if t.host == "" {
		t.host = defaultCallbackHost
	}
	if t.port == "" {
		t.port = defaultCallbackPort
	}
	if t.path == "" {
		t.path = defaultCallbackPath
		t.anyPath = true
	}
	return t, nil
}

// handlerPath is the path given to [server.NewCallbackHandler]; empty means any path.
func (t *callbackTarget) handlerPath() string {
	if t.anyPath {
		return ""
	}
	return t.path
}

func (t *callbackTarget) addr() string {
	return net.JoinHostPort(t.host, t.port)
}

// redirectURI returns raw unchanged unless an ephemeral port was requested, in which case the
// bound port is substituted.
func (t *callbackTarget) redirectURI(raw string, bound net.Addr) string {
	if t.port != "0" {
		return raw
	}
	tcp, ok := bound.(*net.TCPAddr)
	if !ok {
		return raw
	}
	u := *t.u
	u.Host = net.JoinHostPort(t.host, strconv.Itoa(tcp.Port))
	u.Path = t.path
	return u.String()
}

// AuthorizationCode runs the interactive authorization-code flow.
//
// A callback listener is bound for the duration of the call and stopped on every exit path
// before the code is exchanged. A denied consent fails with [shared.AuthorizationError]; no
// redirect within the timeout fails with [shared.ErrAuthorizationTimeout].
func (f *OAuthFlow) AuthorizationCode(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	redirectURI := creds.RedirectURI
	if redirectURI == "" {
		redirectURI = DefaultRedirectURI
	}
	target, err := parseRedirect(redirectURI)
	if err != nil {
		return nil, err
	}

	state, err := f.newState()
	if err != nil {
		return nil, err
	}

	handler := server.NewCallbackHandler(target.handlerPath(), state)
	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(f.logger))
	router.Handler(handler)
	if !target.anyPath && target.path != "/" {
		router.Handle(http.MethodGet, "/", server.RejectHandler())
	}

	listener, err := server.Listen(target.addr(), router)
	if err != nil {
		return nil, err
	}

	var stopOnce sync.Once
	stop := func() {
		stopOnce.Do(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := listener.Close(shutdownCtx); err != nil {
				f.logger.Warn("callback listener did not stop cleanly", "error", err)
			}
			f.logger.Debug("callback listener stopped")
		})
	}
	defer stop()

	redirectURI = target.redirectURI(redirectURI, listener.Addr())
	f.logger.Debug("callback listener started", "addr", listener.Addr().String(), "redirect_uri", redirectURI)

	cfg := f.config(creds, redirectURI)
	authURL := cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("show_dialog", "true"))

	f.logger.Info("opening browser for authorization")
	if err := f.openBrowser(authURL); err != nil {
		f.logger.Warn("could not open browser", "error", err)
		fmt.Fprintf(f.out, "Open this URL in your browser to authorize:\n%s\n", authURL)
	}
	fmt.Fprintln(f.out, "Waiting for authorization... (check the opened browser window)")

	timer := time.NewTimer(f.timeout)
	defer timer.Stop()

	var result server.CallbackResult
	select {
	case result = <-handler.Result():
	case <-timer.C:
		return nil, fmt.Errorf("%w after %s", shared.ErrAuthorizationTimeout, f.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	stop()

	if result.Error != "" {
		return nil, &shared.AuthorizationError{Code: result.Error}
	}

	tok, err := cfg.Exchange(f.oauthContext(ctx), result.Code)
	if err != nil {
		return nil, tokenError(err)
	}
	return toTokenResponse(tok), nil
}

// Refresh exchanges creds.RefreshToken for a new access token.
//
// The returned RefreshToken is set only when the server rotated it.
func (f *OAuthFlow) Refresh(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if creds.RefreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	cfg := f.config(creds, creds.RedirectURI)
	tok, err := cfg.TokenSource(f.oauthContext(ctx), &oauth2.Token{RefreshToken: creds.RefreshToken}).Token()
	if err != nil {
		return nil, tokenError(err)
	}
	return toTokenResponse(tok), nil
}

func tokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return &shared.TokenExchangeError{Status: re.Response.StatusCode, Body: string(re.Body)}
	}
	return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
}

// toTokenResponse reads fields from the raw response so a refresh token carried over by the
// oauth2 package is not mistaken for a rotated one.
func toTokenResponse(tok *oauth2.Token) *models.TokenResponse {
	resp := &models.TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: extraString(tok, "refresh_token"),
		TokenType:    tok.TokenType,
		Scope:        extraString(tok, "scope"),
		ExpiresIn:    extraInt(tok, "expires_in"),
	}
	if resp.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		resp.ExpiresIn = int64(time.Until(tok.Expiry).Round(time.Second) / time.Second)
	}
	return resp
}

func extraString(tok *oauth2.Token, key string) string {
	if s, ok := tok.Extra(key).(string); ok {
		return s
	}
	return ""
}

func extraInt(tok *oauth2.Token, key string) int64 {
	switch v := tok.Extra(key).(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}
