package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/browser"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"fetcher.dev/cli/internal/core/domain"
)

// State is the phase of an authorization flow
type State int32

const (
	Idle State = iota
	AwaitingAuthorization
	ExchangingCode
	Authenticated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingAuthorization:
		return "awaiting_authorization"
	case ExchangingCode:
		return "exchanging_code"
	case Authenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// DefaultTimeout bounds the wait for the browser redirect
const DefaultTimeout = 300 * time.Second

// Opener presents the authorization URL to the user
type Opener func(url string) error

// DefaultOpener opens url in the system browser. Browser helper output goes to stderr.
func DefaultOpener(url string) error {
	browser.Stdout = os.Stderr
	return browser.OpenURL(url)
}

// Runner drives the authorization-code flow for one provider.
// Flows are serialised: a second caller waits for the first to finish.
type Runner struct {
	provider   Provider
	timeout    time.Duration
	open       Opener
	httpClient *http.Client
	logger     *zap.Logger
	newState   func() string

	mu    sync.Mutex
	state atomic.Int32
}

// Option configures a Runner
type Option func(*Runner)

// WithTimeout sets the authorization window
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithOpener replaces the browser launcher
func WithOpener(open Opener) Option {
	return func(r *Runner) {
		if open != nil {
			r.open = open
		}
	}
}

// WithHTTPClient sets the client used for token endpoint calls
func WithHTTPClient(c *http.Client) Option {
	return func(r *Runner) { r.httpClient = c }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a flow runner for provider
func NewRunner(provider Provider, opts ...Option) *Runner {
	r := &Runner{
		provider: provider,
		timeout:  DefaultTimeout,
		open:     DefaultOpener,
		logger:   zap.NewNop(),
		newState: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.Named("oauth").With(zap.String("provider", provider.Name))
	return r
}

// State returns the current phase
func (r *Runner) State() State {
	return State(r.state.Load())
}

func (r *Runner) setState(s State) {
	prev := State(r.state.Swap(int32(s)))
	if prev != s {
		r.logger.Debug("flow state changed", zap.Stringer("from", prev), zap.Stringer("to", s))
	}
}

type callbackResult struct {
	code string
	err  error
}

// Run performs a full authorization: bind the redirect listener, open the browser,
// wait for the redirect and exchange the code. Prompts are written to out.
func (r *Runner) Run(ctx context.Context, out io.Writer) (token *domain.Token, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.setState(AwaitingAuthorization)
	defer func() {
		if err != nil {
			r.setState(Idle)
		}
	}()

	addr, path, err := r.provider.redirectTarget()
	if err != nil {
		return nil, err
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind redirect listener on %s: %w", addr, err)
	}

	state := r.newState()
	results := make(chan callbackResult, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(path, r.callbackHandler(state, results))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	authURL := r.provider.AuthCodeURL(state)
	fmt.Fprintf(out, "Opening browser for %s authorization...\n", r.provider.Name)
	if err := r.open(authURL); err != nil {
		r.logger.Warn("failed to open browser", zap.Error(err))
		fmt.Fprintf(out, "Could not open a browser. Visit this URL to authorize:\n%s\n", authURL)
	}
	fmt.Fprintf(out, "Waiting for authorization (timeout %s)...\n", r.timeout)

	code, waitErr := r.awaitCallback(gctx, results)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	_ = srv.Shutdown(shutdownCtx)
	cancel()
	if serveErr := g.Wait(); serveErr != nil {
		return nil, fmt.Errorf("redirect listener failed: %w", serveErr)
	}
	if waitErr != nil {
		return nil, waitErr
	}

	r.setState(ExchangingCode)
	token, err = r.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	r.setState(Authenticated)
	return token, nil
}

func (r *Runner) awaitCallback(ctx context.Context, results <-chan callbackResult) (string, error) {
	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case res := <-results:
		return res.code, res.err
	case <-timer.C:
		return "", fmt.Errorf("%w after %s", domain.ErrAuthorizationTimeout, r.timeout)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Runner) callbackHandler(state string, results chan<- callbackResult) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()

		var res callbackResult
		switch {
		case q.Get("error") != "":
			res.err = fmt.Errorf("%w: %s %s", domain.ErrAuthorizationDenied, q.Get("error"), q.Get("error_description"))
		case q.Get("state") != state:
			res.err = domain.ErrStateMismatch
		case q.Get("code") == "":
			res.err = fmt.Errorf("%w: redirect carried no code", domain.ErrAuthorizationDenied)
		default:
			res.code = q.Get("code")
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if res.err != nil {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, "<html><body><h1>Authorization error</h1><p>%s</p><p>Please try again.</p></body></html>", html.EscapeString(res.err.Error()))
		} else {
			fmt.Fprint(w, "<html><body><h1>Authorization completed!</h1><p>You can close this window and return to the terminal.</p></body></html>")
		}

		// Only the first redirect counts
		select {
		case results <- res:
		default:
		}
	}
}

func (r *Runner) clientContext(ctx context.Context) context.Context {
	if r.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, r.httpClient)
}

// Exchange trades an authorization code for a token
func (r *Runner) Exchange(ctx context.Context, code string) (*domain.Token, error) {
	tok, err := r.provider.Config().Exchange(r.clientContext(ctx), code)
	if err != nil {
		return nil, r.tokenEndpointError("code exchange", err)
	}
	r.logger.Info("authorization code exchanged")
	return domain.NewToken(tok.AccessToken, tok.RefreshToken, tok.Expiry, time.Now()), nil
}

func (r *Runner) tokenEndpointError(op string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return fmt.Errorf("%s failed: %w", op, &domain.HTTPError{
			Method:     http.MethodPost,
			URL:        r.provider.TokenURL,
			StatusCode: re.Response.StatusCode,
			Body:       string(re.Body),
		})
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
