package surface

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jrsteele09/go-auth-client/authmodel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	defaultPollInterval = 250 * time.Millisecond
	defaultHardTimeout  = 5 * time.Minute
	defaultCallbackPath = "/callback"

	// completionPage is shown in the browser once the redirect has landed.
	completionPage = `<!DOCTYPE html><html><body><p>Sign-in complete. You can close this window.</p></body></html>`
)

// OpenFunc launches the user's browser at url. Returning an error aborts the
// attempt with a configuration failure.
type OpenFunc func(url string) error

// ClosedFunc reports whether the user has closed the interactive surface.
// It is polled once per poll interval; implementations that cannot observe
// closure return false and rely on the hard timeout ceiling.
type ClosedFunc func() bool

// Loopback is a Surface that listens on a local HTTP port for the provider
// redirect, in the style of CLI OAuth logins. The redirect URI registered with
// the provider must point at this listener.
type Loopback struct {
	listenAddr   string
	callbackPath string
	open         OpenFunc
	closed       ClosedFunc
	closeNotify  func()
	pollInterval time.Duration
	hardTimeout  time.Duration
}

// LoopbackOption modifies a Loopback surface.
type LoopbackOption func(*Loopback)

// WithOpenFunc sets how the browser is launched.
func WithOpenFunc(open OpenFunc) LoopbackOption {
	return func(l *Loopback) {
		l.open = open
	}
}

// WithClosedFunc sets the closure probe polled each interval.
func WithClosedFunc(closed ClosedFunc) LoopbackOption {
	return func(l *Loopback) {
		l.closed = closed
	}
}

// WithPollInterval sets how often the closure probe runs.
func WithPollInterval(interval time.Duration) LoopbackOption {
	return func(l *Loopback) {
		l.pollInterval = interval
	}
}

// WithHardTimeout sets the ceiling after which a stuck interactive flow is
// force-cancelled and the surface closed.
func WithHardTimeout(timeout time.Duration) LoopbackOption {
	return func(l *Loopback) {
		l.hardTimeout = timeout
	}
}

// WithCloseNotify registers fn to run when the surface is torn down. It runs
// exactly once per Present call, whichever exit path fires first.
func WithCloseNotify(fn func()) LoopbackOption {
	return func(l *Loopback) {
		l.closeNotify = fn
	}
}

// WithCallbackPath sets the path component of the redirect URI.
func WithCallbackPath(path string) LoopbackOption {
	return func(l *Loopback) {
		l.callbackPath = path
	}
}

// NewLoopback creates a loopback redirect surface listening on listenAddr,
// e.g. "127.0.0.1:48100".
func NewLoopback(listenAddr string, options ...LoopbackOption) *Loopback {
	l := &Loopback{
		listenAddr:   listenAddr,
		callbackPath: defaultCallbackPath,
		open: func(url string) error {
			log.Info().Str("url", url).Msg("Open this URL in your browser to continue sign-in")
			return nil
		},
		pollInterval: defaultPollInterval,
		hardTimeout:  defaultHardTimeout,
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// RedirectURI returns the redirect URI the provider must be configured with.
func (l *Loopback) RedirectURI() string {
	return fmt.Sprintf("http://%s%s", l.listenAddr, l.callbackPath)
}

// Present opens authURL and waits for the redirect on the loopback listener.
func (l *Loopback) Present(ctx context.Context, authURL string) (*Redirect, error) {
	listener, err := net.Listen("tcp", l.listenAddr)
	if err != nil {
		return nil, authmodel.WrapError(authmodel.ErrConfiguration,
			errors.Wrap(err, "[Loopback.Present] listen"))
	}

	redirectCh := make(chan *Redirect, 1)
	server := &http.Server{Handler: l.callbackHandler(redirectCh)}
	go func() {
		_ = server.Serve(listener)
	}()

	// The surface must be torn down exactly once, on every exit path.
	var closeOnce sync.Once
	closeSurface := func() {
		closeOnce.Do(func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
			if l.closeNotify != nil {
				l.closeNotify()
			}
		})
	}
	defer closeSurface()

	if err := l.open(authURL); err != nil {
		return nil, authmodel.WrapError(authmodel.ErrConfiguration,
			errors.Wrap(err, "[Loopback.Present] open browser"))
	}

	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()
	ceiling := time.NewTimer(l.hardTimeout)
	defer ceiling.Stop()

	for {
		select {
		case redirect := <-redirectCh:
			closeSurface()
			return redirect, nil
		case <-ticker.C:
			if l.closed != nil && l.closed() {
				closeSurface()
				return nil, authmodel.NewError(authmodel.ErrCancelled, "interactive surface closed by user")
			}
		case <-ceiling.C:
			closeSurface()
			return nil, authmodel.NewError(authmodel.ErrTimeout, "interactive flow exceeded %s ceiling", l.hardTimeout)
		case <-ctx.Done():
			closeSurface()
			return nil, authmodel.NewError(authmodel.ErrCancelled, "login attempt superseded or aborted: %v", ctx.Err())
		}
	}
}

func (l *Loopback) callbackHandler(redirectCh chan<- *Redirect) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(l.callbackPath, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		redirect := &Redirect{
			Code:             query.Get("code"),
			State:            query.Get("state"),
			Error:            query.Get("error"),
			ErrorDescription: query.Get("error_description"),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, completionPage)

		select {
		case redirectCh <- redirect:
		default: // duplicate redirect, first one wins
		}
	})
	return mux
}
