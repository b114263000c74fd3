package access

import (
	"net/http"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// DefaultUserContextKey is where guard middleware stores the resolved
// *User in the router context.
const DefaultUserContextKey = "access:user"

// GuardConfig controls where guards read credentials and route values
// from. The zero value is usable; empty fields fall back to defaults.
type GuardConfig struct {
	// HeaderName is the header holding the bearer credential. Defaults
	// to "Authorization".
	HeaderName string
	// CookieName is the session cookie. Defaults to "session_token".
	CookieName string
	// ResourceParam is the route parameter holding the resource ID for
	// level guards. Defaults to "id".
	ResourceParam string
	// ContextKey is the Locals key the resolved user is stored under.
	ContextKey string
	// ErrorHandler renders guard failures. Defaults to a JSON handler
	// keyed off the error code.
	ErrorHandler func(router.Context, error) error
}

func (c GuardConfig) headerName() string {
	if c.HeaderName == "" {
		return "Authorization"
	}
	return c.HeaderName
}

func (c GuardConfig) cookieName() string {
	if c.CookieName == "" {
		return "session_token"
	}
	return c.CookieName
}

func (c GuardConfig) resourceParam() string {
	if c.ResourceParam == "" {
		return "id"
	}
	return c.ResourceParam
}

func (c GuardConfig) contextKey() string {
	if c.ContextKey == "" {
		return DefaultUserContextKey
	}
	return c.ContextKey
}

// HTTPGuard adapts an AuthManager into go-router middleware. Each guard
// resolves the caller, stores it under the configured Locals key and in
// the request context, and invokes the error handler on failure.
type HTTPGuard struct {
	manager *AuthManager
	cfg     GuardConfig
	logger  Logger
}

// NewHTTPGuard returns a guard factory over manager.
func NewHTTPGuard(manager *AuthManager, cfg GuardConfig) *HTTPGuard {
	g := &HTTPGuard{
		manager: manager,
		cfg:     cfg,
		logger:  defLogger{},
	}

	if g.cfg.ErrorHandler == nil {
		g.cfg.ErrorHandler = g.defaultErrHandler
	}

	return g
}

func (g *HTTPGuard) WithLogger(logger Logger) *HTTPGuard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// RequireAuthenticated rejects requests without a valid, locally linked
// identity.
func (g *HTTPGuard) RequireAuthenticated() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, err := g.manager.Authenticate(ctx.Context(), g.header(ctx), g.cookie(ctx))
			if err != nil {
				return g.cfg.ErrorHandler(ctx, err)
			}

			g.storeUser(ctx, user)
			return next(ctx)
		}
	}
}

// OptionalAuthenticated resolves the caller when credentials are valid and
// proceeds anonymously when they are absent or rejected. Provider outages
// still fail the request.
func (g *HTTPGuard) OptionalAuthenticated() router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, err := g.manager.OptionalAuthenticate(ctx.Context(), g.header(ctx), g.cookie(ctx))
			if err != nil {
				return g.cfg.ErrorHandler(ctx, err)
			}

			if user != nil {
				g.storeUser(ctx, user)
			}
			return next(ctx)
		}
	}
}

// RequireLevel authenticates and then requires the given level on the
// resource named by the configured route parameter.
func (g *HTTPGuard) RequireLevel(required AccessLevel) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, err := g.manager.RequireLevel(
				ctx.Context(),
				g.header(ctx),
				g.cookie(ctx),
				ctx.Param(g.cfg.resourceParam()),
				required,
			)
			if err != nil {
				return g.cfg.ErrorHandler(ctx, err)
			}

			g.storeUser(ctx, user)
			return next(ctx)
		}
	}
}

// OptionalLevel is RequireLevel with optional authentication, for routes
// where a public resource satisfies the check anonymously.
func (g *HTTPGuard) OptionalLevel(required AccessLevel) router.MiddlewareFunc {
	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			user, err := g.manager.OptionalLevel(
				ctx.Context(),
				g.header(ctx),
				g.cookie(ctx),
				ctx.Param(g.cfg.resourceParam()),
				required,
			)
			if err != nil {
				return g.cfg.ErrorHandler(ctx, err)
			}

			if user != nil {
				g.storeUser(ctx, user)
			}
			return next(ctx)
		}
	}
}

func (g *HTTPGuard) header(ctx router.Context) string {
	return ctx.GetString(g.cfg.headerName(), "")
}

func (g *HTTPGuard) cookie(ctx router.Context) string {
	return ctx.Cookies(g.cfg.cookieName())
}

func (g *HTTPGuard) storeUser(ctx router.Context, user *User) {
	ctx.Locals(g.cfg.contextKey(), user)
	ctx.SetContext(WithUserContext(ctx.Context(), user))
}

func (g *HTTPGuard) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	g.logger.Info(
		"guard error handler: %s category=%s details=%s",
		richErr.Message,
		richErr.Category,
		print.MaybePrettyJSON(richErr.Metadata),
	)

	return c.JSON(statusFor(richErr), map[string]any{
		"error": richErr.Message,
		"code":  richErr.TextCode,
	})
}

func statusFor(err *errors.Error) int {
	if err.Code > 0 {
		return err.Code
	}
	return http.StatusInternalServerError
}
