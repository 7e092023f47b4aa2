package parley

// View paths.
const (
	PathHome      = "/"
	PathLogin     = "/login"
	PathRegister  = "/register"
	PathDashboard = "/dashboard"
)

// Route is a view and its authentication requirement.
type Route struct {
	Path         string
	RequiresAuth bool
}

// Routes lists every view by path.
var Routes = map[string]Route{
	PathHome:      {Path: PathHome},
	PathLogin:     {Path: PathLogin},
	PathRegister:  {Path: PathRegister},
	PathDashboard: {Path: PathDashboard, RequiresAuth: true},
}

// RouteFor returns the route registered for path. Unknown paths require
// authentication.
func RouteFor(path string) Route {
	if r, ok := Routes[path]; ok {
		return r
	}
	return Route{Path: path, RequiresAuth: true}
}

// Decision is the outcome of a guard check.
type Decision int

const (
	Render          Decision = iota // Show the requested view.
	RedirectLogin                   // Session required but missing.
	RedirectDefault                 // Session present on a view that forbids it.
)

// Decide applies the guard rule to a view requirement and session state.
func Decide(requiresAuth, authenticated bool) Decision {
	switch {
	case requiresAuth && !authenticated:
		return RedirectLogin
	case !requiresAuth && authenticated:
		return RedirectDefault
	default:
		return Render
	}
}

// GuardStatus is what the presentation layer should render for a view.
type GuardStatus int

const (
	GuardChecking    GuardStatus = iota // Decision pending; render a placeholder.
	GuardRedirecting                    // Navigate to the returned target.
	GuardShow                           // Render the view.
)

func (s GuardStatus) String() string {
	switch s {
	case GuardChecking:
		return "checking"
	case GuardRedirecting:
		return "redirecting"
	case GuardShow:
		return "show"
	default:
		return "unknown"
	}
}

// Guard decides whether a view may be shown given the stored session.
// The zero status is GuardChecking; call Evaluate on every path or session
// change.
type Guard struct {
	store       SessionStore
	loginPath   string
	defaultPath string
	status      GuardStatus
}

// GuardOption configures a Guard.
type GuardOption func(*Guard)

// WithLoginPath sets the redirect target for unauthenticated access.
func WithLoginPath(path string) GuardOption {
	return func(g *Guard) { g.loginPath = path }
}

// WithDefaultPath sets the redirect target for authenticated users on views
// that forbid them.
func WithDefaultPath(path string) GuardOption {
	return func(g *Guard) { g.defaultPath = path }
}

// NewGuard creates a Guard reading sessions from store.
func NewGuard(store SessionStore, opts ...GuardOption) *Guard {
	g := &Guard{
		store:       store,
		loginPath:   PathLogin,
		defaultPath: PathDashboard,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Status returns the result of the last evaluation.
func (g *Guard) Status() GuardStatus { return g.status }

// Begin marks a new check as pending.
func (g *Guard) Begin() { g.status = GuardChecking }

// Evaluate checks route against the stored session. The target is set only
// when the status is GuardRedirecting. A session read failure on a protected
// view redirects to login.
func (g *Guard) Evaluate(route Route) (GuardStatus, string) {
	s, err := g.store.Get()
	authenticated := err == nil && s.Authenticated()
	switch Decide(route.RequiresAuth, authenticated) {
	case RedirectLogin:
		g.status = GuardRedirecting
		return g.status, g.loginPath
	case RedirectDefault:
		g.status = GuardRedirecting
		return g.status, g.defaultPath
	default:
		g.status = GuardShow
		return g.status, ""
	}
}
