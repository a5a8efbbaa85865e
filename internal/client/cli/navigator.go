package cli

import (
	"errors"
	"sync"

	"github.com/dmitrijs2005/cashbackhub/internal/client/guard"
	"github.com/dmitrijs2005/cashbackhub/internal/client/routes"
	"github.com/dmitrijs2005/cashbackhub/internal/client/session"
)

// ErrPageNotFound is returned when a path is not in the route table.
var ErrPageNotFound = errors.New("page not found")

// maxRedirects caps how many guard redirects a single navigation follows.
const maxRedirects = 4

// Navigator holds the current page of the terminal client and applies the
// route guard whenever the page or the session changes.
type Navigator struct {
	mu      sync.Mutex
	current string

	state   func() session.State
	render  func(route routes.Route)
	loading func(route routes.Route)
	visited func(path string)
}

// NewNavigator builds a navigator. state supplies the session snapshot the
// guard decides on; render draws a page the guard admitted.
func NewNavigator(state func() session.State, render func(route routes.Route)) *Navigator {
	return &Navigator{
		state:   state,
		render:  render,
		loading: func(routes.Route) {},
		visited: func(string) {},
	}
}

// OnLoading sets what is drawn while the session is still being restored.
func (n *Navigator) OnLoading(fn func(route routes.Route)) {
	n.loading = fn
}

// OnVisit sets a hook called with every page that is rendered.
func (n *Navigator) OnVisit(fn func(path string)) {
	n.visited = fn
}

// Current returns the path of the page being shown, or "" before the first
// navigation.
func (n *Navigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Navigate opens path unless it is already the current page.
func (n *Navigator) Navigate(path string) {
	path = routes.Normalize(path)
	if path == n.Current() {
		return
	}
	_, _ = n.Open(path)
}

// Open evaluates the guard for path and follows redirects until a page
// renders or waits for the session. The returned outcome is the final one;
// a followed redirect is not reported.
func (n *Navigator) Open(path string) (guard.Outcome, error) {
	return n.resolve(routes.Normalize(path), n.state())
}

// OnSessionChange re-evaluates the current page. It is meant to be passed to
// session.Store.Subscribe.
func (n *Navigator) OnSessionChange(st session.State) {
	current := n.Current()
	if current == "" {
		return
	}
	_, _ = n.resolve(current, st)
}

func (n *Navigator) resolve(path string, st session.State) (guard.Outcome, error) {
	for hops := 0; hops <= maxRedirects; hops++ {
		route, ok := routes.Lookup(path)
		if !ok {
			return guard.Outcome{}, ErrPageNotFound
		}

		out := guard.ForRoute(route, st)
		switch out.Kind {
		case guard.Redirect:
			path = out.Path
			continue
		case guard.Loading:
			n.setCurrent(route.Path)
			n.loading(route)
		default:
			n.setCurrent(route.Path)
			n.visited(route.Path)
			n.render(route)
		}
		return out, nil
	}

	home, _ := routes.Lookup(routes.Home)
	n.setCurrent(home.Path)
	n.render(home)
	return guard.RenderOutcome(), nil
}

func (n *Navigator) setCurrent(path string) {
	n.mu.Lock()
	n.current = path
	n.mu.Unlock()
}
