// Package guard decides what a page should do given the session state. The
// functions here never navigate; callers act on the returned Outcome.
package guard

import (
	"fmt"
	"slices"

	"github.com/dmitrijs2005/cashbackhub/internal/client/models"
	"github.com/dmitrijs2005/cashbackhub/internal/client/routes"
	"github.com/dmitrijs2005/cashbackhub/internal/client/session"
)

// Kind is the tag of an Outcome.
type Kind int

const (
	// Loading means the session is still being restored; show a placeholder
	// and decide nothing yet.
	Loading Kind = iota
	Render
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Loading:
		return "loading"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Outcome is a guard decision. Path is set only for Redirect.
type Outcome struct {
	Kind Kind
	Path string
}

func (o Outcome) String() string {
	if o.Kind == Redirect {
		return "redirect " + o.Path
	}
	return o.Kind.String()
}

func RenderOutcome() Outcome { return Outcome{Kind: Render} }

func LoadingOutcome() Outcome { return Outcome{Kind: Loading} }

func RedirectTo(path string) Outcome { return Outcome{Kind: Redirect, Path: path} }

// Protect guards a page that needs a session. An empty allowed list admits
// any signed-in user.
func Protect(state session.State, allowed []models.Role) Outcome {
	if state.Loading {
		return LoadingOutcome()
	}
	if state.User == nil {
		return RedirectTo(routes.Login)
	}
	if len(allowed) > 0 && !slices.Contains(allowed, state.User.Role) {
		return RedirectTo(routes.Unauthorized)
	}
	return RenderOutcome()
}

// PublicOnly guards sign-in and sign-up pages: a signed-in user is sent to
// their home page instead.
func PublicOnly(state session.State) Outcome {
	if state.Loading {
		return LoadingOutcome()
	}
	if state.User != nil {
		return RedirectTo(routes.DestinationFor(state.User.Role))
	}
	return RenderOutcome()
}

// ForRoute applies the guard matching the route's access kind.
func ForRoute(route routes.Route, state session.State) Outcome {
	switch route.Access {
	case routes.Protected:
		return Protect(state, route.Roles)
	case routes.PublicOnly:
		return PublicOnly(state)
	default:
		return RenderOutcome()
	}
}
