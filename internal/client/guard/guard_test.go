package guard

import (
	"testing"

	"github.com/dmitrijs2005/cashbackhub/internal/client/models"
	"github.com/dmitrijs2005/cashbackhub/internal/client/routes"
	"github.com/dmitrijs2005/cashbackhub/internal/client/session"
	"github.com/stretchr/testify/assert"
)

func userWith(role models.Role) *models.User {
	return &models.User{ID: "1", Email: "a@b.com", Role: role}
}

func TestProtect(t *testing.T) {
	tests := []struct {
		name    string
		state   session.State
		allowed []models.Role
		want    Outcome
	}{
		{"loading without user", session.State{Loading: true}, nil, LoadingOutcome()},
		{"loading with user", session.State{Loading: true, User: userWith(models.RoleAdmin)}, nil, LoadingOutcome()},
		{"loading with matching role", session.State{Loading: true, User: userWith(models.RoleUser)}, []models.Role{models.RoleUser}, LoadingOutcome()},
		{"anonymous", session.State{}, nil, RedirectTo(routes.Login)},
		{"anonymous with roles", session.State{}, []models.Role{models.RoleUser}, RedirectTo(routes.Login)},
		{"any role admitted", session.State{User: userWith(models.RolePromoter)}, nil, RenderOutcome()},
		{"empty allowed list", session.State{User: userWith(models.RoleUnknown)}, []models.Role{}, RenderOutcome()},
		{"matching role", session.State{User: userWith(models.RolePublisher)}, []models.Role{models.RoleAdmin, models.RolePublisher}, RenderOutcome()},
		{"wrong role", session.State{User: userWith(models.RoleUser)}, []models.Role{models.RolePublisher}, RedirectTo(routes.Unauthorized)},
		{"unknown role", session.State{User: userWith(models.RoleUnknown)}, []models.Role{models.RoleUser}, RedirectTo(routes.Unauthorized)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Protect(tt.state, tt.allowed))
		})
	}
}

func TestProtect_NeverRendersWhileLoading(t *testing.T) {
	users := []*models.User{nil, userWith(models.RoleUser), userWith(models.RoleAdmin), userWith(models.RoleUnknown)}
	allowed := [][]models.Role{nil, {models.RoleUser}, {models.RoleAdmin, models.RolePromoter}}
	for _, u := range users {
		for _, a := range allowed {
			got := Protect(session.State{User: u, Loading: true}, a)
			assert.Equal(t, Loading, got.Kind)
		}
	}
}

func TestPublicOnly(t *testing.T) {
	assert.Equal(t, LoadingOutcome(), PublicOnly(session.State{Loading: true, User: userWith(models.RoleUser)}))
	assert.Equal(t, RenderOutcome(), PublicOnly(session.State{}))
	assert.Equal(t, RedirectTo(routes.PublisherHome), PublicOnly(session.State{User: userWith(models.RolePublisher)}))
	assert.Equal(t, RedirectTo(routes.PromoterHome), PublicOnly(session.State{User: userWith(models.RolePromoter)}))
	assert.Equal(t, RedirectTo(routes.UserHome), PublicOnly(session.State{User: userWith(models.RoleAdmin)}))
}

func TestForRoute(t *testing.T) {
	publisher := session.State{User: userWith(models.RolePublisher)}

	home, _ := routes.Lookup(routes.Home)
	login, _ := routes.Lookup(routes.Login)
	userHome, _ := routes.Lookup(routes.UserHome)
	account, _ := routes.Lookup(routes.Account)

	assert.Equal(t, RenderOutcome(), ForRoute(home, publisher))
	assert.Equal(t, RenderOutcome(), ForRoute(home, session.State{Loading: true}))
	assert.Equal(t, RedirectTo(routes.PublisherHome), ForRoute(login, publisher))
	assert.Equal(t, RedirectTo(routes.Unauthorized), ForRoute(userHome, publisher))
	assert.Equal(t, RenderOutcome(), ForRoute(account, publisher))
	assert.Equal(t, RedirectTo(routes.Login), ForRoute(account, session.State{}))
}

func TestForRoute_DestinationRendersForEveryRole(t *testing.T) {
	roles := append(models.KnownRoles, models.RoleUnknown, models.ParseRole("superhero"))
	for _, r := range roles {
		t.Run(string(r), func(t *testing.T) {
			route, ok := routes.Lookup(routes.DestinationFor(r))
			assert.True(t, ok)

			signedIn := session.State{User: userWith(r)}
			assert.Equal(t, RenderOutcome(), ForRoute(route, signedIn))
			assert.Equal(t, RedirectTo(route.Path), PublicOnly(signedIn))
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "loading", LoadingOutcome().String())
	assert.Equal(t, "render", RenderOutcome().String())
	assert.Equal(t, "redirect /login", RedirectTo(routes.Login).String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
