package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/cashbackhub/internal/client/client"
	"github.com/dmitrijs2005/cashbackhub/internal/client/models"
	"github.com/dmitrijs2005/cashbackhub/internal/client/routes"
	"github.com/dmitrijs2005/cashbackhub/internal/client/session"
)

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// reportError prints a user-facing line for err.
func (a *App) reportError(err error) {
	var verr *session.ValidationError
	if errors.As(err, &verr) {
		a.println("Please fix the following:")
		keys := make([]string, 0, len(verr.Fields))
		for k := range verr.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			a.printf("  - %s %s\n", k, verr.Fields[k])
		}
		return
	}
	if errors.Is(err, session.ErrNotAuthenticated) {
		a.println("You need to sign in first (type 'login').")
		return
	}
	a.println(client.UserMessage(err))
}

func (a *App) renderLoading(route routes.Route) {
	a.printf("== %s ==\nLoading...\n", route.Title)
}

func (a *App) renderPage(route routes.Route) {
	a.printf("== %s ==\n", route.Title)

	switch route.Path {
	case routes.Home:
		a.renderHome()
	case routes.Login:
		a.println("Type 'login' to sign in or 'register' to create an account.")
	case routes.Register, routes.RegisterPublisher, routes.RegisterPromoter:
		role, _ := routes.RoleForRegistration(route.Path)
		a.printf("Type 'register %s' to create a %s account.\n", role, role)
	case routes.Unauthorized:
		a.println("You do not have access to this page. Type 'home' to go to your dashboard.")
	case routes.Account:
		a.renderAccount()
	case routes.UserHome, routes.PublisherHome, routes.PromoterHome, routes.AdminHome:
		a.renderDashboard()
	}
}

func (a *App) renderHome() {
	u := a.session.User()
	if u == nil {
		a.println("Earn cashback on every purchase, publish offers or promote them.")
		a.println("Type 'login', 'register', 'register publisher' or 'register promoter'.")
		return
	}
	a.printf("Signed in as %s. Type 'home' to open your dashboard.\n", u.FullName())
}

func (a *App) renderBanner() {
	if notice := a.session.VerificationNotice(); notice != "" {
		a.println("! " + notice)
	}
}

func (a *App) renderAccount() {
	u := a.session.User()
	if u == nil {
		return
	}
	a.renderBanner()
	a.printUser(u)
}

func (a *App) printUser(u *models.User) {
	a.printf("Name:        %s\n", u.FullName())
	a.printf("Email:       %s\n", u.Email)
	if u.Phone != "" {
		a.printf("Phone:       %s\n", u.Phone)
	}
	a.printf("Role:        %s\n", u.Role)
	a.printf("Verified:    %s\n", yesNo(u.IsVerified))
	a.printf("Two-factor:  %s\n", onOff(u.TwoFactorEnabled))
	switch u.Role {
	case models.RolePublisher:
		a.printf("Company:     %s\n", u.CompanyName)
		a.printf("Website:     %s\n", u.Website)
	case models.RolePromoter:
		a.printf("Channels:    %s\n", strings.Join(u.Channels, ", "))
		a.printf("Audience:    %d\n", u.AudienceSize)
	}
}

func (a *App) renderDashboard() {
	u := a.session.User()
	if u == nil {
		return
	}
	a.renderBanner()
	a.printf("Hello, %s!\n", u.FullName())

	ctx, cancel := a.requestContext()
	defer cancel()

	summary, err := a.session.Dashboard(ctx)
	if err != nil {
		a.logger.Warn(ctx, "dashboard", "error", err)
		a.reportError(err)
		return
	}

	keys := make([]string, 0, len(summary.Metrics))
	for k := range summary.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		a.printf("  %-24s %12.2f\n", k, summary.Metrics[k])
	}
	for _, n := range summary.Notices {
		a.println("* " + n)
	}
}

// requestContext bounds calls made while drawing a page, which has no
// caller context of its own.
func (a *App) requestContext() (context.Context, context.CancelFunc) {
	timeout := 10 * time.Second
	if a.config != nil && a.config.RequestTimeout > 0 {
		timeout = a.config.RequestTimeout
	}
	return context.WithTimeout(context.Background(), timeout)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
