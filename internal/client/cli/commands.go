package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cashbackhub/internal/client/models"
	"github.com/dmitrijs2005/cashbackhub/internal/client/routes"
	"github.com/dmitrijs2005/cashbackhub/internal/client/session"
	"github.com/dmitrijs2005/cashbackhub/internal/secret"
)

// Interactive input helpers, swappable in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getList       = GetList
	getInt        = GetInt
)

var (
	errAlreadySignedIn   = errors.New("already signed in")
	errPasswordsMismatch = errors.New("passwords do not match")
	errTwoFactorFailed   = errors.New("two-factor code rejected")
	errUsage             = errors.New("usage")
)

// Open shows the page at path, subject to the route guard.
func (a *App) Open(_ context.Context, path string) error {
	if _, err := a.nav.Open(path); err != nil {
		a.printf("Page not found: %s\n", path)
		return err
	}
	return nil
}

// Home opens the landing page of the signed-in role, or the welcome page.
func (a *App) Home(ctx context.Context) error {
	if u := a.session.User(); u != nil {
		return a.Open(ctx, routes.DestinationFor(u.Role))
	}
	return a.Open(ctx, routes.Home)
}

// Login asks for credentials and signs in. Accounts with a second factor
// are asked for the code and the login is repeated with it.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		a.println("You are already signed in. Type 'logout' first.")
		return errAlreadySignedIn
	}
	a.nav.Navigate(routes.Login)

	email, err := getSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword("Password", a.out)
	if err != nil {
		return err
	}
	defer secret.Wipe(password)

	req := models.LoginRequest{Email: email, Password: string(password)}
	status, err := a.session.Login(ctx, req)
	if err != nil {
		a.reportError(err)
		return err
	}

	if status == session.LoginTwoFactorRequired {
		code, err := getSimpleText(a.reader, "Two-factor code", a.out)
		if err != nil {
			return err
		}
		req.TwoFactorCode = code
		if status, err = a.session.Login(ctx, req); err != nil {
			a.reportError(err)
			return err
		}
		if status == session.LoginTwoFactorRequired {
			a.println("The two-factor code was not accepted.")
			return errTwoFactorFailed
		}
	}

	a.println("Signed in.")
	return nil
}

// Register walks through the sign-up form of the given account kind
// ("user" when empty).
func (a *App) Register(ctx context.Context, kind string) error {
	role := models.RoleUser
	if kind != "" {
		role = models.ParseRole(kind)
	}
	if role != models.RoleUser && role != models.RolePublisher && role != models.RolePromoter {
		a.println("Usage: register [user|publisher|promoter]")
		return errUsage
	}
	if a.isLoggedIn() {
		a.println("You are already signed in. Type 'logout' first.")
		return errAlreadySignedIn
	}
	a.nav.Navigate(routes.RegistrationPath(role))

	base, err := a.readBaseRegistration()
	if err != nil {
		return err
	}

	var profile models.RegistrationProfile
	switch role {
	case models.RolePublisher:
		p := models.PublisherRegistration{BaseRegistration: base}
		if p.CompanyName, err = getSimpleText(a.reader, "Company name", a.out); err != nil {
			return err
		}
		if p.Website, err = getSimpleText(a.reader, "Website", a.out); err != nil {
			return err
		}
		if p.TaxID, err = getSimpleText(a.reader, "Tax ID (optional)", a.out); err != nil {
			return err
		}
		profile = p
	case models.RolePromoter:
		p := models.PromoterRegistration{BaseRegistration: base}
		if p.Channels, err = getList(a.reader, "Promotion channels", a.out); err != nil {
			return err
		}
		if p.AudienceSize, err = getInt(a.reader, "Audience size", a.out); err != nil {
			a.reportError(err)
			return err
		}
		profile = p
	default:
		p := models.UserRegistration{BaseRegistration: base}
		if p.ReferralCode, err = getSimpleText(a.reader, "Referral code (optional)", a.out); err != nil {
			return err
		}
		profile = p
	}

	if err := a.session.Register(ctx, profile); err != nil {
		a.reportError(err)
		return err
	}
	a.println("Account created. Check your inbox to verify your email.")
	return nil
}

func (a *App) readBaseRegistration() (models.BaseRegistration, error) {
	var (
		b   models.BaseRegistration
		err error
	)
	if b.FirstName, err = getSimpleText(a.reader, "First name", a.out); err != nil {
		return b, err
	}
	if b.LastName, err = getSimpleText(a.reader, "Last name", a.out); err != nil {
		return b, err
	}
	if b.Email, err = getSimpleText(a.reader, "Email", a.out); err != nil {
		return b, err
	}
	if b.Phone, err = getSimpleText(a.reader, "Phone (optional, e.g. +15551234567)", a.out); err != nil {
		return b, err
	}
	b.Password, err = a.readNewPassword("Password")
	return b, err
}

// readNewPassword asks for a password twice.
func (a *App) readNewPassword(prompt string) (string, error) {
	first, err := getPassword(prompt, a.out)
	if err != nil {
		return "", err
	}
	defer secret.Wipe(first)

	second, err := getPassword("Repeat "+prompt, a.out)
	if err != nil {
		return "", err
	}
	defer secret.Wipe(second)

	if string(first) != string(second) {
		a.println("Passwords do not match.")
		return "", errPasswordsMismatch
	}
	return string(first), nil
}

// Logout always succeeds locally.
func (a *App) Logout(ctx context.Context) error {
	a.session.Logout(ctx)
	a.println("Signed out.")
	return nil
}

// Whoami prints the signed-in user.
func (a *App) Whoami(_ context.Context) error {
	u := a.session.User()
	if u == nil {
		a.println("Not signed in.")
		return nil
	}
	a.printUser(u)
	return nil
}

// Reload re-reads the user from the backend.
func (a *App) Reload(ctx context.Context) error {
	if err := a.session.Reload(ctx); err != nil {
		a.reportError(err)
		return err
	}
	a.println("Profile refreshed.")
	return nil
}

// Profile edits the name and phone. Empty answers keep the current value.
func (a *App) Profile(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		a.reportError(session.ErrNotAuthenticated)
		return session.ErrNotAuthenticated
	}

	var patch models.ProfilePatch
	fields := []struct {
		prompt  string
		current string
		dst     **string
	}{
		{"First name", u.FirstName, &patch.FirstName},
		{"Last name", u.LastName, &patch.LastName},
		{"Phone", u.Phone, &patch.Phone},
	}
	changed := false
	for _, f := range fields {
		v, err := getSimpleText(a.reader, fmt.Sprintf("%s [%s]", f.prompt, f.current), a.out)
		if err != nil {
			return err
		}
		if v != "" && v != f.current {
			*f.dst = &v
			changed = true
		}
	}
	if !changed {
		a.println("Nothing to update.")
		return nil
	}

	if err := a.session.UpdateProfile(ctx, patch); err != nil {
		a.reportError(err)
		return err
	}
	a.println("Profile updated.")
	return nil
}

// Resend asks for a new verification email.
func (a *App) Resend(ctx context.Context) error {
	u := a.session.User()
	if u == nil {
		a.reportError(session.ErrNotAuthenticated)
		return session.ErrNotAuthenticated
	}
	if err := a.session.ResendVerification(ctx); err != nil {
		a.reportError(err)
		return err
	}
	a.printf("Verification email sent to %s.\n", u.Email)
	return nil
}

// Passwd changes the password.
func (a *App) Passwd(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.reportError(session.ErrNotAuthenticated)
		return session.ErrNotAuthenticated
	}
	current, err := getPassword("Current password", a.out)
	if err != nil {
		return err
	}
	defer secret.Wipe(current)

	next, err := a.readNewPassword("New password")
	if err != nil {
		return err
	}

	change := models.PasswordChange{CurrentPassword: string(current), NewPassword: next}
	if err := a.session.ResetPassword(ctx, change); err != nil {
		a.reportError(err)
		return err
	}
	a.println("Password changed.")
	return nil
}

// TwoFactor enables ("setup") or disables ("disable") the second factor.
func (a *App) TwoFactor(ctx context.Context, action string) error {
	switch action {
	case "setup":
		setup, err := a.session.SetupTwoFactor(ctx)
		if err != nil {
			a.reportError(err)
			return err
		}
		a.println("Two-factor authentication is on. Add this secret to your authenticator app:")
		a.printf("  secret: %s\n", setup.Secret)
		if setup.OTPAuthURL != "" {
			a.printf("  url:    %s\n", setup.OTPAuthURL)
		}
		return nil

	case "disable":
		if !a.isLoggedIn() {
			a.reportError(session.ErrNotAuthenticated)
			return session.ErrNotAuthenticated
		}
		password, err := getPassword("Password", a.out)
		if err != nil {
			return err
		}
		defer secret.Wipe(password)

		if err := a.session.DisableTwoFactor(ctx, string(password)); err != nil {
			a.reportError(err)
			return err
		}
		a.println("Two-factor authentication is off.")
		return nil

	default:
		a.println("Usage: 2fa setup|disable")
		return errUsage
	}
}
