package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/cashbackhub/internal/client/client"
	"github.com/dmitrijs2005/cashbackhub/internal/client/config"
	"github.com/dmitrijs2005/cashbackhub/internal/client/models"
	"github.com/dmitrijs2005/cashbackhub/internal/client/routes"
	"github.com/dmitrijs2005/cashbackhub/internal/client/session"
	"github.com/dmitrijs2005/cashbackhub/internal/client/tokens"
	"github.com/dmitrijs2005/cashbackhub/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	loginReqs  []models.LoginRequest
	loginResps []*models.AuthResponse
	loginErr   error

	registered   models.RegistrationProfile
	registerResp *models.AuthResponse
	registerErr  error

	currentUser    *models.User
	currentUserErr error

	logoutToken string
	resendEmail string
	passwords   *models.PasswordChange
	disablePwd  string
	patch       *models.ProfilePatch
	updatedUser *models.User
	setupResp   *models.TwoFactorSetup

	dashboard    *models.DashboardSummary
	dashboardErr error
	pingErr      error
}

var _ client.Client = (*fakeAPI)(nil)

func (f *fakeAPI) Login(_ context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	f.loginReqs = append(f.loginReqs, req)
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	resp := f.loginResps[0]
	if len(f.loginResps) > 1 {
		f.loginResps = f.loginResps[1:]
	}
	return resp, nil
}
func (f *fakeAPI) Register(_ context.Context, p models.RegistrationProfile) (*models.AuthResponse, error) {
	f.registered = p
	return f.registerResp, f.registerErr
}
func (f *fakeAPI) CurrentUser(context.Context) (*models.User, error) {
	return f.currentUser, f.currentUserErr
}
func (f *fakeAPI) Logout(_ context.Context, refreshToken string) error {
	f.logoutToken = refreshToken
	return nil
}
func (f *fakeAPI) ResendVerification(_ context.Context, email string) error {
	f.resendEmail = email
	return nil
}
func (f *fakeAPI) ResetPassword(_ context.Context, c models.PasswordChange) error {
	f.passwords = &c
	return nil
}
func (f *fakeAPI) SetupTwoFactor(context.Context) (*models.TwoFactorSetup, error) {
	return f.setupResp, nil
}
func (f *fakeAPI) DisableTwoFactor(_ context.Context, password string) error {
	f.disablePwd = password
	return nil
}
func (f *fakeAPI) UpdateProfile(_ context.Context, p models.ProfilePatch) (*models.User, error) {
	f.patch = &p
	return f.updatedUser, nil
}
func (f *fakeAPI) Dashboard(context.Context, models.Role) (*models.DashboardSummary, error) {
	if f.dashboardErr != nil {
		return nil, f.dashboardErr
	}
	if f.dashboard == nil {
		return &models.DashboardSummary{}, nil
	}
	return f.dashboard, nil
}
func (f *fakeAPI) Ping(context.Context) error { return f.pingErr }

func newTestApp(t *testing.T, api *fakeAPI, input string, pair *models.CredentialPair) (*App, *bytes.Buffer, *tokens.MemoryStore) {
	t.Helper()

	store := tokens.NewMemoryStore()
	if pair != nil {
		require.NoError(t, store.Set(context.Background(), *pair))
	}

	out := &bytes.Buffer{}
	a := &App{
		config: &config.Config{RequestTimeout: time.Second},
		logger: logging.Nop{},
		api:    api,
		reader: rdr(input),
		out:    out,
	}
	a.wire(store)
	t.Cleanup(a.Close)

	a.session.Bootstrap(context.Background())
	return a, out, store
}

func stubPasswords(t *testing.T, answers ...string) {
	t.Helper()
	orig := getPassword
	getPassword = func(_ string, _ io.Writer) ([]byte, error) {
		if len(answers) == 0 {
			return nil, io.EOF
		}
		pw := answers[0]
		answers = answers[1:]
		return []byte(pw), nil
	}
	t.Cleanup(func() { getPassword = orig })
}

func authResponse(u *models.User) *models.AuthResponse {
	return &models.AuthResponse{User: u, AccessToken: "T1", RefreshToken: "R1"}
}

var (
	ann = &models.User{ID: "u1", FirstName: "Ann", LastName: "Lee", Email: "ann@example.com", Role: models.RoleUser, IsVerified: true}
	pub = &models.User{ID: "p1", FirstName: "Pat", Email: "pat@example.com", Role: models.RolePublisher, CompanyName: "Acme", Website: "https://acme.example"}
)

func TestApp_Login(t *testing.T) {
	stubPasswords(t, "secret123")
	api := &fakeAPI{
		loginResps: []*models.AuthResponse{authResponse(pub)},
		dashboard:  &models.DashboardSummary{Metrics: map[string]float64{"offers": 3, "clicks": 120}},
	}
	a, out, store := newTestApp(t, api, "pat@example.com\n", nil)

	require.NoError(t, a.Login(context.Background()))

	require.Len(t, api.loginReqs, 1)
	assert.Equal(t, models.LoginRequest{Email: "pat@example.com", Password: "secret123"}, api.loginReqs[0])
	assert.True(t, store.HasCredentials(context.Background()))
	assert.Equal(t, routes.PublisherHome, a.nav.Current())
	assert.Contains(t, out.String(), "== Publisher dashboard ==")
	assert.Contains(t, out.String(), "clicks")
	assert.Contains(t, out.String(), "Signed in.")
}

func TestApp_LoginLandsOnRoleDestination(t *testing.T) {
	for _, role := range append(models.KnownRoles, models.RoleUnknown) {
		t.Run(string(role), func(t *testing.T) {
			stubPasswords(t, "secret123")
			u := &models.User{ID: "x1", FirstName: "Sam", Email: "sam@example.com", Role: role}
			api := &fakeAPI{loginResps: []*models.AuthResponse{authResponse(u)}}
			a, out, _ := newTestApp(t, api, "sam@example.com\n", nil)

			require.NoError(t, a.Login(context.Background()))

			want, ok := routes.Lookup(routes.DestinationFor(role))
			require.True(t, ok)
			assert.Equal(t, want.Path, a.nav.Current())
			assert.Contains(t, out.String(), "== "+want.Title+" ==")
			assert.Contains(t, out.String(), "Hello, Sam")
			assert.NotContains(t, out.String(), "Access denied")
		})
	}
}

func TestApp_LoginTwoFactor(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		stubPasswords(t, "secret123")
		api := &fakeAPI{loginResps: []*models.AuthResponse{{RequiresTwoFactor: true}, authResponse(ann)}}
		a, out, _ := newTestApp(t, api, "ann@example.com\n123456\n", nil)

		require.NoError(t, a.Login(context.Background()))
		require.Len(t, api.loginReqs, 2)
		assert.Empty(t, api.loginReqs[0].TwoFactorCode)
		assert.Equal(t, "123456", api.loginReqs[1].TwoFactorCode)
		assert.Equal(t, routes.UserHome, a.nav.Current())
		assert.Contains(t, out.String(), "Two-factor code")
	})

	t.Run("rejected", func(t *testing.T) {
		stubPasswords(t, "secret123")
		api := &fakeAPI{loginResps: []*models.AuthResponse{{RequiresTwoFactor: true}}}
		a, out, store := newTestApp(t, api, "ann@example.com\n000000\n", nil)

		require.ErrorIs(t, a.Login(context.Background()), errTwoFactorFailed)
		assert.False(t, a.isLoggedIn())
		assert.False(t, store.HasCredentials(context.Background()))
		assert.Contains(t, out.String(), "not accepted")
	})
}

func TestApp_LoginRejected(t *testing.T) {
	stubPasswords(t, "wrong-password")
	api := &fakeAPI{loginErr: &client.APIError{Status: http.StatusUnauthorized}}
	a, out, _ := newTestApp(t, api, "ann@example.com\n", nil)

	err := a.Login(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthorized)
	assert.Equal(t, routes.Login, a.nav.Current())
	assert.Contains(t, out.String(), "Invalid email or password.")
}

func TestApp_LoginWhenSignedIn(t *testing.T) {
	api := &fakeAPI{currentUser: ann}
	a, _, _ := newTestApp(t, api, "", &models.CredentialPair{AccessToken: "T1", RefreshToken: "R1"})

	require.ErrorIs(t, a.Login(context.Background()), errAlreadySignedIn)
	assert.Empty(t, api.loginReqs)
}

func TestApp_Register(t *testing.T) {
	t.Run("promoter", func(t *testing.T) {
		stubPasswords(t, "longpassword", "longpassword")
		promoter := &models.User{ID: "r1", FirstName: "Rob", LastName: "Ray", Email: "rob@example.com", Role: models.RolePromoter}
		api := &fakeAPI{registerResp: authResponse(promoter)}
		input := "Rob\nRay\nrob@example.com\n\nyoutube, blog\n5000\n"
		a, out, _ := newTestApp(t, api, input, nil)

		require.NoError(t, a.Register(context.Background(), "promoter"))

		got, ok := api.registered.(models.PromoterRegistration)
		require.True(t, ok, "got %T", api.registered)
		assert.Equal(t, []string{"youtube", "blog"}, got.Channels)
		assert.Equal(t, 5000, got.AudienceSize)
		assert.Equal(t, "longpassword", got.Password)
		assert.Equal(t, routes.PromoterHome, a.nav.Current())
		assert.Contains(t, out.String(), "== Register as a promoter ==")
		assert.Contains(t, out.String(), "Account created.")
		assert.Contains(t, out.String(), "verify your email address rob@example.com")
	})

	t.Run("passwords differ", func(t *testing.T) {
		stubPasswords(t, "longpassword", "otherpassword")
		api := &fakeAPI{}
		a, out, _ := newTestApp(t, api, "Ann\nLee\nann@example.com\n\n", nil)

		require.ErrorIs(t, a.Register(context.Background(), ""), errPasswordsMismatch)
		assert.Nil(t, api.registered)
		assert.Contains(t, out.String(), "Passwords do not match.")
	})

	t.Run("invalid fields", func(t *testing.T) {
		stubPasswords(t, "short", "short")
		api := &fakeAPI{}
		a, out, _ := newTestApp(t, api, "Pat\nPo\nnot-an-email\n\nAcme\nacme\n\n", nil)

		err := a.Register(context.Background(), "publisher")
		var verr *session.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Nil(t, api.registered)
		assert.Contains(t, out.String(), "Please fix the following:")
		assert.Contains(t, out.String(), "  - email must be a valid email address")
		assert.Contains(t, out.String(), "  - password must be at least 8 characters")
		assert.Contains(t, out.String(), "  - website must be a valid URL")
	})

	t.Run("email taken", func(t *testing.T) {
		stubPasswords(t, "longpassword", "longpassword")
		api := &fakeAPI{registerErr: &client.APIError{Status: http.StatusConflict}}
		a, out, _ := newTestApp(t, api, "Ann\nLee\nann@example.com\n\n\n", nil)

		require.ErrorIs(t, a.Register(context.Background(), "user"), client.ErrConflict)
		assert.Contains(t, out.String(), "An account with this email already exists.")
	})

	t.Run("unknown kind", func(t *testing.T) {
		a, out, _ := newTestApp(t, &fakeAPI{}, "", nil)
		require.ErrorIs(t, a.Register(context.Background(), "admin"), errUsage)
		assert.Contains(t, out.String(), "Usage: register")
	})
}

func TestApp_Logout(t *testing.T) {
	api := &fakeAPI{currentUser: ann}
	a, out, store := newTestApp(t, api, "", &models.CredentialPair{AccessToken: "T1", RefreshToken: "R1"})
	require.NoError(t, a.Open(context.Background(), routes.UserHome))

	require.NoError(t, a.Logout(context.Background()))

	assert.Equal(t, "R1", api.logoutToken)
	assert.False(t, store.HasCredentials(context.Background()))
	assert.False(t, a.isLoggedIn())
	assert.Equal(t, routes.Home, a.nav.Current())
	assert.Contains(t, out.String(), "Signed out.")
}

func TestApp_SessionExpiredWhileRendering(t *testing.T) {
	api := &fakeAPI{currentUser: ann, dashboardErr: client.ErrSessionExpired}
	a, out, store := newTestApp(t, api, "", &models.CredentialPair{AccessToken: "T1", RefreshToken: "R1"})

	require.NoError(t, a.Open(context.Background(), routes.UserHome))

	assert.False(t, a.isLoggedIn())
	assert.False(t, store.HasCredentials(context.Background()))
	assert.Equal(t, routes.Login, a.nav.Current())
	assert.Contains(t, out.String(), "Your session has expired.")
}

func TestApp_OpenAndHome(t *testing.T) {
	a, out, _ := newTestApp(t, &fakeAPI{}, "", nil)

	require.ErrorIs(t, a.Open(context.Background(), "/nowhere"), ErrPageNotFound)
	assert.Contains(t, out.String(), "Page not found: /nowhere")

	require.NoError(t, a.Open(context.Background(), routes.Account))
	assert.Equal(t, routes.Login, a.nav.Current())

	require.NoError(t, a.Home(context.Background()))
	assert.Equal(t, routes.Home, a.nav.Current())
	assert.Contains(t, out.String(), "== Welcome ==")
}

func TestApp_HomeSignedIn(t *testing.T) {
	a, _, _ := newTestApp(t, &fakeAPI{currentUser: pub}, "", &models.CredentialPair{AccessToken: "T1", RefreshToken: "R1"})

	require.NoError(t, a.Home(context.Background()))
	assert.Equal(t, routes.PublisherHome, a.nav.Current())
}

func TestApp_Whoami(t *testing.T) {
	a, out, _ := newTestApp(t, &fakeAPI{}, "", nil)
	require.NoError(t, a.Whoami(context.Background()))
	assert.Contains(t, out.String(), "Not signed in.")

	a, out, _ = newTestApp(t, &fakeAPI{currentUser: pub}, "", &models.CredentialPair{AccessToken: "T1", RefreshToken: "R1"})
	require.NoError(t, a.Whoami(context.Background()))
	assert.Contains(t, out.String(), "Email:       pat@example.com")
	assert.Contains(t, out.String(), "Company:     Acme")
}

func TestApp_Profile(t *testing.T) {
	t.Run("changes last name", func(t *testing.T) {
		updated := ann.Clone()
		updated.LastName = "Smith"
		api := &fakeAPI{currentUser: ann, updatedUser: updated}
		a, out, _ := newTestApp(t, api, "\nSmith\n\n", &models.CredentialPair{AccessToken: "T1", RefreshToken: "R1"})

		require.NoError(t, a.Profile(context.Background()))
		require.NotNil(t, api.patch)
		assert.Nil(t, api.patch.FirstName)
		assert.Nil(t, api.patch.Phone)
		require.NotNil(t, api.patch.LastName)
		assert.Equal(t, "Smith", *api.patch.LastName)
		assert.Equal(t, "Smith", a.session.User().LastName)
		assert.Contains(t, out.String(), "Profile updated.")
	})

	t.Run("nothing changed", func(t *testing.T) {
		api := &fakeAPI{currentUser: ann}
		a, out, _ := newTestApp(t, api, "Ann\n\n\n", &models.CredentialPair{AccessToken: "T1", RefreshToken: "R1"})

		require.NoError(t, a.Profile(context.Background()))
		assert.Nil(t, api.patch)
		assert.Contains(t, out.String(), "Nothing to update.")
	})

	t.Run("anonymous", func(t *testing.T) {
		a, out, _ := newTestApp(t, &fakeAPI{}, "", nil)
		require.ErrorIs(t, a.Profile(context.Background()), session.ErrNotAuthenticated)
		assert.Contains(t, out.String(), "sign in first")
	})
}

func TestApp_AccountActions(t *testing.T) {
	pair := &models.CredentialPair{AccessToken: "T1", RefreshToken: "R1"}

	t.Run("resend", func(t *testing.T) {
		api := &fakeAPI{currentUser: ann}
		a, out, _ := newTestApp(t, api, "", pair)
		require.NoError(t, a.Resend(context.Background()))
		assert.Equal(t, ann.Email, api.resendEmail)
		assert.Contains(t, out.String(), "Verification email sent to ann@example.com.")
	})

	t.Run("passwd", func(t *testing.T) {
		stubPasswords(t, "oldpassword", "newpassword", "newpassword")
		api := &fakeAPI{currentUser: ann}
		a, out, _ := newTestApp(t, api, "", pair)
		require.NoError(t, a.Passwd(context.Background()))
		assert.Equal(t, &models.PasswordChange{CurrentPassword: "oldpassword", NewPassword: "newpassword"}, api.passwords)
		assert.Contains(t, out.String(), "Password changed.")
	})

	t.Run("passwd same as current", func(t *testing.T) {
		stubPasswords(t, "oldpassword", "oldpassword", "oldpassword")
		api := &fakeAPI{currentUser: ann}
		a, out, _ := newTestApp(t, api, "", pair)
		require.Error(t, a.Passwd(context.Background()))
		assert.Nil(t, api.passwords)
		assert.Contains(t, out.String(), "must differ from the current password")
	})

	t.Run("2fa setup and disable", func(t *testing.T) {
		stubPasswords(t, "secret123")
		api := &fakeAPI{currentUser: ann, setupResp: &models.TwoFactorSetup{Secret: "JBSWY3DP", OTPAuthURL: "otpauth://totp/x"}}
		a, out, _ := newTestApp(t, api, "", pair)

		require.NoError(t, a.TwoFactor(context.Background(), "setup"))
		assert.True(t, a.session.User().TwoFactorEnabled)
		assert.Contains(t, out.String(), "secret: JBSWY3DP")
		assert.Contains(t, out.String(), "url:    otpauth://totp/x")

		require.NoError(t, a.TwoFactor(context.Background(), "disable"))
		assert.Equal(t, "secret123", api.disablePwd)
		assert.False(t, a.session.User().TwoFactorEnabled)

		require.ErrorIs(t, a.TwoFactor(context.Background(), "toggle"), errUsage)
	})
}
