// Package session owns the signed-in user of the client.
//
// A Store is created once per process, bootstrapped from the persisted
// credentials, mutated by sign-in, sign-up and sign-out, and closed on exit.
// Every change is announced to subscribers so guarded pages can re-evaluate.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/cashbackhub/internal/client/client"
	"github.com/dmitrijs2005/cashbackhub/internal/client/models"
	"github.com/dmitrijs2005/cashbackhub/internal/client/routes"
	"github.com/dmitrijs2005/cashbackhub/internal/client/tokens"
	"github.com/dmitrijs2005/cashbackhub/internal/logging"
	"github.com/go-playground/validator/v10"
)

var (
	// ErrNotAuthenticated is returned by account actions without a session.
	ErrNotAuthenticated = errors.New("not signed in")
	// ErrStale is returned when the session changed while a call was in
	// flight; its result has been dropped.
	ErrStale = errors.New("session changed during the request")
	// ErrMalformedResponse means the backend answered 2xx without the data
	// a session needs.
	ErrMalformedResponse = errors.New("malformed auth response")
)

// Navigator moves the client to another page.
type Navigator interface {
	Navigate(path string)
}

// State is a snapshot of the session. Consumers must not branch on User
// while Loading is true.
type State struct {
	User    *models.User
	Loading bool
}

// Authenticated reports whether the snapshot has a user.
func (s State) Authenticated() bool {
	return s.User != nil
}

// LoginStatus is the result of a login attempt that reached the backend.
type LoginStatus int

const (
	LoginCompleted LoginStatus = iota
	// LoginTwoFactorRequired means the password was accepted but the account
	// needs a second-factor code; nothing was stored.
	LoginTwoFactorRequired
)

func (s LoginStatus) String() string {
	if s == LoginTwoFactorRequired {
		return "two-factor-required"
	}
	return "completed"
}

type Store struct {
	api      client.Client
	tokens   tokens.Store
	nav      Navigator
	logger   logging.Logger
	validate *validator.Validate

	mu           sync.Mutex
	user         *models.User
	loading      bool
	epoch        uint64
	bootStarted  bool
	listeners    map[int]func(State)
	nextListener int
	closed       bool
}

// New creates a store in the loading state. nav may be nil.
func New(api client.Client, store tokens.Store, nav Navigator, logger logging.Logger) *Store {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Store{
		api:       api,
		tokens:    store,
		nav:       nav,
		logger:    logger.With("component", "session"),
		validate:  newValidator(),
		loading:   true,
		listeners: make(map[int]func(State)),
	}
}

// Bootstrap restores the session from persisted credentials. Only the first
// call does anything; it always ends with Loading false.
func (s *Store) Bootstrap(ctx context.Context) {
	s.mu.Lock()
	if s.bootStarted {
		s.mu.Unlock()
		return
	}
	s.bootStarted = true
	epoch := s.epoch
	s.mu.Unlock()

	if !s.tokens.HasCredentials(ctx) {
		s.logger.Debug(ctx, "no stored credentials")
		s.finishBootstrap(ctx, epoch, nil, false)
		return
	}

	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		s.logger.Warn(ctx, "stored credentials rejected", "error", err)
		s.finishBootstrap(ctx, epoch, nil, true)
		return
	}
	s.logger.Info(ctx, "session restored", "user_id", user.ID, "role", user.Role)
	s.finishBootstrap(ctx, epoch, user, false)
}

func (s *Store) finishBootstrap(ctx context.Context, epoch uint64, user *models.User, clear bool) {
	s.mu.Lock()
	s.loading = false
	if s.epoch == epoch {
		s.user = user.Clone()
		if clear {
			s.clearTokens(ctx)
		}
	}
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)
}

// Login signs in. A two-factor challenge leaves the session and the stored
// credentials untouched.
func (s *Store) Login(ctx context.Context, req models.LoginRequest) (LoginStatus, error) {
	epoch := s.currentEpoch()

	resp, err := s.api.Login(ctx, req)
	if err != nil {
		return LoginCompleted, err
	}
	if resp.RequiresTwoFactor {
		s.logger.Info(ctx, "second factor required", "email", req.Email)
		return LoginTwoFactorRequired, nil
	}
	if err := s.establish(ctx, epoch, resp); err != nil {
		return LoginCompleted, err
	}
	return LoginCompleted, nil
}

// Register validates the profile locally, creates the account and signs in.
// Email verification is not required to proceed.
func (s *Store) Register(ctx context.Context, profile models.RegistrationProfile) error {
	if profile == nil {
		return &ValidationError{Fields: map[string]string{"role": "is required"}}
	}
	if err := validateStruct(s.validate, profile); err != nil {
		return err
	}
	epoch := s.currentEpoch()

	resp, err := s.api.Register(ctx, profile)
	if err != nil {
		return err
	}
	return s.establish(ctx, epoch, resp)
}

func (s *Store) establish(ctx context.Context, epoch uint64, resp *models.AuthResponse) error {
	if resp.User == nil || resp.AccessToken == "" {
		return ErrMalformedResponse
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Info(ctx, "dropping sign-in result after session change")
		return ErrStale
	}
	if err := s.tokens.Set(ctx, resp.Credentials()); err != nil {
		s.mu.Unlock()
		return err
	}
	s.epoch++
	s.user = resp.User.Clone()
	s.loading = false
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info(ctx, "signed in", "user_id", st.User.ID, "role", st.User.Role)
	s.notify(st)
	s.navigate(routes.DestinationFor(st.User.Role))
	return nil
}

// Logout ends the session locally no matter what the backend says. A
// sign-in that completes while the backend call is in flight is kept.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.epoch++
	epoch := s.epoch
	pair, err := s.tokens.Get(ctx)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn(ctx, "read credentials for logout", "error", err)
	}

	if pair != nil && pair.RefreshToken != "" {
		if err := s.api.Logout(ctx, pair.RefreshToken); err != nil {
			s.logger.Warn(ctx, "backend logout failed", "error", err)
		}
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.logger.Info(ctx, "sign-out superseded by a newer session")
		return
	}
	s.clearTokens(ctx)
	s.user = nil
	s.loading = false
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info(ctx, "signed out")
	s.notify(st)
	s.navigate(routes.Home)
}

// Reload re-fetches the current user from the backend.
func (s *Store) Reload(ctx context.Context) error {
	epoch, ok := s.authenticatedEpoch()
	if !ok {
		return ErrNotAuthenticated
	}
	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		return s.handleErr(ctx, epoch, err)
	}
	return s.replaceUser(ctx, epoch, user)
}

// UpdateUser replaces the local user record without a backend call. The
// role of the session cannot change this way.
func (s *Store) UpdateUser(user *models.User) error {
	if user == nil {
		return ErrNotAuthenticated
	}
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNotAuthenticated
	}
	next := user.Clone()
	next.Role = s.user.Role
	s.user = next
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(st)
	return nil
}

// UpdateProfile saves the patch on the backend and applies the returned record.
func (s *Store) UpdateProfile(ctx context.Context, patch models.ProfilePatch) error {
	epoch, ok := s.authenticatedEpoch()
	if !ok {
		return ErrNotAuthenticated
	}
	user, err := s.api.UpdateProfile(ctx, patch)
	if err != nil {
		return s.handleErr(ctx, epoch, err)
	}
	return s.replaceUser(ctx, epoch, user)
}

func (s *Store) replaceUser(ctx context.Context, epoch uint64, user *models.User) error {
	s.mu.Lock()
	if s.epoch != epoch || s.user == nil {
		s.mu.Unlock()
		s.logger.Debug(ctx, "dropping user update after session change")
		return ErrStale
	}
	s.mu.Unlock()
	return s.UpdateUser(user)
}

// ResendVerification asks the backend to send the verification email again.
func (s *Store) ResendVerification(ctx context.Context) error {
	epoch, ok := s.authenticatedEpoch()
	if !ok {
		return ErrNotAuthenticated
	}
	return s.handleErr(ctx, epoch, s.api.ResendVerification(ctx, s.User().Email))
}

// ResetPassword changes the password of the signed-in user.
func (s *Store) ResetPassword(ctx context.Context, change models.PasswordChange) error {
	epoch, ok := s.authenticatedEpoch()
	if !ok {
		return ErrNotAuthenticated
	}
	if err := validateStruct(s.validate, change); err != nil {
		return err
	}
	return s.handleErr(ctx, epoch, s.api.ResetPassword(ctx, change))
}

// SetupTwoFactor enrolls a second factor and marks it enabled locally.
func (s *Store) SetupTwoFactor(ctx context.Context) (*models.TwoFactorSetup, error) {
	epoch, ok := s.authenticatedEpoch()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	setup, err := s.api.SetupTwoFactor(ctx)
	if err != nil {
		return nil, s.handleErr(ctx, epoch, err)
	}
	s.setTwoFactor(epoch, true)
	return setup, nil
}

// DisableTwoFactor turns the second factor off after confirming the password.
func (s *Store) DisableTwoFactor(ctx context.Context, password string) error {
	epoch, ok := s.authenticatedEpoch()
	if !ok {
		return ErrNotAuthenticated
	}
	if password == "" {
		return &ValidationError{Fields: map[string]string{"password": "is required"}}
	}
	if err := s.api.DisableTwoFactor(ctx, password); err != nil {
		return s.handleErr(ctx, epoch, err)
	}
	s.setTwoFactor(epoch, false)
	return nil
}

func (s *Store) setTwoFactor(epoch uint64, enabled bool) {
	s.mu.Lock()
	if s.epoch != epoch || s.user == nil {
		s.mu.Unlock()
		return
	}
	next := s.user.Clone()
	next.TwoFactorEnabled = enabled
	s.user = next
	st := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(st)
}

// Dashboard loads the role-scoped summary for the signed-in user.
func (s *Store) Dashboard(ctx context.Context) (*models.DashboardSummary, error) {
	epoch, ok := s.authenticatedEpoch()
	if !ok {
		return nil, ErrNotAuthenticated
	}
	d, err := s.api.Dashboard(ctx, s.User().Role)
	if err != nil {
		return nil, s.handleErr(ctx, epoch, err)
	}
	return d, nil
}

// handleErr ends the session when the credentials could not be refreshed.
// Every other error is returned untouched.
func (s *Store) handleErr(ctx context.Context, epoch uint64, err error) error {
	if err != nil && errors.Is(err, client.ErrSessionExpired) {
		s.invalidate(ctx, epoch)
	}
	return err
}

func (s *Store) invalidate(ctx context.Context, epoch uint64) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return
	}
	s.epoch++
	s.clearTokens(ctx)
	s.user = nil
	s.loading = false
	st := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Warn(ctx, "session expired")
	s.notify(st)
}

// clearTokens must be called with mu held.
func (s *Store) clearTokens(ctx context.Context) {
	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Error(ctx, "failed to clear credentials", "error", err)
	}
}

// State returns a copy of the current session.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *models.User {
	return s.State().User
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

func (s *Store) HasRole(role models.Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil && s.user.Role == role
}

func (s *Store) HasAnyRole(roles ...models.Role) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return false
	}
	for _, r := range roles {
		if s.user.Role == r {
			return true
		}
	}
	return false
}

// VerificationNotice is the banner shown to users who have not confirmed
// their email yet. It is informational and never blocks access.
func (s *Store) VerificationNotice() string {
	u := s.User()
	if u == nil || u.IsVerified {
		return ""
	}
	return "Please verify your email address " + u.Email + ". Type 'resend' to get a new verification link."
}

// Subscribe registers fn to be called after every state change. The
// returned function removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return func() {}
	}
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Close drops all subscribers. The store must not be used afterwards.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.listeners = make(map[int]func(State))
}

func (s *Store) notify(st State) {
	s.mu.Lock()
	fns := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

func (s *Store) navigate(path string) {
	if s.nav != nil {
		s.nav.Navigate(path)
	}
}

func (s *Store) currentEpoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

func (s *Store) authenticatedEpoch() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch, s.user != nil
}

func (s *Store) snapshotLocked() State {
	return State{User: s.user.Clone(), Loading: s.loading}
}
