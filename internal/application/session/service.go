// Package session holds the process-wide session container: who is signed in
// and what their profile is. Identity changes arrive from the identity
// provider's listener; every remote call goes through safecall.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/go-rider-session/internal/application/safecall"
	"github.com/go-rider-session/internal/domain"
	"github.com/go-rider-session/internal/metrics"
)

// Method selects the sign-in flow.
type Method string

const (
	MethodPassword  Method = "password"
	MethodFederated Method = "federated"
)

const messageUnsupportedMethod = "unsupported sign-in method"

// IdentityService is the remote identity provider.
type IdentityService interface {
	SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, error)
	SignInFederated(ctx context.Context, idToken string) (*domain.Identity, error)
	CreateAccount(ctx context.Context, acct domain.NewAccount) (*domain.Identity, error)
	SignOut(ctx context.Context) error
	// Subscribe calls fn once with the current identity, then on every change.
	Subscribe(fn func(*domain.Identity)) func()
	CurrentIdentity() *domain.Identity
	// Restore re-establishes a previously issued identity from its token.
	Restore(ctx context.Context, token string) error
	SendEmailVerification(ctx context.Context) error
	ConfirmEmail(ctx context.Context, code string) error
}

// ProfileStore is the remote profile document store.
type ProfileStore interface {
	Get(ctx context.Context, uid string) (*domain.Profile, error)
	Put(ctx context.Context, uid string, p *domain.Profile) error
	Merge(ctx context.Context, uid string, fields map[string]interface{}) error
}

// Notifier is the user-facing notice channel.
type Notifier interface {
	Notify(kind, title, message string) string
}

// Reachability is the host's network signal.
type Reachability interface {
	Online() bool
	Subscribe(fn func(online bool)) func()
}

// State is a read-only snapshot of the container.
type State struct {
	Identity        *domain.Identity `json:"identity"`
	Profile         *domain.Profile  `json:"profile"`
	IsAuthenticated bool             `json:"isAuthenticated"`
	IsLoading       bool             `json:"isLoading"`
	IsOnline        bool             `json:"isOnline"`
}

// Deps groups the collaborators of a Container.
type Deps struct {
	Identity IdentityService
	Profiles ProfileStore
	Store    kvStore
	Caller   *safecall.Caller
	Notifier Notifier
	Reach    Reachability
	Log      *slog.Logger
	Metrics  metrics.Recorder
}

// Container is the single authority for the signed-in identity and profile.
// Construct one per process, call Initialize once the host is ready and Close
// at shutdown.
type Container struct {
	identity IdentityService
	profiles ProfileStore
	store    kvStore
	caller   *safecall.Caller
	notifier Notifier
	reach    Reachability
	log      *slog.Logger
	metrics  metrics.Recorder

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.RWMutex
	state State

	// eventMu processes identity emissions and profile refreshes one at a time.
	eventMu sync.Mutex
	// opMu queues concurrent login, register, logout and e-mail confirmation.
	opMu sync.Mutex

	initMu     sync.Mutex
	unsubIdent func()
	unsubReach func()

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]func(State)
}

// New builds the container and rehydrates the persisted session.
func New(d Deps) *Container {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Metrics == nil {
		d.Metrics = metrics.Nop{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Container{
		identity: d.Identity,
		profiles: d.Profiles,
		store:    d.Store,
		caller:   d.Caller,
		notifier: d.Notifier,
		reach:    d.Reach,
		log:      d.Log,
		metrics:  d.Metrics,
		ctx:      ctx,
		cancel:   cancel,
		subs:     map[int]func(State){},
	}
	c.rehydrate()
	c.state.IsOnline = c.reach.Online()
	return c
}

// Initialize restores the provider from the persisted token, then subscribes
// to identity and reachability changes. Calling it again is a no-op.
func (c *Container) Initialize(ctx context.Context) {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.unsubIdent != nil {
		return
	}

	c.mu.RLock()
	var token string
	if c.state.Identity != nil {
		token = c.state.Identity.Token
	}
	c.mu.RUnlock()
	if token != "" && c.identity.CurrentIdentity() == nil {
		if err := c.identity.Restore(ctx, token); err != nil {
			c.log.Warn("could not restore persisted identity", "err", err)
		}
	}

	c.unsubReach = c.reach.Subscribe(c.setOnline)
	c.unsubIdent = c.identity.Subscribe(c.handleIdentity)
	c.log.Info("session initialized")
}

// Close unsubscribes from the provider and the reachability signal.
func (c *Container) Close() {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.unsubIdent != nil {
		c.unsubIdent()
		c.unsubIdent = nil
	}
	if c.unsubReach != nil {
		c.unsubReach()
		c.unsubReach = nil
	}
	c.cancel()
}

// State returns a snapshot. The pointers in it are copies.
func (c *Container) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot()
}

// Authenticated reports whether a rider is signed in.
func (c *Container) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.IsAuthenticated
}

// Subscribe registers fn for state changes and returns its remover.
func (c *Container) Subscribe(fn func(State)) func() {
	c.subMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

// handleIdentity resolves one identity emission: fetch the profile, or fall
// back to one derived from the identity, then commit everything at once.
func (c *Container) handleIdentity(id *domain.Identity) {
	c.eventMu.Lock()
	defer c.eventMu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("identity change handler panicked", "panic", r)
			c.setLoading(false)
		}
	}()

	c.setLoading(true)

	if id == nil {
		c.mu.Lock()
		c.state.Identity = nil
		c.state.Profile = nil
		c.state.IsAuthenticated = false
		c.state.IsLoading = false
		c.persistLocked()
		c.mu.Unlock()
		c.metrics.RecordIdentityChange(false)
		c.log.Info("identity cleared")
		c.publish()
		return
	}

	ident := *id
	res := safecall.Do(c.ctx, c.caller, "profile.get", func(ctx context.Context) (*domain.Profile, error) {
		return c.profiles.Get(ctx, ident.UID)
	}, nil)

	c.mu.Lock()
	switch {
	case res.Success && res.Data != nil:
		c.state.Profile = res.Data
	case c.state.Profile != nil && c.state.Profile.UID == ident.UID:
		// same rider: a failed fetch leaves the known profile untouched instead of the fallback
	default:
		c.state.Profile = domain.FallbackProfile(&ident)
	}
	c.state.Identity = &ident
	c.state.IsAuthenticated = true
	c.state.IsLoading = false
	c.persistLocked()
	c.mu.Unlock()

	if !res.Success {
		c.log.Info("using fallback profile", "uid", ident.UID, "reason", res.Message)
	}
	c.metrics.RecordIdentityChange(true)
	c.log.Info("identity resolved", "uid", ident.UID)
	c.publish()
}

// Login signs in through the provider. State is updated by the identity
// listener, not here.
func (c *Container) Login(ctx context.Context, cred domain.Credential, method Method) domain.OpResult {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.setLoading(true)
	defer c.setLoading(false)

	var op func(context.Context) (*domain.Identity, error)
	switch method {
	case MethodPassword:
		op = func(ctx context.Context) (*domain.Identity, error) {
			return c.identity.SignInWithPassword(ctx, cred.Email, cred.Password)
		}
	case MethodFederated:
		op = func(ctx context.Context) (*domain.Identity, error) {
			return c.identity.SignInFederated(ctx, cred.IDToken)
		}
	default:
		c.notify(domain.NoticeError, "Sign-in failed", messageUnsupportedMethod)
		return domain.Fail(messageUnsupportedMethod)
	}

	res := safecall.Do(ctx, c.caller, "identity.signIn."+string(method), op, nil)
	if !res.Success {
		msg := failureMessage(res.Message, res.Err)
		c.notify(domain.NoticeError, "Sign-in failed", msg)
		return domain.Fail(msg)
	}
	c.notify(domain.NoticeSuccess, "Signed in", "Welcome back")
	return domain.Ok("")
}

// Register creates the account and seeds its profile document.
func (c *Container) Register(ctx context.Context, acct domain.NewAccount) domain.OpResult {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.setLoading(true)
	defer c.setLoading(false)

	res := safecall.Do(ctx, c.caller, "identity.createAccount", func(ctx context.Context) (*domain.Identity, error) {
		return c.identity.CreateAccount(ctx, acct)
	}, nil)
	if !res.Success {
		msg := failureMessage(res.Message, res.Err)
		c.notify(domain.NoticeError, "Registration failed", msg)
		return domain.Fail(msg)
	}

	if res.Data != nil {
		seed := domain.FallbackProfile(res.Data)
		put := safecall.Exec(ctx, c.caller, "profile.put", func(ctx context.Context) error {
			return c.profiles.Put(ctx, seed.UID, seed)
		})
		if !put.Success {
			c.log.Warn("could not create profile document", "uid", seed.UID, "reason", put.Message)
		}
	}
	c.notify(domain.NoticeSuccess, "Account created", "Welcome to the ride")
	return domain.Ok("")
}

// Logout signs out; the listener clears the state.
func (c *Container) Logout(ctx context.Context) domain.OpResult {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	res := safecall.Exec(ctx, c.caller, "identity.signOut", c.identity.SignOut)
	if !res.Success {
		msg := failureMessage(res.Message, res.Err)
		c.notify(domain.NoticeError, "Sign-out failed", msg)
		return domain.Fail(msg)
	}
	c.notify(domain.NoticeInfo, "Signed out", "See you on the road")
	return domain.Ok("")
}

// UpdateUser merges u into the local profile. No remote call is made and it
// does nothing without a profile.
func (c *Container) UpdateUser(u domain.ProfileUpdate) {
	c.mu.Lock()
	if c.state.Profile == nil {
		c.mu.Unlock()
		return
	}
	p := u.Apply(*c.state.Profile)
	c.state.Profile = &p
	c.persistLocked()
	c.mu.Unlock()
	c.publish()
}

// SaveProfile merges u into the remote profile and, once confirmed, into
// the local one.
func (c *Container) SaveProfile(ctx context.Context, u domain.ProfileUpdate) domain.OpResult {
	st := c.State()
	if !st.IsAuthenticated {
		return domain.OpResult{}
	}
	if u.Empty() {
		return domain.Ok("")
	}
	res := safecall.Exec(ctx, c.caller, "profile.merge", func(ctx context.Context) error {
		return c.profiles.Merge(ctx, st.Identity.UID, u.Fields())
	})
	if !res.Success {
		return domain.Fail(res.Message)
	}
	c.UpdateUser(u)
	return domain.Ok("Profile updated")
}

// RefreshUserProfile re-fetches the profile of the current identity. On
// failure the previous profile stays.
func (c *Container) RefreshUserProfile(ctx context.Context) domain.OpResult {
	c.eventMu.Lock()
	defer c.eventMu.Unlock()

	c.mu.RLock()
	var uid string
	if c.state.Identity != nil {
		uid = c.state.Identity.UID
	}
	c.mu.RUnlock()
	if uid == "" {
		return domain.OpResult{}
	}

	res := safecall.Do(ctx, c.caller, "profile.get", func(ctx context.Context) (*domain.Profile, error) {
		return c.profiles.Get(ctx, uid)
	}, nil)
	if !res.Success || res.Data == nil {
		return domain.Fail(res.Message)
	}

	c.mu.Lock()
	c.state.Profile = res.Data
	c.persistLocked()
	c.mu.Unlock()
	c.publish()
	return domain.Ok("")
}

// SendEmailVerification asks the provider to mail a confirmation code.
func (c *Container) SendEmailVerification(ctx context.Context) domain.OpResult {
	if !c.State().IsAuthenticated {
		return domain.OpResult{}
	}
	res := safecall.Exec(ctx, c.caller, "identity.sendEmailVerification", c.identity.SendEmailVerification)
	if !res.Success {
		msg := failureMessage(res.Message, res.Err)
		c.notify(domain.NoticeError, "Verification not sent", msg)
		return domain.Fail(msg)
	}
	c.notify(domain.NoticeInfo, "Check your inbox", "We sent you a verification code")
	return domain.Ok("")
}

// ConfirmEmail submits a code. On success the provider emits the verified
// identity and the profile document is flagged verified. It queues with
// login, register and logout.
func (c *Container) ConfirmEmail(ctx context.Context, code string) domain.OpResult {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	st := c.State()
	if !st.IsAuthenticated {
		return domain.OpResult{}
	}
	res := safecall.Exec(ctx, c.caller, "identity.confirmEmail", func(ctx context.Context) error {
		return c.identity.ConfirmEmail(ctx, code)
	})
	if !res.Success {
		msg := failureMessage(res.Message, res.Err)
		c.notify(domain.NoticeError, "Verification failed", msg)
		return domain.Fail(msg)
	}

	verified := true
	upd := domain.ProfileUpdate{Verified: &verified}
	merge := safecall.Exec(ctx, c.caller, "profile.merge", func(ctx context.Context) error {
		return c.profiles.Merge(ctx, st.Identity.UID, upd.Fields())
	})
	if !merge.Success {
		c.log.Warn("could not flag profile verified", "uid", st.Identity.UID, "reason", merge.Message)
	}
	c.UpdateUser(upd)
	c.notify(domain.NoticeSuccess, "Email verified", "Your email address is confirmed")
	return domain.Ok("")
}

func (c *Container) setOnline(online bool) {
	c.mu.Lock()
	changed := c.state.IsOnline != online
	c.state.IsOnline = online
	c.mu.Unlock()
	if changed {
		c.log.Info("reachability changed", "online", online)
		c.publish()
	}
}

func (c *Container) setLoading(v bool) {
	c.mu.Lock()
	changed := c.state.IsLoading != v
	c.state.IsLoading = v
	c.mu.Unlock()
	if changed {
		c.publish()
	}
}

func (c *Container) notify(kind, title, msg string) {
	if c.notifier == nil {
		return
	}
	c.notifier.Notify(kind, title, msg)
}

func (c *Container) publish() {
	st := c.State()
	c.subMu.Lock()
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}

// snapshot copies the state. Caller holds mu.
func (c *Container) snapshot() State {
	st := c.state
	if st.Identity != nil {
		ident := *st.Identity
		st.Identity = &ident
	}
	if st.Profile != nil {
		p := *st.Profile
		st.Profile = &p
	}
	return st
}

// failureMessage maps a failed result to its user-facing string.
func failureMessage(msg string, err error) string {
	if msg == safecall.MessageOffline {
		return msg
	}
	return domain.AuthMessageFor(err)
}
