// Package identity is the remote identity service: password and Google
// sign-in, account creation, sign-out and identity-change notification,
// backed by the accounts and auth_sessions tables.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-rider-session/internal/domain"
	"github.com/go-rider-session/internal/infrastructure/google"
	jwtinfra "github.com/go-rider-session/internal/infrastructure/jwt"
	"github.com/go-rider-session/internal/infrastructure/smtp"
	"github.com/go-rider-session/internal/infrastructure/sns"
	"github.com/go-rider-session/internal/pkg/id"
	pkgtoken "github.com/go-rider-session/internal/pkg/token"
	"github.com/go-rider-session/internal/pkg/validate"
	"golang.org/x/crypto/bcrypt"
)

const verificationTTL = 24 * time.Hour

type accountStore interface {
	Put(ctx context.Context, a *domain.Account) error
	Get(ctx context.Context, uid string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	MarkEmailVerified(ctx context.Context, uid string) error
	LinkGoogle(ctx context.Context, uid, sub string) error
}

type sessionStore interface {
	Put(ctx context.Context, s *domain.AuthSession) error
	Get(ctx context.Context, sessionID string) (*domain.AuthSession, error)
	Disable(ctx context.Context, sessionID string) error
}

type reachability interface {
	Online() bool
}

type verificationStore interface {
	Put(ctx context.Context, v *domain.Verification) error
	Get(ctx context.Context, uid, verType string) (*domain.Verification, error)
	Delete(ctx context.Context, uid, verType string) error
}

type tokenIssuer interface {
	Sign(a *domain.Account, sessionID string) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type googleVerifier interface {
	Verify(ctx context.Context, token string) (*google.Payload, error)
}

// Deps groups the provider's collaborators. Google, Mailer, Alerts and Reach
// are optional. Without Reach, Restore always checks the auth session.
type Deps struct {
	Accounts      accountStore
	Sessions      sessionStore
	Verifications verificationStore
	Tokens        tokenIssuer
	Google        googleVerifier
	Mailer        smtp.Mailer
	Alerts        sns.AlertPublisher
	Throttle      *Throttle
	Reach         reachability
	Log           *slog.Logger
}

// Provider holds the device's signed-in identity and notifies listeners
// synchronously whenever it changes.
type Provider struct {
	accounts      accountStore
	sessions      sessionStore
	verifications verificationStore
	tokens        tokenIssuer
	google        googleVerifier
	mailer        smtp.Mailer
	alerts        sns.AlertPublisher
	throttle      *Throttle
	reach         reachability
	log           *slog.Logger
	now           func() time.Time

	mu        sync.Mutex
	current   *domain.Identity
	sessionID string
	nextID    int
	listeners map[int]func(*domain.Identity)
}

func New(d Deps) *Provider {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &Provider{
		accounts:      d.Accounts,
		sessions:      d.Sessions,
		verifications: d.Verifications,
		tokens:        d.Tokens,
		google:        d.Google,
		mailer:        d.Mailer,
		alerts:        d.Alerts,
		throttle:      d.Throttle,
		reach:         d.Reach,
		log:           d.Log,
		now:           time.Now,
		listeners:     map[int]func(*domain.Identity){},
	}
}

type passwordSignIn struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = normalizeEmail(email)
	if err := validate.Struct(passwordSignIn{Email: email, Password: password}); err != nil {
		var ve *validate.Error
		if errors.As(err, &ve) && ve.Has("Email") {
			return nil, domain.NewAuthError(domain.AuthInvalidEmail, err)
		}
		return nil, domain.NewAuthError(domain.AuthInvalidCredential, err)
	}
	if !p.throttle.Allow(email) {
		return nil, domain.NewAuthError(domain.AuthTooManyRequests, nil)
	}

	acct, err := p.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, lookupError(err)
	}
	if acct.Disabled {
		return nil, domain.NewAuthError(domain.AuthUserDisabled, nil)
	}
	if acct.PasswordHash == "" {
		return nil, domain.NewAuthError(domain.AuthInvalidCredential, errors.New("account has no password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return nil, domain.NewAuthError(domain.AuthWrongPassword, nil)
	}
	return p.establish(ctx, acct, domain.ProviderPassword)
}

// SignInFederated signs in with a Google ID token, creating the account on
// first use and linking an existing password account with the same e-mail.
func (p *Provider) SignInFederated(ctx context.Context, idToken string) (*domain.Identity, error) {
	if idToken == "" {
		return nil, domain.NewAuthError(domain.AuthPopupClosedByUser, nil)
	}
	if p.google == nil {
		return nil, domain.NewAuthError(domain.AuthInvalidCredential, errors.New("federated sign-in not configured"))
	}
	payload, err := p.google.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(payload.Email)
	if !p.throttle.Allow(email) {
		return nil, domain.NewAuthError(domain.AuthTooManyRequests, nil)
	}

	acct, err := p.accounts.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		now := p.now().UTC().Unix()
		acct = &domain.Account{
			UID:           id.New(),
			Email:         email,
			EmailVerified: payload.EmailVerified,
			DisplayName:   payload.Name,
			PhotoURL:      payload.Picture,
			Provider:      domain.ProviderGoogle,
			GoogleSub:     payload.Sub,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := p.accounts.Put(ctx, acct); err != nil {
			return nil, domain.NewAuthError(domain.AuthNetworkFailed, err)
		}
	case err != nil:
		return nil, lookupError(err)
	case acct.Disabled:
		return nil, domain.NewAuthError(domain.AuthUserDisabled, nil)
	case acct.GoogleSub == "":
		if err := p.accounts.LinkGoogle(ctx, acct.UID, payload.Sub); err != nil {
			return nil, domain.NewAuthError(domain.AuthNetworkFailed, err)
		}
		acct.GoogleSub = payload.Sub
		acct.EmailVerified = acct.EmailVerified || payload.EmailVerified
	case acct.GoogleSub != payload.Sub:
		return nil, domain.NewAuthError(domain.AuthInvalidCredential, errors.New("google account mismatch"))
	}
	return p.establish(ctx, acct, domain.ProviderGoogle)
}

// CreateAccount registers a password account and signs it in.
func (p *Provider) CreateAccount(ctx context.Context, in domain.NewAccount) (*domain.Identity, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validate.Struct(in); err != nil {
		var ve *validate.Error
		switch {
		case errors.As(err, &ve) && ve.Has("Email"):
			return nil, domain.NewAuthError(domain.AuthInvalidEmail, err)
		case errors.As(err, &ve) && ve.Has("Password"):
			return nil, domain.NewAuthError(domain.AuthWeakPassword, err)
		}
		return nil, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}

	_, err := p.accounts.GetByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return nil, domain.NewAuthError(domain.AuthEmailAlreadyInUse, nil)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, domain.NewAuthError(domain.AuthNetworkFailed, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := p.now().UTC().Unix()
	acct := &domain.Account{
		UID:          id.New(),
		Email:        in.Email,
		DisplayName:  in.DisplayName,
		PasswordHash: string(hash),
		Provider:     domain.ProviderPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := p.accounts.Put(ctx, acct); err != nil {
		return nil, domain.NewAuthError(domain.AuthNetworkFailed, err)
	}
	p.log.Info("account created", "uid", acct.UID)
	return p.establish(ctx, acct, domain.ProviderPassword)
}

// SignOut revokes the current auth session and emits a nil identity.
func (p *Provider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	sessionID := p.sessionID
	wasSignedIn := p.current != nil
	p.mu.Unlock()
	if !wasSignedIn {
		return nil
	}

	if sessionID != "" {
		if err := p.sessions.Disable(ctx, sessionID); err != nil {
			return domain.NewAuthError(domain.AuthNetworkFailed, err)
		}
	}
	p.set(nil, "")
	return nil
}

// Subscribe registers fn and calls it once with the current identity.
func (p *Provider) Subscribe(fn func(*domain.Identity)) func() {
	p.mu.Lock()
	key := p.nextID
	p.nextID++
	p.listeners[key] = fn
	cur := copyIdentity(p.current)
	p.mu.Unlock()

	fn(cur)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.listeners, key)
			p.mu.Unlock()
		})
	}
}

func (p *Provider) CurrentIdentity() *domain.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return copyIdentity(p.current)
}

// Restore re-establishes the identity carried by a previously issued token.
// The token is checked locally. When online, its auth session must also
// still be enabled; offline the local check is enough.
func (p *Provider) Restore(ctx context.Context, token string) error {
	claims, err := p.tokens.Verify(token)
	if err != nil {
		return err
	}
	if claims.SessionID != "" && (p.reach == nil || p.reach.Online()) {
		sess, err := p.sessions.Get(ctx, claims.SessionID)
		switch {
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUnauthorized):
			return fmt.Errorf("auth session revoked: %w", domain.ErrUnauthorized)
		case err != nil:
			p.log.Warn("could not check auth session, trusting token", "uid", claims.Subject, "err", err)
		case sess.UID != claims.Subject:
			return fmt.Errorf("auth session belongs to another account: %w", domain.ErrUnauthorized)
		}
	}
	p.set(claims.Identity(token), claims.SessionID)
	p.log.Info("identity restored", "uid", claims.Subject)
	return nil
}

// SendEmailVerification mails a six-digit code to the signed-in address.
func (p *Provider) SendEmailVerification(ctx context.Context) error {
	cur := p.CurrentIdentity()
	if cur == nil {
		return fmt.Errorf("no signed-in identity: %w", domain.ErrUnauthorized)
	}
	if cur.EmailVerified {
		return nil
	}
	if p.mailer == nil {
		return errors.New("mail delivery not configured")
	}

	code, err := pkgtoken.NewCode(6)
	if err != nil {
		return err
	}
	v := &domain.Verification{
		UID:       cur.UID,
		Type:      domain.VerificationEmail,
		Code:      code,
		ExpiresAt: p.now().Add(verificationTTL).Unix(),
	}
	if err := p.verifications.Put(ctx, v); err != nil {
		return err
	}
	return p.mailer.SendEmail(cur.Email, "Confirm your email", smtp.VerificationBody(cur.DisplayName, code))
}

// ConfirmEmail checks code and, when it matches, re-issues the identity with
// EmailVerified set.
func (p *Provider) ConfirmEmail(ctx context.Context, code string) error {
	p.mu.Lock()
	cur := copyIdentity(p.current)
	sessionID := p.sessionID
	p.mu.Unlock()
	if cur == nil {
		return fmt.Errorf("no signed-in identity: %w", domain.ErrUnauthorized)
	}

	v, err := p.verifications.Get(ctx, cur.UID, domain.VerificationEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewAuthError(domain.AuthInvalidVerification, err)
		}
		return err
	}
	if v.Code != code || v.ExpiresAt < p.now().Unix() {
		return domain.NewAuthError(domain.AuthInvalidVerification, nil)
	}
	if err := p.accounts.MarkEmailVerified(ctx, cur.UID); err != nil {
		return err
	}
	if err := p.verifications.Delete(ctx, cur.UID, domain.VerificationEmail); err != nil {
		p.log.Warn("failed to delete email verification record", "uid", cur.UID, "err", err)
	}

	acct, err := p.accounts.Get(ctx, cur.UID)
	if err != nil {
		return err
	}
	acct.EmailVerified = true
	token, err := p.tokens.Sign(acct, sessionID)
	if err != nil {
		return err
	}
	if !p.replace(cur.UID, sessionID, acct.Identity(token)) {
		return fmt.Errorf("signed out during confirmation: %w", domain.ErrUnauthorized)
	}
	return nil
}

// establish opens an auth session for acct, issues its token and makes it
// the current identity.
func (p *Provider) establish(ctx context.Context, acct *domain.Account, method string) (*domain.Identity, error) {
	now := p.now().UTC().Unix()
	sess := &domain.AuthSession{
		SessionID: id.New(),
		UID:       acct.UID,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.sessions.Put(ctx, sess); err != nil {
		return nil, domain.NewAuthError(domain.AuthNetworkFailed, err)
	}
	token, err := p.tokens.Sign(acct, sess.SessionID)
	if err != nil {
		return nil, err
	}

	ident := acct.Identity(token)
	ident.Provider = method
	p.set(ident, sess.SessionID)
	p.log.Info("signed in", "uid", acct.UID, "method", method)

	if p.alerts != nil {
		if err := p.alerts.PublishSignIn(ctx, acct.UID, acct.Email, method); err != nil {
			p.log.Warn("failed to publish sign-in alert", "uid", acct.UID, "err", err)
		}
	}
	return copyIdentity(ident), nil
}

// set swaps the current identity and notifies listeners after the lock is released.
func (p *Provider) set(ident *domain.Identity, sessionID string) {
	p.mu.Lock()
	fns := p.swapLocked(ident, sessionID)
	p.mu.Unlock()
	notify(fns, ident)
}

// replace swaps in ident only while uid and sessionID are still current.
func (p *Provider) replace(uid, sessionID string, ident *domain.Identity) bool {
	p.mu.Lock()
	if p.current == nil || p.current.UID != uid || p.sessionID != sessionID {
		p.mu.Unlock()
		return false
	}
	fns := p.swapLocked(ident, sessionID)
	p.mu.Unlock()
	notify(fns, ident)
	return true
}

// swapLocked sets the identity and returns the listeners to call. Caller holds mu.
func (p *Provider) swapLocked(ident *domain.Identity, sessionID string) []func(*domain.Identity) {
	p.current = ident
	p.sessionID = sessionID
	fns := make([]func(*domain.Identity), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	return fns
}

func notify(fns []func(*domain.Identity), ident *domain.Identity) {
	for _, fn := range fns {
		fn(copyIdentity(ident))
	}
}

func lookupError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.NewAuthError(domain.AuthUserNotFound, err)
	}
	return domain.NewAuthError(domain.AuthNetworkFailed, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func copyIdentity(ident *domain.Identity) *domain.Identity {
	if ident == nil {
		return nil
	}
	c := *ident
	return &c
}
