package usecases

import (
	"context"
	"fmt"
	"time"

	"forumintel/internal/domain"
	"forumintel/pkg/log"
)

// Authenticator drives the forum login overlay.
type Authenticator struct {
	selectors LoginSelectors
	timeout   time.Duration
}

// NewAuthenticator creates an Authenticator. timeout bounds each wait.
func NewAuthenticator(selectors LoginSelectors, timeout time.Duration) *Authenticator {
	return &Authenticator{selectors: selectors, timeout: timeout}
}

// Login makes a single login attempt on the current page.
// Missing credentials fail with ErrCredentialsMissing before the session
// is touched; anything else fails with ErrLoginFailed.
func (a *Authenticator) Login(ctx context.Context, s Session, creds domain.Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}

	if err := a.login(ctx, s, creds); err != nil {
		return domain.Reclassify(domain.ErrLoginFailed, err, "")
	}

	log.GlobalInfoCtx(ctx, "logged in to forum")
	return nil
}

func (a *Authenticator) login(ctx context.Context, s Session, creds domain.Credentials) error {
	sel := a.selectors

	if err := within(ctx, a.timeout, func(ctx context.Context) error {
		return s.Click(ctx, sel.Trigger)
	}); err != nil {
		return fmt.Errorf("open login overlay: %w", err)
	}

	if err := within(ctx, a.timeout, func(ctx context.Context) error {
		return s.AwaitSelector(ctx, sel.Overlay)
	}); err != nil {
		return fmt.Errorf("wait for login overlay: %w", err)
	}

	if err := within(ctx, a.timeout, func(ctx context.Context) error {
		return s.Type(ctx, sel.Username, creds.Username)
	}); err != nil {
		return fmt.Errorf("fill username: %w", err)
	}

	if err := within(ctx, a.timeout, func(ctx context.Context) error {
		return s.Type(ctx, sel.Password, creds.Password)
	}); err != nil {
		return fmt.Errorf("fill password: %w", err)
	}

	if err := within(ctx, a.timeout, func(ctx context.Context) error {
		return s.ClickAndSettle(ctx, sel.Submit)
	}); err != nil {
		return fmt.Errorf("submit login: %w", err)
	}

	return nil
}

// within runs fn under its own deadline.
func within(ctx context.Context, d time.Duration, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	return fn(ctx)
}
