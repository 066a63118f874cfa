// Package updater reconciles the local bookmark store against the remote
// service. One reconciliation pass runs at a time; scheduled passes are
// interval-driven with no retry or backoff between ticks.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pmarks/pinbook/internal/bookmark"
	"github.com/pmarks/pinbook/internal/pinboard"
	"github.com/pmarks/pinbook/internal/store"
)

// DefaultInterval is the default spacing between scheduled reconciliations.
const DefaultInterval = 5 * time.Minute

// ErrUnauthorized marks sync failures that should prompt re-authentication.
var ErrUnauthorized = errors.New("sync unauthorized")

// RemoteClient is the service surface the engine depends on. Implemented by
// *pinboard.Client; tests substitute a fake.
type RemoteClient interface {
	LastUpdate(ctx context.Context) (time.Time, error)
	AllPosts(ctx context.Context) ([]pinboard.Post, error)
	AddPost(ctx context.Context, p pinboard.Post) error
	DeletePost(ctx context.Context, postURL string) error
	RenameTag(ctx context.Context, old, newName string) error
	DeleteTag(ctx context.Context, name string) error
	APIToken(ctx context.Context, username, password string) (string, error)
	SetToken(tok string)
}

// Settings persists the auth token and the last-synced marker across runs.
type Settings interface {
	Token() string
	SetToken(tok string) error
	LastUpdate() time.Time
	SetLastUpdate(t time.Time) error
}

// Status is the engine's externally visible state.
type Status int

const (
	StatusIdle Status = iota
	StatusFetching
	StatusUpdating
	StatusUnauthorized
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusFetching:
		return "fetching"
	case StatusUpdating:
		return "updating"
	case StatusUnauthorized:
		return "unauthorized"
	}

	return "unknown"
}

// Delegate receives errors from scheduled passes, which have no waiting
// caller. Check with IsUnauthorized to drive re-authentication.
type Delegate func(error)

// Updater is the sync engine.
type Updater struct {
	mu       sync.Mutex // serializes reconciliation passes
	s        *store.Store
	client   RemoteClient
	settings Settings
	logger   *slog.Logger
	interval time.Duration
	delegate Delegate

	stateMu sync.Mutex
	status  Status

	started  atomic.Bool
	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// Option configures an Updater.
type Option func(*Updater)

// WithInterval sets the scheduled sync interval.
func WithInterval(d time.Duration) Option {
	return func(u *Updater) { u.interval = d }
}

// WithDelegate installs the error funnel for scheduled passes.
func WithDelegate(fn Delegate) Option {
	return func(u *Updater) { u.delegate = fn }
}

// New builds an Updater over the given store, client and settings.
func New(s *store.Store, client RemoteClient, settings Settings, logger *slog.Logger, opts ...Option) *Updater {
	u := &Updater{
		s:        s,
		client:   client,
		settings: settings,
		logger:   logger,
		interval: DefaultInterval,
		delegate: func(error) {},
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(u)
	}

	u.client.SetToken(u.settings.Token())

	return u
}

// IsUnauthorized reports whether err should prompt re-authentication.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, pinboard.ErrUnauthorized) ||
		errors.Is(err, pinboard.ErrNoToken)
}

// Status returns the engine's current state.
func (u *Updater) Status() Status {
	u.stateMu.Lock()
	defer u.stateMu.Unlock()

	return u.status
}

func (u *Updater) setStatus(s Status) {
	u.stateMu.Lock()
	defer u.stateMu.Unlock()
	u.status = s
}

// Start arms the recurring timer. Every tick forces a full reconciliation;
// failures go to the delegate. Stop with Stop or by cancelling ctx.
func (u *Updater) Start(ctx context.Context) {
	if !u.started.CompareAndSwap(false, true) {
		return
	}

	go func() {
		defer close(u.done)

		ticker := time.NewTicker(u.interval)
		defer ticker.Stop()

		u.logger.Info("sync timer armed", "interval", u.interval)

		for {
			select {
			case <-ctx.Done():
				return
			case <-u.stop:
				return
			case <-ticker.C:
				if err := u.Update(ctx, true); err != nil {
					u.logger.Error("scheduled sync failed", "error", err)
					u.delegate(err)
				}
			}
		}
	}()
}

// Stop disarms the timer. An in-flight pass is not cancelled.
func (u *Updater) Stop() {
	if !u.started.Load() {
		return
	}

	u.stopOnce.Do(func() {
		close(u.stop)
		<-u.done
	})
}

// Update runs one reconciliation pass. When not forced, a cheap staleness
// probe skips the full pull if nothing changed remotely since the last
// recorded sync.
func (u *Updater) Update(ctx context.Context, force bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.settings.Token() == "" {
		u.setStatus(StatusUnauthorized)
		return fmt.Errorf("%w: %w", ErrUnauthorized, pinboard.ErrNoToken)
	}

	u.setStatus(StatusFetching)

	remote, err := u.client.LastUpdate(ctx)
	if err != nil {
		return u.fail(fmt.Errorf("fetching change timestamp: %w", err))
	}

	if !force && !u.settings.LastUpdate().Before(remote) {
		u.logger.Debug("store is current, skipping full pull",
			"local", u.settings.LastUpdate(), "remote", remote)
		u.setStatus(StatusIdle)

		return nil
	}

	u.setStatus(StatusUpdating)

	if err := u.reconcile(ctx); err != nil {
		return u.fail(err)
	}

	if err := u.settings.SetLastUpdate(remote); err != nil {
		return u.fail(fmt.Errorf("recording last update: %w", err))
	}

	u.setStatus(StatusIdle)

	return nil
}

// reconcile converges the store to the remote post list: upsert everything
// seen, then delete local bookmarks the service no longer has. Malformed
// posts are skipped, not fatal.
func (u *Updater) reconcile(ctx context.Context) error {
	posts, err := u.client.AllPosts(ctx)
	if err != nil {
		return fmt.Errorf("fetching posts: %w", err)
	}

	local, err := u.s.Identifiers(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(posts))
	for i := range posts {
		b, err := posts[i].Bookmark()
		if err != nil {
			u.logger.Warn("skipping malformed post", "hash", posts[i].Hash, "error", err)
			continue
		}

		if err := u.s.InsertOrUpdate(ctx, b); err != nil {
			return err
		}
		seen[b.ID] = true
	}

	deleted := 0
	for _, id := range local {
		if seen[id] {
			continue
		}
		if err := u.s.Delete(ctx, id); err != nil {
			return err
		}
		deleted++
	}

	u.logger.Info("reconciled", "posts", len(posts), "deleted", deleted)

	return nil
}

func (u *Updater) fail(err error) error {
	if IsUnauthorized(err) {
		u.setStatus(StatusUnauthorized)
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	u.setStatus(StatusIdle)

	return err
}

// Authenticate exchanges credentials for a token, stores it and triggers a
// forced update. The update's outcome is reported through the delegate; a
// failed exchange leaves all state untouched.
func (u *Updater) Authenticate(ctx context.Context, username, password string) error {
	token, err := u.client.APIToken(ctx, username, password)
	if err != nil {
		return fmt.Errorf("exchanging credentials: %w", err)
	}

	if err := u.settings.SetToken(token); err != nil {
		return fmt.Errorf("storing token: %w", err)
	}
	u.client.SetToken(token)
	u.setStatus(StatusIdle)

	if err := u.Update(ctx, true); err != nil {
		u.delegate(err)
	}

	return nil
}

// Logout clears the token, the last-update marker and the entire local
// store.
func (u *Updater) Logout(ctx context.Context) error {
	if err := u.settings.SetToken(""); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	u.client.SetToken("")

	if err := u.settings.SetLastUpdate(time.Time{}); err != nil {
		return fmt.Errorf("clearing last update: %w", err)
	}

	u.setStatus(StatusIdle)

	return u.s.Clear(ctx)
}

// UpdateBookmarks applies edits locally first, then pushes each one to the
// service best-effort. A push failure surfaces to the caller but the local
// change stays; the next reconciliation repairs any drift.
func (u *Updater) UpdateBookmarks(ctx context.Context, bs []*bookmark.Bookmark) error {
	for _, b := range bs {
		if err := u.s.InsertOrUpdate(ctx, b); err != nil {
			return err
		}
	}

	var pushErrs []error
	for _, b := range bs {
		if err := u.client.AddPost(ctx, pinboard.PostFromBookmark(b)); err != nil {
			u.logger.Error("pushing bookmark", "url", b.URL, "error", err)
			pushErrs = append(pushErrs, fmt.Errorf("push %q: %w", b.URL, err))
		}
	}

	return errors.Join(pushErrs...)
}

// DeleteBookmarks removes bookmarks locally first, then pushes each
// deletion best-effort.
func (u *Updater) DeleteBookmarks(ctx context.Context, bs []*bookmark.Bookmark) error {
	for _, b := range bs {
		if err := u.s.Delete(ctx, b.ID); err != nil {
			return err
		}
	}

	var pushErrs []error
	for _, b := range bs {
		if err := u.client.DeletePost(ctx, b.URL); err != nil {
			u.logger.Error("pushing deletion", "url", b.URL, "error", err)
			pushErrs = append(pushErrs, fmt.Errorf("push delete %q: %w", b.URL, err))
		}
	}

	return errors.Join(pushErrs...)
}

// RenameTag renames a tag on the service, then forces a full resync rather
// than reconciling the rename incrementally.
func (u *Updater) RenameTag(ctx context.Context, old, newName string) error {
	if err := u.client.RenameTag(ctx, old, newName); err != nil {
		return fmt.Errorf("renaming tag: %w", err)
	}

	return u.Update(ctx, true)
}

// DeleteTag removes a tag on the service and locally, then forces a full
// resync.
func (u *Updater) DeleteTag(ctx context.Context, name string) error {
	if err := u.client.DeleteTag(ctx, name); err != nil {
		return fmt.Errorf("deleting tag: %w", err)
	}

	if err := u.s.DeleteTag(ctx, name); err != nil && !errors.Is(err, bookmark.ErrTagNotFound) {
		return err
	}

	return u.Update(ctx, true)
}
