// Package syncer owns the polling loop that keeps the local view consistent
// with the remote store: periodic and ad-hoc sync triggers, advisory conflict
// detection, and optimistic updates with confirm or rollback.
package syncer

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"bandsync/config"
	"bandsync/internal/identity"
	"bandsync/internal/model"
	"bandsync/internal/transport"
	"bandsync/internal/validate"
)

// Orchestrator drives sync cycles against the transport and maintains the
// local view.
type Orchestrator struct {
	transport *transport.Client
	identity  identity.Provider
	cfg       config.SyncConfig
	clock     transport.Clock
	logger    *log.Logger
	notifier  Notifier

	// inFlight guards re-entrancy: a trigger arriving while a cycle runs is
	// dropped, not queued.
	inFlight        atomic.Bool
	debouncePending atomic.Bool

	mu          sync.Mutex
	view        View
	lastSuccess time.Time
}

// New creates an orchestrator and wires it to the transport's signals: a
// reconnect triggers a sync after the settle delay, and every confirmed
// mutation triggers a debounced sync.
func New(t *transport.Client, id identity.Provider, cfg config.SyncConfig, clock transport.Clock, logger *log.Logger) *Orchestrator {
	if clock == nil {
		clock = transport.RealClock()
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[syncer] ", log.LstdFlags)
	}
	o := &Orchestrator{
		transport: t,
		identity:  id,
		cfg:       cfg,
		clock:     clock,
		logger:    logger,
	}

	t.Notifier().OnNetworkRestored(func() {
		// The signal fires on the caller of SetOnline; let the settle wait and
		// the cycle run off that goroutine so reconnecting never blocks.
		go func() {
			o.clock.Sleep(context.Background(), o.cfg.SettleDelay)
			o.SyncNow(context.Background())
		}()
	})
	t.Notifier().OnMutationSucceeded(func(string) {
		o.OnLocalMutation(context.Background())
	})

	return o
}

// Notifier exposes the orchestrator's signal registration point.
func (o *Orchestrator) Notifier() *Notifier { return &o.notifier }

// Transport returns the underlying request client.
func (o *Orchestrator) Transport() *transport.Client { return o.transport }

// View returns a copy of the current local view.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.view.Clone()
}

// Run starts the periodic sync loop and blocks until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) {
	o.logger.Println("Starting sync orchestrator...")

	o.SyncNow(ctx)

	timer := time.NewTimer(o.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Println("Sync orchestrator shutting down.")
			return
		case <-timer.C:
			o.SyncNow(ctx)
			timer.Reset(o.cfg.Interval)
		}
	}
}

// SyncNow runs one fetch-and-merge cycle. A cycle already in flight drops the
// trigger.
func (o *Orchestrator) SyncNow(ctx context.Context) {
	if !o.inFlight.CompareAndSwap(false, true) {
		o.logger.Println("sync already in flight; trigger dropped")
		return
	}
	defer o.inFlight.Store(false)

	if err := o.syncOnce(ctx); err != nil {
		o.logger.Printf("sync cycle failed: %v", err)
		o.notifier.emitFailed(err)
	}
}

// OnFocusRegained triggers a sync when the application returns to the
// foreground, unless one succeeded recently.
func (o *Orchestrator) OnFocusRegained(ctx context.Context) {
	o.mu.Lock()
	last := o.lastSuccess
	o.mu.Unlock()

	if !last.IsZero() && o.clock.Now().Sub(last) < o.cfg.FocusMinGap {
		return
	}
	o.SyncNow(ctx)
}

// OnLocalMutation triggers a debounced sync after a local write. Bursts of
// mutations coalesce into one cycle.
func (o *Orchestrator) OnLocalMutation(ctx context.Context) {
	if !o.debouncePending.CompareAndSwap(false, true) {
		return
	}
	go func() {
		o.clock.Sleep(ctx, o.cfg.Debounce)
		o.debouncePending.Store(false)
		o.SyncNow(ctx)
	}()
}

// syncOnce fetches current server state for the sync window and merges it. A
// fetch failure leaves the last-known-good view untouched.
func (o *Orchestrator) syncOnce(ctx context.Context) error {
	o.notifier.emitStarted()

	winStart, winEnd := validate.Window(o.clock.Now())

	events, err := o.transport.FetchEvents(ctx, winStart, winEnd)
	if err != nil {
		return fmt.Errorf("failed to fetch events: %w", err)
	}
	availability, err := o.transport.FetchAvailability(ctx, winStart, winEnd)
	if err != nil {
		return fmt.Errorf("failed to fetch availability: %w", err)
	}

	o.mu.Lock()
	o.view = View{Events: events, Availability: availability}
	o.lastSuccess = o.clock.Now()
	merged := o.view.Clone()
	o.mu.Unlock()

	o.notifier.emitSucceeded(merged)

	if actor, err := o.identity.Nickname(); err == nil {
		if conflicts := detectConflicts(merged.Events, actor); len(conflicts) > 0 {
			o.logger.Printf("detected %d schedule conflict(s)", len(conflicts))
			o.notifier.emitConflicts(conflicts)
		}
	}
	return nil
}

// OptimisticUpdate applies a mutation to the local view, performs the request
// and either confirms or rolls the view back. On failure the view reverts to
// exactly its pre-update state and the error is returned to the caller.
func (o *Orchestrator) OptimisticUpdate(ctx context.Context, m Mutation, perform func(context.Context) error) error {
	o.mu.Lock()
	snapshot := o.view.Clone()
	o.view.apply(m, o.clock.Now())
	o.mu.Unlock()
	o.notifier.emitApplied(m)

	if err := perform(ctx); err != nil {
		o.mu.Lock()
		o.view = snapshot
		o.mu.Unlock()
		o.notifier.emitRolledBack(m, err)
		return err
	}

	// Server truth replaces the optimistic value on the next cycle, which the
	// transport's mutation-succeeded signal has already scheduled.
	o.notifier.emitConfirmed(m)
	return nil
}

// CreateEvent validates and optimistically creates an event attributed to the
// current actor.
func (o *Orchestrator) CreateEvent(ctx context.Context, title string, kind model.EventKind, start, end time.Time) error {
	actor, err := o.identity.Nickname()
	if err != nil {
		return err
	}
	if err := validate.Event(title, kind, start, end, actor, o.clock.Now()); err != nil {
		return err
	}

	draft := transport.EventDraft{
		Title:     title,
		Kind:      kind,
		Start:     start,
		End:       end,
		CreatedBy: actor,
		RequestID: uuid.NewString(),
	}
	m := Mutation{Kind: MutationEventCreate, Event: draft}
	return o.OptimisticUpdate(ctx, m, func(ctx context.Context) error {
		_, err := o.transport.CreateEvent(ctx, draft).Wait(ctx)
		return err
	})
}

// DeleteEvent optimistically removes an event on behalf of the current actor.
func (o *Orchestrator) DeleteEvent(ctx context.Context, id string) error {
	actor, err := o.identity.Nickname()
	if err != nil {
		return err
	}

	m := Mutation{Kind: MutationEventDelete, EventID: id}
	return o.OptimisticUpdate(ctx, m, func(ctx context.Context) error {
		_, err := o.transport.DeleteEvent(ctx, id, actor).Wait(ctx)
		return err
	})
}

// UpsertAvailability validates and optimistically writes the current actor's
// availability for a time range.
func (o *Orchestrator) UpsertAvailability(ctx context.Context, start, end time.Time, status model.AvailabilityStatus) error {
	actor, err := o.identity.Nickname()
	if err != nil {
		return err
	}
	if err := validate.Availability(actor, start, end, status, o.clock.Now()); err != nil {
		return err
	}

	draft := transport.AvailabilityDraft{
		MemberName: actor,
		Start:      start,
		End:        end,
		Status:     status,
	}
	m := Mutation{Kind: MutationAvailabilityUpsert, Avail: draft}
	return o.OptimisticUpdate(ctx, m, func(ctx context.Context) error {
		_, err := o.transport.UpsertAvailability(ctx, draft).Wait(ctx)
		return err
	})
}
