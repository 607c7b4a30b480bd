package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alynder/warchest/internal/record"
	"github.com/alynder/warchest/internal/resource"
	"github.com/alynder/warchest/internal/source"
	"github.com/alynder/warchest/internal/store"
)

const (
	// DefaultFetchLimit is the page size for upstream fetches.
	DefaultFetchLimit = 500

	// DefaultConcurrency bounds how many scopes sync at once.
	DefaultConcurrency = 4

	// DefaultTickTimeout is the soft deadline for one tick. Scopes that
	// have not started when it expires are abandoned until the next tick.
	DefaultTickTimeout = 4 * time.Minute
)

// ErrScopeBusy reports that a pass for the scope is already in flight.
// Ticks never overlap for the same scope; the busy pass simply keeps the
// records, and the next tick picks up from whatever cursor it leaves.
var ErrScopeBusy = errors.New("scope sync already in flight")

// Reconciler drives the per-scope pipeline:
// fetch new records since the cursor, classify them, apply their effects
// through the idempotent ledger writer, and advance the cursor only after
// every effect of a batch is durably applied.
//
// Scopes are independent: they sync concurrently under a bounded worker
// pool, one scope's failure never aborts another's pass, and a failed
// scope keeps its cursor so the same records are retried next tick.
type Reconciler struct {
	store  *store.Store
	source source.Source
	rules  record.Rules
	scopes []record.Scope

	fetchLimit  int
	concurrency int
	tickTimeout time.Duration
	runGen      RunIDGenerator

	mu       sync.Mutex
	inFlight map[string]bool
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithFetchLimit sets the upstream page size.
func WithFetchLimit(n int) Option {
	return func(r *Reconciler) { r.fetchLimit = n }
}

// WithConcurrency bounds the number of scopes syncing at once.
func WithConcurrency(n int) Option {
	return func(r *Reconciler) { r.concurrency = n }
}

// WithTickTimeout sets the soft deadline for one tick. Zero disables it.
func WithTickTimeout(d time.Duration) Option {
	return func(r *Reconciler) { r.tickTimeout = d }
}

// WithRunIDGenerator overrides the run ID generator (for testing).
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(r *Reconciler) { r.runGen = g }
}

// New creates a Reconciler over the given scopes.
func New(st *store.Store, src source.Source, rules record.Rules, scopes []record.Scope, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:       st,
		source:      src,
		rules:       rules,
		scopes:      append([]record.Scope(nil), scopes...),
		fetchLimit:  DefaultFetchLimit,
		concurrency: DefaultConcurrency,
		tickTimeout: DefaultTickTimeout,
		runGen:      UUIDv7Generator{},
		inFlight:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scopes returns the registered scopes. Used for introspection and tests.
func (r *Reconciler) Scopes() []record.Scope {
	return append([]record.Scope(nil), r.scopes...)
}

// Tick runs one reconciliation pass over every registered scope and
// returns one Result per scope, in registration order.
//
// Failures are isolated: a scope's error lands in its Result and the
// remaining scopes proceed. Scopes already in flight from an unfinished
// earlier tick are skipped with ErrScopeBusy.
func (r *Reconciler) Tick(ctx context.Context) []Result {
	runID := r.runGen.Generate()

	tickCtx := ctx
	if r.tickTimeout > 0 {
		var cancel context.CancelFunc
		tickCtx, cancel = context.WithTimeout(ctx, r.tickTimeout)
		defer cancel()
	}

	slog.Info("tick starting", "run", runID, "scopes", len(r.scopes))

	results := make([]Result, len(r.scopes))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, scope := range r.scopes {
		i, scope := i, scope
		g.Go(func() error {
			results[i] = r.syncScope(tickCtx, runID, scope)
			return nil
		})
	}
	_ = g.Wait() // syncScope reports through Result.Err, never here

	applied, skipped := 0, 0
	for _, res := range results {
		if res.Err != nil {
			skipped++
		} else {
			applied++
		}
	}
	slog.Info("tick finished", "run", runID, "ok", applied, "skipped", skipped)

	return results
}

// Loop runs Tick on a fixed interval until the context is cancelled.
// The first tick fires immediately. The timer is plain infrastructure:
// all behavior worth testing lives in Tick.
func (r *Reconciler) Loop(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		r.Tick(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ApplyNow runs one immediate pass for a single scope, advancing its
// cursor on success. Invoked by the command surface's apply operation.
func (r *Reconciler) ApplyNow(ctx context.Context, scope record.Scope) (Result, error) {
	res := r.syncScope(ctx, r.runGen.Generate(), scope)
	return res, res.Err
}

// PreviewSince reports what a pass for the scope would apply, without
// writing anything or advancing the cursor. A non-nil cursorOverride
// replaces the stored cursor as the fetch lower bound.
func (r *Reconciler) PreviewSince(ctx context.Context, scope record.Scope, cursorOverride *int64) (Result, error) {
	res := Result{Scope: scope, RunID: r.runGen.Generate()}
	key := scope.Key()

	prev, _, err := r.store.Cursor(ctx, key)
	if err != nil {
		res.Err = err
		return res, err
	}
	if cursorOverride != nil {
		prev = *cursorOverride
	}
	res.PreviousCursor = prev
	res.NewCursor = prev

	since := prev
	for {
		recs, err := r.source.Fetch(ctx, scope, since, r.fetchLimit)
		if err != nil {
			res.Err = err
			return res, err
		}
		if len(recs) == 0 {
			break
		}
		for _, rec := range recs {
			for _, d := range deltasFor(rec, scope, r.rules) {
				res.Totals.Set(d.Resource, res.Totals.Get(d.Resource)+d.Amount)
			}
		}
		res.RecordCount += len(recs)
		since = record.NewestID(recs)
		res.NewCursor = since
		if len(recs) < r.fetchLimit {
			break
		}
	}
	return res, nil
}

// syncScope is one scope's pass: fetch pages since the cursor, apply every
// (target, resource, record) triple, and advance the cursor page by page.
//
// The cursor for a page advances only after every triple of that page
// returned Applied or AlreadyApplied; a write failure leaves it where it
// was, so the records are re-fetched and re-applied (idempotently) next
// tick.
func (r *Reconciler) syncScope(ctx context.Context, runID string, scope record.Scope) Result {
	res := Result{Scope: scope, RunID: runID}
	key := scope.Key()

	if !r.acquire(key) {
		slog.Debug("scope busy, skipping", "run", runID, "scope", key)
		res.Err = ErrScopeBusy
		return res
	}
	defer r.release(key)

	// Soft tick deadline: scopes that reach here late run next tick.
	if err := ctx.Err(); err != nil {
		res.Err = fmt.Errorf("tick deadline reached: %w", err)
		return res
	}

	prev, _, err := r.store.Cursor(ctx, key)
	if err != nil {
		res.Err = err
		return res
	}
	res.PreviousCursor = prev
	res.NewCursor = prev

	since := prev
	for {
		recs, err := r.source.Fetch(ctx, scope, since, r.fetchLimit)
		if err != nil {
			slog.Warn("scope skipped: fetch failed",
				"run", runID, "scope", key, "since", since, "error", err)
			res.Err = err
			return res
		}
		if len(recs) == 0 {
			break
		}

		for _, rec := range recs {
			for _, d := range deltasFor(rec, scope, r.rules) {
				status, err := r.store.ApplyDelta(ctx, d.Target, d.Resource, d.Amount, d.RecordID)
				if err != nil {
					// Nothing from this page is advanced; every triple
					// already applied will report AlreadyApplied on retry.
					slog.Warn("scope skipped: ledger write failed",
						"run", runID, "scope", key,
						"target", d.Target, "record", d.RecordID, "error", err)
					res.Err = err
					return res
				}
				res.Totals.Set(d.Resource, res.Totals.Get(d.Resource)+d.Amount)
				if status == store.AlreadyApplied {
					slog.Debug("triple already applied",
						"run", runID, "target", d.Target,
						"resource", d.Resource, "record", d.RecordID)
				}
			}
		}

		newest := record.NewestID(recs)
		if err := r.store.AdvanceCursor(ctx, key, newest); err != nil {
			res.Err = err
			return res
		}
		res.NewCursor = newest
		res.RecordCount += len(recs)
		since = newest

		if len(recs) < r.fetchLimit {
			break
		}
	}

	res.Applied = true
	if res.RecordCount > 0 {
		slog.Info("scope synced",
			"run", runID, "scope", key,
			"records", res.RecordCount,
			"cursor", res.NewCursor)
	}
	return res
}

func (r *Reconciler) acquire(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inFlight[key] {
		return false
	}
	r.inFlight[key] = true
	return true
}

func (r *Reconciler) release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, key)
}

// delta is one pending single-triple application.
type delta struct {
	Target   string
	Resource resource.Name
	Amount   float64
	RecordID int64
}

// deltasFor maps one classified record to its signed per-resource deltas.
// Zero quantities produce no delta, so the ledger only ever records
// resources that actually moved.
func deltasFor(rec record.BankRecord, scope record.Scope, rules record.Rules) []delta {
	kind := record.Classify(rec, scope, rules)

	var target string
	sign := 1.0
	switch kind {
	case record.TaxCredit:
		target = record.AllianceTarget(scope.AllianceID)
	case record.MemberDeposit:
		target = record.MemberTarget(rec.SenderID)
	case record.MemberWithdrawal:
		target = record.MemberTarget(rec.ReceiverID)
		sign = -1
	case record.AllianceTransfer:
		target = record.AllianceTarget(scope.AllianceID)
		if rec.SenderID == scope.AllianceID {
			sign = -1
		}
	case record.OffshoreTagged:
		// Owner→Offshore parks resources with the offshore: positive.
		// Offshore→Owner brings them back: negative.
		target = scope.Key()
		if rec.SenderID == scope.Offshore {
			sign = -1
		}
	default:
		return nil
	}

	var ds []delta
	for _, n := range resource.All {
		q := rec.Amounts.Get(n)
		if q == 0 {
			continue
		}
		ds = append(ds, delta{Target: target, Resource: n, Amount: sign * q, RecordID: rec.ID})
	}
	return ds
}
