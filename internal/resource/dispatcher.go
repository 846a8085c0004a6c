package resource

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Draft is the editable, validatable input of a create or update.
type Draft interface {
	Validate() error
}

// Phase is where a command ended up.
type Phase int

const (
	// PhaseIdle means the command never left the queue (ctx ended while
	// waiting for the slot).
	PhaseIdle Phase = iota
	// PhaseInvalid means the draft failed validation and nothing was sent.
	PhaseInvalid
	PhasePending
	PhaseSucceeded
	PhaseFailed
	// PhaseStale means the request succeeded but a newer command for the
	// same id had already been applied, so the result was discarded.
	PhaseStale
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInvalid:
		return "invalid"
	case PhasePending:
		return "pending"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	case PhaseStale:
		return "stale"
	default:
		return "unknown"
	}
}

// Outcome reports the result of one command. Failures are already
// recorded in the store when the Outcome is returned.
type Outcome[T Entity] struct {
	Token  string
	Phase  Phase
	Entity T
	ID     int
	Err    error
}

// Command describes one finished command for auditing.
type Command struct {
	Token    string
	Resource string
	Op       string
	ID       int
	Phase    Phase
	Err      error
	Payload  any
	Started  time.Time
	Duration time.Duration
}

// Recorder receives every finished command, including rejected drafts.
type Recorder interface {
	RecordCommand(ctx context.Context, c Command)
}

// Dispatcher runs create, update, delete and refresh commands for one
// resource: it validates, calls the gateway and settles the store.
type Dispatcher[T Entity, D Draft] struct {
	store  *Store[T]
	gw     Gateway[T, D]
	mode   Mode
	slot   *semaphore.Weighted
	logger *slog.Logger
	rec    Recorder

	// seqMu guards the sequence counters and is held across the store
	// mutation so a stale check and its apply cannot interleave.
	seqMu       sync.Mutex
	seq         uint64
	applied     map[int]uint64
	lastApplied uint64
}

// NewDispatcher wires a store to its gateway.
func NewDispatcher[T Entity, D Draft](store *Store[T], gw Gateway[T, D], opts ...Option) *Dispatcher[T, D] {
	o := buildOptions(opts)
	return &Dispatcher[T, D]{
		store:   store,
		gw:      gw,
		mode:    o.mode,
		slot:    semaphore.NewWeighted(1),
		logger:  o.logger,
		rec:     o.recorder,
		applied: make(map[int]uint64),
	}
}

// Store returns the store this dispatcher settles.
func (d *Dispatcher[T, D]) Store() *Store[T] { return d.store }

// Mode returns the ordering mode.
func (d *Dispatcher[T, D]) Mode() Mode { return d.mode }

type ticket struct {
	token   string
	seq     uint64
	release func()
}

func (d *Dispatcher[T, D]) begin(ctx context.Context) (ticket, error) {
	release := func() {}
	if d.mode != ModeConcurrent {
		if err := d.slot.Acquire(ctx, 1); err != nil {
			return ticket{}, err
		}
		release = func() { d.slot.Release(1) }
	}
	d.seqMu.Lock()
	d.seq++
	seq := d.seq
	d.seqMu.Unlock()

	d.store.onRequestStarted()
	return ticket{token: uuid.NewString(), seq: seq, release: release}, nil
}

// fresh reports whether a completion for id with seq may be applied and
// marks it applied. Caller holds seqMu.
func (d *Dispatcher[T, D]) fresh(id int, seq uint64) bool {
	if d.applied[id] > seq {
		return false
	}
	d.applied[id] = seq
	if seq > d.lastApplied {
		d.lastApplied = seq
	}
	return true
}

func (d *Dispatcher[T, D]) fail(op string, tk ticket, id int, err error) Outcome[T] {
	d.store.onRequestFailed(err.Error())
	d.logger.Warn("command failed",
		"resource", d.store.Name(), "op", op, "token", tk.token, "id", id, "error", err)
	return Outcome[T]{Token: tk.token, Phase: PhaseFailed, ID: id, Err: err}
}

func (d *Dispatcher[T, D]) discard(op string, tk ticket, id int) Outcome[T] {
	d.store.onRequestDiscarded(id)
	d.logger.Info("stale completion discarded",
		"resource", d.store.Name(), "op", op, "token", tk.token, "id", id)
	return Outcome[T]{Token: tk.token, Phase: PhaseStale, ID: id}
}

func (d *Dispatcher[T, D]) invalid(op string, err error) Outcome[T] {
	d.logger.Debug("draft rejected", "resource", d.store.Name(), "op", op, "error", err)
	return Outcome[T]{Phase: PhaseInvalid, Err: err}
}

func (d *Dispatcher[T, D]) record(ctx context.Context, op string, payload any, start time.Time, out Outcome[T]) {
	if d.rec == nil {
		return
	}
	d.rec.RecordCommand(ctx, Command{
		Token:    out.Token,
		Resource: d.store.Name(),
		Op:       op,
		ID:       out.ID,
		Phase:    out.Phase,
		Err:      out.Err,
		Payload:  payload,
		Started:  start,
		Duration: time.Since(start),
	})
}

// Create validates draft, posts it and appends the confirmed entity. done
// runs only on success.
func (d *Dispatcher[T, D]) Create(ctx context.Context, draft D, done func(T)) Outcome[T] {
	start := time.Now()
	out := d.create(ctx, draft, done)
	d.record(ctx, "create", draft, start, out)
	return out
}

func (d *Dispatcher[T, D]) create(ctx context.Context, draft D, done func(T)) Outcome[T] {
	if err := draft.Validate(); err != nil {
		return d.invalid("create", err)
	}
	tk, err := d.begin(ctx)
	if err != nil {
		return Outcome[T]{Phase: PhaseIdle, Err: err}
	}
	defer tk.release()

	e, err := d.gw.Create(ctx, draft)
	if err != nil {
		return d.fail("create", tk, 0, err)
	}
	id := e.EntityID()

	d.seqMu.Lock()
	d.fresh(id, tk.seq)
	err = d.store.onCreateSucceeded(e)
	d.seqMu.Unlock()
	if err != nil {
		d.logger.Warn("command failed",
			"resource", d.store.Name(), "op", "create", "token", tk.token, "id", id, "error", err)
		return Outcome[T]{Token: tk.token, Phase: PhaseFailed, ID: id, Entity: e, Err: err}
	}

	d.logger.Info("command succeeded", "resource", d.store.Name(), "op", "create", "token", tk.token, "id", id)
	if done != nil {
		done(e)
	}
	return Outcome[T]{Token: tk.token, Phase: PhaseSucceeded, Entity: e, ID: id}
}

// Update validates draft, sends it for id and replaces the stored entity
// with the server's copy. done runs only on success.
func (d *Dispatcher[T, D]) Update(ctx context.Context, id int, draft D, done func(T)) Outcome[T] {
	start := time.Now()
	out := d.update(ctx, id, draft, done)
	if out.ID == 0 {
		out.ID = id
	}
	d.record(ctx, "update", draft, start, out)
	return out
}

func (d *Dispatcher[T, D]) update(ctx context.Context, id int, draft D, done func(T)) Outcome[T] {
	if err := draft.Validate(); err != nil {
		return d.invalid("update", err)
	}
	tk, err := d.begin(ctx)
	if err != nil {
		return Outcome[T]{Phase: PhaseIdle, ID: id, Err: err}
	}
	defer tk.release()

	e, err := d.gw.Update(ctx, id, draft)
	if err != nil {
		return d.fail("update", tk, id, err)
	}

	d.seqMu.Lock()
	if !d.fresh(e.EntityID(), tk.seq) {
		d.seqMu.Unlock()
		return d.discard("update", tk, id)
	}
	d.store.onUpdateSucceeded(e)
	d.seqMu.Unlock()

	d.logger.Info("command succeeded", "resource", d.store.Name(), "op", "update", "token", tk.token, "id", id)
	if done != nil {
		done(e)
	}
	return Outcome[T]{Token: tk.token, Phase: PhaseSucceeded, Entity: e, ID: e.EntityID()}
}

// Delete removes id remotely and then locally. done runs only on success.
func (d *Dispatcher[T, D]) Delete(ctx context.Context, id int, done func(int)) Outcome[T] {
	start := time.Now()
	out := d.delete(ctx, id, done)
	d.record(ctx, "delete", nil, start, out)
	return out
}

func (d *Dispatcher[T, D]) delete(ctx context.Context, id int, done func(int)) Outcome[T] {
	tk, err := d.begin(ctx)
	if err != nil {
		return Outcome[T]{Phase: PhaseIdle, ID: id, Err: err}
	}
	defer tk.release()

	deleted, err := d.gw.Delete(ctx, id)
	if err != nil {
		return d.fail("delete", tk, id, err)
	}

	d.seqMu.Lock()
	if !d.fresh(deleted, tk.seq) {
		d.seqMu.Unlock()
		return d.discard("delete", tk, deleted)
	}
	d.store.onDeleteSucceeded(deleted)
	d.seqMu.Unlock()

	d.logger.Info("command succeeded", "resource", d.store.Name(), "op", "delete", "token", tk.token, "id", deleted)
	if done != nil {
		done(deleted)
	}
	return Outcome[T]{Token: tk.token, Phase: PhaseSucceeded, ID: deleted}
}

// Refresh replaces the collection with the server's list. In concurrent
// mode a list issued before the latest applied command is discarded.
func (d *Dispatcher[T, D]) Refresh(ctx context.Context) Outcome[T] {
	start := time.Now()
	out := d.refresh(ctx)
	d.record(ctx, "list", nil, start, out)
	return out
}

func (d *Dispatcher[T, D]) refresh(ctx context.Context) Outcome[T] {
	tk, err := d.begin(ctx)
	if err != nil {
		return Outcome[T]{Phase: PhaseIdle, Err: err}
	}
	defer tk.release()

	items, err := d.gw.List(ctx)
	if err != nil {
		return d.fail("list", tk, 0, err)
	}

	d.seqMu.Lock()
	if d.lastApplied > tk.seq {
		d.seqMu.Unlock()
		return d.discard("list", tk, 0)
	}
	d.lastApplied = tk.seq
	d.store.onListSucceeded(items)
	d.seqMu.Unlock()

	d.logger.Info("collection loaded", "resource", d.store.Name(), "token", tk.token, "count", len(items))
	return Outcome[T]{Token: tk.token, Phase: PhaseSucceeded}
}
