package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/acapella/riskhunt/internal/riskhunt"
)

var tracer = otel.Tracer("github.com/acapella/riskhunt/internal/game")

// GameRepository supplies game templates.
type GameRepository interface {
	GetConfig(ctx context.Context, gameID string) (riskhunt.GameConfig, error)
}

// ZoneSource supplies the zone set of an image at session start.
type ZoneSource interface {
	GetZones(ctx context.Context, imageID string) (riskhunt.ZoneSet, error)
}

// SessionRepository receives the summary of every completed session.
type SessionRepository interface {
	Persist(ctx context.Context, result riskhunt.GameResult) error
}

type Options struct {
	// TickInterval drives session countdowns. Zero disables them; time then
	// only runs out through SubmitTimeout.
	TickInterval time.Duration
	// NewTicker defaults to NewTimeTicker.
	NewTicker func(time.Duration) Ticker
	// Now defaults to time.Now.
	Now func() time.Time
	// Retention is how long persisted sessions stay queryable.
	Retention time.Duration
	// PersistTimeout bounds one call to SessionRepository.Persist.
	PersistTimeout time.Duration
}

// Registry holds the live sessions. Every mutation of a session goes through
// that session's gate, so at most one is in flight per session; different
// sessions proceed independently.
type Registry struct {
	games    GameRepository
	zones    ZoneSource
	results  SessionRepository
	notifier Notifier
	logger   *slog.Logger
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	entries map[string]*entry
}

type entry struct {
	gate       sync.Mutex
	session    *Session
	countdown  *Countdown
	persisted  bool
	persisting bool
}

func NewRegistry(games GameRepository, zones ZoneSource, results SessionRepository, notifier Notifier, logger *slog.Logger, opts Options) *Registry {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if opts.NewTicker == nil {
		opts.NewTicker = NewTimeTicker
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		games:    games,
		zones:    zones,
		results:  results,
		notifier: notifier,
		logger:   logger,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[string]*entry),
	}
}

// StartSession loads the game, snapshots the zones of its images and starts
// the countdown.
func (r *Registry) StartSession(ctx context.Context, gameID, playerName, teamName string) (Session, error) {
	ctx, span := tracer.Start(ctx, "game.StartSession", trace.WithAttributes(attribute.String("game.id", gameID)))
	defer span.End()

	cfg, err := r.games.GetConfig(ctx, gameID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Session{}, fmt.Errorf("loading game %s: %w", gameID, err)
	}

	images := make([]SessionImage, 0, len(cfg.ImageIDs))
	for _, imageID := range cfg.ImageIDs {
		zs, err := r.zones.GetZones(ctx, imageID)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return Session{}, fmt.Errorf("loading zones of image %s: %w", imageID, err)
		}
		images = append(images, SessionImage{ImageID: imageID, Zones: zs.Clone()})
	}

	s, err := Start(uuid.NewString(), cfg, images, playerName, teamName, r.opts.Now())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Session{}, err
	}
	span.SetAttributes(attribute.String("session.id", s.ID))

	e := &entry{session: s}
	e.gate.Lock()
	defer e.gate.Unlock()

	r.mu.Lock()
	r.entries[s.ID] = e
	r.mu.Unlock()

	if r.opts.TickInterval > 0 {
		id := s.ID
		e.countdown = startCountdown(r.ctx, r.opts.NewTicker(r.opts.TickInterval), func() { r.tick(id) })
	}

	r.logger.Info("session started",
		"session_id", s.ID,
		"game_id", gameID,
		"player", s.PlayerName,
		"time_limit", s.TimeLimitSeconds,
		"max_clicks", s.MaxClicks,
	)
	r.notifier.Publish(s.ID, newEvent(EventStarted, s))
	return s.Clone(), nil
}

func (r *Registry) entry(id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, riskhunt.ErrNotFound)
	}
	return e, nil
}

// Session returns a snapshot of the session.
func (r *Registry) Session(id string) (Session, error) {
	e, err := r.entry(id)
	if err != nil {
		return Session{}, err
	}
	e.gate.Lock()
	defer e.gate.Unlock()
	return e.session.Clone(), nil
}

// SubmitClick applies one click to the session. Clicks on a completed
// session fail with riskhunt.ErrInvalidState.
func (r *Registry) SubmitClick(ctx context.Context, id string, x, y float64) (ClickResult, error) {
	_, span := tracer.Start(ctx, "game.SubmitClick", trace.WithAttributes(
		attribute.String("session.id", id),
		attribute.Float64("click.x", x),
		attribute.Float64("click.y", y),
	))
	defer span.End()

	e, err := r.entry(id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return ClickResult{}, err
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	res, err := e.session.Click(x, y, r.opts.Now())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return ClickResult{}, err
	}
	span.SetAttributes(attribute.Bool("click.hit", res.Hit))

	ev := newEvent(EventClick, e.session)
	ev.Hit = &res.Hit
	ev.ZoneID = res.ZoneID
	r.notifier.Publish(id, ev)

	if !e.session.Active() {
		r.finish(e)
	}
	return res, nil
}

// SubmitTimeout forces the timeout path. On a completed session it is a
// no-op returning the final state.
func (r *Registry) SubmitTimeout(ctx context.Context, id string) (Session, error) {
	_, span := tracer.Start(ctx, "game.SubmitTimeout", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	e, err := r.entry(id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Session{}, err
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	if e.session.Timeout(r.opts.Now()) {
		r.finish(e)
	}
	return e.session.Clone(), nil
}

// AdvanceImage moves the session to its next image.
func (r *Registry) AdvanceImage(ctx context.Context, id string) (Session, error) {
	_, span := tracer.Start(ctx, "game.AdvanceImage", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()

	e, err := r.entry(id)
	if err != nil {
		return Session{}, err
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	if err := e.session.AdvanceImage(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Session{}, err
	}
	r.notifier.Publish(id, newEvent(EventImageAdvanced, e.session))
	return e.session.Clone(), nil
}

func (r *Registry) tick(id string) {
	e, err := r.entry(id)
	if err != nil {
		return
	}

	e.gate.Lock()
	defer e.gate.Unlock()

	if !e.session.Active() {
		if e.countdown != nil {
			e.countdown.Stop()
		}
		return
	}
	ended := e.session.Tick(r.opts.Now())
	r.notifier.Publish(id, newEvent(EventTick, e.session))
	if ended {
		r.finish(e)
	}
}

// finish runs once per session, with the gate held, right after the
// transition to Completed.
func (r *Registry) finish(e *entry) {
	s := e.session
	if e.countdown != nil {
		e.countdown.Stop()
	}
	r.logger.Info("session completed",
		"session_id", s.ID,
		"reason", s.EndReason,
		"score", s.Score,
		"risks_found", len(s.FoundRisks),
		"clicks_used", s.ClicksUsed,
	)
	r.notifier.Publish(s.ID, newEvent(EventCompleted, s))
	r.persistAsync(e)
}

// persistAsync hands the result to the SessionRepository off the request
// path. The gate must be held. Failures leave the entry unpersisted for the
// janitor to retry.
func (r *Registry) persistAsync(e *entry) {
	if e.persisted || e.persisting || r.results == nil {
		return
	}
	e.persisting = true
	result := e.session.Result(uuid.NewString(), r.opts.Now())

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.opts.PersistTimeout)
		defer cancel()
		ctx, span := tracer.Start(ctx, "game.Persist", trace.WithAttributes(attribute.String("session.id", result.SessionID)))
		defer span.End()

		err := r.results.Persist(ctx, result)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			r.logger.Warn("persisting session result failed", "session_id", result.SessionID, "error", err)
		}

		e.gate.Lock()
		e.persisting = false
		e.persisted = err == nil
		e.gate.Unlock()
	}()
}

// Sweep retries failed persists and evicts persisted sessions that completed
// longer ago than the retention period. It returns the number evicted.
func (r *Registry) Sweep() int {
	r.mu.RLock()
	entries := make(map[string]*entry, len(r.entries))
	for id, e := range r.entries {
		entries[id] = e
	}
	r.mu.RUnlock()

	now := r.opts.Now()
	var evict []string
	for id, e := range entries {
		e.gate.Lock()
		s := e.session
		switch {
		case s.Active():
		case !e.persisted:
			r.persistAsync(e)
		case r.opts.Retention > 0 && s.CompletedAt != nil && now.Sub(*s.CompletedAt) > r.opts.Retention:
			evict = append(evict, id)
		}
		e.gate.Unlock()
	}

	if len(evict) > 0 {
		r.mu.Lock()
		for _, id := range evict {
			delete(r.entries, id)
		}
		r.mu.Unlock()
		r.logger.Debug("evicted sessions", "count", len(evict))
	}
	return len(evict)
}

// Run sweeps every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Check fails once the registry is closed. It backs the health endpoint.
func (r *Registry) Check(context.Context) error {
	if r.ctx.Err() != nil {
		return fmt.Errorf("session registry closed")
	}
	return nil
}

// Close stops every countdown and waits for in-flight persists.
func (r *Registry) Close() {
	r.cancel()

	r.mu.RLock()
	var countdowns []*Countdown
	for _, e := range r.entries {
		e.gate.Lock()
		if e.countdown != nil {
			e.countdown.Stop()
			countdowns = append(countdowns, e.countdown)
		}
		e.gate.Unlock()
	}
	r.mu.RUnlock()

	for _, c := range countdowns {
		<-c.Done()
	}
	r.wg.Wait()
}
