package game

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ClickSubmitter is satisfied by Registry.
type ClickSubmitter interface {
	SubmitClick(ctx context.Context, id string, x, y float64) (ClickResult, error)
}

// Debouncer coalesces rapid clicks per session into one logical click.
// Clicks arriving while another click of the same session is in flight share
// its result, as do clicks arriving within window after it returned. Shared
// results are flagged Debounced.
type Debouncer struct {
	next   ClickSubmitter
	window time.Duration
	now    func() time.Time

	group singleflight.Group

	mu   sync.Mutex
	last map[string]recentClick
}

type recentClick struct {
	at     time.Time
	result ClickResult
}

const debouncePruneThreshold = 1024

func NewDebouncer(next ClickSubmitter, window time.Duration, now func() time.Time) *Debouncer {
	if now == nil {
		now = time.Now
	}
	return &Debouncer{
		next:   next,
		window: window,
		now:    now,
		last:   make(map[string]recentClick),
	}
}

func (d *Debouncer) SubmitClick(ctx context.Context, id string, x, y float64) (ClickResult, error) {
	if d.window <= 0 {
		return d.next.SubmitClick(ctx, id, x, y)
	}

	// Calls for one session never overlap inside the group, so the recent
	// check and the submission below form a single decision.
	ran := false
	v, err, _ := d.group.Do(id, func() (any, error) {
		ran = true
		if res, ok := d.recent(id); ok {
			res.Debounced = true
			return res, nil
		}
		res, err := d.next.SubmitClick(ctx, id, x, y)
		if err != nil {
			return ClickResult{}, err
		}
		d.mu.Lock()
		d.last[id] = recentClick{at: d.now(), result: res}
		d.mu.Unlock()
		return res, nil
	})
	if err != nil {
		return ClickResult{}, err
	}
	res := v.(ClickResult)
	if !ran {
		res.Debounced = true
	}
	return res, nil
}

func (d *Debouncer) recent(id string) (ClickResult, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if len(d.last) > debouncePruneThreshold {
		for k, rc := range d.last {
			if now.Sub(rc.at) >= d.window {
				delete(d.last, k)
			}
		}
	}

	rc, ok := d.last[id]
	if !ok {
		return ClickResult{}, false
	}
	if now.Sub(rc.at) >= d.window {
		delete(d.last, id)
		return ClickResult{}, false
	}
	return rc.result, true
}
