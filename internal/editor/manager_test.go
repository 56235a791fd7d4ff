package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/acapella/riskhunt/internal/riskhunt"
)

type fakeRepo struct {
	mu      sync.Mutex
	images  map[string]riskhunt.ZoneSet
	saves   int
	saveErr error
}

func newFakeRepo(images map[string]riskhunt.ZoneSet) *fakeRepo {
	return &fakeRepo{images: images}
}

func (f *fakeRepo) GetZones(_ context.Context, imageID string) (riskhunt.ZoneSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	zs, ok := f.images[imageID]
	if !ok {
		return nil, fmt.Errorf("image %s: %w", imageID, riskhunt.ErrNotFound)
	}
	return zs.Clone(), nil
}

func (f *fakeRepo) SaveZones(_ context.Context, imageID string, zones riskhunt.ZoneSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.images[imageID] = zones.Clone()
	return nil
}

func (f *fakeRepo) stored(imageID string) riskhunt.ZoneSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.images[imageID]
}

func TestManagerEditAndSave(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(map[string]riskhunt.ZoneSet{"img": {circleZone("a", 0, 0, 5, 1)}})
	m := NewManager(repo, slog.Default(), DefaultHistoryLimit)

	snap, err := m.Edit(ctx, "img", AddZone(circleZone("b", 20, 20, 5, 2)))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if len(snap.Zones) != 2 {
		t.Fatalf("zones = %d, want 2", len(snap.Zones))
	}
	if !snap.Status.Unsaved || snap.Status.UndoDepth != 1 {
		t.Errorf("snapshot status = %+v", snap.Status)
	}

	e, _ := m.Get(ctx, "img")
	if st := e.Status(); !st.Unsaved || st.UndoDepth != 1 {
		t.Errorf("status = %+v", st)
	}

	if n := m.SaveUnsaved(ctx); n != 1 {
		t.Errorf("saved = %d, want 1", n)
	}
	if got := repo.stored("img"); len(got) != 2 {
		t.Errorf("stored zones = %d, want 2", len(got))
	}
	if e.Unsaved() {
		t.Error("editor should be clean after save")
	}

	if n := m.SaveUnsaved(ctx); n != 0 {
		t.Errorf("second pass saved = %d, want 0", n)
	}
}

func TestManagerUnknownImage(t *testing.T) {
	m := NewManager(newFakeRepo(map[string]riskhunt.ZoneSet{}), slog.Default(), DefaultHistoryLimit)
	if _, err := m.Edit(context.Background(), "nope", Undo()); !errors.Is(err, riskhunt.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAutosaveFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(map[string]riskhunt.ZoneSet{"img": nil})
	m := NewManager(repo, slog.Default(), DefaultHistoryLimit)

	if _, err := m.Edit(ctx, "img", AddZone(circleZone("a", 0, 0, 5, 1))); err != nil {
		t.Fatalf("edit: %v", err)
	}

	repo.saveErr = errors.New("disk full")
	if n := m.SaveUnsaved(ctx); n != 0 {
		t.Errorf("saved = %d, want 0", n)
	}
	e, _ := m.Get(ctx, "img")
	if !e.Unsaved() {
		t.Fatal("failed save must keep the editor unsaved")
	}

	// Editing keeps working while storage is down.
	if _, err := m.Edit(ctx, "img", AddZone(circleZone("b", 9, 9, 5, 1))); err != nil {
		t.Fatalf("edit during outage: %v", err)
	}

	repo.saveErr = nil
	if n := m.SaveUnsaved(ctx); n != 1 {
		t.Errorf("retry saved = %d, want 1", n)
	}
	if got := repo.stored("img"); len(got) != 2 {
		t.Errorf("stored = %d zones, want 2", len(got))
	}
}

func TestUndoRedoDoNotDirtyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newFakeRepo(map[string]riskhunt.ZoneSet{"img": nil}), slog.Default(), DefaultHistoryLimit)

	if _, err := m.Edit(ctx, "img", Undo()); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if _, err := m.Edit(ctx, "img", Redo()); err != nil {
		t.Fatalf("redo: %v", err)
	}
	e, _ := m.Get(ctx, "img")
	if e.Unsaved() {
		t.Error("no-op undo/redo should not mark the editor unsaved")
	}
}

func TestReleaseSavesAndResetsHistory(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(map[string]riskhunt.ZoneSet{"img": nil})
	m := NewManager(repo, slog.Default(), DefaultHistoryLimit)

	m.Edit(ctx, "img", AddZone(circleZone("a", 0, 0, 5, 1)))
	if err := m.Release(ctx, "img"); err != nil {
		t.Fatalf("release: %v", err)
	}

	if got := repo.stored("img"); len(got) != 1 {
		t.Fatalf("release should save pending edits, stored = %d", len(got))
	}

	e, err := m.Get(ctx, "img")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if st := e.Status(); st.UndoDepth != 0 || st.RedoDepth != 0 || st.Unsaved {
		t.Errorf("fresh editor status = %+v", st)
	}
}

func TestReloadDiscardsEdits(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(map[string]riskhunt.ZoneSet{"img": {circleZone("a", 0, 0, 5, 1)}})
	m := NewManager(repo, slog.Default(), DefaultHistoryLimit)

	m.Edit(ctx, "img", RemoveZone("a"))
	e, _ := m.Get(ctx, "img")
	snap, err := e.Reload(ctx)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(snap.Zones) != 1 || snap.Status.Unsaved {
		t.Errorf("reload snapshot = %+v", snap)
	}
	if zs := e.Zones(); len(zs) != 1 {
		t.Errorf("zones = %d, want 1", len(zs))
	}
	if st := e.Status(); st.Unsaved || st.UndoDepth != 0 {
		t.Errorf("status = %+v", st)
	}
}

func TestConcurrentEdits(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newFakeRepo(map[string]riskhunt.ZoneSet{"img": nil}), slog.Default(), 100)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Edit(ctx, "img", AddZone(circleZone(fmt.Sprintf("z%d", i), 0, 0, 1, 1))); err != nil {
				t.Errorf("edit %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	e, _ := m.Get(ctx, "img")
	if n := len(e.Zones()); n != 50 {
		t.Errorf("zones = %d, want 50", n)
	}
}

func TestReleaseKeepsEditorWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo(map[string]riskhunt.ZoneSet{"img": nil})
	m := NewManager(repo, slog.Default(), DefaultHistoryLimit)

	m.Edit(ctx, "img", AddZone(circleZone("a", 0, 0, 5, 1)))
	repo.mu.Lock()
	repo.saveErr = errors.New("disk full")
	repo.mu.Unlock()

	if err := m.Release(ctx, "img"); err == nil {
		t.Fatal("release should report the failed save")
	}
	e, _ := m.Get(ctx, "img")
	if st := e.Status(); !st.Unsaved || st.UndoDepth != 1 {
		t.Errorf("edits lost after failed release: %+v", st)
	}
	if err := m.Release(ctx, "unknown"); err != nil {
		t.Errorf("releasing an unloaded image: %v", err)
	}
}

// slowRepo blocks loads of one image until released.
type slowRepo struct {
	*fakeRepo
	slowID  string
	entered chan struct{}
	release chan struct{}
}

func (r *slowRepo) GetZones(ctx context.Context, imageID string) (riskhunt.ZoneSet, error) {
	if imageID == r.slowID {
		close(r.entered)
		<-r.release
	}
	return r.fakeRepo.GetZones(ctx, imageID)
}

func TestSlowLoadDoesNotBlockOtherImages(t *testing.T) {
	ctx := context.Background()
	repo := &slowRepo{
		fakeRepo: newFakeRepo(map[string]riskhunt.ZoneSet{"slow": nil, "fast": nil}),
		slowID:   "slow",
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	m := NewManager(repo, slog.Default(), DefaultHistoryLimit)

	loaded := make(chan error, 1)
	go func() {
		_, err := m.Get(ctx, "slow")
		loaded <- err
	}()
	<-repo.entered

	if _, err := m.Get(ctx, "fast"); err != nil {
		t.Fatalf("get fast: %v", err)
	}

	close(repo.release)
	if err := <-loaded; err != nil {
		t.Fatalf("get slow: %v", err)
	}
	a, _ := m.Get(ctx, "slow")
	b, _ := m.Get(ctx, "slow")
	if a != b {
		t.Error("one image must map to one editor")
	}
}

func TestEditSnapshotsAreConsistent(t *testing.T) {
	ctx := context.Background()
	m := NewManager(newFakeRepo(map[string]riskhunt.ZoneSet{"img": nil}), slog.Default(), 100)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := m.Edit(ctx, "img", AddZone(circleZone(fmt.Sprintf("z%d", i), 0, 0, 1, 1)))
			if err != nil {
				t.Errorf("edit %d: %v", i, err)
				return
			}
			// Every add is one history entry, so a consistent view has as
			// many undo steps as zones.
			if len(snap.Zones) != snap.Status.UndoDepth {
				t.Errorf("zones %d paired with undo depth %d", len(snap.Zones), snap.Status.UndoDepth)
			}
		}()
	}
	wg.Wait()
}
