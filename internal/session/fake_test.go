package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/starford/flowboard/internal/apperr"
	"github.com/starford/flowboard/internal/models"
)

type update struct {
	ID    string
	Patch models.NotePatch
}

// fakeRemote is an in-memory store that records every request.
type fakeRemote struct {
	mu sync.Mutex

	canvas  models.Canvas
	nextID  int
	updates []update
	deletes []string
	links   []models.Connection
	unlinks []models.Connection
	promos  []models.PromoteRequest

	failCreate  error
	failDelete  error
	failConnect error
	failPromote error
	duplicate   bool
	promoteRes  *models.PromoteResult

	// gate, when set, blocks create and delete until it is closed.
	gate chan struct{}
	// connectGate, when set, blocks connect until it is closed.
	connectGate chan struct{}
	// updateGate, when set, blocks note updates until it is closed.
	updateGate chan struct{}

	// moving and maxMoving count position writes in progress.
	moving    int
	maxMoving int
}

func (f *fakeRemote) wait(ctx context.Context) {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	block(ctx, gate)
}

func block(ctx context.Context, gate chan struct{}) {
	if gate == nil {
		return
	}
	select {
	case <-gate:
	case <-ctx.Done():
	}
}

func (f *fakeRemote) Canvas(context.Context) (models.Canvas, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.canvas, nil
}

func (f *fakeRemote) CreateNote(ctx context.Context, in models.NoteInput) (models.Note, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return models.Note{}, f.failCreate
	}
	f.nextID++
	return models.Note{
		ID:    fmt.Sprintf("srv-%d", f.nextID),
		X:     in.X,
		Y:     in.Y,
		Text:  in.Text,
		Color: in.Color,
	}, nil
}

func (f *fakeRemote) UpdateNote(ctx context.Context, id string, patch models.NotePatch) error {
	f.mu.Lock()
	f.updates = append(f.updates, update{ID: id, Patch: patch})
	gate := f.updateGate
	if patch.X != nil {
		f.moving++
		f.maxMoving = max(f.maxMoving, f.moving)
	}
	f.mu.Unlock()

	block(ctx, gate)

	if patch.X != nil {
		f.mu.Lock()
		f.moving--
		f.mu.Unlock()
	}
	return nil
}

// overlap returns the most position writes ever in progress at once.
func (f *fakeRemote) overlap() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxMoving
}

func (f *fakeRemote) DeleteNote(ctx context.Context, id string) error {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete != nil {
		return f.failDelete
	}
	f.deletes = append(f.deletes, id)
	return nil
}

func (f *fakeRemote) Connect(ctx context.Context, c models.Connection) (bool, error) {
	f.mu.Lock()
	gate := f.connectGate
	f.mu.Unlock()
	block(ctx, gate)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failConnect != nil {
		return false, f.failConnect
	}
	f.links = append(f.links, c)
	return f.duplicate, nil
}

func (f *fakeRemote) Disconnect(_ context.Context, c models.Connection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unlinks = append(f.unlinks, c)
	return nil
}

func (f *fakeRemote) Promote(_ context.Context, req models.PromoteRequest) (models.PromoteResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.promos = append(f.promos, req)
	if f.failPromote != nil {
		return models.PromoteResult{}, f.failPromote
	}
	if f.promoteRes != nil {
		return *f.promoteRes, nil
	}
	return models.PromoteResult{
		Task:         models.Task{ID: "T-001", Title: req.Title, Priority: req.Priority, Status: models.StatusOpen},
		DeletedNotes: req.NoteIDs,
	}, nil
}

// positions returns the position writes sent for id.
func (f *fakeRemote) positions(id string) []update {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []update
	for _, u := range f.updates {
		if u.ID == id && u.Patch.X != nil {
			out = append(out, u)
		}
	}
	return out
}

func (f *fakeRemote) colorUpdates() []update {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []update
	for _, u := range f.updates {
		if u.Patch.Color != nil {
			out = append(out, u)
		}
	}
	return out
}

func (f *fakeRemote) textUpdates() []update {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []update
	for _, u := range f.updates {
		if u.Patch.Text != nil {
			out = append(out, u)
		}
	}
	return out
}

// recorder collects notifications and tasks.
type recorder struct {
	mu    sync.Mutex
	notes []Notification
	tasks []models.Task
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) AppendTask(t models.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, t)
}

func (r *recorder) notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notes...)
}

func (r *recorder) appended() []models.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Task(nil), r.tasks...)
}

var errServer = apperr.Wrap(apperr.ErrValidation, "Notes not found")
