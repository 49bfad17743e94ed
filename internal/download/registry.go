package download

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Status is the state of a task in the registry.
type Status string

const (
	StatusDownloading Status = "Downloading"
	StatusCompleted   Status = "Completed"
	StatusError       Status = "Error"
)

func (s Status) String() string { return string(s) }

// IsFinished reports whether the task reached a terminal state.
func (s Status) IsFinished() bool {
	return s == StatusCompleted || s == StatusError
}

// Task is a snapshot of one download's state.
type Task struct {
	ID        string
	Title     string
	Status    Status
	Progress  int
	IsBatch   bool
	FilePath  string
	TargetDir string
	Err       string

	ReceivedBytes int64
	TotalBytes    int64

	// Batch counters.
	Current   int
	Total     int
	Succeeded int
	Skipped   int
	Failed    int

	StartedAt  time.Time
	FinishedAt time.Time
}

// Registry tracks tasks by applying events to them. Progress only moves
// forward while a task is downloading; finished tasks ignore further events
// until a new start event for the same ID replaces them.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	now   func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]*Task),
		now:   time.Now,
	}
}

// Apply updates the task the event belongs to.
func (r *Registry) Apply(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := e.TaskID()
	t, ok := r.tasks[id]
	active := ok && t.Status == StatusDownloading

	switch ev := e.(type) {
	case Started:
		if active {
			return
		}
		r.tasks[id] = &Task{
			ID:        id,
			Title:     ev.Title,
			Status:    StatusDownloading,
			FilePath:  ev.FilePath,
			TargetDir: ev.TargetDir,
			StartedAt: r.now(),
		}

	case BatchStarted:
		if active {
			return
		}
		r.tasks[id] = &Task{
			ID:        id,
			Title:     ev.Title,
			Status:    StatusDownloading,
			IsBatch:   true,
			TargetDir: ev.TargetDir,
			Total:     ev.Total,
			StartedAt: r.now(),
		}

	case Progress:
		if !active {
			return
		}
		if ev.Received > t.ReceivedBytes {
			t.ReceivedBytes = ev.Received
		}
		t.TotalBytes = ev.Total
		t.setProgress(ev.Percent)

	case BatchProgress:
		if !active {
			return
		}
		if ev.Current > t.Current {
			t.Current = ev.Current
		}
		if ev.Total > 0 {
			t.Total = ev.Total
			t.setProgress(int(math.Round(float64(t.Current) / float64(t.Total) * 100)))
		}

	case Completed:
		if !ok {
			t = &Task{ID: id, StartedAt: r.now()}
			r.tasks[id] = t
		} else if !active {
			return
		}
		t.Status = StatusCompleted
		t.Progress = 100
		t.FilePath = ev.FilePath
		t.TargetDir = ev.TargetDir
		t.FinishedAt = r.now()

	case BatchCompleted:
		if !active {
			return
		}
		t.Status = StatusCompleted
		t.Progress = 100
		t.Current = t.Total
		t.Succeeded, t.Skipped, t.Failed = ev.Succeeded, ev.Skipped, ev.Failed
		t.FinishedAt = r.now()

	case Failed:
		r.fail(id, t, ok, false, ev.Err)

	case BatchFailed:
		r.fail(id, t, ok, true, ev.Err)
	}
}

func (r *Registry) fail(id string, t *Task, ok, batch bool, err error) {
	if ok && t.Status.IsFinished() {
		return
	}
	if !ok {
		t = &Task{ID: id, IsBatch: batch, StartedAt: r.now()}
		r.tasks[id] = t
	}
	t.Status = StatusError
	if err != nil {
		t.Err = err.Error()
	}
	t.FinishedAt = r.now()
}

func (t *Task) setProgress(p int) {
	if p > 100 {
		p = 100
	}
	if p > t.Progress {
		t.Progress = p
	}
}

// Get returns a copy of the task with the given ID.
func (r *Registry) Get(id string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// All returns copies of every task, oldest first.
func (r *Registry) All() []Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartedAt.Before(out[j].StartedAt)
	})
	return out
}

// Remove deletes a task. It reports whether the task existed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.tasks[id]
	delete(r.tasks, id)
	return ok
}
