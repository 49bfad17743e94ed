package download

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedRegistry() *Registry {
	r := NewRegistry()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	r.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
	return r
}

func TestRegistryProgressIsMonotonic(t *testing.T) {
	r := newClockedRegistry()
	r.Apply(Started{ID: "a", Title: "t"})
	r.Apply(Progress{ID: "a", Received: 50, Total: 100, Percent: 50})
	r.Apply(Progress{ID: "a", Received: 30, Total: 100, Percent: 30})

	task, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, 50, task.Progress)
	assert.Equal(t, int64(50), task.ReceivedBytes)
	assert.Equal(t, StatusDownloading, task.Status)
}

func TestRegistryTerminalStatesStick(t *testing.T) {
	r := newClockedRegistry()
	r.Apply(Started{ID: "a"})
	r.Apply(Completed{ID: "a", FilePath: "/x/v.mp4"})
	r.Apply(Progress{ID: "a", Percent: 10})
	r.Apply(Failed{ID: "a", Err: errors.New("late")})

	task, _ := r.Get("a")
	assert.Equal(t, StatusCompleted, task.Status)
	assert.Equal(t, 100, task.Progress)
	assert.Empty(t, task.Err)
	assert.Equal(t, "/x/v.mp4", task.FilePath)
}

func TestRegistryFailedCreatesEntry(t *testing.T) {
	r := newClockedRegistry()
	r.Apply(BatchFailed{ID: "batch_1", Err: errors.New("disk full")})

	task, ok := r.Get("batch_1")
	require.True(t, ok)
	assert.Equal(t, StatusError, task.Status)
	assert.True(t, task.IsBatch)
	assert.Equal(t, "disk full", task.Err)
}

func TestRegistryRestart(t *testing.T) {
	r := newClockedRegistry()
	r.Apply(Started{ID: "a", Title: "first"})
	r.Apply(Started{ID: "a", Title: "ignored while active"})
	task, _ := r.Get("a")
	assert.Equal(t, "first", task.Title)

	r.Apply(Failed{ID: "a", Err: errors.New("boom")})
	r.Apply(Started{ID: "a", Title: "retry"})
	task, _ = r.Get("a")
	assert.Equal(t, "retry", task.Title)
	assert.Equal(t, StatusDownloading, task.Status)
	assert.Empty(t, task.Err)
}

func TestRegistryBatch(t *testing.T) {
	r := newClockedRegistry()
	r.Apply(BatchStarted{ID: "b", Total: 3})
	r.Apply(BatchProgress{ID: "b", Current: 1, Total: 3})

	task, _ := r.Get("b")
	assert.Equal(t, 33, task.Progress)

	r.Apply(BatchProgress{ID: "b", Current: 2, Total: 3})
	task, _ = r.Get("b")
	assert.Equal(t, 67, task.Progress)

	r.Apply(BatchCompleted{ID: "b", Succeeded: 1, Skipped: 1, Failed: 0, Total: 2})
	task, _ = r.Get("b")
	assert.Equal(t, StatusCompleted, task.Status)
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, 3, task.Current)
	assert.Equal(t, 1, task.Skipped)
}

func TestRegistryAllAndRemove(t *testing.T) {
	r := newClockedRegistry()
	r.Apply(Started{ID: "z"})
	r.Apply(Started{ID: "a"})

	all := r.All()
	require.Len(t, all, 2)
	assert.Equal(t, "z", all[0].ID)
	assert.Equal(t, "a", all[1].ID)

	assert.True(t, r.Remove("z"))
	assert.False(t, r.Remove("z"))
	assert.Len(t, r.All(), 1)
}

func TestRegistryIgnoresProgressForUnknownTask(t *testing.T) {
	r := newClockedRegistry()
	r.Apply(Progress{ID: "ghost", Percent: 40})
	_, ok := r.Get("ghost")
	assert.False(t, ok)
}

func TestRegistryCompletedCreatesEntry(t *testing.T) {
	r := newClockedRegistry()
	r.Apply(Completed{ID: "v", FilePath: "/x/v.mp4", TargetDir: "/x", Existed: true})

	task, ok := r.Get("v")
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, task.Status)
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, "/x/v.mp4", task.FilePath)
	assert.False(t, task.IsBatch)
}
