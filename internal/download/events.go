package download

// Event is a lifecycle notification for one task. Single downloads are
// keyed by media URL, batches by their generated batch ID.
type Event interface {
	TaskID() string
}

// Started is emitted before a single file is fetched.
type Started struct {
	ID        string
	Title     string
	FilePath  string
	TargetDir string
}

// Progress reports bytes received for a single file. It is emitted only
// when the server sent a Content-Length, once per whole percent.
type Progress struct {
	ID       string
	Received int64
	Total    int64
	Percent  int
}

// Completed is emitted after a single file is in place.
type Completed struct {
	ID        string
	FilePath  string
	TargetDir string
	// Existed means the file was already on disk and nothing was fetched.
	Existed bool
}

// Failed is emitted when a single download gives up.
type Failed struct {
	ID  string
	Err error
}

// BatchStarted opens an image-set download. Total counts the text file too.
type BatchStarted struct {
	ID        string
	Title     string
	TargetDir string
	Thumbnail string
	Total     int
}

// BatchProgress reports that Current of Total items have been processed.
type BatchProgress struct {
	ID      string
	Current int
	Total   int
	Message string
}

// BatchCompleted closes a batch with per-outcome counts over the images.
type BatchCompleted struct {
	ID        string
	TargetDir string
	Succeeded int
	Skipped   int
	Failed    int
	Total     int
}

// BatchFailed is emitted when a batch cannot be set up or is cancelled.
type BatchFailed struct {
	ID  string
	Err error
}

func (e Started) TaskID() string        { return e.ID }
func (e Progress) TaskID() string       { return e.ID }
func (e Completed) TaskID() string      { return e.ID }
func (e Failed) TaskID() string         { return e.ID }
func (e BatchStarted) TaskID() string   { return e.ID }
func (e BatchProgress) TaskID() string  { return e.ID }
func (e BatchCompleted) TaskID() string { return e.ID }
func (e BatchFailed) TaskID() string    { return e.ID }

// Listener receives events. Notify must not block; the manager calls it
// synchronously from the downloading goroutine.
type Listener interface {
	Notify(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

func (f ListenerFunc) Notify(e Event) { f(e) }

// Listeners fans an event out to each listener in order.
type Listeners []Listener

func (ls Listeners) Notify(e Event) {
	for _, l := range ls {
		if l != nil {
			l.Notify(e)
		}
	}
}

// Discard drops every event.
var Discard Listener = ListenerFunc(func(Event) {})
