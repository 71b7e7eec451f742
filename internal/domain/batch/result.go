package batch

// ItemStatus is the processing outcome of a single batch item.
type ItemStatus string

// Batch item status values.
const (
	StatusOK    ItemStatus = "ok"
	StatusError ItemStatus = "error"
)

// Result is the outcome of ingesting one video of a manifest.
type Result struct {
	id     string
	status ItemStatus
	frames int
	err    error
}

// NewOK creates a successful result for a video with the given number of indexed frames.
func NewOK(id string, frames int) Result { return Result{id: id, status: StatusOK, frames: frames} }

// NewError creates a failed result.
func NewError(id string, err error) Result { return Result{id: id, status: StatusError, err: err} }

// ID returns the video identifier (may be empty if it could not be assigned).
func (r Result) ID() string { return r.id }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Frames returns how many frames were indexed.
func (r Result) Frames() int { return r.frames }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Counts tallies successes and failures.
func Counts(results []Result) (ok, failed int) {
	for _, r := range results {
		if r.status == StatusOK {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
