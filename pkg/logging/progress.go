package logging

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/nharbeck/rowio/pkg/humanfmt"
)

// recentWindow is how many completion durations feed the ETA estimate.
const recentWindow = 10

// ProgressTracker counts completed and skipped items out of a known
// total and estimates time remaining from a moving average of the most
// recent completions. Safe for concurrent use.
type ProgressTracker struct {
	phase string
	total int64
	start time.Time
	log   zerolog.Logger

	completed atomic.Int64
	skipped   atomic.Int64

	mu      sync.Mutex
	recent  [recentWindow]time.Duration
	nRecent int
	next    int
}

// NewProgressTracker starts tracking total items for the given phase.
func NewProgressTracker(phase string, total int64, log zerolog.Logger) *ProgressTracker {
	return &ProgressTracker{
		phase: phase,
		total: total,
		start: time.Now(),
		log:   log,
	}
}

// RecordCompletion counts one finished item and feeds its duration
// into the ETA window.
func (pt *ProgressTracker) RecordCompletion(d time.Duration) {
	pt.completed.Add(1)

	pt.mu.Lock()
	pt.recent[pt.next] = d
	pt.next = (pt.next + 1) % recentWindow
	if pt.nRecent < recentWindow {
		pt.nRecent++
	}
	pt.mu.Unlock()
}

// RecordSkip counts one item that needed no work.
func (pt *ProgressTracker) RecordSkip() {
	pt.skipped.Add(1)
}

// Progress returns the completed, skipped and total counts.
func (pt *ProgressTracker) Progress() (completed, skipped, total int64) {
	return pt.completed.Load(), pt.skipped.Load(), pt.total
}

// ProgressPct returns percent done, counting skips. An empty tracker
// is 100% done.
func (pt *ProgressTracker) ProgressPct() float64 {
	if pt.total == 0 {
		return 100.0
	}
	done := pt.completed.Load() + pt.skipped.Load()
	return float64(done) * 100.0 / float64(pt.total)
}

// ETA estimates time remaining from the recent completion rate, or
// from the overall rate before the window has data. Zero until the
// first completion and once nothing remains.
func (pt *ProgressTracker) ETA() time.Duration {
	completed := pt.completed.Load()
	if completed == 0 {
		return 0
	}
	remaining := pt.total - completed - pt.skipped.Load()
	if remaining <= 0 {
		return 0
	}

	pt.mu.Lock()
	var avg time.Duration
	if pt.nRecent > 0 {
		var sum time.Duration
		for _, d := range pt.recent[:pt.nRecent] {
			sum += d
		}
		avg = sum / time.Duration(pt.nRecent)
	} else {
		avg = time.Since(pt.start) / time.Duration(completed)
	}
	pt.mu.Unlock()

	return avg * time.Duration(remaining)
}

// Elapsed returns time since the tracker was created.
func (pt *ProgressTracker) Elapsed() time.Duration {
	return time.Since(pt.start)
}

// Remaining returns how many items are neither completed nor skipped.
func (pt *ProgressTracker) Remaining() int64 {
	return pt.total - pt.completed.Load() - pt.skipped.Load()
}

// Completed returns the completed count, not counting skips.
func (pt *ProgressTracker) Completed() int64 {
	return pt.completed.Load()
}

// Total returns the total item count.
func (pt *ProgressTracker) Total() int64 {
	return pt.total
}

// LogProgress emits a progress snapshot at debug level on the
// tracker's logger.
func (pt *ProgressTracker) LogProgress(msg string) {
	done := pt.completed.Load() + pt.skipped.Load()
	NewCompletionEvent(pt.log, "progress", pt.phase, pt.Elapsed()).
		Progress(done, pt.total, pt.ETA()).
		LogDebug(msg)
}

// CompletionEvent accumulates fields for a structured completion log
// line. Fields are emitted in the order they were added. When pretty
// mode is on, size, count, progress and throughput fields gain a
// human-readable companion with an "_h" suffix.
type CompletionEvent struct {
	log     zerolog.Logger
	event   string
	phase   string
	elapsed time.Duration
	keys    []string
	vals    []any
}

// NewCompletionEvent builds an event with the standard event, phase
// and duration fields.
func NewCompletionEvent(log zerolog.Logger, event, phase string, elapsed time.Duration) *CompletionEvent {
	return &CompletionEvent{
		log:     log,
		event:   event,
		phase:   phase,
		elapsed: elapsed,
	}
}

// PhaseComplete starts a phase_completed event.
func PhaseComplete(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "phase_completed", phase, elapsed)
}

// FileCreated starts a file_created event.
func FileCreated(log zerolog.Logger, phase string, elapsed time.Duration) *CompletionEvent {
	return NewCompletionEvent(log, "file_created", phase, elapsed)
}

func (ce *CompletionEvent) add(key string, val any) *CompletionEvent {
	ce.keys = append(ce.keys, key)
	ce.vals = append(ce.vals, val)
	return ce
}

// Str adds a string field.
func (ce *CompletionEvent) Str(key, val string) *CompletionEvent {
	return ce.add(key, val)
}

// Int adds an int field.
func (ce *CompletionEvent) Int(key string, val int) *CompletionEvent {
	return ce.add(key, val)
}

// Int64 adds an int64 field.
func (ce *CompletionEvent) Int64(key string, val int64) *CompletionEvent {
	return ce.add(key, val)
}

// Uint64 adds a uint64 field.
func (ce *CompletionEvent) Uint64(key string, val uint64) *CompletionEvent {
	return ce.add(key, val)
}

// Bytes adds a byte count.
func (ce *CompletionEvent) Bytes(key string, bytes int64) *CompletionEvent {
	ce.add(key, bytes)
	if IsPrettyMode() {
		ce.add(key+"_h", humanfmt.Bytes(bytes))
	}
	return ce
}

// Count adds an item count.
func (ce *CompletionEvent) Count(key string, n int64) *CompletionEvent {
	ce.add(key, n)
	if IsPrettyMode() {
		ce.add(key+"_h", humanfmt.Count(n))
	}
	return ce
}

// CountUint64 adds an unsigned item count.
func (ce *CompletionEvent) CountUint64(key string, n uint64) *CompletionEvent {
	return ce.Count(key, int64(n))
}

// Progress adds done, total, percentage and, when positive, the ETA.
func (ce *CompletionEvent) Progress(done, total int64, eta time.Duration) *CompletionEvent {
	ce.add("done", done)
	ce.add("total", total)
	if total > 0 {
		ce.add("progress_pct", float64(done)*100.0/float64(total))
		if IsPrettyMode() {
			ce.add("progress_h", humanfmt.Count(done)+"/"+humanfmt.Count(total))
		}
	}
	if eta > 0 {
		ce.add("eta_ms", eta.Milliseconds())
		if IsPrettyMode() {
			ce.add("eta_h", humanfmt.Duration(eta))
		}
	}
	return ce
}

// Throughput adds the byte rate over the event's duration.
func (ce *CompletionEvent) Throughput(bytes int64) *CompletionEvent {
	if ce.elapsed > 0 {
		ce.add("throughput_bps", float64(bytes)/ce.elapsed.Seconds())
		if IsPrettyMode() {
			ce.add("throughput_h", humanfmt.Throughput(bytes, ce.elapsed))
		}
	}
	return ce
}

func (ce *CompletionEvent) emit(e *zerolog.Event, msg string) {
	e = e.Str("event", ce.event).
		Str("phase", ce.phase).
		Int64("duration_ms", ce.elapsed.Milliseconds())
	if IsPrettyMode() {
		e = e.Str("duration_h", humanfmt.Duration(ce.elapsed))
	}
	for i, k := range ce.keys {
		e = e.Interface(k, ce.vals[i])
	}
	e.Msg(msg)
}

// Log emits the event at info level.
func (ce *CompletionEvent) Log(msg string) {
	ce.emit(ce.log.Info(), msg)
}

// LogDebug emits the event at debug level.
func (ce *CompletionEvent) LogDebug(msg string) {
	ce.emit(ce.log.Debug(), msg)
}
