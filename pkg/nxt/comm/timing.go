package comm

import (
	"sort"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

// Tracker flush thresholds.
const (
	DefaultFlushSamples = 20
	DefaultFlushCycles  = 30
)

// MinimumWaitFloor is the wait used for commands without statistics.
const MinimumWaitFloor = 100 * time.Microsecond

// CommandStat is the latency statistics of a single command code.
type CommandStat struct {
	Code          byte
	Count         uint64
	TotalMicros   uint64
	AverageMicros uint64
	MinimumMicros uint64
}

func (s CommandStat) merge(o CommandStat) CommandStat {
	if s.Count == 0 {
		return o
	}
	if o.Count == 0 {
		return s
	}
	s.Count += o.Count
	s.TotalMicros += o.TotalMicros
	s.AverageMicros = s.TotalMicros / s.Count
	if o.MinimumMicros < s.MinimumMicros {
		s.MinimumMicros = o.MinimumMicros
	}
	return s
}

// Minimum returns the minimum latency as a duration.
func (s CommandStat) Minimum() time.Duration {
	return time.Duration(s.MinimumMicros) * time.Microsecond
}

// Average returns the average latency as a duration.
func (s CommandStat) Average() time.Duration {
	return time.Duration(s.AverageMicros) * time.Microsecond
}

// Tracker aggregates per-command reply latencies. Samples are collected
// and merged into the published table every FlushSamples samples or
// FlushCycles processing cycles, whichever comes first.
type Tracker struct {
	FlushSamples int
	FlushCycles  int
	// OnFlush receives the full table after each flush. It's invoked
	// synchronously and must not block.
	OnFlush func([]CommandStat)

	stats *xsync.MapOf[byte, CommandStat]

	lock    sync.Mutex
	pending map[byte]CommandStat
	samples int
	cycles  int
}

// NewTracker creates a Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		FlushSamples: DefaultFlushSamples,
		FlushCycles:  DefaultFlushCycles,
		stats:        xsync.NewMapOf[byte, CommandStat](),
		pending:      make(map[byte]CommandStat),
	}
}

// Load seeds the published table, e.g. from persisted state.
func (t *Tracker) Load(stats []CommandStat) {
	for _, s := range stats {
		if s.Count == 0 {
			continue
		}
		if s.AverageMicros == 0 {
			s.AverageMicros = s.TotalMicros / s.Count
		}
		t.stats.Store(s.Code, s)
	}
}

// Record adds a latency sample of a command code.
func (t *Tracker) Record(code byte, latency time.Duration) {
	us := uint64(latency / time.Microsecond)
	t.lock.Lock()
	s := t.pending[code]
	s = s.merge(CommandStat{Code: code, Count: 1, TotalMicros: us, AverageMicros: us, MinimumMicros: us})
	t.pending[code] = s
	t.samples++
	flush := t.samples >= t.FlushSamples
	t.lock.Unlock()
	if flush {
		t.Flush()
	}
}

// Cycle counts a processing cycle. Cycles count from the first sample
// pending a flush.
func (t *Tracker) Cycle() {
	t.lock.Lock()
	if t.samples > 0 {
		t.cycles++
	}
	flush := t.samples > 0 && t.cycles >= t.FlushCycles
	t.lock.Unlock()
	if flush {
		t.Flush()
	}
}

// Flush merges collected samples into the published table.
func (t *Tracker) Flush() {
	t.lock.Lock()
	pending := t.pending
	t.pending = make(map[byte]CommandStat)
	t.samples, t.cycles = 0, 0
	t.lock.Unlock()
	if len(pending) == 0 {
		return
	}
	for code, s := range pending {
		t.stats.Compute(code, func(old CommandStat, loaded bool) (CommandStat, bool) {
			return old.merge(s), false
		})
	}
	if fn := t.OnFlush; fn != nil {
		fn(t.Snapshot())
	}
}

// Stat returns the statistics of a command code, including samples not
// yet flushed.
func (t *Tracker) Stat(code byte) (CommandStat, bool) {
	s, _ := t.stats.Load(code)
	t.lock.Lock()
	s = s.merge(t.pending[code])
	t.lock.Unlock()
	return s, s.Count > 0
}

// Snapshot returns the published table ordered by code.
func (t *Tracker) Snapshot() []CommandStat {
	var stats []CommandStat
	t.stats.Range(func(_ byte, s CommandStat) bool {
		stats = append(stats, s)
		return true
	})
	sort.Slice(stats, func(i, j int) bool { return stats[i].Code < stats[j].Code })
	return stats
}

// MinimumWait returns how long to wait before the first poll for a
// reply of the command code.
func (t *Tracker) MinimumWait(code byte) time.Duration {
	s, ok := t.Stat(code)
	if !ok {
		return MinimumWaitFloor
	}
	return AdaptiveWait(s.Minimum())
}

// AdaptiveWait subtracts a safety margin from the observed minimum
// latency: 0.5ms below 5ms, 1ms below 20ms, 5ms otherwise.
func AdaptiveWait(minimum time.Duration) time.Duration {
	var margin time.Duration
	switch {
	case minimum < 5*time.Millisecond:
		margin = 500 * time.Microsecond
	case minimum < 20*time.Millisecond:
		margin = time.Millisecond
	default:
		margin = 5 * time.Millisecond
	}
	if wait := minimum - margin; wait > MinimumWaitFloor {
		return wait
	}
	return MinimumWaitFloor
}
