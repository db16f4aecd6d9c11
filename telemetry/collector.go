// Package telemetry provides sweep statistics, pass timing, bookmarks,
// snapshots and CSV output for the estimator.
package telemetry

// Collector keeps a rolling history of sweep records and produces windowed
// SweepStats.
type Collector struct {
	history     []SweepRecord
	historySize int
	historyIdx  int
	historyFull bool

	flushEvery int
	sinceFlush int
}

// NewCollector creates a collector retaining historySize sweeps and flushing
// every flushEvery sweeps.
func NewCollector(historySize, flushEvery int) *Collector {
	if historySize < 1 {
		historySize = 1
	}
	if flushEvery < 1 {
		flushEvery = 1
	}
	return &Collector{
		history:     make([]SweepRecord, historySize),
		historySize: historySize,
		flushEvery:  flushEvery,
	}
}

// Record adds a completed sweep.
func (c *Collector) Record(r SweepRecord) {
	c.history[c.historyIdx] = r
	c.historyIdx = (c.historyIdx + 1) % c.historySize
	if c.historyIdx == 0 {
		c.historyFull = true
	}
	c.sinceFlush++
}

// ShouldFlush returns true once flushEvery sweeps were recorded since the
// last Flush.
func (c *Collector) ShouldFlush() bool {
	return c.sinceFlush >= c.flushEvery
}

// Flush summarizes the retained history and restarts the flush countdown.
func (c *Collector) Flush() SweepStats {
	c.sinceFlush = 0
	return Summarize(c.History())
}

// History returns the retained sweeps, oldest first.
func (c *Collector) History() []SweepRecord {
	if !c.historyFull {
		out := make([]SweepRecord, c.historyIdx)
		copy(out, c.history[:c.historyIdx])
		return out
	}
	out := make([]SweepRecord, 0, c.historySize)
	out = append(out, c.history[c.historyIdx:]...)
	return append(out, c.history[:c.historyIdx]...)
}

// Len returns the number of retained sweeps.
func (c *Collector) Len() int {
	if c.historyFull {
		return c.historySize
	}
	return c.historyIdx
}
