// Package warn implements the deduplicated Warning Collector the
// orchestrator accumulates during a plot: repeated instances of the
// same warning kind (e.g. "a point clamped to the page bounds") are
// recorded once, then reported as a single summary line. Grounded on
// axidraw.py's warnings.add_new/return_text_list calls and generalized
// from comboat.go's logDebug/logError pair into a typed collector
// instead of two free functions.
package warn

import "fmt"

// Kind identifies a class of recoverable condition encountered while
// plotting. Each Kind is counted, not just recorded as a boolean, so
// the summary can report how many times it happened.
type Kind string

const (
	// Bounds fires when a destination point is clamped to the page's
	// travel limits (spec §4.6, checkLimitsTol in the reference driver).
	Bounds Kind = "bounds"
	// Voltage fires when the motor power supply could not be confirmed
	// present.
	Voltage Kind = "voltage"
	// Overspeed names the case where the rate-limit correction pass had
	// to extend a move's duration to stay under the controller's
	// step-rate ceiling. The executor's correction pass does not report
	// to a Collector, so nothing in this module adds this Kind.
	Overspeed Kind = "overspeed"
)

var messages = map[Kind]string{
	Bounds:    "one or more points were outside the page bounds and have been clamped",
	Voltage:   "motor power supply was not detected; pen-down moves may stall",
	Overspeed: "some moves were slowed to stay under the controller's maximum step rate",
}

// Collector accumulates warnings by Kind, recording only the count.
type Collector struct {
	counts map[Kind]int
	order  []Kind // first-seen order, so Summary output is stable
}

// New returns an empty Collector.
func New() *Collector {
	return &Collector{counts: make(map[Kind]int)}
}

// Add records one occurrence of kind.
func (c *Collector) Add(kind Kind) {
	if c.counts == nil {
		c.counts = make(map[Kind]int)
	}
	if c.counts[kind] == 0 {
		c.order = append(c.order, kind)
	}
	c.counts[kind]++
}

// Count returns how many times kind was recorded.
func (c *Collector) Count(kind Kind) int {
	return c.counts[kind]
}

// Empty reports whether no warnings were recorded.
func (c *Collector) Empty() bool {
	return len(c.order) == 0
}

// Summary returns one human-readable line per distinct warning kind
// seen, in the order each was first encountered.
func (c *Collector) Summary() []string {
	out := make([]string, 0, len(c.order))
	for _, k := range c.order {
		msg, ok := messages[k]
		if !ok {
			msg = string(k)
		}
		n := c.counts[k]
		if n > 1 {
			out = append(out, fmt.Sprintf("%s (x%d)", msg, n))
		} else {
			out = append(out, msg)
		}
	}
	return out
}
