package warn

import "testing"

func TestAddDeduplicatesAndCounts(t *testing.T) {
	c := New()
	c.Add(Bounds)
	c.Add(Bounds)
	c.Add(Voltage)

	if c.Count(Bounds) != 2 {
		t.Errorf("Count(Bounds) = %d, want 2", c.Count(Bounds))
	}
	if c.Count(Voltage) != 1 {
		t.Errorf("Count(Voltage) = %d, want 1", c.Count(Voltage))
	}

	summary := c.Summary()
	if len(summary) != 2 {
		t.Fatalf("Summary() returned %d lines, want 2 (one per distinct kind)", len(summary))
	}
	if summary[0] != messages[Bounds]+" (x2)" {
		t.Errorf("Summary()[0] = %q, want repeated-count suffix", summary[0])
	}
	if summary[1] != messages[Voltage] {
		t.Errorf("Summary()[1] = %q, want no count suffix for a single occurrence", summary[1])
	}
}

func TestEmptyCollector(t *testing.T) {
	c := New()
	if !c.Empty() {
		t.Error("new Collector should be Empty")
	}
	if len(c.Summary()) != 0 {
		t.Error("Summary() on an empty Collector should be empty")
	}
}

func TestZeroValueCollectorIsUsable(t *testing.T) {
	var c Collector
	c.Add(Bounds)
	if c.Count(Bounds) != 1 {
		t.Error("zero-value Collector should lazily initialize its map on Add")
	}
}
