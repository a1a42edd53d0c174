// Package checkpoint implements Progress Persistence (spec §4.9): the
// scalar field set a plot's progress is saved to and restored from,
// stored in an abstract document attribute node so the core has no
// dependency on any particular document format. Grounded on
// axidraw.py's read_plotdata/update_plotdata (the custom "plotdata"
// XML element) and comboat/errors.go's tolerant-parsing shape: required
// fields fail the whole read together, optional fields fail silently
// and keep their defaults.
package checkpoint

import (
	"strconv"
)

// Node is the minimal document-attribute surface this package depends
// on. A real caller adapts its document format (SVG attributes, a JSON
// sidecar, etc.) to this interface; GetAttr returns ok=false when the
// attribute is absent.
type Node interface {
	GetAttr(key string) (value string, ok bool)
	SetAttr(key, value string)
}

// Progress is the full scalar checkpoint record (spec §4.9).
type Progress struct {
	Layer         int
	Node          int
	LastPath      int
	NodeAfterPath int
	LastKnownX    float64
	LastKnownY    float64
	PausedX       float64
	PausedY       float64
	RandSeed      int64

	// Row is optional: plots that don't use row-based layer iteration
	// leave it at zero.
	Row int

	Application string
	Model       string
	PlobVersion string
}

const applicationName = "corexyplot"

// required fields, in the order read_plotdata parses them. If any one
// fails to parse, the whole checkpoint is discarded rather than
// producing a partially-valid resume point.
var requiredKeys = []string{
	"layer", "node", "last_path", "node_after_path",
	"last_known_x", "last_known_y", "paused_x", "paused_y",
}

// Read loads a Progress record from n. ok is false if any required
// field is missing or fails to parse — mirroring read_plotdata's
// TypeError handling, which discards the whole record rather than
// resuming from a partially-known state. Optional fields (row,
// randseed) are parsed independently and left at their zero value on
// failure.
func Read(n Node) (p Progress, ok bool) {
	for _, key := range requiredKeys {
		if _, present := n.GetAttr(key); !present {
			return Progress{}, false
		}
	}

	var err error
	if p.Layer, err = getInt(n, "layer"); err != nil {
		return Progress{}, false
	}
	if p.Node, err = getInt(n, "node"); err != nil {
		return Progress{}, false
	}
	if p.LastPath, err = getInt(n, "last_path"); err != nil {
		return Progress{}, false
	}
	if p.NodeAfterPath, err = getInt(n, "node_after_path"); err != nil {
		return Progress{}, false
	}
	if p.LastKnownX, err = getFloat(n, "last_known_x"); err != nil {
		return Progress{}, false
	}
	if p.LastKnownY, err = getFloat(n, "last_known_y"); err != nil {
		return Progress{}, false
	}
	if p.PausedX, err = getFloat(n, "paused_x"); err != nil {
		return Progress{}, false
	}
	if p.PausedY, err = getFloat(n, "paused_y"); err != nil {
		return Progress{}, false
	}

	if v, present := n.GetAttr("application"); present {
		p.Application = v
	}
	if v, present := n.GetAttr("model"); present {
		p.Model = v
	}
	if v, present := n.GetAttr("plob_version"); present {
		p.PlobVersion = v
	}

	// Optional fields: failures are silently ignored, leaving the
	// zero value, per the original's separate try/except TypeError
	// blocks for row and randseed.
	if row, err := getInt(n, "row"); err == nil {
		p.Row = row
	}
	if seed, err := getInt64(n, "randseed"); err == nil {
		p.RandSeed = seed
	}

	return p, true
}

// Write persists p to n, stamping the application/model/version fields
// the way update_plotdata does.
func Write(n Node, p Progress, model, plobVersion string) {
	n.SetAttr("application", applicationName)
	n.SetAttr("model", model)
	if plobVersion != "" {
		n.SetAttr("plob_version", plobVersion)
	} else if p.PlobVersion != "" {
		n.SetAttr("plob_version", p.PlobVersion)
	}
	n.SetAttr("layer", strconv.Itoa(p.Layer))
	n.SetAttr("node", strconv.Itoa(p.Node))
	n.SetAttr("last_path", strconv.Itoa(p.LastPath))
	n.SetAttr("node_after_path", strconv.Itoa(p.NodeAfterPath))
	n.SetAttr("last_known_x", strconv.FormatFloat(p.LastKnownX, 'f', -1, 64))
	n.SetAttr("last_known_y", strconv.FormatFloat(p.LastKnownY, 'f', -1, 64))
	n.SetAttr("paused_x", strconv.FormatFloat(p.PausedX, 'f', -1, 64))
	n.SetAttr("paused_y", strconv.FormatFloat(p.PausedY, 'f', -1, 64))
	n.SetAttr("randseed", strconv.FormatInt(p.RandSeed, 10))
	n.SetAttr("row", strconv.Itoa(p.Row))
}

func getInt(n Node, key string) (int, error) {
	v, _ := n.GetAttr(key)
	return strconv.Atoi(v)
}

func getInt64(n Node, key string) (int64, error) {
	v, _ := n.GetAttr(key)
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func getFloat(n Node, key string) (float64, error) {
	v, _ := n.GetAttr(key)
	return strconv.ParseFloat(v, 64)
}
