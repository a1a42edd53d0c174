// Package plot implements the Plot Orchestrator (spec §4.8): it walks a
// document's layers and paths, drives the planner/executor/pen/gateway
// packages for each, and owns the layer-name escape grammar and manual
// diagnostic modes. Grounded on axidraw.py's plot_document/plot_polyline
// main loop and eval_layer_properties' escape-code scanner.
package plot

import (
	"strconv"
	"strings"
)

// OverrideKind identifies which per-layer property an escape code sets.
type OverrideKind byte

const (
	// OverrideHeight sets a temporary pen-down height ("+h").
	OverrideHeight OverrideKind = 'h'
	// OverrideSpeed sets a temporary pen-down speed, as a percentage of
	// the configured pen-down speed ("+s").
	OverrideSpeed OverrideKind = 's'
	// OverrideDelay requests a dwell of the given duration in ms ("+d").
	OverrideDelay OverrideKind = 'd'
)

// Override is one "+<letter><digits>" escape found in a layer name.
type Override struct {
	Kind  OverrideKind
	Value int
}

// LayerDirective is the result of parsing one layer name for its
// encoded commands, per the grammar documented at
// https://wiki.evilmadscientist.com/AxiDraw_Layer_Control (see
// original_source's eval_layer_properties):
//
//	["!"] [digits] {"+" ("h"|"s"|"d") digits}
//
// scanned left-to-right. A leading "!" marks the layer as a
// programmatic pause point; leading digits (if present) are this
// layer's plot-order number; any number of "+h"/"+s"/"+d" escapes may
// follow, each applying in the order written.
type LayerDirective struct {
	Pause     bool
	Number    *int
	Overrides []Override
}

// ParseLayerName scans name for the escape grammar. It is lenient:
// unrecognized trailing text, malformed escape parameters, and
// whitespace between tokens are all tolerated rather than rejected —
// the original driver accepts hand-edited layer names and simply
// ignores what it can't parse, and a ConfigError here would be overly
// strict for the same reason.
func ParseLayerName(name string) LayerDirective {
	var d LayerDirective
	s := strings.TrimLeft(name, " \t")

	if strings.HasPrefix(s, "!") {
		d.Pause = true
		s = s[1:]
	}

	digitEnd := 0
	for digitEnd < len(s) && isDigit(s[digitEnd]) {
		digitEnd++
	}
	if digitEnd > 0 {
		if n, err := strconv.Atoi(s[:digitEnd]); err == nil {
			d.Number = &n
		}
		s = s[digitEnd:]
	}

	for {
		s = strings.TrimLeft(s, " \t")
		if len(s) < 2 || s[0] != '+' {
			break
		}
		kind := OverrideKind(lower(s[1]))
		if kind != OverrideHeight && kind != OverrideSpeed && kind != OverrideDelay {
			break
		}
		rest := s[2:]
		numEnd := 0
		for numEnd < len(rest) && isDigit(rest[numEnd]) {
			numEnd++
		}
		if numEnd == 0 {
			break // "+h" with no digits following is not a valid escape; stop scanning
		}
		v, err := strconv.Atoi(rest[:numEnd])
		if err != nil {
			break
		}
		d.Overrides = append(d.Overrides, Override{Kind: kind, Value: v})
		s = rest[numEnd:]
	}

	return d
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func lower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}
