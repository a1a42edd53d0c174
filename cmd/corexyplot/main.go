// Command corexyplot drives a CoreXY pen plotter from a pre-flattened
// document digest. SVG ingestion and path flattening are outside this
// module's scope (see document.DocumentDigest's doc comment); this
// entrypoint reads the digest already expressed as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/inkstep/corexy/checkpoint"
	"github.com/inkstep/corexy/config"
	"github.com/inkstep/corexy/document"
	"github.com/inkstep/corexy/gateway"
	"github.com/inkstep/corexy/pen"
	"github.com/inkstep/corexy/plot"
)

var (
	log = logrus.New()

	flagDocPath string
)

func main() {
	root := &cobra.Command{
		Use:   "corexyplot",
		Short: "Drive a CoreXY pen plotter over a serial connection",
		RunE:  run,
	}
	config.BindFlags(root)
	root.Flags().StringVar(&flagDocPath, "doc", "", "path to a JSON document digest (document.DocumentDigest)")

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("corexyplot failed")
	}
}

func run(cmd *cobra.Command, args []string) error {
	opts, portPath, err := config.FromFlags()
	if err != nil {
		return err
	}
	if portPath == "" {
		return fmt.Errorf("--port is required")
	}

	// Step 1: open the transport.
	port, err := serial.Open(portPath, &serial.Mode{BaudRate: 9600})
	if err != nil {
		return fmt.Errorf("opening %s: %w", portPath, err)
	}
	defer port.Close()

	// Step 2: bind the wire protocol on top of it. corexyplot opens and
	// closes the port itself (ownsPort=false), since it is also the
	// caller that deferred port.Close() above.
	gw := gateway.New(port, false, log.WithField("port", portPath))
	if err := gw.EnableMotors(gatewayResolution(opts)); err != nil {
		return err
	}

	// Step 3: construct the pen, backed by the same gateway connection.
	p := pen.New(servoAdapter{gw}, opts.PenUpHeight, opts.PenDownHeight)

	switch opts.Mode {
	case "align":
		return plot.AlignMode(gw)
	case "toggle":
		plot.ToggleMode(p)
		return nil
	case "cycle":
		plot.CycleMode(p)
		return nil
	}

	if flagDocPath == "" {
		return fmt.Errorf("--doc is required for mode %q", opts.Mode)
	}
	doc, err := loadDigest(flagDocPath)
	if err != nil {
		return err
	}
	sidecar := flagDocPath + ".progress.json"

	// Step 4: instantiate the orchestrator that ties it all together.
	orch := plot.New(gw, p, opts, log.WithField("component", "plot"))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		log.Warn("interrupt received, stopping at the next node boundary")
		orch.Resume().RequestInterrupt()
	}()

	var resumeFrom checkpoint.Progress
	resuming := opts.Mode == "res_plot" || opts.Mode == "res_home"
	if resuming {
		node, err := loadSidecar(sidecar)
		if err != nil {
			return fmt.Errorf("loading resume state from %s: %w", sidecar, err)
		}
		progress, ok := checkpoint.Read(node)
		if !ok {
			return fmt.Errorf("%s has no resumable checkpoint", sidecar)
		}
		resumeFrom = progress
	}

	stats, plotErr := orch.Plot(doc, resumeFrom, resuming)
	log.WithFields(logrus.Fields{
		"nodes_plotted":     stats.NodesPlotted,
		"layers_plotted":    stats.LayersPlotted,
		"distance_pen_down": stats.DistancePenDown,
		"distance_pen_up":   stats.DistancePenUp,
	}).Info("plot finished")

	for _, w := range orch.Warnings().Summary() {
		log.Warn(w)
	}

	node := jsonNode{}
	progress := checkpoint.Progress{}
	if plotErr != nil {
		progress = orch.PausedProgress()
	}
	checkpoint.Write(node, progress, opts.Model, "")
	if err := saveSidecar(sidecar, node); err != nil {
		log.WithError(err).Warn("failed to persist resume checkpoint")
	}

	if plotErr != nil {
		log.WithError(plotErr).Warn("plot did not reach the end of the document")
		return plotErr
	}
	return nil
}

// servoAdapter satisfies pen.Servo by issuing a timed, zero-travel move
// whose duration approximates the servo's settle time. The requested
// height is not sent to the controller: SetHeight issues only this
// dwell and returns its duration.
type servoAdapter struct {
	gw *gateway.Controller
}

const servoSettleMS = 200

func (s servoAdapter) SetHeight(h pen.Height) int {
	_ = s.gw.TimedPause(servoSettleMS)
	return servoSettleMS
}

func gatewayResolution(opts config.Options) gateway.Microstep {
	if opts.Resolution == 1 {
		return gateway.Microstep8x
	}
	return gateway.Microstep16x
}

func loadDigest(path string) (document.DocumentDigest, error) {
	f, err := os.Open(path)
	if err != nil {
		return document.DocumentDigest{}, err
	}
	defer f.Close()

	var doc document.DocumentDigest
	if err := json.NewDecoder(f).Decode(&doc); err != nil {
		return document.DocumentDigest{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return doc, nil
}

// jsonNode adapts a flat string map to checkpoint.Node; it is the
// in-memory form of the ".progress.json" sidecar file that stands in
// for a real document's own attribute storage (see document.go's
// ingestion-boundary comment).
type jsonNode map[string]string

func (n jsonNode) GetAttr(key string) (string, bool) { v, ok := n[key]; return v, ok }
func (n jsonNode) SetAttr(key, value string)         { n[key] = value }

func loadSidecar(path string) (jsonNode, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	n := jsonNode{}
	if err := json.Unmarshal(b, &n); err != nil {
		return nil, err
	}
	return n, nil
}

func saveSidecar(path string, n jsonNode) error {
	b, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
