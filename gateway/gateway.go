// Package gateway is the typed wrapper over the serial-attached motion
// controller (spec §4.4). It owns the wire protocol and nothing else:
// no planning, no pen logic, no pause bookkeeping. Grounded on
// comboat.go's mutex-guarded device struct and tmc2209/tmc5160's
// RegisterComm interface, with the transport swapped from
// machine.UART/machine.SPI to go.bug.st/serial since the target is a
// host PC driving a serial-attached board, not microcontroller firmware
// (see SPEC_FULL.md Domain Stack).
package gateway

import (
	"bufio"
	"fmt"
	"sync"

	"github.com/inkstep/corexy/internal/perr"
	"github.com/sirupsen/logrus"
)

// Microstep selects the controller's microstepping mode, per the wire
// interface in spec §6: 1 = 16x, 2 = 8x.
type Microstep int

const (
	Microstep16x Microstep = 1
	Microstep8x  Microstep = 2
)

// MotorEnableState reports whether a single motor winding is energized.
type MotorEnableState bool

// Controller is the Gateway of spec §4.4: enable/disable motors at a
// microstepping resolution, query step position, issue timed XY moves,
// and poll the pause button / supply voltage. All writes to the serial
// port go through this type; nothing else in the module touches Port.
type Controller struct {
	mu     sync.Mutex
	port   Port
	reader *bufio.Reader
	log    *logrus.Entry

	ownsPort bool // false when the caller supplied the port; Close() must not close it then

	enabledRes Microstep
	enabled    bool
}

// New wraps an already-open Port. ownsPort controls whether Close()
// closes the underlying port — the core must never close a
// caller-supplied handle (spec §5 "Shared resources").
func New(port Port, ownsPort bool, log *logrus.Entry) *Controller {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Controller{
		port:     port,
		reader:   bufio.NewReader(portReader{port}),
		ownsPort: ownsPort,
		log:      log.WithField("component", "gateway"),
	}
}

// portReader adapts Port.Read to io.Reader for bufio.NewReader.
type portReader struct{ Port }

// EnableMotors energizes both motors at the given microstepping
// resolution. Idempotent: a call that matches the currently-enabled
// resolution is a no-op, per spec §4.4.
func (c *Controller) EnableMotors(res Microstep) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled && c.enabledRes == res {
		c.log.Debug("motors already enabled at requested resolution, skipping")
		return nil
	}
	resp, err := command(c.reader, c.port, fmt.Sprintf("EM,%d,%d", res, res))
	if err != nil {
		return &perr.ConnectionError{Code: perr.CodeLostUSB, Err: err}
	}
	if !isOK(resp) {
		return &perr.ConnectionError{Code: perr.CodeLostUSB, Err: errUnexpected(resp)}
	}
	c.enabled = true
	c.enabledRes = res
	return nil
}

// DisableMotors de-energizes both motors.
func (c *Controller) DisableMotors() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := command(c.reader, c.port, "EM,0,0")
	if err != nil {
		return &perr.ConnectionError{Code: perr.CodeLostUSB, Err: err}
	}
	if !isOK(resp) {
		return &perr.ConnectionError{Code: perr.CodeLostUSB, Err: errUnexpected(resp)}
	}
	c.enabled = false
	return nil
}

// QueryEnableMotors returns the enable state of each motor winding.
func (c *Controller) QueryEnableMotors() (m1, m2 MotorEnableState, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := command(c.reader, c.port, "QE")
	if err != nil {
		return false, false, &perr.ConnectionError{Code: perr.CodeLostUSB, Err: err}
	}
	vals, err := parseCSVInts(resp)
	if err != nil || len(vals) < 2 {
		return false, false, &perr.ConnectionError{Code: perr.CodeLostUSB, Err: errUnexpected(resp)}
	}
	return vals[0] != 0, vals[1] != 0, nil
}

// QuerySteps returns the controller's own step counters for each motor.
// The core only calls this for the manual "walk home" helper (spec §6);
// it never polls step position mid-plot.
func (c *Controller) QuerySteps() (a, b int64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := command(c.reader, c.port, "QS")
	if err != nil {
		return 0, 0, &perr.ConnectionError{Code: perr.CodeLostUSB, Err: err}
	}
	vals, err := parseCSVInts(resp)
	if err != nil || len(vals) < 2 {
		return 0, 0, &perr.ConnectionError{Code: perr.CodeLostUSB, Err: errUnexpected(resp)}
	}
	return vals[0], vals[1], nil
}

// TimedXYMove issues one timed step-batch to the controller: deltaM1 and
// deltaM2 are the signed step counts for each motor over durationMS. A
// move where both deltas are zero is skipped entirely rather than sent,
// per spec §4.4 ("Non-issue when both deltas are zero").
func (c *Controller) TimedXYMove(deltaM1, deltaM2 int32, durationMS int) error {
	if deltaM1 == 0 && deltaM2 == 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := command(c.reader, c.port, fmt.Sprintf("SM,%d,%d,%d", durationMS, deltaM1, deltaM2))
	if err != nil {
		return &perr.ConnectionError{Code: perr.CodeLostUSB, Err: err}
	}
	if !isOK(resp) {
		return &perr.ConnectionError{Code: perr.CodeLostUSB, Err: errUnexpected(resp)}
	}
	return nil
}

// TimedPause issues a duration-only move with zero step deltas, used for
// +d layer delays and programmatic dwells.
func (c *Controller) TimedPause(durationMS int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := command(c.reader, c.port, fmt.Sprintf("SM,%d,0,0", durationMS))
	if err != nil {
		return &perr.ConnectionError{Code: perr.CodeLostUSB, Err: err}
	}
	if !isOK(resp) {
		return &perr.ConnectionError{Code: perr.CodeLostUSB, Err: errUnexpected(resp)}
	}
	return nil
}

// QueryButton reports whether the pause button has been pressed since
// the last query. The latch clears on read, per spec §4.4.
func (c *Controller) QueryButton() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := command(c.reader, c.port, "QB")
	if err != nil {
		return false, &perr.ConnectionError{Code: perr.CodeLostUSB, Err: err}
	}
	vals, err := parseCSVInts(resp)
	if err != nil || len(vals) < 1 {
		return false, &perr.ConnectionError{Code: perr.CodeLostUSB, Err: errUnexpected(resp)}
	}
	return vals[0] != 0, nil
}

// QueryVoltage reports whether the motor power supply is within range.
func (c *Controller) QueryVoltage() (ok bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := command(c.reader, c.port, "QC")
	if err != nil {
		return false, &perr.ConnectionError{Code: perr.CodeLostUSB, Err: err}
	}
	vals, err := parseCSVInts(resp)
	if err != nil || len(vals) < 1 {
		return false, &perr.ConnectionError{Code: perr.CodeLostUSB, Err: errUnexpected(resp)}
	}
	return vals[0] != 0, nil
}

// QueryVersion returns the controller's firmware version string.
func (c *Controller) QueryVersion() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	resp, err := command(c.reader, c.port, "V")
	if err != nil {
		return "", &perr.ConnectionError{Code: perr.CodeConnectFailed, Err: err}
	}
	return resp, nil
}

// Close releases the controller. If the port was supplied by the
// caller (ownsPort == false) it is left open, per spec §5.
func (c *Controller) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.ownsPort {
		return nil
	}
	return c.port.Close()
}

func errUnexpected(resp string) error {
	return fmt.Errorf("unexpected controller response: %q", resp)
}
