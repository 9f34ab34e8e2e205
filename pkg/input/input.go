// Package input connects MIDI sources to a message processor
package input

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

var (
	// ErrNoPorts is returned when no MIDI input is available
	ErrNoPorts = errors.New("no MIDI input ports")
	// ErrPortNotFound is returned when no input matches the requested name
	ErrPortNotFound = errors.New("MIDI input port not found")
)

// Processor consumes one raw MIDI message at a time
type Processor interface {
	Process(raw []byte)
}

// Port describes an available MIDI input
type Port struct {
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// Ports lists the MIDI inputs of the registered driver. The binary
// registers the driver by importing it.
func Ports() []Port {
	return portsOf(midi.GetInPorts())
}

func portsOf(ins []drivers.In) []Port {
	ports := make([]Port, len(ins))
	for i, in := range ins {
		ports[i] = Port{Number: in.Number(), Name: in.String()}
	}
	return ports
}

// Match picks the port for want: an exact port number, an exact name, or
// the first name containing want, ignoring case. An empty want picks the
// first port.
func Match(ports []Port, want string) (Port, error) {
	if len(ports) == 0 {
		return Port{}, ErrNoPorts
	}
	if want == "" {
		return ports[0], nil
	}
	if n, err := strconv.Atoi(want); err == nil {
		for _, p := range ports {
			if p.Number == n {
				return p, nil
			}
		}
	}
	for _, p := range ports {
		if p.Name == want {
			return p, nil
		}
	}
	lw := strings.ToLower(want)
	for _, p := range ports {
		if strings.Contains(strings.ToLower(p.Name), lw) {
			return p, nil
		}
	}
	return Port{}, fmt.Errorf("%w: %q", ErrPortNotFound, want)
}

// Listener forwards messages from one MIDI input to a Processor
type Listener struct {
	mu     sync.Mutex
	port   Port
	in     drivers.In
	stop   func()
	logger *slog.Logger
}

// Listen opens the input matching want and feeds every message to p
func Listen(want string, p Processor, logger *slog.Logger) (*Listener, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ins := midi.GetInPorts()
	port, err := Match(portsOf(ins), want)
	if err != nil {
		return nil, err
	}

	var in drivers.In
	for _, candidate := range ins {
		if candidate.Number() == port.Number {
			in = candidate
			break
		}
	}
	if in == nil {
		return nil, fmt.Errorf("%w: %q", ErrPortNotFound, port.Name)
	}

	if err := in.Open(); err != nil {
		return nil, fmt.Errorf("open %q: %w", port.Name, err)
	}

	l := &Listener{port: port, in: in, logger: logger}

	stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
		p.Process(msg)
	}, midi.HandleError(func(listenErr error) {
		logger.Warn("midi: listener error", "device", port.Name, "err", listenErr)
	}))
	if err != nil {
		_ = in.Close()
		return nil, fmt.Errorf("listen %q: %w", port.Name, err)
	}
	l.stop = stop

	logger.Info("midi: connected", "device", port.Name)
	return l, nil
}

// Port returns the input being listened to
func (l *Listener) Port() Port {
	return l.port
}

// Close stops listening and closes the input
func (l *Listener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stop != nil {
		l.stop()
		l.stop = nil
	}
	if l.in == nil {
		return nil
	}
	err := l.in.Close()
	l.in = nil
	l.logger.Info("midi: disconnected", "device", l.port.Name)
	return err
}

// CloseDriver releases the MIDI driver. Call once at exit.
func CloseDriver() {
	midi.CloseDriver()
}
