package agent

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// Bus is the adapter link the collector polls. Covered by an in-memory fake
// in tests.
type Bus interface {
	// Request sends one command and returns the adapter's response line.
	Request(cmd string) (string, error)
	Close() error
}

// SerialBus talks to an ELM327-style adapter over a serial port.
type SerialBus struct {
	port   io.ReadWriteCloser
	reader *bufio.Reader
}

// OpenSerialBus opens the port and resets the adapter.
func OpenSerialBus(device string, baud int) (*SerialBus, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: 2 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("bus: open %s: %w", device, err)
	}

	bus := &SerialBus{port: port, reader: bufio.NewReader(port)}

	// ATZ resets, ATE0 disables command echo, ATL0 drops linefeeds. Init
	// responses are discarded.
	for _, cmd := range []string{"ATZ", "ATE0", "ATL0"} {
		if _, err := bus.Request(cmd); err != nil {
			port.Close()
			return nil, fmt.Errorf("bus: init %s: %w", cmd, err)
		}
	}

	return bus, nil
}

// Request writes cmd and reads up to the adapter's ">" prompt, returning the
// response with prompt and blank lines stripped.
func (b *SerialBus) Request(cmd string) (string, error) {
	if _, err := b.port.Write([]byte(cmd + "\r")); err != nil {
		return "", fmt.Errorf("bus: write %q: %w", cmd, err)
	}

	raw, err := b.reader.ReadString('>')
	if err != nil && raw == "" {
		return "", fmt.Errorf("bus: read response to %q: %w", cmd, err)
	}

	for _, line := range strings.Split(raw, "\r") {
		line = strings.TrimSpace(strings.TrimSuffix(line, ">"))
		if line == "" || line == cmd {
			continue
		}
		return line, nil
	}
	return "", nil
}

// Close releases the port.
func (b *SerialBus) Close() error {
	return b.port.Close()
}
