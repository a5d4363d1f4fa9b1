package dht

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/itohio/dhtfw/pkg/logger"
)

const (
	// DefaultBaudRate matches the firmware's default Serial.begin speed.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the readings channel buffer.
	DefaultBufferSize = 100
)

// Reading is one sensor's entry from a telemetry line. Err is set instead of
// the measurements when the firmware reported a read error for the pin.
type Reading struct {
	Timestamp   time.Time
	Pin         int
	Temperature float32 // °C
	Humidity    float32 // %RH
	HeatIndex   float32 // °C
	Err         string
}

// OK reports whether the reading carries measurements.
func (r Reading) OK() bool {
	return r.Err == ""
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial reads telemetry from a board running the generated firmware.
type Serial struct {
	port     string
	baudRate int
	bufSize  int
	log      logger.Logger

	conn      serial.Port
	readings  chan Reading
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial instance with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int, log logger.Logger) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}
	if log == nil {
		log = logger.Discard()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		log:      log,
		readings: make(chan Reading, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	names, err := PortNames()
	if err != nil {
		return nil, err
	}

	result := make([]Port, 0, len(names))
	for _, name := range names {
		desc := name
		if p, err := serial.Open(name, &serial.Mode{BaudRate: DefaultBaudRate}); err == nil {
			p.Close()
		} else {
			desc = name + " (busy)"
		}
		result = append(result, Port{Name: name, Description: desc})
	}

	return result, nil
}

// PortNames returns the names of the serial ports present, without opening them.
func PortNames() ([]string, error) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}
	return names, nil
}

// Connect opens the serial port and starts reading telemetry.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readLoop(port)

	return nil
}

// Close closes the connection and stops reading.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			d.log.Warn("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	return nil
}

// Readings returns the channel of parsed readings. It is closed when the
// port is closed or reaches EOF.
func (d *Serial) Readings() <-chan Reading {
	return d.readings
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

func (d *Serial) readLoop(r io.Reader) {
	defer close(d.readings)
	scan(d.ctx, r, d.readings, d.log)
}

// scan parses telemetry lines from r into out until EOF or ctx is done.
// Unparseable lines are logged and skipped; readings are dropped when out is full.
func scan(ctx context.Context, r io.Reader, out chan<- Reading, log logger.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		readings, err := ParseLine(line, time.Now())
		if err != nil {
			log.Debug("Failed to parse line '%s': %v", line, err)
			continue
		}

		for _, rd := range readings {
			select {
			case out <- rd:
			case <-ctx.Done():
				return
			default:
				log.Warn("Readings channel full, dropping reading for pin %d", rd.Pin)
			}
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Error("Error reading from serial port: %v", err)
	}
}

type wireReading struct {
	T  *float32 `json:"t"`
	H  *float32 `json:"h"`
	HI *float32 `json:"hi"`
	E  *string  `json:"e"`
}

// ParseLine parses one telemetry line into readings sorted by pin.
// Format: {"<pin>":{"t":<°C>,"h":<%>,"hi":<°C>},"<pin>":{"e":"<message>"}}
// Example: {"4":{"t":21.5,"h":40.1,"hi":20.9},"5":{"e":"Error reading temperature"}}
func ParseLine(line string, ts time.Time) ([]Reading, error) {
	var msg map[string]wireReading
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return nil, fmt.Errorf("invalid telemetry line: %w", err)
	}
	if len(msg) == 0 {
		return nil, fmt.Errorf("empty telemetry line")
	}

	readings := make([]Reading, 0, len(msg))
	for key, w := range msg {
		pin, err := strconv.Atoi(key)
		if err != nil || pin < 0 {
			return nil, fmt.Errorf("invalid pin %q", key)
		}

		rd := Reading{Timestamp: ts, Pin: pin}
		switch {
		case w.E != nil:
			rd.Err = *w.E
		case w.T != nil && w.H != nil:
			rd.Temperature = *w.T
			rd.Humidity = *w.H
			if w.HI != nil {
				rd.HeatIndex = *w.HI
			}
		default:
			return nil, fmt.Errorf("pin %d: missing measurements", pin)
		}
		readings = append(readings, rd)
	}

	sort.Slice(readings, func(i, j int) bool { return readings[i].Pin < readings[j].Pin })
	return readings, nil
}
