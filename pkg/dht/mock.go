package dht

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// MockConfig describes the simulated sensors.
type MockConfig struct {
	Pins        []int
	Interval    time.Duration // firmware publishes every 2.5s
	Temperature float32       // baseline °C
	Humidity    float32       // baseline %RH
	FailingPins []int         // pins that report a read error
}

// Mock simulates a board running the generated firmware.
type Mock struct {
	cfg MockConfig

	readings  chan Reading
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	startTime time.Time
}

// NewMock creates a new mocked device instance.
func NewMock(cfg MockConfig) *Mock {
	if len(cfg.Pins) == 0 {
		cfg.Pins = []int{4}
	}
	if cfg.Interval == 0 {
		cfg.Interval = 2500 * time.Millisecond
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 21.0
	}
	if cfg.Humidity == 0 {
		cfg.Humidity = 45.0
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Mock{
		cfg:      cfg,
		readings: make(chan Reading, DefaultBufferSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Connect simulates connecting to the device.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}

	m.connected = true
	m.startTime = time.Now()

	go m.generateReadings()

	return nil
}

// Close stops the mocked device.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	m.connected = false

	return nil
}

// Readings returns the channel of simulated readings.
func (m *Mock) Readings() <-chan Reading {
	return m.readings
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

func (m *Mock) generateReadings() {
	defer close(m.readings)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case now := <-ticker.C:
			for _, rd := range m.generate(now) {
				select {
				case m.readings <- rd:
				case <-m.ctx.Done():
					return
				default:
					// Channel full, skip
				}
			}
		}
	}
}

// generate produces one telemetry line's worth of readings at now.
func (m *Mock) generate(now time.Time) []Reading {
	m.mu.RLock()
	elapsed := now.Sub(m.startTime).Seconds()
	m.mu.RUnlock()

	out := make([]Reading, 0, len(m.cfg.Pins))
	for i, pin := range m.cfg.Pins {
		if m.failing(pin) {
			out = append(out, Reading{Timestamp: now, Pin: pin, Err: "Error reading temperature"})
			continue
		}
		// Slow drift with a per-pin phase so sensors differ.
		drift := float32(math.Sin(elapsed/60 + float64(i)))
		t := m.cfg.Temperature + drift
		h := m.cfg.Humidity - 2*drift
		out = append(out, Reading{
			Timestamp:   now,
			Pin:         pin,
			Temperature: t,
			Humidity:    h,
			HeatIndex:   t,
		})
	}
	return out
}

func (m *Mock) failing(pin int) bool {
	for _, p := range m.cfg.FailingPins {
		if p == pin {
			return true
		}
	}
	return false
}
