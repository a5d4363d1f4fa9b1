package dht

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMock_Defaults(t *testing.T) {
	m := NewMock(MockConfig{})
	assert.Equal(t, []int{4}, m.cfg.Pins)
	assert.Equal(t, 2500*time.Millisecond, m.cfg.Interval)
	assert.False(t, m.IsConnected())
}

func TestMock_Generate(t *testing.T) {
	m := NewMock(MockConfig{Pins: []int{4, 5, 6}, FailingPins: []int{5}, Temperature: 20, Humidity: 50})
	m.startTime = time.Now()

	got := m.generate(m.startTime)
	require.Len(t, got, 3)

	assert.Equal(t, 4, got[0].Pin)
	assert.True(t, got[0].OK())
	assert.InDelta(t, 20, got[0].Temperature, 1.01)
	assert.InDelta(t, 50, got[0].Humidity, 2.01)

	assert.Equal(t, 5, got[1].Pin)
	assert.False(t, got[1].OK())

	assert.Equal(t, 6, got[2].Pin)
	assert.True(t, got[2].OK())
}

func TestMock_ConnectStreamsAndClose(t *testing.T) {
	m := NewMock(MockConfig{Pins: []int{4}, Interval: 5 * time.Millisecond})

	require.NoError(t, m.Connect())
	assert.True(t, m.IsConnected())
	assert.Error(t, m.Connect())

	select {
	case rd := <-m.Readings():
		assert.Equal(t, 4, rd.Pin)
	case <-time.After(time.Second):
		t.Fatal("no reading from mock")
	}

	require.NoError(t, m.Close())
	assert.False(t, m.IsConnected())

	// Channel is closed once the generator exits.
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-m.Readings():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("readings channel not closed")
		}
	}
}
