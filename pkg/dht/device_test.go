package dht

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/itohio/dhtfw/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	ts := time.Unix(1700000000, 0)

	tests := []struct {
		name    string
		line    string
		want    []Reading
		wantErr bool
	}{
		{
			name: "single sensor",
			line: `{"4":{"t":21.5,"h":40.25,"hi":20.875}}`,
			want: []Reading{
				{Timestamp: ts, Pin: 4, Temperature: 21.5, Humidity: 40.25, HeatIndex: 20.875},
			},
		},
		{
			name: "sorted by pin with error entry",
			line: `{"12":{"e":"Error reading temperature"},"3":{"t":-4,"h":80,"hi":-5}}`,
			want: []Reading{
				{Timestamp: ts, Pin: 3, Temperature: -4, Humidity: 80, HeatIndex: -5},
				{Timestamp: ts, Pin: 12, Err: "Error reading temperature"},
			},
		},
		{
			name: "heat index optional",
			line: `{"4":{"t":21,"h":40}}`,
			want: []Reading{
				{Timestamp: ts, Pin: 4, Temperature: 21, Humidity: 40},
			},
		},
		{
			name:    "invalid - not json",
			line:    "DHT22 ready",
			wantErr: true,
		},
		{
			name:    "invalid - empty object",
			line:    "{}",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric pin",
			line:    `{"A0":{"t":21,"h":40,"hi":20}}`,
			wantErr: true,
		},
		{
			name:    "invalid - missing humidity",
			line:    `{"4":{"t":21}}`,
			wantErr: true,
		},
		{
			name:    "invalid - wrong type",
			line:    `{"4":{"t":"hot","h":40}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line, ts)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReading_OK(t *testing.T) {
	assert.True(t, Reading{Pin: 4, Temperature: 20}.OK())
	assert.False(t, Reading{Pin: 4, Err: "Unknown sensor"}.OK())
}

func TestScan(t *testing.T) {
	input := strings.Join([]string{
		"booting",
		`{"4":{"t":21.5,"h":40,"hi":21}}`,
		"",
		`{"4":{"t":22,"h":41,"hi":22},"5":{"e":"Unknown sensor"}}`,
	}, "\r\n")

	out := make(chan Reading, 10)
	scan(context.Background(), strings.NewReader(input), out, logger.Discard())
	close(out)

	var got []Reading
	for rd := range out {
		got = append(got, rd)
	}

	require.Len(t, got, 3)
	assert.Equal(t, float32(21.5), got[0].Temperature)
	assert.Equal(t, float32(22), got[1].Temperature)
	assert.Equal(t, 5, got[2].Pin)
	assert.False(t, got[2].OK())
}

func TestScan_DropsWhenFull(t *testing.T) {
	input := `{"4":{"t":1,"h":1}}` + "\n" + `{"4":{"t":2,"h":2}}` + "\n"

	out := make(chan Reading, 1)
	scan(context.Background(), strings.NewReader(input), out, logger.Discard())

	require.Len(t, out, 1)
	assert.Equal(t, float32(1), (<-out).Temperature)
}

func TestNew(t *testing.T) {
	dev := New("/dev/ttyACM0", 9600, 10, nil)
	assert.NotNil(t, dev)
	assert.Equal(t, "/dev/ttyACM0", dev.port)
	assert.Equal(t, 9600, dev.baudRate)
	assert.Equal(t, 10, dev.bufSize)
	assert.NotNil(t, dev.readings)
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0, nil)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_CloseWhenNotConnected(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0, nil)
	assert.NoError(t, dev.Close())
}
