package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorKind_Codes(t *testing.T) {
	assert.Equal(t, 11, SensorDHT11.Code())
	assert.Equal(t, 12, SensorDHT12.Code())
	assert.Equal(t, 21, SensorDHT21.Code())
	assert.Equal(t, 22, SensorDHT22.Code())
	assert.Equal(t, 21, SensorAM2301.Code())
	assert.Equal(t, 0, SensorKind("DHT99").Code())
}

func TestSensorKind_AliasesStayDistinct(t *testing.T) {
	dht21, err := ParseSensorKind("DHT21")
	require.NoError(t, err)
	am2301, err := ParseSensorKind("AM2301")
	require.NoError(t, err)

	assert.Equal(t, dht21.Code(), am2301.Code())
	assert.NotEqual(t, dht21, am2301)
	assert.Equal(t, "AM2301", am2301.String())
}

func TestParseSensorKind_Unknown(t *testing.T) {
	_, err := ParseSensorKind("DHT99")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DHT22")
}

func TestSensorKinds(t *testing.T) {
	assert.Equal(t, []string{"AM2301", "DHT11", "DHT12", "DHT21", "DHT22"}, SensorKinds())
}

func TestParseSerialInterface(t *testing.T) {
	tests := []struct {
		name    string
		want    SerialInterface
		index   int
		wantErr bool
	}{
		{"Serial", Serial0, 0, false},
		{"Serial1", Serial1, 1, false},
		{"Serial2", Serial2, 2, false},
		{"Serial3", Serial3, 3, false},
		{"serial", "", 0, true},
		{"Serial4", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSerialInterface(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.index, got.Index())
		})
	}
}
