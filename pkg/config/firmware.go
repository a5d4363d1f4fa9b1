package config

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

const (
	// DefaultBaud is the serial speed used when the document omits "baud".
	DefaultBaud = 115200
	// PinTerminator marks the end of a pin array in the generated source.
	PinTerminator = 0
	// MaxPin is the largest pin number representable in the firmware's uint8_t arrays.
	MaxPin = 255
)

// ValidationError reports the first invalid field of a firmware document.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid firmware config: %s", e.Reason)
	}
	return fmt.Sprintf("invalid firmware config field %q: %s", e.Field, e.Reason)
}

// FirmwareConfig is a validated firmware description. Both pin lists are
// already terminated with PinTerminator.
type FirmwareConfig struct {
	Board      string
	Chip       string
	Serial     SerialInterface
	Baud       int
	Sensor     SensorKind
	SensorPins []int
	PowerPins  []int
}

// WithChip returns a copy of c carrying the resolved chip identifier.
func (c FirmwareConfig) WithChip(chip string) FirmwareConfig {
	c.SensorPins = slices.Clone(c.SensorPins)
	c.PowerPins = slices.Clone(c.PowerPins)
	c.Chip = chip
	return c
}

// LoadFirmware reads and validates the firmware document at filename.
func LoadFirmware(filename string) (FirmwareConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return FirmwareConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse validates a JSON firmware document. Checks run in order: field
// presence, then types, then enumerated values. The first failure is returned.
func Parse(data []byte) (FirmwareConfig, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return FirmwareConfig{}, &ValidationError{Reason: fmt.Sprintf("malformed JSON object: %v", err)}
	}

	for _, field := range []string{"arduino", "sensor_type", "sensor_pins"} {
		if !present(raw, field) {
			return FirmwareConfig{}, &ValidationError{Field: field, Reason: "required field is missing"}
		}
	}

	var (
		board      string
		serialName = string(DefaultSerial)
		baud       = DefaultBaud
		sensorName string
		sensorPins []int
		powerPins  []int
	)

	if err := decode(raw, "arduino", &board); err != nil {
		return FirmwareConfig{}, err
	}
	if board == "" {
		return FirmwareConfig{}, &ValidationError{Field: "arduino", Reason: "must not be empty"}
	}
	if present(raw, "serial") {
		if err := decode(raw, "serial", &serialName); err != nil {
			return FirmwareConfig{}, err
		}
	}
	if present(raw, "baud") {
		if err := decode(raw, "baud", &baud); err != nil {
			return FirmwareConfig{}, err
		}
		if baud <= 0 {
			return FirmwareConfig{}, &ValidationError{Field: "baud", Reason: "must be positive"}
		}
	}
	if err := decode(raw, "sensor_type", &sensorName); err != nil {
		return FirmwareConfig{}, err
	}
	if err := decode(raw, "sensor_pins", &sensorPins); err != nil {
		return FirmwareConfig{}, err
	}
	if len(sensorPins) == 0 {
		return FirmwareConfig{}, &ValidationError{Field: "sensor_pins", Reason: "at least one pin is required"}
	}
	if err := checkPins("sensor_pins", sensorPins); err != nil {
		return FirmwareConfig{}, err
	}
	if present(raw, "power_pins") {
		if err := decode(raw, "power_pins", &powerPins); err != nil {
			return FirmwareConfig{}, err
		}
		if err := checkPins("power_pins", powerPins); err != nil {
			return FirmwareConfig{}, err
		}
	}

	sensor, err := ParseSensorKind(sensorName)
	if err != nil {
		return FirmwareConfig{}, &ValidationError{Field: "sensor_type", Reason: err.Error()}
	}
	serial, err := ParseSerialInterface(serialName)
	if err != nil {
		return FirmwareConfig{}, &ValidationError{Field: "serial", Reason: err.Error()}
	}

	return FirmwareConfig{
		Board:      board,
		Serial:     serial,
		Baud:       baud,
		Sensor:     sensor,
		SensorPins: terminate(sensorPins),
		PowerPins:  terminate(powerPins),
	}, nil
}

func present(raw map[string]json.RawMessage, field string) bool {
	v, ok := raw[field]
	return ok && string(v) != "null"
}

func decode(raw map[string]json.RawMessage, field string, dst any) error {
	if err := json.Unmarshal(raw[field], dst); err != nil {
		return &ValidationError{Field: field, Reason: fmt.Sprintf("wrong type: %v", err)}
	}
	return nil
}

func checkPins(field string, pins []int) error {
	for i, p := range pins {
		if p < 0 || p > MaxPin {
			return &ValidationError{Field: field, Reason: fmt.Sprintf("pin #%d out of range: %d (0-%d)", i, p, MaxPin)}
		}
	}
	return nil
}

func terminate(pins []int) []int {
	out := make([]int, 0, len(pins)+1)
	out = append(out, pins...)
	return append(out, PinTerminator)
}
