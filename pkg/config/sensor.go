package config

import (
	"fmt"
	"sort"
	"strings"
)

// SensorKind names a supported DHT-family sensor model. The name is emitted
// verbatim into the firmware source; Code is the protocol code behind it.
type SensorKind string

const (
	SensorDHT11  SensorKind = "DHT11"
	SensorDHT12  SensorKind = "DHT12"
	SensorDHT21  SensorKind = "DHT21"
	SensorDHT22  SensorKind = "DHT22"
	SensorAM2301 SensorKind = "AM2301"
)

// AM2301 is sold under a different name but speaks the DHT21 protocol.
var sensorCodes = map[SensorKind]int{
	SensorDHT11:  11,
	SensorDHT12:  12,
	SensorDHT21:  21,
	SensorDHT22:  22,
	SensorAM2301: 21,
}

// ParseSensorKind matches name case-sensitively against the known sensors.
func ParseSensorKind(name string) (SensorKind, error) {
	kind := SensorKind(name)
	if _, ok := sensorCodes[kind]; !ok {
		return "", fmt.Errorf("unknown sensor %q (known: %s)", name, strings.Join(SensorKinds(), ", "))
	}
	return kind, nil
}

// SensorKinds returns the known sensor names, sorted.
func SensorKinds() []string {
	names := make([]string, 0, len(sensorCodes))
	for k := range sensorCodes {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}

// Code returns the protocol code, or 0 for an unknown kind.
func (s SensorKind) Code() int {
	return sensorCodes[s]
}

func (s SensorKind) String() string {
	return string(s)
}

// SerialInterface names the hardware UART the firmware logs to.
type SerialInterface string

const (
	Serial0 SerialInterface = "Serial"
	Serial1 SerialInterface = "Serial1"
	Serial2 SerialInterface = "Serial2"
	Serial3 SerialInterface = "Serial3"
)

// DefaultSerial is the primary hardware serial port.
const DefaultSerial = Serial0

var serialIndexes = map[SerialInterface]int{
	Serial0: 0,
	Serial1: 1,
	Serial2: 2,
	Serial3: 3,
}

// ParseSerialInterface matches name case-sensitively against the known ports.
func ParseSerialInterface(name string) (SerialInterface, error) {
	s := SerialInterface(name)
	if _, ok := serialIndexes[s]; !ok {
		return "", fmt.Errorf("unknown serial interface %q (known: Serial, Serial1, Serial2, Serial3)", name)
	}
	return s, nil
}

// Index returns the UART number.
func (s SerialInterface) Index() int {
	return serialIndexes[s]
}

func (s SerialInterface) String() string {
	return string(s)
}
