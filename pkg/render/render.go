package render

import (
	_ "embed"
	"strconv"
	"strings"

	"github.com/itohio/dhtfw/pkg/config"
)

// Placeholders substituted in the firmware template.
const (
	PowerPins  = "%POWER_PINS%"
	SensorPins = "%SENSOR_PINS%"
	SensorType = "%SENSOR_TYPE%"
	Serial     = "%SERIAL%"
	Baud       = "%BAUD%"
)

//go:embed main.ino.tmpl
var mainTemplate string

// Template returns the firmware entry-point template.
func Template() string {
	return mainTemplate
}

// Render fills the firmware template from cfg. The result depends only on cfg.
func Render(cfg config.FirmwareConfig) string {
	return RenderTemplate(mainTemplate, cfg)
}

// RenderTemplate fills tmpl from cfg. Placeholders are replaced in a single
// pass, so a substituted value is never rescanned.
func RenderTemplate(tmpl string, cfg config.FirmwareConfig) string {
	r := strings.NewReplacer(
		PowerPins, joinPins(cfg.PowerPins),
		SensorPins, joinPins(cfg.SensorPins),
		SensorType, cfg.Sensor.String(),
		Serial, cfg.Serial.String(),
		Baud, strconv.Itoa(cfg.Baud),
	)
	return r.Replace(tmpl)
}

func joinPins(pins []int) string {
	parts := make([]string, len(pins))
	for i, p := range pins {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
