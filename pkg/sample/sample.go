package sample

import (
	"time"

	"github.com/chewxy/math32"

	"github.com/itohio/dhtfw/pkg/dht"
	"github.com/itohio/dhtfw/pkg/logger"
)

// Magnus coefficients for water over -45..60 °C.
const (
	magnusA = 17.62
	magnusB = 243.12

	minHumidity = 0.1 // %RH, keeps the logarithm finite
)

// Sample is a processed reading with derived values.
type Sample struct {
	Timestamp   time.Time `json:"ts"`
	Pin         int       `json:"pin"`
	Temperature float32   `json:"t"`
	Humidity    float32   `json:"h"`
	HeatIndex   float32   `json:"hi"`
	DewPoint    float32   `json:"dp"`
	Count       int       `json:"n,omitempty"` // readings averaged into this sample
	Err         string    `json:"e,omitempty"`
}

// OK reports whether the sample carries measurements.
func (s Sample) OK() bool {
	return s.Err == ""
}

// Converter is a function type that converts a Reading channel to a Sample channel.
type Converter func(in <-chan dht.Reading) <-chan Sample

// NewConverter creates a converter function that transforms each Reading to a Sample.
func NewConverter(bufSize int, log logger.Logger) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}
	if log == nil {
		log = logger.Discard()
	}

	return func(in <-chan dht.Reading) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			for rd := range in {
				select {
				case out <- Convert(rd):
				case <-time.After(time.Second):
					log.Warn("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// Convert turns a Reading into a Sample, computing the dew point.
func Convert(rd dht.Reading) Sample {
	if !rd.OK() {
		return Sample{Timestamp: rd.Timestamp, Pin: rd.Pin, Err: rd.Err}
	}
	return Sample{
		Timestamp:   rd.Timestamp,
		Pin:         rd.Pin,
		Temperature: rd.Temperature,
		Humidity:    rd.Humidity,
		HeatIndex:   rd.HeatIndex,
		DewPoint:    DewPoint(rd.Temperature, rd.Humidity),
		Count:       1,
	}
}

// DewPoint returns the dew point in °C for temperature t (°C) and relative
// humidity rh (%), using the Magnus approximation.
func DewPoint(t, rh float32) float32 {
	if rh < minHumidity {
		rh = minHumidity
	}
	if rh > 100 {
		rh = 100
	}
	gamma := math32.Log(rh/100) + magnusA*t/(magnusB+t)
	return magnusB * gamma / (magnusA - gamma)
}
