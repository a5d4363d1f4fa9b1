package sample

import (
	"time"

	"github.com/itohio/dhtfw/pkg/dht"
	"github.com/itohio/dhtfw/pkg/logger"
)

// NewAveragingConverter creates a converter that averages the last windowSize
// good readings of each pin. Every good reading produces one averaged sample;
// error readings pass through unchanged and do not enter the window.
func NewAveragingConverter(windowSize int, bufSize int, log logger.Logger) Converter {
	if windowSize <= 1 {
		return NewConverter(bufSize, log)
	}
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

			windows := make(map[int][]dht.Reading)
			for rd := range in {
				var s Sample
				if rd.OK() {
					w := append(windows[rd.Pin], rd)
					if len(w) > windowSize {
						w = w[1:] // Remove oldest
					}
					windows[rd.Pin] = w
					s = averageReadings(w)
				} else {
					s = Convert(rd)
				}

				select {
				case out <- s:
				case <-time.After(time.Second):
					log.Warn("Averaging converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// averageReadings averages good readings of one pin. The most recent
// timestamp is kept and the dew point is derived from the averages.
func averageReadings(readings []dht.Reading) Sample {
	if len(readings) == 0 {
		return Sample{}
	}

	var sumT, sumH, sumHI float32
	last := readings[len(readings)-1]

	for _, r := range readings {
		sumT += r.Temperature
		sumH += r.Humidity
		sumHI += r.HeatIndex
	}

	n := float32(len(readings))
	avg := Convert(dht.Reading{
		Timestamp:   last.Timestamp,
		Pin:         last.Pin,
		Temperature: sumT / n,
		Humidity:    sumH / n,
		HeatIndex:   sumHI / n,
	})
	avg.Count = len(readings)
	return avg
}
