package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/itohio/dhtfw/pkg/dht"
	"github.com/itohio/dhtfw/pkg/publish"
	"github.com/itohio/dhtfw/pkg/sample"
)

type monitorOptions struct {
	port         string
	baud         int
	average      int
	count        int
	jsonOutput   bool
	broker       string
	topic        string
	mock         bool
	mockPins     []int
	mockInterval time.Duration
}

func (a *app) monitorCmd() *cobra.Command {
	var opts monitorOptions

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Read sensor telemetry from a flashed board",
		Long: `Read the JSON telemetry the firmware prints on its serial port, derive
dew point, optionally average readings per pin and forward them to MQTT.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.port == "" && !opts.mock {
				return fmt.Errorf("--port is required")
			}
			if !cmd.Flags().Changed("baud") {
				opts.baud = a.settings.Monitor.Baud
			}
			if !cmd.Flags().Changed("average") {
				opts.average = a.settings.Monitor.Average
			}
			if opts.broker == "" {
				opts.broker = a.settings.MQTT.Broker
			}
			if opts.topic == "" {
				opts.topic = a.settings.MQTT.Topic
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.monitor(ctx, cmd.OutOrStdout(), opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.port, "port", "p", "", "Serial port the board is connected to")
	f.IntVarP(&opts.baud, "baud", "b", 115200, "Serial baud rate")
	f.IntVar(&opts.average, "average", 0, "Average this many readings per pin (0 = disabled)")
	f.IntVarP(&opts.count, "count", "n", 0, "Stop after this many samples (0 = run until interrupted)")
	f.BoolVar(&opts.jsonOutput, "json", false, "Print JSON lines even on a terminal")
	f.StringVar(&opts.broker, "mqtt", "", "Forward samples to this MQTT broker (e.g. tcp://localhost:1883)")
	f.StringVar(&opts.topic, "topic", "", "MQTT root topic; samples go to <topic>/<pin>")
	f.BoolVar(&opts.mock, "mock", false, "Use a simulated board instead of a serial port")
	f.IntSliceVar(&opts.mockPins, "mock-pins", []int{4}, "Pins reported by the simulated board")
	f.DurationVar(&opts.mockInterval, "mock-interval", 2500*time.Millisecond, "Publish interval of the simulated board")

	return cmd
}

func (a *app) monitor(ctx context.Context, out io.Writer, opts monitorOptions) error {
	var dev dht.Device
	if opts.mock {
		dev = dht.NewMock(dht.MockConfig{Pins: opts.mockPins, Interval: opts.mockInterval})
	} else {
		dev = dht.New(opts.port, opts.baud, a.settings.Monitor.BufferSize, a.log)
	}

	if err := dev.Connect(); err != nil {
		return err
	}
	defer dev.Close()

	converter := sample.NewAveragingConverter(opts.average, a.settings.Monitor.BufferSize, a.log)
	samples := converter(dev.Readings())

	var forward chan sample.Sample
	forwardDone := make(chan struct{})
	if opts.broker != "" {
		mqttCfg := a.settings.MQTT
		mqttCfg.Broker = opts.broker
		pub, err := publish.NewMQTT(mqttCfg, a.log)
		if err != nil {
			return err
		}
		defer pub.Close()

		forward = make(chan sample.Sample, a.settings.Monitor.BufferSize)
		go func() {
			defer close(forwardDone)
			if err := publish.Forward(ctx, forward, pub, opts.topic, a.log); err != nil && ctx.Err() == nil {
				a.log.Error("Forwarding stopped: %v", err)
			}
		}()
		defer func() {
			close(forward)
			<-forwardDone
		}()
	}

	jsonOutput := opts.jsonOutput || !isTerminal(out)
	seen := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-samples:
			if !ok {
				return nil
			}
			line, err := formatSample(s, jsonOutput)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, line)

			if forward != nil {
				select {
				case forward <- s:
				default:
					a.log.Warn("MQTT forwarding is behind, dropping sample for pin %d", s.Pin)
				}
			}

			seen++
			if opts.count > 0 && seen >= opts.count {
				return nil
			}
		}
	}
}

func formatSample(s sample.Sample, jsonOutput bool) (string, error) {
	if jsonOutput {
		data, err := json.Marshal(s)
		if err != nil {
			return "", fmt.Errorf("failed to encode sample: %w", err)
		}
		return string(data), nil
	}

	ts := s.Timestamp.Format("15:04:05")
	if !s.OK() {
		return fmt.Sprintf("%s  pin %-3d  error: %s", ts, s.Pin, s.Err), nil
	}
	return fmt.Sprintf("%s  pin %-3d  %6.1f°C  %5.1f%%  hi %6.1f°C  dp %6.1f°C",
		ts, s.Pin, s.Temperature, s.Humidity, s.HeatIndex, s.DewPoint), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
