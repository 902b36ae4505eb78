package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/smazurov/climalight/internal/config"
	"github.com/smazurov/climalight/internal/logging"
	"github.com/smazurov/climalight/internal/report"
	"github.com/smazurov/climalight/internal/sensor"
	"github.com/smazurov/climalight/internal/state"
	"github.com/spf13/cobra"
)

// sensorOptions mirrors the daemon's sensor settings so both read the same
// file and environment.
type sensorOptions struct {
	Config  string
	Backend string `toml:"sensor.backend" env:"SENSOR_BACKEND"`
	Device  string `toml:"sensor.device" env:"SENSOR_DEVICE"`
}

// CreateSensorCmd creates the sensor command.
func CreateSensorCmd() *cobra.Command {
	var configFile string
	var backend string
	var device string
	var attempts int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "sensor",
		Short: "Read the sensor once and print the status message",
		Long: "Takes a sensor reading, retrying invalid reads, and prints the status message the daemon " +
			"would publish for it with the power-on LED state.",
		Args: cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			opts := &sensorOptions{Config: configFile}
			if err := config.LoadConfig(opts, nil); err != nil {
				return err
			}
			if c.Flags().Changed("backend") || opts.Backend == "" {
				opts.Backend = backend
			}
			if c.Flags().Changed("device") || opts.Device == "" {
				opts.Device = device
			}

			level := "warn"
			if verbose {
				level = "debug"
			}
			logging.Initialize(logging.Config{Level: level, Format: "text"})
			logger := logging.GetLogger("sensor")

			dev, err := sensor.New(sensor.Config{Backend: opts.Backend, Device: opts.Device}, logger)
			if err != nil {
				return err
			}

			store := state.New()
			sampler := sensor.NewSampler(dev, store, nil, sensor.DefaultInterval, logger)

			ok := false
			for i := 0; i < attempts && !ok; i++ {
				if i > 0 {
					// The DHT11 needs a rest between reads.
					time.Sleep(sensor.DefaultInterval)
				}
				ok = sampler.Sample()
			}
			if !ok {
				return errors.New("no valid reading")
			}

			payload, err := report.FromSnapshot(store.Snapshot()).Marshal()
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(payload))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "climalight.toml", "Configuration file to read sensor settings from")
	cmd.Flags().StringVar(&backend, "backend", sensor.BackendAuto, "Sensor backend (auto, iio, sim)")
	cmd.Flags().StringVar(&device, "device", "", "IIO device directory (empty searches for dht11)")
	cmd.Flags().IntVar(&attempts, "attempts", 3, "Reads to try before giving up")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log each read")

	return cmd
}
