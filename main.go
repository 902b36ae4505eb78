package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/smazurov/climalight/cmd"
	"github.com/smazurov/climalight/internal/api"
	"github.com/smazurov/climalight/internal/button"
	"github.com/smazurov/climalight/internal/command"
	"github.com/smazurov/climalight/internal/config"
	"github.com/smazurov/climalight/internal/events"
	"github.com/smazurov/climalight/internal/led"
	"github.com/smazurov/climalight/internal/logging"
	"github.com/smazurov/climalight/internal/metrics"
	"github.com/smazurov/climalight/internal/metrics/exporters"
	"github.com/smazurov/climalight/internal/mqtt"
	natsbus "github.com/smazurov/climalight/internal/nats"
	"github.com/smazurov/climalight/internal/report"
	"github.com/smazurov/climalight/internal/sensor"
	"github.com/smazurov/climalight/internal/state"
	"github.com/smazurov/climalight/internal/systemd"
	"github.com/smazurov/climalight/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"climalight.toml"`

	// Server settings
	Port string `help:"Port to listen on" short:"p" default:":8090" toml:"server.port" env:"SERVER_PORT"`

	// Data settings
	DataDir string `help:"Directory for the persistent instance ID" default:"/var/lib/climalight" toml:"data.dir" env:"DATA_DIR"`

	// Button settings
	ButtonChip      string `help:"GPIO chip of the button line" default:"gpiochip0" toml:"button.chip" env:"BUTTON_CHIP"`
	ButtonOffset    int    `help:"GPIO line offset of the button (-1 disables)" default:"17" toml:"button.offset" env:"BUTTON_OFFSET"`
	ButtonQueueSize int    `help:"Pending press queue capacity" default:"10" toml:"button.queue_size" env:"BUTTON_QUEUE_SIZE"`

	// LED settings
	LEDBackend   string `help:"LED backend (auto, spi, sysfs, noop)" default:"auto" toml:"led.backend" env:"LED_BACKEND"`
	LEDPixels    int    `help:"Number of pixels on the strip" default:"24" toml:"led.pixels" env:"LED_PIXELS"`
	LEDSPIPort   string `help:"SPI port for the strip (empty picks the first)" default:"" toml:"led.spi_port" env:"LED_SPI_PORT"`
	LEDSysfsName string `help:"Multicolor LED name under /sys/class/leds" default:"" toml:"led.sysfs_name" env:"LED_SYSFS_NAME"`
	LEDTick      string `help:"Steady-mode refresh period" default:"100ms" toml:"led.tick" env:"LED_TICK"`

	// Sensor settings
	SensorBackend  string `help:"Sensor backend (auto, iio, sim)" default:"auto" toml:"sensor.backend" env:"SENSOR_BACKEND"`
	SensorDevice   string `help:"IIO device directory (empty searches for dht11)" default:"" toml:"sensor.device" env:"SENSOR_DEVICE"`
	SensorInterval string `help:"Sensor sampling interval" default:"2s" toml:"sensor.interval" env:"SENSOR_INTERVAL"`

	// MQTT settings
	MQTTBroker            string `help:"MQTT broker URL" default:"mqtt://localhost:1883" toml:"mqtt.broker" env:"MQTT_BROKER"`
	MQTTUsername          string `help:"MQTT username" default:"" toml:"mqtt.username" env:"MQTT_USERNAME"`
	MQTTPassword          string `help:"MQTT password" default:"" toml:"mqtt.password" env:"MQTT_PASSWORD"`
	MQTTStatusTopic       string `help:"Topic status messages are published on" default:"climalight/status" toml:"mqtt.status_topic" env:"MQTT_STATUS_TOPIC"`
	MQTTCommandTopic      string `help:"Topic commands are received on" default:"climalight/command" toml:"mqtt.command_topic" env:"MQTT_COMMAND_TOPIC"`
	MQTTAvailabilityTopic string `help:"Retained online/offline topic" default:"climalight/availability" toml:"mqtt.availability_topic" env:"MQTT_AVAILABILITY_TOPIC"`
	MQTTRateLimit         int    `help:"Max inbound messages per second" default:"20" toml:"mqtt.rate_limit" env:"MQTT_RATE_LIMIT"`
	ReportInterval        string `help:"Status report interval" default:"3s" toml:"report.interval" env:"REPORT_INTERVAL"`

	// Kafka mirror settings
	KafkaBrokers string `help:"Comma-separated Kafka brokers (empty disables the mirror)" default:"" toml:"kafka.brokers" env:"KAFKA_BROKERS"`
	KafkaTopic   string `help:"Kafka topic for mirrored status messages" default:"climalight.status" toml:"kafka.topic" env:"KAFKA_TOPIC"`

	// NATS settings
	NATSURL      string `help:"NATS server URL (empty disables NATS unless embedded)" default:"" toml:"nats.url" env:"NATS_URL"`
	NATSEmbedded bool   `help:"Run an embedded NATS server" default:"false" toml:"nats.embedded" env:"NATS_EMBEDDED"`
	NATSPort     int    `help:"Embedded NATS server port" default:"4222" toml:"nats.port" env:"NATS_PORT"`

	// Auth settings
	AuthUsername string `help:"Basic auth username (empty disables auth)" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel   string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat  string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingButton  string `help:"Button logging level" default:"info" toml:"logging.button" env:"LOGGING_BUTTON"`
	LoggingCommand string `help:"Command logging level" default:"info" toml:"logging.command" env:"LOGGING_COMMAND"`
	LoggingLED     string `help:"LED logging level" default:"info" toml:"logging.led" env:"LOGGING_LED"`
	LoggingSensor  string `help:"Sensor logging level" default:"info" toml:"logging.sensor" env:"LOGGING_SENSOR"`
	LoggingReport  string `help:"Report logging level" default:"info" toml:"logging.report" env:"LOGGING_REPORT"`
	LoggingMQTT    string `help:"MQTT logging level" default:"info" toml:"logging.mqtt" env:"LOGGING_MQTT"`
	LoggingNATS    string `help:"NATS logging level" default:"info" toml:"logging.nats" env:"LOGGING_NATS"`
	LoggingAPI     string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
}

func (o *Options) mqttConfig() mqtt.Config {
	return mqtt.Config{
		Broker:            o.MQTTBroker,
		Username:          o.MQTTUsername,
		Password:          o.MQTTPassword,
		StatusTopic:       o.MQTTStatusTopic,
		CommandTopic:      o.MQTTCommandTopic,
		AvailabilityTopic: o.MQTTAvailabilityTopic,
		RateLimit:         int64(o.MQTTRateLimit),
	}
}

// animatorStallLimit is how long the LED loop may go without a frame
// before the watchdog stops vouching for the process.
const animatorStallLimit = 5 * time.Second

// parseDuration parses a duration option, falling back to def when it is
// empty or invalid.
func parseDuration(logger *slog.Logger, name, value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn("Invalid duration, using default", "option", name, "value", value, "default", def)
		return def
	}
	return d
}

func main() {
	var cli humacli.CLI
	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"button":  opts.LoggingButton,
				"command": opts.LoggingCommand,
				"led":     opts.LoggingLED,
				"sensor":  opts.LoggingSensor,
				"report":  opts.LoggingReport,
				"mqtt":    opts.LoggingMQTT,
				"nats":    opts.LoggingNATS,
				"api":     opts.LoggingAPI,
			},
		})

		logger := logging.GetLogger("main")
		logger.Info("Starting climalight", "version", version.String())

		eventBus := events.New()
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		store := state.New()
		bootMode, bootColor := store.View()
		metrics.SetLED(int(bootMode), uint32(bootColor))

		// Button: GPIO edges feed the detector, the handler drains its queue.
		detector := button.NewDetector(opts.ButtonQueueSize)
		metrics.RegisterEdgeCounters(detector.Debounced, detector.Dropped)
		buttonHandler := button.NewHandler(store, detector.Events(), eventBus, logging.GetLogger("button"))
		var buttonLine *button.LineSource
		if opts.ButtonOffset >= 0 {
			line, lineErr := button.OpenLine(opts.ButtonChip, opts.ButtonOffset, detector, logging.GetLogger("button"))
			if lineErr != nil {
				logger.Warn("Button unavailable, presses only via API", "error", lineErr)
			} else {
				buttonLine = line
			}
		}

		// LEDs
		display, displayErr := led.New(led.Config{
			Backend:   opts.LEDBackend,
			NumPixels: opts.LEDPixels,
			SPIPort:   opts.LEDSPIPort,
			SysfsName: opts.LEDSysfsName,
		}, logging.GetLogger("led"))
		if displayErr != nil {
			logger.Error("Failed to open LED display", "error", displayErr)
			os.Exit(1)
		}
		animator := led.NewAnimator(store, display, led.Timing{Tick: parseDuration(logger, "led.tick", opts.LEDTick, 0)}, logging.GetLogger("led"))

		// Sensor
		sensorDev, sensorErr := sensor.New(sensor.Config{
			Backend: opts.SensorBackend,
			Device:  opts.SensorDevice,
		}, logging.GetLogger("sensor"))
		if sensorErr != nil {
			logger.Error("Failed to open sensor", "error", sensorErr)
			os.Exit(1)
		}
		sampler := sensor.NewSampler(sensorDev, store, eventBus, parseDuration(logger, "sensor.interval", opts.SensorInterval, sensor.DefaultInterval), logging.GetLogger("sensor"))

		// Remote channel
		instanceID, idErr := mqtt.LoadOrCreateInstanceID(opts.DataDir)
		if idErr != nil {
			logger.Warn("Failed to persist instance ID, using an ephemeral one", "error", idErr)
		}
		mqttClient := mqtt.New(opts.mqttConfig(), instanceID, logging.GetLogger("mqtt"))
		interpreter := command.New(store, eventBus, logging.GetLogger("command"))
		mqttClient.OnMessage(interpreter.HandleMessage)

		var sinks []report.Sink
		var kafkaSink *report.KafkaSink
		if opts.KafkaBrokers != "" {
			kafkaSink = report.NewKafkaSink(strings.Split(opts.KafkaBrokers, ","), opts.KafkaTopic, instanceID)
			sinks = append(sinks, kafkaSink)
			logger.Info("Mirroring status to Kafka", "brokers", opts.KafkaBrokers, "topic", opts.KafkaTopic)
		}
		var natsServer *natsbus.Server
		var natsClient *natsbus.DeviceClient
		var natsBridge *natsbus.Bridge
		natsURL := opts.NATSURL
		if opts.NATSEmbedded {
			natsServer = natsbus.NewServer(natsbus.ServerOptions{
				Port:   opts.NATSPort,
				Host:   "0.0.0.0",
				Logger: logging.GetLogger("nats"),
			})
			if natsURL == "" {
				natsURL = fmt.Sprintf("nats://127.0.0.1:%d", opts.NATSPort)
			}
		}
		if natsURL != "" {
			natsClient = natsbus.NewDeviceClient(natsURL, instanceID, logging.GetLogger("nats"))
			natsClient.OnCommand(func(payload []byte) {
				_, _ = interpreter.Execute("nats", payload)
			})
			natsBridge = natsbus.NewBridge(eventBus, natsClient, logging.GetLogger("nats"))
			sinks = append(sinks, natsClient)
		}

		reporter := report.NewReporter(store, mqttClient, report.Config{
			StatusTopic:  opts.MQTTStatusTopic,
			CommandTopic: opts.MQTTCommandTopic,
			Interval:     parseDuration(logger, "report.interval", opts.ReportInterval, report.DefaultInterval),
		}, eventBus, logging.GetLogger("report"), sinks...)

		server := api.NewServer(&api.Options{
			AuthUsername:      opts.AuthUsername,
			AuthPassword:      opts.AuthPassword,
			Store:             store,
			Interpreter:       interpreter,
			Button:            detector,
			Link:              mqttClient,
			EventBus:          eventBus,
			PrometheusHandler: exporters.HTTPHandler(),
		})

		// Logging levels follow edits to the config file.
		configWatcher := config.NewConfigWatcher(opts.Config, config.ReadLoggingConfig, logging.GetLogger("config"))
		configWatcher.OnReload(func(cfg logging.Config) {
			logging.SetLevels(cfg)
			logger.Info("Logging levels reloaded", "level", cfg.Level, "modules", cfg.Modules)
		})

		notifier := systemd.NewNotifier(logging.GetLogger("systemd"))
		ctx, cancel := context.WithCancel(context.Background())
		var loops sync.WaitGroup

		hooks.OnStart(func() {
			if startErr := mqttClient.Start(ctx); startErr != nil {
				logger.Error("Failed to start MQTT client", "error", startErr)
				os.Exit(1)
			}
			if natsServer != nil {
				if startErr := natsServer.Start(); startErr != nil {
					logger.Warn("Embedded NATS server failed to start", "error", startErr)
				}
			}
			if natsClient != nil {
				// The client keeps retrying an unreachable server on its own.
				if connErr := natsClient.Connect(); connErr != nil {
					logger.Warn("NATS client disabled", "error", connErr)
				}
				natsBridge.Start()
			}

			if subErr := mqttClient.Subscribe(ctx, opts.MQTTCommandTopic); subErr != nil && !errors.Is(subErr, mqtt.ErrNotConnected) {
				logger.Warn("Failed to subscribe to command topic", "error", subErr)
			}

			for _, loop := range []func(context.Context){
				buttonHandler.Run,
				animator.Run,
				sampler.Run,
				reporter.Run,
			} {
				loops.Add(1)
				go func() {
					defer loops.Done()
					loop(ctx)
				}()
			}
			go notifier.RunWatchdog(ctx, func() bool { return animator.Alive(animatorStallLimit) })

			if watchErr := configWatcher.Start(); watchErr != nil {
				logger.Warn("Config hot reload disabled", "error", watchErr)
			}

			notifier.Ready()
			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down")
			notifier.Stopping()

			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}
			_ = configWatcher.Stop()

			stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer stopCancel()
			if stopErr := mqttClient.Stop(stopCtx); stopErr != nil {
				logger.Warn("Error stopping MQTT client", "error", stopErr)
			}

			cancel()
			loops.Wait()

			if natsBridge != nil {
				natsBridge.Stop()
			}
			if natsClient != nil {
				natsClient.Close()
			}
			if natsServer != nil {
				natsServer.Stop()
			}

			if kafkaSink != nil {
				if closeErr := kafkaSink.Close(); closeErr != nil {
					logger.Warn("Error closing Kafka writer", "error", closeErr)
				}
			}
			if closeErr := buttonLine.Close(); closeErr != nil {
				logger.Warn("Error releasing button line", "error", closeErr)
			}
			if closeErr := display.Close(); closeErr != nil {
				logger.Warn("Error closing LED display", "error", closeErr)
			}
		})
	})

	cli.Root().Use = "climalight"
	cli.Root().Version = version.String()

	cli.Root().AddCommand(cmd.CreateSendCmd())
	cli.Root().AddCommand(cmd.CreateSensorCmd())
	cli.Root().AddCommand(cmd.CreateUpdateCmd())

	cli.Run()
}
