package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/smazurov/climalight/internal/command"
	"github.com/smazurov/climalight/internal/config"
	"github.com/smazurov/climalight/internal/logging"
	"github.com/smazurov/climalight/internal/mqtt"
	"github.com/spf13/cobra"
)

// brokerOptions is the subset of the daemon's configuration a one-shot
// sender needs. Tags match the daemon's Options so both read the same file.
type brokerOptions struct {
	Config       string
	Broker       string `toml:"mqtt.broker" env:"MQTT_BROKER"`
	Username     string `toml:"mqtt.username" env:"MQTT_USERNAME"`
	Password     string `toml:"mqtt.password" env:"MQTT_PASSWORD"`
	CommandTopic string `toml:"mqtt.command_topic" env:"MQTT_COMMAND_TOPIC"`
}

// CreateSendCmd creates the send command.
func CreateSendCmd() *cobra.Command {
	var configFile string
	var broker string
	var topic string
	var timeout time.Duration
	var force bool

	cmd := &cobra.Command{
		Use:   "send <command>",
		Short: "Publish a command to the device over MQTT",
		Long: "Publishes one command (mode:<0-3> or color:<r>,<g>,<b>) on the command topic and exits. " +
			"Broker settings come from the config file and CLIMALIGHT_* environment unless overridden by flags.",
		Example: "  climalight send mode:2\n  climalight send color:255,0,0",
		Args:    cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			payload := []byte(args[0])

			parsed, err := command.Parse(payload)
			if err != nil {
				return fmt.Errorf("device would reject %q: %w", args[0], err)
			}
			if _, ok := parsed.(command.Unrecognized); ok && !force {
				return errors.New("unrecognized command, use --force to send it anyway")
			}

			opts := &brokerOptions{Config: configFile}
			if loadErr := config.LoadConfig(opts, nil); loadErr != nil {
				return loadErr
			}
			if c.Flags().Changed("broker") || opts.Broker == "" {
				opts.Broker = broker
			}
			if c.Flags().Changed("topic") || opts.CommandTopic == "" {
				opts.CommandTopic = topic
			}

			logging.Initialize(logging.Config{Level: "warn", Format: "text"})
			logger := logging.GetLogger("send")

			err = mqtt.SendCommand(context.Background(), mqtt.Config{
				Broker:       opts.Broker,
				Username:     opts.Username,
				Password:     opts.Password,
				CommandTopic: opts.CommandTopic,
			}, payload, timeout, logger)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stdout, "sent %s to %s\n", parsed, opts.CommandTopic)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "climalight.toml", "Configuration file to read broker settings from")
	cmd.Flags().StringVar(&broker, "broker", "mqtt://localhost:1883", "MQTT broker URL")
	cmd.Flags().StringVar(&topic, "topic", "climalight/command", "Command topic")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "How long to wait for the broker")
	cmd.Flags().BoolVar(&force, "force", false, "Send text the device will not recognize")

	return cmd
}
