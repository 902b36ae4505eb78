package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/smazurov/climalight/internal/config"
	"github.com/smazurov/climalight/internal/logging"
	"github.com/smazurov/climalight/internal/updater"
	"github.com/spf13/cobra"
)

type updateOptions struct {
	Config  string
	DataDir string `toml:"data.dir" env:"DATA_DIR"`
}

// CreateUpdateCmd creates the update command.
func CreateUpdateCmd() *cobra.Command {
	var configFile string
	var repository string
	var prerelease bool
	var checkOnly bool
	var rollback bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update climalight to the latest release",
		Long: "Downloads the latest GitHub release and replaces the running binary, keeping a backup " +
			"in the data directory. Restart the service afterwards to run the new version.",
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if checkOnly && rollback {
				return errors.New("--check and --rollback are mutually exclusive")
			}

			opts := &updateOptions{Config: configFile, DataDir: "/var/lib/climalight"}
			if err := config.LoadConfig(opts, nil); err != nil {
				return err
			}

			logging.Initialize(logging.Config{Level: "info", Format: "text"})
			logger := logging.GetLogger("updater")

			u, err := updater.New(updater.Options{
				Repository: repository,
				Prerelease: prerelease,
				DataDir:    opts.DataDir,
			}, logger)
			if err != nil {
				return err
			}

			if rollback {
				restored, rbErr := u.Rollback()
				if rbErr != nil {
					return rbErr
				}
				fmt.Fprintf(os.Stdout, "restored %s, restart the service to run it\n", restored)
				return nil
			}

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if checkOnly {
				info, _, checkErr := u.Check(ctx)
				if checkErr != nil {
					return checkErr
				}
				if info.UpdateAvailable {
					fmt.Fprintf(os.Stdout, "update available: %s -> %s\n", info.CurrentVersion, info.LatestVersion)
				} else {
					fmt.Fprintf(os.Stdout, "up to date (%s)\n", info.CurrentVersion)
				}
				return nil
			}

			info, err := u.Apply(ctx)
			if errors.Is(err, &updater.Error{Code: updater.ErrCodeNoUpdate}) {
				fmt.Fprintf(os.Stdout, "up to date (%s)\n", info.CurrentVersion)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "updated %s -> %s, restart the service to run it\n", info.CurrentVersion, info.LatestVersion)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "climalight.toml", "Configuration file to read the data directory from")
	cmd.Flags().StringVar(&repository, "repo", updater.DefaultRepository, "GitHub repository to fetch releases from")
	cmd.Flags().BoolVar(&prerelease, "prerelease", false, "Include prereleases")
	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only report whether an update is available")
	cmd.Flags().BoolVar(&rollback, "rollback", false, "Restore the binary saved before the last update")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Time limit for checking and downloading")

	return cmd
}
