package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nuost/ebbflood/pkg/client"
	"github.com/nuost/ebbflood/pkg/version"
)

var (
	logLevel       = "info"
	unixSocketPath = "/var/run/ebbflood.sock"
	configPath     = "/etc/ebbflood.yaml"
)

var (
	gBasic        = "Basic:"
	gAdvanced     = "Advanced:"
	gInstallation = "Installation:"
	commandGroups = []string{
		gBasic,
		gAdvanced,
		gInstallation,
	}
)

var apiClient = client.NewClient(unixSocketPath)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})
	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	if errors.Is(err, client.ErrDaemonNotRunning) {
		fmt.Fprintln(os.Stderr, "\nError: ebbflood daemon is not running")
		fmt.Fprintln(os.Stderr, "Is the daemon running? Have you installed it?")
	} else if errors.Is(err, client.ErrPermissionDenied) {
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintln(os.Stderr, "  - Try running the command again with 'sudo'")
		fmt.Fprintln(os.Stderr, "  - Or run the daemon with the '--always-allow-non-root-access' flag to grant permissions to your user")
	}
}

func main() {
	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "ebbflood",
		Short:        "ebbflood controls ebb-flood irrigation tables",
		Long:         `ebbflood runs and supervises ebb-flood irrigation cycles: it floods a grow table from a reservoir, watches the float switches, and drains on time.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := setupLogger(); err != nil {
				return err
			}

			// The flag may have changed the socket path.
			apiClient = client.NewClient(unixSocketPath)

			if daemonVersion, err := apiClient.GetVersion(); err == nil {
				if daemonVersion != version.Version {
					logrus.WithFields(logrus.Fields{
						"clientVersion": version.Version,
						"daemonVersion": daemonVersion,
					}).Warn("Version mismatch between client and daemon. ebbflood may not work as expected.")
				}
			}

			return nil
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&unixSocketPath, "daemon-socket", unixSocketPath, "ebbflood daemon unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewDaemonCommand(),
		NewVersionCommand(),
		NewStatusCommand(),
		NewActivateCommand(),
		NewDeactivateCommand(),
		NewResetErrorsCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
	)

	return cmd
}
