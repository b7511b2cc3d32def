package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	daemonutils "github.com/nuost/ebbflood/pkg/utils/daemon"
)

func ensureRoot() error {
	if os.Geteuid() != 0 {
		return fmt.Errorf("this command must be run as root")
	}
	return nil
}

func NewInstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "install",
		Short:   "Install the daemon as a systemd service",
		GroupID: gInstallation,
		Long: `Install a systemd unit for the ebbflood daemon and start it.

The unit points at the current executable, so run this from the final install location of the binary.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := ensureRoot(); err != nil {
				return err
			}
			return daemonutils.Install()
		},
	}
}

func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Stop and remove the systemd service",
		GroupID: gInstallation,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := ensureRoot(); err != nil {
				return err
			}
			return daemonutils.Uninstall()
		},
	}
}
