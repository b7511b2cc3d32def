package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nuost/ebbflood/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

func parseIDArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one controller id")
	}
	return args[0], nil
}

func NewActivateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "activate [controller-id]",
		Short:   "Start an irrigation cycle",
		GroupID: gBasic,
		Long: `Start an irrigation cycle on the given controller.

The controller fills the table until the flood sensor reports water, lets it drain, and deactivates itself when the table is empty. Activating an already active controller does nothing.`,
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseIDArg(args)
			if err != nil {
				return err
			}

			ret, err := apiClient.Activate(id)
			if err != nil {
				return fmt.Errorf("failed to activate controller: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}
}

func NewDeactivateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "deactivate [controller-id]",
		Short:   "Stop a running irrigation cycle",
		GroupID: gBasic,
		Long: `Stop a running irrigation cycle on the given controller.

All outputs of the controller are switched off before it stops.`,
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseIDArg(args)
			if err != nil {
				return err
			}

			ret, err := apiClient.Deactivate(id)
			if err != nil {
				return fmt.Errorf("failed to deactivate controller: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}
}

func NewResetErrorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "reset-errors [controller-id]",
		Short:   "Reset the error counter of a controller",
		GroupID: gAdvanced,
		Long: `Reset the persisted error counter of the given controller to zero.

A controller that ended a cycle in the error phase stays deactivated until someone looks at it. After fixing the cause, reset the counter and activate the controller again.`,
		RunE: func(_ *cobra.Command, args []string) error {
			id, err := parseIDArg(args)
			if err != nil {
				return err
			}

			ret, err := apiClient.ResetErrors(id)
			if err != nil {
				return fmt.Errorf("failed to reset error counter: %v", err)
			}

			if ret != "" {
				logrus.Infof("daemon responded: %s", ret)
			}

			return nil
		},
	}
}
