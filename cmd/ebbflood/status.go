package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nuost/ebbflood/pkg/types"
)

func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status [controller-id]",
		GroupID: gBasic,
		Short:   "Get the current status of the irrigation controllers",
		Long:    `Get the status of all configured controllers, or of a single one when an id is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("expected at most one controller id")
			}

			var sts []types.ControllerStatus
			if len(args) == 1 {
				st, err := apiClient.ControllerStatus(args[0])
				if err != nil {
					return err
				}
				sts = append(sts, *st)
			} else {
				var err error
				sts, err = apiClient.Controllers()
				if err != nil {
					return err
				}
			}

			if len(sts) == 0 {
				cmd.Println("No controllers configured.")
				return nil
			}

			for i, st := range sts {
				if i > 0 {
					cmd.Println()
				}
				printStatus(cmd, st)
			}
			return nil
		},
	}
}

func printStatus(cmd *cobra.Command, st types.ControllerStatus) {
	name := st.Name
	if name == "" {
		name = st.ID
	}
	cmd.Println(bold("%s", name))
	cmd.Printf("  ID: %s\n", st.ID)
	cmd.Printf("  Active: %s\n", bool2Text(st.Active))

	if st.Schedule != "" {
		cmd.Printf("  Schedule: %s\n", bold("%s", st.Schedule))
		if st.NextRun != nil {
			cmd.Printf("  Next run: %s\n", bold("%s", st.NextRun.Format(time.DateTime)))
		}
	}

	if st.State == nil {
		return
	}

	cmd.Printf("  Phase: %s\n", phaseText(st.State.Phase))
	cmd.Printf("  Floods: %s\n", bold("%.0f", st.State.FloodCount))
	cmd.Printf("  Errors: %s\n", errorCountText(st.State.ErrorCount))
	if st.State.FloodingTime > 0 {
		cmd.Printf("  Last flooding time: %s\n", bold("%.0fs", st.State.FloodingTime))
	}
	if st.State.DrainingTime > 0 {
		cmd.Printf("  Last draining time: %s\n", bold("%.0fs", st.State.DrainingTime))
	}
	if st.State.LowWaterTime > 0 {
		cmd.Printf("  Reservoir low since: %s\n", color.New(color.Bold, color.FgYellow).Sprintf("%.0fs into the fill", st.State.LowWaterTime))
	}
}

func phaseText(phase string) string {
	switch phase {
	case "error":
		return color.New(color.Bold, color.FgRed).Sprint(phase)
	case "filling", "draining":
		return color.New(color.Bold, color.FgGreen).Sprint(phase)
	default:
		return bold("%s", phase)
	}
}

func errorCountText(n float64) string {
	if n > 0 {
		return color.New(color.Bold, color.FgRed).Sprintf("%.0f", n)
	}
	return bold("%.0f", n)
}

func bool2Text(b bool) string {
	if b {
		return color.New(color.Bold, color.FgGreen).Sprint("✔")
	}
	return color.New(color.Bold, color.FgRed).Sprint("✘")
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
