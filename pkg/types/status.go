package types

import (
	"time"

	"github.com/nuost/ebbflood/pkg/controller"
)

// ControllerStatus is the daemon's view of one controller.
// This struct is shared between the daemon and client packages.
type ControllerStatus struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Active   bool               `json:"active"`
	Schedule string             `json:"schedule,omitempty"`
	NextRun  *time.Time         `json:"nextRun,omitempty"`
	State    *controller.Status `json:"state,omitempty"`
}
