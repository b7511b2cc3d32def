package client

import (
	"encoding/json"

	pkgerrors "github.com/pkg/errors"

	"github.com/nuost/ebbflood/pkg/types"
)

// Controllers lists every configured controller.
func (c *Client) Controllers() ([]types.ControllerStatus, error) {
	ret, err := c.Get("/controllers")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to list controllers")
	}

	var sts []types.ControllerStatus
	if err := json.Unmarshal([]byte(ret), &sts); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal controller list")
	}
	return sts, nil
}

// ControllerStatus returns the status of one controller.
func (c *Client) ControllerStatus(id string) (*types.ControllerStatus, error) {
	ret, err := c.Get("/controllers/" + id)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get controller %s", id)
	}

	var st types.ControllerStatus
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal controller status")
	}
	return &st, nil
}

// Activate starts a new cycle for the controller.
func (c *Client) Activate(id string) (string, error) {
	ret, err := c.Post("/controllers/"+id+"/activate", "")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to activate controller %s", id)
	}
	return unquote(ret), nil
}

// Deactivate requests deactivation of the controller.
func (c *Client) Deactivate(id string) (string, error) {
	ret, err := c.Post("/controllers/"+id+"/deactivate", "")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to deactivate controller %s", id)
	}
	return unquote(ret), nil
}

// ResetErrors zeroes the persisted error counter of the controller.
func (c *Client) ResetErrors(id string) (string, error) {
	ret, err := c.Post("/controllers/"+id+"/reset-errors", "")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to reset error counter of controller %s", id)
	}
	return unquote(ret), nil
}

// GetVersion returns the daemon version.
func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return unquote(ret), nil
}

// unquote strips the quotes around a JSON string response. The daemon
// returns plain strings as JSON, and a decoder is overkill for that.
func unquote(s string) string {
	var out string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return s
	}
	return out
}
