package daemon

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/nuost/ebbflood/pkg/events"
	"github.com/nuost/ebbflood/pkg/version"
)

type handlers struct {
	reg *Registry
	hub *events.EventHub
}

func setupRoutes(reg *Registry, hub *events.EventHub, log *logrus.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	h := &handlers{reg: reg, hub: hub}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(log))
	router.GET("/controllers", h.listControllers)
	router.GET("/controllers/:id", h.getController)
	router.POST("/controllers/:id/activate", h.activateController)
	router.POST("/controllers/:id/deactivate", h.deactivateController)
	router.POST("/controllers/:id/reset-errors", h.resetErrors)
	router.GET("/events", h.streamEvents)
	router.GET("/version", getVersion)

	return router
}

func (h *handlers) listControllers(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, h.reg.Statuses())
}

func (h *handlers) getController(c *gin.Context) {
	st, err := h.reg.Status(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusNotFound, err.Error())
		_ = c.AbortWithError(http.StatusNotFound, err)
		return
	}
	c.IndentedJSON(http.StatusOK, st)
}

func (h *handlers) activateController(c *gin.Context) {
	id := c.Param("id")
	if err := h.reg.Activate(id); err != nil {
		c.IndentedJSON(http.StatusNotFound, err.Error())
		_ = c.AbortWithError(http.StatusNotFound, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("controller %s activated", id))
}

func (h *handlers) deactivateController(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.reg.Status(id); err != nil {
		c.IndentedJSON(http.StatusNotFound, err.Error())
		_ = c.AbortWithError(http.StatusNotFound, err)
		return
	}
	h.reg.Deactivate(id)
	c.IndentedJSON(http.StatusCreated, fmt.Sprintf("controller %s deactivation requested", id))
}

func (h *handlers) resetErrors(c *gin.Context) {
	msg, err := h.reg.ResetErrors(c.Param("id"))
	if err != nil {
		c.IndentedJSON(http.StatusNotFound, err.Error())
		_ = c.AbortWithError(http.StatusNotFound, err)
		return
	}
	c.IndentedJSON(http.StatusCreated, msg)
}

// streamEvents pushes controller events to the client as SSE until it
// disconnects.
func (h *handlers) streamEvents(c *gin.Context) {
	ch := h.hub.Subscribe()
	defer h.hub.Unsubscribe(ch)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, ev.Data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func getVersion(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, version.Version)
}
