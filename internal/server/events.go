package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var errNoBroker = errors.New("change notifications are not enabled")

// events streams change notifications for the current user as
// Server-Sent Events, with a comment heartbeat to keep proxies open.
func (s *Server) events(c *gin.Context) {
	if s.deps.Broker == nil {
		abortError(c, http.StatusServiceUnavailable, codeUnavailable, errNoBroker.Error())
		return
	}
	user := currentUser(c)
	ctx := c.Request.Context()

	ch, cancel := s.deps.Broker.Subscribe(ctx, user)
	defer cancel()

	s.deps.Metrics.SSEOpened()
	defer s.deps.Metrics.SSEClosed()

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	writeEvent(c.Writer, "ready", gin.H{"userId": user})
	c.Writer.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			writeEvent(c.Writer, "progress", ev)
			c.Writer.Flush()
		case <-ticker.C:
			_, _ = io.WriteString(c.Writer, ": ping\n\n")
			c.Writer.Flush()
		}
	}
}

func writeEvent(w io.Writer, name string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
}
