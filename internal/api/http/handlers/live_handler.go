package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/api/dto"
	"github.com/genesisthayy-cmyk/PROYECTO-MEDUCA/internal/live"
)

// LiveHandler streams observation view snapshots as server-sent events.
type LiveHandler struct {
	hub       *live.Hub
	keepAlive time.Duration
	retry     time.Duration
	logger    *zap.Logger
}

// NewLiveHandler constructs handler.
func NewLiveHandler(hub *live.Hub, keepAlive, retry time.Duration, logger *zap.Logger) *LiveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LiveHandler{hub: hub, keepAlive: keepAlive, retry: retry, logger: logger}
}

// Stream handles GET /admin/tickets/stream and GET /support/tickets/stream.
// Every event carries the complete list; clients replace what they show.
func (h *LiveHandler) Stream(view live.View) fiber.Handler {
	return func(c *fiber.Ctx) error {
		snapshots, cancel := h.hub.Subscribe(view)

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		keepAlive, retry, logger := h.keepAlive, h.retry, h.logger
		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cancel()
			ticker := time.NewTicker(keepAlive)
			defer ticker.Stop()

			fmt.Fprintf(w, "retry: %d\n\n", retry.Milliseconds())
			if err := w.Flush(); err != nil {
				return
			}
			for {
				select {
				case snap, ok := <-snapshots:
					if !ok {
						return
					}
					if err := writeSnapshot(w, snap); err != nil {
						logger.Warn("snapshot encode failed", zap.String("view", string(view)), zap.Error(err))
						return
					}
				case <-ticker.C:
					if _, err := w.WriteString(": keep-alive\n\n"); err != nil {
						return
					}
				}
				if err := w.Flush(); err != nil {
					// client went away
					return
				}
			}
		}))
		return nil
	}
}

func writeSnapshot(w *bufio.Writer, snap live.Snapshot) error {
	data, err := json.Marshal(snapshotResponse(snap))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: snapshot\nid: %d\ndata: %s\n\n", snap.Revision, data)
	return err
}

func snapshotResponse(snap live.Snapshot) dto.SnapshotResponse {
	resp := dto.SnapshotResponse{
		View:      string(snap.View),
		Revision:  snap.Revision,
		UpdatedAt: snap.UpdatedAt,
		Count:     len(snap.Tickets),
	}
	if snap.View == live.ViewSupport {
		resp.Tickets = supportTicketResponses(snap.Tickets)
	} else {
		resp.Tickets = ticketResponses(snap.Tickets)
	}
	return resp
}
