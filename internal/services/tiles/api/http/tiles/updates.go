package tiles

import (
	"context"
	"encoding/json"
	"io"

	"golang.org/x/net/websocket"

	"github.com/louisbranch/wear-tiles/internal/services/tiles/render"
)

// UpdateFrame is one message on the update stream.
type UpdateFrame struct {
	Type             string        `json:"type"`
	Version          uint64        `json:"version,omitempty"`
	ResourcesVersion string        `json:"resources_version,omitempty"`
	Contacts         []ContactJSON `json:"contacts,omitempty"`
	Error            *FrameError   `json:"error,omitempty"`
}

// FrameError reports why a stream ended.
type FrameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Update frame types.
const (
	FrameTypeState = "tile.state"
	FrameTypeError = "tile.error"
)

// streamUpdates pushes a frame for the current state and one per change
// until the client goes away. The subscription keeps the favorites watch
// open while the client is connected.
func (h *handler) streamUpdates(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	ctx, cancel := context.WithCancel(conn.Request().Context())
	defer cancel()
	// Any inbound read error means the client is gone.
	go func() {
		defer cancel()
		_, _ = io.Copy(io.Discard, conn)
	}()

	sub, err := h.svc.Subscribe()
	if err != nil {
		h.sendError(conn, err)
		return
	}
	defer sub.Close()

	encoder := json.NewEncoder(conn)
	var after uint64
	for {
		state, version, err := sub.Next(ctx, after)
		if err != nil {
			if ctx.Err() == nil {
				h.sendError(conn, err)
			}
			return
		}
		after = version
		frame := UpdateFrame{
			Type:             FrameTypeState,
			Version:          version,
			ResourcesVersion: render.ResourcesVersion(state),
			Contacts:         ContactsToJSON(state.Contacts),
		}
		if err := encoder.Encode(frame); err != nil {
			return
		}
	}
}

func (h *handler) sendError(conn *websocket.Conn, err error) {
	serviceErr := mapDomainError(err)
	h.logf("update stream: %v", err)
	locale := h.catalog.Match(conn.Request().Header.Get("Accept-Language"))
	message, _ := h.catalog.Message(locale, serviceErr.Code.MessageKey())
	_ = json.NewEncoder(conn).Encode(UpdateFrame{
		Type:  FrameTypeError,
		Error: &FrameError{Code: string(serviceErr.Code), Message: message},
	})
}
