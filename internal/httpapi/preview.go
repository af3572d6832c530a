package httpapi

import (
	"context"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/qforge/qforge/internal/service"
	"github.com/qforge/qforge/internal/validation"
)

const (
	previewWriteWait = 10 * time.Second
	previewPongWait  = 60 * time.Second
	previewPingEvery = (previewPongWait * 9) / 10
)

var previewUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

type previewInbound struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
	Seed    *int64 `json:"seed,omitempty"`
}

type previewOutbound struct {
	Type       string             `json:"type"`
	Result     *service.Rendered  `json:"result,omitempty"`
	Validation *validation.Result `json:"validation,omitempty"`
	Message    string             `json:"message,omitempty"`
}

// preview keeps a template open over a websocket. "render" replaces the
// template and renders it, "reroll" renders the current template with a
// fresh seed, "validate" checks it without rendering.
func (s *Server) preview(c echo.Context) error {
	conn, err := previewUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return nil
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(previewPongWait)); err != nil {
		return nil
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(previewPongWait))
	})

	writeCh := make(chan previewOutbound, 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(previewPingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(previewWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(previewWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	var content string
	for {
		var in previewInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return nil
		}

		var out previewOutbound
		switch strings.ToLower(strings.TrimSpace(in.Type)) {
		case "ping":
			out = previewOutbound{Type: "pong"}
		case "render":
			if strings.TrimSpace(in.Content) == "" {
				out = previewOutbound{Type: "error", Message: "content is required"}
				break
			}
			content = in.Content
			out = previewOutbound{Type: "result", Result: s.opts.Service.Render(ctx, content, in.Seed, "")}
		case "reroll":
			if content == "" {
				out = previewOutbound{Type: "error", Message: "nothing to reroll, send render first"}
				break
			}
			out = previewOutbound{Type: "result", Result: s.opts.Service.Render(ctx, content, nil, "")}
		case "validate":
			src := in.Content
			if src == "" {
				src = content
			}
			res := s.opts.Service.Engine.Validate(src)
			out = previewOutbound{Type: "validation", Validation: &res}
		default:
			out = previewOutbound{Type: "error", Message: "unsupported type: " + in.Type}
		}

		select {
		case writeCh <- out:
		case <-writerDone:
			return nil
		}
	}
}
