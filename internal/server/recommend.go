package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tuanvm/tripagent/internal/agent"
)

// Runner is the pipeline surface the HTTP layer depends on.
type Runner interface {
	Run(ctx context.Context, payload map[string]interface{}) (agent.Result, error)
	RunStream(ctx context.Context, payload map[string]interface{}, sink agent.EventSink) (agent.Result, error)
}

// Handler serves the recommendation endpoints.
type Handler struct {
	Runner     Runner
	Logger     *log.Logger
	TokenDelay time.Duration
}

// Register attaches routes. The streaming endpoint is optional.
func (h *Handler) Register(e *echo.Echo, streamEnabled bool) {
	e.POST("/recommendations", h.recommendations)
	e.POST("/plan", h.recommendations)
	if streamEnabled {
		e.POST("/recommendations/stream", h.stream)
	}
}

func (h *Handler) recommendations(c echo.Context) error {
	payload, err := bindPayload(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.Runner.Run(c.Request().Context(), payload)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

type sseEvent struct {
	name string
	data interface{}
}

// stream runs the pipeline in a worker goroutine and relays its events as
// SSE. The worker guarantees exactly one terminal done event whatever path
// the run takes, so the relay loop always ends. Sends race against the gone
// channel so the worker cannot block on a full buffer after the client
// disconnects and the relay has stopped draining.
func (h *Handler) stream(c echo.Context) error {
	payload, err := bindPayload(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("X-Accel-Buffering", "no")
	resp.WriteHeader(http.StatusOK)

	events := make(chan sseEvent, 64)
	gone := make(chan struct{})
	defer close(gone)
	emit := func(name string, data interface{}) {
		select {
		case events <- sseEvent{name: name, data: data}:
		case <-gone:
		}
	}

	ctx := c.Request().Context()
	go func() {
		defer emit(agent.EventDone, map[string]interface{}{})
		defer func() {
			if r := recover(); r != nil {
				h.Logger.Printf("stream worker panic: %v", r)
				emit(agent.EventError, map[string]interface{}{"message": fmt.Sprint(r)})
			}
		}()

		result, err := h.Runner.RunStream(ctx, payload, func(event string, data map[string]interface{}) {
			emit(event, data)
		})
		if err != nil {
			emit(agent.EventError, map[string]interface{}{"message": err.Error()})
			return
		}

		message := strings.TrimSpace(result.Answer)
		if message == "" {
			message = agent.FallbackAnswer
		}
		for _, token := range strings.Fields(message) {
			emit(agent.EventToken, map[string]interface{}{"text": token + " "})
			if h.TokenDelay > 0 {
				time.Sleep(h.TokenDelay)
			}
		}
		emit(agent.EventFinal, result)
	}()

	for ev := range events {
		data, err := json.Marshal(ev.data)
		if err != nil {
			data = []byte("{}")
		}
		if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", ev.name, data); err != nil {
			return nil
		}
		resp.Flush()
		if ev.name == agent.EventDone {
			break
		}
	}
	return nil
}

// bindPayload reads the request body as a JSON object. An empty body is an
// empty payload; anything else non-object is a client error.
func bindPayload(c echo.Context) (map[string]interface{}, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return map[string]interface{}{}, nil
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.New("payload must be a JSON object")
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	return payload, nil
}
