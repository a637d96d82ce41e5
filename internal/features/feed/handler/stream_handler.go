package handler

import (
	"bufio"
	"fmt"
	"strings"
	"sync"
	"time"

	"cargo-pipeline/internal/core/logger"
	"cargo-pipeline/internal/core/server"
	"cargo-pipeline/internal/features/feed/domain"
	"cargo-pipeline/internal/features/feed/service"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

const defaultHeartbeat = 25 * time.Second

// StreamHandler serves the change feed as server-sent events.
type StreamHandler struct {
	hub       *service.Hub
	debounce  time.Duration
	heartbeat time.Duration
	stop      <-chan struct{}
}

// NewStreamHandler creates a StreamHandler. Streams end when stop is closed.
func NewStreamHandler(hub *service.Hub, debounce time.Duration, stop <-chan struct{}) *StreamHandler {
	return &StreamHandler{
		hub:       hub,
		debounce:  debounce,
		heartbeat: defaultHeartbeat,
		stop:      stop,
	}
}

// Stream handles GET /feed.
// @Summary Stream table changes
// @Description Server-sent events; each frame names a table whose rows changed. Frames carry no row data.
// @Tags feed
// @Produce text/event-stream
// @Security BearerAuth
// @Param tables query string false "Comma separated: orders,boxes,containers (default all)"
// @Success 200 {string} string
// @Failure 400 {object} server.ErrorResponse
// @Router /feed [get]
func (h *StreamHandler) Stream(c *fiber.Ctx) error {
	tables, err := parseTables(c.Query("tables"))
	if err != nil {
		return server.BadRequest(c, err.Error())
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	s := newSession(h.hub, tables, h.debounce, h.heartbeat, h.stop)
	rayID := server.RayID(c)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		logger.Get().Debug("Feed stream opened", zap.String("ray_id", rayID), zap.Any("tables", tables))
		s.run(w)
		logger.Get().Debug("Feed stream closed", zap.String("ray_id", rayID))
	}))
	return nil
}

// parseTables reads the tables filter. Empty means every table.
func parseTables(raw string) ([]domain.Table, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.Tables, nil
	}
	var out []domain.Table
	for _, part := range strings.Split(raw, ",") {
		t, err := domain.ParseTable(part)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// session is one connected stream. Notifications mark tables dirty; the debouncer
// wakes the writer once per burst.
type session struct {
	hub       *service.Hub
	tables    []domain.Table
	heartbeat time.Duration
	stop      <-chan struct{}

	mu    sync.Mutex
	dirty map[domain.Table]bool
	wake  chan struct{}
	deb   *service.Debouncer
}

func newSession(hub *service.Hub, tables []domain.Table, debounce, heartbeat time.Duration, stop <-chan struct{}) *session {
	s := &session{
		hub:       hub,
		tables:    tables,
		heartbeat: heartbeat,
		stop:      stop,
		dirty:     make(map[domain.Table]bool),
		wake:      make(chan struct{}, 1),
	}
	s.deb = service.NewDebouncer(debounce, func() {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	})
	return s
}

func (s *session) run(w *bufio.Writer) {
	handles := make([]service.Handle, 0, len(s.tables))
	for _, t := range s.tables {
		handles = append(handles, s.hub.Subscribe(t, func() {
			s.mu.Lock()
			s.dirty[t] = true
			s.mu.Unlock()
			s.deb.Trigger()
		}))
	}
	defer func() {
		for _, h := range handles {
			s.hub.Unsubscribe(h)
		}
		s.deb.Stop()
	}()

	if err := writeComment(w, "connected"); err != nil {
		return
	}

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if err := writeComment(w, "ping"); err != nil {
				return
			}
		case <-s.wake:
			for _, t := range s.drain() {
				if err := writeChange(w, t); err != nil {
					return
				}
			}
		}
	}
}

// drain returns the dirty tables in subscription order and clears them.
func (s *session) drain() []domain.Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Table
	for _, t := range s.tables {
		if s.dirty[t] {
			out = append(out, t)
		}
	}
	clear(s.dirty)
	return out
}

func writeChange(w *bufio.Writer, t domain.Table) error {
	if _, err := fmt.Fprintf(w, "event: change\ndata: %s\n\n", t); err != nil {
		return err
	}
	return w.Flush()
}

func writeComment(w *bufio.Writer, text string) error {
	if _, err := fmt.Fprintf(w, ": %s\n\n", text); err != nil {
		return err
	}
	return w.Flush()
}
