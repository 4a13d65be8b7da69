// Package monitor hosts the harness in a browser. Pages connect
// over a WebSocket, receive every display update as a JSON event
// and send back viewport changes, dismissals and run requests.
package monitor

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"digital.vasic.harness/pkg/config"
	"digital.vasic.harness/pkg/logging"
	"digital.vasic.harness/pkg/metrics"
	"digital.vasic.harness/pkg/present"
	"digital.vasic.harness/pkg/runner"
)

//go:embed page/index.html
var pageHTML []byte

// Controller is the harness as seen by the browser surface.
type Controller interface {
	// Trigger runs every case and reports the aggregate result.
	Trigger(ctx context.Context) (bool, error)
	// Resize reports a new page viewport.
	Resize(v config.Viewport)
	// Dismiss hides the result overlay.
	Dismiss()
	// Payload returns the latest encoded payload.
	Payload() (text string, pass bool, ok bool)
	// Side returns the current result side length.
	Side() int
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the server logger.
func WithServerLogger(l logging.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithTimeouts sets the page read deadline, write deadline and
// ping interval.
func WithTimeouts(read, write, ping time.Duration) ServerOption {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
		s.pingInterval = ping
	}
}

// WithMetrics exposes m at GET /metrics.
func WithMetrics(m *metrics.MemoryMetrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// Server serves the live page and its API.
type Server struct {
	addr     string
	hub      *Hub
	ctrl     Controller
	logger   logging.Logger
	metrics  *metrics.MemoryMetrics
	upgrader websocket.Upgrader
	echo     *echo.Echo

	readTimeout  time.Duration
	writeTimeout time.Duration
	pingInterval time.Duration

	runCtx context.Context
}

// NewServer creates a server on addr.
func NewServer(addr string, hub *Hub, ctrl Controller, opts ...ServerOption) *Server {
	s := &Server{
		addr:   addr,
		hub:    hub,
		ctrl:   ctrl,
		logger: logging.NullLogger{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		pingInterval: 30 * time.Second,
		runCtx:       context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug(
				"http request",
				logging.StringField("method", v.Method),
				logging.StringField("uri", v.URI),
				logging.IntField("status", v.Status),
			)
			return nil
		},
	}))
	s.registerRoutes(e)
	s.echo = e
	return s
}

func (s *Server) registerRoutes(e *echo.Echo) {
	e.GET("/", s.handlePage)
	e.GET("/ws", s.handleWebSocket)
	e.POST("/run", s.handleRun)
	e.GET("/payload", s.handlePayload)
	e.GET("/qr.png", s.handleCode)
	e.GET("/dashboard", s.handleDashboard)
	e.GET("/metrics", s.handleMetrics)
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves until ctx is done. Runs triggered by pages use ctx.
func (s *Server) Start(ctx context.Context) error {
	s.runCtx = ctx
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.echo.Start(s.addr)
	}()
	s.logger.Info("Monitor listening", logging.StringField("addr", s.addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("monitor server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	}
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handlePage(c echo.Context) error {
	return c.HTMLBlob(http.StatusOK, pageHTML)
}

type runResponse struct {
	Pass   bool   `json:"pass"`
	Result string `json:"result"`
}

func (s *Server) handleRun(c echo.Context) error {
	pass, err := s.trigger()
	if errors.Is(err, runner.ErrRunInProgress) {
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	result := "FAIL"
	if pass {
		result = "PASS"
	}
	return c.JSON(http.StatusOK, runResponse{Pass: pass, Result: result})
}

func (s *Server) trigger() (bool, error) {
	s.hub.SetStatus(StatusRunning)
	pass, err := s.ctrl.Trigger(s.runCtx)
	if err != nil && !errors.Is(err, runner.ErrRunInProgress) {
		s.hub.SetStatus(StatusIdle)
	}
	return pass, err
}

func (s *Server) handlePayload(c echo.Context) error {
	text, _, ok := s.ctrl.Payload()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no run yet")
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, []byte(text))
}

func (s *Server) handleCode(c echo.Context) error {
	text, _, ok := s.ctrl.Payload()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no run yet")
	}

	side := s.ctrl.Side()
	if raw := c.QueryParam("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid size")
		}
		side = n
	}

	code, err := present.EncodeCode(text, side, true)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.Blob(http.StatusOK, "image/png", code.PNG)
}

func (s *Server) handleDashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, s.hub.Dashboard().Snapshot())
}

func (s *Server) handleMetrics(c echo.Context) error {
	if s.metrics == nil {
		return echo.NewHTTPError(http.StatusNotFound, "metrics disabled")
	}
	return c.JSON(http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", logging.ErrorField(err))
		return nil
	}

	conn := s.hub.NewConnection(ws)
	s.hub.Register(conn)

	go s.writePump(conn)
	go s.readPump(conn)
	return nil
}

func (s *Server) readPump(conn *Connection) {
	defer func() {
		s.hub.Unregister(conn)
		_ = conn.Conn.Close()
	}()

	_ = conn.Conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		return conn.Conn.SetReadDeadline(time.Now().Add(s.readTimeout))
	})

	for {
		_, data, err := conn.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(
				err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			) {
				s.logger.Warn("websocket read failed", logging.ErrorField(err))
			}
			return
		}
		s.handleMessage(data)
	}
}

func (s *Server) writePump(conn *Connection) {
	ticker := time.NewTicker(s.pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-conn.Send:
			_ = conn.Conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if !ok {
				_ = conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.Conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage routes one inbound page message.
func (s *Server) handleMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.hub.Notify("invalid message")
		return
	}

	switch msg.Type {
	case MessageResize:
		if msg.Width <= 0 || msg.Height <= 0 {
			s.hub.Notify("invalid viewport")
			return
		}
		s.ctrl.Resize(config.Viewport{Width: msg.Width, Height: msg.Height})
	case MessageDismiss:
		s.ctrl.Dismiss()
	case MessageRun:
		go func() {
			if _, err := s.trigger(); err != nil {
				s.hub.Notify(err.Error())
			}
		}()
	default:
		s.hub.Notify("unknown message type: " + string(msg.Type))
	}
}
