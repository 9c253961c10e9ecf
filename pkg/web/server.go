// Package web serves the scanner page: live preview, overlay, decoded text,
// error banner and the reset action.
package web

import (
	"context"
	_ "embed"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-scanner/internal/log"
	"github.com/teslashibe/go-scanner/pkg/camera"
	"github.com/teslashibe/go-scanner/pkg/hub"
	"github.com/teslashibe/go-scanner/pkg/overlay"
	"github.com/teslashibe/go-scanner/pkg/scanner"
)

//go:embed static/index.html
var indexHTML []byte

// Version is reported by /health.
var Version = "0.1.0"

// Scanner is what the page needs from the scan controller.
type Scanner interface {
	State() scanner.State
	Reset() error
	Overlay() *overlay.Renderer
}

// Config for the web server.
type Config struct {
	Addr       string
	AccessLog  bool
	AllowCORS  bool
	FrameEvery time.Duration // minimum gap between encoded preview frames
}

// Server is the scanner web shell
type Server struct {
	app     *fiber.App
	cfg     Config
	scanner Scanner
	cameras *camera.Manager
	log     *slog.Logger

	// Hubs for websocket broadcast
	stateHub  *hub.Hub
	cameraHub *hub.Hub

	// Latest encoded preview frame
	frame     []byte
	frameAt   time.Time
	frameMu   sync.RWMutex
	frameCh   chan image.Image
	encodedAt time.Time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer creates a new web server. cameras may be nil, which disables
// the camera settings API.
func NewServer(cfg Config, sc Scanner, cameras *camera.Manager) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg,
		scanner:   sc,
		cameras:   cameras,
		log:       log.With("component", "web"),
		stateHub:  hub.New("state"),
		cameraHub: hub.New("camera"),
		frameCh:   make(chan image.Image, 1),
		ctx:       ctx,
		cancel:    cancel,
	}

	app := fiber.New(fiber.Config{
		AppName:               "Barcode Reader",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if cfg.AllowCORS {
		app.Use(cors.New())
	}
	if cfg.AccessLog {
		app.Use(logger.New())
	}

	app.Get("/", s.handleIndex)
	app.Get("/health", s.handleHealth)

	api := app.Group("/api")
	api.Get("/state", s.handleState)
	api.Post("/reset", s.handleReset)
	api.Get("/overlay.png", s.handleOverlay)
	api.Get("/frame.jpg", s.handleFrame)
	api.Get("/camera", s.handleGetCamera)
	api.Post("/camera", s.handleUpdateCamera)
	api.Get("/camera/presets", s.handleCameraPresets)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/state", websocket.New(s.handleStateWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// App exposes the fiber app (used by tests).
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and the preview encoder, then serves until Shutdown.
func (s *Server) Start() error {
	s.log.Info("web shell listening", "url", "http://localhost"+s.cfg.Addr)

	s.wg.Add(3)
	go func() {
		defer s.wg.Done()
		s.stateHub.Run(s.ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.cameraHub.Run(s.ctx)
	}()
	go func() {
		defer s.wg.Done()
		s.encodeLoop()
	}()

	return s.app.Listen(s.cfg.Addr)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			s.log.Error("web server error", "error", err)
		}
	}()
}

// PublishState broadcasts a state snapshot to /ws/state clients.
// Suitable as scanner.Options.OnChange.
func (s *Server) PublishState(st scanner.State) {
	if err := s.stateHub.BroadcastJSON(st); err != nil {
		s.log.Warn("encode state", "error", err)
	}
}

// PublishFrame hands a camera frame to the preview encoder without
// blocking. Suitable as scanner.Options.OnFrame.
func (s *Server) PublishFrame(img image.Image) {
	select {
	case s.frameCh <- img:
	default:
		// encoder busy, skip this frame
	}
}

func (s *Server) encodeLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case img := <-s.frameCh:
			s.encodeFrame(img)
		}
	}
}

func (s *Server) encodeFrame(img image.Image) {
	watching := s.cameraHub.ClientCount() > 0
	if !watching && time.Since(s.encodedAt) < time.Second {
		return
	}
	if s.cfg.FrameEvery > 0 && time.Since(s.encodedAt) < s.cfg.FrameEvery {
		return
	}

	cfg := camera.DefaultConfig()
	if s.cameras != nil {
		cfg = s.cameras.GetConfig()
	}

	data, err := EncodePreview(img, cfg.PreviewWidth, cfg.Quality)
	if err != nil {
		s.log.Warn("encode preview", "error", err)
		return
	}
	s.encodedAt = time.Now()

	s.frameMu.Lock()
	s.frame = data
	s.frameAt = s.encodedAt
	s.frameMu.Unlock()

	if watching {
		s.cameraHub.BroadcastBinary(data)
	}
}

// Shutdown stops the hubs and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	err := s.app.ShutdownWithContext(ctx)
	s.wg.Wait()
	return err
}
