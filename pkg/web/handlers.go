package web

import (
	"bytes"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-scanner/pkg/camera"
	"github.com/teslashibe/go-scanner/pkg/hub"
)

// handleIndex serves the scanner page
func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.Send(indexHTML)
}

// handleHealth reports liveness and whether a session is running
func (s *Server) handleHealth(c *fiber.Ctx) error {
	st := s.scanner.State()
	return c.JSON(fiber.Map{
		"status":   "ok",
		"version":  Version,
		"scanning": st.Scanning,
		"clients":  s.stateHub.ClientCount() + s.cameraHub.ClientCount(),
	})
}

// handleState returns the current scan state
func (s *Server) handleState(c *fiber.Ctx) error {
	return c.JSON(s.scanner.State())
}

// handleReset restarts the scan session. The body is always the resulting
// state; a camera that failed to reopen shows up in its last_error.
func (s *Server) handleReset(c *fiber.Ctx) error {
	err := s.scanner.Reset()
	st := s.scanner.State()
	if err != nil {
		s.log.Warn("reset failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(st)
	}
	return c.JSON(st)
}

// handleOverlay renders the overlay canvas as PNG
func (s *Server) handleOverlay(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := s.scanner.Overlay().EncodePNG(&buf); err != nil {
		s.log.Warn("encode overlay", "error", err)
		return c.Status(500).JSON(fiber.Map{
			"error": "overlay unavailable",
		})
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Type("png")
	return c.Send(buf.Bytes())
}

// handleFrame returns the latest preview frame
func (s *Server) handleFrame(c *fiber.Ctx) error {
	s.frameMu.RLock()
	frame, at := s.frame, s.frameAt
	s.frameMu.RUnlock()

	if frame == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no frame yet",
		})
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set(fiber.HeaderLastModified, at.UTC().Format(http.TimeFormat))
	c.Type("jpg")
	return c.Send(frame)
}

// handleGetCamera returns the camera settings
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.cameras == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera settings not available",
		})
	}
	return c.JSON(fiber.Map{
		"config":       s.cameras.GetConfigJSON(),
		"capabilities": camera.Capabilities(),
	})
}

// handleUpdateCamera applies a partial camera update or a preset
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.cameras == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "camera settings not available",
		})
	}

	var params map[string]interface{}
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid body",
		})
	}

	if err := s.cameras.UpdateConfig(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"config": s.cameras.GetConfigJSON(),
		"state":  s.scanner.State(),
	})
}

// handleCameraPresets lists the camera presets
func (s *Server) handleCameraPresets(c *fiber.Ctx) error {
	return c.JSON(camera.Presets())
}

// handleStateWS streams state snapshots
func (s *Server) handleStateWS(c *websocket.Conn) {
	hub.NewClient(s.stateHub, c).Run()
}

// handleCameraWS streams JPEG preview frames
func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
