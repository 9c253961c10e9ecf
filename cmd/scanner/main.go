// Scanner - live barcode reader
//
// Opens a camera, decodes barcodes continuously and serves the scanner page
// with the preview, the bounding box overlay and the last decoded text.
package main

import (
	"context"
	"flag"
	"image"
	stdlog "log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gogpu/gg"
	"github.com/teslashibe/go-scanner/internal/config"
	"github.com/teslashibe/go-scanner/internal/log"
	"github.com/teslashibe/go-scanner/pkg/camera"
	"github.com/teslashibe/go-scanner/pkg/decode"
	"github.com/teslashibe/go-scanner/pkg/overlay"
	"github.com/teslashibe/go-scanner/pkg/scanner"
	"github.com/teslashibe/go-scanner/pkg/web"
)

func main() {
	cfg := parseFlags()

	log.InitWithOptions(cfg.Log.Options())
	gg.SetLogger(log.With("component", "gg"))

	dec, err := decode.NewMultiReader(cfg.Decoder)
	if err != nil {
		stdlog.Fatalf("❌ Decoder error: %v", err)
	}

	cameras := camera.NewManager(cfg.Camera)

	var srv *web.Server
	ctrl := scanner.New(scanner.Options{
		Open:    camera.OpenDevice,
		Decoder: dec,
		Overlay: overlay.NewCanvas(cfg.Camera.Width, cfg.Camera.Height, cfg.Overlay),
		Config:  cameras.GetConfig,
		OnFrame: func(img image.Image) {
			srv.PublishFrame(img)
		},
		OnChange: func(st scanner.State) {
			srv.PublishState(st)
		},
	})

	srv = web.NewServer(web.Config{
		Addr:      cfg.Server.Addr(),
		AccessLog: cfg.Server.AccessLog,
		AllowCORS: cfg.Server.CORS,
	}, ctrl, cameras)

	// New camera settings take effect in a fresh session
	cameras.OnConfigChange = func(c camera.Config) error {
		log.Info("camera config changed", "camera", c.String())
		return ctrl.Reset()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv.StartAsync()

	if err := ctrl.Start(); err != nil {
		// The page shows the camera message; Reset retries.
		log.Warn("camera not started", "error", err)
	} else {
		log.Info("scanning", "camera", cfg.Camera.String(), "formats", cfg.Decoder.Formats)
	}

	<-ctx.Done()
	log.Info("shutting down")

	if err := ctrl.Stop(); err != nil {
		log.Warn("stop scanner", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown web server", "error", err)
	}
}

// parseFlags loads the config file and applies command line overrides.
func parseFlags() config.Config {
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides config and SCANNER_PORT)")
	device := flag.String("device", "", "Camera index or device path")
	preset := flag.String("preset", "", "Camera preset: "+strings.Join(camera.PresetNames(), ", "))
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatalf("❌ Configuration error: %v", err)
	}

	if *preset != "" {
		p := camera.GetPreset(*preset)
		if p == nil {
			stdlog.Fatalf("❌ Unknown preset %q", *preset)
		}
		dev := cfg.Camera.Device
		cfg.Camera = *p
		cfg.Camera.Device = dev
	}
	if *device != "" {
		cfg.Camera.Device = *device
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *debug {
		cfg.Log.Level = "debug"
	}

	if err := config.Validate(cfg); err != nil {
		stdlog.Fatalf("❌ Configuration error: %v", err)
	}
	return cfg
}
