// Package state holds the scanner snapshot shared by the server and its
// clients. It has no camera dependency, so clients build without OpenCV.
package state

import (
	"time"

	"github.com/teslashibe/go-scanner/pkg/decode"
	"github.com/teslashibe/go-scanner/pkg/overlay"
)

// User-facing messages. Raw errors are only logged.
const (
	MessageScanFailed        = "An error occurred while scanning. Please try again."
	MessageCameraUnavailable = "Camera unavailable. Check that a camera is connected and that access is allowed."
)

// State is a read-only snapshot of the scanner.
type State struct {
	SessionID  string         `json:"session_id,omitempty"`
	Scanning   bool           `json:"scanning"`
	LastResult *decode.Result `json:"last_result,omitempty"`
	LastError  string         `json:"last_error,omitempty"`
	Box        *overlay.Box   `json:"box,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
