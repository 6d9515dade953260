package browser

import "errors"

var (
	// ErrSessionNotReady means a primitive was invoked before session
	// acquisition or after release. A programming-contract violation,
	// never a recoverable runtime condition.
	ErrSessionNotReady = errors.New("browser session is not ready")

	// ErrScreenshotFailed means both the primary JPEG capture and the
	// driver-default fallback failed. Fatal for the current run.
	ErrScreenshotFailed = errors.New("screenshot capture failed")
)
