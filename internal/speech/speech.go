// Package speech defines the voice-input capability. Transcription is an
// external capability (a browser or platform API in the original clients),
// so the rest of the system only ever sees this interface.
package speech

import (
	"context"
	"errors"
)

// ErrUnsupported means no transcription backend is available.
var ErrUnsupported = errors.New("speech recognition not supported")

// Transcriber converts captured audio into text. Implementations must
// release any device handle they hold when Close is called.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
	Close() error
}

// Unsupported is the stand-in used when no backend is wired. Callers are
// expected to disable voice input rather than fail.
type Unsupported struct{}

// Transcribe always reports the capability as missing.
func (Unsupported) Transcribe(context.Context, []byte) (string, error) {
	return "", ErrUnsupported
}

// Close releases nothing.
func (Unsupported) Close() error { return nil }
