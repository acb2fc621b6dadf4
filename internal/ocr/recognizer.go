package ocr

import (
	"context"
	"fmt"
	"image"
)

// Fragment is one recognized text snippet.
//
// Index is the fragment's position in the engine's emission order. It is the
// only ordering signal available when two rows share the same base label, so
// implementations must preserve the order the engine produced.
type Fragment struct {
	// Text is the recognized snippet, as emitted by the engine.
	Text string `json:"text"`

	// Confidence is the engine's confidence score, normalized to [0, 1].
	Confidence float64 `json:"confidence"`

	// Index is the zero-based position in the emission order.
	Index int `json:"index"`
}

// Recognizer is the fragment source contract: one image in, an ordered list
// of fragments out.
//
// Implementations may be slow and may fail; callers are expected to wrap
// Recognize with their own timeout and failure handling. An empty slice is a
// valid "no text found" result.
type Recognizer interface {
	// Name identifies the engine (e.g. "tesseract") for diagnostics.
	Name() string

	// Recognize extracts text fragments from the image. Implementations
	// should honor ctx cancellation where the underlying engine allows it.
	Recognize(ctx context.Context, img image.Image) ([]Fragment, error)
}

// EngineError wraps a failure from the underlying recognition engine.
type EngineError struct {
	Engine string
	Err    error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("ocr engine %s: %v", e.Engine, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// New constructs the recognizer named by engine.
//
// Supported engines:
//   - "tesseract" (or ""): Tesseract via gosseract, using the given language
//     codes (e.g. "eng", "chi_sim"). Defaults to eng+chi_sim when none given.
//
// Unknown engine names are an error; selection is deliberate configuration,
// never import-time fallback.
func New(engine string, languages []string) (Recognizer, error) {
	switch engine {
	case "", "tesseract":
		return NewTesseract(languages), nil
	default:
		return nil, fmt.Errorf("unknown ocr engine: %q", engine)
	}
}
