package ocr

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text using the system Tesseract installation via
// gosseract/v2. A fresh client is created per call; gosseract clients are not
// safe for concurrent reuse.
type Tesseract struct {
	languages []string
}

// NewTesseract creates a Tesseract recognizer for the given language codes.
// Defaults to eng+chi_sim when no languages are given, matching the mixed
// Chinese/English instrument displays this service reads.
func NewTesseract(languages []string) *Tesseract {
	if len(languages) == 0 {
		languages = []string{"eng", "chi_sim"}
	}
	return &Tesseract{languages: languages}
}

// Name reports "tesseract".
func (t *Tesseract) Name() string { return "tesseract" }

// Recognize performs OCR on img and returns line-level fragments in the
// engine's emission order.
//
// The image is handed to Tesseract through a temporary PNG file, which is
// removed before returning. Line-level granularity (RIL_TEXTLINE) is used
// because the displays this service reads lay one field per line; if
// bounding-box extraction fails, the full text is split on newlines instead
// and fragments carry a zero confidence.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) ([]Fragment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tmpFile, err := os.CreateTemp("", "telemetry-ocr-*.png")
	if err != nil {
		return nil, &EngineError{Engine: t.Name(), Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if err := png.Encode(tmpFile, img); err != nil {
		tmpFile.Close()
		return nil, &EngineError{Engine: t.Name(), Err: fmt.Errorf("encode temp image: %w", err)}
	}
	tmpFile.Close()

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return nil, &EngineError{Engine: t.Name(), Err: fmt.Errorf("set language: %w", err)}
	}
	if err := client.SetImage(tmpPath); err != nil {
		return nil, &EngineError{Engine: t.Name(), Err: fmt.Errorf("set image: %w", err)}
	}

	text, err := client.Text()
	if err != nil {
		return nil, &EngineError{Engine: t.Name(), Err: err}
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		// Boxes can fail on some Tesseract builds; the text is still usable.
		return fragmentsFromText(text), nil
	}

	frags := make([]Fragment, 0, len(boxes))
	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}
		frags = append(frags, Fragment{
			Text:       word,
			Confidence: float64(box.Confidence) / 100.0,
			Index:      len(frags),
		})
	}
	return frags, nil
}

// fragmentsFromText splits full OCR text into line fragments. Used as a
// fallback when per-line bounding boxes are unavailable; confidence is
// unknown and reported as zero.
func fragmentsFromText(text string) []Fragment {
	var frags []Fragment
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		frags = append(frags, Fragment{Text: line, Index: len(frags)})
	}
	return frags
}

// Info describes the availability of the OCR engine on this system.
type Info struct {
	Available bool   `json:"available"`
	Engine    string `json:"engine"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Probe checks whether the Tesseract installation is usable and reports its
// version. It never panics on a missing installation; failures are reported
// in the returned Info.
func Probe() Info {
	client := gosseract.NewClient()
	defer client.Close()

	version := client.Version()
	if version == "" {
		return Info{Available: false, Engine: "tesseract", Error: "tesseract not found"}
	}
	return Info{Available: true, Engine: "tesseract", Version: version}
}
