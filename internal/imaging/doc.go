// Package imaging prepares telemetry frames for OCR.
//
// This package implements the image-side half of the extraction pipeline:
// decoding uploaded frames, cropping the configured display region,
// normalizing the frame before recognition, and hashing frames for cache
// lookup. All operations work with standard Go image.Image types and use a
// coordinate system where (0,0) is at the top-left corner, X increases
// rightward, and Y increases downward.
//
// # Preprocessing
//
// Preprocess caps oversized frames to a maximum dimension and applies a
// contrast boost plus a light denoising blur when the frame's measured
// luminance spread is low. Small, well-exposed frames pass through with
// only the size cap applied.
//
// # Frame Hashing
//
// Hash produces a stable hex digest from a 64x64 downsample of the frame.
// Two frames showing the same display state hash identically even when
// the source resolution differs, which is what the result cache keys on.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Undecodable or empty image payloads
//   - Region specifications with non-positive width or height
//   - Regions lying entirely outside the frame
package imaging
