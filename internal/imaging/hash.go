package imaging

import (
	"crypto/md5"
	"encoding/hex"
	"image"

	"github.com/disintegration/imaging"
)

// hashEdge is the downsample size used for frame hashing. Hashing a
// fixed-size thumbnail makes the digest insensitive to the source
// resolution while still distinguishing different display states.
const hashEdge = 64

// Hash returns a stable hex digest identifying the frame's content,
// computed over a 64x64 downsample. Used as the frame component of
// result cache keys.
func Hash(img image.Image) string {
	thumb := imaging.Resize(img, hashEdge, hashEdge, imaging.NearestNeighbor)
	sum := md5.Sum(thumb.Pix)
	return hex.EncodeToString(sum[:])
}
