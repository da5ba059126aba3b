package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	"github.com/bbrks/go-blurhash"
	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// blurHashSize is the target size for BlurHash computation.
// BlurHash doesn't need high resolution; a small thumbnail produces
// nearly identical results in a fraction of the time.
const blurHashSize = 64

// Processed describes a validated upload ready for storage.
type Processed struct {
	// Filename is a random name with the extension of the detected format,
	// e.g. "9f6b7c....webp". Uploads never keep their client-supplied names.
	Filename string
	// BlurHash is a compact placeholder string for the image.
	BlurHash string
	// Format is the detected image format ("jpeg", "png", "gif", "webp").
	Format string
}

// Process validates raw upload bytes as an image and computes its metadata.
// Returns an error if the data does not decode as a supported format.
func Process(data []byte) (*Processed, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	hash, err := computeBlurHash(img)
	if err != nil {
		return nil, fmt.Errorf("compute blurhash: %w", err)
	}

	ext := format
	if format == "jpeg" {
		ext = "jpg"
	}

	return &Processed{
		Filename: fmt.Sprintf("%s.%s", uuid.NewString(), ext),
		BlurHash: hash,
		Format:   format,
	}, nil
}

// computeBlurHash generates a BlurHash string from a decoded image.
// Uses 4x3 components for a good balance of size (~20-30 chars) and detail.
func computeBlurHash(img image.Image) (string, error) {
	return blurhash.Encode(4, 3, resizeForBlurHash(img))
}

// resizeForBlurHash creates a small thumbnail suitable for BlurHash computation.
// Uses simple nearest-neighbor scaling which is fast and sufficient here.
func resizeForBlurHash(img image.Image) image.Image {
	bounds := img.Bounds()
	srcWidth := bounds.Dx()
	srcHeight := bounds.Dy()

	if srcWidth <= blurHashSize && srcHeight <= blurHashSize {
		return img
	}

	var dstWidth, dstHeight int
	if srcWidth > srcHeight {
		dstWidth = blurHashSize
		dstHeight = max((srcHeight*blurHashSize)/srcWidth, 1)
	} else {
		dstHeight = blurHashSize
		dstWidth = max((srcWidth*blurHashSize)/srcHeight, 1)
	}

	dst := image.NewRGBA(image.Rect(0, 0, dstWidth, dstHeight))

	xRatio := float64(srcWidth) / float64(dstWidth)
	yRatio := float64(srcHeight) / float64(dstHeight)

	for y := 0; y < dstHeight; y++ {
		for x := 0; x < dstWidth; x++ {
			srcX := int(float64(x) * xRatio)
			srcY := int(float64(y) * yRatio)
			dst.Set(x, y, img.At(bounds.Min.X+srcX, bounds.Min.Y+srcY))
		}
	}

	return dst
}
