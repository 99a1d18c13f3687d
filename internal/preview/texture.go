package preview

import (
	"fmt"
	"image"
	"image/draw"
	"os"

	// Decoders for the texture formats equipment assets ship in.
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
)

// LoadTexture decodes a texture file (TGA, PNG, JPEG or BMP) into NRGBA for
// the sampler's direct pixel access.
func LoadTexture(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("preview: open texture %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("preview: decode texture %s: %w", path, err)
	}

	if n, ok := img.(*image.NRGBA); ok {
		return n, nil
	}
	b := img.Bounds()
	n := image.NewNRGBA(b)
	draw.Draw(n, b, img, b.Min, draw.Src)
	return n, nil
}
