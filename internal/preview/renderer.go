package preview

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"

	"avatar-fitter/internal/geom"
	"avatar-fitter/internal/mathutil"
)

// Item is one mesh in the scene with its flat base color and an optional
// texture sampled through the mesh UVs.
type Item struct {
	Mesh    *geom.Mesh
	Color   color.NRGBA
	Texture *image.NRGBA
}

// Scene is everything one preview frame shows.
type Scene struct {
	Items []Item

	// Markers are world-space points drawn as screen-space squares, used to
	// flag collision contacts.
	Markers     []mathutil.Vec3
	MarkerColor color.NRGBA

	Camera Camera
}

// Render draws the scene at the given output size. Rendering happens at
// size×supersample and is downsampled with alpha-aware filtering.
func Render(scene Scene, size, supersample int) *image.NRGBA {
	if supersample < 1 {
		supersample = 1
	}
	ss := size * supersample
	fb := newFrameBuffer(ss, ss)
	lc := defaultLightConfig()

	bounds := geom.EmptyBox()
	for _, it := range scene.Items {
		b := it.Mesh.WorldBounds()
		bounds.Extend(b.Min)
		bounds.Extend(b.Max)
	}
	for _, m := range scene.Markers {
		bounds.Extend(m)
	}
	if bounds.IsEmpty() {
		return fb.Image()
	}

	rot, center, scale := scene.Camera.frame(bounds, ss)

	for _, it := range scene.Items {
		m := it.Mesh
		world := make([]mathutil.Vec3, m.VertexCount())
		for i := range world {
			world[i] = m.WorldPosition(i)
		}
		px, py, pz := project(world, rot, center, scale, ss)

		for t := 0; t < m.TriangleCount(); t++ {
			i0, i1, i2 := m.Triangle(t)
			rasterizeTriangle(fb, px, py, pz, m.UVs, [3]int{i0, i1, i2},
				it.Texture, it.Color.R, it.Color.G, it.Color.B, it.Color.A, &lc)
		}
	}

	if len(scene.Markers) > 0 {
		mc := scene.MarkerColor
		if mc.A == 0 {
			mc = color.NRGBA{R: 255, G: 40, B: 40, A: 255}
		}
		px, py, pz := project(scene.Markers, rot, center, scale, ss)
		radius := supersample * 2
		for i := range scene.Markers {
			splatMarker(fb, px[i], py[i], pz[i], radius, mc)
		}
	}

	img := fb.Image()
	if ss > size {
		img = downsample(img, size)
	}
	return img
}

// splatMarker draws a depth-tested square. A small depth bias keeps markers
// visible on the surface they sit on.
func splatMarker(fb *frameBuffer, x, y, z float64, radius int, c color.NRGBA) {
	const bias = 1e-3
	cx, cy := int(x), int(y)
	for sy := cy - radius; sy <= cy+radius; sy++ {
		if sy < 0 || sy >= fb.Height {
			continue
		}
		for sx := cx - radius; sx <= cx+radius; sx++ {
			if sx < 0 || sx >= fb.Width {
				continue
			}
			zIdx := sy*fb.Width + sx
			if z+bias <= fb.ZBuf[zIdx] {
				continue
			}
			fb.ZBuf[zIdx] = z + bias
			pxIdx := zIdx * 4
			fb.Color[pxIdx] = c.R
			fb.Color[pxIdx+1] = c.G
			fb.Color[pxIdx+2] = c.B
			fb.Color[pxIdx+3] = c.A
		}
	}
}

// WriteWebP encodes the image to path, creating parent directories.
func WriteWebP(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("preview: mkdir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("preview: create %s: %w", path, err)
	}
	defer f.Close()

	if err := nativewebp.Encode(f, img, nil); err != nil {
		return fmt.Errorf("preview: webp encode %s: %w", path, err)
	}
	return nil
}
