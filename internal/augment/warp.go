package augment

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Warp resamples src through the source-to-destination matrix m into a new
// image with the same dimensions as src. Samples that fall outside src are
// taken from its mirror image (fedcba|abcdef|fedcba). The returned image's
// bounds start at the origin and it is fully opaque.
//
// Interpolation is plain bilinear over the four nearest source pixels at
// every scale, so shrinking transforms alias rather than being smoothed.
func Warp(src image.Image, m f64.Aff3) *image.NRGBA {
	base := opaque(src)
	w, h := base.Bounds().Dx(), base.Bounds().Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	inv, ok := invert(m)
	if !ok {
		return dst
	}

	// Equal margins keep ApproxBiLinear's integer-translation Copy path
	// correct; it offsets both axes by sr.Min.X.
	mx, my := margins(inv, w, h)
	pad := max(mx, my)
	padded := reflectPad(base, pad, pad)
	draw.ApproxBiLinear.Transform(dst, toDrawSpace(m), padded, padded.Bounds(), draw.Src, nil)
	return dst
}

// opaque returns a copy of img with every alpha value set to 255. Colour
// channels keep their stored, unpremultiplied values.
func opaque(img image.Image) *image.NRGBA {
	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out
}

// kernelGuard is the extra border, in pixels, kept around the sampled region
// so the bilinear taps never read past the padded source.
const kernelGuard = 2

// margins returns how far, in pixels, the destination's inverse image
// extends beyond the w×h source on each axis.
func margins(inv f64.Aff3, w, h int) (mx, my int) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	corners := [4][2]float64{
		{0, 0},
		{float64(w - 1), 0},
		{0, float64(h - 1)},
		{float64(w - 1), float64(h - 1)},
	}
	for _, c := range corners {
		x, y := apply(inv, c[0], c[1])
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}

	mx = max(0, int(math.Ceil(-minX)), int(math.Ceil(maxX))-(w-1)) + kernelGuard
	my = max(0, int(math.Ceil(-minY)), int(math.Ceil(maxY))-(h-1)) + kernelGuard
	return mx, my
}

// reflectPad surrounds src with mx columns and my rows of mirrored pixels.
// The result keeps src's coordinates: its bounds are
// (-mx, -my)-(w+mx, h+my). src must have its origin at (0, 0).
func reflectPad(src *image.NRGBA, mx, my int) *image.NRGBA {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	kx := (mx + w - 1) / w
	ky := (my + h - 1) / h

	// Indexed by [mirrored horizontally][mirrored vertically].
	tiles := [2][2]*image.NRGBA{
		{src, imaging.FlipV(src)},
		{imaging.FlipH(src), imaging.Rotate180(src)},
	}

	canvas := imaging.New((2*kx+1)*w, (2*ky+1)*h, color.NRGBA{})
	for j := -ky; j <= ky; j++ {
		for i := -kx; i <= kx; i++ {
			tile := tiles[abs(i)%2][abs(j)%2]
			at := image.Pt((i+kx)*w, (j+ky)*h)
			draw.Copy(canvas, at, tile, tile.Bounds(), draw.Src, nil)
		}
	}

	padded := imaging.Crop(canvas, image.Rect(kx*w-mx, ky*h-my, kx*w+w+mx, ky*h+h+my))
	padded.Rect = padded.Rect.Sub(image.Pt(mx, my))
	return padded
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
