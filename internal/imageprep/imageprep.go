// Package imageprep turns raw score screenshots into high-contrast binarized
// PNGs suited for text recognition.
//
// The filter chain is fixed; only its numeric parameters come from
// configuration. The transformation is deterministic and keeps no state, so
// the same input bytes always produce the same output bytes.
package imageprep

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"

	"github.com/disintegration/gift"
)

// Params are the tunable knobs of the filter chain.
type Params struct {
	// UpscaleFactor multiplies the source width before recognition.
	UpscaleFactor int
	// Gamma applies gamma correction; 1.0 leaves the image unchanged.
	Gamma float64
	// MedianSize is the median filter kernel size, an odd number.
	MedianSize int
	// BlurSigma is the Gaussian blur radius.
	BlurSigma float64
	// ContrastGain is the slope a of the linear stretch a*x - 100.
	ContrastGain float64
	// WhiteCutoff is the binarization threshold on the 0..255 scale.
	WhiteCutoff int
}

// sharpenKernel emphasizes the center pixel against its four neighbors.
var sharpenKernel = []float32{
	0, -1, 0,
	-1, 5, -1,
	0, -1, 0,
}

// Process decodes src, runs the filter chain, and returns a binarized PNG.
// Steps run in fixed order: grayscale, upscale, gamma, median, Gaussian blur,
// min-max normalize, invert, linear stretch, edge sharpen, center-weighted
// convolution, threshold.
func Process(src []byte, p Params) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	prep := gift.New(
		gift.Grayscale(),
		gift.Resize(img.Bounds().Dx()*p.UpscaleFactor, 0, gift.LanczosResampling),
		gift.Gamma(float32(p.Gamma)),
		gift.Median(p.MedianSize, true),
		gift.GaussianBlur(float32(p.BlurSigma)),
	)
	mid := image.NewGray(prep.Bounds(img.Bounds()))
	prep.Draw(mid, img)

	lo, hi := grayRange(mid)

	post := gift.New(
		normalizeFilter(lo, hi),
		gift.Invert(),
		stretchFilter(p.ContrastGain),
		gift.UnsharpMask(1.0, 1.0, 0),
		gift.Convolution(sharpenKernel, false, false, false, 0),
		gift.Threshold(float32(p.WhiteCutoff)/255*100),
	)
	out := image.NewGray(post.Bounds(mid.Bounds()))
	post.Draw(out, mid)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// grayRange scans the darkest and brightest luma values present.
func grayRange(img *image.Gray) (lo, hi uint8) {
	lo, hi = 255, 0
	bounds := img.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		rowStart := (y - bounds.Min.Y) * img.Stride
		row := img.Pix[rowStart : rowStart+bounds.Dx()]
		for _, v := range row {
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	return lo, hi
}

// normalizeFilter stretches the measured luma range to the full 0..1 span.
// A flat image has no range to spread and passes through unchanged.
func normalizeFilter(lo, hi uint8) gift.Filter {
	if hi <= lo {
		return gift.ColorFunc(func(r, g, b, a float32) (float32, float32, float32, float32) {
			return r, g, b, a
		})
	}
	base := float32(lo) / 255
	span := float32(hi-lo) / 255
	return gift.ColorFunc(func(r, g, b, a float32) (float32, float32, float32, float32) {
		return (r - base) / span, (g - base) / span, (b - base) / span, a
	})
}

// stretchFilter applies the linear contrast stretch a*x - 100 in byte space.
func stretchFilter(gain float64) gift.Filter {
	k := float32(gain)
	const offset = float32(100.0 / 255.0)
	return gift.ColorFunc(func(r, g, b, a float32) (float32, float32, float32, float32) {
		return k*r - offset, k*g - offset, k*b - offset, a
	})
}
