package envlight

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

var (
	ErrEmptyImage   = errors.New("envlight: image has zero width or height")
	ErrRadianceSize = errors.New("envlight: radiance length does not match image size")
)

// Texel is one linear RGBA radiance sample. Alpha is ignored.
type Texel [4]float32

// Luminance returns the relative luminance (CIE Y) of a linear Rec.709 colour.
func Luminance(t Texel) float32 {
	return 0.212671*t[0] + 0.715160*t[1] + 0.072169*t[2]
}

// Distribution is the piecewise constant importance sampling data for one
// equirectangular image. All slices are row major and never modified after
// BuildDistribution returns.
type Distribution struct {
	Width  uint32
	Height uint32

	// Luminance is weighted by sin(theta) for the row's solid angle.
	Luminance []float32
	// ImageAverage is the mean of Luminance. Zero means the image carries no
	// energy at all.
	ImageAverage float32

	// MarginalInverse maps a quantized uniform sample to a row coordinate in (0,1).
	MarginalInverse []float32
	// ConditionalInverse maps, per row, a quantized uniform sample to a column
	// coordinate in (0,1).
	ConditionalInverse []float32
}

// BuildDistribution computes the luminance map, the marginal (row) and
// conditional (column given row) distributions and their inverse CDF tables.
//
// A row whose luminance is all zero gets a uniform conditional distribution;
// its marginal weight is zero so it is never selected. A completely black image
// gets a uniform marginal distribution and an ImageAverage of zero.
func BuildDistribution(width, height uint32, radiance []Texel) (Distribution, error) {
	if width == 0 || height == 0 {
		return Distribution{}, fmt.Errorf("build distribution: %dx%d: %w", width, height, ErrEmptyImage)
	}
	if uint64(len(radiance)) != uint64(width)*uint64(height) {
		return Distribution{}, fmt.Errorf("build distribution: %d texels for %dx%d: %w",
			len(radiance), width, height, ErrRadianceSize)
	}

	w, h := int(width), int(height)
	d := Distribution{
		Width:              width,
		Height:             height,
		Luminance:          make([]float32, w*h),
		MarginalInverse:    make([]float32, h),
		ConditionalInverse: make([]float32, w*h),
	}

	// luminance and integrals
	rowAverage := make([]float32, h)
	var imageSum float32
	for v := 0; v < h; v++ {
		sinTheta := math32.Sin(math32.Pi * (float32(v) + 0.5) / float32(h))
		var rowSum float32
		for u := 0; u < w; u++ {
			l := Luminance(radiance[v*w+u]) * sinTheta
			d.Luminance[v*w+u] = l
			rowSum += l
		}
		imageSum += rowSum
		rowAverage[v] = rowSum / float32(w)
	}
	d.ImageAverage = imageSum / float32(w*h)

	// marginal
	marginal := make([]float32, h)
	for v := 0; v < h; v++ {
		if d.ImageAverage > 0 {
			marginal[v] = rowAverage[v] / d.ImageAverage
		} else {
			marginal[v] = 1
		}
	}

	// conditional
	conditional := make([]float32, w*h)
	for v := 0; v < h; v++ {
		row := conditional[v*w : (v+1)*w]
		if rowAverage[v] > 0 {
			for u := 0; u < w; u++ {
				row[u] = d.Luminance[v*w+u] / rowAverage[v]
			}
		} else {
			for u := range row {
				row[u] = 1
			}
		}
	}

	invertCDF(marginal, d.MarginalInverse)
	for v := 0; v < h; v++ {
		invertCDF(conditional[v*w:(v+1)*w], d.ConditionalInverse[v*w:(v+1)*w])
	}

	return d, nil
}

// invertCDF fills out with the discretized inverse of the CDF of weights,
// which are normalized so that their mean is 1. Output index i stands for the
// uniform samples in [i/n, (i+1)/n); it stores the midpoint (k+0.5)/n of the
// first entry k whose cumulative mass reaches the center of that interval.
// Entries with zero weight are never returned unless every weight is zero.
func invertCDF(weights []float32, out []float32) {
	n := len(weights)
	fn := float32(n)

	last := n - 1
	for last > 0 && weights[last] <= 0 {
		last--
	}

	k := 0
	sum := weights[0] / fn
	for i := 0; i < n; i++ {
		target := (float32(i) + 0.5) / fn
		for k < last && sum < target {
			k++
			sum += weights[k] / fn
		}
		out[i] = (float32(k) + 0.5) / fn
	}
}

// SampleTexel maps two uniform samples in [0,1) to a texel the same way the
// tracer does: each sample is quantized to a table entry and the entry holds the
// normalized coordinate.
func (d *Distribution) SampleTexel(u1, u2 float32) (row, col uint32) {
	h, w := d.Height, d.Width

	y := d.MarginalInverse[quantize(u1, h)]
	row = min(h-1, uint32(y*float32(h)))

	x := d.ConditionalInverse[row*w+quantize(u2, w)]
	col = min(w-1, uint32(x*float32(w)))
	return row, col
}

// PDF returns the density of selecting texel (row, col) with respect to the
// unit square. Dividing by 2*pi*pi*sin(theta) converts it to solid angle.
func (d *Distribution) PDF(row, col uint32) float32 {
	if d.ImageAverage <= 0 {
		return 0
	}
	return d.Luminance[row*d.Width+col] / d.ImageAverage
}

func quantize(u float32, n uint32) uint32 {
	if u <= 0 {
		return 0
	}
	return min(n-1, uint32(u*float32(n)))
}
