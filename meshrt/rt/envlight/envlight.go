package envlight

import (
	"encoding/binary"
	"math"

	"github.com/google/uuid"
)

// BlankSkyResolution is the row count of the default gradient sky.
const BlankSkyResolution = 32

// EnvironmentLight owns an equirectangular radiance image together with the
// sampling distribution built from it. It is replaced as a whole whenever the
// image changes. Width and Height are promoted from the distribution.
type EnvironmentLight struct {
	ID       uuid.UUID
	Radiance []Texel

	Distribution
}

func NewEnvironmentLight(width, height uint32, radiance []Texel) (*EnvironmentLight, error) {
	dist, err := BuildDistribution(width, height, radiance)
	if err != nil {
		return nil, err
	}
	return &EnvironmentLight{
		ID:           uuid.New(),
		Radiance:     radiance,
		Distribution: dist,
	}, nil
}

// NewBlankSky returns a 1 pixel wide vertical gradient from white at the top
// to magenta at the bottom.
func NewBlankSky() *EnvironmentLight {
	radiance := make([]Texel, BlankSkyResolution)
	for i := range radiance {
		t := float32(i) / BlankSkyResolution
		radiance[i] = Texel{1, 1 - t, 1, 1}
	}

	light, err := NewEnvironmentLight(1, BlankSkyResolution, radiance)
	if err != nil {
		panic(err)
	}
	return light
}

// RadianceBytes returns the RGBA32Float texture payload.
func (e *EnvironmentLight) RadianceBytes() []byte {
	buf := make([]byte, len(e.Radiance)*16)
	for i, t := range e.Radiance {
		for c := 0; c < 4; c++ {
			binary.LittleEndian.PutUint32(buf[i*16+c*4:], math.Float32bits(t[c]))
		}
	}
	return buf
}

// MarginalInverseBytes returns the 1xH R32Float texture payload.
func (e *EnvironmentLight) MarginalInverseBytes() []byte {
	return float32sToBytes(e.MarginalInverse)
}

// ConditionalInverseBytes returns the WxH R32Float texture payload.
func (e *EnvironmentLight) ConditionalInverseBytes() []byte {
	return float32sToBytes(e.ConditionalInverse)
}

func float32sToBytes(values []float32) []byte {
	buf := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}
