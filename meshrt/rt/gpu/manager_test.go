package gpu

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/gekko3d/lumen/meshrt/rt/envlight"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvParamsBytes(t *testing.T) {
	light, err := envlight.NewEnvironmentLight(3, 2, make([]envlight.Texel, 6))
	require.NoError(t, err)
	light.ImageAverage = 0.5

	buf := envParamsBytes(light)
	require.Len(t, buf, 16)
	assert.Equal(t, math.Float32bits(0.5), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(buf[4:8]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(buf[8:12]))
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[12:16]))
}

func TestTextureLayout(t *testing.T) {
	tests := []struct {
		name   string
		format wgpu.TextureFormat
		w, h   uint32
		row    uint32
	}{
		{"radiance", wgpu.TextureFormatRGBA32Float, 64, 32, 64 * 16},
		{"marginal", wgpu.TextureFormatR32Float, 1, 32, 4},
		{"conditional", wgpu.TextureFormatR32Float, 64, 32, 64 * 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, extent := textureLayout(tt.format, tt.w, tt.h)
			assert.Equal(t, tt.row, layout.BytesPerRow)
			assert.Equal(t, tt.h, layout.RowsPerImage)
			assert.Equal(t, wgpu.Extent3D{Width: tt.w, Height: tt.h, DepthOrArrayLayers: 1}, extent)
		})
	}
}

func TestTexturePayloadsMatchLayout(t *testing.T) {
	sky := envlight.NewBlankSky()

	layout, _ := textureLayout(wgpu.TextureFormatRGBA32Float, sky.Width, sky.Height)
	assert.Len(t, sky.RadianceBytes(), int(layout.BytesPerRow*sky.Height))

	layout, _ = textureLayout(wgpu.TextureFormatR32Float, 1, sky.Height)
	assert.Len(t, sky.MarginalInverseBytes(), int(layout.BytesPerRow*sky.Height))

	layout, _ = textureLayout(wgpu.TextureFormatR32Float, sky.Width, sky.Height)
	assert.Len(t, sky.ConditionalInverseBytes(), int(layout.BytesPerRow*sky.Height))
}

func TestBytesPerTexelUnsupported(t *testing.T) {
	assert.Panics(t, func() { bytesPerTexel(wgpu.TextureFormatR8Unorm) })
}
