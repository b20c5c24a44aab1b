package gpu

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gekko3d/lumen/meshrt/rt/bvh"
	"github.com/gekko3d/lumen/meshrt/rt/core"
	"github.com/gekko3d/lumen/meshrt/rt/envlight"

	"github.com/cogentcore/webgpu/wgpu"
)

const (
	HeadroomGeometry = 1024 * 1024
	HeadroomTables   = 64 * 1024
)

// Bind group indices used by the path tracing pipeline.
const (
	GeometryGroup    = 0
	EnvironmentGroup = 1
)

type GpuBufferManager struct {
	Device *wgpu.Device

	VertexBuf   *wgpu.Buffer
	IndexBuf    *wgpu.Buffer
	BVHNodesBuf *wgpu.Buffer
	MaterialBuf *wgpu.Buffer

	// Environment light. The three textures and the params buffer always
	// describe the same light and are replaced together.
	EnvRadianceTex     *wgpu.Texture
	EnvRadianceView    *wgpu.TextureView
	EnvMarginalTex     *wgpu.Texture
	EnvMarginalView    *wgpu.TextureView
	EnvConditionalTex  *wgpu.Texture
	EnvConditionalView *wgpu.TextureView
	EnvParamsBuf       *wgpu.Buffer

	GeometryBindGroup    *wgpu.BindGroup
	EnvironmentBindGroup *wgpu.BindGroup

	TriangleCount uint32
	NodeCount     uint32
}

func NewGpuBufferManager(device *wgpu.Device) *GpuBufferManager {
	return &GpuBufferManager{
		Device: device,
	}
}

func (m *GpuBufferManager) ensureBuffer(name string, buf **wgpu.Buffer, data []byte, usage wgpu.BufferUsage, headroom int) bool {
	neededSize := uint64(len(data) + headroom)
	if neededSize%4 != 0 {
		neededSize += 4 - (neededSize % 4)
	}

	current := *buf
	if current == nil || current.GetSize() < neededSize {
		if current != nil {
			current.Release()
		}

		desc := &wgpu.BufferDescriptor{
			Label:            name,
			Size:             neededSize,
			Usage:            usage | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		}
		newBuf, err := m.Device.CreateBuffer(desc)
		if err != nil {
			panic(err)
		}
		*buf = newBuf

		if len(data) > 0 {
			m.Device.GetQueue().WriteBuffer(*buf, 0, data)
		}
		return true
	}

	if len(data) > 0 {
		m.Device.GetQueue().WriteBuffer(*buf, 0, data)
	}
	return false
}

// UpdateMesh uploads vertices, indices and BVH nodes. It returns true when any
// buffer was recreated, which invalidates the geometry bind group.
func (m *GpuBufferManager) UpdateMesh(mesh *core.TriangleMesh) bool {
	recreated := false
	if m.ensureBuffer("VertexBuf", &m.VertexBuf, core.VerticesToBytes(mesh.Vertices), wgpu.BufferUsageStorage, HeadroomGeometry) {
		recreated = true
	}
	if m.ensureBuffer("IndexBuf", &m.IndexBuf, core.IndicesToBytes(mesh.Indices), wgpu.BufferUsageStorage, HeadroomGeometry) {
		recreated = true
	}
	if m.ensureBuffer("BVHNodesBuf", &m.BVHNodesBuf, bvh.NodesToBytes(mesh.BVH), wgpu.BufferUsageStorage, HeadroomGeometry) {
		recreated = true
	}
	m.TriangleCount = uint32(mesh.TriangleCount())
	m.NodeCount = uint32(len(mesh.BVH))
	return recreated
}

func (m *GpuBufferManager) UpdateMaterials(materials []core.Material) bool {
	data := core.MaterialsToBytes(materials)
	if len(data) == 0 {
		data = make([]byte, core.MaterialSize)
	}
	return m.ensureBuffer("MaterialBuf", &m.MaterialBuf, data, wgpu.BufferUsageStorage, HeadroomTables)
}

// UpdateEnvironmentLight replaces the environment textures with the ones
// described by light. The old textures are released first, so the bind group
// must be recreated afterwards.
func (m *GpuBufferManager) UpdateEnvironmentLight(light *envlight.EnvironmentLight) {
	m.releaseEnvironment()

	w, h := light.Width, light.Height
	m.EnvRadianceTex, m.EnvRadianceView = m.uploadTexture("EnvRadianceTex",
		wgpu.TextureFormatRGBA32Float, w, h, light.RadianceBytes())
	m.EnvMarginalTex, m.EnvMarginalView = m.uploadTexture("EnvMarginalInverseTex",
		wgpu.TextureFormatR32Float, 1, h, light.MarginalInverseBytes())
	m.EnvConditionalTex, m.EnvConditionalView = m.uploadTexture("EnvConditionalInverseTex",
		wgpu.TextureFormatR32Float, w, h, light.ConditionalInverseBytes())

	m.ensureBuffer("EnvParamsUB", &m.EnvParamsBuf, envParamsBytes(light), wgpu.BufferUsageUniform, 0)
}

func (m *GpuBufferManager) uploadTexture(label string, format wgpu.TextureFormat, w, h uint32, data []byte) (*wgpu.Texture, *wgpu.TextureView) {
	layout, extent := textureLayout(format, w, h)
	if uint64(len(data)) != uint64(layout.BytesPerRow)*uint64(h) {
		panic(fmt.Sprintf("%s: %d bytes for %dx%d %v", label, len(data), w, h, format))
	}

	tex, err := m.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          extent,
		Format:        format,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		panic(err)
	}
	m.Device.GetQueue().WriteTexture(tex.AsImageCopy(), data, &layout, &extent)

	view, err := tex.CreateView(nil)
	if err != nil {
		panic(err)
	}
	return tex, view
}

func (m *GpuBufferManager) releaseEnvironment() {
	for _, v := range []**wgpu.TextureView{&m.EnvRadianceView, &m.EnvMarginalView, &m.EnvConditionalView} {
		if *v != nil {
			(*v).Release()
			*v = nil
		}
	}
	for _, t := range []**wgpu.Texture{&m.EnvRadianceTex, &m.EnvMarginalTex, &m.EnvConditionalTex} {
		if *t != nil {
			(*t).Release()
			*t = nil
		}
	}
	if m.EnvironmentBindGroup != nil {
		m.EnvironmentBindGroup.Release()
		m.EnvironmentBindGroup = nil
	}
}

// CreateBindGroups binds the geometry buffers to group 0 and the environment
// light to group 1 of pipeline.
func (m *GpuBufferManager) CreateBindGroups(pipeline *wgpu.ComputePipeline) {
	if m.MaterialBuf == nil {
		m.ensureBuffer("MaterialBuf", &m.MaterialBuf, make([]byte, core.MaterialSize), wgpu.BufferUsageStorage, 0)
	}
	if m.VertexBuf == nil || m.IndexBuf == nil || m.BVHNodesBuf == nil {
		panic("gpu: CreateBindGroups before UpdateMesh")
	}
	if m.EnvParamsBuf == nil {
		panic("gpu: CreateBindGroups before UpdateEnvironmentLight")
	}

	if m.GeometryBindGroup != nil {
		m.GeometryBindGroup.Release()
	}
	var err error
	m.GeometryBindGroup, err = m.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: pipeline.GetBindGroupLayout(GeometryGroup),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: m.VertexBuf, Size: wgpu.WholeSize},
			{Binding: 1, Buffer: m.IndexBuf, Size: wgpu.WholeSize},
			{Binding: 2, Buffer: m.BVHNodesBuf, Size: wgpu.WholeSize},
			{Binding: 3, Buffer: m.MaterialBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		panic(err)
	}

	if m.EnvironmentBindGroup != nil {
		m.EnvironmentBindGroup.Release()
	}
	m.EnvironmentBindGroup, err = m.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Layout: pipeline.GetBindGroupLayout(EnvironmentGroup),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: m.EnvRadianceView},
			{Binding: 1, TextureView: m.EnvMarginalView},
			{Binding: 2, TextureView: m.EnvConditionalView},
			{Binding: 3, Buffer: m.EnvParamsBuf, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		panic(err)
	}
}

func (m *GpuBufferManager) Release() {
	m.releaseEnvironment()
	for _, b := range []**wgpu.Buffer{&m.VertexBuf, &m.IndexBuf, &m.BVHNodesBuf, &m.MaterialBuf, &m.EnvParamsBuf} {
		if *b != nil {
			(*b).Release()
			*b = nil
		}
	}
	if m.GeometryBindGroup != nil {
		m.GeometryBindGroup.Release()
		m.GeometryBindGroup = nil
	}
}

// Struct EnvParams {
//   image_average: f32; -- 4
//   width: u32;         -- 8
//   height: u32;        -- 12
//   _pad: u32;          -- 16
// }
func envParamsBytes(light *envlight.EnvironmentLight) []byte {
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], math.Float32bits(light.ImageAverage))
	binary.LittleEndian.PutUint32(buf[4:], light.Width)
	binary.LittleEndian.PutUint32(buf[8:], light.Height)
	binary.LittleEndian.PutUint32(buf[12:], 0)
	return buf
}

func textureLayout(format wgpu.TextureFormat, w, h uint32) (wgpu.TextureDataLayout, wgpu.Extent3D) {
	return wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  w * bytesPerTexel(format),
			RowsPerImage: h,
		},
		wgpu.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1}
}

func bytesPerTexel(format wgpu.TextureFormat) uint32 {
	switch format {
	case wgpu.TextureFormatRGBA32Float:
		return 16
	case wgpu.TextureFormatR32Float:
		return 4
	}
	panic(fmt.Sprintf("gpu: unsupported texture format %v", format))
}
