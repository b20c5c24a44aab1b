package lumen

import (
	"errors"
	"fmt"

	"github.com/gekko3d/lumen/meshrt/rt/app"
	"github.com/gekko3d/lumen/meshrt/rt/bvh"
	"github.com/gekko3d/lumen/meshrt/rt/core"
	"github.com/gekko3d/lumen/meshrt/rt/envlight"
	"github.com/gekko3d/lumen/meshrt/rt/gpu"
)

var ErrEnvironmentTooLarge = errors.New("lumen: environment image exceeds max size")

// Prepared is everything the tracer needs uploaded before the first frame.
type Prepared struct {
	Mesh             *core.TriangleMesh
	Materials        []core.Material
	EnvironmentLight *envlight.EnvironmentLight
}

// Upload writes the prepared data through m. Bind groups must be recreated
// afterwards.
func (p *Prepared) Upload(m *gpu.GpuBufferManager) {
	m.UpdateMesh(p.Mesh)
	m.UpdateMaterials(p.Materials)
	m.UpdateEnvironmentLight(p.EnvironmentLight)
}

// Preparer turns scenes and environment images into GPU ready data. It is
// not safe for concurrent use.
type Preparer struct {
	cfg      Config
	logger   Logger
	profiler *app.Profiler
	builder  *bvh.Builder
}

func NewPreparer(cfg Config, logger Logger) (*Preparer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = NewDefaultLogger(cfg.LogPrefix, cfg.Debug)
	}
	return &Preparer{
		cfg:      cfg,
		logger:   logger,
		profiler: app.NewProfiler(),
		builder:  bvh.NewBuilder(bvh.WithLogger(logger), bvh.WithValidation(cfg.ValidateBVH)),
	}, nil
}

func (p *Preparer) Logger() Logger {
	return p.logger
}

func (p *Preparer) begin(scope string) func() {
	if !p.cfg.Profile {
		return func() {}
	}
	return p.profiler.Scope(scope)
}

func (p *Preparer) count(name string, n int) {
	if p.cfg.Profile {
		p.profiler.SetCount(name, n)
	}
}

// PrepareMesh merges every scene object and builds the BVH.
func (p *Preparer) PrepareMesh(scene *core.Scene) (*core.TriangleMesh, error) {
	defer p.begin("BVH")()

	mesh, err := scene.UnifiedMesh(p.builder)
	if err != nil {
		p.logger.Errorf("mesh preparation failed: %v", err)
		return nil, err
	}

	stats := p.builder.Stats()
	p.count("objects", len(scene.Objects))
	p.count("triangles", mesh.TriangleCount())
	p.count("bvh nodes", len(mesh.BVH))
	p.count("bvh depth", stats.MaxDepth)
	p.logger.Infof("built BVH for %d objects: %d triangles, %d nodes, depth %d in %s",
		len(scene.Objects), mesh.TriangleCount(), len(mesh.BVH), stats.MaxDepth, stats.Duration)
	if stats.Fallbacks > 0 {
		p.logger.Debugf("BVH used equal counts fallback %d times", stats.Fallbacks)
	}
	return mesh, nil
}

// PrepareEnvironment builds the sampling distribution of a width x height
// radiance image.
func (p *Preparer) PrepareEnvironment(width, height uint32, radiance []envlight.Texel) (*envlight.EnvironmentLight, error) {
	defer p.begin("Environment")()

	if width > p.cfg.MaxEnvironmentSize || height > p.cfg.MaxEnvironmentSize {
		err := fmt.Errorf("prepare environment: %dx%d, max %d: %w", width, height, p.cfg.MaxEnvironmentSize, ErrEnvironmentTooLarge)
		p.logger.Errorf("%v", err)
		return nil, err
	}

	light, err := envlight.NewEnvironmentLight(width, height, radiance)
	if err != nil {
		p.logger.Errorf("environment preparation failed: %v", err)
		return nil, err
	}

	p.count("env texels", len(radiance))
	if light.ImageAverage <= 0 {
		p.logger.Warnf("environment %dx%d is completely black, importance sampling disabled", width, height)
	}
	p.logger.Infof("built environment distribution %dx%d, average luminance %g", width, height, light.ImageAverage)
	return light, nil
}

// Prepare builds the mesh and collects the materials and environment light of
// scene.
func (p *Preparer) Prepare(scene *core.Scene) (*Prepared, error) {
	defer p.begin("Prepare")()

	mesh, err := p.PrepareMesh(scene)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}

	light := scene.EnvironmentLight
	if light == nil {
		p.logger.Debugf("scene has no environment light, using blank sky")
		light = envlight.NewBlankSky()
	}

	return &Prepared{
		Mesh:             mesh,
		Materials:        scene.Materials(),
		EnvironmentLight: light,
	}, nil
}

// Stats returns the profiler report. It is empty when profiling is disabled.
func (p *Preparer) Stats() string {
	if !p.cfg.Profile {
		return ""
	}
	return p.profiler.GetStatsString()
}

func (p *Preparer) Profiler() *app.Profiler {
	return p.profiler
}
