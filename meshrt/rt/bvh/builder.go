package bvh

import (
	"fmt"
	"time"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// BucketCount is the number of SAH buckets evaluated along the split axis.
const BucketCount = 12

type SplitMethod uint8

const (
	SplitSAH SplitMethod = iota
	SplitEqualCounts
)

func (m SplitMethod) String() string {
	switch m {
	case SplitSAH:
		return "sah"
	case SplitEqualCounts:
		return "equal-counts"
	}
	return "unknown"
}

// SplitDecision describes how a node range is divided. Bucket is only
// meaningful for SplitSAH: items whose bucket is <= Bucket go left.
type SplitDecision struct {
	Method SplitMethod
	Bucket int
}

// Logger receives build statistics.
type Logger interface {
	Debugf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debugf(format string, args ...any) {}

type Stats struct {
	Triangles        int
	Nodes            int
	Leaves           int
	MaxDepth         int
	SAHSplits        int
	EqualCountSplits int
	Fallbacks        int
	Duration         time.Duration
}

type BuilderOption func(*Builder)

func WithLogger(l Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithValidation makes the builder check the finished tree with Validate
// before returning it.
func WithValidation(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.validate = enabled
	}
}

// Builder constructs a binary BVH with one triangle per leaf. A Builder is not
// safe for concurrent use; each Build call owns its scratch state until it
// returns.
type Builder struct {
	logger   Logger
	validate bool

	infos []TriangleInfo
	nodes []Node
	stats Stats
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{logger: nopLogger{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build constructs a BVH over the triangles described by indices with the
// default builder.
func Build(src PositionSource, indices []uint32) ([]Node, error) {
	return NewBuilder().Build(src, indices)
}

// Build returns 2*N-1 nodes in postorder. The root is the last node.
func (b *Builder) Build(src PositionSource, indices []uint32) ([]Node, error) {
	infos, err := ExtractTriangleInfos(src, indices)
	if err != nil {
		return nil, err
	}
	return b.BuildFromInfos(infos)
}

// BuildFromInfos builds the tree directly from triangle records. The slice is
// reordered in place.
func (b *Builder) BuildFromInfos(infos []TriangleInfo) (nodes []Node, err error) {
	if len(infos) == 0 {
		return nil, fmt.Errorf("build: %w", ErrNoTriangles)
	}

	defer recoverViolation(&err)
	defer func() {
		b.infos = nil
		b.nodes = nil
	}()

	start := time.Now()
	nodeCount := 2*len(infos) - 1
	b.infos = infos
	b.nodes = make([]Node, 0, nodeCount)
	b.stats = Stats{Triangles: len(infos)}

	b.partition(0, len(infos), 0)

	if len(b.nodes) != nodeCount {
		panic(violation("build", "wrote %d nodes for %d triangles, want %d", len(b.nodes), len(infos), nodeCount))
	}
	nodes = b.nodes

	b.stats.Nodes = len(nodes)
	b.stats.Duration = time.Since(start)
	b.logger.Debugf(
		"BVH build time: %d ms, triangles: %d, nodes: %d, leaves: %d, maxDepth: %d, sah: %d, equal counts: %d, fallbacks: %d",
		b.stats.Duration.Milliseconds(), b.stats.Triangles, b.stats.Nodes, b.stats.Leaves,
		b.stats.MaxDepth, b.stats.SAHSplits, b.stats.EqualCountSplits, b.stats.Fallbacks,
	)

	if b.validate {
		if err := Validate(nodes, len(infos)); err != nil {
			return nil, err
		}
	}
	return nodes, nil
}

// Stats returns the statistics of the last successful build.
func (b *Builder) Stats() Stats {
	return b.stats
}

// partition builds the subtree over infos[start:end] and returns the index of
// its root node.
func (b *Builder) partition(start, end, depth int) uint32 {
	if start >= end {
		panic(violation("partition", "empty range [%d, %d)", start, end))
	}
	if depth > b.stats.MaxDepth {
		b.stats.MaxDepth = depth
	}

	items := b.infos[start:end]
	bounds := items[0].Bounds
	for i := 1; i < len(items); i++ {
		bounds = bounds.Union(items[i].Bounds)
	}

	if len(items) == 1 {
		b.stats.Leaves++
		return b.appendNode(Node{
			Min: items[0].Bounds.Min,
			L:   items[0].Index,
			Max: items[0].Bounds.Max,
			R:   items[0].Index,
		})
	}

	centroidBounds := AABBFromPoint(items[0].Centroid)
	for i := 1; i < len(items); i++ {
		centroidBounds = centroidBounds.Expand(items[i].Centroid)
	}
	dim := centroidBounds.MaxExtentAxis()

	decision := SplitDecision{Method: SplitEqualCounts}
	if len(items) > 2 {
		bucket, _ := chooseSAHBucket(items, bounds, centroidBounds, dim)
		decision = SplitDecision{Method: SplitSAH, Bucket: bucket}
	}

	var middle int
	if decision.Method == SplitSAH {
		middle = start + partitionInfos(items, func(info *TriangleInfo) bool {
			return bucketFor(centroidBounds, info.Centroid, dim) <= decision.Bucket
		})
		if middle == start || middle == end {
			// All items landed on one side of the chosen boundary (coincident
			// or tightly clustered centroids). Split by equal counts instead so
			// the recursion always shrinks.
			decision = SplitDecision{Method: SplitEqualCounts}
			b.stats.Fallbacks++
		} else {
			b.stats.SAHSplits++
		}
	}
	if decision.Method == SplitEqualCounts {
		middle = start + splitEqualCounts(items, centroidBounds, dim)
		b.stats.EqualCountSplits++
	}

	l := b.partition(start, middle, depth+1)
	r := b.partition(middle, end, depth+1)

	return b.appendNode(Node{
		Min: bounds.Min,
		L:   l,
		Max: bounds.Max,
		R:   r,
	})
}

func (b *Builder) appendNode(n Node) uint32 {
	b.nodes = append(b.nodes, n)
	return uint32(len(b.nodes) - 1)
}

// splitEqualCounts moves items with a centroid below the centroid bounds
// midpoint to the front and returns the split offset len(items)/2.
func splitEqualCounts(items []TriangleInfo, centroidBounds AABB, dim Axis) int {
	mid := (centroidBounds.Min[dim] + centroidBounds.Max[dim]) * 0.5
	partitionInfos(items, func(info *TriangleInfo) bool {
		return info.Centroid[dim] < mid
	})
	return len(items) / 2
}

// partitionInfos reorders items so that every item satisfying pred precedes
// every item that does not, and returns the number of satisfying items.
func partitionInfos(items []TriangleInfo, pred func(*TriangleInfo) bool) int {
	first := 0
	for first < len(items) && pred(&items[first]) {
		first++
	}
	for i := first + 1; i < len(items); i++ {
		if pred(&items[i]) {
			items[i], items[first] = items[first], items[i]
			first++
		}
	}
	return first
}

func bucketFor(centroidBounds AABB, centroid mgl32.Vec3, dim Axis) int {
	b := int(math32.Floor(BucketCount * centroidBounds.Offset(centroid)[dim]))
	if b < 0 {
		return 0
	}
	if b > BucketCount-1 {
		return BucketCount - 1
	}
	return b
}

type bucket struct {
	count  int
	bounds AABB
}

func (b bucket) add(o bucket) bucket {
	if o.count == 0 {
		return b
	}
	if b.count == 0 {
		return o
	}
	return bucket{count: b.count + o.count, bounds: b.bounds.Union(o.bounds)}
}

func (b bucket) area() float32 {
	if b.count == 0 {
		return 0
	}
	return b.bounds.SurfaceArea()
}

// chooseSAHBucket evaluates the BucketCount-1 bucket boundaries along dim and
// returns the boundary with the lowest cost
//
//	1 + (countLeft*area(left) + countRight*area(right)) / area(bounds)
//
// Ties resolve to the lowest boundary.
func chooseSAHBucket(items []TriangleInfo, bounds, centroidBounds AABB, dim Axis) (int, float32) {
	var buckets [BucketCount]bucket
	for i := range items {
		idx := bucketFor(centroidBounds, items[i].Centroid, dim)
		buckets[idx] = buckets[idx].add(bucket{count: 1, bounds: items[i].Bounds})
	}

	// left[i] aggregates buckets [0, i], right[i] aggregates buckets (i, BucketCount).
	var left, right [BucketCount - 1]bucket
	var acc bucket
	for i := 0; i < BucketCount-1; i++ {
		acc = acc.add(buckets[i])
		left[i] = acc
	}
	acc = bucket{}
	for i := BucketCount - 1; i > 0; i-- {
		acc = acc.add(buckets[i])
		right[i-1] = acc
	}

	totalArea := bounds.SurfaceArea()
	minIdx := 0
	minCost := float32(0)
	for i := 0; i < BucketCount-1; i++ {
		cost := 1 + (float32(left[i].count)*left[i].area()+float32(right[i].count)*right[i].area())/totalArea
		if i == 0 || cost < minCost {
			minCost = cost
			minIdx = i
		}
	}
	return minIdx, minCost
}
