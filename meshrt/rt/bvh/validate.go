package bvh

import (
	"errors"
	"fmt"
)

var ErrInvalidTree = errors.New("bvh: invalid tree")

// boundsEpsilon absorbs float noise when comparing node boxes.
const boundsEpsilon float32 = 1e-6

// Validate checks the structural invariants of a flat tree built for
// triangleCount triangles: node count, leaf coverage, postorder child links,
// parent containment and root bounds.
func Validate(nodes []Node, triangleCount int) error {
	if triangleCount < 1 {
		return fmt.Errorf("validate: %w", ErrNoTriangles)
	}
	if want := 2*triangleCount - 1; len(nodes) != want {
		return fmt.Errorf("%w: %d nodes for %d triangles, want %d", ErrInvalidTree, len(nodes), triangleCount, want)
	}

	seen := make([]bool, triangleCount)
	parents := make([]int, len(nodes))
	var leafBounds AABB

	leaves := 0
	for i, n := range nodes {
		if n.IsLeaf() {
			if int(n.L) >= triangleCount {
				return fmt.Errorf("%w: leaf %d references triangle %d of %d", ErrInvalidTree, i, n.L, triangleCount)
			}
			if seen[n.L] {
				return fmt.Errorf("%w: triangle %d appears in more than one leaf", ErrInvalidTree, n.L)
			}
			seen[n.L] = true
			if leaves == 0 {
				leafBounds = n.Bounds()
			} else {
				leafBounds = leafBounds.Union(n.Bounds())
			}
			leaves++
			continue
		}

		for _, child := range [2]uint32{n.L, n.R} {
			if int(child) >= i {
				return fmt.Errorf("%w: node %d links child %d that is not written before it", ErrInvalidTree, i, child)
			}
			parents[child]++
			if !n.Bounds().Contains(nodes[child].Bounds(), boundsEpsilon) {
				return fmt.Errorf("%w: node %d does not contain child %d", ErrInvalidTree, i, child)
			}
		}
	}

	if leaves != triangleCount {
		return fmt.Errorf("%w: %d leaves for %d triangles", ErrInvalidTree, leaves, triangleCount)
	}

	root := len(nodes) - 1
	for i, count := range parents {
		want := 1
		if i == root {
			want = 0
		}
		if count != want {
			return fmt.Errorf("%w: node %d has %d parents, want %d", ErrInvalidTree, i, count, want)
		}
	}

	if !nodes[root].Bounds().ApproxEqual(leafBounds, boundsEpsilon) {
		return fmt.Errorf("%w: root bounds %v differ from leaf union %v", ErrInvalidTree, nodes[root].Bounds(), leafBounds)
	}
	return nil
}
