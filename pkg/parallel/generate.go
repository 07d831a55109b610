package parallel

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Generator kinds accepted by Generate.
const (
	KindPath   = "path"
	KindGrid   = "grid"
	KindStar   = "star"
	KindRandom = "random"
)

// Generate builds an undirected test graph of roughly nodeCount nodes.
// Grids use the largest square that fits; random graphs draw
// nodeCount*avgDegree/2 relationships from seed.
func Generate(kind string, nodeCount, avgDegree uint64, seed uint64) (*CSR, error) {
	return GenerateWithOptions(kind, nodeCount, avgDegree, seed, CSROptions{})
}

// GenerateWithOptions is Generate building the graph with opts.
func GenerateWithOptions(kind string, nodeCount, avgDegree uint64, seed uint64, opts CSROptions) (*CSR, error) {
	var edges []Edge
	switch kind {
	case KindPath:
		for i := uint64(1); i < nodeCount; i++ {
			edges = append(edges, Edge{Source: i - 1, Target: i, Weight: 1})
		}
	case KindGrid:
		side := uint64(math.Sqrt(float64(nodeCount)))
		nodeCount = side * side
		for r := uint64(0); r < side; r++ {
			for c := uint64(0); c < side; c++ {
				id := r*side + c
				if c+1 < side {
					edges = append(edges, Edge{Source: id, Target: id + 1, Weight: 1})
				}
				if r+1 < side {
					edges = append(edges, Edge{Source: id, Target: id + side, Weight: 1})
				}
			}
		}
	case KindStar:
		for i := uint64(1); i < nodeCount; i++ {
			edges = append(edges, Edge{Source: 0, Target: i, Weight: float64(i)})
		}
	case KindRandom:
		if nodeCount < 2 {
			break
		}
		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
		count := nodeCount * avgDegree / 2
		edges = make([]Edge, 0, count)
		for len(edges) < int(count) {
			s, t := rng.Uint64N(nodeCount), rng.Uint64N(nodeCount)
			if s == t {
				continue
			}
			edges = append(edges, Edge{Source: s, Target: t, Weight: rng.Float64()})
		}
	default:
		return nil, fmt.Errorf("unknown graph kind %q (valid: %s, %s, %s, %s)",
			kind, KindPath, KindGrid, KindStar, KindRandom)
	}
	return BuildCSR(nodeCount, Undirected(edges), opts)
}
