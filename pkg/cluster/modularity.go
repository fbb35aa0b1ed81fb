package cluster

import (
	"math/rand"
	"sort"
	"time"

	"github.com/lattice-intel/lattice/pkg/graph"
)

const (
	modularityMaxPasses = 10
	modularityMinDelta  = 0.0001
)

// modularityStrategy is the high-quality path: greedy local moving that
// shifts each node into whichever neighboring community yields the largest
// modularity gain, repeated until a pass produces no improvement.
type modularityStrategy struct {
	seed int64
}

func (m *modularityStrategy) Name() string { return AlgorithmModularity }

func (m *modularityStrategy) Partition(snap *graph.Snapshot, deadline time.Time) (map[string]int, bool) {
	g := newWeightedGraph(snap)
	if g.totalWeight == 0 {
		// No edges: every node is its own community
		return g.singletons(), false
	}

	rng := rand.New(rand.NewSource(m.seed))

	nodeToComm := make(map[string]int, len(g.nodes))
	commMembers := make(map[int]map[string]struct{}, len(g.nodes))
	for i, id := range g.nodes {
		nodeToComm[id] = i
		commMembers[i] = map[string]struct{}{id: {}}
	}

	visit := make([]string, len(g.nodes))
	copy(visit, g.nodes)

	partial := false
	for pass := 0; pass < modularityMaxPasses; pass++ {
		if time.Now().After(deadline) {
			partial = true
			break
		}

		rng.Shuffle(len(visit), func(i, j int) {
			visit[i], visit[j] = visit[j], visit[i]
		})

		improved := false
		for _, id := range visit {
			current := nodeToComm[id]

			seen := map[int]bool{current: true}
			candidates := make([]int, 0, len(g.adj[id]))
			for nid := range g.adj[id] {
				comm := nodeToComm[nid]
				if !seen[comm] {
					seen[comm] = true
					candidates = append(candidates, comm)
				}
			}
			// Evaluate in community-id order; strict improvement means equal
			// gains keep the lowest id, not whichever the map yields first
			sort.Ints(candidates)

			best := current
			bestDelta := 0.0
			for _, comm := range candidates {
				delta := g.moveGain(id, current, comm, nodeToComm, commMembers)
				if delta > bestDelta {
					bestDelta = delta
					best = comm
				}
			}

			if bestDelta > modularityMinDelta && best != current {
				delete(commMembers[current], id)
				commMembers[best][id] = struct{}{}
				nodeToComm[id] = best
				improved = true
			}
		}

		if !improved {
			break
		}
	}

	return nodeToComm, partial
}

// weightedGraph is the undirected weighted adjacency the community
// strategies run on, pre-aggregating parallel edges by weight.
type weightedGraph struct {
	nodes       []string
	adj         map[string]map[string]float64
	strength    map[string]float64
	totalWeight float64
}

func newWeightedGraph(snap *graph.Snapshot) *weightedGraph {
	g := &weightedGraph{
		nodes:    snap.NodeIDs(),
		adj:      make(map[string]map[string]float64, snap.NodeCount()),
		strength: make(map[string]float64, snap.NodeCount()),
	}
	for _, id := range g.nodes {
		g.adj[id] = make(map[string]float64)
	}
	for i, rel := range snap.Relationships {
		if rel.SourceID == rel.TargetID {
			continue
		}
		w := snap.EdgeWeight(i)
		g.adj[rel.SourceID][rel.TargetID] += w
		g.adj[rel.TargetID][rel.SourceID] += w
		g.strength[rel.SourceID] += w
		g.strength[rel.TargetID] += w
		g.totalWeight += w
	}
	return g
}

func (g *weightedGraph) singletons() map[string]int {
	out := make(map[string]int, len(g.nodes))
	for i, id := range g.nodes {
		out[id] = i
	}
	return out
}

// moveGain is the modularity delta of moving id from oldComm to newComm.
func (g *weightedGraph) moveGain(
	id string,
	oldComm, newComm int,
	nodeToComm map[string]int,
	commMembers map[int]map[string]struct{},
) float64 {
	ki := g.strength[id]
	m2 := 2 * g.totalWeight

	var kiIn, kiOut, sigmaIn, sigmaOut float64
	for member := range commMembers[newComm] {
		sigmaIn += g.strength[member]
		if w, ok := g.adj[id][member]; ok {
			kiIn += w
		}
	}
	for member := range commMembers[oldComm] {
		if member == id {
			continue
		}
		sigmaOut += g.strength[member]
		if w, ok := g.adj[id][member]; ok {
			kiOut += w
		}
	}

	gain := (kiIn - kiOut) / m2
	gain -= ki * (sigmaIn - sigmaOut) / (m2 * m2)
	return gain
}
