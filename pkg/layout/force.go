package layout

import (
	"math"
	"math/rand"
	"time"

	"github.com/lattice-intel/lattice/pkg/graph"
)

const (
	idealDistance = 50.0
	repulsionGain = 0.8
	minSeparation = 0.01
)

type simNode struct {
	id   string
	x, y float64
	// accumulated displacement for the current iteration
	dx, dy float64
	mass   float64
}

type simEdge struct {
	a, b   int
	weight float64
}

// repulsor pushes all node pairs apart. Chosen per component by node count:
// exact pairwise below the threshold, quad-tree approximation above.
type repulsor interface {
	apply(nodes []simNode)
}

type simulation struct {
	nodes []simNode
	edges []simEdge

	logAttraction bool
	rep           repulsor
	temperature   float64
	cooling       float64
}

// newSimulation prepares one connected component for simulation. Initial
// positions are seeded: nodes start on a spiral in fixed member order with
// deterministic jitter, so identical (snapshot, algorithm, seed) inputs run
// identical simulations.
func newSimulation(snap *graph.Snapshot, members []string, algorithm Algorithm, seed int64, approxThreshold int) *simulation {
	rng := rand.New(rand.NewSource(seed ^ int64(len(members))))

	index := make(map[string]int, len(members))
	nodes := make([]simNode, len(members))
	for i, id := range members {
		index[id] = i
		angle := float64(i) * 2.399963 // golden angle keeps the spiral even
		radius := idealDistance * 0.5 * math.Sqrt(float64(i)+1)
		nodes[i] = simNode{
			id:   id,
			x:    radius*math.Cos(angle) + rng.Float64(),
			y:    radius*math.Sin(angle) + rng.Float64(),
			mass: 1,
		}
	}

	memberSet := make(map[string]struct{}, len(members))
	for _, id := range members {
		memberSet[id] = struct{}{}
	}

	var edges []simEdge
	seen := make(map[int]struct{})
	for _, id := range members {
		for _, n := range snap.Neighbors(id) {
			if _, ok := memberSet[n.ID]; !ok {
				continue
			}
			if _, dup := seen[n.EdgeIndex]; dup {
				continue
			}
			seen[n.EdgeIndex] = struct{}{}
			rel := snap.Relationships[n.EdgeIndex]
			a, b := index[rel.SourceID], index[rel.TargetID]
			if a == b {
				continue
			}
			edges = append(edges, simEdge{a: a, b: b, weight: snap.EdgeWeight(n.EdgeIndex)})
		}
	}

	// Heavier nodes repel harder, which spreads hubs out
	for _, e := range edges {
		nodes[e.a].mass++
		nodes[e.b].mass++
	}

	var rep repulsor
	if UseApproximation(len(members), approxThreshold) {
		rep = &quadRepulsor{theta: 0.7}
	} else {
		rep = exactRepulsor{}
	}

	return &simulation{
		nodes:         nodes,
		edges:         edges,
		logAttraction: algorithm != AlgorithmForceLinear,
		rep:           rep,
		temperature:   idealDistance * math.Sqrt(float64(len(members))),
	}
}

// run iterates the simulation, checking the wall clock between iterations.
// Returns true if the deadline cut the run short.
func (s *simulation) run(iterations int, deadline time.Time) bool {
	if len(s.nodes) < 2 {
		return false
	}

	step := s.temperature / float64(iterations)
	for i := 0; i < iterations; i++ {
		if time.Now().After(deadline) {
			return true
		}

		for j := range s.nodes {
			s.nodes[j].dx = 0
			s.nodes[j].dy = 0
		}

		s.rep.apply(s.nodes)
		s.applyAttraction()
		s.displace()

		s.temperature -= step
		if s.temperature < 1 {
			s.temperature = 1
		}
	}
	return false
}

// applyAttraction pulls connected nodes together along every edge, weighted
// by edge weight. In log mode the pull grows with log(1 + d/ideal) instead
// of linearly, so tightly knit communities contract without dragging the
// whole graph into one mass.
func (s *simulation) applyAttraction() {
	for _, e := range s.edges {
		a := &s.nodes[e.a]
		b := &s.nodes[e.b]

		dx := b.x - a.x
		dy := b.y - a.y
		dist := math.Hypot(dx, dy)
		if dist < minSeparation {
			dist = minSeparation
		}

		var force float64
		if s.logAttraction {
			force = e.weight * idealDistance * math.Log1p(dist/idealDistance)
		} else {
			force = e.weight * dist * dist / idealDistance
		}

		fx := force * dx / dist
		fy := force * dy / dist
		a.dx += fx
		a.dy += fy
		b.dx -= fx
		b.dy -= fy
	}
}

// displace moves each node along its accumulated force, capped by the
// current temperature.
func (s *simulation) displace() {
	for i := range s.nodes {
		n := &s.nodes[i]
		disp := math.Hypot(n.dx, n.dy)
		if disp < minSeparation {
			continue
		}
		limited := math.Min(disp, s.temperature)
		n.x += n.dx / disp * limited
		n.y += n.dy / disp * limited
	}
}

// layout extracts the component's final positions and bounding box.
func (s *simulation) layout() componentLayout {
	cl := componentLayout{
		ids:    make([]string, len(s.nodes)),
		points: make([]Point, len(s.nodes)),
		minX:   math.Inf(1),
		minY:   math.Inf(1),
		maxX:   math.Inf(-1),
		maxY:   math.Inf(-1),
	}
	for i, n := range s.nodes {
		cl.ids[i] = n.id
		cl.points[i] = Point{X: n.x, Y: n.y}
		cl.minX = math.Min(cl.minX, n.x)
		cl.minY = math.Min(cl.minY, n.y)
		cl.maxX = math.Max(cl.maxX, n.x)
		cl.maxY = math.Max(cl.maxY, n.y)
	}
	return cl
}

// exactRepulsor computes pairwise repulsion in O(n^2). Simple and precise;
// used below the approximation threshold.
type exactRepulsor struct{}

func (exactRepulsor) apply(nodes []simNode) {
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			a := &nodes[i]
			b := &nodes[j]

			dx := a.x - b.x
			dy := a.y - b.y
			dist := math.Hypot(dx, dy)
			if dist < minSeparation {
				dist = minSeparation
				dx = minSeparation
			}

			force := repulsionGain * a.mass * b.mass * idealDistance * idealDistance / dist
			fx := force * dx / (dist * dist)
			fy := force * dy / (dist * dist)
			a.dx += fx
			a.dy += fy
			b.dx -= fx
			b.dy -= fy
		}
	}
}
