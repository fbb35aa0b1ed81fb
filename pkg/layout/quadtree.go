package layout

import "math"

// quadRepulsor approximates pairwise repulsion with a Barnes-Hut quad tree:
// distant groups of nodes act through their aggregate center of mass, which
// brings the per-iteration cost from O(n^2) down to O(n log n). theta
// controls the accuracy/speed trade-off (higher is coarser).
type quadRepulsor struct {
	theta float64
}

func (q *quadRepulsor) apply(nodes []simNode) {
	if len(nodes) < 2 {
		return
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range nodes {
		minX = math.Min(minX, nodes[i].x)
		minY = math.Min(minY, nodes[i].y)
		maxX = math.Max(maxX, nodes[i].x)
		maxY = math.Max(maxY, nodes[i].y)
	}

	size := math.Max(maxX-minX, maxY-minY)
	if size < minSeparation {
		size = minSeparation
	}

	root := &quadCell{x: minX, y: minY, size: size}
	for i := range nodes {
		root.insert(&nodes[i], 0)
	}

	theta := q.theta
	if theta <= 0 {
		theta = 0.7
	}
	for i := range nodes {
		root.repel(&nodes[i], theta)
	}
}

const maxQuadDepth = 32

// quadCell is one square region of the tree. Leaves hold a single node;
// internal cells hold the aggregate mass and center of mass of everything
// below them.
type quadCell struct {
	x, y, size float64

	mass        float64
	comX, comY  float64
	node        *simNode
	children    [4]*quadCell
	hasChildren bool
}

func (c *quadCell) insert(n *simNode, depth int) {
	// Fold the new node into the aggregate
	total := c.mass + n.mass
	c.comX = (c.comX*c.mass + n.x*n.mass) / total
	c.comY = (c.comY*c.mass + n.y*n.mass) / total
	c.mass = total

	if !c.hasChildren && c.node == nil {
		c.node = n
		return
	}

	// Coincident points would split forever; past the depth cap the cell
	// just keeps the aggregate
	if depth >= maxQuadDepth {
		return
	}

	if !c.hasChildren {
		existing := c.node
		c.node = nil
		c.hasChildren = true
		c.childFor(existing).insert(existing, depth+1)
	}
	c.childFor(n).insert(n, depth+1)
}

func (c *quadCell) childFor(n *simNode) *quadCell {
	half := c.size / 2
	cx, cy := c.x, c.y
	idx := 0
	if n.x >= c.x+half {
		idx |= 1
		cx += half
	}
	if n.y >= c.y+half {
		idx |= 2
		cy += half
	}
	if c.children[idx] == nil {
		c.children[idx] = &quadCell{x: cx, y: cy, size: half}
	}
	return c.children[idx]
}

// repel applies the cell's repulsion to n, recursing only when the cell is
// too close for its aggregate to stand in for its contents.
func (c *quadCell) repel(n *simNode, theta float64) {
	if c.mass == 0 || (c.node == n && !c.hasChildren) {
		return
	}

	dx := n.x - c.comX
	dy := n.y - c.comY
	dist := math.Hypot(dx, dy)
	if dist < minSeparation {
		dist = minSeparation
		dx = minSeparation
	}

	if c.hasChildren && c.size/dist >= theta {
		for _, child := range c.children {
			if child != nil {
				child.repel(n, theta)
			}
		}
		return
	}

	mass := c.mass
	if c.node == n {
		// Aggregate includes the target itself; subtract it out
		mass -= n.mass
		if mass <= 0 {
			return
		}
	}

	force := repulsionGain * n.mass * mass * idealDistance * idealDistance / dist
	n.dx += force * dx / (dist * dist)
	n.dy += force * dy / (dist * dist)
}
