package layout

import (
	"math"
	"sort"
)

const componentPadding = idealDistance * 2

type componentLayout struct {
	ids    []string
	points []Point

	minX, minY, maxX, maxY float64
}

func (c componentLayout) width() float64  { return c.maxX - c.minX }
func (c componentLayout) height() float64 { return c.maxY - c.minY }

// packComponents places independently laid out components onto a grid of
// non-overlapping regions, largest first. Cell size is the largest component
// extent plus padding, so no two bounding boxes can touch and isolated nodes
// stay anchored near the main mass. Ordering ties break on the first member
// id to keep the packing deterministic.
func packComponents(components []componentLayout, out map[string]Point) {
	if len(components) == 0 {
		return
	}

	if len(components) == 1 {
		c := components[0]
		for i, id := range c.ids {
			out[id] = c.points[i]
		}
		return
	}

	order := make([]int, len(components))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := components[order[a]], components[order[b]]
		if len(ca.ids) != len(cb.ids) {
			return len(ca.ids) > len(cb.ids)
		}
		return ca.ids[0] < cb.ids[0]
	})

	var cell float64
	for _, c := range components {
		cell = math.Max(cell, math.Max(c.width(), c.height()))
	}
	cell += componentPadding

	cols := int(math.Ceil(math.Sqrt(float64(len(components)))))

	for slot, idx := range order {
		c := components[idx]
		row := slot / cols
		col := slot % cols

		// Center the component inside its cell
		offX := float64(col)*cell + (cell-c.width())/2 - c.minX
		offY := float64(row)*cell + (cell-c.height())/2 - c.minY

		for i, id := range c.ids {
			out[id] = Point{X: c.points[i].X + offX, Y: c.points[i].Y + offY}
		}
	}
}
