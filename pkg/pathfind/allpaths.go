package pathfind

import "github.com/lattice-intel/lattice/pkg/graph"

// AllPaths returns a lazy iterator over every simple path from source to
// target up to maxDepth hops. The iterator performs depth-first search
// incrementally: no path is computed before Next asks for it, and the total
// number of yielded paths is capped to avoid combinatorial blow-up on dense
// graphs. Unknown endpoints return common.ErrEntityNotFound.
func (e *Engine) AllPaths(snap *graph.Snapshot, source, target string, maxDepth int) (*PathIterator, error) {
	if err := checkEndpoints(snap, source, target); err != nil {
		return nil, err
	}
	it := &PathIterator{
		snap:     snap,
		source:   source,
		target:   target,
		maxDepth: e.clampDepth(maxDepth),
		maxPaths: e.cfg.MaxPaths,
	}
	it.Reset()
	return it, nil
}

// PathIterator walks paths one Next call at a time. Not safe for concurrent
// use; Reset restarts the sequence from the beginning.
type PathIterator struct {
	snap     *graph.Snapshot
	source   string
	target   string
	maxDepth int
	maxPaths int

	stack   []frame
	path    []string
	onPath  map[string]bool
	yielded int
}

type frame struct {
	id    string
	next  int             // index of the next neighbor to try
	tried map[string]bool // parallel edges must not yield duplicate paths
}

// Reset restarts the iterator from the first path.
func (it *PathIterator) Reset() {
	it.stack = []frame{{id: it.source}}
	it.path = []string{it.source}
	it.onPath = map[string]bool{it.source: true}
	it.yielded = 0
}

// Next returns the next path and true, or nil and false when the sequence is
// exhausted or the path cap was hit. Returned slices are copies the caller
// may keep.
func (it *PathIterator) Next() ([]string, bool) {
	if it.yielded >= it.maxPaths {
		return nil, false
	}

	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]

		if top.id == it.target && len(it.path) > 1 {
			// Reached the target; yield and backtrack
			out := make([]string, len(it.path))
			copy(out, it.path)
			it.pop()
			it.yielded++
			return out, true
		}

		neighbors := it.snap.Neighbors(top.id)
		advanced := false
		for top.next < len(neighbors) {
			nb := neighbors[top.next]
			top.next++

			if it.onPath[nb.ID] || top.tried[nb.ID] {
				continue
			}
			if top.tried == nil {
				top.tried = make(map[string]bool)
			}
			top.tried[nb.ID] = true
			if len(it.path) > it.maxDepth {
				continue
			}
			// Only the final hop may land on the target at full depth
			if len(it.path) == it.maxDepth && nb.ID != it.target {
				continue
			}

			it.stack = append(it.stack, frame{id: nb.ID})
			it.path = append(it.path, nb.ID)
			it.onPath[nb.ID] = true
			advanced = true
			break
		}

		if !advanced {
			it.pop()
		}
	}

	return nil, false
}

func (it *PathIterator) pop() {
	top := it.stack[len(it.stack)-1]
	it.stack = it.stack[:len(it.stack)-1]
	it.path = it.path[:len(it.path)-1]
	delete(it.onPath, top.id)
}
