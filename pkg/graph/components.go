package graph

// Components partitions the snapshot's nodes into connected components using
// breadth-first search over undirected adjacency. Components are returned in
// the snapshot's fixed node order (the component containing the smallest id
// first, members likewise ordered by discovery), so repeated calls on the
// same snapshot yield identical slices.
func (s *Snapshot) Components() [][]string {
	visited := make(map[string]bool, len(s.order))
	var components [][]string

	for _, startID := range s.order {
		if visited[startID] {
			continue
		}

		component := []string{startID}
		visited[startID] = true
		queue := []string{startID}

		for len(queue) > 0 {
			curr := queue[0]
			queue = queue[1:]

			for _, n := range s.adjacency[curr] {
				if visited[n.ID] {
					continue
				}
				visited[n.ID] = true
				component = append(component, n.ID)
				queue = append(queue, n.ID)
			}
		}

		components = append(components, component)
	}

	return components
}
