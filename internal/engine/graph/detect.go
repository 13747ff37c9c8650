package graph

import "sort"

// CallCycles returns the strongly connected call clusters with more than
// one member, plus self-recursive symbols, each component sorted by ID.
// Tarjan's algorithm, iterative over the resolved call edges.
func (g *Graph) CallCycles() [][]string {
	adjacency := make(map[string][]string)
	for _, edge := range g.edges {
		if edge.Kind != EdgeCalls || edge.Resolution != ResolutionResolved {
			continue
		}
		adjacency[edge.From] = append(adjacency[edge.From], edge.To)
	}

	index := 0
	indexes := make(map[string]int)
	lowlinks := make(map[string]int)
	onStack := make(map[string]bool)
	var stack []string
	var components [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		indexes[v] = index
		lowlinks[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adjacency[v] {
			if _, seen := indexes[w]; !seen {
				strongconnect(w)
				if lowlinks[w] < lowlinks[v] {
					lowlinks[v] = lowlinks[w]
				}
			} else if onStack[w] {
				if indexes[w] < lowlinks[v] {
					lowlinks[v] = indexes[w]
				}
			}
		}

		if lowlinks[v] == indexes[v] {
			var component []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			if len(component) > 1 || selfLoop(adjacency, v) {
				sort.Strings(component)
				components = append(components, component)
			}
		}
	}

	roots := make([]string, 0, len(adjacency))
	for v := range adjacency {
		roots = append(roots, v)
	}
	sort.Strings(roots)
	for _, v := range roots {
		if _, seen := indexes[v]; !seen {
			strongconnect(v)
		}
	}

	return components
}

func selfLoop(adjacency map[string][]string, v string) bool {
	for _, w := range adjacency[v] {
		if w == v {
			return true
		}
	}
	return false
}

// ImportCycles returns cyclic package import chains over resolved import
// edges. Each cycle lists the packages in traversal order.
func (g *Graph) ImportCycles() [][]string {
	adjacency := make(map[string][]string)
	for _, edge := range g.edges {
		if edge.Kind != EdgeImports || edge.Resolution != ResolutionResolved {
			continue
		}
		adjacency[edge.From] = append(adjacency[edge.From], edge.To)
	}

	var cycles [][]string
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	roots := make([]string, 0, len(adjacency))
	for v := range adjacency {
		roots = append(roots, v)
	}
	sort.Strings(roots)

	var walk func(curr string, path []string)
	walk = func(curr string, path []string) {
		visited[curr] = true
		onStack[curr] = true
		path = append(path, curr)

		next := append([]string(nil), adjacency[curr]...)
		sort.Strings(next)
		for _, n := range next {
			if onStack[n] {
				for i, pkg := range path {
					if pkg == n {
						cycle := make([]string, len(path)-i)
						copy(cycle, path[i:])
						cycles = append(cycles, cycle)
						break
					}
				}
			} else if !visited[n] {
				walk(n, path)
			}
		}

		onStack[curr] = false
	}

	for _, v := range roots {
		if !visited[v] {
			walk(v, nil)
		}
	}

	return cycles
}
