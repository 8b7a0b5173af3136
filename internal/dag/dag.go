// SPDX-License-Identifier: MPL-2.0

// Package dag records directed dependency edges between named nodes and
// finds the cycles among them. The import resolver uses it to report import
// cycles, which resolution itself tolerates.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

type (
	// CycleError describes one cycle. Cycle lists its members in discovery
	// order, starting from the member added to the graph first.
	CycleError struct {
		Cycle []string
	}

	// Graph is a directed graph keyed by node name. Iteration follows
	// insertion order so results are deterministic.
	Graph struct {
		adjacency map[string][]string
		nodes     []string
		nodeSet   map[string]bool
	}

	// tarjan holds the state of one strongly connected component search.
	tarjan struct {
		g       *Graph
		index   map[string]int
		low     map[string]int
		onStack map[string]bool
		stack   []string
		next    int
		sccs    [][]string
	}
)

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle: %s -> %s", strings.Join(e.Cycle, " -> "), e.Cycle[0])
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		adjacency: make(map[string][]string),
		nodeSet:   make(map[string]bool),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds the edge from -> to, adding both nodes as needed. Duplicate
// edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if !slices.Contains(g.adjacency[from], to) {
		g.adjacency[from] = append(g.adjacency[from], to)
	}
}

// Cycles returns every cycle of g: each strongly connected component with
// more than one node, plus nodes with an edge to themselves. Members of a
// cycle are ordered by a walk along its edges, and cycles are ordered by
// their first member's insertion.
func (g *Graph) Cycles() []*CycleError {
	t := &tarjan{
		g:       g,
		index:   make(map[string]int, len(g.nodes)),
		low:     make(map[string]int, len(g.nodes)),
		onStack: make(map[string]bool, len(g.nodes)),
	}
	for _, n := range g.nodes {
		if _, visited := t.index[n]; !visited {
			t.connect(n)
		}
	}

	var cycles []*CycleError
	for _, scc := range t.sccs {
		if len(scc) == 1 && !slices.Contains(g.adjacency[scc[0]], scc[0]) {
			continue
		}
		cycles = append(cycles, &CycleError{Cycle: g.walk(scc)})
	}
	slices.SortStableFunc(cycles, func(a, b *CycleError) int {
		return slices.Index(g.nodes, a.Cycle[0]) - slices.Index(g.nodes, b.Cycle[0])
	})
	return cycles
}

func (t *tarjan) connect(n string) {
	t.index[n] = t.next
	t.low[n] = t.next
	t.next++
	t.stack = append(t.stack, n)
	t.onStack[n] = true

	for _, m := range t.g.adjacency[n] {
		if _, visited := t.index[m]; !visited {
			t.connect(m)
			t.low[n] = min(t.low[n], t.low[m])
		} else if t.onStack[m] {
			t.low[n] = min(t.low[n], t.index[m])
		}
	}

	if t.low[n] != t.index[n] {
		return
	}
	var scc []string
	for {
		top := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[top] = false
		scc = append(scc, top)
		if top == n {
			break
		}
	}
	t.sccs = append(t.sccs, scc)
}

// walk orders the members of a component by following edges from its
// earliest inserted member, staying inside the component.
func (g *Graph) walk(scc []string) []string {
	members := make(map[string]bool, len(scc))
	start := scc[0]
	for _, n := range scc {
		members[n] = true
		if slices.Index(g.nodes, n) < slices.Index(g.nodes, start) {
			start = n
		}
	}

	order := []string{start}
	seen := map[string]bool{start: true}
	for cur := start; ; {
		next := ""
		for _, m := range g.adjacency[cur] {
			if members[m] && !seen[m] {
				next = m
				break
			}
		}
		if next == "" {
			break
		}
		order = append(order, next)
		seen[next] = true
		cur = next
	}
	// Members not on the single path (e.g. in a figure-eight) follow in
	// insertion order.
	for _, n := range g.nodes {
		if members[n] && !seen[n] {
			order = append(order, n)
		}
	}
	return order
}
