// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func cyclesOf(g *Graph) [][]string {
	var out [][]string
	for _, c := range g.Cycles() {
		out = append(out, c.Cycle)
	}
	return out
}

func TestCycles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		edges [][2]string
		want  [][]string
	}{
		{name: "empty graph"},
		{name: "chain", edges: [][2]string{{"a", "b"}, {"b", "c"}}},
		{name: "diamond", edges: [][2]string{{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"}}},
		{
			name:  "two node cycle",
			edges: [][2]string{{"a", "b"}, {"b", "a"}},
			want:  [][]string{{"a", "b"}},
		},
		{
			name:  "self import",
			edges: [][2]string{{"main", "util"}, {"util", "util"}},
			want:  [][]string{{"util"}},
		},
		{
			name:  "cycle below an acyclic prefix",
			edges: [][2]string{{"main", "a"}, {"a", "b"}, {"b", "c"}, {"c", "a"}, {"c", "leaf"}},
			want:  [][]string{{"a", "b", "c"}},
		},
		{
			name:  "disjoint cycles in insertion order",
			edges: [][2]string{{"x", "y"}, {"p", "q"}, {"q", "p"}, {"y", "x"}},
			want:  [][]string{{"x", "y"}, {"p", "q"}},
		},
		{
			name:  "figure eight is one cycle",
			edges: [][2]string{{"a", "b"}, {"b", "a"}, {"a", "c"}, {"c", "a"}},
			want:  [][]string{{"a", "b", "c"}},
		},
		{
			name:  "duplicate edges",
			edges: [][2]string{{"a", "b"}, {"a", "b"}, {"b", "a"}},
			want:  [][]string{{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := New()
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1])
			}
			if diff := cmp.Diff(tt.want, cyclesOf(g)); diff != "" {
				t.Errorf("Cycles() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAddNodeIdempotent(t *testing.T) {
	t.Parallel()

	g := New()
	g.AddNode("a")
	g.AddNode("a")
	g.AddEdge("a", "b")
	if diff := cmp.Diff([]string{"a", "b"}, g.nodes); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
}

func TestCycleErrorMessage(t *testing.T) {
	t.Parallel()

	err := &CycleError{Cycle: []string{"a", "b", "c"}}
	if got, want := err.Error(), "cycle: a -> b -> c -> a"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
