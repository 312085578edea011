package partition_graph

import (
	"fmt"
	"io"
)

func printTransitionsFrom(w io.Writer, g *Graph, id PartitionID, indent string) {
	for _, tr := range g.Transitions(id) {
		fmt.Fprintf(w,
			"%s↳ %s (#%d) weight=%d traces=%v\n",
			indent,
			g.Label(tr.To),
			tr.To,
			tr.Weight,
			tr.Traces,
		)
	}
}

// Print writes a text dump of the graph grouped by BFS distance from INITIAL.
// Partitions unreachable from INITIAL are listed last.
func Print(w io.Writer, g *Graph) {
	levels := computeLevels(g)

	grouped := make(map[int][]PartitionID)
	maxLevel := 0
	for _, id := range g.Partitions() {
		lvl, ok := levels[id]
		if !ok {
			lvl = -1
		}
		grouped[lvl] = append(grouped[lvl], id)
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}

	for lvl := 0; lvl <= maxLevel; lvl++ {
		printLevel(w, g, fmt.Sprintf("[Level %d]", lvl), grouped[lvl])
	}
	if len(grouped[-1]) > 0 {
		printLevel(w, g, "[Unreachable]", grouped[-1])
	}
}

func printLevel(w io.Writer, g *Graph, title string, ids []PartitionID) {
	fmt.Fprintf(w, "\n%s\n", title)
	for i, id := range ids {
		prefix := "├──"
		if i == len(ids)-1 {
			prefix = "└──"
		}
		p := g.partitions[id]
		fmt.Fprintf(w, "%s %s (#%d) size=%d\n", prefix, p.typ, id, p.Size())
		printTransitionsFrom(w, g, id, "    ")
	}
}

func computeLevels(g *Graph) map[PartitionID]int {
	levels := map[PartitionID]int{g.initial: 0}
	queue := []PartitionID{g.initial}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range g.Successors(cur) {
			if _, seen := levels[next]; seen {
				continue
			}
			levels[next] = levels[cur] + 1
			queue = append(queue, next)
		}
	}
	return levels
}
