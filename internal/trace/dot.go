package trace

import (
	"fmt"

	"github.com/awalterschulze/gographviz"

	"github.com/roach88/coordsim/internal/event"
)

// RenderDOT draws a run as a Graphviz digraph.
//
// Each actor gets a cluster holding its events in Seq order, chained by
// solid edges. On the gate, a dashed edge joins the done event that left
// the gate empty (a writer, or the last reader out) to the next active event
// of a different actor, showing who handed the gate to whom. Readers joining
// readers that are already active get no hand-off edge.
func RenderDOT(name string, events []event.Event) (string, error) {
	graph := gographviz.NewEscape()
	if err := graph.SetDir(true); err != nil {
		return "", err
	}
	if err := graph.SetName(name); err != nil {
		return "", err
	}

	last := map[string]string{}
	var lastDone *event.Event

	for i := range events {
		e := &events[i]
		cluster := fmt.Sprintf("cluster_%s_%d", e.Kind, e.Actor)
		if _, ok := last[cluster]; !ok {
			if err := graph.AddSubGraph(name, cluster, map[string]string{
				"label": fmt.Sprintf("%s %d", e.Kind, e.Actor),
			}); err != nil {
				return "", err
			}
			last[cluster] = ""
		}

		node := nodeName(e)
		if err := graph.AddNode(cluster, node, map[string]string{
			"label": fmt.Sprintf("#%d %s", e.Seq, e.Phase),
			"shape": shape(e.Phase),
		}); err != nil {
			return "", err
		}
		if prev := last[cluster]; prev != "" {
			if err := graph.AddEdge(prev, node, true, nil); err != nil {
				return "", err
			}
		}
		last[cluster] = node

		if e.Engine != event.EngineGate {
			continue
		}
		switch e.Phase {
		case event.PhaseDone:
			if e.Readers == 0 {
				lastDone = e
			}
		case event.PhaseActive:
			if lastDone != nil && (lastDone.Kind != e.Kind || lastDone.Actor != e.Actor) {
				if err := graph.AddEdge(nodeName(lastDone), node, true, map[string]string{
					"style": "dashed",
				}); err != nil {
					return "", err
				}
			}
			lastDone = nil
		}
	}
	return graph.String(), nil
}

func nodeName(e *event.Event) string {
	return fmt.Sprintf("e%d", e.Seq)
}

func shape(phase string) string {
	switch phase {
	case event.PhaseRejected, event.PhaseProviderDone:
		return "octagon"
	case event.PhaseActive, event.PhaseServicing:
		return "box"
	}
	return "ellipse"
}
