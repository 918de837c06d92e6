package kernel

import "github.com/kerneld-io/kerneld/internal/kerrors"

// adjacency is a Label-keyed directed graph used internally by Schedule to
// validate the stage spine and task attachments before they're wired in.
// The cycle check below is a direct adaptation of a recursion-stack DFS:
// visited marks any node reached at all, onStack marks nodes on the current
// path, and a back-edge into onStack is the cycle.
type adjacency map[Label][]Label

func (g adjacency) hasCycleFrom(start Label) bool {
	visited := make(map[Label]bool)
	onStack := make(map[Label]bool)
	return g.walk(start, visited, onStack)
}

func (g adjacency) walk(n Label, visited, onStack map[Label]bool) bool {
	visited[n] = true
	onStack[n] = true
	for _, next := range g[n] {
		if !visited[next] {
			if g.walk(next, visited, onStack) {
				return true
			}
		} else if onStack[next] {
			return true
		}
	}
	onStack[n] = false
	return false
}

// validateInsertion checks that adding the edge from -> to would not create
// a cycle in g, without mutating g. Schedule calls this before every
// InsertStage so a misuse surfaces as kerrors.Conflict at the call site
// rather than as a hang during Run. AddOnceTask does not call it: task
// attachments are not recorded in g.
func (g adjacency) validateInsertion(from, to Label) error {
	trial := make(adjacency, len(g)+1)
	for k, v := range g {
		trial[k] = append([]Label(nil), v...)
	}
	trial[from] = append(trial[from], to)
	if trial.hasCycleFrom(from) {
		return kerrors.New(kerrors.Conflict, "inserting edge %s -> %s would create a cycle", from, to)
	}
	return nil
}
