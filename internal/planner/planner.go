// Package planner implements goal-oriented action planning: an A*
// search over world states where edges are action descriptors. The
// search is fully deterministic; identical inputs always yield the
// identical plan.
package planner

import (
	"container/heap"
	"errors"
	"fmt"

	"grindbot/internal/actions"
	"grindbot/internal/logging"
	"grindbot/internal/state"
)

// DefaultMaxNodes bounds the search; expansion past this count aborts
// with ErrNoPlan rather than stalling the loop.
const DefaultMaxNodes = 10000

// ErrNoPlan is returned when the goal is unreachable within the node
// budget.
var ErrNoPlan = errors.New("no plan found")

// Plan is an ordered action sequence reaching the goal.
type Plan struct {
	// Actions are descriptor names in execution order. Empty when the
	// goal already held in the start state.
	Actions []string

	// Cost is the summed weight of the plan's actions.
	Cost float64

	// NodesExpanded counts search effort, for diagnostics.
	NodesExpanded int
}

// Empty reports whether the plan requires no actions.
func (p *Plan) Empty() bool { return len(p.Actions) == 0 }

// Planner searches the action catalogue for goal-reaching sequences.
type Planner struct {
	registry *actions.Registry
	maxNodes int
}

// Option configures a Planner.
type Option func(*Planner)

// WithMaxNodes overrides the node budget. Zero disables search
// entirely; every non-trivial goal fails with ErrNoPlan.
func WithMaxNodes(n int) Option {
	return func(p *Planner) { p.maxNodes = n }
}

// New builds a planner over the registry.
func New(registry *actions.Registry, opts ...Option) *Planner {
	p := &Planner{registry: registry, maxNodes: DefaultMaxNodes}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// node is one A* search state. seq is the global insertion counter used
// as the final tie-break so expansion order is reproducible.
type node struct {
	state  state.Map
	hash   string
	g      float64
	h      int
	parent *node
	action string
	seq    int
	index  int
}

func (n *node) f() float64 { return n.g + float64(n.h) }

// openHeap orders by f ascending, then g ascending, then seq ascending.
type openHeap []*node

func (h openHeap) Len() int { return len(h) }
func (h openHeap) Less(i, j int) bool {
	if h[i].f() != h[j].f() {
		return h[i].f() < h[j].f()
	}
	if h[i].g != h[j].g {
		return h[i].g < h[j].g
	}
	return h[i].seq < h[j].seq
}
func (h openHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *openHeap) Push(x any) {
	n := x.(*node)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *openHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// Plan searches for an action sequence transforming the start state
// into one satisfying the goal. A goal that already holds returns an
// empty plan.
func (p *Planner) Plan(start, goal state.Map) (*Plan, error) {
	if start.Satisfies(goal) {
		return &Plan{}, nil
	}

	seq := 0
	root := &node{
		state: start.Clone(),
		hash:  start.Hash(),
		h:     start.UnsatisfiedKeys(goal),
		seq:   seq,
	}

	open := &openHeap{}
	heap.Init(open)
	heap.Push(open, root)

	// best g seen per state hash; a cheaper rediscovery reopens the
	// state.
	best := map[string]float64{root.hash: 0}
	expanded := 0

	for open.Len() > 0 {
		current := heap.Pop(open).(*node)

		if current.state.Satisfies(goal) {
			plan := extract(current)
			plan.NodesExpanded = expanded
			logging.PlannerDebug("plan found: %d steps, cost %.0f, %d nodes",
				len(plan.Actions), plan.Cost, expanded)
			return plan, nil
		}

		if expanded >= p.maxNodes {
			logging.Planner("search aborted at %d nodes", expanded)
			return nil, fmt.Errorf("%w: node budget %d exhausted", ErrNoPlan, p.maxNodes)
		}
		expanded++

		for _, d := range p.registry.Applicable(current.state) {
			next := d.Apply(current.state)
			hash := next.Hash()
			g := current.g + d.Weight
			if prev, seen := best[hash]; seen && prev <= g {
				continue
			}
			best[hash] = g
			seq++
			heap.Push(open, &node{
				state:  next,
				hash:   hash,
				g:      g,
				h:      next.UnsatisfiedKeys(goal),
				parent: current,
				action: d.Name,
				seq:    seq,
			})
		}
	}

	logging.Planner("search exhausted after %d nodes, no plan", expanded)
	return nil, fmt.Errorf("%w: state space exhausted after %d nodes", ErrNoPlan, expanded)
}

// extract walks the parent chain back to the root.
func extract(n *node) *Plan {
	var names []string
	cost := n.g
	for cur := n; cur.parent != nil; cur = cur.parent {
		names = append(names, cur.action)
	}
	// Reverse into execution order.
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return &Plan{Actions: names, Cost: cost}
}
