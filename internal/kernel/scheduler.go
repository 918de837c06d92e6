package kernel

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/kerneld-io/kerneld/internal/kerrors"
)

// Predicate gates a stage or task. It runs at most once per Run, before any
// of its task-children are dispatched.
type Predicate func(ctx context.Context, inj *Injector) (bool, error)

type stageNode struct {
	label         Label
	cond          Predicate
	taskChildren  []Label
	stageChildren []Label
}

type taskNode struct {
	label Label
	fn    BoundFunc
	cond  Predicate
	ran   atomic.Bool
}

// Schedule is a rooted spine of Stages with Tasks attached as leaf children.
// Stages form a linear chain built by InsertStage/InsertStageVec; each stage
// may additionally own any number of one-shot Tasks added with AddOnceTask.
//
// Run walks the spine from the root: a stage's own tasks are dispatched
// concurrently and awaited before the walk descends into its child stage, so
// an ancestor stage's tasks always complete (and succeed) before any
// descendant stage's tasks begin. A task or stage predicate is evaluated
// exactly once; a false stage predicate skips that stage's tasks but never
// skips descending into its child stage, matching the spine's role as a
// structural backbone independent of gating.
type Schedule struct {
	root   Label
	stages map[Label]*stageNode
	tasks  map[Label]*taskNode
	graph  adjacency
}

// NewSchedule creates a Schedule whose root stage is unconditional.
func NewSchedule(root Label) *Schedule {
	s := &Schedule{
		root:   root,
		stages: make(map[Label]*stageNode),
		tasks:  make(map[Label]*taskNode),
		graph:  make(adjacency),
	}
	s.stages[root] = &stageNode{label: root}
	return s
}

// InsertStage splices a new stage immediately after an existing one: the
// existing stage's current child stages become the new stage's children, and
// the existing stage's only child stage becomes the new one. This mirrors
// insert_stage's rewiring so repeated calls build a linear spine one stage at
// a time regardless of insertion order.
func (s *Schedule) InsertStage(after, label Label, cond Predicate) error {
	prev, ok := s.stages[after]
	if !ok {
		return kerrors.New(kerrors.NotFound, "stage %s does not exist", after)
	}
	if _, exists := s.stages[label]; exists {
		return kerrors.New(kerrors.Conflict, "stage %s already exists", label)
	}
	if err := s.graph.validateInsertion(after, label); err != nil {
		return err
	}

	node := &stageNode{label: label, cond: cond, stageChildren: prev.stageChildren}
	prev.stageChildren = []Label{label}

	s.stages[label] = node
	s.graph[after] = []Label{label}
	s.graph[label] = node.stageChildren
	return nil
}

// InsertStageVec inserts a chain of stages after an existing one, each
// inserted after the previous, in order.
func (s *Schedule) InsertStageVec(after Label, labels []Label, cond Predicate) error {
	cur := after
	for _, label := range labels {
		if err := s.InsertStage(cur, label, cond); err != nil {
			return err
		}
		cur = label
	}
	return nil
}

// AddOnceTask attaches a one-shot task to stage. fn is bound via Bind, so its
// parameters may be *Injector, Res[T], TakeArg[T] or TakeOptArg[T]. cond, if
// non-nil, is evaluated once per Run immediately before fn would run and, if
// false, skips the task without error.
func (s *Schedule) AddOnceTask(stage, label Label, fn any, cond Predicate) error {
	st, ok := s.stages[stage]
	if !ok {
		return kerrors.New(kerrors.NotFound, "stage %s does not exist", stage)
	}
	if _, exists := s.tasks[label]; exists {
		return kerrors.New(kerrors.Conflict, "task %s already exists", label)
	}
	bound, err := Bind(fn)
	if err != nil {
		return kerrors.Wrap(err, "binding task %s", label)
	}
	s.tasks[label] = &taskNode{label: label, fn: bound, cond: cond}
	st.taskChildren = append(st.taskChildren, label)
	return nil
}

// Run executes the schedule from its root stage, returning the first error
// encountered (siblings already in flight are allowed to finish; errgroup
// returns only the first error, and any later sibling errors are dropped).
func (s *Schedule) Run(ctx context.Context, inj *Injector) error {
	return s.runStage(ctx, inj, s.root)
}

func (s *Schedule) runStage(ctx context.Context, inj *Injector, label Label) error {
	stage, ok := s.stages[label]
	if !ok {
		return kerrors.New(kerrors.Bug, "schedule references unknown stage %s", label)
	}

	pass := true
	if stage.cond != nil {
		var err error
		pass, err = stage.cond(ctx, inj)
		if err != nil {
			return kerrors.Wrap(err, "evaluating predicate for stage %s", label)
		}
	}

	if pass && len(stage.taskChildren) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		for _, taskLabel := range stage.taskChildren {
			taskLabel := taskLabel
			g.Go(func() error { return s.runTask(gctx, inj, taskLabel) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	if len(stage.stageChildren) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, childLabel := range stage.stageChildren {
		childLabel := childLabel
		g.Go(func() error { return s.runStage(gctx, inj, childLabel) })
	}
	return g.Wait()
}

func (s *Schedule) runTask(ctx context.Context, inj *Injector, label Label) error {
	task, ok := s.tasks[label]
	if !ok {
		return kerrors.New(kerrors.Bug, "schedule references unknown task %s", label)
	}
	if task.cond != nil {
		pass, err := task.cond(ctx, inj)
		if err != nil {
			return kerrors.Wrap(err, "evaluating predicate for task %s", label)
		}
		if !pass {
			return nil
		}
	}
	if !task.ran.CompareAndSwap(false, true) {
		return kerrors.New(kerrors.Bug, "task %s already ran", label)
	}
	if err := task.fn(ctx, inj); err != nil {
		return kerrors.Wrap(err, "running task %s", label)
	}
	return nil
}
