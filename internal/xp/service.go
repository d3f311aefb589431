package xp

import (
	"github.com/rs/zerolog"

	"github.com/zortex-io/zortex-core/internal/eventbus"
	"github.com/zortex-io/zortex-core/internal/zerr"
)

// TaskEvent is the payload for "task:completed" / "task:uncompleted".
type TaskEvent struct {
	Task       Task
	Objectives []Objective
}

// ProjectEvent is the payload for "project:changed", emitted whenever a
// project's task list or own attributes change (including a single child
// task toggling), so its earned XP can be recomputed against the curve.
type ProjectEvent struct {
	Project    Project
	Objectives []Objective
}

// Service bridges document lifecycle events to recorded ledger
// transactions: it resolves each task/project's area links (upgrading a
// plain mention to a key_result link when an objective's key result claims
// it), runs the calculator, and writes the result through Store.
type Service struct {
	calc  *Calculator
	store *Store
	bus   *eventbus.Bus
	log   zerolog.Logger
}

// NewService builds a Service and subscribes it to the lifecycle events it
// reacts to, wiring every consumer during construction rather than leaving
// it to the caller to remember.
func NewService(calc *Calculator, xpstore *Store, bus *eventbus.Bus, log zerolog.Logger) *Service {
	s := &Service{
		calc:  calc,
		store: xpstore,
		bus:   bus,
		log:   log.With().Str("component", "xp_service").Logger(),
	}
	bus.On("task:completed", s.handleTaskCompleted, eventbus.WithName("xp_service.task_completed"))
	bus.On("task:uncompleted", s.handleTaskUncompleted, eventbus.WithName("xp_service.task_uncompleted"))
	bus.On("project:changed", s.handleProjectChanged, eventbus.WithName("xp_service.project_changed"))
	return s
}

func (s *Service) handleTaskCompleted(data any) {
	ev, ok := data.(TaskEvent)
	if !ok {
		s.log.Error().Str("event", "task:completed").Msg("unexpected payload type")
		return
	}
	if _, err := s.CompleteTask(ev.Task, ev.Objectives); err != nil {
		s.log.Error().Err(err).Str("task_id", ev.Task.ID).Msg("failed to record task completion")
	}
}

func (s *Service) handleTaskUncompleted(data any) {
	ev, ok := data.(TaskEvent)
	if !ok {
		s.log.Error().Str("event", "task:uncompleted").Msg("unexpected payload type")
		return
	}
	s.UncompleteTask(ev.Task.ID)
}

func (s *Service) handleProjectChanged(data any) {
	ev, ok := data.(ProjectEvent)
	if !ok {
		s.log.Error().Str("event", "project:changed").Msg("unexpected payload type")
		return
	}
	if _, err := s.UpdateProject(ev.Project, ev.Objectives); err != nil {
		s.log.Error().Err(err).Str("project_link", ev.Project.Link).Msg("failed to record project xp")
	}
}

// buildAreaLinks resolves an ordered, deduplicated set of area links from
// rawAreas (the direct area mentions, already concatenated by the caller in
// project-then-task order), upgrading any area claimed by an objective's
// key result (for a key result linking this project) from "basic" to
// "key_result". Any key-result area not already present in rawAreas is
// still appended, in the order its objective/key result is encountered, so
// an area mentioned only through an objective is not dropped.
func buildAreaLinks(rawAreas []string, projectLink string, objectives []Objective) []AreaLink {
	keyResultAreas := map[string]bool{}
	var keyResultOrder []string
	for _, obj := range objectives {
		for _, kr := range obj.KeyResults {
			linked := projectLink != "" && containsString(kr.LinkedProjects, projectLink)
			if !linked {
				continue
			}
			for _, a := range kr.Areas {
				if !keyResultAreas[a] {
					keyResultAreas[a] = true
					keyResultOrder = append(keyResultOrder, a)
				}
			}
		}
	}

	seen := map[string]bool{}
	links := make([]AreaLink, 0, len(rawAreas)+len(keyResultOrder))
	appendLink := func(a string) {
		if a == "" || seen[a] {
			return
		}
		seen[a] = true
		t := AreaLinkBasic
		if keyResultAreas[a] {
			t = AreaLinkKeyResult
		}
		links = append(links, AreaLink{Path: a, Type: t})
	}
	for _, a := range rawAreas {
		appendLink(a)
	}
	for _, a := range keyResultOrder {
		appendLink(a)
	}
	return links
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// BuildTaskContext assembles the Context the calculator and ledger operate on
// for a single task completion.
func (s *Service) BuildTaskContext(task Task, objectives []Objective) Context {
	return Context{
		Kind:  ContextTask,
		ID:    task.ID,
		Areas: buildAreaLinks(task.Areas, "", objectives),
		Task:  &task,
	}
}

// BuildProjectContext assembles the Context for a project's current state.
// Area enumeration order is project areas, then every child task's areas in
// document order, then any remaining objective-linked areas.
func (s *Service) BuildProjectContext(project Project, objectives []Objective) Context {
	rawAreas := make([]string, 0, len(project.Areas))
	rawAreas = append(rawAreas, project.Areas...)
	for _, t := range project.Tasks {
		rawAreas = append(rawAreas, t.Areas...)
	}
	return Context{
		Kind:    ContextProject,
		ID:      project.Link,
		Areas:   buildAreaLinks(rawAreas, project.Link, objectives),
		Project: &project,
	}
}

// CompleteTask records a completed task's XP. The caller is responsible for
// having set Task.Completed; CompleteTask rejects an incomplete task since
// there is nothing to award yet (use UncompleteTask to reverse a prior
// award).
func (s *Service) CompleteTask(task Task, objectives []Objective) (Transaction, error) {
	if !task.Completed {
		return Transaction{}, zerr.ValidationError("task is not marked completed")
	}
	ctx := s.BuildTaskContext(task, objectives)
	amount := s.calc.TaskXP(task)
	dist := s.calc.Distribute(amount, s.store.CurrentSeason() != nil, ctx.Areas)
	txn, _ := s.store.RecordTransaction(TxnTask, task.ID, amount, dist)
	return txn, nil
}

// UncompleteTask reverses a task's prior award by replacing its ledger
// entry with a zero-XP transaction.
func (s *Service) UncompleteTask(taskID string) Transaction {
	txn, _ := s.store.RecordTransaction(TxnTask, taskID, 0, Distribution{AreaXP: map[string]int{}})
	return txn
}

// UpdateProject recomputes and re-records a project's earned XP against its
// current task completion state. Safe to call on every child task toggle:
// RecordTransaction's replace-by-id semantics mean each call supersedes the
// project's previous contribution rather than adding to it.
func (s *Service) UpdateProject(project Project, objectives []Objective) (Transaction, error) {
	if project.Link == "" {
		return Transaction{}, zerr.ValidationError("project has no link to use as a ledger id")
	}
	ctx := s.BuildProjectContext(project, objectives)
	pool := s.calc.ProjectPool(project)
	earned := s.calc.ProjectEarned(project, pool)
	dist := s.calc.Distribute(earned, s.store.CurrentSeason() != nil, ctx.Areas)
	txn, _ := s.store.RecordTransaction(TxnProject, project.Link, earned, dist)
	return txn, nil
}
