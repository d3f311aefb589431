// Package xp implements the gamification engine: the transaction ledger, the
// pure XP calculator, the XPStore aggregates, and the XPService orchestrator
// that bridges lifecycle events to recorded transactions.
package xp

import "time"

// Size is a task or project size attribute. Absent means "unset"; the
// calculator treats an unset task size as Medium.
type Size string

const (
	SizeXS        Size = "xs"
	SizeSM        Size = "sm"
	SizeMD        Size = "md"
	SizeLG        Size = "lg"
	SizeXL        Size = "xl"
	SizeEpic      Size = "epic"
	SizeLegendary Size = "legendary"
	SizeMythic    Size = "mythic"
	SizeUltimate  Size = "ultimate"
)

// Priority is an optional p1/p2/p3 task or project attribute.
type Priority string

const (
	PriorityP1 Priority = "p1"
	PriorityP2 Priority = "p2"
	PriorityP3 Priority = "p3"
)

// Importance is an optional i1/i2/i3 task or project attribute.
type Importance string

const (
	ImportanceI1 Importance = "i1"
	ImportanceI2 Importance = "i2"
	ImportanceI3 Importance = "i3"
)

// Task is the ingestion-side view of a Zortex task.
type Task struct {
	ID         string
	Size       Size
	Priority   Priority
	Importance Importance
	Areas      []string
	Completed  bool
}

// ProjectTask is one entry in a project's ordered child task list. It
// denormalizes the attributes needed to compute task_xp for the
// no-explicit-size pool fallback, since the project's document-order task
// list is the authority on curve position, not a separate task lookup
// table.
type ProjectTask struct {
	TaskID     string
	Size       Size
	Priority   Priority
	Importance Importance
	Areas      []string
	Completed  bool
}

// Project is the ingestion-side view of a Zortex project.
type Project struct {
	Link       string
	Size       Size
	Priority   Priority
	Importance Importance
	Areas      []string
	Tasks      []ProjectTask // document order fixes curve position
}

// CompletedTasks returns the number of completed child tasks.
func (p Project) CompletedTasks() int {
	n := 0
	for _, t := range p.Tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// TotalTasks returns the number of child tasks.
func (p Project) TotalTasks() int { return len(p.Tasks) }

// KeyResult links a set of areas to the projects it measures.
type KeyResult struct {
	ID             string
	Areas          []string
	LinkedProjects []string
}

// Objective groups key results.
type Objective struct {
	ID         string
	KeyResults []KeyResult
}

// AreaLinkType distinguishes a plain area mention from one upgraded by an
// objective's key result.
type AreaLinkType string

const (
	AreaLinkBasic     AreaLinkType = "basic"
	AreaLinkKeyResult AreaLinkType = "key_result"
)

// AreaLink is one entry in a context's ordered, deduplicated area set.
type AreaLink struct {
	Path string
	Type AreaLinkType
}

// TxnType distinguishes a task ledger entry from a project one.
type TxnType string

const (
	TxnTask    TxnType = "task"
	TxnProject TxnType = "project"
)

// Transaction is one row in the XP ledger, keyed by (Type, ID). Recording a
// transaction for an existing id replaces it: the stored copy reflects only
// the most recently applied contributions.
type Transaction struct {
	Type      TxnType        `json:"type"`
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	BaseXP    int            `json:"base_xp"`
	SeasonXP  int            `json:"season_xp"`
	AreaXP    map[string]int `json:"area_xp"`
}

// Total returns the transaction's aggregated contribution across season and
// all areas.
func (t Transaction) Total() int {
	total := t.SeasonXP
	for _, v := range t.AreaXP {
		total += v
	}
	return total
}

// SeasonInfo describes the currently active season.
type SeasonInfo struct {
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// SeasonHistoryEntry is an archived season snapshot.
type SeasonHistoryEntry struct {
	Name         string                 `json:"name"`
	StartDate    time.Time              `json:"start_date"`
	EndDate      time.Time              `json:"end_date"`
	FinalLevel   int                    `json:"final_level"`
	FinalXP      int                    `json:"final_xp"`
	Transactions map[string]Transaction `json:"xp_transactions"`
}

// state is the persisted shape of the XP store.
type state struct {
	SeasonXP      int                    `json:"season_xp"`
	SeasonLevel   int                    `json:"season_level"`
	CurrentSeason *SeasonInfo            `json:"current_season"`
	AreaXP        map[string]int         `json:"area_xp"`
	Transactions  map[string]Transaction `json:"xp_transactions"`
	SeasonHistory []SeasonHistoryEntry   `json:"season_history"`
}

func emptyState() state {
	return state{
		AreaXP:       map[string]int{},
		Transactions: map[string]Transaction{},
	}
}

// ContextKind distinguishes a standalone task event from a project one.
type ContextKind string

const (
	ContextTask    ContextKind = "task"
	ContextProject ContextKind = "project"
)

// Context is the input to the calculator and ledger: everything needed to
// compute and record one transaction. Built by Service.BuildTaskContext or
// Service.BuildProjectContext.
type Context struct {
	Kind    ContextKind
	ID      string
	Areas   []AreaLink // ordered: project areas, task areas, objective-linked areas
	Task    *Task
	Project *Project
}

// Distribution is the calculator's output amount split across season and
// areas, ready to be folded into a Transaction.
type Distribution struct {
	SeasonXP int
	AreaXP   map[string]int
}

// XPChange is the payload for "xp:awarded" / "xp:removed": the net base-XP
// delta a single RecordTransaction call produced.
type XPChange struct {
	Kind  TxnType
	ID    string
	Delta int
}

// SeasonLevelUp is the payload for "season:leveled_up".
type SeasonLevelUp struct {
	OldLevel int
	NewLevel int
	Tier     string
}
