package xp

import (
	"math"
	"sort"

	"github.com/zortex-io/zortex-core/internal/config"
)

// Calculator holds no state of its own beyond the configured multiplier
// tables; every method is a pure function of its arguments, turning a
// multiplier table plus task/project attributes into an XP figure with no
// side effects.
type Calculator struct {
	cfg config.XPConfig
}

// NewCalculator builds a Calculator over the given multiplier tables.
func NewCalculator(cfg config.XPConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

func lookup(table map[string]float64, key string) float64 {
	if v, ok := table[key]; ok {
		return v
	}
	if v, ok := table["default"]; ok {
		return v
	}
	return 1.0
}

func sizeKey(s Size) string {
	if s == "" {
		return string(SizeMD)
	}
	return string(s)
}

// TaskXP computes the base XP awarded for completing a single task, floored
// to a non-negative integer.
func (c *Calculator) TaskXP(t Task) int {
	return c.taskXP(sizeKey(t.Size), string(t.Priority), string(t.Importance))
}

// ProjectTaskXP computes task_xp for a denormalized ProjectTask entry, used
// by ProjectPool's no-explicit-size fallback.
func (c *Calculator) ProjectTaskXP(pt ProjectTask) int {
	return c.taskXP(sizeKey(pt.Size), string(pt.Priority), string(pt.Importance))
}

func (c *Calculator) taskXP(size, priority, importance string) int {
	base := float64(c.cfg.TaskBase)
	mult := lookup(c.cfg.TaskSizeMultipliers, size) *
		lookup(c.cfg.PriorityMultipliers, priority) *
		lookup(c.cfg.ImportanceMultipliers, importance)
	v := int(math.Floor(base * mult))
	if v < 0 {
		return 0
	}
	return v
}

// ProjectPool computes a project's total XP pool: either derived from an
// explicit project size (with priority/importance multipliers applied), or,
// absent a size, the sum of task_xp over every current child task.
func (c *Calculator) ProjectPool(p Project) int {
	if p.Size != "" {
		base := float64(c.cfg.ProjectBaseXP)
		mult := lookup(c.cfg.ProjectSizeMultipliers, string(p.Size)) *
			lookup(c.cfg.PriorityMultipliers, string(p.Priority)) *
			lookup(c.cfg.ImportanceMultipliers, string(p.Importance))
		v := int(math.Floor(base * mult))
		if v < 0 {
			return 0
		}
		return v
	}

	total := 0
	for _, pt := range p.Tasks {
		total += c.ProjectTaskXP(pt)
	}
	return total
}

// curvePhase is one segment of a project completion curve. A phase claims
// either a FixedCount of tasks (clamped to what remains) or, when FixedCount
// is zero, max(1, floor(n*Frac)) tasks. The final phase in a curve always
// absorbs the remainder so the phases partition the task list exactly,
// mirroring the ledger's last-share-by-subtraction discipline.
type curvePhase struct {
	FixedCount int
	Frac       float64
	XPShare    float64
}

func smallCurve() []curvePhase {
	return []curvePhase{
		{FixedCount: 1, XPShare: 0.4},
		{FixedCount: 2, XPShare: 0.4},
		{XPShare: 0.2}, // remainder
	}
}

func mediumCurve() []curvePhase {
	return []curvePhase{
		{FixedCount: 3, XPShare: 0.25},
		{Frac: 0.6, XPShare: 0.5},
		{XPShare: 0.25}, // remainder
	}
}

func largeCurve() []curvePhase {
	return []curvePhase{
		{Frac: 0.15, XPShare: 0.2},
		{Frac: 0.7, XPShare: 0.5},
		{XPShare: 0.3}, // remainder
	}
}

func curveFor(n int) []curvePhase {
	switch {
	case n <= 5:
		return smallCurve()
	case n <= 15:
		return mediumCurve()
	default:
		return largeCurve()
	}
}

// phaseCounts resolves each phase's task count for an n-task project. The
// last phase always receives whatever remains, guaranteeing the counts sum
// to exactly n and never exceed it.
func phaseCounts(phases []curvePhase, n int) []int {
	counts := make([]int, len(phases))
	remaining := n
	for i, ph := range phases {
		if i == len(phases)-1 {
			counts[i] = remaining
			break
		}
		var c int
		if ph.FixedCount > 0 {
			c = ph.FixedCount
		} else {
			c = int(math.Floor(float64(n) * ph.Frac))
			if c < 1 {
				c = 1
			}
		}
		if c > remaining {
			c = remaining
		}
		counts[i] = c
		remaining -= c
	}
	return counts
}

// ProjectEarned computes the XP earned so far from a project's pool given
// its current completion state, walking the size-tiered completion curve.
// Completion within a phase is evaluated by document position, so
// finishing tasks out of order still credits the right phase.
func (c *Calculator) ProjectEarned(p Project, pool int) int {
	n := p.TotalTasks()
	if n == 0 || pool == 0 {
		return 0
	}

	phases := curveFor(n)
	counts := phaseCounts(phases, n)

	// A phase can be squeezed to zero tasks when n is small enough that the
	// earlier fixed-count phases already consume every task (e.g. a 3-task
	// small-curve project leaves nothing for the 2-task remainder phase).
	// Its XP share is redistributed proportionally across the phases that
	// do hold tasks, so a fully completed project always earns exactly the
	// pool regardless of n, and the n=5 case (every phase non-empty) is
	// unaffected since the shares already sum to 1.
	activeShare := 0.0
	for i, ph := range phases {
		if counts[i] > 0 {
			activeShare += ph.XPShare
		}
	}
	if activeShare == 0 {
		activeShare = 1
	}

	earned := 0.0
	idx := 0
	for i, ph := range phases {
		count := counts[i]
		if count == 0 {
			continue
		}
		completed := 0
		for _, t := range p.Tasks[idx : idx+count] {
			if t.Completed {
				completed++
			}
		}
		frac := float64(completed) / float64(count)
		if frac > 1 {
			frac = 1
		}
		earned += float64(pool) * (ph.XPShare / activeShare) * frac
		idx += count
	}

	v := int(math.Floor(earned))
	if v < 0 {
		return 0
	}
	return v
}

func areaLinkFactor(cfg config.XPConfig, t AreaLinkType) float64 {
	if v, ok := cfg.AreaLinkFactors[string(t)]; ok {
		return v
	}
	return 1.0
}

// Distribute splits amount across the active season (if any) and an ordered
// set of areas, using harmonic weights 1, 1/2, ..., 1/n normalized to sum to
// 1, each scaled by the area's link-type factor.
//
// The per-area harmonic shares are computed with the last area's raw share
// derived by subtracting the others from amount, so the pre-factor shares
// sum to amount exactly regardless of floating-point rounding. The floored
// integer total across all areas is likewise pinned by computing every
// area's floored share except the last directly, then assigning the last
// area whatever integer remains of the factor-scaled total — the same
// last-gets-the-remainder discipline phaseCounts uses for task counts.
func (c *Calculator) Distribute(amount int, seasonActive bool, areas []AreaLink) Distribution {
	dist := Distribution{AreaXP: map[string]int{}}
	if seasonActive {
		dist.SeasonXP = amount
	}

	n := len(areas)
	if n == 0 {
		return dist
	}

	weights := make([]float64, n)
	sum := 0.0
	for i := range areas {
		w := 1.0 / float64(i+1)
		weights[i] = w
		sum += w
	}

	raw := make([]float64, n)
	rawTotal := 0.0
	for i := 0; i < n-1; i++ {
		raw[i] = float64(amount) * weights[i] / sum
		rawTotal += raw[i]
	}
	if n > 0 {
		raw[n-1] = float64(amount) - rawTotal
	}

	scaled := make([]float64, n)
	scaledTotal := 0.0
	for i, link := range areas {
		f := areaLinkFactor(c.cfg, link.Type)
		scaled[i] = raw[i] * f
		scaledTotal += scaled[i]
	}
	target := int(math.Floor(scaledTotal))

	assigned := 0
	for i := 0; i < n-1; i++ {
		v := int(math.Floor(scaled[i]))
		if v < 0 {
			v = 0
		}
		dist.AreaXP[areas[i].Path] += v
		assigned += v
	}
	last := target - assigned
	if last < 0 {
		last = 0
	}
	dist.AreaXP[areas[n-1].Path] += last

	return dist
}

// threshold returns floor(base * level^exponent), the XP required to reach
// level.
func threshold(curve config.CurveConfig, level int) int {
	return int(math.Floor(curve.Base * math.Pow(float64(level), curve.Exponent)))
}

// LevelInfo is the derived level/progress/tier view over a raw XP total.
type LevelInfo struct {
	Level      int
	CurrentXP  int
	FloorXP    int
	NextXP     int
	Progress   float64 // 0..1 fraction of the way to the next level
}

func deriveLevel(curve config.CurveConfig, xp int) LevelInfo {
	level := 1
	for threshold(curve, level+1) <= xp {
		level++
	}
	floorXP := threshold(curve, level)
	nextXP := threshold(curve, level+1)
	progress := 0.0
	if span := nextXP - floorXP; span > 0 {
		progress = float64(xp-floorXP) / float64(span)
		if progress < 0 {
			progress = 0
		}
		if progress > 1 {
			progress = 1
		}
	}
	return LevelInfo{Level: level, CurrentXP: xp, FloorXP: floorXP, NextXP: nextXP, Progress: progress}
}

// SeasonLevel derives the season level/progress for a given season XP total.
func (c *Calculator) SeasonLevel(xp int) LevelInfo {
	return deriveLevel(c.cfg.SeasonCurve, xp)
}

// AreaLevel derives an area's level/progress for its area XP total.
func (c *Calculator) AreaLevel(xp int) LevelInfo {
	return deriveLevel(c.cfg.AreaLevelCurve, xp)
}

// TierInfo is the current and next season tier for a given level.
type TierInfo struct {
	Current *config.Tier
	Next    *config.Tier
}

// SeasonTier resolves the current and next tier for a season level, from
// the configured ascending required_level ladder.
func (c *Calculator) SeasonTier(level int) TierInfo {
	tiers := make([]config.Tier, len(c.cfg.SeasonTiers))
	copy(tiers, c.cfg.SeasonTiers)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].RequiredLevel < tiers[j].RequiredLevel })

	var info TierInfo
	for i := range tiers {
		if tiers[i].RequiredLevel <= level {
			t := tiers[i]
			info.Current = &t
			if i+1 < len(tiers) {
				next := tiers[i+1]
				info.Next = &next
			} else {
				info.Next = nil
			}
		}
	}
	return info
}
