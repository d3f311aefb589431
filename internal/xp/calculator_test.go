package xp

import (
	"testing"

	"github.com/zortex-io/zortex-core/internal/config"
)

func testCalc() *Calculator {
	return NewCalculator(config.DefaultXPConfig())
}

func TestTaskXP(t *testing.T) {
	calc := testCalc()

	tests := []struct {
		name string
		task Task
		want int
	}{
		// An absent priority or importance uses the 0.9 "default" multiplier.
		{"unset size defaults to medium", Task{}, 8},                                                      // floor(10 * 1.0 * 0.9 * 0.9)
		{"small size", Task{Size: SizeSM}, 6},                                                             // floor(10 * 0.8 * 0.9 * 0.9)
		{"large with p1 priority", Task{Size: SizeLG, Priority: PriorityP1}, 20},                          // floor(10 * 1.5 * 1.5 * 0.9)
		{"xl with i1 importance", Task{Size: SizeXL, Importance: ImportanceI1}, 27},                       // floor(10 * 2.0 * 0.9 * 1.5)
		{"unknown priority falls back to default multiplier", Task{Size: SizeMD, Priority: "unknown"}, 8}, // floor(10 * 1.0 * 0.9 * 0.9)
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := calc.TaskXP(tc.task)
			if got != tc.want {
				t.Fatalf("TaskXP(%+v) = %d, want %d", tc.task, got, tc.want)
			}
		})
	}
}

func TestProjectPoolExplicitSize(t *testing.T) {
	calc := testCalc()
	p := Project{Size: SizeEpic, Priority: PriorityP1}
	want := 40 // floor(10 * 3.0 * 1.5 * 0.9); importance unset -> default 0.9
	if got := calc.ProjectPool(p); got != want {
		t.Fatalf("ProjectPool = %d, want %d", got, want)
	}
}

func TestProjectPoolSumsTaskXPWhenSizeUnset(t *testing.T) {
	calc := testCalc()
	p := Project{
		Tasks: []ProjectTask{
			{TaskID: "t1", Size: SizeMD},
			{TaskID: "t2", Size: SizeLG},
		},
	}
	want := calc.ProjectTaskXP(p.Tasks[0]) + calc.ProjectTaskXP(p.Tasks[1])
	if got := calc.ProjectPool(p); got != want {
		t.Fatalf("ProjectPool = %d, want %d", got, want)
	}
}

// TestProjectEarnedSmallCurveExact5 exercises the small curve's exact
// boundary (n=5: 1/2/2 task phases worth 40/40/20% of the pool).
func TestProjectEarnedSmallCurveExact5(t *testing.T) {
	calc := testCalc()
	pool := 100
	tasks := make([]ProjectTask, 5)

	p := Project{Tasks: tasks}
	if got := calc.ProjectEarned(p, pool); got != 0 {
		t.Fatalf("zero completed tasks should earn 0, got %d", got)
	}

	p.Tasks[0].Completed = true // phase 1 (1 task) fully done -> 40%
	if got := calc.ProjectEarned(p, pool); got != 40 {
		t.Fatalf("phase 1 complete: got %d, want 40", got)
	}

	p.Tasks[1].Completed = true
	p.Tasks[2].Completed = true // phase 2 (2 tasks) fully done -> +40%
	if got := calc.ProjectEarned(p, pool); got != 80 {
		t.Fatalf("phase 1+2 complete: got %d, want 80", got)
	}

	p.Tasks[3].Completed = true
	p.Tasks[4].Completed = true // phase 3 (remainder, 2 tasks) -> +20%
	if got := calc.ProjectEarned(p, pool); got != 100 {
		t.Fatalf("all complete: got %d, want 100", got)
	}
}

// TestProjectEarnedMonotonic verifies completing one more task never
// decreases earned XP, across all three curve tiers, and that a fully
// completed project always earns exactly its pool regardless of size.
func TestProjectEarnedMonotonic(t *testing.T) {
	calc := testCalc()
	for _, n := range []int{3, 5, 6, 10, 15, 16, 30} {
		p := Project{Tasks: make([]ProjectTask, n)}
		pool := 1000
		prev := 0
		for i := 0; i < n; i++ {
			p.Tasks[i].Completed = true
			earned := calc.ProjectEarned(p, pool)
			if earned < prev {
				t.Fatalf("n=%d: earned XP decreased after completing task %d: %d -> %d", n, i, prev, earned)
			}
			prev = earned
		}
		if prev != pool {
			t.Fatalf("n=%d: fully completed project should earn the whole pool, got %d of %d", n, prev, pool)
		}
	}
}

func TestDistributeSingleArea(t *testing.T) {
	calc := testCalc()
	dist := calc.Distribute(10, true, []AreaLink{{Path: "health", Type: AreaLinkKeyResult}})
	if dist.SeasonXP != 10 {
		t.Fatalf("season xp = %d, want 10", dist.SeasonXP)
	}
	if dist.AreaXP["health"] != 10 {
		t.Fatalf("area xp = %d, want 10", dist.AreaXP["health"])
	}
}

// TestDistributeTwoBasicAreas: two basic-factor areas over a harmonic
// 2/3, 1/3 split of 10 XP should each land on 1 XP, not 1 and 0 — the
// exact-sum rule must apply after the type-factor scaling, not before it.
func TestDistributeTwoBasicAreas(t *testing.T) {
	calc := testCalc()
	dist := calc.Distribute(10, false, []AreaLink{
		{Path: "health", Type: AreaLinkBasic},
		{Path: "work", Type: AreaLinkBasic},
	})
	if dist.AreaXP["health"] != 1 || dist.AreaXP["work"] != 1 {
		t.Fatalf("area split = %+v, want health=1 work=1", dist.AreaXP)
	}
}

func TestDistributeNoSeasonActive(t *testing.T) {
	calc := testCalc()
	dist := calc.Distribute(50, false, nil)
	if dist.SeasonXP != 0 {
		t.Fatalf("season xp = %d, want 0 when no season is active", dist.SeasonXP)
	}
}

func TestSeasonLevelThresholds(t *testing.T) {
	calc := testCalc()
	info := calc.SeasonLevel(0)
	if info.Level != 1 {
		t.Fatalf("level at 0 xp = %d, want 1", info.Level)
	}

	// threshold(2) = floor(100 * 2^1.2) ~= 229; just under it stays level 1
	under := calc.SeasonLevel(228)
	if under.Level != 1 {
		t.Fatalf("level at 228 xp = %d, want 1", under.Level)
	}
	at := calc.SeasonLevel(threshold(defaultCurve(), 2))
	if at.Level < 2 {
		t.Fatalf("level at threshold(2) xp = %d, want >= 2", at.Level)
	}
}

func defaultCurve() config.CurveConfig {
	return config.DefaultXPConfig().SeasonCurve
}

func TestSeasonTierLadder(t *testing.T) {
	calc := testCalc()
	tier := calc.SeasonTier(1)
	if tier.Current == nil || tier.Current.Name != "Bronze" {
		t.Fatalf("tier at level 1 = %+v, want Bronze", tier.Current)
	}
	if tier.Next == nil || tier.Next.Name != "Silver" {
		t.Fatalf("next tier at level 1 = %+v, want Silver", tier.Next)
	}

	top := calc.SeasonTier(100)
	if top.Current == nil || top.Current.Name != "Diamond" {
		t.Fatalf("tier at level 100 = %+v, want Diamond", top.Current)
	}
	if top.Next != nil {
		t.Fatalf("next tier past Diamond = %+v, want nil", top.Next)
	}
}
