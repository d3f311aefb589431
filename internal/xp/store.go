package xp

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/zortex-io/zortex-core/internal/eventbus"
	"github.com/zortex-io/zortex-core/internal/metrics"
	"github.com/zortex-io/zortex-core/internal/store"
	"github.com/zortex-io/zortex-core/internal/zerr"
)

func txnKey(kind TxnType, id string) string { return string(kind) + ":" + id }

// Store is the durable XP ledger: season/area totals plus a replace-by-id
// transaction table. Recording a transaction for an id that already exists
// first reverses the old contribution, then applies the new one — the same
// "undo the prior effect before applying the new one" shape used when a
// reservation is settled against its original estimate rather than
// double-counted.
type Store struct {
	persist *store.Persistent[state]
	calc    *Calculator
	bus     *eventbus.Bus
	metrics *metrics.Registry
	log     zerolog.Logger
}

// NewStore opens (without loading) the XP ledger at path. calc is used to
// recompute season_level on every recorded transaction; metrics may be nil,
// in which case transaction/level counters are simply not recorded.
func NewStore(path string, calc *Calculator, bus *eventbus.Bus, registry *metrics.Registry, log zerolog.Logger) *Store {
	return &Store{
		persist: store.New(path, emptyState, log),
		calc:    calc,
		bus:     bus,
		metrics: registry,
		log:     log.With().Str("component", "xp_store").Logger(),
	}
}

// Load reads the ledger from disk, initializing it on first run.
func (s *Store) Load() error {
	return s.persist.Load()
}

// SaveIfDirty satisfies store.Flushable so Store can register with a
// PersistenceManager.
func (s *Store) SaveIfDirty() error {
	return s.persist.SaveIfDirty()
}

// RecordTransaction replaces the ledger entry for (kind, id) with dist,
// reversing any prior contribution under that id first so re-recording a
// still-open task or project never double-counts it. If a season is
// active, season_level is recomputed against the calculator's curve and
// "season:leveled_up" is emitted when it increases. Returns the recorded
// transaction (zero-valued if baseXP is 0, since a pure reversal records
// nothing new) and the net base-XP delta this call produced, so callers
// can tell whether XP was awarded, removed, or unchanged.
func (s *Store) RecordTransaction(kind TxnType, id string, baseXP int, dist Distribution) (Transaction, int) {
	var txn Transaction
	var xpChange int
	var leveledUp bool
	var levelUp SeasonLevelUp

	s.persist.Update(func(st *state) {
		key := txnKey(kind, id)
		if prev, ok := st.Transactions[key]; ok {
			st.SeasonXP -= prev.SeasonXP
			for path, v := range prev.AreaXP {
				st.AreaXP[path] -= v
			}
			delete(st.Transactions, key)
			xpChange -= prev.BaseXP
		}

		if baseXP != 0 {
			txn = Transaction{
				Type:      kind,
				ID:        id,
				Timestamp: time.Now(),
				BaseXP:    baseXP,
				SeasonXP:  dist.SeasonXP,
				AreaXP:    dist.AreaXP,
			}
			st.Transactions[key] = txn
			st.SeasonXP += txn.SeasonXP
			for path, v := range txn.AreaXP {
				if st.AreaXP == nil {
					st.AreaXP = map[string]int{}
				}
				st.AreaXP[path] += v
			}
			xpChange += baseXP
		}

		if st.SeasonXP < 0 {
			st.SeasonXP = 0
		}
		for path, v := range st.AreaXP {
			if v < 0 {
				st.AreaXP[path] = 0
			}
		}

		if st.CurrentSeason != nil && s.calc != nil {
			oldLevel := st.SeasonLevel
			newLevel := s.calc.SeasonLevel(st.SeasonXP).Level
			if newLevel != oldLevel {
				st.SeasonLevel = newLevel
			}
			if newLevel > oldLevel {
				leveledUp = true
				tierName := ""
				if tier := s.calc.SeasonTier(newLevel); tier.Current != nil {
					tierName = tier.Current.Name
				}
				levelUp = SeasonLevelUp{OldLevel: oldLevel, NewLevel: newLevel, Tier: tierName}
			}
		}
	})

	if s.metrics != nil {
		s.metrics.Counter("xp_transactions_recorded").Inc()
	}

	if s.bus != nil {
		switch {
		case xpChange > 0:
			s.bus.Emit("xp:awarded", XPChange{Kind: kind, ID: id, Delta: xpChange})
		case xpChange < 0:
			s.bus.Emit("xp:removed", XPChange{Kind: kind, ID: id, Delta: xpChange})
		}
		if leveledUp {
			s.bus.Emit("season:leveled_up", levelUp)
		}
	}
	if leveledUp && s.metrics != nil {
		s.metrics.Counter("season_levels_gained").Inc()
	}

	return txn, xpChange
}

// SeasonXP returns the current season XP total.
func (s *Store) SeasonXP() int {
	var xp int
	s.persist.View(func(st state) { xp = st.SeasonXP })
	return xp
}

// AreaXP returns the current XP total for a single area path.
func (s *Store) AreaXP(path string) int {
	var xp int
	s.persist.View(func(st state) { xp = st.AreaXP[path] })
	return xp
}

// AllAreaXP returns a snapshot of every area's XP total.
func (s *Store) AllAreaXP() map[string]int {
	snapshot := map[string]int{}
	s.persist.View(func(st state) {
		for k, v := range st.AreaXP {
			snapshot[k] = v
		}
	})
	return snapshot
}

// CurrentSeason returns the active season, or nil if none has started.
func (s *Store) CurrentSeason() *SeasonInfo {
	var season *SeasonInfo
	s.persist.View(func(st state) {
		if st.CurrentSeason != nil {
			cp := *st.CurrentSeason
			season = &cp
		}
	})
	return season
}

// StartSeason begins a new season. Starting one while another is already
// active is an error: callers must EndSeason explicitly first. Starting a
// season resets season_xp, season_level, and the transaction ledger —
// only area_xp survives across the boundary.
func (s *Store) StartSeason(name string, start, end time.Time) error {
	var err error
	s.persist.Update(func(st *state) {
		if st.CurrentSeason != nil {
			err = zerr.ValidationError("a season is already active; end it before starting another")
			return
		}
		st.CurrentSeason = &SeasonInfo{Name: name, StartDate: start, EndDate: end}
		st.SeasonXP = 0
		st.SeasonLevel = 1
		st.Transactions = map[string]Transaction{}
	})
	if err != nil {
		return err
	}
	if s.bus != nil {
		s.bus.Emit("season:started", SeasonInfo{Name: name, StartDate: start, EndDate: end})
	}
	return nil
}

// EndSeason archives the active season into history and clears the active
// slot, including the transaction ledger — only area_xp survives across
// the boundary. EndSeason on a store with no active season is a no-op.
func (s *Store) EndSeason(curve func(xp int) int) {
	var archived *SeasonHistoryEntry
	s.persist.Update(func(st *state) {
		if st.CurrentSeason == nil {
			return
		}
		finalLevel := st.SeasonLevel
		if curve != nil {
			finalLevel = curve(st.SeasonXP)
		}
		txns := make(map[string]Transaction, len(st.Transactions))
		for k, v := range st.Transactions {
			txns[k] = v
		}
		entry := SeasonHistoryEntry{
			Name:         st.CurrentSeason.Name,
			StartDate:    st.CurrentSeason.StartDate,
			EndDate:      st.CurrentSeason.EndDate,
			FinalLevel:   finalLevel,
			FinalXP:      st.SeasonXP,
			Transactions: txns,
		}
		st.SeasonHistory = append(st.SeasonHistory, entry)
		st.CurrentSeason = nil
		st.SeasonXP = 0
		st.SeasonLevel = 0
		st.Transactions = map[string]Transaction{}
		archived = &entry
	})
	if archived != nil && s.bus != nil {
		s.bus.Emit("season:ended", *archived)
	}
}

// SeasonHistory returns a snapshot of every archived season.
func (s *Store) SeasonHistory() []SeasonHistoryEntry {
	var hist []SeasonHistoryEntry
	s.persist.View(func(st state) {
		hist = make([]SeasonHistoryEntry, len(st.SeasonHistory))
		copy(hist, st.SeasonHistory)
	})
	return hist
}
