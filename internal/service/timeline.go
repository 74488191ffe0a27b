package service

import (
	"strconv"
	"strings"

	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/riot"
)

const (
	// tradeWindowMillis bounds how far apart two kills can be and still
	// count as a trade.
	tradeWindowMillis = 10_000
	// firstBuyWindowMillis covers the opening shop before minions spawn.
	firstBuyWindowMillis = 90_000
)

var skillLetters = map[int]string{1: "Q", 2: "W", 3: "E", 4: "R"}

// TimelineStats is the per-participant summary extracted from one timeline,
// keyed by timeline participant ID.
type TimelineStats struct {
	Purchases    []int // chronological item purchases, undos applied
	AbilityOrder string
	FirstBuys    []int
	KillQuality  domain.KillQuality
}

// BuildOrder filters purchases down to completed items. A nil predicate
// keeps the full purchase sequence (item catalog not synced yet).
func (s *TimelineStats) BuildOrder(isCompleted func(int) bool) []int {
	if isCompleted == nil {
		return s.Purchases
	}
	var out []int
	for _, id := range s.Purchases {
		if isCompleted(id) {
			out = append(out, id)
		}
	}
	return out
}

type killEvent struct {
	killerID int
	victimID int
	solo     bool
	ts       int64
}

func removeLast(ids *[]int, id int) {
	s := *ids
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == id {
			*ids = append(s[:i], s[i+1:]...)
			return
		}
	}
}

// DeriveTimelineStats walks every frame once and computes purchase history,
// skill order and kill/death quality for all ten participants.
func DeriveTimelineStats(tl *riot.Timeline) map[int]*TimelineStats {
	stats := make(map[int]*TimelineStats, len(tl.Info.Participants))
	get := func(pid int) *TimelineStats {
		if pid == 0 {
			return nil
		}
		s, ok := stats[pid]
		if !ok {
			s = &TimelineStats{}
			stats[pid] = s
		}
		return s
	}

	var kills []killEvent
	for _, frame := range tl.Info.Frames {
		for _, ev := range frame.Events {
			switch ev.Type {
			case riot.EventItemPurchased:
				if s := get(ev.ParticipantID); s != nil {
					s.Purchases = append(s.Purchases, ev.ItemID)
					if ev.Timestamp <= firstBuyWindowMillis {
						s.FirstBuys = append(s.FirstBuys, ev.ItemID)
					}
				}
			case riot.EventItemUndo:
				// Undo removes the most recent purchase of the item being
				// rolled back. An undo inside the opening-shop window also
				// retracts the first-buy entry.
				if s := get(ev.ParticipantID); s != nil {
					removeLast(&s.Purchases, ev.BeforeID)
					if ev.Timestamp <= firstBuyWindowMillis {
						removeLast(&s.FirstBuys, ev.BeforeID)
					}
				}
			case riot.EventSkillLevelUp:
				if ev.LevelUpType != "NORMAL" {
					continue
				}
				if s := get(ev.ParticipantID); s != nil {
					s.AbilityOrder += skillLetters[ev.SkillSlot]
				}
			case riot.EventChampionKill:
				// KillerID 0 is an execution (tower, monster); it still
				// counts as the victim's death event.
				kills = append(kills, killEvent{
					killerID: ev.KillerID,
					victimID: ev.VictimID,
					solo:     len(ev.AssistingParticipantIDs) == 0,
					ts:       ev.Timestamp,
				})
			}
		}
	}

	annotateKills(kills, get)
	return stats
}

// annotateKills classifies each kill against the surrounding ones: the
// match's first kill marks the opening, a kill shortly after the killer's
// teammate died counts as a trade for the killer, and a death shortly after
// the victim scored a kill counts as a traded death.
func annotateKills(kills []killEvent, get func(int) *TimelineStats) {
	for i, k := range kills {
		if i == 0 {
			if s := get(k.killerID); s != nil {
				s.KillQuality.OpeningKill = true
			}
			if s := get(k.victimID); s != nil {
				s.KillQuality.OpeningDeath = true
			}
		}

		if k.solo {
			if s := get(k.killerID); s != nil {
				s.KillQuality.SoloKills++
			}
		}

		for j := i - 1; j >= 0; j-- {
			prev := kills[j]
			if k.ts-prev.ts > tradeWindowMillis {
				break
			}
			// The killer avenges a teammate: the previous victim was on the
			// killer's team (same side as the killer, killed by the current
			// victim).
			if prev.killerID == k.victimID && prev.victimID != k.killerID {
				if s := get(k.killerID); s != nil {
					s.KillQuality.TradeKills++
				}
				break
			}
		}

		for j := i - 1; j >= 0; j-- {
			prev := kills[j]
			if k.ts-prev.ts > tradeWindowMillis {
				break
			}
			// The victim had just scored a kill of their own.
			if prev.killerID == k.victimID {
				if s := get(k.victimID); s != nil {
					s.KillQuality.TradedDeaths++
				}
				break
			}
		}
	}
}

// joinItemIDs renders an item sequence for storage, e.g. "3078,3071,3053".
func joinItemIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// buildKey reduces a completed-item sequence to the three-item core build
// aggregate dimension. Fewer than three completed items yields no key.
func buildKey(completed []int) string {
	if len(completed) < 3 {
		return ""
	}
	parts := make([]string, 3)
	for i := 0; i < 3; i++ {
		parts[i] = strconv.Itoa(completed[i])
	}
	return strings.Join(parts, "_")
}
