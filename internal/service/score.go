package service

import (
	"math"

	"github.com/riftstats/pipeline/internal/domain"
)

// ScoreInput is the fixed record the scoring function consumes: raw
// per-participant stats, match-wide team denominators, and timeline-derived
// kill quality.
type ScoreInput struct {
	Kills             int
	Deaths            int
	Assists           int
	DamageToChampions int
	GoldEarned        int
	CS                int
	DurationSeconds   int
	Win               bool
	TeamKills         int
	TeamDamage        int
	KillQuality       domain.KillQuality
}

// Component weights. The formula is deliberately opaque to the rest of the
// pipeline: callers rely only on ComputeScore being pure and stable for
// identical inputs.
const (
	weightKDA           = 1.6
	weightParticipation = 2.0
	weightDamageShare   = 2.4
	weightCSPerMin      = 0.14
	weightGoldPerMin    = 0.0024
	weightSoloKill      = 0.15
	weightTradeKill     = 0.08
	weightOpeningKill   = 0.25
	weightTradedDeath   = 0.05
	winBonus            = 0.6
	openingDeathPenalty = 0.2
)

// ComputeScore rates one participant's performance on a 0-10 scale and
// itemizes the result. Remakes are never passed in; callers score them null.
func ComputeScore(in ScoreInput) (float64, domain.ScoreBreakdown) {
	minutes := float64(in.DurationSeconds) / 60
	if minutes < 1 {
		minutes = 1
	}

	deaths := float64(in.Deaths)
	if deaths < 1 {
		deaths = 1
	}
	kda := (float64(in.Kills) + float64(in.Assists)) / deaths

	teamKills := float64(in.TeamKills)
	if teamKills < 1 {
		teamKills = 1
	}
	participation := (float64(in.Kills) + float64(in.Assists)) / teamKills

	teamDamage := float64(in.TeamDamage)
	if teamDamage < 1 {
		teamDamage = 1
	}
	damageShare := float64(in.DamageToChampions) / teamDamage

	combat := weightKDA*math.Min(kda/4, 1) +
		weightParticipation*math.Min(participation, 1) +
		weightDamageShare*math.Min(damageShare/0.35, 1)

	income := weightCSPerMin*math.Min(float64(in.CS)/minutes, 10) +
		weightGoldPerMin*math.Min(float64(in.GoldEarned)/minutes, 500)

	tempo := weightSoloKill*float64(in.KillQuality.SoloKills) +
		weightTradeKill*float64(in.KillQuality.TradeKills) +
		weightTradedDeath*float64(in.KillQuality.TradedDeaths)
	if in.KillQuality.OpeningKill {
		tempo += weightOpeningKill
	}
	if in.KillQuality.OpeningDeath {
		tempo -= openingDeathPenalty
	}
	tempo = math.Max(math.Min(tempo, 1.5), -0.5)

	bonus := 0.0
	if in.Win {
		bonus = winBonus
	}

	breakdown := domain.ScoreBreakdown{
		Combat:   round2(combat),
		Income:   round2(income),
		Tempo:    round2(tempo),
		WinBonus: bonus,
	}

	score := combat + income + tempo + bonus
	score = math.Max(math.Min(score, 10), 0)
	return round2(score), breakdown
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
