package service_test

import (
	"testing"

	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/service"
	"github.com/stretchr/testify/assert"
)

func midGameInput() service.ScoreInput {
	return service.ScoreInput{
		Kills:             5,
		Deaths:            5,
		Assists:           5,
		DamageToChampions: 15000,
		GoldEarned:        10000,
		CS:                150,
		DurationSeconds:   1800,
		TeamKills:         30,
		TeamDamage:        60000,
	}
}

func TestComputeScore_StableForIdenticalInputs(t *testing.T) {
	in := midGameInput()

	score1, breakdown1 := service.ComputeScore(in)
	score2, breakdown2 := service.ComputeScore(in)

	assert.Equal(t, score1, score2)
	assert.Equal(t, breakdown1, breakdown2)
}

func TestComputeScore_Bounds(t *testing.T) {
	tests := []struct {
		name string
		in   service.ScoreInput
	}{
		{
			name: "stomp stays at or under ten",
			in: service.ScoreInput{
				Kills: 30, Deaths: 0, Assists: 20,
				DamageToChampions: 80000, GoldEarned: 25000, CS: 400,
				DurationSeconds: 1800, Win: true,
				TeamKills: 40, TeamDamage: 100000,
				KillQuality: domain.KillQuality{SoloKills: 12, OpeningKill: true},
			},
		},
		{
			name: "zeroed stats stay at or above zero",
			in: service.ScoreInput{
				DurationSeconds: 1800, Deaths: 15,
				TeamKills: 5, TeamDamage: 40000,
				KillQuality: domain.KillQuality{OpeningDeath: true},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, _ := service.ComputeScore(tt.in)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 10.0)
		})
	}
}

func TestComputeScore_WinBonus(t *testing.T) {
	loss := midGameInput()
	win := midGameInput()
	win.Win = true

	lossScore, lossBreakdown := service.ComputeScore(loss)
	winScore, winBreakdown := service.ComputeScore(win)

	assert.InDelta(t, 0.6, winScore-lossScore, 0.001)
	assert.Equal(t, 0.0, lossBreakdown.WinBonus)
	assert.Equal(t, 0.6, winBreakdown.WinBonus)
}

func TestComputeScore_BreakdownSumsToScore(t *testing.T) {
	in := midGameInput()
	in.Win = true
	in.KillQuality = domain.KillQuality{SoloKills: 2, TradeKills: 1}

	score, breakdown := service.ComputeScore(in)

	sum := breakdown.Combat + breakdown.Income + breakdown.Tempo + breakdown.WinBonus
	assert.InDelta(t, score, sum, 0.03, "per-component rounding may drift a cent or two")
}

func TestComputeScore_TempoClamps(t *testing.T) {
	in := midGameInput()
	in.KillQuality = domain.KillQuality{SoloKills: 50}
	_, breakdown := service.ComputeScore(in)
	assert.Equal(t, 1.5, breakdown.Tempo)

	in.KillQuality = domain.KillQuality{TradedDeaths: 0, OpeningDeath: true}
	_, breakdown = service.ComputeScore(in)
	assert.Equal(t, -0.2, breakdown.Tempo)
}
