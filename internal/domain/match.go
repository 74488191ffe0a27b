package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Match is one stored game. Created once on first successful fetch and never
// deleted; the timeline blob may be back-filled later by enrichment.
type Match struct {
	ID           string         `json:"id" gorm:"primaryKey"` // e.g. "NA1_5201776443"
	Region       Region         `json:"region" gorm:"index;not null"`
	Patch        string         `json:"patch" gorm:"index;not null"` // e.g. "14.10"
	QueueID      int            `json:"queueId"`
	GameCreation time.Time      `json:"gameCreation" gorm:"index"`
	GameDuration int            `json:"gameDuration"` // seconds
	Remake       bool           `json:"remake"`
	Timeline     datatypes.JSON `json:"-" gorm:"type:jsonb"`
	EnrichedAt   *time.Time     `json:"enrichedAt"`
	CreatedAt    time.Time      `json:"createdAt"`

	Participants []Participant `json:"participants" gorm:"foreignKey:MatchID;references:ID"`
}

// Participant is one player's record within a match. The raw columns are
// written once at store time; the derived block is mutated exactly once per
// field-group by enrichment.
type Participant struct {
	ID           uint   `json:"-" gorm:"primaryKey"`
	MatchID      string `json:"matchId" gorm:"uniqueIndex:idx_participants_match_puuid;not null"`
	PUUID        string `json:"puuid" gorm:"uniqueIndex:idx_participants_match_puuid;index;not null"`
	SummonerName string `json:"summonerName"`
	TeamID       int    `json:"teamId"`
	ChampionID   int    `json:"championId" gorm:"index"`
	ChampionName string `json:"championName"`
	TeamPosition string `json:"teamPosition"`
	Win          bool   `json:"win"`

	Kills             int            `json:"kills"`
	Deaths            int            `json:"deaths"`
	Assists           int            `json:"assists"`
	DamageToChampions int            `json:"damageToChampions"`
	GoldEarned        int            `json:"goldEarned"`
	CS                int            `json:"cs"` // lane minions + neutral monsters
	KeystoneID        int            `json:"keystoneId"`
	SubStyleID        int            `json:"subStyleId"`
	Items             datatypes.JSON `json:"items" gorm:"type:jsonb"` // final inventory, slots 0-6

	// Derived fields, null until enriched.
	BuildOrder     *string        `json:"buildOrder"`
	AbilityOrder   *string        `json:"abilityOrder"`
	FirstBuys      *string        `json:"firstBuys"`
	KillQuality    datatypes.JSON `json:"killQuality" gorm:"type:jsonb"`
	Score          *float64       `json:"score"`
	ScoreBreakdown datatypes.JSON `json:"scoreBreakdown" gorm:"type:jsonb"`
	EnrichedAt     *time.Time     `json:"enrichedAt"`
}

// Enriched reports whether this participant already carries enrichment
// markers.
func (p *Participant) Enriched() bool {
	return p.EnrichedAt != nil
}

// DerivedFields is the mutable enrichment field-group on a participant. Nil
// members are left untouched, so partial updates never need the prior state.
type DerivedFields struct {
	BuildOrder     *string
	AbilityOrder   *string
	FirstBuys      *string
	KillQuality    datatypes.JSON
	Score          *float64
	ScoreBreakdown datatypes.JSON
	EnrichedAt     *time.Time
}
