package domain

import "time"

// Player is one directory entry per PUUID observed as a match participant.
// The directory feeds the scheduler's candidate list; rows are upserted on
// discovery and never deleted.
type Player struct {
	PUUID        string    `json:"puuid" gorm:"primaryKey"`
	Region       Region    `json:"region" gorm:"index;not null"`
	SummonerName string    `json:"summonerName"`
	LastSeenAt   time.Time `json:"lastSeenAt" gorm:"index"`
	CreatedAt    time.Time `json:"createdAt"`
}
