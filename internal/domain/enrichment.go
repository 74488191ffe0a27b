package domain

// KillQuality summarizes how a participant's kills and deaths came about,
// derived from timeline kill events.
type KillQuality struct {
	SoloKills    int  `json:"soloKills"`    // kills with no assisting teammates
	TradeKills   int  `json:"tradeKills"`   // kills avenging a teammate's recent death
	TradedDeaths int  `json:"tradedDeaths"` // deaths shortly after scoring a kill
	OpeningKill  bool `json:"openingKill"`  // first blood of the match
	OpeningDeath bool `json:"openingDeath"`
}

// ScoreBreakdown itemizes the composite performance score.
type ScoreBreakdown struct {
	Combat   float64 `json:"combat"`
	Income   float64 `json:"income"`
	Tempo    float64 `json:"tempo"`
	WinBonus float64 `json:"winBonus"`
}

// ParticipantScore is the per-participant enrichment result returned to
// callers. Score is nil for remade games.
type ParticipantScore struct {
	PUUID      string          `json:"puuid"`
	ChampionID int             `json:"championId"`
	Score      *float64        `json:"score"`
	Breakdown  *ScoreBreakdown `json:"breakdown,omitempty"`
}
