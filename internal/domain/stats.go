package domain

import "time"

// Aggregate stat rows are only ever merged additively: games, wins and the
// summed totals are monotonically non-decreasing outside administrative
// cleanup.

// ChampionStat is the per-(champion, patch) aggregate row.
type ChampionStat struct {
	ChampionID        int    `json:"championId" gorm:"primaryKey;autoIncrement:false"`
	Patch             string `json:"patch" gorm:"primaryKey"`
	Games             int64  `json:"games"`
	Wins              int64  `json:"wins"`
	Kills             int64  `json:"kills"`
	Deaths            int64  `json:"deaths"`
	Assists           int64  `json:"assists"`
	DamageToChampions int64  `json:"damageToChampions"`
	GoldEarned        int64  `json:"goldEarned"`
	CS                int64  `json:"cs"`
	// ScoreSum only accumulates scored games; remakes contribute games but
	// no score, so averages divide by ScoredGames.
	ScoreSum    float64   `json:"scoreSum"`
	ScoredGames int64     `json:"scoredGames"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ChampionBuildStat is the per-(champion, patch, core build) sub-aggregate.
type ChampionBuildStat struct {
	ChampionID int    `json:"championId" gorm:"primaryKey;autoIncrement:false"`
	Patch      string `json:"patch" gorm:"primaryKey"`
	Build      string `json:"build" gorm:"primaryKey"` // first three completed items, e.g. "3078_3071_3053"
	Games      int64  `json:"games"`
	Wins       int64  `json:"wins"`
}

// ChampionRuneStat is the per-(champion, patch, keystone, secondary style)
// sub-aggregate.
type ChampionRuneStat struct {
	ChampionID int    `json:"championId" gorm:"primaryKey;autoIncrement:false"`
	Patch      string `json:"patch" gorm:"primaryKey"`
	KeystoneID int    `json:"keystoneId" gorm:"primaryKey;autoIncrement:false"`
	SubStyleID int    `json:"subStyleId" gorm:"primaryKey;autoIncrement:false"`
	Games      int64  `json:"games"`
	Wins       int64  `json:"wins"`
}

// StatContribution is one participant's delta, buffered by the aggregator
// and folded into the aggregate rows on flush.
type StatContribution struct {
	ChampionID        int
	Patch             string
	Win               bool
	Build             string // empty when the participant finished fewer than three completed items
	KeystoneID        int
	SubStyleID        int
	Kills             int
	Deaths            int
	Assists           int
	DamageToChampions int
	GoldEarned        int
	CS                int
	Score             *float64 // nil for remakes
}
