// Package riot wraps the upstream match API: rate-limited HTTP access plus
// the payload types the pipeline consumes. No business logic lives here.
package riot

import "strings"

// Match is the match-v5 detail document, trimmed to the fields the pipeline
// reads. The upstream owns the full schema.
type Match struct {
	Metadata Metadata  `json:"metadata"`
	Info     MatchInfo `json:"info"`
}

type Metadata struct {
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type MatchInfo struct {
	GameCreation     int64              `json:"gameCreation"` // unix millis
	GameDuration     int64              `json:"gameDuration"`
	GameEndTimestamp int64              `json:"gameEndTimestamp"`
	GameVersion      string             `json:"gameVersion"`
	QueueID          int                `json:"queueId"`
	PlatformID       string             `json:"platformId"`
	Participants     []MatchParticipant `json:"participants"`
}

// DurationSeconds normalizes the duration field: payloads without
// gameEndTimestamp report milliseconds, newer ones report seconds.
func (i MatchInfo) DurationSeconds() int {
	if i.GameEndTimestamp > 0 {
		return int(i.GameDuration)
	}
	return int(i.GameDuration / 1000)
}

// IsRemake reports an early-surrendered game; remakes are stored but never
// scored.
func (i MatchInfo) IsRemake() bool {
	for _, p := range i.Participants {
		if p.GameEndedInEarlySurrender {
			return true
		}
	}
	return i.DurationSeconds() < 300
}

type MatchParticipant struct {
	PUUID                       string `json:"puuid"`
	ParticipantID               int    `json:"participantId"`
	SummonerName                string `json:"summonerName"`
	RiotIDGameName              string `json:"riotIdGameName"`
	TeamID                      int    `json:"teamId"`
	ChampionID                  int    `json:"championId"`
	ChampionName                string `json:"championName"`
	TeamPosition                string `json:"teamPosition"`
	Win                         bool   `json:"win"`
	Kills                       int    `json:"kills"`
	Deaths                      int    `json:"deaths"`
	Assists                     int    `json:"assists"`
	TotalDamageDealtToChampions int    `json:"totalDamageDealtToChampions"`
	GoldEarned                  int    `json:"goldEarned"`
	TotalMinionsKilled          int    `json:"totalMinionsKilled"`
	NeutralMinionsKilled        int    `json:"neutralMinionsKilled"`
	Item0                       int    `json:"item0"`
	Item1                       int    `json:"item1"`
	Item2                       int    `json:"item2"`
	Item3                       int    `json:"item3"`
	Item4                       int    `json:"item4"`
	Item5                       int    `json:"item5"`
	Item6                       int    `json:"item6"`
	GameEndedInEarlySurrender   bool   `json:"gameEndedInEarlySurrender"`
	Perks                       Perks  `json:"perks"`
}

// Name prefers the modern riot ID over the legacy summoner name.
func (p MatchParticipant) Name() string {
	if p.RiotIDGameName != "" {
		return p.RiotIDGameName
	}
	return p.SummonerName
}

// FinalItems returns the end-of-game inventory slots.
func (p MatchParticipant) FinalItems() []int {
	return []int{p.Item0, p.Item1, p.Item2, p.Item3, p.Item4, p.Item5, p.Item6}
}

type Perks struct {
	Styles []PerkStyle `json:"styles"`
}

type PerkStyle struct {
	Description string          `json:"description"` // "primaryStyle" or "subStyle"
	Style       int             `json:"style"`
	Selections  []PerkSelection `json:"selections"`
}

type PerkSelection struct {
	Perk int `json:"perk"`
}

// Keystone returns the primary style's first selection (the keystone rune)
// and the secondary style ID.
func (p Perks) Keystone() (keystoneID, subStyleID int) {
	for _, style := range p.Styles {
		switch style.Description {
		case "primaryStyle":
			if len(style.Selections) > 0 {
				keystoneID = style.Selections[0].Perk
			}
		case "subStyle":
			subStyleID = style.Style
		}
	}
	return keystoneID, subStyleID
}

// Timeline is the match-v5 timeline document: per-minute frames carrying
// ordered event logs.
type Timeline struct {
	Metadata Metadata     `json:"metadata"`
	Info     TimelineInfo `json:"info"`
}

type TimelineInfo struct {
	FrameInterval int64                 `json:"frameInterval"`
	Participants  []TimelineParticipant `json:"participants"`
	Frames        []TimelineFrame       `json:"frames"`
}

// ParticipantPUUIDs maps timeline participant IDs (1-10) to PUUIDs.
func (i TimelineInfo) ParticipantPUUIDs() map[int]string {
	out := make(map[int]string, len(i.Participants))
	for _, p := range i.Participants {
		out[p.ParticipantID] = p.PUUID
	}
	return out
}

type TimelineParticipant struct {
	ParticipantID int    `json:"participantId"`
	PUUID         string `json:"puuid"`
}

type TimelineFrame struct {
	Timestamp int64           `json:"timestamp"`
	Events    []TimelineEvent `json:"events"`
}

// Timeline event types the pipeline consumes.
const (
	EventItemPurchased = "ITEM_PURCHASED"
	EventItemUndo      = "ITEM_UNDO"
	EventSkillLevelUp  = "SKILL_LEVEL_UP"
	EventChampionKill  = "CHAMPION_KILL"
)

type TimelineEvent struct {
	Type                    string `json:"type"`
	Timestamp               int64  `json:"timestamp"` // millis since game start
	ParticipantID           int    `json:"participantId"`
	ItemID                  int    `json:"itemId"`
	BeforeID                int    `json:"beforeId"` // ITEM_UNDO: the purchase being undone
	AfterID                 int    `json:"afterId"`
	SkillSlot               int    `json:"skillSlot"`
	LevelUpType             string `json:"levelUpType"`
	KillerID                int    `json:"killerId"`
	VictimID                int    `json:"victimId"`
	AssistingParticipantIDs []int  `json:"assistingParticipantIds"`
}

// NormalizePatch reduces a full game version like "14.10.584.2314" to the
// two-segment patch every aggregate row is keyed by.
func NormalizePatch(gameVersion string) string {
	parts := strings.SplitN(gameVersion, ".", 3)
	if len(parts) < 2 {
		return gameVersion
	}
	return parts[0] + "." + parts[1]
}
