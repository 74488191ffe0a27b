package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/riot"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var matchSeq int64

var teamPositions = []string{"TOP", "JUNGLE", "MIDDLE", "BOTTOM", "UTILITY"}

// NextMatchID returns a unique NA1-style match identifier.
func NextMatchID() string {
	return fmt.Sprintf("NA1_%d", 5200000000+atomic.AddInt64(&matchSeq, 1))
}

// MatchBuilder creates stored matches with a builder pattern
type MatchBuilder struct {
	id           string
	region       domain.Region
	patch        string
	queueID      int
	gameCreation time.Time
	duration     int
	remake       bool
	timeline     []byte
	participants []domain.Participant
}

// NewMatchBuilder creates a new MatchBuilder with default values: two
// participants, blue side winning.
func NewMatchBuilder() *MatchBuilder {
	return &MatchBuilder{
		id:           NextMatchID(),
		region:       domain.RegionNA1,
		patch:        "14.10",
		queueID:      420,
		gameCreation: time.Now().Add(-time.Hour),
		duration:     1800,
		participants: []domain.Participant{
			NewParticipantBuilder().WithPUUID("puuid-1").WithChampion(266, "Aatrox").WithTeam(100).WithWin(true).Value(),
			NewParticipantBuilder().WithPUUID("puuid-2").WithChampion(103, "Ahri").WithTeam(200).WithWin(false).Value(),
		},
	}
}

func (b *MatchBuilder) WithID(id string) *MatchBuilder {
	b.id = id
	return b
}

func (b *MatchBuilder) WithRegion(region domain.Region) *MatchBuilder {
	b.region = region
	return b
}

func (b *MatchBuilder) WithPatch(patch string) *MatchBuilder {
	b.patch = patch
	return b
}

func (b *MatchBuilder) WithGameCreation(ts time.Time) *MatchBuilder {
	b.gameCreation = ts
	return b
}

func (b *MatchBuilder) WithDuration(seconds int) *MatchBuilder {
	b.duration = seconds
	return b
}

func (b *MatchBuilder) WithRemake() *MatchBuilder {
	b.remake = true
	return b
}

// WithTimeline stores a raw timeline blob on the match.
func (b *MatchBuilder) WithTimeline(raw []byte) *MatchBuilder {
	b.timeline = raw
	return b
}

// WithParticipants replaces the default participants.
func (b *MatchBuilder) WithParticipants(participants ...domain.Participant) *MatchBuilder {
	b.participants = participants
	return b
}

// Build creates the match and its participants in the database
func (b *MatchBuilder) Build(t *testing.T, db *gorm.DB) *domain.Match {
	t.Helper()

	match := &domain.Match{
		ID:           b.id,
		Region:       b.region,
		Patch:        b.patch,
		QueueID:      b.queueID,
		GameCreation: b.gameCreation,
		GameDuration: b.duration,
		Remake:       b.remake,
		CreatedAt:    time.Now(),
		Participants: b.participants,
	}
	if b.timeline != nil {
		match.Timeline = datatypes.JSON(b.timeline)
	}
	for i := range match.Participants {
		match.Participants[i].MatchID = b.id
	}

	if err := db.Create(match).Error; err != nil {
		t.Fatalf("failed to create match: %v", err)
	}

	return match
}

// ParticipantBuilder creates participant rows with a builder pattern. Value
// returns the struct for attaching to a MatchBuilder.
type ParticipantBuilder struct {
	p domain.Participant
}

func NewParticipantBuilder() *ParticipantBuilder {
	items, _ := json.Marshal([]int{3074, 3071, 3053, 0, 0, 0, 3340})
	return &ParticipantBuilder{p: domain.Participant{
		PUUID:             fmt.Sprintf("puuid-%s", uuid.New().String()[:8]),
		SummonerName:      "TestSummoner",
		TeamID:            100,
		ChampionID:        266,
		ChampionName:      "Aatrox",
		TeamPosition:      "TOP",
		Win:               true,
		Kills:             5,
		Deaths:            3,
		Assists:           7,
		DamageToChampions: 18000,
		GoldEarned:        12000,
		CS:                180,
		KeystoneID:        8010,
		SubStyleID:        8400,
		Items:             items,
	}}
}

func (b *ParticipantBuilder) WithPUUID(puuid string) *ParticipantBuilder {
	b.p.PUUID = puuid
	return b
}

func (b *ParticipantBuilder) WithName(name string) *ParticipantBuilder {
	b.p.SummonerName = name
	return b
}

func (b *ParticipantBuilder) WithChampion(id int, name string) *ParticipantBuilder {
	b.p.ChampionID = id
	b.p.ChampionName = name
	return b
}

func (b *ParticipantBuilder) WithTeam(teamID int) *ParticipantBuilder {
	b.p.TeamID = teamID
	return b
}

func (b *ParticipantBuilder) WithWin(win bool) *ParticipantBuilder {
	b.p.Win = win
	return b
}

func (b *ParticipantBuilder) WithPosition(position string) *ParticipantBuilder {
	b.p.TeamPosition = position
	return b
}

func (b *ParticipantBuilder) WithKDA(kills, deaths, assists int) *ParticipantBuilder {
	b.p.Kills = kills
	b.p.Deaths = deaths
	b.p.Assists = assists
	return b
}

func (b *ParticipantBuilder) WithRunes(keystoneID, subStyleID int) *ParticipantBuilder {
	b.p.KeystoneID = keystoneID
	b.p.SubStyleID = subStyleID
	return b
}

// WithEnriched marks the participant as already enriched, with a score.
// Pass nil for a remake-style null score.
func (b *ParticipantBuilder) WithEnriched(score *float64) *ParticipantBuilder {
	now := time.Now()
	buildOrder := "3074,3071,3053"
	abilityOrder := "QWEQQR"
	firstBuys := "1055,2003"
	kq, _ := json.Marshal(domain.KillQuality{SoloKills: 1})

	b.p.BuildOrder = &buildOrder
	b.p.AbilityOrder = &abilityOrder
	b.p.FirstBuys = &firstBuys
	b.p.KillQuality = kq
	b.p.EnrichedAt = &now
	if score != nil {
		s := *score
		breakdown, _ := json.Marshal(domain.ScoreBreakdown{Combat: s / 2, Income: s / 4, Tempo: s / 4})
		b.p.Score = &s
		b.p.ScoreBreakdown = breakdown
	}
	return b
}

func (b *ParticipantBuilder) Value() domain.Participant {
	return b.p
}

// PlayerBuilder creates player directory rows
type PlayerBuilder struct {
	player domain.Player
}

func NewPlayerBuilder() *PlayerBuilder {
	return &PlayerBuilder{player: domain.Player{
		PUUID:        fmt.Sprintf("puuid-%s", uuid.New().String()[:8]),
		Region:       domain.RegionNA1,
		SummonerName: "TestPlayer",
		LastSeenAt:   time.Now().Add(-time.Hour),
	}}
}

func (b *PlayerBuilder) WithPUUID(puuid string) *PlayerBuilder {
	b.player.PUUID = puuid
	return b
}

func (b *PlayerBuilder) WithRegion(region domain.Region) *PlayerBuilder {
	b.player.Region = region
	return b
}

func (b *PlayerBuilder) WithLastSeen(ts time.Time) *PlayerBuilder {
	b.player.LastSeenAt = ts
	return b
}

func (b *PlayerBuilder) Build(t *testing.T, db *gorm.DB) *domain.Player {
	t.Helper()

	player := b.player
	if err := db.Create(&player).Error; err != nil {
		t.Fatalf("failed to create player: %v", err)
	}
	return &player
}

// RiotMatchBuilder assembles upstream match detail documents for FakeRiot.
type RiotMatchBuilder struct {
	m *riot.Match
}

func NewRiotMatchBuilder(matchID string) *RiotMatchBuilder {
	now := time.Now()
	return &RiotMatchBuilder{m: &riot.Match{
		Metadata: riot.Metadata{MatchID: matchID},
		Info: riot.MatchInfo{
			GameCreation:     now.Add(-time.Hour).UnixMilli(),
			GameDuration:     1800,
			GameEndTimestamp: now.Add(-30 * time.Minute).UnixMilli(),
			GameVersion:      "14.10.584.2314",
			QueueID:          420,
		},
	}}
}

func (b *RiotMatchBuilder) WithVersion(version string) *RiotMatchBuilder {
	b.m.Info.GameVersion = version
	return b
}

func (b *RiotMatchBuilder) WithGameCreation(ts time.Time) *RiotMatchBuilder {
	b.m.Info.GameCreation = ts.UnixMilli()
	return b
}

func (b *RiotMatchBuilder) WithDuration(seconds int) *RiotMatchBuilder {
	b.m.Info.GameDuration = int64(seconds)
	return b
}

// WithRemake shortens the game under the remake threshold.
func (b *RiotMatchBuilder) WithRemake() *RiotMatchBuilder {
	b.m.Info.GameDuration = 240
	return b
}

// AddParticipant appends one participant with deterministic stats derived
// from its slot.
func (b *RiotMatchBuilder) AddParticipant(puuid string, championID, teamID int, win bool) *RiotMatchBuilder {
	n := len(b.m.Info.Participants)
	b.m.Info.Participants = append(b.m.Info.Participants, riot.MatchParticipant{
		PUUID:                       puuid,
		ParticipantID:               n + 1,
		RiotIDGameName:              fmt.Sprintf("Player%d", n+1),
		TeamID:                      teamID,
		ChampionID:                  championID,
		ChampionName:                fmt.Sprintf("Champion%d", championID),
		TeamPosition:                teamPositions[n%len(teamPositions)],
		Win:                         win,
		Kills:                       4 + n,
		Deaths:                      2 + n%3,
		Assists:                     6,
		TotalDamageDealtToChampions: 15000 + 1000*n,
		GoldEarned:                  10000 + 500*n,
		TotalMinionsKilled:          140 + 10*n,
		NeutralMinionsKilled:        20,
		Item0:                       3074,
		Item1:                       3071,
		Item6:                       3340,
		Perks: riot.Perks{Styles: []riot.PerkStyle{
			{Description: "primaryStyle", Style: 8000, Selections: []riot.PerkSelection{{Perk: 8010}}},
			{Description: "subStyle", Style: 8400},
		}},
	})
	b.m.Metadata.Participants = append(b.m.Metadata.Participants, puuid)
	return b
}

// AddTeams appends five-per-side participants in one call.
func (b *RiotMatchBuilder) AddTeams(blue, red []string, blueWins bool) *RiotMatchBuilder {
	for i, puuid := range blue {
		b.AddParticipant(puuid, 100+i, 100, blueWins)
	}
	for i, puuid := range red {
		b.AddParticipant(puuid, 200+i, 200, !blueWins)
	}
	return b
}

func (b *RiotMatchBuilder) Build() *riot.Match {
	return b.m
}

// TimelineBuilder assembles upstream timeline documents. Events land in a
// single frame in insertion order.
type TimelineBuilder struct {
	tl     *riot.Timeline
	events []riot.TimelineEvent
}

func NewTimelineBuilder(matchID string, puuids ...string) *TimelineBuilder {
	participants := make([]riot.TimelineParticipant, len(puuids))
	for i, p := range puuids {
		participants[i] = riot.TimelineParticipant{ParticipantID: i + 1, PUUID: p}
	}
	return &TimelineBuilder{tl: &riot.Timeline{
		Metadata: riot.Metadata{MatchID: matchID, Participants: puuids},
		Info: riot.TimelineInfo{
			FrameInterval: 60000,
			Participants:  participants,
		},
	}}
}

func (b *TimelineBuilder) Purchase(participantID int, ts int64, itemID int) *TimelineBuilder {
	b.events = append(b.events, riot.TimelineEvent{
		Type: riot.EventItemPurchased, Timestamp: ts, ParticipantID: participantID, ItemID: itemID,
	})
	return b
}

func (b *TimelineBuilder) Undo(participantID int, ts int64, beforeID int) *TimelineBuilder {
	b.events = append(b.events, riot.TimelineEvent{
		Type: riot.EventItemUndo, Timestamp: ts, ParticipantID: participantID, BeforeID: beforeID,
	})
	return b
}

func (b *TimelineBuilder) SkillLevelUp(participantID int, ts int64, slot int) *TimelineBuilder {
	b.events = append(b.events, riot.TimelineEvent{
		Type: riot.EventSkillLevelUp, Timestamp: ts, ParticipantID: participantID,
		SkillSlot: slot, LevelUpType: "NORMAL",
	})
	return b
}

func (b *TimelineBuilder) Kill(killerID, victimID int, ts int64, assists ...int) *TimelineBuilder {
	b.events = append(b.events, riot.TimelineEvent{
		Type: riot.EventChampionKill, Timestamp: ts,
		KillerID: killerID, VictimID: victimID, AssistingParticipantIDs: assists,
	})
	return b
}

func (b *TimelineBuilder) Build() *riot.Timeline {
	b.tl.Info.Frames = []riot.TimelineFrame{{Timestamp: 0, Events: b.events}}
	return b.tl
}

// CreateAuthenticatedRequest creates an HTTP request with a bearer token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	req := createJSONRequest(t, method, url, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

// CreateCronRequest creates an HTTP request carrying the cron secret
func CreateCronRequest(t *testing.T, method, url string, body interface{}, secret string) *http.Request {
	t.Helper()

	req := createJSONRequest(t, method, url, body)
	if secret != "" {
		req.Header.Set("X-Cron-Secret", secret)
	}
	return req
}

func createJSONRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return req
}
