package service

import (
	"context"
	"fmt"
	"log"

	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/repository"
)

const topEntryLimit = 10

// StatsService is the read surface over the aggregate tables.
type StatsService struct {
	stats     repository.StatsRepository
	champions repository.ChampionRepository
}

func NewStatsService(stats repository.StatsRepository, champions repository.ChampionRepository) *StatsService {
	return &StatsService{stats: stats, champions: champions}
}

// ChampionOverviewEntry is one champion+patch row with derived rates.
type ChampionOverviewEntry struct {
	ChampionID int      `json:"championId"`
	Name       string   `json:"name,omitempty"`
	Patch      string   `json:"patch"`
	Games      int64    `json:"games"`
	Wins       int64    `json:"wins"`
	WinRate    float64  `json:"winRate"`
	AvgKills   float64  `json:"avgKills"`
	AvgDeaths  float64  `json:"avgDeaths"`
	AvgAssists float64  `json:"avgAssists"`
	AvgCS      float64  `json:"avgCs"`
	AvgScore   *float64 `json:"avgScore"`
}

type BuildEntry struct {
	Build   string  `json:"build"`
	Games   int64   `json:"games"`
	Wins    int64   `json:"wins"`
	WinRate float64 `json:"winRate"`
}

type RuneEntry struct {
	KeystoneID int     `json:"keystoneId"`
	SubStyleID int     `json:"subStyleId"`
	Games      int64   `json:"games"`
	Wins       int64   `json:"wins"`
	WinRate    float64 `json:"winRate"`
}

// ChampionDetail is the full read model for one champion on one patch.
type ChampionDetail struct {
	ChampionOverviewEntry
	Builds []BuildEntry `json:"builds"`
	Runes  []RuneEntry  `json:"runes"`
}

// ChampionOverview lists aggregate rows, most played first, optionally
// filtered to one patch.
func (s *StatsService) ChampionOverview(ctx context.Context, patch string) ([]*ChampionOverviewEntry, error) {
	rows, err := s.stats.ChampionOverview(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("load champion overview: %w", err)
	}

	names := s.championNames(ctx)
	out := make([]*ChampionOverviewEntry, 0, len(rows))
	for _, row := range rows {
		entry := overviewEntry(row)
		entry.Name = names[row.ChampionID]
		out = append(out, entry)
	}
	return out, nil
}

// ChampionDetail returns one champion's aggregate row plus its top builds
// and rune pages. Returns nil when the champion has no games on the patch.
func (s *StatsService) ChampionDetail(ctx context.Context, championID int, patch string) (*ChampionDetail, error) {
	stat, err := s.stats.GetChampionStat(ctx, championID, patch)
	if err != nil {
		return nil, fmt.Errorf("load champion stat: %w", err)
	}
	if stat == nil {
		return nil, nil
	}
	// Builds and runes follow whichever patch the stat row resolved to.
	patch = stat.Patch

	builds, err := s.stats.TopBuilds(ctx, championID, patch, topEntryLimit)
	if err != nil {
		return nil, fmt.Errorf("load top builds: %w", err)
	}
	runes, err := s.stats.TopRunes(ctx, championID, patch, topEntryLimit)
	if err != nil {
		return nil, fmt.Errorf("load top runes: %w", err)
	}

	detail := &ChampionDetail{
		ChampionOverviewEntry: *overviewEntry(stat),
		Builds:                make([]BuildEntry, 0, len(builds)),
		Runes:                 make([]RuneEntry, 0, len(runes)),
	}
	detail.Name = s.championNames(ctx)[championID]

	for _, b := range builds {
		detail.Builds = append(detail.Builds, BuildEntry{
			Build:   b.Build,
			Games:   b.Games,
			Wins:    b.Wins,
			WinRate: rate(b.Wins, b.Games),
		})
	}
	for _, r := range runes {
		detail.Runes = append(detail.Runes, RuneEntry{
			KeystoneID: r.KeystoneID,
			SubStyleID: r.SubStyleID,
			Games:      r.Games,
			Wins:       r.Wins,
			WinRate:    rate(r.Wins, r.Games),
		})
	}
	return detail, nil
}

// Cleanup deletes aggregate rows whose patch is not in keep. This is the
// only deletion the aggregate tables ever see.
func (s *StatsService) Cleanup(ctx context.Context, keepPatches []string) (int64, error) {
	return s.stats.DeleteOutsidePatches(ctx, keepPatches)
}

func overviewEntry(row *domain.ChampionStat) *ChampionOverviewEntry {
	entry := &ChampionOverviewEntry{
		ChampionID: row.ChampionID,
		Patch:      row.Patch,
		Games:      row.Games,
		Wins:       row.Wins,
		WinRate:    rate(row.Wins, row.Games),
		AvgKills:   avg(row.Kills, row.Games),
		AvgDeaths:  avg(row.Deaths, row.Games),
		AvgAssists: avg(row.Assists, row.Games),
		AvgCS:      avg(row.CS, row.Games),
	}
	if row.ScoredGames > 0 {
		s := round2(row.ScoreSum / float64(row.ScoredGames))
		entry.AvgScore = &s
	}
	return entry
}

// championNames is decoration only; an unsynced catalog just leaves names
// blank.
func (s *StatsService) championNames(ctx context.Context) map[int]string {
	champions, err := s.champions.GetAll(ctx)
	if err != nil {
		log.Printf("ERROR [stats.championNames]: %v", err)
		return nil
	}
	names := make(map[int]string, len(champions))
	for _, c := range champions {
		names[c.ID] = c.Name
	}
	return names
}

func rate(wins, games int64) float64 {
	if games == 0 {
		return 0
	}
	return round2(float64(wins) / float64(games) * 100)
}

func avg(sum, games int64) float64 {
	if games == 0 {
		return 0
	}
	return round2(float64(sum) / float64(games))
}
