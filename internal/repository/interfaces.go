package repository

import (
	"context"
	"time"

	"github.com/riftstats/pipeline/internal/domain"
)

type MatchRepository interface {
	// FilterExisting returns the subset of ids already stored.
	FilterExisting(ctx context.Context, ids []string) (map[string]bool, error)
	// Store inserts a match with its participants. Idempotent: re-storing an
	// existing identifier is a no-op and returns created=false.
	Store(ctx context.Context, match *domain.Match) (bool, error)
	GetWithParticipants(ctx context.Context, id string) (*domain.Match, error)
	// AttachTimeline back-fills the raw timeline blob on a stored match.
	AttachTimeline(ctx context.Context, id string, timeline []byte) error
	// MarkEnriched stamps the match's first-ever enrichment. Returns true
	// only for the call that performed the stamp, so aggregate submission
	// happens exactly once per match.
	MarkEnriched(ctx context.Context, id string) (bool, error)
}

type ParticipantRepository interface {
	// UpdateDerived merges the non-nil derived fields into one participant
	// row. Distinct (match, participant) keys never block each other.
	UpdateDerived(ctx context.Context, matchID, puuid string, fields domain.DerivedFields) error
	// RecentPUUIDs lists players recently observed as participants in a
	// region, most recent first. Fallback candidate source when the player
	// directory is empty.
	RecentPUUIDs(ctx context.Context, region domain.Region, since time.Time, limit int) ([]string, error)
}

type PlayerRepository interface {
	// UpsertSeen records players observed as participants, keeping the most
	// recent sighting.
	UpsertSeen(ctx context.Context, players []*domain.Player) error
	// RecentlyActive returns directory PUUIDs ordered by last sighting.
	RecentlyActive(ctx context.Context, region domain.Region, since time.Time, limit int) ([]string, error)
}

type ScrapeStateRepository interface {
	GetOrCreate(ctx context.Context, region domain.Region) (*domain.RegionScrapeState, error)
	Save(ctx context.Context, state *domain.RegionScrapeState) error
}

type ScrapeRunRepository interface {
	Create(ctx context.Context, run *domain.ScrapeRun) error
	Finish(ctx context.Context, run *domain.ScrapeRun) error
	ListRecent(ctx context.Context, limit int) ([]*domain.ScrapeRun, error)
}

type StatsRepository interface {
	// MergeContributions folds contributions into the aggregate tables
	// additively and atomically. Existing counters are incremented, never
	// replaced.
	MergeContributions(ctx context.Context, contribs []domain.StatContribution) error
	ChampionOverview(ctx context.Context, patch string) ([]*domain.ChampionStat, error)
	// GetChampionStat returns one champion's aggregate row. An empty patch
	// resolves to the champion's most-played patch.
	GetChampionStat(ctx context.Context, championID int, patch string) (*domain.ChampionStat, error)
	TopBuilds(ctx context.Context, championID int, patch string, limit int) ([]*domain.ChampionBuildStat, error)
	TopRunes(ctx context.Context, championID int, patch string, limit int) ([]*domain.ChampionRuneStat, error)
	// DeleteOutsidePatches is the only sanctioned aggregate deletion:
	// administrative cleanup of rows whose patch is not in keep.
	DeleteOutsidePatches(ctx context.Context, keep []string) (int64, error)
}

type ChampionRepository interface {
	UpsertMany(ctx context.Context, champions []*domain.Champion) error
	GetAll(ctx context.Context) ([]*domain.Champion, error)
}

type ItemRepository interface {
	UpsertMany(ctx context.Context, items []*domain.Item) error
	// CompletedItemIDs returns purchasable items at or above the gold
	// threshold that marks a completed item.
	CompletedItemIDs(ctx context.Context, minGold int) (map[int]bool, error)
}

type Repositories struct {
	Match       MatchRepository
	Participant ParticipantRepository
	Player      PlayerRepository
	ScrapeState ScrapeStateRepository
	ScrapeRun   ScrapeRunRepository
	Stats       StatsRepository
	Champion    ChampionRepository
	Item        ItemRepository
}
