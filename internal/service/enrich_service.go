package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/riftstats/pipeline/internal/config"
	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/repository"
	"github.com/riftstats/pipeline/internal/riot"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
)

const (
	// completedItemGold is the catalog threshold separating components from
	// completed items when folding builds.
	completedItemGold = 2000
	itemCacheTTL      = time.Hour
)

// EnrichmentService derives per-participant fields and scores for stored
// matches. Execution is singleton-per-match: concurrent calls for the same
// identifier share one computation through the in-process flight group,
// which is owned by the service instance so tests get isolated locking.
type EnrichmentService struct {
	matches      repository.MatchRepository
	participants repository.ParticipantRepository
	items        repository.ItemRepository
	client       riot.API
	aggregator   *StatsAggregator
	retention    time.Duration

	group singleflight.Group

	itemsMu        sync.Mutex
	completedItems map[int]bool
	itemsLoadedAt  time.Time
}

func NewEnrichmentService(
	matches repository.MatchRepository,
	participants repository.ParticipantRepository,
	items repository.ItemRepository,
	client riot.API,
	aggregator *StatsAggregator,
	cfg *config.Config,
) *EnrichmentService {
	return &EnrichmentService{
		matches:      matches,
		participants: participants,
		items:        items,
		client:       client,
		aggregator:   aggregator,
		retention:    time.Duration(cfg.TimelineRetentionDays) * 24 * time.Hour,
	}
}

// Enrich computes derived fields and scores for every participant of a
// match. A second concurrent call for the same match awaits the first's
// result instead of recomputing; a fully enriched match returns cached
// values with zero upstream calls.
func (s *EnrichmentService) Enrich(ctx context.Context, matchID string) (map[string]*domain.ParticipantScore, error) {
	v, err, _ := s.group.Do(matchID, func() (interface{}, error) {
		return s.enrich(ctx, matchID)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]*domain.ParticipantScore), nil
}

func (s *EnrichmentService) enrich(ctx context.Context, matchID string) (map[string]*domain.ParticipantScore, error) {
	match, err := s.matches.GetWithParticipants(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match == nil {
		return nil, domain.ErrMatchNotFound
	}
	if len(match.Participants) == 0 {
		return nil, domain.ErrParticipantsNotFound
	}

	if scores, ok := cachedScores(match.Participants); ok {
		return scores, nil
	}

	// A match past the retention horizon with no stored timeline can never
	// be enriched; fail before touching the network.
	if len(match.Timeline) == 0 && time.Since(match.GameCreation) > s.retention {
		return nil, domain.ErrTimelineTooOld
	}

	tl, err := s.loadTimeline(ctx, match)
	if err != nil {
		return nil, err
	}

	// Participant-level live stats only exist on the detail document, so it
	// is always refetched.
	detail, err := s.client.GetMatch(ctx, match.Region, matchID)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, domain.ErrMatchNotFound
	}

	totals := teamTotalsOf(detail.Info)
	remake := detail.Info.IsRemake()
	tlStats := DeriveTimelineStats(tl)
	isCompleted := s.completedItemFilter(ctx)

	now := time.Now()
	result := make(map[string]*domain.ParticipantScore, len(detail.Info.Participants))
	contribs := make([]domain.StatContribution, 0, len(detail.Info.Participants))

	for _, p := range detail.Info.Participants {
		score, contrib, err := s.enrichParticipant(ctx, match, p, tlStats[p.ParticipantID], totals[p.TeamID], detail.Info.DurationSeconds(), remake, isCompleted, now)
		if err != nil {
			// Isolated: the participant keeps a null score, the rest of the
			// match still enriches.
			log.Printf("ERROR [enrich.participant] matchID=%s puuid=%s: %v", matchID, p.PUUID, err)
			result[p.PUUID] = &domain.ParticipantScore{PUUID: p.PUUID, ChampionID: p.ChampionID}
			continue
		}
		result[p.PUUID] = score
		contribs = append(contribs, contrib)
	}

	firstRun, err := s.matches.MarkEnriched(ctx, matchID)
	if err != nil {
		log.Printf("ERROR [enrich.markEnriched] matchID=%s: %v", matchID, err)
	}
	if firstRun {
		for _, c := range contribs {
			s.aggregator.Add(c)
		}
		if _, err := s.aggregator.Flush(ctx); err != nil {
			// The buffer is retained on failure; a later flush retries.
			log.Printf("ERROR [enrich.flush] matchID=%s: %v", matchID, err)
		}
	}

	return result, nil
}

type teamTotals struct {
	kills  int
	damage int
}

// teamTotalsOf precomputes the match-wide denominators once per match
// rather than per participant.
func teamTotalsOf(info riot.MatchInfo) map[int]teamTotals {
	totals := make(map[int]teamTotals, 2)
	for _, p := range info.Participants {
		t := totals[p.TeamID]
		t.kills += p.Kills
		t.damage += p.TotalDamageDealtToChampions
		totals[p.TeamID] = t
	}
	return totals
}

func (s *EnrichmentService) enrichParticipant(
	ctx context.Context,
	match *domain.Match,
	p riot.MatchParticipant,
	tls *TimelineStats,
	team teamTotals,
	durationSeconds int,
	remake bool,
	isCompleted func(int) bool,
	now time.Time,
) (*domain.ParticipantScore, domain.StatContribution, error) {
	if tls == nil {
		tls = &TimelineStats{}
	}

	completed := tls.BuildOrder(isCompleted)
	buildStr := joinItemIDs(completed)
	firstStr := joinItemIDs(tls.FirstBuys)
	kqJSON, err := json.Marshal(tls.KillQuality)
	if err != nil {
		return nil, domain.StatContribution{}, err
	}

	fields := domain.DerivedFields{
		BuildOrder:   &buildStr,
		AbilityOrder: &tls.AbilityOrder,
		FirstBuys:    &firstStr,
		KillQuality:  datatypes.JSON(kqJSON),
		EnrichedAt:   &now,
	}

	// Build aggregation only makes sense against a synced catalog; raw
	// purchase sequences would pollute the dimension.
	build := ""
	if isCompleted != nil {
		build = buildKey(completed)
	}

	ps := &domain.ParticipantScore{PUUID: p.PUUID, ChampionID: p.ChampionID}
	keystone, subStyle := p.Perks.Keystone()
	contrib := domain.StatContribution{
		ChampionID:        p.ChampionID,
		Patch:             match.Patch,
		Win:               p.Win,
		Build:             build,
		KeystoneID:        keystone,
		SubStyleID:        subStyle,
		Kills:             p.Kills,
		Deaths:            p.Deaths,
		Assists:           p.Assists,
		DamageToChampions: p.TotalDamageDealtToChampions,
		GoldEarned:        p.GoldEarned,
		CS:                p.TotalMinionsKilled + p.NeutralMinionsKilled,
	}

	if !remake {
		score, breakdown := ComputeScore(ScoreInput{
			Kills:             p.Kills,
			Deaths:            p.Deaths,
			Assists:           p.Assists,
			DamageToChampions: p.TotalDamageDealtToChampions,
			GoldEarned:        p.GoldEarned,
			CS:                p.TotalMinionsKilled + p.NeutralMinionsKilled,
			DurationSeconds:   durationSeconds,
			Win:               p.Win,
			TeamKills:         team.kills,
			TeamDamage:        team.damage,
			KillQuality:       tls.KillQuality,
		})
		bdJSON, err := json.Marshal(breakdown)
		if err != nil {
			return nil, domain.StatContribution{}, err
		}
		fields.Score = &score
		fields.ScoreBreakdown = datatypes.JSON(bdJSON)
		ps.Score = &score
		ps.Breakdown = &breakdown
		contrib.Score = &score
	}

	// Persisted per participant so partial progress survives a later
	// failure.
	if err := s.participants.UpdateDerived(ctx, match.ID, p.PUUID, fields); err != nil {
		return nil, domain.StatContribution{}, err
	}
	return ps, contrib, nil
}

// cachedScores short-circuits when every participant already carries
// enrichment markers.
func cachedScores(participants []domain.Participant) (map[string]*domain.ParticipantScore, bool) {
	for i := range participants {
		if !participants[i].Enriched() {
			return nil, false
		}
	}
	out := make(map[string]*domain.ParticipantScore, len(participants))
	for i := range participants {
		p := &participants[i]
		ps := &domain.ParticipantScore{PUUID: p.PUUID, ChampionID: p.ChampionID, Score: p.Score}
		if len(p.ScoreBreakdown) > 0 {
			var bd domain.ScoreBreakdown
			if err := json.Unmarshal(p.ScoreBreakdown, &bd); err == nil {
				ps.Breakdown = &bd
			}
		}
		out[p.PUUID] = ps
	}
	return out, true
}

func (s *EnrichmentService) loadTimeline(ctx context.Context, match *domain.Match) (*riot.Timeline, error) {
	if len(match.Timeline) > 0 {
		var tl riot.Timeline
		if err := json.Unmarshal(match.Timeline, &tl); err == nil {
			return &tl, nil
		}
		log.Printf("ERROR [enrich.loadTimeline] matchID=%s: stored timeline unreadable, refetching", match.ID)
	}

	tl, err := s.client.GetTimeline(ctx, match.Region, match.ID)
	if err != nil {
		return nil, err
	}
	if tl == nil {
		// Fresh matches can 404 briefly while the upstream finishes
		// processing; retryable, unlike the too-old case.
		return nil, fmt.Errorf("%w: timeline not yet available", domain.ErrUpstreamUnavailable)
	}

	if raw, err := json.Marshal(tl); err == nil {
		if err := s.matches.AttachTimeline(ctx, match.ID, raw); err != nil {
			log.Printf("ERROR [enrich.attachTimeline] matchID=%s: %v", match.ID, err)
		}
	}
	return tl, nil
}

// completedItemFilter returns a predicate over item IDs backed by the synced
// catalog, cached for an hour. A nil predicate (catalog not synced) keeps
// the raw purchase sequence and skips build aggregation.
func (s *EnrichmentService) completedItemFilter(ctx context.Context) func(int) bool {
	s.itemsMu.Lock()
	defer s.itemsMu.Unlock()

	if s.completedItems == nil || time.Since(s.itemsLoadedAt) > itemCacheTTL {
		ids, err := s.items.CompletedItemIDs(ctx, completedItemGold)
		if err != nil {
			log.Printf("ERROR [enrich.itemCatalog]: %v", err)
			ids = nil
		}
		s.completedItems = ids
		s.itemsLoadedAt = time.Now()
	}

	if len(s.completedItems) == 0 {
		return nil
	}
	ids := s.completedItems
	return func(id int) bool { return ids[id] }
}
