package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/google/uuid"
	"github.com/riftstats/pipeline/internal/config"
	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/repository"
	"github.com/riftstats/pipeline/internal/riot"
	"golang.org/x/sync/errgroup"
)

const (
	rankedSoloQueueID = 420

	// maxConsecutiveRateLimits is the saturation threshold: this many
	// rate-limit timeouts in a row means the upstream quota is spoken for
	// until the next invocation.
	maxConsecutiveRateLimits = 3

	// candidateRecencyWindow bounds how far back the candidate list looks
	// for active players.
	candidateRecencyWindow = 14 * 24 * time.Hour
)

// ScrapeService walks each region's candidate players, ingesting their
// recent matches. Passes are budgeted: every invocation makes forward
// progress and persists its cursor so the next one resumes where it
// stopped instead of re-scanning from zero.
type ScrapeService struct {
	matches      repository.MatchRepository
	participants repository.ParticipantRepository
	players      repository.PlayerRepository
	state        repository.ScrapeStateRepository
	runs         repository.ScrapeRunRepository
	client       riot.API

	budget         time.Duration
	safetyMargin   time.Duration
	matchWindow    time.Duration
	newMatchCap    int
	matchListCount int
	candidateLimit int
}

func NewScrapeService(
	matches repository.MatchRepository,
	participants repository.ParticipantRepository,
	players repository.PlayerRepository,
	state repository.ScrapeStateRepository,
	runs repository.ScrapeRunRepository,
	client riot.API,
	cfg *config.Config,
) *ScrapeService {
	return &ScrapeService{
		matches:        matches,
		participants:   participants,
		players:        players,
		state:          state,
		runs:           runs,
		client:         client,
		budget:         cfg.ScrapeBudget,
		safetyMargin:   cfg.ScrapeSafetyMargin,
		matchWindow:    time.Duration(cfg.MatchWindowDays) * 24 * time.Hour,
		newMatchCap:    cfg.NewMatchCap,
		matchListCount: cfg.MatchListCount,
		candidateLimit: cfg.CandidateLimit,
	}
}

// RunInvocation runs one scheduled pass for every region, all sharing a
// single wall-clock deadline (budget minus safety margin). Regions run
// concurrently; one region failing never aborts the others. The returned
// error reports that at least one region failed outright.
func (s *ScrapeService) RunInvocation(ctx context.Context, regions []domain.Region, seeds []string) ([]*domain.PassResult, error) {
	deadline := time.Now().Add(s.budget - s.safetyMargin)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	results := make([]*domain.PassResult, len(regions))
	var g errgroup.Group
	for i, region := range regions {
		i, region := i, region
		g.Go(func() error {
			res, err := s.RunPass(ctx, region, seeds, deadline)
			if err != nil {
				log.Printf("ERROR [scrape.RunPass] region=%s: %v", region, err)
				res = &domain.PassResult{Region: region, Errors: 1}
			}
			results[i] = res
			return err
		})
	}
	err := g.Wait()
	return results, err
}

// RunPass scans one region's candidate list from the persisted cursor until
// the deadline passes, the list is exhausted, or the upstream saturates.
// The advanced cursor and a run-history row are persisted on every exit
// path, including cancellation.
func (s *ScrapeService) RunPass(ctx context.Context, region domain.Region, seeds []string, deadline time.Time) (*domain.PassResult, error) {
	state, err := s.state.GetOrCreate(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("load scrape state for %s: %w", region, err)
	}

	run := &domain.ScrapeRun{ID: uuid.New(), Region: region, StartedAt: time.Now(), Status: domain.RunStatusRunning}
	if rerr := s.runs.Create(ctx, run); rerr != nil {
		log.Printf("ERROR [scrape.runCreate] region=%s: %v", region, rerr)
	}

	result, passErr := s.pass(ctx, region, state.Cursor, seeds, deadline)

	// Bookkeeping must land even when ctx was cut off mid-pass.
	persistCtx := context.WithoutCancel(ctx)
	if result != nil {
		now := time.Now()
		state.Cursor = result.NextIndex
		state.TotalScraped += int64(result.Stored)
		state.LastRunAt = &now
		if serr := s.state.Save(persistCtx, state); serr != nil {
			log.Printf("ERROR [scrape.saveState] region=%s: %v", region, serr)
		}
	}
	s.finishRun(persistCtx, run, result, passErr)

	return result, passErr
}

// RecentRuns lists the latest pass-history rows across regions.
func (s *ScrapeService) RecentRuns(ctx context.Context, limit int) ([]*domain.ScrapeRun, error) {
	return s.runs.ListRecent(ctx, limit)
}

func (s *ScrapeService) pass(ctx context.Context, region domain.Region, cursor int, seeds []string, deadline time.Time) (*domain.PassResult, error) {
	result := &domain.PassResult{Region: region}

	queue, err := s.candidates(ctx, region, seeds)
	if err != nil {
		return nil, err
	}
	if len(queue) == 0 {
		result.Reason = domain.PassExhausted
		return result, nil
	}

	visitedPlayers := bloom.NewWithEstimates(100000, 0.001)
	visitedMatches := bloom.NewWithEstimates(500000, 0.001)
	for _, puuid := range queue {
		visitedPlayers.AddString(puuid)
	}
	processed := make(map[string]bool, len(queue))

	// The stored cursor may point past the end when the candidate list
	// shrank between invocations.
	idx := cursor % len(queue)
	windowStart := time.Now().Add(-s.matchWindow)
	scannedSinceStore := 0
	consecutiveRateLimits := 0

	for {
		if time.Until(deadline) <= 0 {
			result.Reason = domain.PassTimeExpired
			break
		}
		if consecutiveRateLimits >= maxConsecutiveRateLimits {
			result.Reason = domain.PassSaturated
			break
		}
		if scannedSinceStore >= len(queue) {
			result.Reason = domain.PassExhausted
			break
		}
		if idx >= len(queue) {
			idx = 0
		}

		puuid := queue[idx]
		if processed[puuid] {
			idx++
			scannedSinceStore++
			continue
		}
		processed[puuid] = true

		ids, err := s.client.ListMatchIDs(ctx, region, puuid, riot.ListOptions{
			StartTime: windowStart,
			Count:     s.matchListCount,
			Queue:     rankedSoloQueueID,
		})
		if err != nil {
			result.Errors++
			if isRateLimitErr(err) {
				// Leave the cursor on this candidate so the retry after
				// backoff picks it up first.
				consecutiveRateLimits++
				processed[puuid] = false
				continue
			}
			consecutiveRateLimits = 0
			idx++
			scannedSinceStore++
			continue
		}
		consecutiveRateLimits = 0
		result.Scanned++

		newIDs, err := s.unseenMatchIDs(ctx, ids, visitedMatches)
		if err != nil {
			log.Printf("ERROR [scrape.filterExisting] region=%s: %v", region, err)
			result.Errors++
			idx++
			scannedSinceStore++
			continue
		}

		storedHere := 0
		for _, id := range newIDs {
			if storedHere >= s.newMatchCap || time.Until(deadline) <= 0 {
				break
			}
			if consecutiveRateLimits >= maxConsecutiveRateLimits {
				break
			}

			created, frontier, err := s.ingestMatch(ctx, region, id)
			if err != nil {
				result.Errors++
				if isRateLimitErr(err) {
					consecutiveRateLimits++
				} else {
					log.Printf("ERROR [scrape.ingestMatch] matchID=%s: %v", id, err)
					consecutiveRateLimits = 0
				}
				continue
			}
			consecutiveRateLimits = 0
			visitedMatches.AddString(id)
			if created {
				storedHere++
				result.Stored++
			}
			for _, fp := range frontier {
				if !visitedPlayers.TestString(fp) {
					visitedPlayers.AddString(fp)
					queue = append(queue, fp)
					result.Discovered++
				}
			}
		}

		if storedHere > 0 {
			scannedSinceStore = 0
		} else {
			scannedSinceStore++
		}
		if consecutiveRateLimits >= maxConsecutiveRateLimits {
			// Saturated mid-candidate: stop without advancing so the next
			// pass finishes this candidate's remaining matches.
			result.Reason = domain.PassSaturated
			break
		}
		idx++
	}

	result.NextIndex = idx
	return result, nil
}

// candidates assembles the scan list: caller-provided seeds first, then the
// player directory, then players observed on stored matches when the
// directory has nothing for the region yet.
func (s *ScrapeService) candidates(ctx context.Context, region domain.Region, seeds []string) ([]string, error) {
	since := time.Now().Add(-candidateRecencyWindow)

	known, err := s.players.RecentlyActive(ctx, region, since, s.candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("load player directory: %w", err)
	}
	if len(known) == 0 {
		known, err = s.participants.RecentPUUIDs(ctx, region, since, s.candidateLimit)
		if err != nil {
			return nil, fmt.Errorf("load participant fallback: %w", err)
		}
	}

	queue := make([]string, 0, len(seeds)+len(known))
	seen := make(map[string]bool, len(seeds)+len(known))
	for _, list := range [][]string{seeds, known} {
		for _, puuid := range list {
			if puuid == "" || seen[puuid] {
				continue
			}
			seen[puuid] = true
			queue = append(queue, puuid)
		}
	}
	return queue, nil
}

// unseenMatchIDs drops identifiers already seen this pass or already stored.
func (s *ScrapeService) unseenMatchIDs(ctx context.Context, ids []string, visited *bloom.BloomFilter) ([]string, error) {
	fresh := make([]string, 0, len(ids))
	for _, id := range ids {
		if !visited.TestString(id) {
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		return nil, nil
	}

	existing, err := s.matches.FilterExisting(ctx, fresh)
	if err != nil {
		return nil, err
	}

	out := fresh[:0]
	for _, id := range fresh {
		if existing[id] {
			visited.AddString(id)
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// ingestMatch fetches one match detail, stores it, and reports participant
// PUUIDs for frontier expansion. A 404 detail is skipped silently: listed
// identifiers can lag behind deletion upstream.
func (s *ScrapeService) ingestMatch(ctx context.Context, region domain.Region, id string) (bool, []string, error) {
	detail, err := s.client.GetMatch(ctx, region, id)
	if err != nil {
		return false, nil, err
	}
	if detail == nil {
		return false, nil, nil
	}

	match := matchFromRiot(region, detail)
	created, err := s.matches.Store(ctx, match)
	if err != nil {
		return false, nil, fmt.Errorf("store match %s: %w", id, err)
	}

	seen := make([]*domain.Player, 0, len(detail.Info.Participants))
	frontier := make([]string, 0, len(detail.Info.Participants))
	for _, p := range detail.Info.Participants {
		frontier = append(frontier, p.PUUID)
		seen = append(seen, &domain.Player{
			PUUID:        p.PUUID,
			Region:       region,
			SummonerName: p.Name(),
			LastSeenAt:   match.GameCreation,
		})
	}
	if err := s.players.UpsertSeen(ctx, seen); err != nil {
		log.Printf("ERROR [scrape.upsertSeen] matchID=%s: %v", id, err)
	}

	return created, frontier, nil
}

func matchFromRiot(region domain.Region, m *riot.Match) *domain.Match {
	info := m.Info
	participants := make([]domain.Participant, 0, len(info.Participants))
	for _, p := range info.Participants {
		items, _ := json.Marshal(p.FinalItems())
		keystone, subStyle := p.Perks.Keystone()
		participants = append(participants, domain.Participant{
			PUUID:             p.PUUID,
			SummonerName:      p.Name(),
			TeamID:            p.TeamID,
			ChampionID:        p.ChampionID,
			ChampionName:      p.ChampionName,
			TeamPosition:      p.TeamPosition,
			Win:               p.Win,
			Kills:             p.Kills,
			Deaths:            p.Deaths,
			Assists:           p.Assists,
			DamageToChampions: p.TotalDamageDealtToChampions,
			GoldEarned:        p.GoldEarned,
			CS:                p.TotalMinionsKilled + p.NeutralMinionsKilled,
			KeystoneID:        keystone,
			SubStyleID:        subStyle,
			Items:             items,
		})
	}

	return &domain.Match{
		ID:           m.Metadata.MatchID,
		Region:       region,
		Patch:        riot.NormalizePatch(info.GameVersion),
		QueueID:      info.QueueID,
		GameCreation: time.UnixMilli(info.GameCreation),
		GameDuration: info.DurationSeconds(),
		Remake:       info.IsRemake(),
		Participants: participants,
	}
}

func (s *ScrapeService) finishRun(ctx context.Context, run *domain.ScrapeRun, result *domain.PassResult, passErr error) {
	now := time.Now()
	run.FinishedAt = &now
	if passErr != nil {
		run.Status = domain.RunStatusError
		run.StopReason = passErr.Error()
	} else {
		run.Status = domain.RunStatusSuccess
		run.StopReason = string(result.Reason)
	}
	if result != nil {
		run.Scanned = result.Scanned
		run.Stored = result.Stored
		run.Discovered = result.Discovered
		run.Errors = result.Errors
	}
	if err := s.runs.Finish(ctx, run); err != nil {
		log.Printf("ERROR [scrape.runFinish] region=%s: %v", run.Region, err)
	}
}

func isRateLimitErr(err error) bool {
	return errors.Is(err, domain.ErrRateLimitTimeout) || errors.Is(err, domain.ErrRateLimited)
}
