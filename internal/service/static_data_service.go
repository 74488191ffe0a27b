package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/riftstats/pipeline/internal/domain"
	"github.com/riftstats/pipeline/internal/repository"
	"github.com/riftstats/pipeline/internal/riot"
)

// StaticDataService syncs the Data Dragon champion and item catalogs. Item
// gold costs drive completed-item detection during enrichment; champion
// names decorate the aggregate read surface.
type StaticDataService struct {
	champions repository.ChampionRepository
	items     repository.ItemRepository
	ddragon   *riot.DataDragonClient
}

func NewStaticDataService(champions repository.ChampionRepository, items repository.ItemRepository, ddragon *riot.DataDragonClient) *StaticDataService {
	return &StaticDataService{
		champions: champions,
		items:     items,
		ddragon:   ddragon,
	}
}

// SyncResult reports one catalog sync.
type SyncResult struct {
	Version   string `json:"version"`
	Champions int    `json:"champions"`
	Items     int    `json:"items"`
}

// SyncAll resolves the latest catalog version and upserts both tables.
func (s *StaticDataService) SyncAll(ctx context.Context) (*SyncResult, error) {
	version, err := s.ddragon.LatestVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve catalog version: %w", err)
	}

	nChampions, err := s.syncChampions(ctx, version)
	if err != nil {
		return nil, err
	}
	nItems, err := s.syncItems(ctx, version)
	if err != nil {
		return nil, err
	}

	return &SyncResult{Version: version, Champions: nChampions, Items: nItems}, nil
}

func (s *StaticDataService) syncChampions(ctx context.Context, version string) (int, error) {
	data, err := s.ddragon.Champions(ctx, version)
	if err != nil {
		return 0, fmt.Errorf("fetch champions: %w", err)
	}

	now := time.Now()
	champions := make([]*domain.Champion, 0, len(data))
	for _, c := range data {
		// Matches reference champions by the numeric key, not the slug.
		id, err := strconv.Atoi(c.Key)
		if err != nil {
			log.Printf("ERROR [staticData.syncChampions] bad champion key %q: %v", c.Key, err)
			continue
		}
		tags, _ := json.Marshal(c.Tags)
		champions = append(champions, &domain.Champion{
			ID:           id,
			Slug:         c.ID,
			Name:         c.Name,
			Title:        c.Title,
			ImageURL:     s.ddragon.ImageURL(version, c.Image.Full),
			Tags:         tags,
			LastSyncedAt: now,
		})
	}

	if err := s.champions.UpsertMany(ctx, champions); err != nil {
		return 0, fmt.Errorf("upsert champions: %w", err)
	}
	return len(champions), nil
}

func (s *StaticDataService) syncItems(ctx context.Context, version string) (int, error) {
	data, err := s.ddragon.Items(ctx, version)
	if err != nil {
		return 0, fmt.Errorf("fetch items: %w", err)
	}

	now := time.Now()
	items := make([]*domain.Item, 0, len(data))
	for rawID, it := range data {
		id, err := strconv.Atoi(rawID)
		if err != nil {
			log.Printf("ERROR [staticData.syncItems] bad item id %q: %v", rawID, err)
			continue
		}
		tags, _ := json.Marshal(it.Tags)
		items = append(items, &domain.Item{
			ID:           id,
			Name:         it.Name,
			GoldTotal:    it.Gold.Total,
			Purchasable:  it.Gold.Purchasable,
			Tags:         tags,
			LastSyncedAt: now,
		})
	}

	if err := s.items.UpsertMany(ctx, items); err != nil {
		return 0, fmt.Errorf("upsert items: %w", err)
	}
	return len(items), nil
}
