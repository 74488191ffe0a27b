package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/riftstats/pipeline/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) *statsRepository {
	return &statsRepository{db: db}
}

// MergeContributions folds the batch into the three aggregate tables inside
// one transaction. Contributions are pre-merged per key so each INSERT
// carries at most one row per conflict target, then merged additively into
// existing rows: counters are incremented, never replaced, so concurrent
// flushes from other processes cannot overwrite each other's progress.
func (r *statsRepository) MergeContributions(ctx context.Context, contribs []domain.StatContribution) error {
	if len(contribs) == 0 {
		return nil
	}
	champs, builds, runes := foldContributions(contribs)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "champion_id"}, {Name: "patch"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"games":               gorm.Expr("champion_stats.games + EXCLUDED.games"),
				"wins":                gorm.Expr("champion_stats.wins + EXCLUDED.wins"),
				"kills":               gorm.Expr("champion_stats.kills + EXCLUDED.kills"),
				"deaths":              gorm.Expr("champion_stats.deaths + EXCLUDED.deaths"),
				"assists":             gorm.Expr("champion_stats.assists + EXCLUDED.assists"),
				"damage_to_champions": gorm.Expr("champion_stats.damage_to_champions + EXCLUDED.damage_to_champions"),
				"gold_earned":         gorm.Expr("champion_stats.gold_earned + EXCLUDED.gold_earned"),
				"cs":                  gorm.Expr("champion_stats.cs + EXCLUDED.cs"),
				"score_sum":           gorm.Expr("champion_stats.score_sum + EXCLUDED.score_sum"),
				"scored_games":        gorm.Expr("champion_stats.scored_games + EXCLUDED.scored_games"),
				"updated_at":          gorm.Expr("EXCLUDED.updated_at"),
			}),
		}).Create(&champs).Error; err != nil {
			return err
		}

		if len(builds) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "champion_id"}, {Name: "patch"}, {Name: "build"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"games": gorm.Expr("champion_build_stats.games + EXCLUDED.games"),
					"wins":  gorm.Expr("champion_build_stats.wins + EXCLUDED.wins"),
				}),
			}).Create(&builds).Error; err != nil {
				return err
			}
		}

		if len(runes) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "champion_id"}, {Name: "patch"}, {Name: "keystone_id"}, {Name: "sub_style_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"games": gorm.Expr("champion_rune_stats.games + EXCLUDED.games"),
					"wins":  gorm.Expr("champion_rune_stats.wins + EXCLUDED.wins"),
				}),
			}).Create(&runes).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

func foldContributions(contribs []domain.StatContribution) ([]domain.ChampionStat, []domain.ChampionBuildStat, []domain.ChampionRuneStat) {
	now := time.Now()
	champIdx := map[string]int{}
	buildIdx := map[string]int{}
	runeIdx := map[string]int{}
	var champs []domain.ChampionStat
	var builds []domain.ChampionBuildStat
	var runes []domain.ChampionRuneStat

	winInc := func(win bool) int64 {
		if win {
			return 1
		}
		return 0
	}

	for _, c := range contribs {
		key := fmt.Sprintf("%d|%s", c.ChampionID, c.Patch)
		i, ok := champIdx[key]
		if !ok {
			i = len(champs)
			champIdx[key] = i
			champs = append(champs, domain.ChampionStat{ChampionID: c.ChampionID, Patch: c.Patch, UpdatedAt: now})
		}
		champs[i].Games++
		champs[i].Wins += winInc(c.Win)
		champs[i].Kills += int64(c.Kills)
		champs[i].Deaths += int64(c.Deaths)
		champs[i].Assists += int64(c.Assists)
		champs[i].DamageToChampions += int64(c.DamageToChampions)
		champs[i].GoldEarned += int64(c.GoldEarned)
		champs[i].CS += int64(c.CS)
		if c.Score != nil {
			champs[i].ScoreSum += *c.Score
			champs[i].ScoredGames++
		}

		if c.Build != "" {
			bkey := key + "|" + c.Build
			j, ok := buildIdx[bkey]
			if !ok {
				j = len(builds)
				buildIdx[bkey] = j
				builds = append(builds, domain.ChampionBuildStat{ChampionID: c.ChampionID, Patch: c.Patch, Build: c.Build})
			}
			builds[j].Games++
			builds[j].Wins += winInc(c.Win)
		}

		if c.KeystoneID != 0 {
			rkey := fmt.Sprintf("%s|%d|%d", key, c.KeystoneID, c.SubStyleID)
			j, ok := runeIdx[rkey]
			if !ok {
				j = len(runes)
				runeIdx[rkey] = j
				runes = append(runes, domain.ChampionRuneStat{ChampionID: c.ChampionID, Patch: c.Patch, KeystoneID: c.KeystoneID, SubStyleID: c.SubStyleID})
			}
			runes[j].Games++
			runes[j].Wins += winInc(c.Win)
		}
	}

	return champs, builds, runes
}

func (r *statsRepository) ChampionOverview(ctx context.Context, patch string) ([]*domain.ChampionStat, error) {
	q := r.db.WithContext(ctx).Model(&domain.ChampionStat{})
	if patch != "" {
		q = q.Where("patch = ?", patch)
	}
	var stats []*domain.ChampionStat
	if err := q.Order("games DESC").Find(&stats).Error; err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *statsRepository) GetChampionStat(ctx context.Context, championID int, patch string) (*domain.ChampionStat, error) {
	q := r.db.WithContext(ctx).Where("champion_id = ?", championID)
	if patch != "" {
		q = q.Where("patch = ?", patch)
	} else {
		// No patch requested: the champion's most-played patch stands in.
		q = q.Order("games DESC")
	}

	var stat domain.ChampionStat
	err := q.First(&stat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stat, nil
}

func (r *statsRepository) TopBuilds(ctx context.Context, championID int, patch string, limit int) ([]*domain.ChampionBuildStat, error) {
	var builds []*domain.ChampionBuildStat
	err := r.db.WithContext(ctx).
		Where("champion_id = ? AND patch = ?", championID, patch).
		Order("games DESC").
		Limit(limit).
		Find(&builds).Error
	if err != nil {
		return nil, err
	}
	return builds, nil
}

func (r *statsRepository) TopRunes(ctx context.Context, championID int, patch string, limit int) ([]*domain.ChampionRuneStat, error) {
	var runes []*domain.ChampionRuneStat
	err := r.db.WithContext(ctx).
		Where("champion_id = ? AND patch = ?", championID, patch).
		Order("games DESC").
		Limit(limit).
		Find(&runes).Error
	if err != nil {
		return nil, err
	}
	return runes, nil
}

func (r *statsRepository) DeleteOutsidePatches(ctx context.Context, keep []string) (int64, error) {
	if len(keep) == 0 {
		return 0, fmt.Errorf("refusing cleanup with empty keep set")
	}
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&domain.ChampionStat{},
			&domain.ChampionBuildStat{},
			&domain.ChampionRuneStat{},
		} {
			res := tx.Where("patch NOT IN ?", keep).Delete(model)
			if res.Error != nil {
				return res.Error
			}
			deleted += res.RowsAffected
		}
		return nil
	})
	return deleted, err
}
