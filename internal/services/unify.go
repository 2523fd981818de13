package services

import (
	"context"
	"fmt"
	"log"

	"postpulse/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UnifyService folds together stored profiles that enrichment revealed to be
// the same person. Duplicates arise when the scraper exposed different
// identifiers for one actor across sessions; once enrichment attaches a
// public identifier or stable id, overlaps become detectable across fields.
type UnifyService struct {
	db *gorm.DB
}

// NewUnifyService creates a new UnifyService
func NewUnifyService(db *gorm.DB) *UnifyService {
	return &UnifyService{db: db}
}

// MergeResult reports one unification pass.
type MergeResult struct {
	Merged   int
	Failures []string
}

// MergeDuplicates detects groups of profiles sharing any identifier with the
// recently enriched profiles and merges each group into a single survivor.
// A group's merge is transactional; one group failing never aborts the rest.
func (s *UnifyService) MergeDuplicates(ctx context.Context, enriched []models.Profile) (MergeResult, error) {
	var result MergeResult

	candidates, err := s.collectCandidates(ctx, enriched)
	if err != nil {
		return result, err
	}

	groups := groupBySharedIdentifiers(candidates)

	for _, group := range groups {
		if len(group) < 2 {
			continue
		}
		if err := s.mergeGroup(ctx, group); err != nil {
			conflict := &ConflictError{Group: group[0].ID.String(), Err: err}
			log.Printf("❌ %v", conflict)
			result.Failures = append(result.Failures, conflict.Error())
			continue
		}
		result.Merged += len(group) - 1
	}

	if result.Merged > 0 {
		log.Printf("✅ Unified %d duplicate profiles across %d groups", result.Merged, len(groups))
	}
	return result, nil
}

// collectCandidates loads, for every enriched profile, any other stored
// profile holding one of its identifiers in any identifier field. A value may
// sit in different slots on different rows, so each field is checked against
// the full identifier set.
func (s *UnifyService) collectCandidates(ctx context.Context, enriched []models.Profile) (map[uuid.UUID]*models.Profile, error) {
	candidates := make(map[uuid.UUID]*models.Profile)

	for i := range enriched {
		profile := enriched[i]
		candidates[profile.ID] = &enriched[i]

		ids := profile.KnownIdentifiers()
		if len(ids) == 0 {
			continue
		}

		var others []models.Profile
		err := s.db.WithContext(ctx).
			Where("id <> ?", profile.ID).
			Where("public_identifier IN ? OR public_handle IN ? OR urn IN ? OR member_id IN ?", ids, ids, ids, ids).
			Find(&others).Error
		if err != nil {
			return nil, fmt.Errorf("failed to query duplicate candidates for %s: %w", profile.ID, err)
		}

		for j := range others {
			if _, ok := candidates[others[j].ID]; !ok {
				candidates[others[j].ID] = &others[j]
			}
		}
	}

	return candidates, nil
}

// unionFind is a disjoint-set over profile ids, used to group candidates
// transitively: if A shares an identifier with B and B shares a different
// one with C, all three are one group.
type unionFind struct {
	parent map[uuid.UUID]uuid.UUID
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[uuid.UUID]uuid.UUID)}
}

func (u *unionFind) find(id uuid.UUID) uuid.UUID {
	if _, ok := u.parent[id]; !ok {
		u.parent[id] = id
	}
	for u.parent[id] != id {
		u.parent[id] = u.parent[u.parent[id]]
		id = u.parent[id]
	}
	return id
}

func (u *unionFind) union(a, b uuid.UUID) {
	rootA, rootB := u.find(a), u.find(b)
	if rootA != rootB {
		u.parent[rootB] = rootA
	}
}

// groupBySharedIdentifiers unions candidates that share any identifier value
// and returns the resulting groups.
func groupBySharedIdentifiers(candidates map[uuid.UUID]*models.Profile) [][]*models.Profile {
	uf := newUnionFind()
	owner := make(map[string]uuid.UUID)

	for id, profile := range candidates {
		uf.find(id)
		for _, value := range profile.KnownIdentifiers() {
			if prev, ok := owner[value]; ok {
				uf.union(prev, id)
			} else {
				owner[value] = id
			}
		}
	}

	grouped := make(map[uuid.UUID][]*models.Profile)
	for id, profile := range candidates {
		root := uf.find(id)
		grouped[root] = append(grouped[root], profile)
	}

	groups := make([][]*models.Profile, 0, len(grouped))
	for _, group := range grouped {
		groups = append(groups, group)
	}
	return groups
}

// chooseSurvivor elects the merge survivor: a completed enrichment (non-empty
// public identifier) wins, earliest first-seen breaks ties.
func chooseSurvivor(group []*models.Profile) *models.Profile {
	survivor := group[0]
	for _, p := range group[1:] {
		if betterSurvivor(p, survivor) {
			survivor = p
		}
	}
	return survivor
}

func betterSurvivor(a, b *models.Profile) bool {
	if (a.PublicIdentifier != "") != (b.PublicIdentifier != "") {
		return a.PublicIdentifier != ""
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// mergeGroup merges one duplicate group: losers' legacy urns are preserved on
// the survivor, every engagement row is repointed, then the losers are
// deleted. All inside one transaction so a partial merge can never leave
// rows referencing a deleted profile.
func (s *UnifyService) mergeGroup(ctx context.Context, group []*models.Profile) error {
	survivor := chooseSurvivor(group)

	alternatives := survivor.AlternativeIDs
	loserIDs := make([]uuid.UUID, 0, len(group)-1)
	for _, p := range group {
		if p.ID == survivor.ID {
			continue
		}
		loserIDs = append(loserIDs, p.ID)
		if p.Urn != "" && p.Urn != survivor.Urn && !survivor.HasAlternativeID(p.Urn) {
			alternatives = append(alternatives, p.Urn)
		}
	}

	log.Printf("🔀 Merging %d profiles into %s (%s)", len(group), survivor.ID, survivor.DisplayName)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(alternatives) != len(survivor.AlternativeIDs) {
			err := tx.Model(&models.Profile{}).
				Where("id = ?", survivor.ID).
				Update("alternative_ids", alternatives).Error
			if err != nil {
				return fmt.Errorf("failed to preserve loser identifiers: %w", err)
			}
		}

		err := tx.Model(&models.Reaction{}).
			Where("profile_id IN ?", loserIDs).
			Update("profile_id", survivor.ID).Error
		if err != nil {
			return fmt.Errorf("failed to repoint reactions: %w", err)
		}

		err = tx.Model(&models.Comment{}).
			Where("profile_id IN ?", loserIDs).
			Update("profile_id", survivor.ID).Error
		if err != nil {
			return fmt.Errorf("failed to repoint comments: %w", err)
		}

		if err := tx.Where("id IN ?", loserIDs).Delete(&models.Profile{}).Error; err != nil {
			return fmt.Errorf("failed to delete merged profiles: %w", err)
		}
		return nil
	})
}
