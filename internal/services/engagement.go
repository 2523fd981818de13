package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"postpulse/internal/identity"
	"postpulse/internal/linkedin"
	"postpulse/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// storeOpTimeout bounds the delete/insert pair of a snapshot replace. A
// delete timeout before the insert ran means a naive retry could duplicate
// rows, so the two phases surface distinct error kinds.
const storeOpTimeout = 30 * time.Second

// EngagementService imports one post's scraped reactions or comments,
// resolving every engaging actor to a profile first and then replacing the
// stored engagement snapshot for that (post, scope user).
type EngagementService struct {
	db       *gorm.DB
	profiles *ProfilesService
}

// NewEngagementService creates a new EngagementService
func NewEngagementService(db *gorm.DB, profiles *ProfilesService) *EngagementService {
	return &EngagementService{
		db:       db,
		profiles: profiles,
	}
}

// ImportResult reports one import run.
type ImportResult struct {
	Written        int
	UniqueProfiles int
	Dropped        int
	CreatedIDs     []uuid.UUID
	TouchedIDs     []uuid.UUID
	Failures       []string
}

// actorResolution maps raw actors back to resolved profile ids. The primary
// path is keyed by the actor's original reference key; positional
// correspondence between upsert calls and the raw list is never relied on.
type actorResolution struct {
	byRefKey map[string]uuid.UUID
	byIdent  map[string]uuid.UUID
}

// resolve returns the profile id for an actor, falling back from the
// reference key to extracted identifiers to a URL-substring scan.
func (r *actorResolution) resolve(actor *linkedin.Actor) (uuid.UUID, bool) {
	if id, ok := r.byRefKey[actor.RefKey()]; ok {
		return id, true
	}

	memberID, handle := identity.Extract(actor.ProfileURL, actor.Urn)
	for _, key := range []string{memberID, handle, actor.Urn} {
		if key == "" {
			continue
		}
		if id, ok := r.byIdent[key]; ok {
			return id, true
		}
	}

	// Last resort: a stored reference key containing the derived handle.
	if handle != "" {
		for refKey, id := range r.byRefKey {
			if strings.Contains(refKey, handle) {
				return id, true
			}
		}
	}

	return uuid.Nil, false
}

// ImportReactions imports one post's scraped reactions under the given scrape
// scope, replacing any previous reaction snapshot for that post and scope.
func (s *EngagementService) ImportReactions(ctx context.Context, postID uuid.UUID, scopeUser string, raws []linkedin.RawReaction) (ImportResult, error) {
	var result ImportResult

	valid := make([]linkedin.RawReaction, 0, len(raws))
	actors := make([]*linkedin.Actor, 0, len(raws))
	for _, raw := range raws {
		if !raw.Actor.IsUsable() {
			result.Dropped++
			continue
		}
		valid = append(valid, raw)
		actors = append(actors, raw.Actor)
	}

	resolution := s.resolveActors(ctx, actors, &result)

	scrapedAt := time.Now()
	rows := make([]models.Reaction, 0, len(valid))
	for _, raw := range valid {
		profileID, ok := resolution.resolve(raw.Actor)
		if !ok {
			result.Dropped++
			result.Failures = append(result.Failures, fmt.Sprintf("reaction by %q: no profile mapping", raw.Actor.Name))
			continue
		}
		rows = append(rows, models.Reaction{
			PostID:       postID,
			ProfileID:    profileID,
			ScopeUser:    scopeUser,
			ReactionType: raw.ReactionType,
			ScrapedAt:    scrapedAt,
		})
	}

	if err := replaceSnapshot(ctx, s.db, &models.Reaction{}, postID, scopeUser, rows, &result); err != nil {
		return result, err
	}
	result.Written = len(rows)

	if err := s.touchPost(ctx, postID, scrapedAt); err != nil {
		return result, err
	}
	log.Printf("✅ Imported %d reactions for post %s (%d profiles, %d dropped)",
		result.Written, postID, result.UniqueProfiles, result.Dropped)
	return result, nil
}

// ImportComments imports one post's scraped comments under the given scrape
// scope, replacing any previous comment snapshot for that post and scope.
// Comments without a stable comment urn are dropped at the boundary.
func (s *EngagementService) ImportComments(ctx context.Context, postID uuid.UUID, scopeUser string, raws []linkedin.RawComment) (ImportResult, error) {
	var result ImportResult

	valid := make([]linkedin.RawComment, 0, len(raws))
	actors := make([]*linkedin.Actor, 0, len(raws))
	for _, raw := range raws {
		if !raw.Actor.IsUsable() || raw.CommentURN == "" {
			result.Dropped++
			continue
		}
		valid = append(valid, raw)
		actors = append(actors, raw.Actor)
	}

	resolution := s.resolveActors(ctx, actors, &result)

	scrapedAt := time.Now()
	rows := make([]models.Comment, 0, len(valid))
	for _, raw := range valid {
		profileID, ok := resolution.resolve(raw.Actor)
		if !ok {
			result.Dropped++
			result.Failures = append(result.Failures, fmt.Sprintf("comment %s: no profile mapping", raw.CommentURN))
			continue
		}
		rows = append(rows, models.Comment{
			PostID:       postID,
			ProfileID:    profileID,
			ScopeUser:    scopeUser,
			CommentURN:   raw.CommentURN,
			Text:         raw.Text,
			IsEdited:     raw.IsEdited,
			IsPinned:     raw.IsPinned,
			RepliesCount: raw.RepliesCount,
			PostedAt:     raw.PostedAt,
			ScrapedAt:    scrapedAt,
		})
	}

	if err := replaceSnapshot(ctx, s.db, &models.Comment{}, postID, scopeUser, rows, &result); err != nil {
		return result, err
	}
	result.Written = len(rows)

	if err := s.touchPost(ctx, postID, scrapedAt); err != nil {
		return result, err
	}
	log.Printf("✅ Imported %d comments for post %s (%d profiles, %d dropped)",
		result.Written, postID, result.UniqueProfiles, result.Dropped)
	return result, nil
}

// resolveActors deduplicates actors and upserts each unique one, building the
// keyed actor-to-profile resolution. One actor's failure is recorded and
// skipped; it never aborts the batch.
func (s *EngagementService) resolveActors(ctx context.Context, actors []*linkedin.Actor, result *ImportResult) *actorResolution {
	resolution := &actorResolution{
		byRefKey: make(map[string]uuid.UUID),
		byIdent:  make(map[string]uuid.UUID),
	}

	seen := make(map[string]bool)
	for _, actor := range actors {
		memberID, handle := identity.Extract(actor.ProfileURL, actor.Urn)

		dedupKey := memberID
		if dedupKey == "" {
			dedupKey = handle
		}
		if dedupKey == "" {
			dedupKey = actor.Urn
		}
		if dedupKey == "" {
			// No identifier at all (e.g. an organization-page URL). Dedup by
			// the raw reference so distinct keyless actors never collapse.
			dedupKey = actor.RefKey()
		}
		if seen[dedupKey] {
			continue
		}
		seen[dedupKey] = true

		upserted, err := s.profiles.Upsert(ctx, *actor)
		if err != nil {
			log.Printf("❌ Failed to upsert profile for %q: %v", actor.Name, err)
			result.Failures = append(result.Failures, fmt.Sprintf("actor %q: %v", actor.Name, err))
			continue
		}

		result.UniqueProfiles++
		result.TouchedIDs = append(result.TouchedIDs, upserted.ProfileID)
		if upserted.Created {
			result.CreatedIDs = append(result.CreatedIDs, upserted.ProfileID)
		}

		resolution.byRefKey[actor.RefKey()] = upserted.ProfileID
		for _, key := range []string{memberID, handle, actor.Urn} {
			if key != "" {
				resolution.byIdent[key] = upserted.ProfileID
			}
		}
	}

	return resolution
}

// replaceSnapshot deletes the stored rows for (post, scope) and inserts the
// new set. A failed delete does not block the insert but is surfaced in the
// result's failure list; a failed insert leaves the snapshot indeterminate
// and must be retried by the caller (re-delete before re-insert).
func replaceSnapshot[T any](ctx context.Context, db *gorm.DB, model *T, postID uuid.UUID, scopeUser string, rows []T, result *ImportResult) error {
	deleteCtx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	deleteErr := db.WithContext(deleteCtx).
		Where("post_id = ? AND scope_user = ?", postID, scopeUser).
		Delete(model).Error
	cancel()
	if deleteErr != nil {
		if errors.Is(deleteErr, context.DeadlineExceeded) {
			deleteErr = &UpstreamTimeout{Op: "snapshot delete", Err: deleteErr}
		}
		log.Printf("⚠️ Snapshot delete failed for post %s: %v, proceeding to insert", postID, deleteErr)
		result.Failures = append(result.Failures, fmt.Sprintf("post %s: %v", postID, deleteErr))
	}

	if len(rows) == 0 {
		return nil
	}

	insertCtx, cancel := context.WithTimeout(ctx, storeOpTimeout)
	defer cancel()
	if err := db.WithContext(insertCtx).Create(&rows).Error; err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &UpstreamTimeout{Op: "snapshot insert", Err: err}
		}
		return fmt.Errorf("failed to insert engagement snapshot for post %s: %w", postID, err)
	}
	return nil
}

// touchPost stamps the post's last scrape time and clears its rescrape flag.
// Zero interactions is still a successful scrape.
func (s *EngagementService) touchPost(ctx context.Context, postID uuid.UUID, scrapedAt time.Time) error {
	res := s.db.WithContext(ctx).Model(&models.TrackedPost{}).
		Where("id = ?", postID).
		Updates(map[string]interface{}{
			"last_scraped_at": scrapedAt,
			"needs_rescrape":  false,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update post %s: %w", postID, res.Error)
	}
	if res.RowsAffected == 0 {
		return &NotFoundError{Resource: "post", ID: postID.String()}
	}
	return nil
}
