package identity

import (
	"context"
	"errors"
	"strings"

	"postpulse/internal/models"

	"gorm.io/gorm"
)

// Query carries everything the matcher may use to locate an existing profile
// for an incoming actor reference.
type Query struct {
	MemberID     string
	PublicHandle string
	RawURN       string
	DisplayName  string
	Headline     string
}

// Matcher locates at most one existing profile for an actor using an ordered
// strategy cascade. Stable ids outrank vanity handles outrank the legacy urn
// field outrank URL substring matches outrank name/headline coincidence; each
// strategy is a separate read and the cascade stops at the first hit.
type Matcher struct {
	db *gorm.DB
}

// NewMatcher creates a new Matcher
func NewMatcher(db *gorm.DB) *Matcher {
	return &Matcher{db: db}
}

// Find runs the match cascade. It returns (nil, nil) when no profile matches;
// a missing profile is a normal outcome, not an error.
func (m *Matcher) Find(ctx context.Context, q Query) (*models.Profile, error) {
	strategies := []func(context.Context, Query) (*models.Profile, error){
		m.byMemberID,
		m.byPublicHandle,
		m.byUrn,
		m.byURLSubstring,
		m.byNameAndHeadline,
	}

	for _, strategy := range strategies {
		profile, err := strategy(ctx, q)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			return profile, nil
		}
	}

	return nil, nil
}

// byMemberID matches on the stable internal member id.
func (m *Matcher) byMemberID(ctx context.Context, q Query) (*models.Profile, error) {
	if q.MemberID == "" {
		return nil, nil
	}
	return m.first(ctx, "member_id = ?", q.MemberID)
}

// byPublicHandle matches on the vanity handle.
func (m *Matcher) byPublicHandle(ctx context.Context, q Query) (*models.Profile, error) {
	if q.PublicHandle == "" {
		return nil, nil
	}
	return m.first(ctx, "public_handle = ?", q.PublicHandle)
}

// byUrn matches the legacy single-identifier field against the raw urn or
// either derived identifier. Backward-compat path for rows created before the
// dual-slot scheme.
func (m *Matcher) byUrn(ctx context.Context, q Query) (*models.Profile, error) {
	values := make([]string, 0, 3)
	for _, v := range []string{q.RawURN, q.MemberID, q.PublicHandle} {
		if v != "" {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nil, nil
	}
	return m.first(ctx, "urn IN ?", values)
}

// byURLSubstring matches a stored profile URL containing the derived handle.
func (m *Matcher) byURLSubstring(ctx context.Context, q Query) (*models.Profile, error) {
	if q.PublicHandle == "" {
		return nil, nil
	}
	return m.first(ctx, "profile_url LIKE ?", LikePattern(q.PublicHandle))
}

// LikePattern wraps a value in a substring LIKE pattern, escaping the LIKE
// metacharacters so identifier text only ever matches literally. Raw urns can
// land in the handle slot, so the value is not guaranteed to be clean.
func LikePattern(value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(value)
	return "%" + escaped + "%"
}

// byNameAndHeadline is the last-resort heuristic for actors whose identifiers
// changed entirely between scrapes.
func (m *Matcher) byNameAndHeadline(ctx context.Context, q Query) (*models.Profile, error) {
	name := strings.TrimSpace(q.DisplayName)
	headline := strings.TrimSpace(q.Headline)
	if name == "" || headline == "" {
		return nil, nil
	}
	return m.first(ctx, "TRIM(display_name) = ? AND TRIM(headline) = ?", name, headline)
}

func (m *Matcher) first(ctx context.Context, query string, args ...interface{}) (*models.Profile, error) {
	var profile models.Profile
	err := m.db.WithContext(ctx).Where(query, args...).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}
