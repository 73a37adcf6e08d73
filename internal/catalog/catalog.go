package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"learnhub/gateway/internal/models"
	"learnhub/gateway/internal/upstream"
)

// publicKey holds the bulk listing served to signed-out browsers; signed-in
// views carry per-user like/purchase flags and are keyed by subject.
const publicKey = "catalog:public"

// Catalog mirrors the platform's course listing so browsing does not hit
// the upstream API on every page load. Entries are patched optimistically
// after like and purchase actions and replaced wholesale on refresh.
type Catalog struct {
	cache Cache
	api   *upstream.Client
	log   zerolog.Logger
}

func New(cache Cache, api *upstream.Client, log zerolog.Logger) *Catalog {
	return &Catalog{
		cache: cache,
		api:   api,
		log:   log,
	}
}

func key(subject string) string {
	if subject == "" {
		return publicKey
	}
	return "catalog:" + subject
}

// Courses returns the cached listing for the subject, falling through to a
// live bulk fetch on a miss.
func (c *Catalog) Courses(ctx context.Context, accessToken, subject string) ([]models.Course, error) {
	payload, ok, err := c.cache.Get(ctx, key(subject))
	if err != nil {
		c.log.Warn().Err(err).Msg("catalog cache read failed")
	} else if ok {
		var courses []models.Course
		if err := json.Unmarshal(payload, &courses); err == nil {
			return courses, nil
		}
		c.log.Warn().Str("key", key(subject)).Msg("corrupt catalog entry, refetching")
	}

	courses, err := c.api.ListCourses(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	c.store(ctx, subject, courses)
	return courses, nil
}

// Refresh replaces the public bulk listing. Run from the scheduler.
func (c *Catalog) Refresh(ctx context.Context) error {
	courses, err := c.api.ListCourses(ctx, "")
	if err != nil {
		return fmt.Errorf("refresh catalog: %w", err)
	}
	c.store(ctx, "", courses)
	return nil
}

// ApplyLike patches the subject's cached entry with the platform's
// authoritative like state. A cache miss is not an error; the next listing
// fetch picks the state up anyway.
func (c *Catalog) ApplyLike(ctx context.Context, subject, courseID string, result upstream.LikeResult) {
	c.patch(ctx, subject, courseID, func(course *models.Course) {
		course.Liked = result.Liked
		course.LikeCount = result.LikeCount
	})
}

// ApplyPurchase marks the subject's cached entry as owned.
func (c *Catalog) ApplyPurchase(ctx context.Context, subject string, purchased models.Course) {
	c.patch(ctx, subject, purchased.ID, func(course *models.Course) {
		*course = purchased
	})
}

// Invalidate drops the subject's cached view.
func (c *Catalog) Invalidate(ctx context.Context, subject string) {
	if err := c.cache.Delete(ctx, key(subject)); err != nil {
		c.log.Warn().Err(err).Msg("catalog invalidate failed")
	}
}

// InvalidateAll drops every cached view, public and per-subject. Run after
// a change that alters the listing itself rather than one user's flags.
func (c *Catalog) InvalidateAll(ctx context.Context) {
	if err := c.cache.DeletePrefix(ctx, "catalog:"); err != nil {
		c.log.Warn().Err(err).Msg("catalog invalidate failed")
	}
}

func (c *Catalog) store(ctx context.Context, subject string, courses []models.Course) {
	payload, err := json.Marshal(courses)
	if err != nil {
		c.log.Error().Err(err).Msg("marshal catalog failed")
		return
	}
	if err := c.cache.Set(ctx, key(subject), payload); err != nil {
		c.log.Warn().Err(err).Msg("catalog cache write failed")
	}
}

func (c *Catalog) patch(ctx context.Context, subject, courseID string, apply func(*models.Course)) {
	payload, ok, err := c.cache.Get(ctx, key(subject))
	if err != nil || !ok {
		return
	}
	var courses []models.Course
	if err := json.Unmarshal(payload, &courses); err != nil {
		return
	}
	for i := range courses {
		if courses[i].ID == courseID {
			apply(&courses[i])
			c.store(ctx, subject, courses)
			return
		}
	}
}
