package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Nappiz/tcmudah-storefront/logger"
	"github.com/Nappiz/tcmudah-storefront/models"
	awspkg "github.com/Nappiz/tcmudah-storefront/pkg/aws"
)

// CatalogSource fetches the reference data the storefront prices against.
type CatalogSource interface {
	ListClasses(ctx context.Context) ([]models.ClassItem, error)
	ListMentors(ctx context.Context) ([]models.Mentor, error)
	ListCurriculums(ctx context.Context) ([]models.Curriculum, error)
}

type catalogSnapshot struct {
	classes     []models.ClassItem
	byID        map[string]models.ClassItem
	mentors     []models.Mentor
	curriculums []models.Curriculum
	loadedAt    time.Time
}

type fetchResult[T any] struct {
	data []T
	err  error
}

// CatalogCache holds an immutable snapshot of the catalog. A reload swaps the
// whole snapshot; a failed reload leaves the previous one in place.
type CatalogCache struct {
	source  CatalogSource
	metrics MetricsRecorder
	group   singleflight.Group
	snap    atomic.Pointer[catalogSnapshot]
}

func NewCatalogCache(source CatalogSource, metrics MetricsRecorder) *CatalogCache {
	return &CatalogCache{source: source, metrics: metrics}
}

// Load fetches the catalog once. Later calls return immediately.
func (c *CatalogCache) Load(ctx context.Context) error {
	if c.snap.Load() != nil {
		return nil
	}
	return c.Refresh(ctx)
}

// Refresh reloads classes, mentors and curriculums concurrently. Any failed
// fetch fails the whole reload. Concurrent refreshes share one upstream round.
func (c *CatalogCache) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("catalog", func() (any, error) {
		snap, err := c.fetch(context.WithoutCancel(ctx))
		if err != nil {
			recordCount(ctx, c.metrics, awspkg.MetricCatalogFailures, nil)
			logger.Error(ctx, "catalog load failed", err)
			return nil, err
		}
		c.snap.Store(snap)
		recordCount(ctx, c.metrics, awspkg.MetricCatalogLoads, nil)
		logger.Info(ctx, "catalog loaded",
			zap.Int("classes", len(snap.classes)),
			zap.Int("mentors", len(snap.mentors)),
			zap.Int("curriculums", len(snap.curriculums)),
		)
		return nil, nil
	})
	return err
}

func (c *CatalogCache) fetch(ctx context.Context) (*catalogSnapshot, error) {
	classCh := make(chan fetchResult[models.ClassItem], 1)
	mentorCh := make(chan fetchResult[models.Mentor], 1)
	curriculumCh := make(chan fetchResult[models.Curriculum], 1)

	go func() {
		data, err := c.source.ListClasses(ctx)
		classCh <- fetchResult[models.ClassItem]{data, err}
	}()
	go func() {
		data, err := c.source.ListMentors(ctx)
		mentorCh <- fetchResult[models.Mentor]{data, err}
	}()
	go func() {
		data, err := c.source.ListCurriculums(ctx)
		curriculumCh <- fetchResult[models.Curriculum]{data, err}
	}()

	classes, mentors, curriculums := <-classCh, <-mentorCh, <-curriculumCh
	switch {
	case classes.err != nil:
		return nil, fmt.Errorf("load classes: %w", classes.err)
	case mentors.err != nil:
		return nil, fmt.Errorf("load mentors: %w", mentors.err)
	case curriculums.err != nil:
		return nil, fmt.Errorf("load curriculums: %w", curriculums.err)
	}

	snap := &catalogSnapshot{
		classes:     classes.data,
		byID:        make(map[string]models.ClassItem, len(classes.data)),
		mentors:     mentors.data,
		curriculums: curriculums.data,
		loadedAt:    time.Now(),
	}
	for _, item := range classes.data {
		snap.byID[item.ID] = item
	}
	return snap, nil
}

func (c *CatalogCache) Loaded() bool {
	return c.snap.Load() != nil
}

func (c *CatalogCache) LoadedAt() time.Time {
	if s := c.snap.Load(); s != nil {
		return s.loadedAt
	}
	return time.Time{}
}

// Lookup resolves any class in the catalog, hidden ones included.
func (c *CatalogCache) Lookup(id string) (models.ClassItem, bool) {
	s := c.snap.Load()
	if s == nil {
		return models.ClassItem{}, false
	}
	item, ok := s.byID[id]
	return item, ok
}

func (c *CatalogCache) Price(id string) (int64, bool) {
	item, ok := c.Lookup(id)
	return item.Price, ok
}

// Visible lists the classes flagged for display, in catalog order.
func (c *CatalogCache) Visible() []models.ClassItem {
	s := c.snap.Load()
	if s == nil {
		return nil
	}
	out := make([]models.ClassItem, 0, len(s.classes))
	for _, item := range s.classes {
		if item.Visible {
			out = append(out, item)
		}
	}
	return out
}

func (c *CatalogCache) Mentors() []models.Mentor {
	if s := c.snap.Load(); s != nil {
		return append([]models.Mentor(nil), s.mentors...)
	}
	return nil
}

func (c *CatalogCache) Curriculums() []models.Curriculum {
	if s := c.snap.Load(); s != nil {
		return append([]models.Curriculum(nil), s.curriculums...)
	}
	return nil
}
