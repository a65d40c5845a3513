package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/kiksniks/internal/core/catalog"
	"github.com/niksmo/kiksniks/internal/core/domain"
	"github.com/niksmo/kiksniks/internal/core/port"
	"github.com/niksmo/kiksniks/internal/core/validate"
	"golang.org/x/sync/singleflight"
)

// Session storage keys.
const (
	KeyCart    = "kiksniks_cart"
	KeyFilters = "kiksniks_filters"
)

const defaultSubmitTimeout = 15 * time.Second

var (
	ErrNotLoaded    = errors.New("products are not loaded yet")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrSizeRequired = errors.New("please select a size")
	ErrNoSelection  = errors.New("please select products first")
)

// A Snapshot is an immutable product set with the data derived from it.
// NoticeID identifies the outage Notice belongs to: it is kept while
// substitute data replaces substitute data.
type Snapshot struct {
	Products   []domain.Product
	Groups     catalog.Groups
	Menu       []catalog.MenuSection
	Stats      catalog.Stats
	Generation uint64
	Notice     *domain.Toast
	NoticeID   uint64
	LoadedAt   time.Time

	byID map[string]domain.Product
}

func newSnapshot(gen uint64, feed domain.ProductFeed, now time.Time) *Snapshot {
	byID := make(map[string]domain.Product, len(feed.Products))
	for _, p := range feed.Products {
		byID[p.ID] = p
	}
	return &Snapshot{
		Products:   feed.Products,
		Groups:     catalog.GroupProducts(feed.Products),
		Menu:       catalog.BuildMenu(feed.Products),
		Stats:      catalog.BuildStats(feed.Products),
		Generation: gen,
		Notice:     feed.Notice,
		LoadedAt:   now,
		byID:       byID,
	}
}

func (s *Snapshot) Product(id string) (domain.Product, bool) {
	p, ok := s.byID[id]
	return p, ok
}

type Option func(*Storefront)

func WithPageSize(n int) Option {
	return func(s *Storefront) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

func WithSubmitTimeout(d time.Duration) Option {
	return func(s *Storefront) {
		if d > 0 {
			s.submitTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Storefront) {
		s.now = now
	}
}

// Storefront owns the product snapshot and the per-session cart and
// filter state.
type Storefront struct {
	source    port.ProductSource
	submitter port.Submitter
	sessions  port.SessionStorage
	events    port.EventProducer
	mailer    port.Mailer
	validator *validate.Validator

	pageSize      int
	submitTimeout time.Duration
	now           func() time.Time

	refreshGroup singleflight.Group
	mu           sync.RWMutex
	snap         *Snapshot
	started      uint64
	locks        sessionLocks
}

func New(
	source port.ProductSource,
	submitter port.Submitter,
	sessions port.SessionStorage,
	events port.EventProducer,
	mailer port.Mailer,
	opts ...Option,
) *Storefront {
	if source == nil || submitter == nil || sessions == nil {
		panic("service.New: nil dependency") // develop mistake
	}
	s := &Storefront{
		source:        source,
		submitter:     submitter,
		sessions:      sessions,
		events:        events,
		mailer:        mailer,
		validator:     validate.New(),
		pageSize:      catalog.DefaultPageSize,
		submitTimeout: defaultSubmitTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Storefront) PageSize() int {
	return s.pageSize
}

// Snapshot returns the current product snapshot.
func (s *Storefront) Snapshot() (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, ErrNotLoaded
	}
	return s.snap, nil
}

// Refresh fetches the products and publishes a new snapshot. Concurrent
// calls share one fetch.
func (s *Storefront) Refresh(ctx context.Context) error {
	const op = "Storefront.Refresh"

	_, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		gen := s.nextGeneration()
		feed, err := s.source.FetchProducts(ctx)
		if err != nil {
			return nil, err
		}
		s.publish(gen, feed)
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Storefront) nextGeneration() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
	return s.started
}

// publish installs feed unless a newer snapshot is already in place.
// Substitute data never replaces a snapshot of real data.
func (s *Storefront) publish(gen uint64, feed domain.ProductFeed) {
	const op = "Storefront.publish"
	log := slog.With("op", op, "generation", gen)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snap != nil {
		if s.snap.Generation > gen {
			log.Warn("discard stale products", "current", s.snap.Generation)
			return
		}
		if feed.IsFallback() && s.snap.Notice == nil {
			log.Warn("source unavailable, keep current products")
			return
		}
	}
	next := newSnapshot(gen, feed, s.now())
	if next.Notice != nil {
		next.NoticeID = gen
		if s.snap != nil && s.snap.Notice != nil {
			next.NoticeID = s.snap.NoticeID
		}
	}
	s.snap = next
	log.Info("products published",
		"products", len(feed.Products),
		"groups", s.snap.Groups.Len(),
		"fallback", feed.IsFallback(),
	)
}

// loadJSON reads key of the session into dst. A missing key leaves dst
// untouched and reports false.
func (s *Storefront) loadJSON(
	ctx context.Context, sessionID, key string, dst any,
) (bool, error) {
	data, err := s.sessions.Get(ctx, sessionID, key)
	if errors.Is(err, port.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Storefront) saveJSON(
	ctx context.Context, sessionID, key string, v any,
) error {
	data, err := marshal(v)
	if err != nil {
		return err
	}
	return s.sessions.Put(ctx, sessionID, key, data)
}

func newID() string {
	return uuid.NewString()
}
