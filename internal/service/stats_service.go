package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"bloglist/internal/cache"
	"bloglist/internal/domain"
	"bloglist/internal/repository"
	"bloglist/internal/stats"
)

const summaryCacheKey = "stats:summary"

// Summary bundles every ranking computed over the current entries.
type Summary struct {
	Entries      int                  `json:"entries"`
	TotalLikes   int                  `json:"total_likes"`
	Favorite     *stats.Favorite      `json:"favorite,omitempty"`
	MostProlific *stats.AuthorEntries `json:"most_blogs,omitempty"`
	MostLiked    *stats.AuthorLikes   `json:"most_likes,omitempty"`
}

// Summarize computes a Summary over entries.
func Summarize(entries []domain.Entry) Summary {
	sum := Summary{
		Entries:    len(entries),
		TotalLikes: stats.TotalLikes(entries),
	}
	if fav, err := stats.FavoriteEntry(entries); err == nil {
		sum.Favorite = &fav
	}
	if top, ok := stats.MostProlificAuthor(entries); ok {
		sum.MostProlific = &top
	}
	if top, ok := stats.MostLikedAuthor(entries); ok {
		sum.MostLiked = &top
	}
	return sum
}

// StatsService serves rankings over all stored entries.
type StatsService interface {
	ChangeNotifier
	Summary(ctx context.Context) (Summary, error)
	TotalLikes(ctx context.Context) (int, error)
	// Favorite returns stats.ErrNoEntries when there are no entries.
	Favorite(ctx context.Context) (stats.Favorite, error)
	MostProlific(ctx context.Context) (stats.AuthorEntries, bool, error)
	MostLiked(ctx context.Context) (stats.AuthorLikes, bool, error)
}

type statsService struct {
	entries repository.EntryRepository
	cache   cache.Cache
	ttl     time.Duration
	logger  *logrus.Logger

	// generation advances on every EntriesChanged call.
	generation atomic.Uint64
}

// NewStatsService caches summaries in c for ttl. A nil cache disables caching.
func NewStatsService(entries repository.EntryRepository, c cache.Cache, ttl time.Duration, logger *logrus.Logger) StatsService {
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &statsService{
		entries: entries,
		cache:   c,
		ttl:     ttl,
		logger:  logger,
	}
}

func (s *statsService) Summary(ctx context.Context) (Summary, error) {
	var sum Summary
	found, err := s.cache.Get(ctx, summaryCacheKey, &sum)
	if err != nil {
		s.logger.Warnf("read stats cache: %v", err)
	}
	if found {
		return sum, nil
	}

	gen := s.generation.Load()
	// insertion order keeps tie-breaking stable across calls
	entries, err := s.entries.List(ctx, repository.SortByCreated)
	if err != nil {
		return Summary{}, err
	}
	sum = Summarize(entries)

	if s.generation.Load() != gen {
		return sum, nil
	}
	if err := s.cache.Set(ctx, summaryCacheKey, sum, s.ttl); err != nil {
		s.logger.Warnf("write stats cache: %v", err)
	}
	// a change that landed between the check and Set may have deleted the key first
	if s.generation.Load() != gen {
		s.invalidate(ctx)
	}
	return sum, nil
}

func (s *statsService) TotalLikes(ctx context.Context) (int, error) {
	sum, err := s.Summary(ctx)
	if err != nil {
		return 0, err
	}
	return sum.TotalLikes, nil
}

func (s *statsService) Favorite(ctx context.Context) (stats.Favorite, error) {
	sum, err := s.Summary(ctx)
	if err != nil {
		return stats.Favorite{}, err
	}
	if sum.Favorite == nil {
		return stats.Favorite{}, stats.ErrNoEntries
	}
	return *sum.Favorite, nil
}

func (s *statsService) MostProlific(ctx context.Context) (stats.AuthorEntries, bool, error) {
	sum, err := s.Summary(ctx)
	if err != nil || sum.MostProlific == nil {
		return stats.AuthorEntries{}, false, err
	}
	return *sum.MostProlific, true, nil
}

func (s *statsService) MostLiked(ctx context.Context) (stats.AuthorLikes, bool, error) {
	sum, err := s.Summary(ctx)
	if err != nil || sum.MostLiked == nil {
		return stats.AuthorLikes{}, false, err
	}
	return *sum.MostLiked, true, nil
}

func (s *statsService) EntriesChanged(ctx context.Context) {
	s.generation.Add(1)
	s.invalidate(ctx)
}

func (s *statsService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, summaryCacheKey); err != nil {
		s.logger.Warnf("invalidate stats cache: %v", err)
	}
}
