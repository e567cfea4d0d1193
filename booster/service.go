// Package booster assembles badge progress, the API badge list and the
// favorites list for a booster creator page.
package booster

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/robertmeta/badge-cli/badge"
	"github.com/robertmeta/badge-cli/config"
	"github.com/robertmeta/badge-cli/favorites"
	"github.com/robertmeta/badge-cli/model"
	"github.com/robertmeta/badge-cli/steamsets"
	"golang.org/x/sync/singleflight"
)

// SortOrderKey is the settings key holding the favorites sort order.
const SortOrderKey = "favoritesSortOrder"

// ConfigNotice is shown when the owner id or API key is missing.
const ConfigNotice = "badge-cli: set BADGE_OWNER_ID and BADGE_API_KEY to load badge information."

const (
	noBadgesMessage        = "No badges found for this app via SteamSets API."
	noFavoritesMessage     = "No favorites added yet."
	favoritesUnavailable   = "Could not load favorites."
	invalidAppIDMessage    = "Error fetching badge list: invalid app ID."
	favoritesWriteFailedFm = "Failed to save favorites: %v"
)

// CacheRepository stores API badge lists with expiry.
type CacheRepository interface {
	GetCache(ctx context.Context, appID int64) ([]model.APIBadge, bool, error)
	PutCache(ctx context.Context, appID int64, badges []model.APIBadge) error
	EvictStale(ctx context.Context) int
}

// FavoritesRepository stores the favorites list.
type FavoritesRepository interface {
	ListFavorites(ctx context.Context) ([]model.Favorite, error)
	ToggleFavorite(ctx context.Context, f model.Favorite) (bool, error)
	UpsertFavorites(ctx context.Context, favs []model.Favorite) (int, error)
}

// SettingsRepository stores scalar preferences.
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
	SetSetting(ctx context.Context, key, value string) error
}

// BadgePages loads the owner's badge progress pages.
type BadgePages interface {
	FetchRecord(ctx context.Context, owner badge.Owner, appID string, isFoil bool) *model.BadgeProgress
}

// BadgeLister lists every badge of an app.
type BadgeLister interface {
	ListBadges(ctx context.Context, appID int64) ([]model.APIBadge, error)
}

// Deps are the collaborators of a Service.
type Deps struct {
	Pages     BadgePages
	Lister    BadgeLister
	Cache     CacheRepository
	Favorites FavoritesRepository
	Settings  SettingsRepository
	Logger    *slog.Logger
}

// Service runs refresh passes and favorites operations.
type Service struct {
	cfg       config.Config
	pages     BadgePages
	lister    BadgeLister
	cache     CacheRepository
	favorites FavoritesRepository
	settings  SettingsRepository
	logger    *slog.Logger
	lookups   singleflight.Group
}

// NewService creates a Service.
func NewService(cfg config.Config, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		cfg:       cfg,
		pages:     deps.Pages,
		lister:    deps.Lister,
		cache:     deps.Cache,
		favorites: deps.Favorites,
		settings:  deps.Settings,
		logger:    logger,
	}
}

// Refresh builds the full report for appID. The regular page, foil page
// and badge list are loaded concurrently and combined once all three have
// finished; a failure in one never cancels the others.
func (s *Service) Refresh(ctx context.Context, appID string) *Report {
	report := &Report{AppID: appID}

	if appID == "" {
		s.logger.Warn("no app id, showing favorites only")
		report.Favorites = s.Favorites(ctx)
		return report
	}

	if err := s.cfg.Validate(); err != nil {
		s.logger.Error("configuration incomplete, skipping badge fetch", "error", err)
		report.Notice = ConfigNotice
		report.Favorites = s.Favorites(ctx)
		return report
	}

	owner := badge.Owner{ID: s.cfg.OwnerID, IsSteamID64: s.cfg.OwnerIsSteamID64}
	s.logger.Info("refreshing badge info", "app_id", appID, "owner", owner.ID, "steamid64", owner.IsSteamID64)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		report.Regular = newBadgeView(s.pages.FetchRecord(ctx, owner, appID, false))
	}()

	go func() {
		defer wg.Done()
		report.Foil = newBadgeView(s.pages.FetchRecord(ctx, owner, appID, true))
	}()

	go func() {
		defer wg.Done()
		report.BadgeList = s.badgeListForPage(ctx, appID)
	}()

	wg.Wait()

	for _, view := range []*BadgeView{report.Regular, report.Foil} {
		if view != nil && view.Placeholder {
			s.logger.Warn("badge page unavailable", "app_id", appID, "name", view.Name, "error", view.Error)
		}
	}

	report.Favorites = s.Favorites(ctx)
	return report
}

// RefreshFavorites builds a report holding only the favorites list.
func (s *Service) RefreshFavorites(ctx context.Context) *Report {
	return &Report{Favorites: s.Favorites(ctx)}
}

func (s *Service) badgeListForPage(ctx context.Context, appID string) *BadgeList {
	id, err := strconv.ParseInt(appID, 10, 64)
	if err != nil {
		return &BadgeList{Message: invalidAppIDMessage}
	}
	return s.BadgeList(ctx, id, false)
}

// BadgeList returns the API badge list for appID, consulting the cache
// first unless refresh is set. Errors become the list's message.
// Concurrent lookups for the same key share one call, which is not tied
// to any single caller's cancellation.
func (s *Service) BadgeList(ctx context.Context, appID int64, refresh bool) *BadgeList {
	key := fmt.Sprintf("%d:%t", appID, refresh)
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.lookups.Do(key, func() (any, error) {
		return s.lookupBadges(shared, appID, refresh)
	})
	if err != nil {
		s.logger.Error("failed to fetch badge list", "app_id", appID, "error", err)
		return &BadgeList{Badges: []BadgeItem{}, Message: steamsets.UserMessage(err)}
	}

	result := v.(lookupResult)
	list := &BadgeList{
		Badges: make([]BadgeItem, 0, len(result.badges)),
		Cached: result.cached,
	}
	for _, b := range result.badges {
		b.Name = b.DisplayName()
		list.Badges = append(list.Badges, BadgeItem{
			APIBadge:     b,
			ImageURL:     b.ImageURL(s.cfg.ImageBaseURL),
			ScarcityText: b.ScarcityText(),
			FavoriteID:   model.FavoriteID(strconv.FormatInt(b.AppID, 10), b.IsFoil),
		})
	}
	if len(list.Badges) == 0 {
		list.Message = noBadgesMessage
	}
	return list
}

type lookupResult struct {
	badges []model.APIBadge
	cached bool
}

func (s *Service) lookupBadges(ctx context.Context, appID int64, refresh bool) (lookupResult, error) {
	if !refresh {
		badges, ok, err := s.cache.GetCache(ctx, appID)
		if err != nil {
			s.logger.Warn("failed to read badge cache", "app_id", appID, "error", err)
		} else if ok {
			s.logger.Debug("badge list served from cache", "app_id", appID, "count", len(badges))
			return lookupResult{badges: badges, cached: true}, nil
		}
	}

	badges, err := s.lister.ListBadges(ctx, appID)
	if err != nil {
		return lookupResult{}, err
	}

	if err := s.cache.PutCache(ctx, appID, badges); err != nil {
		s.logger.Error("failed to cache badge list", "app_id", appID, "error", err)
	}
	return lookupResult{badges: badges}, nil
}

// EvictStale removes expired cache entries.
func (s *Service) EvictStale(ctx context.Context) int {
	return s.cache.EvictStale(ctx)
}

// SortOrder returns the persisted favorites order, or the configured
// default when none is stored or it cannot be read.
func (s *Service) SortOrder(ctx context.Context) model.SortOrder {
	value, ok, err := s.settings.GetSetting(ctx, SortOrderKey)
	if err != nil {
		s.logger.Warn("failed to read sort order", "error", err)
		return s.cfg.SortOrder()
	}
	if !ok {
		return s.cfg.SortOrder()
	}
	order, err := model.ParseSortOrder(value)
	if err != nil {
		return model.SortAppIDAsc
	}
	return order
}

// SetSortOrder persists order and returns the favorites sorted by it.
func (s *Service) SetSortOrder(ctx context.Context, order model.SortOrder) *FavoritesView {
	var writeErr error
	if err := s.settings.SetSetting(ctx, SortOrderKey, string(order)); err != nil {
		s.logger.Error("failed to save sort order", "order", order, "error", err)
		writeErr = err
	}

	view := s.favoritesView(ctx, order)
	if writeErr != nil {
		view.Error = fmt.Sprintf(favoritesWriteFailedFm, writeErr)
	}
	return view
}

// Favorites returns the favorites sorted by the current order. A read
// failure yields an empty list with a message.
func (s *Service) Favorites(ctx context.Context) *FavoritesView {
	return s.favoritesView(ctx, s.SortOrder(ctx))
}

// FavoritesSorted returns the favorites in an explicit order.
func (s *Service) FavoritesSorted(ctx context.Context, order model.SortOrder) *FavoritesView {
	return s.favoritesView(ctx, order)
}

func (s *Service) favoritesView(ctx context.Context, order model.SortOrder) *FavoritesView {
	view := &FavoritesView{Order: order, Items: []model.Favorite{}}

	favs, err := s.favorites.ListFavorites(ctx)
	if err != nil {
		s.logger.Error("failed to list favorites", "error", err)
		view.Message = favoritesUnavailable
		return view
	}

	if len(favs) == 0 {
		view.Message = noFavoritesMessage
		return view
	}

	view.Items = favorites.Sort(favs, order)
	s.logger.Debug("favorites listed", "count", len(view.Items), "order", order)
	return view
}

// ToggleFavorite adds f or removes it if already present, and returns the
// refreshed favorites once the change is committed.
func (s *Service) ToggleFavorite(ctx context.Context, f model.Favorite) (bool, *FavoritesView) {
	added, err := s.favorites.ToggleFavorite(ctx, f)
	if err != nil {
		s.logger.Error("failed to toggle favorite", "app_id", f.AppID, "foil", f.IsFoil, "error", err)
		view := s.Favorites(ctx)
		view.Error = fmt.Sprintf(favoritesWriteFailedFm, err)
		return false, view
	}

	if added {
		s.logger.Info("added favorite", "app_id", f.AppID, "foil", f.IsFoil)
	} else {
		s.logger.Info("removed favorite", "app_id", f.AppID, "foil", f.IsFoil)
	}
	return added, s.Favorites(ctx)
}

// ImportFavorites upserts every valid favorite from r in one batch.
// Invalid entries are counted as errors; if the batch cannot be committed
// every candidate is counted as an error. Only unreadable input is
// returned as an error.
func (s *Service) ImportFavorites(ctx context.Context, r io.Reader) (ImportResult, *FavoritesView, error) {
	favs, invalid, err := favorites.Parse(r)
	if err != nil {
		return ImportResult{}, nil, err
	}

	result := ImportResult{Errors: invalid}
	var writeErr error
	if len(favs) > 0 {
		n, err := s.favorites.UpsertFavorites(ctx, favs)
		if err != nil {
			s.logger.Error("failed to import favorites", "count", len(favs), "error", err)
			result.Errors += len(favs)
			writeErr = err
		} else {
			result.Processed = n
		}
	}

	s.logger.Info("imported favorites", "processed", result.Processed, "errors", result.Errors)

	view := s.Favorites(ctx)
	if writeErr != nil {
		view.Error = fmt.Sprintf(favoritesWriteFailedFm, writeErr)
	}
	return result, view, nil
}

// ExportFavorites writes every favorite to w.
func (s *Service) ExportFavorites(ctx context.Context, w io.Writer) (int, error) {
	favs, err := s.favorites.ListFavorites(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list favorites: %w", err)
	}
	if err := favorites.Generate(w, favs); err != nil {
		return 0, err
	}
	return len(favs), nil
}
