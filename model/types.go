// Package model defines the core data structures for badge-cli.
package model

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// BadgeProgress is the badge state scraped from one badge-detail page.
type BadgeProgress struct {
	ImageURL     string        `json:"imageUrl,omitempty"`
	Name         string        `json:"name,omitempty"`
	Level        *int          `json:"level,omitempty"`
	BadgeURL     string        `json:"badgeUrl,omitempty"`
	CardProgress *CardProgress `json:"cardProgress,omitempty"`
	UnlockedInfo string        `json:"unlockedInfo,omitempty"`
	Cards        []Card        `json:"cards,omitempty"`
	Error        string        `json:"error,omitempty"`
}

// IsPlaceholder reports whether the record stands in for a failed fetch.
func (b *BadgeProgress) IsPlaceholder() bool {
	return b.Error != ""
}

// Card is a single card slot of a badge set.
type Card struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// CardProgress summarizes how much of a card set is owned.
type CardProgress struct {
	Owned        int `json:"owned"`
	Total        int `json:"total"`
	CompleteSets int `json:"completeSets"`
}

// NewCardProgress computes progress from per-slot quantities.
// CompleteSets is the smallest quantity, or 0 when there are no slots.
func NewCardProgress(quantities []int) CardProgress {
	p := CardProgress{Total: len(quantities)}
	for i, q := range quantities {
		if q > 0 {
			p.Owned++
		}
		if i == 0 || q < p.CompleteSets {
			p.CompleteSets = q
		}
	}
	return p
}

// Text returns the "owned/total Cards" label, empty when nothing or
// everything is owned.
func (p CardProgress) Text() string {
	if p.Total == 0 {
		return "No cards in this set"
	}
	if p.Owned == 0 || p.Owned == p.Total {
		return ""
	}
	return fmt.Sprintf("%d/%d Cards", p.Owned, p.Total)
}

// SetsText returns the complete-sets label, empty when there are none.
func (p CardProgress) SetsText() string {
	switch {
	case p.Total == 0 || p.CompleteSets <= 0:
		return ""
	case p.CompleteSets == 1:
		return "1 Complete Set"
	default:
		return fmt.Sprintf("%d Complete Sets", p.CompleteSets)
	}
}

// APIBadge is one badge summary from the SteamSets API after normalization.
type APIBadge struct {
	AppID        int64    `json:"appId"`
	Name         string   `json:"name"`
	IsFoil       bool     `json:"isFoil"`
	Scarcity     *float64 `json:"scarcity,omitempty"`
	Rarity       *float64 `json:"rarity,omitempty"`
	HighestLevel *int     `json:"highestLevel,omitempty"`
	BadgeImage   string   `json:"badgeImage,omitempty"`
}

// ImageURL builds the badge icon URL under base. It returns "" when the
// app id or image name is missing, in which case a placeholder is shown.
func (b *APIBadge) ImageURL(base string) string {
	if b.AppID == 0 || b.BadgeImage == "" {
		return ""
	}
	return fmt.Sprintf("%s/%d/%s", base, b.AppID, b.BadgeImage)
}

// ScarcityText returns the label shown under a badge list item.
func (b *APIBadge) ScarcityText() string {
	if b.IsFoil {
		return "Foil Badge"
	}
	if b.Scarcity == nil {
		return "Scarcity: N/A"
	}
	return "Scarcity: " + strconv.FormatFloat(*b.Scarcity, 'f', -1, 64)
}

// DisplayName returns the badge name or a stand-in when it is empty.
func (b *APIBadge) DisplayName() string {
	if b.Name == "" {
		return "Unknown Badge"
	}
	return b.Name
}

// CacheEntry is a stored API response for one app.
type CacheEntry struct {
	AppID     int64      `json:"appId"`
	Timestamp time.Time  `json:"timestamp"`
	Data      []APIBadge `json:"data"`
}

// Age returns how old the entry is relative to now.
func (c *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(c.Timestamp)
}

// Favorite is a badge the user pinned. ID is derived from AppID and IsFoil.
type Favorite struct {
	ID       string `json:"id"`
	AppID    string `json:"appId"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	IsFoil   bool   `json:"isFoil"`
}

// FavoriteID derives the uniqueness key for an (appId, isFoil) pair.
func FavoriteID(appID string, isFoil bool) string {
	if isFoil {
		return appID + "_foil"
	}
	return appID + "_regular"
}

// Normalize recomputes the id.
func (f *Favorite) Normalize() {
	f.ID = FavoriteID(f.AppID, f.IsFoil)
}

// Validate checks if the favorite has required fields.
func (f *Favorite) Validate() error {
	if f.AppID == "" {
		return errors.New("favorite app ID is required")
	}
	return nil
}

// SortOrder selects how favorites are ordered.
type SortOrder string

const (
	SortAppIDAsc  SortOrder = "appid_asc"
	SortAppIDDesc SortOrder = "appid_desc"
	SortFoilFirst SortOrder = "foil_first"
	SortFoilLast  SortOrder = "foil_last"
)

// SortOrders lists every supported order.
var SortOrders = []SortOrder{SortAppIDAsc, SortAppIDDesc, SortFoilFirst, SortFoilLast}

// ParseSortOrder validates a sort order string.
func ParseSortOrder(s string) (SortOrder, error) {
	for _, o := range SortOrders {
		if string(o) == s {
			return o, nil
		}
	}
	return "", fmt.Errorf("invalid sort order: %s (expected appid_asc, appid_desc, foil_first or foil_last)", s)
}
