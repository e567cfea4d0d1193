package steamsets

import (
	"cmp"
	"math"
	"slices"

	"github.com/robertmeta/badge-cli/model"
	"github.com/tidwall/gjson"
)

// Normalize converts one raw API badge. Fields of the wrong JSON type are
// treated as absent. Rarity is kept only for foil badges and highest level
// only for regular ones.
func Normalize(raw gjson.Result, appID int64) model.APIBadge {
	badge := model.APIBadge{
		AppID:  appID,
		IsFoil: raw.Get("isFoil").Type == gjson.True,
	}

	if name := raw.Get("name"); name.Type == gjson.String {
		badge.Name = name.Str
	}
	if img := raw.Get("badgeImage"); img.Type == gjson.String && img.Str != "" {
		badge.BadgeImage = img.Str
	}
	badge.Scarcity = number(raw.Get("scarcity"))

	if badge.IsFoil {
		badge.Rarity = number(raw.Get("rarity"))
	} else if lvl := raw.Get("highestLevel"); lvl.Type == gjson.Number {
		level := int(lvl.Int())
		badge.HighestLevel = &level
	}

	return badge
}

// NormalizeAndSort normalizes every raw badge and orders the result.
// Nothing is filtered or deduplicated.
func NormalizeAndSort(raw []gjson.Result, appID int64) []model.APIBadge {
	badges := make([]model.APIBadge, 0, len(raw))
	for _, r := range raw {
		badges = append(badges, Normalize(r, appID))
	}
	SortBadges(badges)
	return badges
}

// SortBadges puts regular badges before foil ones. Regular badges are
// ordered by highest level, then scarcity, then name; foil badges by
// rarity, then scarcity, then name. Missing numbers sort last.
func SortBadges(badges []model.APIBadge) {
	slices.SortStableFunc(badges, compareBadges)
}

func compareBadges(a, b model.APIBadge) int {
	if a.IsFoil != b.IsFoil {
		if a.IsFoil {
			return 1
		}
		return -1
	}

	var primary int
	if a.IsFoil {
		primary = cmp.Compare(orInf(a.Rarity), orInf(b.Rarity))
	} else {
		primary = cmp.Compare(levelOrInf(a.HighestLevel), levelOrInf(b.HighestLevel))
	}

	return cmp.Or(
		primary,
		cmp.Compare(orInf(a.Scarcity), orInf(b.Scarcity)),
		cmp.Compare(a.Name, b.Name),
	)
}

func number(r gjson.Result) *float64 {
	if r.Type != gjson.Number {
		return nil
	}
	n := r.Num
	return &n
}

func orInf(v *float64) float64 {
	if v == nil {
		return math.Inf(1)
	}
	return *v
}

func levelOrInf(v *int) float64 {
	if v == nil {
		return math.Inf(1)
	}
	return float64(*v)
}
