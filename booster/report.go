package booster

import "github.com/robertmeta/badge-cli/model"

// Report is everything shown for one booster creator page.
type Report struct {
	AppID     string         `json:"appId,omitempty"`
	Epoch     uint64         `json:"epoch,omitempty"`
	Trigger   TriggerKind    `json:"trigger,omitempty"`
	Notice    string         `json:"notice,omitempty"`
	Regular   *BadgeView     `json:"regular,omitempty"`
	Foil      *BadgeView     `json:"foil,omitempty"`
	BadgeList *BadgeList     `json:"badgeList,omitempty"`
	Favorites *FavoritesView `json:"favorites"`
}

// BadgeView is a scraped badge record with its display labels.
type BadgeView struct {
	*model.BadgeProgress
	ProgressText string `json:"progressText,omitempty"`
	SetsText     string `json:"setsText,omitempty"`
	Placeholder  bool   `json:"placeholder,omitempty"`
}

func newBadgeView(record *model.BadgeProgress) *BadgeView {
	if record == nil {
		return nil
	}
	view := &BadgeView{BadgeProgress: record, Placeholder: record.IsPlaceholder()}
	if p := record.CardProgress; p != nil {
		view.ProgressText = p.Text()
		view.SetsText = p.SetsText()
	}
	return view
}

// BadgeList is the API badge list for an app, or the message shown instead.
type BadgeList struct {
	Badges  []BadgeItem `json:"badges"`
	Cached  bool        `json:"cached"`
	Message string      `json:"message,omitempty"`
}

// BadgeItem is an API badge with its derived display fields.
type BadgeItem struct {
	model.APIBadge
	ImageURL     string `json:"imageUrl,omitempty"`
	ScarcityText string `json:"scarcityText"`
	FavoriteID   string `json:"favoriteId"`
}

// FavoritesView is the sorted favorites list.
type FavoritesView struct {
	Order   model.SortOrder  `json:"order"`
	Items   []model.Favorite `json:"items"`
	Message string           `json:"message,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// ImportResult counts the outcome of a favorites import.
type ImportResult struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
}
