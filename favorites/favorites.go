// Package favorites provides import, export and ordering of favorite badges.
package favorites

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/robertmeta/badge-cli/model"
	"github.com/tidwall/gjson"
)

// ErrNotArray is returned when import data is not a JSON array.
var ErrNotArray = errors.New("favorites import must be a JSON array")

// exportEntry is the portable form of a favorite; the id is derivable.
type exportEntry struct {
	AppID    string `json:"appId"`
	Name     string `json:"name"`
	ImageURL string `json:"imageUrl"`
	IsFoil   bool   `json:"isFoil"`
}

// Parse reads exported favorites. Elements that fail validation are
// dropped and counted in the returned error count.
func Parse(r io.Reader) ([]model.Favorite, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read favorites: %w", err)
	}
	if !gjson.ValidBytes(data) {
		return nil, 0, fmt.Errorf("failed to parse favorites: invalid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, 0, ErrNotArray
	}

	var favs []model.Favorite
	invalid := 0
	for _, item := range root.Array() {
		f, ok := validate(item)
		if !ok {
			invalid++
			continue
		}
		favs = append(favs, f)
	}

	return favs, invalid, nil
}

// validate checks one candidate: appId string or number, name and
// imageUrl strings, isFoil boolean. The app id is normalized to a string.
func validate(item gjson.Result) (model.Favorite, bool) {
	if !item.IsObject() {
		return model.Favorite{}, false
	}

	var appID string
	switch v := item.Get("appId"); v.Type {
	case gjson.String:
		appID = v.Str
	case gjson.Number:
		appID = strconv.FormatFloat(v.Num, 'f', -1, 64)
	}
	if appID == "" {
		return model.Favorite{}, false
	}

	name := item.Get("name")
	imageURL := item.Get("imageUrl")
	isFoil := item.Get("isFoil")
	if name.Type != gjson.String || imageURL.Type != gjson.String {
		return model.Favorite{}, false
	}
	if isFoil.Type != gjson.True && isFoil.Type != gjson.False {
		return model.Favorite{}, false
	}

	f := model.Favorite{
		AppID:    appID,
		Name:     name.Str,
		ImageURL: imageURL.Str,
		IsFoil:   isFoil.Bool(),
	}
	f.Normalize()
	return f, true
}

// Generate writes favorites as a pretty-printed JSON array in ascending
// app id order.
func Generate(w io.Writer, favs []model.Favorite) error {
	sorted := Sort(favs, model.SortAppIDAsc)

	entries := make([]exportEntry, 0, len(sorted))
	for _, f := range sorted {
		entries = append(entries, exportEntry{
			AppID:    f.AppID,
			Name:     f.Name,
			ImageURL: f.ImageURL,
			IsFoil:   f.IsFoil,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode favorites: %w", err)
	}
	data = append(data, '\n')

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write favorites: %w", err)
	}
	return nil
}

// Sort returns a sorted copy of favs. appid_* orders compare app ids
// numerically; foil_first and foil_last group by foil flag and break ties
// by ascending app id. Unknown orders behave as appid_asc. App ids that
// are not numbers sort after numeric ones.
func Sort(favs []model.Favorite, order model.SortOrder) []model.Favorite {
	sorted := slices.Clone(favs)

	switch order {
	case model.SortAppIDDesc:
		slices.SortStableFunc(sorted, func(a, b model.Favorite) int {
			return compareAppID(a, b, true)
		})
	case model.SortFoilFirst:
		slices.SortStableFunc(sorted, func(a, b model.Favorite) int {
			return cmp.Or(compareFoil(a, b, true), compareAppID(a, b, false))
		})
	case model.SortFoilLast:
		slices.SortStableFunc(sorted, func(a, b model.Favorite) int {
			return cmp.Or(compareFoil(a, b, false), compareAppID(a, b, false))
		})
	default:
		slices.SortStableFunc(sorted, func(a, b model.Favorite) int {
			return compareAppID(a, b, false)
		})
	}

	return sorted
}

func compareFoil(a, b model.Favorite, foilFirst bool) int {
	if a.IsFoil == b.IsFoil {
		return 0
	}
	if a.IsFoil == foilFirst {
		return -1
	}
	return 1
}

func compareAppID(a, b model.Favorite, desc bool) int {
	an, aErr := strconv.ParseInt(a.AppID, 10, 64)
	bn, bErr := strconv.ParseInt(b.AppID, 10, 64)

	switch {
	case aErr != nil && bErr != nil:
		return cmp.Compare(a.AppID, b.AppID)
	case aErr != nil:
		return 1
	case bErr != nil:
		return -1
	case desc:
		return cmp.Compare(bn, an)
	default:
		return cmp.Compare(an, bn)
	}
}
