package steamsets

import (
	"testing"

	"github.com/robertmeta/badge-cli/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func names(badges []model.APIBadge) []string {
	out := make([]string, len(badges))
	for i, b := range badges {
		out[i] = b.Name
	}
	return out
}

func TestNormalizeAndSort_FoilAfterRegular(t *testing.T) {
	raw := gjson.Parse(`[
		{"name": "foil", "isFoil": true, "rarity": 2},
		{"name": "level 3", "isFoil": false, "highestLevel": 3},
		{"name": "level 1", "isFoil": false, "highestLevel": 1}
	]`).Array()

	badges := NormalizeAndSort(raw, 440)

	require.Len(t, badges, 3)
	assert.Equal(t, []string{"level 1", "level 3", "foil"}, names(badges))
	for _, b := range badges {
		assert.Equal(t, int64(440), b.AppID, "app id should be attached to every badge")
	}
}

func TestNormalizeAndSort_TieBreakers(t *testing.T) {
	raw := gjson.Parse(`[
		{"name": "f-missing", "isFoil": true},
		{"name": "f-b", "isFoil": true, "rarity": 1, "scarcity": 5},
		{"name": "f-a", "isFoil": true, "rarity": 1, "scarcity": 5},
		{"name": "f-low", "isFoil": true, "rarity": 1, "scarcity": 2},
		{"name": "r-nolevel", "isFoil": false, "scarcity": 1},
		{"name": "r-scarce", "isFoil": false, "highestLevel": 2, "scarcity": 10},
		{"name": "r-common", "isFoil": false, "highestLevel": 2, "scarcity": 3},
		{"name": "r-zero", "isFoil": false, "highestLevel": 0}
	]`).Array()

	badges := NormalizeAndSort(raw, 1)

	assert.Equal(t, []string{
		"r-zero", "r-common", "r-scarce", "r-nolevel",
		"f-low", "f-a", "f-b", "f-missing",
	}, names(badges))
}

func TestNormalizeAndSort_KeepsDuplicates(t *testing.T) {
	raw := gjson.Parse(`[{"name": "same"}, {"name": "same"}]`).Array()
	assert.Len(t, NormalizeAndSort(raw, 1), 2)
}

func TestNormalize_FieldTypes(t *testing.T) {
	regular := Normalize(gjson.Parse(`{"name": "Badge", "isFoil": false, "scarcity": 12.5, "rarity": 4, "highestLevel": 5, "badgeImage": "abc.png"}`), 730)
	assert.Equal(t, "Badge", regular.Name)
	require.NotNil(t, regular.Scarcity)
	assert.Equal(t, 12.5, *regular.Scarcity)
	require.NotNil(t, regular.HighestLevel)
	assert.Equal(t, 5, *regular.HighestLevel)
	assert.Nil(t, regular.Rarity, "rarity applies to foil badges only")
	assert.Equal(t, "abc.png", regular.BadgeImage)

	foil := Normalize(gjson.Parse(`{"name": "Foil", "isFoil": true, "rarity": 4, "highestLevel": 1}`), 730)
	require.NotNil(t, foil.Rarity)
	assert.Equal(t, 4.0, *foil.Rarity)
	assert.Nil(t, foil.HighestLevel, "highest level applies to regular badges only")

	odd := Normalize(gjson.Parse(`{"name": 5, "isFoil": "yes", "scarcity": "high", "badgeImage": 12}`), 730)
	assert.Empty(t, odd.Name)
	assert.False(t, odd.IsFoil)
	assert.Nil(t, odd.Scarcity)
	assert.Empty(t, odd.BadgeImage)
	assert.Empty(t, odd.ImageURL("https://cdn.example.com"))
}
