package favorites

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/robertmeta/badge-cli/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appIDs(favs []model.Favorite) []string {
	out := make([]string, len(favs))
	for i, f := range favs {
		out[i] = f.AppID
	}
	return out
}

func TestParse_ValidAndInvalid(t *testing.T) {
	input := `[{"appId": 1, "name": "A", "imageUrl": "u", "isFoil": true}, {"appId": "bad"}]`

	favs, invalid, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, favs, 1)
	assert.Equal(t, 1, invalid)
	assert.Equal(t, "1_foil", favs[0].ID)
	assert.Equal(t, "1", favs[0].AppID)
	assert.Equal(t, "A", favs[0].Name)
	assert.True(t, favs[0].IsFoil)
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "string app id", input: `{"appId": "440", "name": "n", "imageUrl": "", "isFoil": false}`, valid: true},
		{name: "extra fields ignored", input: `{"id": "stale", "appId": 440, "name": "n", "imageUrl": "u", "isFoil": false, "extra": 1}`, valid: true},
		{name: "missing app id", input: `{"name": "n", "imageUrl": "u", "isFoil": false}`},
		{name: "empty app id", input: `{"appId": "", "name": "n", "imageUrl": "u", "isFoil": false}`},
		{name: "boolean app id", input: `{"appId": true, "name": "n", "imageUrl": "u", "isFoil": false}`},
		{name: "numeric name", input: `{"appId": 1, "name": 5, "imageUrl": "u", "isFoil": false}`},
		{name: "missing image url", input: `{"appId": 1, "name": "n", "isFoil": false}`},
		{name: "string foil flag", input: `{"appId": 1, "name": "n", "imageUrl": "u", "isFoil": "true"}`},
		{name: "not an object", input: `"440_foil"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			favs, invalid, err := Parse(strings.NewReader("[" + tt.input + "]"))
			require.NoError(t, err)
			if tt.valid {
				assert.Len(t, favs, 1)
				assert.Equal(t, 0, invalid)
			} else {
				assert.Empty(t, favs)
				assert.Equal(t, 1, invalid)
			}
		})
	}
}

func TestParse_RecomputesID(t *testing.T) {
	favs, _, err := Parse(strings.NewReader(`[{"id": "wrong", "appId": 570, "name": "Dota", "imageUrl": "u", "isFoil": false}]`))
	require.NoError(t, err)
	require.Len(t, favs, 1)
	assert.Equal(t, "570_regular", favs[0].ID)
}

func TestParse_RejectsNonArray(t *testing.T) {
	_, _, err := Parse(strings.NewReader(`{"appId": 1}`))
	assert.ErrorIs(t, err, ErrNotArray)

	_, _, err = Parse(strings.NewReader(`[{"appId": 1,`))
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	favs := []model.Favorite{
		{ID: "20_foil", AppID: "20", Name: "B", ImageURL: "b.png", IsFoil: true},
		{ID: "3_regular", AppID: "3", Name: "A", ImageURL: "a.png"},
	}

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, favs))

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, out, "\n  {", "export should be pretty-printed")
	assert.NotContains(t, out, `"id"`, "id is derivable and left out")

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "3", decoded[0]["appId"])
	assert.Equal(t, "20", decoded[1]["appId"])
	assert.Equal(t, true, decoded[1]["isFoil"])

	// An export can be imported back unchanged.
	back, invalid, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, 0, invalid)
	assert.ElementsMatch(t, favs, back)
}

func TestGenerate_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestSort(t *testing.T) {
	favs := []model.Favorite{
		{AppID: "5", IsFoil: false},
		{AppID: "2", IsFoil: true},
		{AppID: "9", IsFoil: false},
	}

	tests := []struct {
		order    model.SortOrder
		expected []string
	}{
		{order: model.SortAppIDAsc, expected: []string{"2", "5", "9"}},
		{order: model.SortAppIDDesc, expected: []string{"9", "5", "2"}},
		{order: model.SortFoilFirst, expected: []string{"2", "5", "9"}},
		{order: model.SortFoilLast, expected: []string{"5", "9", "2"}},
		{order: "bogus", expected: []string{"2", "5", "9"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.order), func(t *testing.T) {
			got := Sort(favs, tt.order)
			assert.Equal(t, tt.expected, appIDs(got))
		})
	}

	assert.Equal(t, []string{"5", "2", "9"}, appIDs(favs), "input should not be modified")
}

func TestSort_FoilTieBreakUsesNumericAppID(t *testing.T) {
	favs := []model.Favorite{
		{AppID: "100", IsFoil: true},
		{AppID: "20", IsFoil: true},
		{AppID: "3", IsFoil: false},
		{AppID: "abc", IsFoil: true},
	}

	assert.Equal(t, []string{"20", "100", "abc", "3"}, appIDs(Sort(favs, model.SortFoilFirst)))
	assert.Equal(t, []string{"3", "20", "100", "abc"}, appIDs(Sort(favs, model.SortFoilLast)))
	assert.Equal(t, []string{"3", "20", "100", "abc"}, appIDs(Sort(favs, model.SortAppIDAsc)))
}
