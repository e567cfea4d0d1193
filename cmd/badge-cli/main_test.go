package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/robertmeta/badge-cli/booster"
	"github.com/robertmeta/badge-cli/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestAppIDArg(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "440", expected: "440"},
		{input: " 440\n", expected: "440"},
		{input: "https://steamcommunity.com/tradingcards/boostercreator/730", expected: "730"},
		{input: "https://steamcommunity.com/tradingcards/boostercreator/730/", expected: "730"},
		{input: "https://steamcommunity.com/tradingcards/boostercreator/", expected: ""},
		{input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, appIDArg(tt.input))
		})
	}
}

func TestReadTriggers(t *testing.T) {
	input := strings.NewReader("440\n\nnot a page\nrefresh\nhttps://steamcommunity.com/tradingcards/boostercreator/570\n")
	out := make(chan booster.Trigger)

	go readTriggers(context.Background(), input, 0, out, slog.New(slog.DiscardHandler))

	var got []booster.Trigger
	for tr := range out {
		got = append(got, tr)
	}

	assert.Equal(t, []booster.Trigger{
		{Kind: booster.TriggerNavigation, AppID: "440"},
		{Kind: booster.TriggerUser},
		{Kind: booster.TriggerNavigation, AppID: "570"},
	}, got)
}

func TestReadTriggers_Interval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A reader that never ends keeps the loop alive for the ticker.
	in, w := io.Pipe()
	defer w.Close()
	out := make(chan booster.Trigger)

	go readTriggers(ctx, in, 10*time.Millisecond, out, slog.New(slog.DiscardHandler))

	select {
	case tr := <-out:
		assert.Equal(t, booster.TriggerTimer, tr.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("no timer trigger")
	}

	cancel()
	for range out {
	}
}

func newFlagContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()

	set := flag.NewFlagSet("badge-cli", flag.ContinueOnError)
	set.String("owner", "", "")
	set.Bool("steamid64", false, "")
	set.String("api-key", "", "")
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestApplyFlagOverrides(t *testing.T) {
	base := config.Config{OwnerID: "76561197960287930", APIKey: "ss_env_key"}

	tests := []struct {
		name     string
		args     []string
		expected config.Config
	}{
		{
			name:     "no flags",
			expected: base,
		},
		{
			name:     "steamid64 alone applies to the env owner",
			args:     []string{"--steamid64"},
			expected: config.Config{OwnerID: "76561197960287930", OwnerIsSteamID64: true, APIKey: "ss_env_key"},
		},
		{
			name:     "owner alone keeps the env id kind",
			args:     []string{"--owner", "alice"},
			expected: config.Config{OwnerID: "alice", APIKey: "ss_env_key"},
		},
		{
			name:     "api key",
			args:     []string{"--api-key", "ss_flag_key"},
			expected: config.Config{OwnerID: "76561197960287930", APIKey: "ss_flag_key"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := applyFlagOverrides(base, newFlagContext(t, tt.args...))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestApplyFlagOverrides_SteamID64False(t *testing.T) {
	base := config.Config{OwnerID: "alice", OwnerIsSteamID64: true}

	got := applyFlagOverrides(base, newFlagContext(t, "--steamid64=false"))
	assert.False(t, got.OwnerIsSteamID64)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("stdout closed")
}

func TestWriteFavoritesView(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeFavoritesView(&buf, &booster.FavoritesView{Order: "appid_asc"}))
	assert.Contains(t, buf.String(), `"order": "appid_asc"`)

	buf.Reset()
	err := writeFavoritesView(&buf, &booster.FavoritesView{Error: "Failed to save favorites: disk full"})
	var exitErr cli.ExitCoder
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, ExitDataError, exitErr.ExitCode())
	assert.Contains(t, buf.String(), "disk full", "the view is still printed")

	err = writeFavoritesView(failingWriter{}, &booster.FavoritesView{Error: "Failed to save favorites: disk full"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdout closed", "write errors are not swallowed")
}
