package steamsets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	mu     sync.Mutex
	method string
	header http.Header
	body   []byte
}

func newAPIServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()

	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		captured.mu.Lock()
		captured.method = r.Method
		captured.header = r.Header.Clone()
		captured.body = data
		captured.mu.Unlock()

		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestClient_ListBadges(t *testing.T) {
	srv, req := newAPIServer(t, http.StatusOK, `{"badges": [
		{"name": "Foil", "isFoil": true, "rarity": 1, "badgeImage": "f.png"},
		{"name": "Level 2", "isFoil": false, "highestLevel": 2, "scarcity": 100},
		{"name": "Level 1", "isFoil": false, "highestLevel": 1, "scarcity": 50}
	]}`)

	client := NewClient(srv.URL, "ss_test", 5*time.Second, nil)
	badges, err := client.ListBadges(context.Background(), 440)
	require.NoError(t, err)

	require.Len(t, badges, 3)
	assert.Equal(t, []string{"Level 1", "Level 2", "Foil"}, names(badges))
	assert.Equal(t, int64(440), badges[2].AppID)

	req.mu.Lock()
	defer req.mu.Unlock()
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "Bearer ss_test", req.header.Get("Authorization"))
	assert.Equal(t, "application/json", req.header.Get("Content-Type"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(req.body, &payload))
	assert.Equal(t, float64(440), payload["appId"])
}

func TestClient_ListBadgesErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		message string
	}{
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"message": "bad key"}`,
			wantErr: ErrUnauthorized,
			message: "SteamSets API Error: Unauthorized (401). Please check your API key configuration.",
		},
		{
			name:    "invalid json",
			status:  http.StatusOK,
			body:    `not json`,
			wantErr: ErrInvalidJSON,
			message: "Error fetching badge list: Invalid JSON response.",
		},
		{
			name:    "missing badges array",
			status:  http.StatusOK,
			body:    `{"badges": {}}`,
			wantErr: ErrInvalidFormat,
			message: "Error fetching badge list: Invalid data format.",
		},
		{
			name:    "server error with message",
			status:  http.StatusInternalServerError,
			body:    `{"message": "upstream down"}`,
			message: "Error fetching badge list. Status: 500. Message: upstream down",
		},
		{
			name:    "server error without json",
			status:  http.StatusBadGateway,
			body:    `<html>bad gateway</html>`,
			message: "Error fetching badge list. Status: 502.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newAPIServer(t, tt.status, tt.body)
			client := NewClient(srv.URL, "ss_test", 5*time.Second, nil)

			_, err := client.ListBadges(context.Background(), 1)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.status, statusErr.Status)
			}
			assert.Equal(t, tt.message, UserMessage(err))
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, "ss_test", time.Second, nil)
	_, err := client.ListBadges(context.Background(), 1)

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "Network error fetching badge list.", UserMessage(err))
}

func TestClient_MissingAPIKey(t *testing.T) {
	client := NewClient("", "", time.Second, nil)
	_, err := client.ListBadges(context.Background(), 1)

	assert.ErrorIs(t, err, ErrMissingAPIKey)
	assert.Equal(t, "SteamSets API key is not set. Badge list unavailable.", UserMessage(err))
	assert.Empty(t, UserMessage(nil))
}
