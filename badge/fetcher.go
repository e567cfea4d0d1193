package badge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/robertmeta/badge-cli/model"
)

// Fetcher downloads badge pages and turns them into progress records.
type Fetcher struct {
	client *http.Client
	parser *Parser
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. A zero timeout means no timeout.
func NewFetcher(parser *Parser, timeout time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		parser: parser,
		logger: logger,
	}
}

// Fetch retrieves a page and returns its body and status code.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	return string(body), resp.StatusCode, nil
}

// FetchRecord fetches and parses the owner's regular or foil badge page.
// Transport errors and non-2xx responses yield a placeholder record.
func (f *Fetcher) FetchRecord(ctx context.Context, owner Owner, appID string, isFoil bool) *model.BadgeProgress {
	url := URL(f.parser.host, owner, appID, isFoil)

	body, status, err := f.Fetch(ctx, url)
	if err == nil && (status < 200 || status > 299) {
		err = fmt.Errorf("unexpected status %d from %s", status, url)
	}
	if err != nil {
		f.logger.Error("failed to load badge page", "app_id", appID, "foil", isFoil, "error", err)
		return Placeholder(isFoil, err)
	}

	f.logger.Debug("badge page loaded", "app_id", appID, "foil", isFoil, "status", status)
	return f.parser.Parse(body, isFoil, owner, appID)
}

// Placeholder is the record shown in place of a badge that failed to load.
func Placeholder(isFoil bool, cause error) *model.BadgeProgress {
	kind := "regular"
	if isFoil {
		kind = "foil"
	}
	record := &model.BadgeProgress{Name: "Error loading " + kind + " badge"}
	record.Error = "failed"
	if cause != nil {
		record.Error = cause.Error()
	}
	return record
}
