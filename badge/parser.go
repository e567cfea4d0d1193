// Package badge scrapes badge progress from Steam community badge pages.
package badge

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/robertmeta/badge-cli/model"
)

// DefaultHost is the community site serving badge pages.
const DefaultHost = "https://steamcommunity.com"

const unknownCard = "Unknown Card"

var (
	quantityPattern = regexp.MustCompile(`\((\d+)\)`)
	levelPattern    = regexp.MustCompile(`Level (\d+)`)
	appIDPattern    = regexp.MustCompile(`\d+$`)
)

// Owner identifies whose badge pages are read.
type Owner struct {
	ID          string
	IsSteamID64 bool
}

// Path returns the profile path segment for the owner's id kind.
func (o Owner) Path() string {
	if o.IsSteamID64 {
		return "profiles"
	}
	return "id"
}

// URL builds the badge-detail page URL. It returns "" when the owner is unknown.
func URL(host string, owner Owner, appID string, isFoil bool) string {
	if owner.ID == "" {
		return ""
	}
	u := fmt.Sprintf("%s/%s/%s/gamecards/%s", strings.TrimRight(host, "/"), owner.Path(), owner.ID, appID)
	if isFoil {
		u += "?border=1"
	}
	return u
}

// AppIDFromURL returns the trailing digits of a booster creator URL, or "".
func AppIDFromURL(rawURL string) string {
	return appIDPattern.FindString(strings.TrimSpace(rawURL))
}

// Parser extracts badge progress from badge-detail HTML.
type Parser struct {
	host   string
	logger *slog.Logger
}

// NewParser creates a Parser building badge URLs under host.
func NewParser(host string, logger *slog.Logger) *Parser {
	if host == "" {
		host = DefaultHost
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{host: host, logger: logger}
}

// Parse reads a badge page. It never fails: every field that cannot be
// found is left empty.
func (p *Parser) Parse(html string, isFoil bool, owner Owner, appID string) *model.BadgeProgress {
	record := &model.BadgeProgress{
		BadgeURL: URL(p.host, owner, appID, isFoil),
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		p.logger.Warn("failed to parse badge page", "app_id", appID, "foil", isFoil, "error", err)
		progress := model.NewCardProgress(nil)
		record.CardProgress = &progress
		return record
	}

	// The owner's own page has no .badge_info wrapper.
	region := doc.Find(".badge_info").First()
	if region.Length() == 0 {
		region = doc.Selection
	}

	if src, ok := region.Find(".badge_info_image .badge_icon").First().Attr("src"); ok {
		record.ImageURL = p.resolve(strings.TrimSpace(src))
	}

	if title := region.Find(".badge_info_title").First(); title.Length() > 0 {
		record.Name = strings.TrimSpace(title.Text())
	}

	if desc := region.Find(".badge_info_description").First(); desc.Length() > 0 {
		record.Level = parseLevel(desc.Text())
	}

	if unlocked := region.Find(".badge_info_unlocked").First(); unlocked.Length() > 0 {
		record.UnlockedInfo = collapseSpace(unlocked.Text())
	}

	cards, quantities := parseCards(doc)
	progress := model.NewCardProgress(quantities)
	record.Cards = cards
	record.CardProgress = &progress

	p.logger.Debug("parsed badge page",
		"app_id", appID,
		"foil", isFoil,
		"total_cards", progress.Total,
		"owned_cards", progress.Owned,
		"complete_sets", progress.CompleteSets,
		"cards", cards,
	)

	return record
}

// resolve makes a relative or protocol-relative src absolute against the
// host. Unparseable values are returned unchanged.
func (p *Parser) resolve(src string) string {
	if src == "" {
		return ""
	}
	ref, err := url.Parse(src)
	if err != nil {
		return src
	}
	base, err := url.Parse(strings.TrimRight(p.host, "/") + "/")
	if err != nil {
		return src
	}
	return base.ResolveReference(ref).String()
}

// parseCards reads every card slot with its quantity.
func parseCards(doc *goquery.Document) ([]model.Card, []int) {
	var cards []model.Card
	var quantities []int

	doc.Find(".badge_card_set_card").Each(func(i int, s *goquery.Selection) {
		quantity := 0
		if qty := s.Find(".badge_card_set_text_qty").First(); qty.Length() > 0 {
			if m := quantityPattern.FindStringSubmatch(qty.Text()); m != nil {
				if n, err := strconv.Atoi(m[1]); err == nil {
					quantity = n
				}
			}
		}

		name := unknownCard
		if n := s.Find(".badge_card_set_text_cardname").First(); n.Length() > 0 {
			name = strings.TrimSpace(n.Text())
		}

		cards = append(cards, model.Card{Name: name, Quantity: quantity})
		quantities = append(quantities, quantity)
	})

	return cards, quantities
}

func parseLevel(text string) *int {
	m := levelPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	level, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &level
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
