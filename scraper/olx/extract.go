package olx

import (
	"fmt"
	"iter"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"apartment-watcher/models"
	"apartment-watcher/utils"
)

// areaRegexp matches "75 m²", "75m²" and "75 m²"; the first match wins.
var areaRegexp = regexp.MustCompile(`(\d+)[\s\x{00A0}]*m²`)

// Selectors locate the listing card and its fields in the search page.
type Selectors struct {
	Card     string
	Title    string
	Price    string
	Link     string
	Location string
	Details  string
}

// DefaultSelectors match the current OLX ad card markup.
var DefaultSelectors = Selectors{
	Card:     ".olx-adcard__content",
	Title:    ".olx-adcard__title",
	Price:    ".olx-adcard__price",
	Link:     "a",
	Location: ".olx-adcard__location",
	Details:  ".olx-adcard__details",
}

// Extractor parses rendered OLX search pages.
type Extractor struct {
	selectors Selectors
	base      *url.URL
	logger    *utils.Logger
}

// NewExtractor creates an Extractor resolving relative links against pageURL.
func NewExtractor(pageURL string, logger *utils.Logger) (*Extractor, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("olx: invalid page url %q: %w", pageURL, err)
	}
	return &Extractor{selectors: DefaultSelectors, base: base, logger: logger}, nil
}

// Extract returns the listing cards found in html. Missing fields degrade to
// empty strings; a page with no cards yields an empty sequence and a warning.
func (e *Extractor) Extract(html string) (iter.Seq[models.Listing], error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("olx: parse html: %w", err)
	}

	cards := doc.Find(e.selectors.Card)
	if cards.Length() == 0 {
		e.logger.Warn("[olx] No elements matched %s", e.selectors.Card)
	}

	return func(yield func(models.Listing) bool) {
		for i := range cards.Length() {
			if !yield(e.parseCard(cards.Eq(i))) {
				return
			}
		}
	}, nil
}

func (e *Extractor) parseCard(card *goquery.Selection) models.Listing {
	link := e.resolveLink(card.Find(e.selectors.Link).First())

	return models.Listing{
		ID:       link,
		Title:    textOf(card, e.selectors.Title),
		Price:    textOf(card, e.selectors.Price),
		Location: textOf(card, e.selectors.Location),
		Link:     link,
		Area:     ParseArea(textOf(card, e.selectors.Details)),
	}
}

func (e *Extractor) resolveLink(a *goquery.Selection) string {
	href, ok := a.Attr("href")
	href = strings.TrimSpace(href)
	if !ok || href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return e.base.ResolveReference(ref).String()
}

// ParseArea extracts the square-meter figure from a details string.
func ParseArea(details string) *int {
	m := areaRegexp.FindStringSubmatch(details)
	if len(m) < 2 {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

func textOf(card *goquery.Selection, selector string) string {
	return normaliseText(card.Find(selector).First().Text())
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
