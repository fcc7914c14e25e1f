package scraper

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/hotel-vouchers/internal/config"
)

const dealsPage = `
<html><body>
  <article class="deal" data-deal-id="lis-10">
    <img class="deal__img" src="/img/lisbon.jpg">
    <h3 class="deal__city">Lisbon</h3>
    <p class="deal__text">10% off city hotels</p>
    <span class="deal__code">LIS10</span>
    <time datetime="2026-12-31">Dec 31</time>
  </article>
  <article class="deal" data-deal-id="no-code">
    <h3 class="deal__city">Porto</h3>
    <time datetime="2026-12-31">Dec 31</time>
  </article>
  <article class="deal" data-deal-id="bad-date">
    <span class="deal__code">BAD</span>
    <time datetime="soon">soon</time>
  </article>
  <article class="deal">
    <img class="deal__img" src="https://cdn.example.com/rome.jpg">
    <h3 class="deal__city">Rome</h3>
    <span class="deal__code"> ROME5 </span>
    <time datetime="2027-01-15">Jan 15</time>
  </article>
</body></html>`

func testSelectors() config.Extractor {
	return config.Extractor{
		Item:         "article.deal",
		IDAttr:       "data-deal-id",
		Code:         ".deal__code",
		Destination:  ".deal__city",
		Description:  ".deal__text",
		Image:        "img.deal__img",
		Expiry:       "time",
		ExpiryAttr:   "datetime",
		ExpiryLayout: "2006-01-02",
	}
}

func TestSelectorExtractor_Extract(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := NewExtractor(testSelectors(), log)

	res := e.Extract("https://partner.example.com/deals", []byte(dealsPage))

	require.Len(t, res, 2)

	assert.Equal(t, "lis-10", res[0].ID)
	assert.Equal(t, "LIS10", res[0].Code)
	assert.Equal(t, "Lisbon", res[0].Destination)
	assert.Equal(t, "10% off city hotels", res[0].Description)
	assert.Equal(t, "https://partner.example.com/img/lisbon.jpg", res[0].ImageURL)
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), res[0].ExpiryDate)
	assert.True(t, res[0].IsHidden)

	assert.Empty(t, res[1].ID)
	assert.Equal(t, "ROME5", res[1].Code)
	assert.Equal(t, "https://cdn.example.com/rome.jpg", res[1].ImageURL)
	assert.Empty(t, res[1].Description)
}

func TestSelectorExtractor_NoMatches(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	e := NewExtractor(testSelectors(), log)

	assert.Empty(t, e.Extract("https://partner.example.com", []byte("<html><body>nothing here</body></html>")))
	assert.Empty(t, e.Extract("https://partner.example.com", nil))
}

func TestNewExtractor_WithoutItemSelector(t *testing.T) {
	e := NewExtractor(config.Extractor{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	assert.IsType(t, NopExtractor{}, e)
	assert.Nil(t, e.Extract("https://partner.example.com", []byte(dealsPage)))
}

func TestMask(t *testing.T) {
	assert.Equal(t, "LI***", mask("LIS10"))
	assert.Equal(t, "**", mask("X"))
}
