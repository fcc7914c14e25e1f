package scraper

import (
	"bytes"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/magabrotheeeer/hotel-vouchers/internal/config"
	"github.com/magabrotheeeer/hotel-vouchers/internal/lib/sl"
	"github.com/magabrotheeeer/hotel-vouchers/internal/models"
	"github.com/magabrotheeeer/hotel-vouchers/internal/services/voucher"
)

// NopExtractor ничего не извлекает. Используется, пока для партнёров
// не настроены селекторы.
type NopExtractor struct{}

// Extract всегда возвращает пустой список.
func (NopExtractor) Extract(string, []byte) []models.Voucher { return nil }

// SelectorExtractor извлекает ваучеры по CSS-селекторам из конфига.
type SelectorExtractor struct {
	sel config.Extractor
	log *slog.Logger
}

// NewExtractor возвращает SelectorExtractor, либо NopExtractor,
// если селектор карточки не задан.
func NewExtractor(sel config.Extractor, log *slog.Logger) voucher.Extractor {
	if sel.Item == "" {
		return NopExtractor{}
	}
	return &SelectorExtractor{sel: sel, log: log}
}

// Extract разбирает страницу source. Карточки без кода или с неразборчивой
// датой окончания пропускаются.
func (e *SelectorExtractor) Extract(source string, page []byte) []models.Voucher {
	const op = "scraper.Extract"
	log := e.log.With(slog.String("op", op), slog.String("source", source))

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		log.Warn("failed to parse page", sl.Err(err))
		return nil
	}

	var res []models.Voucher
	doc.Find(e.sel.Item).Each(func(_ int, s *goquery.Selection) {
		code := text(s, e.sel.Code)
		if code == "" {
			return
		}
		expiry, err := time.Parse(e.sel.ExpiryLayout, value(s, e.sel.Expiry, e.sel.ExpiryAttr))
		if err != nil {
			log.Debug("skipping card with bad expiry", slog.String("code", mask(code)), sl.Err(err))
			return
		}
		var id string
		if e.sel.ID != "" || e.sel.IDAttr != "" {
			id = value(s, e.sel.ID, e.sel.IDAttr)
		}
		res = append(res, models.Voucher{
			ID:          id,
			Code:        code,
			Destination: text(s, e.sel.Destination),
			Description: text(s, e.sel.Description),
			ImageURL:    resolve(source, value(s, e.sel.Image, "src")),
			ExpiryDate:  expiry,
			IsHidden:    true,
		})
	})
	return res
}

func text(s *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(s.Find(selector).First().Text())
}

// value читает атрибут attr (или текст, если attr пуст) у первого
// элемента по selector; пустой selector означает саму карточку.
func value(s *goquery.Selection, selector, attr string) string {
	node := s
	if selector != "" {
		node = s.Find(selector).First()
	}
	if attr == "" {
		return strings.TrimSpace(node.Text())
	}
	v, _ := node.Attr(attr)
	return strings.TrimSpace(v)
}

func resolve(base, ref string) string {
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

func mask(code string) string {
	if len(code) <= 2 {
		return "**"
	}
	return code[:2] + strings.Repeat("*", len(code)-2)
}
