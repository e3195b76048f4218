package extractor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"PriceTracker/internal/models"
	"PriceTracker/utils"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Attributes tried, in order, when a price element has no text.
var priceAttributes = []string{"data-price", "value", "content"}

var firstNumber = regexp.MustCompile(`\d+`)

// Extract parses content and fills the standard fields of a record for url
// using the site's selectors. Only structural failures return an error;
// missing fields are left null and noted in FieldErrors.
func Extract(content []byte, url string, site models.SiteConfig) (models.ExtractedRecord, *Document, error) {
	rec := models.ExtractedRecord{
		URL:         url,
		Timestamp:   time.Now().UTC(),
		ContentHash: ContentHash(content),
	}
	doc, err := Parse(content)
	if err != nil {
		return rec, nil, err
	}
	fillRecord(&rec, doc, site)
	return rec, doc, nil
}

func fillRecord(rec *models.ExtractedRecord, doc *Document, site models.SiteConfig) {
	fieldErr := func(field string, reason string) {
		if rec.FieldErrors == nil {
			rec.FieldErrors = make(map[string]string)
		}
		rec.FieldErrors[field] = reason
		log.WithFields(log.Fields{"url": rec.URL, "field": field, "reason": reason}).Debug("Field not extracted")
	}

	rec.PageTitle = doc.Title()

	var priceText string
	if sel, ok := site.Selector(models.FieldPrice); ok {
		text, err := priceRaw(doc, sel)
		switch {
		case err != nil:
			fieldErr(models.FieldPrice, err.Error())
		case text == "":
			fieldErr(models.FieldPrice, "not found")
		default:
			priceText = text
			if d, err := utils.ParseDecimal(text); err != nil {
				fieldErr(models.FieldPrice, fmt.Sprintf("unparsable price %q", text))
			} else {
				rec.Price = decimal.NullDecimal{Decimal: d, Valid: true}
			}
		}
	}

	if sel, ok := site.Selector(models.FieldStockStatus); ok {
		stock, err := stockStatus(doc, sel)
		if err != nil {
			fieldErr(models.FieldStockStatus, err.Error())
		}
		rec.InStock = stock
	}

	if sel, ok := site.Selector(models.FieldAvailabilityText); ok {
		text, found, err := doc.Raw(sel, AttrText)
		switch {
		case err != nil:
			fieldErr(models.FieldAvailabilityText, err.Error())
		case !found:
			fieldErr(models.FieldAvailabilityText, "not found")
		default:
			rec.AvailabilityText = text
			if rec.InStock == nil {
				rec.InStock = StockFromText(text)
			}
		}
	}
	if _, ok := site.Selector(models.FieldStockStatus); ok && rec.InStock == nil {
		if _, noted := rec.FieldErrors[models.FieldStockStatus]; !noted {
			fieldErr(models.FieldStockStatus, "inconclusive")
		}
	}

	if sel, ok := site.Selector(models.FieldStockQuantity); ok {
		qty, err := stockQuantity(doc, sel)
		switch {
		case err != nil:
			fieldErr(models.FieldStockQuantity, err.Error())
		case qty == nil:
			fieldErr(models.FieldStockQuantity, "not found")
		default:
			rec.StockQuantity = qty
		}
	}

	if sel, ok := site.Selector(models.FieldProductName); ok {
		text, found, err := doc.Raw(sel, AttrText)
		switch {
		case err != nil:
			fieldErr(models.FieldProductName, err.Error())
		case !found:
			fieldErr(models.FieldProductName, "not found")
		default:
			rec.ProductName = text
		}
	}

	currencyText := priceText
	if sel, ok := site.Selector(models.FieldCurrency); ok {
		if text, found, err := doc.Raw(sel, AttrText); err == nil && found {
			currencyText = text
		}
	}
	if currencyText != "" {
		rec.Currency = NormalizeCurrency(currencyText)
	} else if rec.Price.Valid {
		rec.Currency = DefaultCurrency
	}
}

func priceRaw(doc *Document, selector string) (string, error) {
	el, ok, err := doc.First(selector)
	if err != nil || !ok {
		return "", err
	}
	if text := strings.TrimSpace(el.Text()); text != "" {
		return text, nil
	}
	for _, attr := range priceAttributes {
		if v, exists := el.Attr(attr); exists && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), nil
		}
	}
	return "", nil
}

func stockStatus(doc *Document, selector string) (*bool, error) {
	el, ok, err := doc.First(selector)
	if err != nil || !ok {
		return nil, err
	}
	if text := strings.TrimSpace(el.Text()); text != "" {
		if stock := StockFromText(text); stock != nil {
			return stock, nil
		}
	}
	class, _ := el.Attr("class")
	return StockFromClasses(class), nil
}

func stockQuantity(doc *Document, selector string) (*int, error) {
	el, ok, err := doc.First(selector)
	if err != nil || !ok {
		return nil, err
	}
	text := strings.TrimSpace(el.Text())
	if text == "" {
		text, _ = el.Attr("value")
	}
	digits := firstNumber.FindString(text)
	if digits == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil, fmt.Errorf("quantity %q: %w", digits, err)
	}
	return &n, nil
}
