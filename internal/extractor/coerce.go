package extractor

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"PriceTracker/internal/models"
	"PriceTracker/utils"

	"github.com/araddon/dateparse"
)

// Coerce converts a preprocessed value to the declared field type. An empty
// value yields nil. Boolean values that match neither lexicon yield nil, and
// unparsable dates are returned verbatim.
func Coerce(value string, fieldType models.FieldType) (interface{}, error) {
	if value == "" {
		return nil, nil
	}

	switch fieldType {
	case models.FieldTypeText:
		return value, nil

	case models.FieldTypeNumber:
		normalized, err := utils.NormalizeNumber(value)
		if err != nil {
			return nil, err
		}
		if strings.Contains(normalized, ".") {
			f, err := strconv.ParseFloat(normalized, 64)
			if err != nil {
				return nil, fmt.Errorf("parse number %q: %w", normalized, err)
			}
			return f, nil
		}
		n, err := strconv.ParseInt(normalized, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse number %q: %w", normalized, err)
		}
		return n, nil

	case models.FieldTypePrice:
		return utils.ParseDecimal(value)

	case models.FieldTypeBoolean:
		if b := ParseBool(value); b != nil {
			return *b, nil
		}
		return nil, nil

	case models.FieldTypeDate:
		t, err := dateparse.ParseIn(value, time.UTC)
		if err != nil {
			return value, nil
		}
		return t.Format(time.RFC3339), nil

	default:
		return value, nil
	}
}
