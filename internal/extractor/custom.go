package extractor

import (
	"fmt"
	"regexp"

	"PriceTracker/internal/models"

	log "github.com/sirupsen/logrus"
)

// ExtractCustomFields evaluates every mapping whose field is enabled (by id
// or name). Each field is independent: a failure is reported in its result
// and never stops the others.
func ExtractCustomFields(doc *Document, mappings []models.CustomFieldMapping, enabled []string) []models.CustomFieldResult {
	var results []models.CustomFieldResult
	for _, m := range mappings {
		if !isEnabled(m.Field, enabled) {
			continue
		}
		res := extractField(doc, m)
		if !res.OK {
			log.WithFields(log.Fields{"field": m.Field.Name, "error": res.Error}).Warn("Custom field extraction failed")
		}
		results = append(results, res)
	}
	return results
}

func isEnabled(f models.CustomFieldDefinition, enabled []string) bool {
	for _, e := range enabled {
		if e == f.ID || e == f.Name {
			return true
		}
	}
	return false
}

func extractField(doc *Document, m models.CustomFieldMapping) (res models.CustomFieldResult) {
	res = models.CustomFieldResult{
		FieldID:   m.Field.ID,
		FieldName: m.Field.Name,
		FieldType: m.Field.Type,
	}
	defer func() {
		if r := recover(); r != nil {
			res.OK = false
			res.Value = nil
			res.Error = fmt.Sprintf("extraction panicked: %v", r)
		}
	}()

	raw, found, err := doc.Raw(m.Selector, m.Attribute)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if !found {
		res.Error = "element not found or empty"
		return res
	}
	res.RawValue = raw

	if m.Regex != "" {
		re, err := regexp.Compile(m.Regex)
		if err != nil {
			res.Error = fmt.Sprintf("invalid regex %q: %v", m.Regex, err)
			return res
		}
		match := re.FindStringSubmatch(raw)
		if match == nil {
			res.Error = fmt.Sprintf("regex pattern %q did not match", m.Regex)
			return res
		}
		if len(match) > 1 {
			raw = match[1]
		} else {
			raw = match[0]
		}
		res.RawValue = raw
	}

	value, err := Coerce(Preprocess(raw, m.Rules), m.Field.Type)
	if err != nil {
		res.Error = fmt.Sprintf("type conversion failed: %v", err)
		return res
	}
	res.Value = value
	res.OK = true
	return res
}
