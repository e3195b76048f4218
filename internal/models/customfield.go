package models

type FieldType string

const (
	FieldTypeText    FieldType = "text"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypePrice   FieldType = "price"
	FieldTypeDate    FieldType = "date"
)

// CustomFieldDefinition is a user-defined named field.
type CustomFieldDefinition struct {
	ID    string    `yaml:"id" json:"id"`
	Name  string    `yaml:"name" json:"name"`
	Label string    `yaml:"label" json:"label,omitempty"`
	Type  FieldType `yaml:"type" json:"type"`
}

// Replacement is one literal substitution, applied in list order.
type Replacement struct {
	Old string `yaml:"old" json:"old"`
	New string `yaml:"new" json:"new"`
}

// PreprocessingRules toggle the steps of the preprocessing pipeline.
// Trim and NormalizeWhitespace default to on when nil.
type PreprocessingRules struct {
	Trim                *bool         `yaml:"trim" json:"trim,omitempty"`
	Lowercase           bool          `yaml:"lowercase" json:"lowercase,omitempty"`
	Uppercase           bool          `yaml:"uppercase" json:"uppercase,omitempty"`
	TitleCase           bool          `yaml:"title_case" json:"title_case,omitempty"`
	NormalizeWhitespace *bool         `yaml:"normalize_whitespace" json:"normalize_whitespace,omitempty"`
	RemoveChars         string        `yaml:"remove_chars" json:"remove_chars,omitempty"`
	Replacements        []Replacement `yaml:"replacements" json:"replacements,omitempty"`
	NumbersOnly         bool          `yaml:"numbers_only" json:"numbers_only,omitempty"`
	TextOnly            bool          `yaml:"text_only" json:"text_only,omitempty"`
}

func (r PreprocessingRules) TrimEnabled() bool {
	return r.Trim == nil || *r.Trim
}

func (r PreprocessingRules) NormalizeWhitespaceEnabled() bool {
	return r.NormalizeWhitespace == nil || *r.NormalizeWhitespace
}

// CustomFieldMapping binds a field definition to a selector on one site.
type CustomFieldMapping struct {
	Field CustomFieldDefinition `yaml:"field" json:"field"`
	// Attribute is "text" (the default) or an HTML attribute name.
	Selector  string             `yaml:"selector" json:"selector"`
	Attribute string             `yaml:"attribute" json:"attribute,omitempty"`
	Regex     string             `yaml:"regex" json:"regex,omitempty"`
	Rules     PreprocessingRules `yaml:"preprocessing" json:"preprocessing"`
}

// CustomFieldResult is the outcome of one custom field. Value holds a
// string, int64, float64, bool, decimal.Decimal or nil.
type CustomFieldResult struct {
	FieldID   string      `json:"field_id"`
	FieldName string      `json:"field_name"`
	FieldType FieldType   `json:"field_type"`
	RawValue  string      `json:"raw_value,omitempty"`
	Value     interface{} `json:"value"`
	OK        bool        `json:"ok"`
	Error     string      `json:"error,omitempty"`
}
