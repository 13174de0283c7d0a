package adapters

import (
	"fmt"

	"wing-sales-extractor/internal/types"

	"github.com/PuerkitoBio/goquery"
)

// FieldExtractor pulls a single value out of a rendered report page
type FieldExtractor interface {
	Extract(doc *goquery.Document) (string, error)
}

// FieldRule binds a result column to the extractor that fills it
type FieldRule struct {
	Key       string
	Extractor FieldExtractor
}

// ClassTokenExtractor reads the first span found under any div whose class
// attribute contains Token, in document order. A matching div without a
// span is skipped.
type ClassTokenExtractor struct {
	Token string
}

// Extract implements FieldExtractor
func (c ClassTokenExtractor) Extract(doc *goquery.Document) (string, error) {
	return extractText(doc.Selection, fmt.Sprintf("div[class*='%s'] span:first-of-type", c.Token))
}

// DefaultFieldRules returns one class-token rule per metric column
func DefaultFieldRules() []FieldRule {
	var rules []FieldRule
	for _, col := range types.MetricColumns() {
		rules = append(rules, FieldRule{
			Key:       col.Key,
			Extractor: ClassTokenExtractor{Token: col.Token},
		})
	}
	return rules
}

// ExtractMetrics evaluates every rule against doc. A failing rule leaves its
// column empty and is reported in misses; it never affects the other rules.
func ExtractMetrics(doc *goquery.Document, rules []FieldRule) (record types.MetricRecord, misses []string) {
	for _, rule := range rules {
		value, err := safeExtract(rule.Extractor, doc)
		if err != nil {
			value = ""
			misses = append(misses, rule.Key)
		}
		record.Set(rule.Key, value)
	}
	return record, misses
}

func safeExtract(e FieldExtractor, doc *goquery.Document) (value string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("extractor panicked: %v", r)
		}
	}()
	return e.Extract(doc)
}
