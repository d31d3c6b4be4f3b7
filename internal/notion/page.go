package notion

import (
	"strings"

	"notioncal/internal/model"
)

// Page is a Notion page. Only the fields read by Reduce are modelled.
type Page struct {
	Object     string              `json:"object"`
	ID         string              `json:"id"`
	URL        string              `json:"url"`
	Archived   bool                `json:"archived"`
	Properties map[string]Property `json:"properties"`
}

// Property is a page property value. Type names which of the value fields
// Notion populated; the others stay nil.
type Property struct {
	ID       string        `json:"id"`
	Type     string        `json:"type"`
	Title    []RichText    `json:"title,omitempty"`
	RichText []RichText    `json:"rich_text,omitempty"`
	Select   *SelectOption `json:"select,omitempty"`
	Status   *SelectOption `json:"status,omitempty"`
	Date     *DateValue    `json:"date,omitempty"`
}

type RichText struct {
	PlainText string `json:"plain_text"`
}

type SelectOption struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

type DateValue struct {
	Start    string  `json:"start"`
	End      *string `json:"end"`
	TimeZone *string `json:"time_zone"`
}

// PropertyNames maps record fields to property names in the database.
type PropertyNames struct {
	Name   string
	Course string
	Date   string
	Status string

	// Category and CategoryType drive the query filter only.
	Category     string
	CategoryType string
}

// DefaultPropertyNames matches the stock "assignments" database layout.
func DefaultPropertyNames() PropertyNames {
	return PropertyNames{
		Name:         "Name",
		Course:       "Course",
		Date:         "Date",
		Status:       "Status",
		Category:     "Type",
		CategoryType: "select",
	}
}

// Reduce extracts a SourceRecord from p. Missing properties, or properties
// of an unexpected type, leave the corresponding field unset.
func Reduce(p Page, names PropertyNames) model.SourceRecord {
	rec := model.SourceRecord{ID: p.ID}

	if prop, ok := p.Properties[names.Name]; ok {
		rec.Name = model.Str(plainText(prop))
	}
	if prop, ok := p.Properties[names.Course]; ok {
		rec.Course = model.Str(optionName(prop))
	}
	if prop, ok := p.Properties[names.Status]; ok {
		rec.Status = model.Str(optionName(prop))
	}
	if prop, ok := p.Properties[names.Date]; ok && prop.Date != nil {
		d := prop.Date.Start
		if prop.Date.End != nil && *prop.Date.End != "" {
			d = *prop.Date.End
		}
		rec.Date = model.Str(d)
		if prop.Date.TimeZone != nil {
			rec.TimeZone = model.Str(*prop.Date.TimeZone)
		}
	}
	return rec
}

// plainText joins the fragments of a title (or rich_text) property.
func plainText(prop Property) string {
	frags := prop.Title
	if len(frags) == 0 {
		frags = prop.RichText
	}
	if len(frags) == 0 {
		return ""
	}
	if len(frags) == 1 {
		return frags[0].PlainText
	}
	var b strings.Builder
	for _, f := range frags {
		b.WriteString(f.PlainText)
	}
	return b.String()
}

func optionName(prop Property) string {
	switch {
	case prop.Select != nil:
		return prop.Select.Name
	case prop.Status != nil:
		return prop.Status.Name
	}
	return ""
}
