package notion

import (
	"context"
	"iter"
	"net/http"
	"net/url"
)

// Filter is a Notion database filter object. Either a property condition
// (Property plus one condition) or a compound And/Or.
type Filter struct {
	Property    string           `json:"property,omitempty"`
	Date        *DateCondition   `json:"date,omitempty"`
	Select      *OptionCondition `json:"select,omitempty"`
	Status      *OptionCondition `json:"status,omitempty"`
	MultiSelect *OptionCondition `json:"multi_select,omitempty"`

	And []Filter `json:"and,omitempty"`
	Or  []Filter `json:"or,omitempty"`
}

type DateCondition struct {
	IsNotEmpty bool `json:"is_not_empty,omitempty"`
}

type OptionCondition struct {
	Equals   string `json:"equals,omitempty"`
	Contains string `json:"contains,omitempty"`
}

// QueryRequest is the body of POST /databases/{id}/query.
type QueryRequest struct {
	Filter      *Filter `json:"filter,omitempty"`
	StartCursor string  `json:"start_cursor,omitempty"`
	PageSize    int     `json:"page_size,omitempty"`
}

// QueryPage is one page of query results.
type QueryPage struct {
	Results    []Page  `json:"results"`
	NextCursor *string `json:"next_cursor"`
	HasMore    bool    `json:"has_more"`
}

// QueryDatabase returns a lazy sequence over the result pages of a query.
// Each step issues one request; iteration stops after the last page or
// at the first error, which is yielded with a nil page. Ranging over the
// sequence again restarts from the first page.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, req QueryRequest) iter.Seq2[*QueryPage, error] {
	path := "/databases/" + url.PathEscape(databaseID) + "/query"
	return func(yield func(*QueryPage, error) bool) {
		r := req
		for {
			var page QueryPage
			if err := c.do(ctx, http.MethodPost, path, r, &page); err != nil {
				yield(nil, err)
				return
			}
			if !yield(&page, nil) {
				return
			}
			if !page.HasMore || page.NextCursor == nil || *page.NextCursor == "" {
				return
			}
			r.StartCursor = *page.NextCursor
		}
	}
}

// CategoryFilter matches pages whose category property holds one of values.
// kind is the Notion property type: select (default), status or multi_select.
func CategoryFilter(property, kind string, values []string) Filter {
	or := make([]Filter, 0, len(values))
	for _, v := range values {
		f := Filter{Property: property}
		switch kind {
		case "status":
			f.Status = &OptionCondition{Equals: v}
		case "multi_select":
			f.MultiSelect = &OptionCondition{Contains: v}
		default:
			f.Select = &OptionCondition{Equals: v}
		}
		or = append(or, f)
	}
	return Filter{Or: or}
}

// DateNotEmpty matches pages whose date property is set.
func DateNotEmpty(property string) Filter {
	return Filter{Property: property, Date: &DateCondition{IsNotEmpty: true}}
}
