package notion

import (
	"context"

	appLog "notioncal/internal/log"
	"notioncal/internal/model"
)

const defaultPageSize = 100

// Fetcher lists the records of one database as reduced SourceRecords.
type Fetcher struct {
	client     *Client
	databaseID string
	names      PropertyNames
}

// NewFetcher creates a Fetcher for databaseID. Empty entries in names fall
// back to DefaultPropertyNames.
func NewFetcher(client *Client, databaseID string, names PropertyNames) *Fetcher {
	def := DefaultPropertyNames()
	if names.Name == "" {
		names.Name = def.Name
	}
	if names.Course == "" {
		names.Course = def.Course
	}
	if names.Date == "" {
		names.Date = def.Date
	}
	if names.Status == "" {
		names.Status = def.Status
	}
	if names.Category == "" {
		names.Category = def.Category
	}
	if names.CategoryType == "" {
		names.CategoryType = def.CategoryType
	}
	return &Fetcher{client: client, databaseID: databaseID, names: names}
}

// Filter builds the query filter for q: the date property must be set and,
// when q names categories, the category property must match one of them.
func (f *Fetcher) Filter(q model.RecordQuery) *Filter {
	date := DateNotEmpty(f.names.Date)
	if len(q.Categories) == 0 {
		return &date
	}
	return &Filter{And: []Filter{
		CategoryFilter(f.names.Category, f.names.CategoryType, q.Categories),
		date,
	}}
}

// Records queries the database and returns the matching records keyed by id.
// Pages are reduced as they arrive so only the reduced records are held.
func (f *Fetcher) Records(ctx context.Context, q model.RecordQuery) (map[string]model.SourceRecord, error) {
	req := QueryRequest{Filter: f.Filter(q), PageSize: defaultPageSize}

	out := make(map[string]model.SourceRecord)
	pages := 0
	for page, err := range f.client.QueryDatabase(ctx, f.databaseID, req) {
		if err != nil {
			return nil, err
		}
		pages++
		for _, p := range page.Results {
			if p.ID == "" {
				continue
			}
			out[p.ID] = Reduce(p, f.names)
		}
	}

	appLog.Debug("notion records fetched", "database", f.databaseID, "pages", pages, "records", len(out))
	return out, nil
}

// Record retrieves and reduces a single page.
func (f *Fetcher) Record(ctx context.Context, pageID string) (model.SourceRecord, error) {
	p, err := f.client.RetrievePage(ctx, pageID)
	if err != nil {
		return model.SourceRecord{}, err
	}
	return Reduce(*p, f.names), nil
}
