package documents

import (
	"net/url"
	"strconv"

	"github.com/mwhitford/attest/pkg/query"
	"github.com/mwhitford/attest/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "documents", "d").
	Project("id", "ID").
	Project("title", "Title").
	Project("version", "Version").
	Project("source_system", "SourceSystem").
	Project("filename", "Filename").
	Project("content_type", "ContentType").
	Project("size_bytes", "SizeBytes").
	Project("page_count", "PageCount").
	Project("storage_key", "StorageKey").
	Project("checksum", "Checksum").
	Project("status", "Status").
	Project("uploaded_at", "UploadedAt").
	Project("updated_at", "UpdatedAt").
	Join("public", "categorizations", "c", "LEFT JOIN", "d.id = c.document_id").
	Project("category", "Category").
	Project("confidence", "Confidence").
	Project("categorized_at", "CategorizedAt")

var defaultSort = query.SortField{
	Field:      "UploadedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for document queries.
// Nil fields are ignored. Status, SourceSystem, ContentType, and Category
// use exact matching. Title and Filename use case-insensitive contains
// matching.
type Filters struct {
	Status       *string `json:"status,omitempty"`
	Title        *string `json:"title,omitempty"`
	Filename     *string `json:"filename,omitempty"`
	SourceSystem *string `json:"source_system,omitempty"`
	ContentType  *string `json:"content_type,omitempty"`
	Category     *int    `json:"category,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereContains("Title", f.Title).
		WhereContains("Filename", f.Filename).
		WhereEquals("SourceSystem", f.SourceSystem).
		WhereEquals("ContentType", f.ContentType).
		WhereEquals("Category", f.Category)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if t := values.Get("title"); t != "" {
		f.Title = &t
	}

	if fn := values.Get("filename"); fn != "" {
		f.Filename = &fn
	}

	if ss := values.Get("source_system"); ss != "" {
		f.SourceSystem = &ss
	}

	if ct := values.Get("content_type"); ct != "" {
		f.ContentType = &ct
	}

	if c := values.Get("category"); c != "" {
		if v, err := strconv.Atoi(c); err == nil {
			f.Category = &v
		}
	}

	return f
}

func scanDocument(s repository.Scanner) (Document, error) {
	var d Document
	err := s.Scan(
		&d.ID,
		&d.Title,
		&d.Version,
		&d.SourceSystem,
		&d.Filename,
		&d.ContentType,
		&d.SizeBytes,
		&d.PageCount,
		&d.StorageKey,
		&d.Checksum,
		&d.Status,
		&d.UploadedAt,
		&d.UpdatedAt,
		&d.Category,
		&d.Confidence,
		&d.CategorizedAt,
	)
	return d, err
}
