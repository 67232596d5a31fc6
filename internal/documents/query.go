package documents

import (
	"math"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// Sort keys accepted from clients.
const (
	SortUploadDate = "uploadDate"
	SortName       = "name"
	SortSize       = "size"
	SortType       = "type"
	SortFolder     = "folder"
)

var sortColumns = map[string]string{
	SortUploadDate: "uploaded_at",
	SortName:       "original_name",
	SortSize:       "file_size",
	SortType:       "category",
	SortFolder:     "folder_path",
}

// ListQuery is a validated listing request.
type ListQuery struct {
	Page      int
	Limit     int
	Search    string
	Category  string
	SortBy    string
	SortOrder string
}

// ParseListQuery validates listing parameters. Unknown sort keys fall back to
// uploadDate; limit is capped at maxLimit when maxLimit is positive.
func ParseListQuery(values url.Values, maxLimit int) (ListQuery, error) {
	q := ListQuery{
		Page:      defaultPage,
		Limit:     defaultLimit,
		Search:    strings.TrimSpace(values.Get("search")),
		Category:  strings.TrimSpace(values.Get("category")),
		SortBy:    SortUploadDate,
		SortOrder: "desc",
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return ListQuery{}, invalid("page must be a positive integer")
		}
		q.Page = page
	}
	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return ListQuery{}, invalid("limit must be a positive integer")
		}
		q.Limit = limit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Page > math.MaxInt/q.Limit {
		return ListQuery{}, invalid("page is out of range")
	}

	if raw := strings.TrimSpace(values.Get("sortBy")); raw != "" {
		if _, ok := sortColumns[raw]; ok {
			q.SortBy = raw
		}
	}
	if raw := strings.ToLower(strings.TrimSpace(values.Get("sortOrder"))); raw != "" {
		if raw != "asc" && raw != "desc" {
			return ListQuery{}, invalid("sortOrder must be asc or desc")
		}
		q.SortOrder = raw
	}
	return q, nil
}

// SortColumn returns the storage column for SortBy.
func (q ListQuery) SortColumn() string {
	if col, ok := sortColumns[q.SortBy]; ok {
		return col
	}
	return sortColumns[SortUploadDate]
}

func (q ListQuery) Descending() bool {
	return q.SortOrder != "asc"
}

// Offset saturates at math.MaxInt instead of overflowing.
func (q ListQuery) Offset() int {
	if q.Page <= 1 || q.Limit <= 0 {
		return 0
	}
	if q.Page-1 > math.MaxInt/q.Limit {
		return math.MaxInt
	}
	return (q.Page - 1) * q.Limit
}

// CacheKey is a canonical encoding of every parameter that shapes the page.
func (q ListQuery) CacheKey() string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("search", q.Search)
	v.Set("category", q.Category)
	v.Set("sortBy", q.SortBy)
	v.Set("sortOrder", q.SortOrder)
	return v.Encode()
}

// TotalPages returns ceil(total/limit).
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
