package client

import "strings"

// LibraryState tracks the document library's listing controls. Changing the
// search, category, or sort sends the user back to the first page.
type LibraryState struct {
	params FilesParams
}

// NewLibraryState starts at page 1 with the given page size.
func NewLibraryState(limit int) *LibraryState {
	return &LibraryState{params: FilesParams{Page: 1, Limit: limit}}
}

// Params returns the current listing parameters.
func (s *LibraryState) Params() FilesParams {
	return s.params
}

func (s *LibraryState) SetSearch(search string) {
	search = strings.TrimSpace(search)
	if search != s.params.Search {
		s.params.Search = search
		s.params.Page = 1
	}
}

func (s *LibraryState) SetCategory(category string) {
	category = strings.TrimSpace(category)
	if category != s.params.Category {
		s.params.Category = category
		s.params.Page = 1
	}
}

func (s *LibraryState) SetSort(sortBy, sortOrder string) {
	if sortBy != s.params.SortBy || sortOrder != s.params.SortOrder {
		s.params.SortBy = sortBy
		s.params.SortOrder = sortOrder
		s.params.Page = 1
	}
}

// SetPage moves to page p. Values below 1 are ignored.
func (s *LibraryState) SetPage(p int) {
	if p >= 1 {
		s.params.Page = p
	}
}

// Next advances one page unless the last known page is reached.
func (s *LibraryState) Next(totalPages int) {
	if s.params.Page < totalPages {
		s.params.Page++
	}
}

func (s *LibraryState) Prev() {
	if s.params.Page > 1 {
		s.params.Page--
	}
}
