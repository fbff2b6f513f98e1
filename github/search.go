package github

import (
	"context"
	"errors"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
	"github.com/felixgeelhaar/ghsearch-mcp/server"
)

// SearchToolName is the registered name of the repository search tool.
const SearchToolName = "search_repositories"

// Paging defaults and bounds. GitHub caps a search page at 100 results.
const (
	DefaultPage    = 1
	DefaultPerPage = 30
	MaxPerPage     = 100
)

// SearchRepositoriesParams are the tool parameters.
type SearchRepositoriesParams struct {
	Query   string `json:"query" jsonschema:"required,description=Search query using GitHub search syntax"`
	Page    *int   `json:"page,omitempty" jsonschema:"minimum=1,description=Page number (default 1)"`
	PerPage *int   `json:"per_page,omitempty" jsonschema:"minimum=1,maximum=100,description=Results per page (default 30, max 100)"`
}

// UnmarshalJSON requires query to be present. Any string is accepted,
// including an empty one; GitHub decides whether it is a usable query.
func (p *SearchRepositoriesParams) UnmarshalJSON(data []byte) error {
	type plain SearchRepositoriesParams
	var raw struct {
		plain
		Query *string `json:"query"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Query == nil {
		return errors.New("query is required")
	}
	*p = SearchRepositoriesParams(raw.plain)
	p.Query = *raw.Query
	return nil
}

// Resolve applies defaults and range checks.
func (p SearchRepositoriesParams) Resolve() (SearchQuery, error) {
	q := SearchQuery{Query: p.Query, Page: DefaultPage, PerPage: DefaultPerPage}
	if p.Page != nil {
		if *p.Page < 1 {
			return SearchQuery{}, fmt.Errorf("page must be at least 1, got %d", *p.Page)
		}
		q.Page = *p.Page
	}
	if p.PerPage != nil {
		if *p.PerPage < 1 || *p.PerPage > MaxPerPage {
			return SearchQuery{}, fmt.Errorf("per_page must be between 1 and %d, got %d", MaxPerPage, *p.PerPage)
		}
		q.PerPage = *p.PerPage
	}
	return q, nil
}

// SearchResult is one page of matching repositories.
type SearchResult struct {
	TotalCount int          `json:"total_count"`
	Items      []Repository `json:"items"`
}

// Repository is the summary returned for each match.
type Repository struct {
	Name        string  `json:"name"`
	FullName    string  `json:"full_name"`
	Description *string `json:"description,omitempty"`
	URL         string  `json:"url"`
	StarCount   int     `json:"star_count"`
}

// SearchHandler returns the tool handler backed by s.
func SearchHandler(s Searcher) func(ctx context.Context, p SearchRepositoriesParams) (*SearchResult, error) {
	return func(ctx context.Context, p SearchRepositoriesParams) (*SearchResult, error) {
		q, err := p.Resolve()
		if err != nil {
			return nil, protocol.NewInvalidParams(err.Error())
		}

		result, err := s.SearchRepositories(ctx, q)
		if err != nil {
			return nil, err
		}
		if result == nil {
			result = &SearchResult{}
		}
		if result.Items == nil {
			result.Items = []Repository{}
		}
		return result, nil
	}
}

// NewSearchTool builds the search_repositories tool.
func NewSearchTool(s Searcher) (*server.Tool, error) {
	return server.NewTool(SearchToolName, "Search for GitHub repositories", SearchHandler(s))
}
