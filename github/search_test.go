package github

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/ghsearch-mcp/protocol"
)

func intPtr(n int) *int { return &n }

type recordingSearcher struct {
	queries []SearchQuery
	result  *SearchResult
	err     error
}

func (s *recordingSearcher) SearchRepositories(_ context.Context, q SearchQuery) (*SearchResult, error) {
	s.queries = append(s.queries, q)
	return s.result, s.err
}

func TestSearchRepositoriesParams_UnmarshalJSON(t *testing.T) {
	var p SearchRepositoriesParams
	require.NoError(t, json.Unmarshal([]byte(`{"query":"go","page":2,"per_page":5}`), &p))
	assert.Equal(t, "go", p.Query)
	require.NotNil(t, p.Page)
	require.NotNil(t, p.PerPage)
	assert.Equal(t, 2, *p.Page)
	assert.Equal(t, 5, *p.PerPage)

	var empty SearchRepositoriesParams
	require.NoError(t, json.Unmarshal([]byte(`{"query":""}`), &empty))
	assert.Equal(t, "", empty.Query)

	assert.Error(t, json.Unmarshal([]byte(`{}`), &p))
	assert.Error(t, json.Unmarshal([]byte(`{"query":null}`), &p))
}

func TestSearchRepositoriesParams_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		params  SearchRepositoriesParams
		want    SearchQuery
		wantErr string
	}{
		{
			name:   "defaults",
			params: SearchRepositoriesParams{Query: "go"},
			want:   SearchQuery{Query: "go", Page: 1, PerPage: 30},
		},
		{
			name:   "explicit paging",
			params: SearchRepositoriesParams{Query: "go", Page: intPtr(3), PerPage: intPtr(100)},
			want:   SearchQuery{Query: "go", Page: 3, PerPage: 100},
		},
		{
			name:    "page zero",
			params:  SearchRepositoriesParams{Query: "go", Page: intPtr(0)},
			wantErr: "page must be at least 1",
		},
		{
			name:    "per_page zero",
			params:  SearchRepositoriesParams{Query: "go", PerPage: intPtr(0)},
			wantErr: "per_page must be between 1 and 100",
		},
		{
			name:    "per_page too large",
			params:  SearchRepositoriesParams{Query: "go", PerPage: intPtr(101)},
			wantErr: "per_page must be between 1 and 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.params.Resolve()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSearchTool(t *testing.T) {
	ctx := context.Background()
	desc := "A language"

	t.Run("descriptor", func(t *testing.T) {
		tool, err := NewSearchTool(&recordingSearcher{})
		require.NoError(t, err)

		d := tool.Descriptor()
		assert.Equal(t, "search_repositories", d.Name)
		assert.Equal(t, "Search for GitHub repositories", d.Description)
		assert.Equal(t, []string{"query"}, d.InputSchema.Required)
		require.Contains(t, d.InputSchema.Properties, "per_page")
		assert.Equal(t, "integer", d.InputSchema.Properties["per_page"].Type)
		assert.Equal(t, 100.0, *d.InputSchema.Properties["per_page"].Maximum)
	})

	t.Run("success serializes the wire shape", func(t *testing.T) {
		searcher := &recordingSearcher{result: &SearchResult{
			TotalCount: 1,
			Items: []Repository{{
				Name: "go", FullName: "golang/go", Description: &desc,
				URL: "https://github.com/golang/go", StarCount: 5,
			}},
		}}
		tool, err := NewSearchTool(searcher)
		require.NoError(t, err)

		result, err := tool.Execute(ctx, json.RawMessage(`{"query":"go","per_page":10}`))
		require.NoError(t, err)

		require.Len(t, searcher.queries, 1)
		assert.Equal(t, SearchQuery{Query: "go", Page: 1, PerPage: 10}, searcher.queries[0])

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"total_count": 1,
			"items": [{
				"name": "go",
				"full_name": "golang/go",
				"description": "A language",
				"url": "https://github.com/golang/go",
				"star_count": 5
			}]
		}`, string(data))
	})

	t.Run("missing description is omitted", func(t *testing.T) {
		data, err := json.Marshal(Repository{Name: "x", FullName: "a/x", URL: "u"})
		require.NoError(t, err)
		assert.NotContains(t, string(data), "description")
	})

	t.Run("nil items become an empty list", func(t *testing.T) {
		tool, err := NewSearchTool(&recordingSearcher{result: &SearchResult{}})
		require.NoError(t, err)

		result, err := tool.Execute(ctx, json.RawMessage(`{"query":"nothing"}`))
		require.NoError(t, err)

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.JSONEq(t, `{"total_count":0,"items":[]}`, string(data))
	})

	errorCases := []struct {
		name     string
		params   string
		wantCode int
	}{
		{"missing query", `{}`, protocol.CodeParseError},
		{"null query", `{"query":null}`, protocol.CodeParseError},
		{"query wrong type", `{"query":5}`, protocol.CodeParseError},
		{"fractional page", `{"query":"go","page":1.5}`, protocol.CodeParseError},
		{"page zero", `{"query":"go","page":0}`, protocol.CodeInvalidParams},
		{"negative page", `{"query":"go","page":-2}`, protocol.CodeInvalidParams},
		{"per_page over limit", `{"query":"go","per_page":101}`, protocol.CodeInvalidParams},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &recordingSearcher{result: &SearchResult{}}
			tool, err := NewSearchTool(searcher)
			require.NoError(t, err)

			_, err = tool.Execute(ctx, json.RawMessage(tt.params))

			var rpcErr *protocol.Error
			require.ErrorAs(t, err, &rpcErr)
			assert.Equal(t, tt.wantCode, rpcErr.Code)
			assert.Empty(t, searcher.queries, "backend must not be called")
		})
	}

	t.Run("backend failure is returned as is", func(t *testing.T) {
		backendErr := errors.New("search repositories: 502 Bad Gateway")
		tool, err := NewSearchTool(&recordingSearcher{err: backendErr})
		require.NoError(t, err)

		_, err = tool.Execute(ctx, json.RawMessage(`{"query":"go"}`))
		assert.ErrorIs(t, err, backendErr)
	})

	t.Run("empty query is forwarded", func(t *testing.T) {
		searcher := &recordingSearcher{result: &SearchResult{}}
		tool, err := NewSearchTool(searcher)
		require.NoError(t, err)

		_, err = tool.Execute(ctx, json.RawMessage(`{"query":""}`))
		require.NoError(t, err)
		require.Len(t, searcher.queries, 1)
		assert.Equal(t, "", searcher.queries[0].Query)
	})

	t.Run("nil result becomes an empty page", func(t *testing.T) {
		s := SearcherFunc(func(context.Context, SearchQuery) (*SearchResult, error) {
			return nil, nil
		})
		tool, err := NewSearchTool(s)
		require.NoError(t, err)

		result, err := tool.Execute(ctx, json.RawMessage(`{"query":"x"}`))
		require.NoError(t, err)

		data, err := json.Marshal(result)
		require.NoError(t, err)
		assert.JSONEq(t, `{"total_count":0,"items":[]}`, string(data))
	})

	t.Run("SearcherFunc", func(t *testing.T) {
		var got SearchQuery
		s := SearcherFunc(func(_ context.Context, q SearchQuery) (*SearchResult, error) {
			got = q
			return &SearchResult{}, nil
		})
		_, err := SearchHandler(s)(ctx, SearchRepositoriesParams{Query: "x", Page: intPtr(2)})
		require.NoError(t, err)
		assert.Equal(t, SearchQuery{Query: "x", Page: 2, PerPage: 30}, got)
	})
}
