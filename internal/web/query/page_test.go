package query

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		expected   Page
		parameters []string
	}{
		{"defaults", "/people", Page{Limit: DefaultPageLimit}, nil},
		{"explicit", "/people?page[limit]=10&page[offset]=30", Page{Limit: 10, Offset: 30}, nil},
		{"limit too large", "/people?page[limit]=1000", Page{}, []string{"page[limit]"}},
		{"invalid values", "/people?page[limit]=0&page[offset]=-1", Page{}, []string{"page[limit]", "page[offset]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			page, err := ParsePage(req)
			if len(tt.parameters) == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.expected, page)
				return
			}

			var qerr *Error
			require.True(t, errors.As(err, &qerr))
			var got []string
			for _, v := range qerr.Violations {
				got = append(got, v.Parameter)
			}
			assert.Equal(t, tt.parameters, got)
		})
	}
}
