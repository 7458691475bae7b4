package webclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "pre blocks",
			html: `<html><body><h1>NOTAM</h1><pre>
E) TEST AREA CIRCLE WITH RADIUS 5 NM
CENTERED ON 401200N 0734500W
</pre><pre>  </pre><pre>E) SECOND</pre></body></html>`,
			want: "E) TEST AREA CIRCLE WITH RADIUS 5 NM\nCENTERED ON 401200N 0734500W\nE) SECOND",
		},
		{
			name: "table cells with item e",
			html: `<table><tr><td>A1234/26</td><td>E) DANGER AREA</td></tr>
<tr><td><table><tr><td>E) NESTED</td></tr></table></td></tr></table>`,
			want: "E) DANGER AREA\nE) NESTED",
		},
		{
			name: "body fallback",
			html: `<html><body><p>E) PLAIN</p></body></html>`,
			want: "E) PLAIN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractText(strings.NewReader(tt.html))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFetchText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/page":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><body><pre>E) FROM HTML</pre></body></html>`))
		case "/plain":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("E) FROM TEXT\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c, err := New(5 * time.Second)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := c.FetchText(ctx, srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, "E) FROM HTML", got)

	got, err = c.FetchText(ctx, srv.URL+"/plain")
	require.NoError(t, err)
	assert.Equal(t, "E) FROM TEXT\n", got)

	_, err = c.FetchText(ctx, srv.URL+"/missing")
	assert.ErrorContains(t, err, "404")
}

func TestFetchTextKeepsCookies(t *testing.T) {
	var sawCookie bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("session"); err == nil {
			sawCookie = true
		}
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc", Path: "/"})
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("E) X"))
	}))
	defer srv.Close()

	c, err := New(5 * time.Second)
	require.NoError(t, err)

	_, err = c.FetchText(context.Background(), srv.URL)
	require.NoError(t, err)
	_, err = c.FetchText(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.True(t, sawCookie)
}
