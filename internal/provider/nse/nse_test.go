package nse_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"nsemirror/internal/httpx"
	"nsemirror/internal/provider"
	"nsemirror/internal/provider/nse"
)

func htmlResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestFetch_Fixture(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock controller
	ctrl := gomock.NewController(t)

	fixture, err := os.ReadFile("testdata/listing.html")
	require.NoError(t, err)

	// Arrange: create a mock HTTP client
	httpClient := NewMockHTTPClient(ctrl)

	// Assert: a single GET to the configured page with our headers
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.Equal(t, "https://example.test/nse/", req.URL.String())
			require.Equal(t, "bar", req.Header.Get("foo"))
			require.Contains(t, req.Header.Get("Accept"), "text/html")
			return htmlResponse(http.StatusOK, string(fixture)), nil
		}).
		Times(1)

	p := nse.New(
		nse.WithURL("https://example.test/nse/"),
		nse.WithHTTPClient(httpClient),
		nse.WithHeader(http.Header{"foo": []string{"bar"}}),
	)

	// Act
	recs, err := p.Fetch(t.Context())

	// Assert
	require.NoError(t, err)
	require.Len(t, recs, 4)
	require.Equal(t, "ABSA", recs[0].Ticker)
	require.Equal(t, "SCOM", recs[3].Ticker)
}

func TestFetch_ErrPerformingRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(nil, errors.New("dial tcp: connection refused")).
		Times(1)

	p := nse.New(nse.WithHTTPClient(httpClient))

	recs, err := p.Fetch(t.Context())
	require.Error(t, err)
	require.Nil(t, recs)
	require.Equal(t, provider.KindTransport, provider.KindOf(err))
}

func TestFetch_ErrUnexpectedStatusCode(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(htmlResponse(http.StatusServiceUnavailable, "down for maintenance"), nil).
		Times(1)

	p := nse.New(nse.WithHTTPClient(httpClient))

	recs, err := p.Fetch(t.Context())
	require.Error(t, err)
	require.Nil(t, recs)
	require.Equal(t, provider.KindTransport, provider.KindOf(err))
	require.Contains(t, err.Error(), "503")
}

func TestFetch_ErrNoTable(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(htmlResponse(http.StatusOK, "<html><body><p>nothing here</p></body></html>"), nil).
		Times(1)

	p := nse.New(nse.WithHTTPClient(httpClient))

	recs, err := p.Fetch(t.Context())
	require.Nil(t, recs)
	require.Equal(t, provider.KindStructure, provider.KindOf(err))
}

func TestFetch_ErrNoUsableRows(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(htmlResponse(http.StatusOK, `<table><tbody>
			<tr><td></td><td>Beta</td><td>300</td><td>bad</td><td>-0.2%</td></tr>
			<tr><td>X</td><td>short</td></tr>
		</tbody></table>`), nil).
		Times(1)

	p := nse.New(nse.WithHTTPClient(httpClient))

	recs, err := p.Fetch(t.Context())
	require.Nil(t, recs)
	require.Equal(t, provider.KindEmpty, provider.KindOf(err))

	var fe *provider.FetchError
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "NSE", fe.Source)
}

func TestFetch_ErrCreatingRequest(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Times(0)

	p := nse.New(nse.WithHTTPClient(httpClient), nse.WithURL(string([]rune{0x7f})))

	recs, err := p.Fetch(t.Context())
	require.Error(t, err)
	require.Nil(t, recs)
}

func TestCollect_FoldsFailureIntoEmpty(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(nil, errors.New("timeout")).
		Times(1)

	recs := provider.Collect(t.Context(), nse.New(nse.WithHTTPClient(httpClient)))
	require.NotNil(t, recs)
	require.Empty(t, recs)
}

func TestFetch_OverHTTP(t *testing.T) {
	t.Parallel()

	fixture, err := os.ReadFile("testdata/listing.html")
	require.NoError(t, err)

	uaCh := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case uaCh <- r.Header.Get("User-Agent"):
		default:
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write(fixture)
	}))
	t.Cleanup(srv.Close)

	hc := httpx.New(2 * time.Second)
	hc.UserAgent = "nsemirror/test"
	p := nse.New(nse.WithURL(srv.URL), nse.WithHTTPClient(hc))

	recs, err := p.Fetch(t.Context())
	require.NoError(t, err)
	require.Len(t, recs, 4)
	require.Equal(t, "nsemirror/test", <-uaCh)
}

func TestFetch_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	p := nse.New(nse.WithURL(srv.URL), nse.WithHTTPClient(httpx.New(100*time.Millisecond)))

	recs, err := p.Fetch(t.Context())
	require.Nil(t, recs)
	require.Equal(t, provider.KindTransport, provider.KindOf(err))
}
