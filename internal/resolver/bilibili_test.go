package resolver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/starfreedomx/ktv-cast-go/internal/apperrors"
)

func stubAPI(t *testing.T, viewCode int, playCode int, durl string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/x/web-interface/view", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": viewCode,
			"data": map[string]any{
				"cid": 111,
				"pages": []map[string]any{
					{"cid": 111, "page": 1},
					{"cid": 222, "page": 2},
				},
			},
		})
	})
	mux.HandleFunc("/x/player/playurl", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code": playCode,
			"data": map[string]any{
				"durl": []map[string]any{{"url": durl + "?cid=" + r.URL.Query().Get("cid")}},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestResolveDefaultPage(t *testing.T) {
	srv := stubAPI(t, 0, 0, "https://cdn.example.com/video.mp4")
	r := NewBilibiliWithBase(srv.URL, 2*time.Second)

	mediaURL, headers, err := r.Resolve(context.Background(), "BV1xx411c7mD", 0)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/video.mp4?cid=111", mediaURL)
	require.Equal(t, "https://www.bilibili.com/", headers.Get("Referer"))
	require.NotEmpty(t, headers.Get("User-Agent"))
}

func TestResolveSelectsPageCid(t *testing.T) {
	srv := stubAPI(t, 0, 0, "https://cdn.example.com/video.mp4")
	r := NewBilibiliWithBase(srv.URL, 2*time.Second)

	mediaURL, _, err := r.Resolve(context.Background(), "BV1xx411c7mD", 2)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/video.mp4?cid=222", mediaURL)
}

func TestResolveUnknownPage(t *testing.T) {
	srv := stubAPI(t, 0, 0, "https://cdn.example.com/video.mp4")
	r := NewBilibiliWithBase(srv.URL, 2*time.Second)

	_, _, err := r.Resolve(context.Background(), "BV1xx411c7mD", 9)
	require.Error(t, err)
	require.Equal(t, apperrors.ErrorCodeResolverFailed, apperrors.CodeOf(err))
}

func TestResolveViewAPIError(t *testing.T) {
	srv := stubAPI(t, -404, 0, "")
	r := NewBilibiliWithBase(srv.URL, 2*time.Second)

	_, _, err := r.Resolve(context.Background(), "BV1bad", 0)
	require.Equal(t, apperrors.ErrorCodeResolverFailed, apperrors.CodeOf(err))
}

func TestResolvePlayurlAPIError(t *testing.T) {
	srv := stubAPI(t, 0, -403, "")
	r := NewBilibiliWithBase(srv.URL, 2*time.Second)

	_, _, err := r.Resolve(context.Background(), "BV1xx411c7mD", 0)
	require.Equal(t, apperrors.ErrorCodeResolverFailed, apperrors.CodeOf(err))
}
