package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/starfreedomx/ktv-cast-go/internal/apperrors"
)

const (
	defaultAPIBase = "https://api.bilibili.com"
	siteReferer    = "https://www.bilibili.com/"
	desktopUA      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"
)

// Bilibili resolves bvid/page references through the public playurl API.
// Two calls per resolve: view (bvid -> cid for the page) then playurl
// (cid -> signed direct link).
type Bilibili struct {
	apiBase    string
	httpClient *http.Client
}

// NewBilibili creates a resolver with the given per-call timeout.
func NewBilibili(timeout time.Duration) *Bilibili {
	return &Bilibili{
		apiBase:    defaultAPIBase,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// NewBilibiliWithBase is used by tests to point at a stub API.
func NewBilibiliWithBase(apiBase string, timeout time.Duration) *Bilibili {
	r := NewBilibili(timeout)
	r.apiBase = apiBase
	return r
}

type viewResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"message"`
	Data struct {
		Cid   int64 `json:"cid"`
		Pages []struct {
			Cid  int64 `json:"cid"`
			Page int   `json:"page"`
		} `json:"pages"`
	} `json:"data"`
}

type playurlResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"message"`
	Data struct {
		Durl []struct {
			URL string `json:"url"`
		} `json:"durl"`
	} `json:"data"`
}

// Resolve returns the direct media URL for a bvid and optional page
// (1-based; 0 means the first page), plus the headers the CDN requires.
func (r *Bilibili) Resolve(ctx context.Context, videoID string, page int) (string, http.Header, error) {
	var view viewResponse
	viewURL := fmt.Sprintf("%s/x/web-interface/view?bvid=%s", r.apiBase, url.QueryEscape(videoID))
	if err := r.getJSON(ctx, viewURL, &view); err != nil {
		return "", nil, err
	}
	if view.Code != 0 {
		return "", nil, apperrors.New(apperrors.ErrorCodeResolverFailed,
			fmt.Sprintf("view api code %d: %s", view.Code, view.Msg))
	}

	cid := view.Data.Cid
	if page > 0 {
		found := false
		for _, p := range view.Data.Pages {
			if p.Page == page {
				cid = p.Cid
				found = true
				break
			}
		}
		if !found {
			return "", nil, apperrors.New(apperrors.ErrorCodeResolverFailed,
				fmt.Sprintf("page %d not found for %s", page, videoID))
		}
	}
	if cid == 0 {
		return "", nil, apperrors.New(apperrors.ErrorCodeResolverFailed, "no cid for "+videoID)
	}

	var play playurlResponse
	playURL := fmt.Sprintf("%s/x/player/playurl?bvid=%s&cid=%d&qn=64&platform=html5&high_quality=1",
		r.apiBase, url.QueryEscape(videoID), cid)
	if err := r.getJSON(ctx, playURL, &play); err != nil {
		return "", nil, err
	}
	if play.Code != 0 || len(play.Data.Durl) == 0 {
		return "", nil, apperrors.New(apperrors.ErrorCodeResolverFailed,
			fmt.Sprintf("playurl api code %d: %s", play.Code, play.Msg))
	}

	headers := http.Header{}
	headers.Set("Referer", siteReferer)
	headers.Set("User-Agent", desktopUA)
	return play.Data.Durl[0].URL, headers, nil
}

func (r *Bilibili) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorCodeResolverFailed, "build request", err)
	}
	req.Header.Set("Referer", siteReferer)
	req.Header.Set("User-Agent", desktopUA)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrorCodeResolverFailed, "call api", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apperrors.New(apperrors.ErrorCodeResolverFailed,
			fmt.Sprintf("api returned http %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(apperrors.ErrorCodeResolverFailed, "decode api response", err)
	}
	return nil
}
