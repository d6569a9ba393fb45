package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/watchparty/server/pkg/rest"
)

var (
	cinemetaBaseUrl      = "https://v3-cinemeta.strem.io"
	openSubtitlesBaseUrl = "https://opensubtitles-v3.strem.io"
)

type cinemetaCatalog struct {
	Metas []struct {
		ImdbId      string `json:"imdb_id"`
		Name        string `json:"name"`
		ReleaseInfo string `json:"releaseInfo"`
	} `json:"metas"`
}

type stremioSubtitles struct {
	Subtitles []struct {
		Id   string `json:"id"`
		Lang string `json:"lang"`
		Url  string `json:"url"`
	} `json:"subtitles"`
}

type subtitleFile struct {
	FileId      int    `json:"file_id"`
	FileName    string `json:"file_name"`
	DownloadUrl string `json:"download_url"`
}

type subtitleAttributes struct {
	FeatureDetails struct {
		Title string `json:"title"`
		Year  string `json:"year"`
	} `json:"feature_details"`
	Language   string         `json:"language"`
	UploadDate string         `json:"upload_date"`
	Files      []subtitleFile `json:"files"`
}

type subtitleResult struct {
	Id         string             `json:"id"`
	Attributes subtitleAttributes `json:"attributes"`
}

// SearchSubtitles resolves a free-text title to an IMDb id via Cinemeta,
// then lists subtitles for it from the Stremio OpenSubtitles addon.
func (h *Handler) SearchSubtitles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "missing query"})
		return
	}

	metaUrl := fmt.Sprintf("%s/catalog/movie/top/search=%s.json", cinemetaBaseUrl, url.PathEscape(query))

	var catalog cinemetaCatalog
	if err := h.fetchJSON(r, metaUrl, &catalog); err != nil {
		h.logger.ErrorContext(r.Context(), "meta fetch failed", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	if len(catalog.Metas) == 0 {
		rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": []subtitleResult{}})
		return
	}

	meta := catalog.Metas[0]
	movieTitle := meta.Name
	if meta.ReleaseInfo != "" {
		movieTitle = fmt.Sprintf("%s (%s)", meta.Name, meta.ReleaseInfo)
	}

	subUrl := fmt.Sprintf("%s/subtitles/movie/%s.json", openSubtitlesBaseUrl, meta.ImdbId)

	var listing stremioSubtitles
	if err := h.fetchJSON(r, subUrl, &listing); err != nil {
		h.logger.ErrorContext(r.Context(), "subtitle fetch failed", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	english := make([]subtitleResult, 0, len(listing.Subtitles))
	other := make([]subtitleResult, 0, len(listing.Subtitles))
	for i, sub := range listing.Subtitles {
		id := sub.Id
		if id == "" {
			id = fmt.Sprintf("%d", i)
		}

		result := subtitleResult{Id: id}
		result.Attributes.FeatureDetails.Title = movieTitle
		result.Attributes.FeatureDetails.Year = meta.ReleaseInfo
		result.Attributes.Language = sub.Lang
		result.Attributes.UploadDate = time.Now().UTC().Format(time.RFC3339)
		result.Attributes.Files = []subtitleFile{{
			FileId:      i,
			FileName:    fmt.Sprintf("Subtitle %s (OpenSubtitles)", sub.Lang),
			DownloadUrl: sub.Url,
		}}

		if strings.HasPrefix(sub.Lang, "eng") {
			english = append(english, result)
		} else {
			other = append(other, result)
		}
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": append(english, other...)})
}

type DownloadSubtitleInput struct {
	Url string `json:"url"`
}

// DownloadSubtitle fetches a subtitle file server-side, since the addon
// hosts do not send CORS headers.
func (h *Handler) DownloadSubtitle(w http.ResponseWriter, r *http.Request) {
	var input DownloadSubtitleInput
	if err := rest.ReadJSON(r, &input); err != nil || input.Url == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "missing url"})
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, input.Url, nil)
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid url"})
		return
	}

	res, err := h.client.Do(req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "subtitle download failed", "error", err)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		h.logger.ErrorContext(r.Context(), "subtitle download failed", "status", res.StatusCode)
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	content, err := io.ReadAll(io.LimitReader(res.Body, 10<<20))
	if err != nil {
		rest.WriteJSON(w, http.StatusInternalServerError, rest.Envelope{"error": "internal server error"})
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"content": string(content)})
}

func (h *Handler) fetchJSON(r *http.Request, rawUrl string, dst any) error {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, rawUrl, nil)
	if err != nil {
		return err
	}

	res, err := h.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d from %s", res.StatusCode, rawUrl)
	}

	return json.NewDecoder(res.Body).Decode(dst)
}
