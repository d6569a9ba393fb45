package proxy

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/exec"
	"strings"

	"github.com/watchparty/server/pkg/rest"
)

// Headers some debrid hosts expect before serving a stream.
const (
	streamUserAgent  = "VLC/3.0.18 LibVLC/3.0.18"
	streamReferer    = "https://real-debrid.com/"
	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

type Handler struct {
	client     *http.Client
	ffmpegPath string
	logger     *slog.Logger
}

func NewHandler(ffmpegPath string, logger *slog.Logger) *Handler {
	// no client timeout: video responses stream for as long as the viewer
	// watches, and request contexts already cancel abandoned transfers
	return &Handler{
		client:     &http.Client{},
		ffmpegPath: ffmpegPath,
		logger:     logger,
	}
}

// ProxyVideo streams a remote video through the server. MKV sources are
// remuxed to fragmented MP4 on the fly so browsers can play them; anything
// else is forwarded as-is with Range support intact.
func (h *Handler) ProxyVideo(w http.ResponseWriter, r *http.Request) {
	videoUrl := r.URL.Query().Get("url")
	if videoUrl == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "missing url parameter"})
		return
	}

	if strings.Contains(strings.ToLower(videoUrl), ".mkv") {
		h.transcodeVideo(w, r, videoUrl)
		return
	}

	h.forwardVideo(w, r, videoUrl)
}

func (h *Handler) transcodeVideo(w http.ResponseWriter, r *http.Request, videoUrl string) {
	// Probe the source first so a dead link fails fast instead of leaving
	// ffmpeg to time out against it.
	req, err := http.NewRequestWithContext(r.Context(), http.MethodHead, videoUrl, nil)
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid url"})
		return
	}
	req.Header.Set("User-Agent", streamUserAgent)

	checkRes, err := h.client.Do(req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "remote url check failed", "error", err)
		http.Redirect(w, r, videoUrl, http.StatusFound)
		return
	}
	checkRes.Body.Close()
	if checkRes.StatusCode >= 400 {
		h.logger.ErrorContext(r.Context(), "remote url check failed", "status", checkRes.StatusCode)
		http.Error(w, "upstream source failed", http.StatusBadGateway)
		return
	}

	args := []string{
		"-headers", fmt.Sprintf("User-Agent: %s\r\nReferer: %s", streamUserAgent, streamReferer),
	}
	// Seeking on the input side is near-instant even on remote sources.
	if startTime := r.URL.Query().Get("startTime"); startTime != "" {
		args = append(args, "-ss", startTime)
	}
	args = append(args,
		"-i", videoUrl,
		"-c:v", "libx264",
		"-preset", "ultrafast",
		"-tune", "zerolatency",
		"-profile:v", "main",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-ar", "44100",
		"-ac", "2",
		"-movflags", "frag_keyframe+empty_moov+default_base_moof",
		"-f", "mp4",
		"pipe:1",
	)

	// The request context kills ffmpeg when the client goes away.
	cmd := exec.CommandContext(r.Context(), h.ffmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		http.Error(w, "ffmpeg failed to start", http.StatusInternalServerError)
		return
	}
	cmd.Stderr = &ffmpegLogWriter{logger: h.logger}

	if err := cmd.Start(); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to spawn ffmpeg", "error", err)
		http.Error(w, "ffmpeg failed to start", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(newFlushWriter(w), stdout); err != nil {
		h.logger.DebugContext(r.Context(), "transcode stream interrupted", "error", err)
	}

	if err := cmd.Wait(); err != nil {
		h.logger.DebugContext(r.Context(), "ffmpeg exited", "error", err)
	}
}

func (h *Handler) forwardVideo(w http.ResponseWriter, r *http.Request, videoUrl string) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, videoUrl, nil)
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid url"})
		return
	}
	req.Header.Set("User-Agent", browserUserAgent)
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	res, err := h.client.Do(req)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "proxy fetch failed", "error", err)
		// Let the browser try the source directly instead of surfacing an
		// opaque proxy error.
		http.Redirect(w, r, videoUrl, http.StatusFound)
		return
	}
	defer res.Body.Close()

	contentType := res.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Accept-Ranges", "bytes")
	if cl := res.Header.Get("Content-Length"); cl != "" {
		w.Header().Set("Content-Length", cl)
	}
	if cr := res.Header.Get("Content-Range"); cr != "" {
		w.Header().Set("Content-Range", cr)
	}
	w.WriteHeader(res.StatusCode)

	if _, err := io.Copy(w, res.Body); err != nil {
		h.logger.DebugContext(r.Context(), "proxy stream interrupted", "error", err)
	}
}

// ffmpegLogWriter funnels ffmpeg's stderr chatter into debug logs.
type ffmpegLogWriter struct {
	logger *slog.Logger
}

func (l *ffmpegLogWriter) Write(p []byte) (int, error) {
	l.logger.Debug("ffmpeg", "output", strings.TrimSpace(string(p)))
	return len(p), nil
}

type flushWriter struct {
	w       io.Writer
	flusher http.Flusher
}

func newFlushWriter(w http.ResponseWriter) io.Writer {
	fw := &flushWriter{w: w}
	if flusher, ok := w.(http.Flusher); ok {
		fw.flusher = flusher
	}

	return fw
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if fw.flusher != nil {
		fw.flusher.Flush()
	}

	return n, err
}
