package router

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/samber/mo"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	controllers "videofetch/controller"
	"videofetch/logging"
	"videofetch/models"
	"videofetch/selector"
	"videofetch/services"
	"videofetch/sse"
)

type countingExtractor struct {
	catalog *models.Catalog
	err     error
	calls   atomic.Int32
}

func (c *countingExtractor) Extract(_ context.Context, _ string) (*models.Catalog, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	return c.catalog, nil
}

type testEnv struct {
	server        *httptest.Server
	extractor     *countingExtractor
	upstreamCalls *atomic.Int32
	hub           *sse.Hub
}

func newTestEnv(t *testing.T, body string) *testEnv {
	t.Helper()

	upstreamCalls := &atomic.Int32{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(upstream.Close)

	extractor := &countingExtractor{catalog: &models.Catalog{
		Title:    "Clip",
		Duration: mo.Some(125.0),
		Formats: []models.Variant{
			{FormatID: "18", Ext: "mp4", HasVideo: true, HasAudio: true, Height: mo.Some(360), TotalBitrate: mo.Some(500.0), URL: upstream.URL + "/18"},
			{FormatID: "251", Ext: "webm", HasAudio: true, AverageBitrate: mo.Some(130.0), URL: upstream.URL + "/251"},
			{FormatID: "bad", Ext: "webm", HasAudio: true, AverageBitrate: mo.Some(50.0), URL: upstream.URL + "/broken"},
		},
	}}

	hub := sse.NewHub(64)
	opts := selector.DefaultOptions()
	proxy := services.NewProxy(upstream.Client(), "", nil)
	h := controllers.NewHandler(
		services.NewLookupService(extractor, opts, nil),
		services.NewDownloadService(extractor, proxy, opts, hub, nil),
		hub,
		nil,
	)
	engine := SetupRouter(h, zap.NewNop())
	server := httptest.NewServer(WithCORS(engine, []string{"*"}))
	t.Cleanup(server.Close)

	return &testEnv{server: server, extractor: extractor, upstreamCalls: upstreamCalls, hub: hub}
}

func decodeError(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body["error"]
}

func TestLookupEndpoint(t *testing.T) {
	env := newTestEnv(t, "")

	for _, path := range []string{"/lookup", "/api/youtube"} {
		resp, err := http.Post(env.server.URL+path, "application/json", strings.NewReader(`{"url":"https://youtu.be/abc"}`))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)

		var got models.LookupResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		resp.Body.Close()
		require.Equal(t, "Clip", got.Title)
		require.Equal(t, "2m 5s", got.Duration)
		require.NotNil(t, got.Streams.VideoAudio)
		require.NotNil(t, got.Streams.Progressive360)
		require.Len(t, got.Streams.Audio, 2)
		require.NotEmpty(t, resp.Header.Get(logging.RequestIDHeader))
	}
}

func TestLookupMissingURL(t *testing.T) {
	env := newTestEnv(t, "")

	resp, err := http.Post(env.server.URL+"/lookup", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "No URL provided", decodeError(t, resp))
	require.Zero(t, env.extractor.calls.Load())
}

func TestLookupExtractionFailure(t *testing.T) {
	env := newTestEnv(t, "")
	env.extractor.err = errors.New("ERROR: [youtube] abc: Video unavailable")

	resp, err := http.Post(env.server.URL+"/lookup", "application/json", strings.NewReader(`{"url":"https://youtu.be/abc"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, "ERROR: [youtube] abc: Video unavailable", decodeError(t, resp))
}

func TestDownloadMissingURLMakesNoCalls(t *testing.T) {
	env := newTestEnv(t, "payload")

	for _, path := range []string{"/download/by-format?format_id=18", "/download/best", "/api/download_best_get?filename=x"} {
		resp, err := http.Get(env.server.URL + path)
		require.NoError(t, err)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
		require.Equal(t, "URL is required", decodeError(t, resp))
		resp.Body.Close()
	}
	require.Zero(t, env.extractor.calls.Load())
	require.Zero(t, env.upstreamCalls.Load())
}

func TestDownloadByFormatMissingFormatID(t *testing.T) {
	env := newTestEnv(t, "payload")

	resp, err := http.Get(env.server.URL + "/download/by-format?url=https://youtu.be/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Format ID is required", decodeError(t, resp))
	require.Zero(t, env.extractor.calls.Load())
}

func TestDownloadByFormatStreams(t *testing.T) {
	payload := strings.Repeat("audio-bytes", 50_000)
	env := newTestEnv(t, payload)

	resp, err := http.Get(env.server.URL + "/download/by-format?url=https://youtu.be/abc&format_id=251&filename=my%2Fsong%3A1&ext=webm")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `attachment; filename="mysong1.webm"`, resp.Header.Get("Content-Disposition"))
	require.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, payload, string(body))
}

func TestDownloadByFormatUnknownFormat(t *testing.T) {
	env := newTestEnv(t, "payload")

	resp, err := http.Get(env.server.URL + "/api/download_id_get?url=https://youtu.be/abc&format_id=nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "Format not found", decodeError(t, resp))
	require.Zero(t, env.upstreamCalls.Load())
}

func TestDownloadUpstreamErrorIsJSON(t *testing.T) {
	env := newTestEnv(t, "payload")

	resp, err := http.Get(env.server.URL + "/download/by-format?url=https://youtu.be/abc&format_id=bad")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Empty(t, resp.Header.Get("Content-Disposition"))
	require.Contains(t, decodeError(t, resp), "404")
}

func TestDownloadBest(t *testing.T) {
	env := newTestEnv(t, "video-bytes")

	resp, err := http.Get(env.server.URL + "/download/best?url=https://youtu.be/abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `attachment; filename="video.mp4"`, resp.Header.Get("Content-Disposition"))
	require.Equal(t, "video/mp4", resp.Header.Get("Content-Type"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "video-bytes", string(body))
}

func TestDownloadBestWithoutCombined(t *testing.T) {
	env := newTestEnv(t, "")
	env.extractor.catalog = &models.Catalog{Formats: env.extractor.catalog.Formats[1:]}

	resp, err := http.Get(env.server.URL + "/download/best?url=https://youtu.be/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "No suitable format found", decodeError(t, resp))
}

func TestCORSExposesDisposition(t *testing.T) {
	env := newTestEnv(t, "x")

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/download/best?url=https://youtu.be/abc", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://frontend.example")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	require.Contains(t, resp.Header.Get("Access-Control-Expose-Headers"), "Content-Disposition")
}

func waitForSubscriber(t *testing.T, hub *sse.Hub, id string) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Subscribers(id) > 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestProgressEventsOverSSE(t *testing.T) {
	env := newTestEnv(t, "progress-bytes")

	resp, err := http.Get(env.server.URL + "/progress/abc123/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	waitForSubscriber(t, env.hub, "abc123")

	dl, err := http.Get(env.server.URL + "/download/best?url=https://youtu.be/abc&request_id=abc123")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, dl.Body)
	dl.Body.Close()

	var statuses []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		var p models.DownloadProgress
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &p))
		statuses = append(statuses, p.Status)
	}
	require.Equal(t, "start", statuses[0])
	require.Equal(t, "completed", statuses[len(statuses)-1])
}

func TestProgressOverWebSocket(t *testing.T) {
	env := newTestEnv(t, "ws-bytes")

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/progress/ws-1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForSubscriber(t, env.hub, "ws-1")

	dl, err := http.Get(env.server.URL + "/download/by-format?url=https://youtu.be/abc&format_id=251&request_id=ws-1")
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, dl.Body)
	dl.Body.Close()

	var last models.DownloadProgress
	for {
		var msg struct {
			Event   string                  `json:"event"`
			Payload models.DownloadProgress `json:"payload"`
		}
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		require.Equal(t, "progress", msg.Event)
		last = msg.Payload
	}
	require.Equal(t, "completed", last.Status)
	require.Equal(t, int64(len("ws-bytes")), last.DownloadedSize)
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, "")

	resp, err := http.Get(env.server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
