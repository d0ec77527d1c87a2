package services

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// ChunkSize is the relay buffer size.
const ChunkSize = 256 * 1024

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Proxy opens streaming connections to resolved direct URLs.
type Proxy struct {
	client  *http.Client
	headers http.Header
	logger  *zap.Logger
}

func NewProxy(client *http.Client, userAgent string, logger *zap.Logger) *Proxy {
	if client == nil {
		// No overall timeout: a download lasts as long as the client keeps reading.
		client = &http.Client{}
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	headers := http.Header{}
	headers.Set("User-Agent", userAgent)
	headers.Set("Accept", "*/*")
	headers.Set("Connection", "keep-alive")
	return &Proxy{
		client:  client,
		headers: headers,
		logger:  logger.With(zap.String("component", "proxy")),
	}
}

// Upstream is one open remote body. Close must be called on every path.
type Upstream struct {
	resp *http.Response
}

// Open issues the upstream GET. The connection lives until ctx is done or Close is called.
func (p *Proxy) Open(ctx context.Context, directURL string) (*Upstream, error) {
	if directURL == "" {
		return nil, newRequestError(ErrFormatNotFound, "Format URL not found", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, directURL, nil)
	if err != nil {
		return nil, newRequestError(ErrUpstream, fmt.Sprintf("invalid direct URL: %v", err), err)
	}
	for k, vals := range p.headers {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, newRequestError(ErrUpstream, fmt.Sprintf("upstream request failed: %v", err), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		p.logger.Warn("upstream rejected request", zap.Int("status", resp.StatusCode))
		return nil, newRequestError(ErrUpstream, fmt.Sprintf("upstream returned %s", resp.Status), nil)
	}
	return &Upstream{resp: resp}, nil
}

// ContentLength is the upstream length, -1 when unknown.
func (u *Upstream) ContentLength() int64 {
	return u.resp.ContentLength
}

func (u *Upstream) Close() error {
	return u.resp.Body.Close()
}

// Relay copies the body to w one chunk at a time, flushing after each write.
// onChunk, when set, receives the running byte count.
func (u *Upstream) Relay(w io.Writer, onChunk func(written int64)) (int64, error) {
	buf := make([]byte, ChunkSize)
	flusher, _ := w.(http.Flusher)
	var written int64
	for {
		n, readErr := u.resp.Body.Read(buf)
		if n > 0 {
			m, writeErr := w.Write(buf[:n])
			written += int64(m)
			if writeErr != nil {
				return written, fmt.Errorf("%w: client write: %v", ErrUpstream, writeErr)
			}
			if flusher != nil {
				flusher.Flush()
			}
			if onChunk != nil {
				onChunk(written)
			}
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, fmt.Errorf("%w: upstream read: %v", ErrUpstream, readErr)
		}
	}
}
