package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/nutrilog/internal/recognition"
	"github.com/starford/nutrilog/internal/storage"
)

const maxPhotoSize = 10 << 20 // 10 MB

// photoClient refuses to connect to internal addresses, including ones a
// public name resolves to and redirect targets.
var photoClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
			Control: refuseInternal,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	},
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return errors.New("stopped after 5 redirects")
		}
		return checkPhotoURL(req.URL)
	},
}

func (s *Server) recognizePhoto(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, ext, err := loadPhoto(ctx, rawURL)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	started, err := s.svc.StartRecognition(string(recognition.KindPhoto))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.svc.SubmitCapture(started.ID, data, ext)
	if err != nil {
		_ = s.svc.DiscardRecognition(started.ID)
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.Marshal(snap)
	return mcp.NewToolResultText(string(out)), nil
}

// loadPhoto resolves a data URI or http(s) URL to image bytes and a capture
// extension. Content checks happen when the capture is submitted.
func loadPhoto(ctx context.Context, rawURL string) ([]byte, string, error) {
	if rest, ok := strings.CutPrefix(rawURL, "data:"); ok {
		return parseDataURI(rest)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	if err := checkPhotoURL(u); err != nil {
		return nil, "", err
	}
	data, ext, err := download(ctx, u)
	if err != nil {
		return nil, "", err
	}
	if ext == "" {
		ext = strings.ToLower(path.Ext(u.Path))
	}
	return data, ext, nil
}

// parseDataURI decodes the part of a data URI after "data:". Only base64
// payloads of accepted image types are taken.
func parseDataURI(rest string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", errors.New("invalid data URI: no payload")
	}
	params := strings.Split(meta, ";")
	if params[len(params)-1] != "base64" {
		return nil, "", errors.New("only base64 data URIs are supported")
	}
	ext := storage.ExtForContentType(params[0])
	if ext == "" {
		return nil, "", fmt.Errorf("unsupported image type in data URI: %q", params[0])
	}

	enc := base64.StdEncoding
	if !strings.HasSuffix(payload, "=") {
		enc = base64.RawStdEncoding
	}
	if len(payload) > base64.StdEncoding.EncodedLen(maxPhotoSize) {
		return nil, "", fmt.Errorf("photo too large (max %d bytes)", maxPhotoSize)
	}
	data, err := enc.DecodeString(payload)
	if err != nil && enc == base64.RawStdEncoding {
		data, err = base64.StdEncoding.DecodeString(payload)
	}
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, ext, nil
}

// download fetches u through photoClient, reading at most maxPhotoSize bytes.
func download(ctx context.Context, u *url.URL) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("invalid URL: %w", err)
	}
	resp, err := photoClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download photo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download photo: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("download photo: %w", err)
	}
	if len(data) > maxPhotoSize {
		return nil, "", fmt.Errorf("photo too large (max %d bytes)", maxPhotoSize)
	}
	return data, storage.ExtForContentType(resp.Header.Get("Content-Type")), nil
}

// checkPhotoURL rejects non-http schemes and hosts that name an internal
// address directly. Names resolving to one are stopped by refuseInternal.
func checkPhotoURL(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q (only http and https)", u.Scheme)
	}
	host := strings.ToLower(strings.TrimSuffix(u.Hostname(), "."))
	switch {
	case host == "":
		return errors.New("URL has no host")
	case host == "localhost", strings.HasSuffix(host, ".localhost"), host == "metadata.google.internal":
		return fmt.Errorf("blocked host: %s", host)
	}
	if ip := net.ParseIP(host); ip != nil && internalIP(ip) {
		return fmt.Errorf("blocked host: internal address %s", ip)
	}
	return nil
}

// refuseInternal is a net.Dialer Control hook that fails the connection when
// the resolved peer address is internal.
func refuseInternal(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("blocked address %q: %w", address, err)
	}
	ip := net.ParseIP(host)
	if ip == nil || internalIP(ip) {
		return fmt.Errorf("blocked host: internal address %s", host)
	}
	return nil
}

// internalIP reports loopback, private, link-local (which covers the cloud
// metadata endpoint 169.254.169.254), multicast and unspecified addresses.
func internalIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified()
}
