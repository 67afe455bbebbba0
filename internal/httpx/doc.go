// Package httpx provides the net/http-backed fetch client used by the image
// downloader. It owns request pacing, retries with backoff, and the
// User-Agent header so callers can issue one logical request per resource.
package httpx
