// Package images fetches cover, poster, and screenshot artwork for a movie,
// optionally post-processes it, and stores it beside the organized video.
//
// Downloads run concurrently under a shared semaphore; HTTP retries and
// pacing belong to the injected HTTPClient. A single failed image never
// aborts its siblings, and processing failures fall back to the original
// bytes. CleanupFailedDownloads removes empty or undecodable images left by
// interrupted runs.
package images
