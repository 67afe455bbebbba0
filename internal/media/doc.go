// Package media defines the value objects the organizer and image downloader
// consume: VideoFile describes a source video on disk and MovieMetadata the
// scraped information about the title it contains.
//
// Both types validate at construction. A MovieMetadata that exists has a
// non-empty code and title, a rating inside [0, 10] when present, and a
// non-negative duration when present.
package media
