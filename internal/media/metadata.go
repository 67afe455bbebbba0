package media

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"avshelf/internal/services"
)

// MovieMetadata holds scraped information about one title. Construct it with
// NewMovieMetadata or LoadMetadataFile so list fields are normalized and
// invariants hold.
type MovieMetadata struct {
	Code         string            `json:"code"`
	Title        string            `json:"title"`
	TitleEn      string            `json:"title_en"`
	Description  string            `json:"description"`
	Actresses    []string          `json:"actresses"`
	Aliases      []string          `json:"aliases"`
	ReleaseDate  *Date             `json:"release_date"`
	Duration     *int              `json:"duration"`
	Studio       string            `json:"studio"`
	Label        string            `json:"label"`
	Director     string            `json:"director"`
	Series       string            `json:"series"`
	Genres       []string          `json:"genres"`
	Rating       *float64          `json:"rating"`
	RatingVotes  *int              `json:"rating_votes"`
	CoverURL     string            `json:"cover_url"`
	PosterURL    string            `json:"poster_url"`
	ThumbnailURL string            `json:"thumbnail_url"`
	Screenshots  []string          `json:"screenshots"`
	SampleClips  []string          `json:"sample_clips"`
	SourceURL    string            `json:"source_url"`
	SourceURLs   map[string]string `json:"source_urls"`
	Extra        map[string]any    `json:"extra"`
	ScrapedAt    time.Time         `json:"scraped_at"`
}

// NewMovieMetadata normalizes m and validates it.
func NewMovieMetadata(m MovieMetadata) (*MovieMetadata, error) {
	m.normalize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadMetadataFile reads a JSON metadata document.
func LoadMetadataFile(path string) (*MovieMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "media", "read metadata", path, err)
	}
	var m MovieMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, services.Wrap(services.ErrValidation, "media", "decode metadata", path, err)
	}
	return NewMovieMetadata(m)
}

// Validate checks the construction invariants.
func (m *MovieMetadata) Validate() error {
	switch {
	case strings.TrimSpace(m.Code) == "":
		return services.Wrap(services.ErrValidation, "media", "validate metadata", "code cannot be empty", nil)
	case strings.TrimSpace(m.Title) == "":
		return services.Wrap(services.ErrValidation, "media", "validate metadata", "title cannot be empty", nil)
	case m.Rating != nil && (*m.Rating < 0 || *m.Rating > 10):
		return services.Wrap(services.ErrValidation, "media", "validate metadata", fmt.Sprintf("rating must be between 0 and 10, got %g", *m.Rating), nil)
	case m.Duration != nil && *m.Duration < 0:
		return services.Wrap(services.ErrValidation, "media", "validate metadata", fmt.Sprintf("duration cannot be negative, got %d", *m.Duration), nil)
	}
	return nil
}

func (m *MovieMetadata) normalize() {
	m.Code = strings.TrimSpace(m.Code)
	m.Title = strings.TrimSpace(m.Title)
	m.Actresses = normalizeList(m.Actresses)
	m.Aliases = normalizeList(m.Aliases)
	m.Genres = normalizeList(m.Genres)
	m.Screenshots = normalizeList(m.Screenshots)
	m.SampleClips = normalizeList(m.SampleClips)
	if m.SourceURLs == nil {
		m.SourceURLs = map[string]string{}
	}
	if m.Extra == nil {
		m.Extra = map[string]any{}
	}
	if m.SourceURL != "" {
		if _, ok := m.SourceURLs["primary"]; !ok {
			m.SourceURLs["primary"] = m.SourceURL
		}
	} else {
		m.SourceURL = firstSource(m.SourceURLs)
	}
	if m.ScrapedAt.IsZero() {
		m.ScrapedAt = time.Now()
	}
}

func normalizeList(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// firstSource picks the primary entry when present, otherwise the first
// non-empty URL by key order.
func firstSource(urls map[string]string) string {
	if u := urls["primary"]; u != "" {
		return u
	}
	keys := make([]string, 0, len(urls))
	for k := range urls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if urls[k] != "" {
			return urls[k]
		}
	}
	return ""
}

// PrimaryActress returns the first credited actress, or "" when none.
func (m *MovieMetadata) PrimaryActress() string {
	if len(m.Actresses) == 0 {
		return ""
	}
	return m.Actresses[0]
}

// DurationString formats the runtime as "1h 5m", "45m", or "Unknown".
func (m *MovieMetadata) DurationString() string {
	if m.Duration == nil {
		return "Unknown"
	}
	hours, minutes := *m.Duration/60, *m.Duration%60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// AddSource registers a source URL under name. An empty url only reserves the
// name.
func (m *MovieMetadata) AddSource(name, url string) {
	if name == "" {
		return
	}
	if m.SourceURLs == nil {
		m.SourceURLs = map[string]string{}
	}
	if url == "" {
		if _, ok := m.SourceURLs[name]; !ok {
			m.SourceURLs[name] = ""
		}
		return
	}
	m.SourceURLs[name] = url
	if m.SourceURL == "" {
		m.SourceURL = url
	}
}

// Merge combines m with other, preferring the richer value for each field:
// longer text, the earliest release date, the larger duration, rating and vote
// count, the union of lists, and the latest scrape time. Values from m win
// map-key collisions.
func (m *MovieMetadata) Merge(other *MovieMetadata) (*MovieMetadata, error) {
	if other == nil {
		clone := *m
		return &clone, nil
	}
	if m.Code != other.Code {
		return nil, services.Wrap(services.ErrValidation, "media", "merge metadata",
			fmt.Sprintf("cannot merge metadata for different codes %q and %q", m.Code, other.Code), nil)
	}
	merged := MovieMetadata{
		Code:         m.Code,
		Title:        preferText(m.Title, other.Title),
		TitleEn:      preferText(m.TitleEn, other.TitleEn),
		Description:  preferText(m.Description, other.Description),
		Actresses:    mergeLists(m.Actresses, other.Actresses),
		Aliases:      mergeLists(m.Aliases, other.Aliases),
		ReleaseDate:  preferDate(m.ReleaseDate, other.ReleaseDate),
		Duration:     preferMaxInt(m.Duration, other.Duration),
		Studio:       preferText(m.Studio, other.Studio),
		Label:        preferText(m.Label, other.Label),
		Director:     preferText(m.Director, other.Director),
		Series:       preferText(m.Series, other.Series),
		Genres:       mergeLists(m.Genres, other.Genres),
		Rating:       preferMaxFloat(m.Rating, other.Rating),
		RatingVotes:  preferMaxInt(m.RatingVotes, other.RatingVotes),
		CoverURL:     preferText(m.CoverURL, other.CoverURL),
		PosterURL:    preferText(m.PosterURL, other.PosterURL),
		ThumbnailURL: preferText(m.ThumbnailURL, other.ThumbnailURL),
		Screenshots:  mergeLists(m.Screenshots, other.Screenshots),
		SampleClips:  mergeLists(m.SampleClips, other.SampleClips),
		SourceURL:    textOr(m.SourceURL, other.SourceURL),
		SourceURLs:   mergeMaps(other.SourceURLs, m.SourceURLs),
		Extra:        mergeMaps(other.Extra, m.Extra),
		ScrapedAt:    m.ScrapedAt,
	}
	if other.ScrapedAt.After(merged.ScrapedAt) {
		merged.ScrapedAt = other.ScrapedAt
	}
	if merged.Title == "" {
		merged.Title = merged.Code
	}
	return NewMovieMetadata(merged)
}

func (m *MovieMetadata) String() string {
	if actress := m.PrimaryActress(); actress != "" {
		return fmt.Sprintf("MovieMetadata(%s, %q - %s)", m.Code, m.Title, actress)
	}
	return fmt.Sprintf("MovieMetadata(%s, %q)", m.Code, m.Title)
}

func preferText(a, b string) string {
	if a != "" && b != "" {
		if len([]rune(a)) >= len([]rune(b)) {
			return a
		}
		return b
	}
	return textOr(a, b)
}

func textOr(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func preferDate(a, b *Date) *Date {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Before(*a):
		return b
	default:
		return a
	}
}

func preferMaxInt(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}

func preferMaxFloat(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}

func mergeLists(left, right []string) []string {
	out := append([]string(nil), left...)
	seen := make(map[string]struct{}, len(left))
	for _, v := range left {
		seen[v] = struct{}{}
	}
	for _, v := range right {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// mergeMaps overlays top on base.
func mergeMaps[V any](base, top map[string]V) map[string]V {
	out := make(map[string]V, len(base)+len(top))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range top {
		out[k] = v
	}
	return out
}
