package images

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"avshelf/internal/textutil"
)

var extensionMap = map[string]string{
	".jpg":  ".jpg",
	".jpeg": ".jpg",
	".png":  ".png",
	".webp": ".webp",
	".gif":  ".jpg",
}

// imageExtension picks the stored extension for rawURL. A forced format
// overrides whatever the URL suggests.
func imageExtension(rawURL string, format Format) string {
	switch format {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatWEBP:
		return ".webp"
	}
	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		p = parsed.Path
	}
	if ext, ok := extensionMap[strings.ToLower(path.Ext(p))]; ok {
		return ext
	}
	return ".jpg"
}

// Filename returns the stored name for an image. index is 1-based and only
// applies to screenshots; zero means unindexed. The code is sanitized into a
// single path component so the name always stays inside its directory.
func Filename(code string, kind ImageType, rawURL string, index int, format Format) string {
	code = textutil.Sanitize(code)
	ext := imageExtension(rawURL, format)
	switch kind {
	case Cover:
		return code + "_cover" + ext
	case Poster:
		return code + "_poster" + ext
	case Screenshot:
		if index > 0 {
			return fmt.Sprintf("%s_screenshot_%02d%s", code, index, ext)
		}
		return code + "_screenshot" + ext
	default:
		return fmt.Sprintf("%s_%s%s", code, kind, ext)
	}
}

// ThumbnailPath returns the sibling path used for an image's thumbnail.
func ThumbnailPath(imagePath string) string {
	ext := filepath.Ext(imagePath)
	return strings.TrimSuffix(imagePath, ext) + "_thumb" + ext
}
