package gallery

import (
	"mime"
	"strings"

	"github.com/defeedco/doomscroll/pkg/lib"
)

// ImageResult is an absolute URL pointing at an image resource.
type ImageResult string

func (i ImageResult) String() string {
	return string(i)
}

var allowedExtensions = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
}

var allowedMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// IsImageURL reports whether the URL path ends in one of the allowed image extensions.
func IsImageURL(url string) bool {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return false
	}
	return allowedExtensions[lib.URLExtension(url)]
}

// IsImageMIME reports whether the content type is one of the allowed image types.
func IsImageMIME(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return allowedMIMETypes[strings.ToLower(mediaType)]
}

// FilterImages keeps the URLs that pass IsImageURL, in order.
func FilterImages(urls []string) []ImageResult {
	out := make([]ImageResult, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if IsImageURL(u) {
			out = append(out, ImageResult(u))
		}
	}
	return out
}

// Dedupe removes repeated URLs. The first occurrence wins and order is preserved.
func Dedupe(images []ImageResult) []ImageResult {
	seen := make(map[ImageResult]bool, len(images))
	out := make([]ImageResult, 0, len(images))
	for _, img := range images {
		if seen[img] {
			continue
		}
		seen[img] = true
		out = append(out, img)
	}
	return out
}

func toStrings(images []ImageResult) []string {
	out := make([]string, len(images))
	for i, img := range images {
		out[i] = string(img)
	}
	return out
}
