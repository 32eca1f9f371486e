package gallery

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

var defaultFallbackURLs = []string{
	"https://upload.wikimedia.org/wikipedia/en/5/57/Doom_cover_art.jpg",
	"https://static.wikia.nocookie.net/doom/images/2/2e/Doom1.png",
	"https://static.wikia.nocookie.net/doom/images/7/7e/Doom2.png",
	"https://static.wikia.nocookie.net/doom/images/3/3c/Doom3.png",
	"https://static.wikia.nocookie.net/doom/images/6/6e/Doom4.png",
	"https://static.wikia.nocookie.net/doom/images/8/8e/Doom5.png",
	"https://static.wikia.nocookie.net/doom/images/9/9e/Doom6.png",
	"https://static.wikia.nocookie.net/doom/images/1/1e/Doom7.png",
	"https://static.wikia.nocookie.net/doom/images/2/2e/Doom8.png",
	"https://static.wikia.nocookie.net/doom/images/3/3e/Doom9.png",
}

// StaticFallback is the ordered image list served when every tier comes back empty.
type StaticFallback struct {
	images []ImageResult
}

func NewStaticFallback(urls []string) *StaticFallback {
	return &StaticFallback{
		images: Dedupe(FilterImages(urls)),
	}
}

func DefaultStaticFallback() *StaticFallback {
	return NewStaticFallback(defaultFallbackURLs)
}

// LoadStaticFallback reads one URL per line from path.
// Blank lines and lines starting with '#' are ignored.
// An empty path yields the built-in list.
func LoadStaticFallback(path string) (*StaticFallback, error) {
	if path == "" {
		return DefaultStaticFallback(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fallback file: %w", err)
	}
	defer f.Close()

	fallback, err := ReadStaticFallback(f)
	if err != nil {
		return nil, fmt.Errorf("read fallback file %s: %w", path, err)
	}

	return fallback, nil
}

func ReadStaticFallback(r io.Reader) (*StaticFallback, error) {
	var urls []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	fallback := NewStaticFallback(urls)
	if fallback.Len() == 0 {
		return nil, fmt.Errorf("no valid image urls")
	}

	return fallback, nil
}

func (s *StaticFallback) Len() int {
	return len(s.images)
}

// Window returns images[page*count : page*count+count], clipped to the list.
// An out of range window is empty and signals exhaustion.
func (s *StaticFallback) Window(page int, count int) []ImageResult {
	if page < 0 || count <= 0 {
		return []ImageResult{}
	}

	// Compared before multiplying so that a huge page can't overflow start.
	if len(s.images) == 0 || page > (len(s.images)-1)/count {
		return []ImageResult{}
	}

	start := page * count

	end := min(start+count, len(s.images))

	out := make([]ImageResult, end-start)
	copy(out, s.images[start:end])
	return out
}
