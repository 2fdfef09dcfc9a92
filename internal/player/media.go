package player

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	youTubePattern  = regexp.MustCompile(`youtu\.be|youtube\.com`)
	absolutePattern = regexp.MustCompile(`(?i)^https?://`)
)

// MediaURL разворачивает относительный путь медиа от origin API.
func MediaURL(origin, raw string) string {
	if raw == "" {
		return ""
	}
	if absolutePattern.MatchString(raw) {
		return raw
	}
	origin = strings.TrimRight(origin, "/")
	if strings.HasPrefix(raw, "/") {
		return origin + raw
	}
	return origin + "/" + raw
}

func IsYouTube(raw string) bool {
	return youTubePattern.MatchString(raw)
}

// EmbedVideoURL возвращает адрес для iframe; ok=false означает обычный <video>.
func EmbedVideoURL(raw string) (string, bool) {
	if !IsYouTube(raw) {
		return raw, false
	}

	if strings.Contains(raw, "watch?v=") {
		return strings.Replace(raw, "watch?v=", "embed/", 1), true
	}

	u, err := url.Parse(raw)
	if err != nil {
		return raw, true
	}
	if strings.EqualFold(u.Host, "youtu.be") {
		id := strings.Trim(u.Path, "/")
		if id != "" {
			return "https://www.youtube.com/embed/" + id, true
		}
	}
	return raw, true
}
