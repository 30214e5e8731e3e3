package player

import (
	"errors"
	"regexp"
)

// ErrInvalidVideoURL is returned when no YouTube video id can be found in a URL.
var ErrInvalidVideoURL = errors.New("not a YouTube video URL")

var videoIDPattern = regexp.MustCompile(`^.*(?:youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// VideoID extracts the 11-character video id from a YouTube URL.
func VideoID(rawURL string) (string, error) {
	m := videoIDPattern.FindStringSubmatch(rawURL)
	if m == nil || len(m[1]) != 11 {
		return "", ErrInvalidVideoURL
	}
	return m[1], nil
}

// EmbedURL returns the embeddable player URL with the JS control API enabled.
func EmbedURL(rawURL string) (string, error) {
	id, err := VideoID(rawURL)
	if err != nil {
		return "", err
	}
	return "https://www.youtube.com/embed/" + id + "?enablejsapi=1", nil
}
