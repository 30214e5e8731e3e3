// Package testdata holds recorded hand landmark fixtures for tests.
package testdata

import (
	"embed"
	"fmt"

	"github.com/ayusman/gesturetube/internal/detector"
)

//go:embed landmarks/*.json
var landmarksFS embed.FS

// Fixture names.
const (
	PointUp  = "point_up"
	OpenPalm = "open_palm"
	Fist     = "fist"
	TwoHands = "two_hands"
)

// LoadHands loads every hand stored in the named fixture.
func LoadHands(name string) ([]detector.HandLandmarks, error) {
	data, err := landmarksFS.ReadFile("landmarks/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load fixture %s: %w", name, err)
	}

	hands, err := detector.ParseHands(data)
	if err != nil {
		return nil, fmt.Errorf("fixture %s: %w", name, err)
	}
	return hands, nil
}

// LoadHand loads the first hand of the named fixture.
func LoadHand(name string) (detector.HandLandmarks, error) {
	hands, err := LoadHands(name)
	if err != nil {
		return detector.HandLandmarks{}, err
	}
	return hands[0], nil
}

// Path returns the fixture's path relative to the testdata directory.
func Path(name string) string {
	return "landmarks/" + name + ".json"
}
