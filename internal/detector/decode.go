package detector

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoHands is returned by ParseHands when the input holds no hand.
var ErrNoHands = errors.New("no hand landmarks in input")

// ParseHands decodes hand landmarks saved as JSON. The input is either a
// single HandLandmarks object or an array of them.
func ParseHands(data []byte) ([]HandLandmarks, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoHands
	}

	var hands []HandLandmarks
	if data[0] == '[' {
		if err := json.Unmarshal(data, &hands); err != nil {
			return nil, fmt.Errorf("parse hands: %w", err)
		}
	} else {
		var hand HandLandmarks
		if err := json.Unmarshal(data, &hand); err != nil {
			return nil, fmt.Errorf("parse hand: %w", err)
		}
		hands = []HandLandmarks{hand}
	}

	if len(hands) == 0 {
		return nil, ErrNoHands
	}
	return hands, nil
}
