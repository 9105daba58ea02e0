// Package lang tags post text with detected language codes so feeds can be
// filtered by language.
package lang

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// Languages the detector distinguishes between. A closed set keeps the
// model size down and the confidence numbers meaningful.
var detectorLanguages = []lingua.Language{
	lingua.English,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Portuguese,
	lingua.Italian,
	lingua.Dutch,
	lingua.Swedish,
	lingua.Bokmal,
}

const (
	// Posts shorter than this many words are too ambiguous to tag.
	minWords = 4

	confidenceThreshold = 0.70
)

type Detector struct {
	detector lingua.LanguageDetector
}

func NewDetector() *Detector {
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(detectorLanguages...).
			WithMinimumRelativeDistance(0.25).
			Build(),
	}
}

// Detect returns the ISO 639-1 codes for text, or nil when the text is too
// short or no language reaches the confidence threshold.
func (d *Detector) Detect(text string) []string {
	if len(strings.Fields(text)) < minWords {
		return nil
	}

	detected, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return nil
	}

	if d.detector.ComputeLanguageConfidence(text, detected) < confidenceThreshold {
		return nil
	}

	return []string{strings.ToLower(detected.IsoCode639_1().String())}
}
