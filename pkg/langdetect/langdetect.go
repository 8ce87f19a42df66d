// Package langdetect guesses the language of text for dc:language metadata.
package langdetect

import (
	"strings"

	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"

	"github.com/dtnitsch/html-page/pkg/pageerr"
)

// DefaultMinConfidence is the confidence below which no language is reported.
const DefaultMinConfidence = 0.5

// Result is a detected language.
type Result struct {
	Tag        language.Tag
	Confidence float64
}

// Detector detects languages from a fixed candidate set.
type Detector struct {
	detector lingua.LanguageDetector
	// only is set when a single candidate was given.
	only          lingua.Language
	MinConfidence float64
}

// New returns a detector for the given ISO 639-1 codes, or for all languages
// known to lingua when none are given.
func New(codes ...string) (*Detector, error) {
	builder := lingua.NewLanguageDetectorBuilder()

	if len(codes) == 0 {
		return &Detector{
			detector:      builder.FromAllLanguages().Build(),
			MinConfidence: DefaultMinConfidence,
		}, nil
	}

	langs := make([]lingua.Language, 0, len(codes))
	for _, code := range codes {
		iso := lingua.GetIsoCode639_1FromValue(strings.ToLower(strings.TrimSpace(code)))
		lang := lingua.GetLanguageFromIsoCode639_1(iso)
		if lang == lingua.Unknown {
			return nil, pageerr.InvalidInput("unsupported language", "code", code)
		}
		langs = append(langs, lang)
	}
	// lingua needs at least two candidates.
	if len(langs) == 1 {
		return &Detector{only: langs[0]}, nil
	}

	return &Detector{
		detector:      builder.FromLanguages(langs...).Build(),
		MinConfidence: DefaultMinConfidence,
	}, nil
}

// Detect returns the most likely language of text.
func (d *Detector) Detect(text string) (Result, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, false
	}

	lang, confidence := d.only, 1.0
	if d.detector != nil {
		var ok bool
		if lang, ok = d.detector.DetectLanguageOf(text); !ok {
			return Result{}, false
		}
		confidence = d.detector.ComputeLanguageConfidence(text, lang)
	}
	if confidence < d.MinConfidence {
		return Result{}, false
	}

	tag, err := language.Parse(strings.ToLower(lang.IsoCode639_1().String()))
	if err != nil {
		return Result{}, false
	}

	return Result{Tag: tag, Confidence: confidence}, true
}
