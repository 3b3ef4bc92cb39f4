// Package embedding turns article text into dense vectors via an external
// embedding backend. The backend is configuration: Clova Studio over plain
// HTTP by default, Gemini through its SDK as an alternative.
package embedding

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/swen/newsbrief/internal/news"
)

// ErrGenerationFailed marks any failure of the embedding backend: network
// errors, bad statuses, malformed or empty responses. Retry policy belongs
// to callers.
var ErrGenerationFailed = errors.New("embedding generation failed")

// Embedder is the text-to-vector contract.
type Embedder interface {
	Embed(ctx context.Context, text string) (vector []float64, dimension int, err error)
}

// maxInputChars is the input cap of the embedding backend.
const maxInputChars = 2000

var (
	reTags       = regexp.MustCompile(`<[^>]*>`)
	reEntities   = regexp.MustCompile(`&[^;]+;`)
	reLineBreaks = regexp.MustCompile(`[\r\n\t]+`)
	reSpaces     = regexp.MustCompile(`\s+`)
)

// Preprocess builds embedding-ready text from an article. The title is
// repeated to bias the vector toward the headline, then the description is
// appended and everything is flattened to a single cleaned line capped at
// the backend's input limit. Always returns a string, possibly empty.
func Preprocess(a news.Article) string {
	var b strings.Builder
	b.WriteString(a.Title)
	b.WriteString(" ")
	b.WriteString(a.Title)
	b.WriteString(" ")
	b.WriteString(a.Description)

	text := b.String()
	text = reTags.ReplaceAllString(text, "")
	text = reEntities.ReplaceAllString(text, "")
	text = reLineBreaks.ReplaceAllString(text, " ")
	text = reSpaces.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	if utf8.RuneCountInString(text) > maxInputChars {
		runes := []rune(text)
		text = string(runes[:maxInputChars])
	}
	return text
}
