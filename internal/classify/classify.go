// Package classify identifies unwanted items in a photo and suggests the
// material category each one belongs to.
package classify

import (
	"context"
	"io"
)

// Prompt is shared by every backend.
const Prompt = `List every household item in this photo that someone might want to
reuse, recycle or give away. For each item give its name and the material
category it belongs to (for example Electronics, Furniture, Textiles, Books,
Plastics, Metals, Toys, Appliances, Hazardous Materials).
Respond in plain text, one item per line, format: name | category`

type Classifier interface {
	Classify(ctx context.Context, r io.Reader, mimeType string) (*Result, error)
}

type Result struct {
	Items       []Suggestion
	RawResponse string
}

// Suggestion is one item the model saw. Category is the model's guess and
// may not name a known category.
type Suggestion struct {
	Name     string
	Category string
}

// NormaliseMIME maps image types to those the vision APIs accept. Unknown
// types are sent as JPEG.
func NormaliseMIME(mimeType string) string {
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
