// Package narrative cross-checks the relationship manager's free-text client
// description against the structured profile, using an LLM to read the facts.
package narrative

import (
	"context"
	"errors"

	"github.com/gyaneshwarpardhi/kycguard/internal/record"
)

var (
	// ErrMalformedOutput means the extractor answered with something that is
	// not the requested JSON document.
	ErrMalformedOutput = errors.New("narrative: malformed extractor output")
	// ErrUnavailable means the extractor was not called because its circuit is open.
	ErrUnavailable = errors.New("narrative: extractor unavailable")
)

// Extractor reads structured facts out of a client description.
type Extractor interface {
	Extract(ctx context.Context, d record.ClientDescription) (Facts, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc func(ctx context.Context, d record.ClientDescription) (Facts, error)

func (f ExtractorFunc) Extract(ctx context.Context, d record.ClientDescription) (Facts, error) {
	return f(ctx, d)
}

const extractionPrompt = `Below is a JSON document with a bank client's description, written by their relationship manager:
%s

Read it and answer with a single JSON object of exactly this shape:
{
  "age": number,
  "marital_status": "single" | "married" | "divorced" | "widowed",
  "university_education": {"university": string, "graduation_year": "YYYY"},
  "secondary_education": {"school": string, "graduation_year": "YYYY"},
  "employment": {"company": string, "position": string},
  "savings": number,
  "inheritance": true | false,
  "inherited_from": one word such as "father", "grandmother" or "aunt",
  "inheritance_year": "YYYY",
  "occupation_of_the_person_from_whom_inherited": string
}

Rules:
- Only report what the text states. Do not infer.
- Use an empty string "" for anything the text does not mention.
- Numbers carry no currency or unit: 15000, not 15000 EUR.
- Marital status is a single lowercase word.
- Output the JSON object and nothing else.`
