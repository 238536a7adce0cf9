package narrative

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Text is an extracted scalar. Models answer with strings, numbers, booleans
// or null for the same key; all of them decode to their string form.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = ""
	case string:
		*t = Text(strings.TrimSpace(x))
	case float64:
		*t = Text(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*t = Text(strconv.FormatBool(x))
	default:
		return fmt.Errorf("unexpected %T for a scalar fact", v)
	}
	return nil
}

// Present reports whether the narrative makes a claim. Empty values and the
// placeholders models use for "unknown" are no claim.
func (t Text) Present() bool {
	switch strings.ToLower(strings.TrimSpace(string(t))) {
	case "", "none", "null", "n/a", "unknown":
		return false
	}
	return true
}

func (t Text) String() string { return string(t) }

// Int parses the value as a whole number.
func (t Text) Int() (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(string(t)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Bool parses "true"/"false" style answers.
func (t Text) Bool() (bool, bool) {
	b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(string(t))))
	if err != nil {
		return false, false
	}
	return b, true
}

type University struct {
	Name           Text `json:"university"`
	GraduationYear Text `json:"graduation_year"`
}

type School struct {
	Name           Text `json:"school"`
	GraduationYear Text `json:"graduation_year"`
}

type Job struct {
	Company  Text `json:"company"`
	Position Text `json:"position"`
}

func (u *University) UnmarshalJSON(b []byte) error {
	type plain University
	return decodeGroup(b, (*plain)(u), &u.Name)
}

func (s *School) UnmarshalJSON(b []byte) error {
	type plain School
	return decodeGroup(b, (*plain)(s), &s.Name)
}

func (j *Job) UnmarshalJSON(b []byte) error {
	type plain Job
	return decodeGroup(b, (*plain)(j), &j.Company)
}

// decodeGroup accepts a grouped fact as an object or as a bare scalar. Models
// answer "" or null when the narrative is silent and sometimes name only the
// institution; a scalar fills the first field.
func decodeGroup(b []byte, group any, first *Text) error {
	if t := bytes.TrimSpace(b); len(t) > 0 && t[0] == '{' {
		return json.Unmarshal(t, group)
	}
	return first.UnmarshalJSON(b)
}

// Facts is what the extractor reads out of the relationship manager's narrative.
type Facts struct {
	Age                     Text       `json:"age"`
	MaritalStatus           Text       `json:"marital_status"`
	University              University `json:"university_education"`
	Secondary               School     `json:"secondary_education"`
	Employment              Job        `json:"employment"`
	Savings                 Text       `json:"savings"`
	Inheritance             Text       `json:"inheritance"`
	InheritedFrom           Text       `json:"inherited_from"`
	InheritanceYear         Text       `json:"inheritance_year"`
	InheritedFromOccupation Text       `json:"occupation_of_the_person_from_whom_inherited"`
}

// ParseFacts decodes a model answer, tolerating a surrounding markdown fence.
func ParseFacts(content string) (Facts, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	var f Facts
	if err := json.Unmarshal([]byte(s), &f); err != nil {
		return Facts{}, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	return f, nil
}
