// Package dictionary wraps the external fetch-and-translate services that
// are consulted when a word is not cached anywhere else.
//
// Responses are validated at this boundary. Callers only ever see a
// LookupResult that is Found with a complete Entry, NotFound, or Malformed.
package dictionary

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/go-playground/validator/v10"

	"github.com/kidopedia/kidopedia/internal/entities"
)

var (
	ErrTimeout     = errors.New("dictionary lookup timed out")
	ErrUnavailable = errors.New("dictionary service unavailable")
	ErrEmptyWord   = errors.New("empty word")
)

type Outcome int

const (
	OutcomeNotFound Outcome = iota
	OutcomeFound
	OutcomeMalformed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeMalformed:
		return "malformed"
	default:
		return "not_found"
	}
}

// Entry is a validated dictionary record, ready for content classification.
type Entry struct {
	Word         string
	Phonetic     string
	AudioURL     string
	Meanings     []entities.Meaning
	Origin       string
	Translations map[string]string
}

// LookupResult is the outcome of one lookup. Entry is set only when
// Outcome is OutcomeFound; Detail explains a malformed response.
type LookupResult struct {
	Outcome Outcome
	Entry   *Entry
	Detail  string
}

func Found(e *Entry) LookupResult {
	return LookupResult{Outcome: OutcomeFound, Entry: e}
}

func NotFound() LookupResult {
	return LookupResult{Outcome: OutcomeNotFound}
}

func Malformed(detail string) LookupResult {
	return LookupResult{Outcome: OutcomeMalformed, Detail: detail}
}

// Client defines the interface for dictionary API providers.
type Client interface {
	Lookup(ctx context.Context, word string) (LookupResult, error)
	Name() string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkPayload runs struct validation on a decoded payload and turns a
// failure into a Malformed result.
func checkPayload(payload any) (LookupResult, bool) {
	if err := validate.Struct(payload); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Malformed(fmt.Sprintf("invalid field %s (%s)", verrs[0].Namespace(), verrs[0].Tag())), false
		}
		return Malformed(err.Error()), false
	}
	return LookupResult{}, true
}

func classify(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
