// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize turns the model's JSON answer into a validated,
// date-normalized summary record and writes it to the record store.
package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pdiddy/propagate/internal/store"
	"github.com/pdiddy/propagate/pkg/types"
)

// ErrMalformedAnswer marks a model answer that is not a JSON object with
// every required field.
var ErrMalformedAnswer = errors.New("malformed model answer")

// AnswerError carries the raw answer text of a rejected answer so it can be
// inspected by hand.
type AnswerError struct {
	Reason string
	Raw    string
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMalformedAnswer, e.Reason)
}

// Unwrap lets errors.Is match ErrMalformedAnswer.
func (e *AnswerError) Unwrap() error {
	return ErrMalformedAnswer
}

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ParseAnswer decodes and validates the model's answer. A surrounding
// markdown code fence is tolerated.
func ParseAnswer(text string) (*types.Answer, error) {
	body := stripCodeFence(strings.TrimSpace(text))
	if body == "" {
		return nil, &AnswerError{Reason: "empty answer", Raw: text}
	}

	var answer types.Answer
	if err := json.Unmarshal([]byte(body), &answer); err != nil {
		return nil, &AnswerError{Reason: err.Error(), Raw: text}
	}

	if err := validate.Struct(&answer); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, strings.TrimPrefix(fe.Namespace(), "Answer."))
			}
			return nil, &AnswerError{Reason: "missing required fields: " + strings.Join(missing, ", "), Raw: text}
		}
		return nil, &AnswerError{Reason: err.Error(), Raw: text}
	}
	return &answer, nil
}

// stripCodeFence removes a ```json ... ``` wrapper.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// OffVocabulary lists "axis=value" pairs whose value is outside the axis's
// closed set.
func OffVocabulary(c types.Categories) []string {
	var off []string
	for _, axis := range types.CategoryAxes {
		value := c.Get(axis.Name)
		found := false
		for _, allowed := range axis.Values {
			if strings.EqualFold(allowed, value) {
				found = true
				break
			}
		}
		if !found {
			off = append(off, fmt.Sprintf("%s=%s", axis.Name, value))
		}
	}
	return off
}

// BuildSummary merges an answer with its source order into a normalized
// summary. Publication and signing dates must be ISO dates.
func BuildSummary(answer *types.Answer, order *types.ExecutiveOrder, now time.Time) (*types.Summary, error) {
	pub, err := CalendarDate("publication_date", order.PublicationDate)
	if err != nil {
		return nil, err
	}
	signed, err := CalendarDate("signing_date", order.SigningDate)
	if err != nil {
		return nil, err
	}

	return &types.Summary{
		EONumber:            int(order.Number),
		Title:               order.Title,
		President:           order.President,
		Summary:             answer.Summary,
		Purpose:             answer.Purpose,
		EffectiveDate:       EffectiveDate(answer.EffectiveDate),
		ExpirationDate:      ExpirationDate(answer.ExpirationDate),
		PublicationDate:     pub,
		SigningDate:         signed,
		EconomicEffects:     answer.EconomicEffects,
		GeopoliticalEffects: answer.GeopoliticalEffects,
		DeeperDive:          answer.DeeperDive,
		PositiveImpacts:     answer.PositiveImpacts,
		NegativeImpacts:     answer.NegativeImpacts,
		KeyIndustries:       answer.KeyIndustries,
		Categories:          answer.Categories,
		OriginalURL:         order.HTMLURL,
		PDFPath:             order.PDFPath,
		Timestamp:           types.Timestamp(now.UTC().Format(time.RFC3339)),
	}, nil
}

// Renormalize re-applies date normalization to a summary read back from
// disk, which may have been written by an older version.
func Renormalize(s *types.Summary) error {
	pub, err := CalendarDate("publication_date", s.PublicationDate.String())
	if err != nil {
		return err
	}
	signed, err := CalendarDate("signing_date", s.SigningDate.String())
	if err != nil {
		return err
	}
	s.PublicationDate = pub
	s.SigningDate = signed
	s.EffectiveDate = reparse(s.EffectiveDate, EffectiveDate)
	s.ExpirationDate = reparse(s.ExpirationDate, ExpirationDate)
	return nil
}

// reparse runs parse on the stored text. An ISO date written by a previous
// normalization stays parsed.
func reparse(d types.Date, parse func(string) types.Date) types.Date {
	text := d.String()
	if t, err := time.Parse(types.DateLayout, strings.TrimSpace(text)); err == nil {
		return types.ParsedDate(t)
	}
	return parse(text)
}

// Recorder persists model answers as raw and normalized records.
type Recorder struct {
	Store *store.Store
	Log   *zap.Logger

	// Now returns the generation timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Record writes the raw answer, then parses, normalizes and writes the
// summary. The raw file is kept even when the answer is rejected.
func (r *Recorder) Record(order *types.ExecutiveOrder, text string) (*types.Summary, error) {
	log := r.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	number := int(order.Number)
	if _, err := r.Store.WriteRaw(number, text); err != nil {
		return nil, fmt.Errorf("writing raw answer for %d: %w", number, err)
	}

	answer, err := ParseAnswer(text)
	if err != nil {
		return nil, err
	}
	if off := OffVocabulary(answer.Categories); len(off) > 0 {
		log.Warn("category values outside vocabulary",
			zap.Int("eo_number", number), zap.Strings("values", off))
	}

	summary, err := BuildSummary(answer, order, now())
	if err != nil {
		return nil, fmt.Errorf("normalizing %d: %w", number, err)
	}
	if _, err := r.Store.WriteSummary(summary); err != nil {
		return nil, fmt.Errorf("writing summary for %d: %w", number, err)
	}
	return summary, nil
}
