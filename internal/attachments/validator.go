// Package attachments provides the default attachment metadata
// validator consumed by the ticket service.
package attachments

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// Validator sanitizes raw attachment metadata into attachment records.
type Validator struct{}

// NewValidator constructs the validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks every entry and returns sanitized records, or the
// first problem found. Validation is all-or-nothing.
func (v *Validator) Validate(inputs []service.AttachmentInput) ([]domain.Attachment, error) {
	result := make([]domain.Attachment, 0, len(inputs))
	for i, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return nil, fmt.Errorf("attachment %d: name required", i)
		}
		rawURL := strings.TrimSpace(input.URL)
		if rawURL == "" {
			return nil, fmt.Errorf("attachment %d: url required", i)
		}
		parsed, err := url.Parse(rawURL)
		if err != nil || !parsed.IsAbs() || parsed.Host == "" {
			return nil, fmt.Errorf("attachment %d: invalid url", i)
		}

		att := domain.Attachment{Name: name, URL: rawURL}
		if input.FileType != nil {
			fileType := strings.ToLower(strings.TrimSpace(*input.FileType))
			if fileType != "" {
				att.FileType = &fileType
			}
		}
		result = append(result, att)
	}
	if len(result) == 0 {
		return nil, errors.New("no attachments supplied")
	}
	return result, nil
}
