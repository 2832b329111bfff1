package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// FetchRequest is the immutable input of one vetting run.
// Sources receive it by value and must not retain references to it.
type FetchRequest struct {
	// CompanyName is the company identifier (required).
	CompanyName string `json:"company_name"`

	// ProfileURL is the company's professional network profile URL.
	ProfileURL string `json:"profile_url,omitempty"`

	// Domain is the company website domain, e.g. "acme.com.au".
	Domain string `json:"domain,omitempty"`

	// RegistryNumber is the Australian Business Number, with or without spaces.
	RegistryNumber string `json:"abn,omitempty"`
}

// Normalise returns a copy with surrounding whitespace removed from every field.
func (r FetchRequest) Normalise() FetchRequest {
	return FetchRequest{
		CompanyName:    strings.TrimSpace(r.CompanyName),
		ProfileURL:     strings.TrimSpace(r.ProfileURL),
		Domain:         strings.TrimSpace(r.Domain),
		RegistryNumber: strings.TrimSpace(r.RegistryNumber),
	}
}

// Validate checks the fields every run needs.
// Source-specific fields are checked by the sources themselves.
func (r FetchRequest) Validate() error {
	if strings.TrimSpace(r.CompanyName) == "" {
		return fmt.Errorf("%w: company name is required", ErrInvalidRequest)
	}
	return nil
}

// ABNLength is the number of digits in an Australian Business Number.
const ABNLength = 11

// CleanABN strips spaces from an ABN and checks it is eleven digits.
// An empty ABN or a malformed one yields ErrMissingPrerequisite.
func CleanABN(abn string) (string, error) {
	clean := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, abn)
	if clean == "" {
		return "", fmt.Errorf("%w: abn not provided", ErrMissingPrerequisite)
	}
	if len(clean) != ABNLength {
		return "", fmt.Errorf("%w: abn %q must have %d digits", ErrMissingPrerequisite, abn, ABNLength)
	}
	for _, r := range clean {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: abn %q must contain only digits", ErrMissingPrerequisite, abn)
		}
	}
	return clean, nil
}
