package alerting

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// SavedSearch is a stored query with structured filters that is re-run
// against the index to surface matching postings.
type SavedSearch struct {
	ID      string  `yaml:"id" mapstructure:"id" validate:"required,notblank"`
	Name    string  `yaml:"name,omitempty" mapstructure:"name"`
	Query   string  `yaml:"query" mapstructure:"query" validate:"required,notblank"`
	Filters Filters `yaml:"filters,omitempty" mapstructure:"filters"`
	Alerts  Alerts  `yaml:"alerts" mapstructure:"alerts"`
	// Err is set by loaders when the entry could not be read. Such a search
	// is reported as failed and never evaluated.
	Err     error   `yaml:"-" mapstructure:"-" validate:"-"`
}

// Filters narrow the keyword hits of a saved search. Unset fields apply no
// filtering.
type Filters struct {
	Location         string   `yaml:"location,omitempty" mapstructure:"location"`
	Remote           *bool    `yaml:"remote,omitempty" mapstructure:"remote"`
	Company          []string `yaml:"company,omitempty" mapstructure:"company" validate:"dive,notblank"`
	PostedWithinDays *int     `yaml:"posted-within-days,omitempty" mapstructure:"posted-within-days" validate:"omitempty,min=0"`
	RequireKeywords  []string `yaml:"require-keywords,omitempty" mapstructure:"require-keywords" validate:"dive,notblank"`
	ExcludeKeywords  []string `yaml:"exclude-keywords,omitempty" mapstructure:"exclude-keywords" validate:"dive,notblank"`
}

type Alerts struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// Validate reports a malformed saved search.
func (s *SavedSearch) Validate() error {
	if s.Err != nil {
		return s.Err
	}
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("saved search %q: %w", strings.TrimSpace(s.ID), err)
	}
	return nil
}
