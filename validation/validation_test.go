package validation

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"

	"github.com/linesmerrill/legal-case-api/apperrors"
)

type party struct {
	Name string `json:"name" validate:"notblank"`
}

type sample struct {
	Title  string `json:"title" validate:"notblank,max=10"`
	Owner  party  `json:"owner"`
	Status string `json:"status" validate:"omitempty,casestatus"`
	Link   string `json:"link" validate:"omitempty,url"`
}

func TestValidateOK(t *testing.T) {
	assert.NoError(t, Validate(sample{Title: "Land", Owner: party{Name: "Ravi"}, Status: "filed", Link: "https://files.example.com/deed.pdf"}))
}

func TestValidateCollectsFieldMessages(t *testing.T) {
	err := Validate(sample{Title: "   ", Status: "teleported", Link: "not a url"})

	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed))
	fields := apperrors.Fields(err)
	assert.Equal(t, []string{"This field is required"}, fields["title"])
	assert.Equal(t, []string{"Unknown case status"}, fields["status"])
	assert.Equal(t, []string{"Invalid URL"}, fields["link"])
	assert.Equal(t, []string{"This field is required"}, fields["owner.name"])
}

func TestValidateMax(t *testing.T) {
	err := Validate(sample{Title: "a very long title", Owner: party{Name: "Ravi"}})

	assert.Equal(t, []string{"Must be at most 10 characters"}, apperrors.Fields(err)["title"])
}
