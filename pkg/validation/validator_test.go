package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-verse-tags/pkg/core/domain"
)

type signUp struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type vote struct {
	VoteType int `json:"vote_type" validate:"oneof=1 -1"`
}

func TestValidate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(signUp{Name: "A", Email: "a@example.com", Password: "x"}))

	err := v.Validate(signUp{Email: "a@example.com", Password: "x"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, "name is required", domain.PublicMessage(err))

	err = v.Validate(signUp{Name: "A", Email: "nope", Password: "x"})
	assert.Equal(t, "email must be a valid email address", domain.PublicMessage(err))

	err = v.Validate(vote{VoteType: 2})
	assert.Equal(t, "vote_type must be one of: 1 -1", domain.PublicMessage(err))
	assert.NoError(t, v.Validate(vote{VoteType: -1}))
}
