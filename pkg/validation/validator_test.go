package validation

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"pwd"`
	Age      int    `json:"age" validate:"min=18"`
}

func TestToDetails(t *testing.T) {
	Init()
	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)

	err := v.Struct(sampleInput{Email: "not-an-email", Password: "tiny", Age: 12})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "min length 6", details["password"])
	assert.Equal(t, "must be at least 18", details["age"])
}

func TestToDetailsNilAndUnknown(t *testing.T) {
	assert.Nil(t, ToDetails(nil))
	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(assert.AnError))
}
