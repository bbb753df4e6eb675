package plumbing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckRefFormat(t *testing.T) {
	assert.NoError(t, CheckRefFormat([]byte("refs/heads/foo"), 0))

	err := CheckRefFormat([]byte("foo"), 0)
	assert.Equal(t, RefFormatOnlyOneLevel, err.(*ErrBadReferenceName).Kind)

	assert.NoError(t, CheckRefFormat([]byte("foo"), AllowOneLevel))

	assert.NoError(t, CheckRefFormat([]byte("foo/*"), RefspecPattern))

	err = CheckRefFormat([]byte("foo/*/*"), RefspecPattern)
	assert.Equal(t, RefFormatMultipleAsterisks, err.(*ErrBadReferenceName).Kind)
}

func TestCheckRefFormatRejectsAsteriskWithoutPattern(t *testing.T) {
	err := CheckRefFormat([]byte("refs/heads/*"), 0)
	assert.Equal(t, RefFormatAsterisk, err.(*ErrBadReferenceName).Kind)
}

func TestValidateReferenceNameWrapsCheckRefFormat(t *testing.T) {
	assert.True(t, ValidateReferenceName([]byte("refs/heads/main")))
	assert.True(t, ValidateReferenceName([]byte("HEAD")))
	assert.False(t, ValidateReferenceName([]byte("refs/heads/..")))
}
