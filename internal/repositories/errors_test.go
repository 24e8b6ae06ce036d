package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestErrorClassification(t *testing.T) {
	wrappedMissing := fmt.Errorf("get lesson failed: %w", gorm.ErrRecordNotFound)
	wrappedDup := fmt.Errorf("create user failed: %w", gorm.ErrDuplicatedKey)

	assert.True(t, IsNotFoundError(wrappedMissing))
	assert.False(t, IsNotFoundError(wrappedDup))
	assert.True(t, IsDuplicateError(wrappedDup))
	assert.False(t, IsDuplicateError(errors.New("boom")))
}
