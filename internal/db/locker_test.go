package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, lockKeys([]string{"c", "a", "", "b", "a"}))
	assert.Empty(t, lockKeys(nil))
	assert.Empty(t, lockKeys([]string{""}))
}
