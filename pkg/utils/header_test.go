package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestColumnIndex(t *testing.T) {
	t.Run("Should prefer an exact match", func(t *testing.T) {
		assert.Equal(t, 1, ColumnIndex([]string{" country", "country"}, "country"))
	})

	t.Run("Should ignore surrounding whitespace", func(t *testing.T) {
		assert.Equal(t, 0, ColumnIndex([]string{" country ", "pop"}, "country"))
		assert.Equal(t, 1, ColumnIndex([]string{"id", "country"}, "country\t"))
	})

	t.Run("Should match case-sensitively", func(t *testing.T) {
		assert.Equal(t, -1, ColumnIndex([]string{"Country"}, "country"))
	})

	t.Run("Should return -1 for an empty header", func(t *testing.T) {
		assert.Equal(t, -1, ColumnIndex(nil, "country"))
	})
}
