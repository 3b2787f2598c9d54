package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRank(t *testing.T) {
	names := []string{"川味小馆", "粤式茶餐厅", "Noodle House", "Tea Garden"}

	assert.Equal(t, []int{0, 1, 2, 3}, Rank("", names))
	assert.Equal(t, []int{1}, Rank("茶餐", names))
	assert.Equal(t, []int{2}, Rank("ndl", names))
	assert.Empty(t, Rank("pizza", names))

	got := Rank("tea", names)
	assert.Contains(t, got, 3)
	assert.NotContains(t, got, 0)
}
