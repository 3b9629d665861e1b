package utils

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestWrapError(t *testing.T) {
	assert.Nil(t, WrapError(nil, "nothing"))

	base := errors.New("disk full")
	err := WrapErrorf(WrapError(base, "write batch fail"), "step [%s] fail", "go-terms")
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, base))
	assert.Equal(t, "step [go-terms] fail: write batch fail: disk full", err.Error())
}

func TestSliceChunk(t *testing.T) {
	assert.Nil(t, SliceChunk([]int{}, 3))

	chunks := SliceChunk([]int{1, 2, 3, 4, 5, 6, 7}, 3)
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}, {7}}, chunks)

	assert.Equal(t, []string{"a", "b"}, SliceUnique([]string{"a", "b", "a"}))
}

func TestAtoiOr(t *testing.T) {
	assert.Equal(t, 12, AtoiOr(" 12 ", 0))
	assert.Equal(t, -1, AtoiOr("x", -1))
	assert.Equal(t, int64(7), *Int64ToPtr(7))
}
