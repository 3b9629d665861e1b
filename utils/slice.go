package utils

import (
	"github.com/duke-git/lancet/v2/slice"
)

// SliceChunk 切片分块，用于批量查询和批量写入
func SliceChunk[T any](s []T, size int) [][]T {
	if len(s) == 0 {
		return nil
	}
	return slice.Chunk(s, size)
}

// SliceUnique 切片去重，保持首次出现的顺序
func SliceUnique[T comparable](s []T) []T {
	return slice.Unique(s)
}

// SetToSlice 把 map 形式的集合转为切片，顺序不定
func SetToSlice[T comparable](set map[T]struct{}) []T {
	ret := make([]T, 0, len(set))
	for k := range set {
		ret = append(ret, k)
	}
	return ret
}
