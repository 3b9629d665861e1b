package closure

import (
	"context"
	"pseudoenzymes-backend/utils"
)

/*
Source 按父节点查询直接子节点，一次查询整个 frontier
*/
type Source[K comparable] interface {
	Children(ctx context.Context, parents []K) ([]K, error)
}

type SourceFunc[K comparable] func(ctx context.Context, parents []K) ([]K, error)

func (f SourceFunc[K]) Children(ctx context.Context, parents []K) ([]K, error) {
	return f(ctx, parents)
}

/*
Descendants 返回 roots 及其全部后代。

每一轮只查询上一轮新加入的节点（frontier），不重复查询已展开的节点，
某一轮没有新节点时结束。图中有环时同样会终止。
*/
func Descendants[K comparable](ctx context.Context, source Source[K], roots []K) (map[K]struct{}, error) {
	result := make(map[K]struct{}, len(roots))
	frontier := make([]K, 0, len(roots))
	for _, root := range roots {
		if _, ok := result[root]; ok {
			continue
		}
		result[root] = struct{}{}
		frontier = append(frontier, root)
	}

	for round := 1; len(frontier) > 0; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		children, err := source.Children(ctx, frontier)
		if err != nil {
			return nil, utils.WrapErrorf(err, "expand closure round %d fail", round)
		}

		next := make([]K, 0)
		for _, child := range children {
			if _, ok := result[child]; ok {
				continue
			}
			result[child] = struct{}{}
			next = append(next, child)
		}
		frontier = next
	}
	return result, nil
}

// DescendantList 与 Descendants 相同，返回切片
func DescendantList[K comparable](ctx context.Context, source Source[K], roots []K) ([]K, error) {
	set, err := Descendants(ctx, source, roots)
	if err != nil {
		return nil, err
	}
	return utils.SetToSlice(set), nil
}
