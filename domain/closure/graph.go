package closure

import (
	"context"
	"gonum.org/v1/gonum/graph/simple"
	"pseudoenzymes-backend/repository/biodb"
)

/*
Graph 内存中的父子关系图，边的方向为 child -> parent，
节点键可以是 GO 的整数编号、ECO 的字符串编号或 taxid
*/
type Graph[K comparable] struct {
	g    *simple.DirectedGraph
	ids  map[K]int64
	keys map[int64]K
}

func NewGraph[K comparable]() *Graph[K] {
	return &Graph[K]{
		g:    simple.NewDirectedGraph(),
		ids:  make(map[K]int64),
		keys: make(map[int64]K),
	}
}

func (g *Graph[K]) nodeID(key K) int64 {
	if id, ok := g.ids[key]; ok {
		return id
	}
	node := g.g.NewNode()
	g.g.AddNode(node)
	g.ids[key] = node.ID()
	g.keys[node.ID()] = key
	return node.ID()
}

// AddNode 加入孤立节点，已存在时不做任何事
func (g *Graph[K]) AddNode(key K) {
	g.nodeID(key)
}

// AddEdge 加入 child -> parent 边，自环只登记节点
func (g *Graph[K]) AddEdge(child, parent K) {
	from, to := g.nodeID(child), g.nodeID(parent)
	if from == to {
		return
	}
	g.g.SetEdge(g.g.NewEdge(g.g.Node(from), g.g.Node(to)))
}

func (g *Graph[K]) Len() int {
	return len(g.ids)
}

func (g *Graph[K]) Children(_ context.Context, parents []K) ([]K, error) {
	var ret []K
	for _, parent := range parents {
		id, ok := g.ids[parent]
		if !ok {
			continue
		}
		nodes := g.g.To(id)
		for nodes.Next() {
			ret = append(ret, g.keys[nodes.Node().ID()])
		}
	}
	return ret, nil
}

// Parents 返回 key 的直接父节点
func (g *Graph[K]) Parents(key K) []K {
	id, ok := g.ids[key]
	if !ok {
		return nil
	}
	var ret []K
	nodes := g.g.From(id)
	for nodes.Next() {
		ret = append(ret, g.keys[nodes.Node().ID()])
	}
	return ret
}

/*
TermGraph 把本体的全部 is_a 关系读入内存
*/
func TermGraph[K comparable, T any, R any](ctx context.Context, repo *biodb.TermRepo[K, T, R]) (*Graph[K], error) {
	triples, err := repo.Triples(ctx)
	if err != nil {
		return nil, err
	}

	g := NewGraph[K]()
	for triple := range triples {
		if triple.Relation != biodb.RelationIsA {
			continue
		}
		g.AddEdge(triple.Term1, triple.Term2)
	}
	return g, nil
}

/*
TaxonGraph 把分类树读入内存
*/
func TaxonGraph(ctx context.Context, repo *biodb.TaxonRepo) (*Graph[int64], error) {
	g := NewGraph[int64]()
	err := repo.Edges(ctx, func(taxid, parent int64) error {
		g.AddEdge(taxid, parent)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}
