package graph

import (
	"context"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
	"sort"
	"strconv"
	"strings"
)

/*
walker 依次读出 GO、ECO、分类树的节点与边，每批节点或边回调一次。
节点总是先于引用它们的边给出。
*/
type walker struct {
	e      *Exporter
	ctx    context.Context
	onNode func([]Node) error
	onEdge func([]Edge) error
}

func (e *Exporter) walk(ctx context.Context, onNode func([]Node) error, onEdge func([]Edge) error) error {
	w := &walker{e: e, ctx: ctx, onNode: onNode, onEdge: onEdge}

	if err := w.goTerms(); err != nil {
		return utils.WrapError(err, "walk go terms fail")
	}
	if err := w.ecoTerms(); err != nil {
		return utils.WrapError(err, "walk eco terms fail")
	}
	if err := w.taxa(); err != nil {
		return utils.WrapError(err, "walk taxa fail")
	}
	return nil
}

// relType 把 "is_a"、"part_of" 这类关系名转换为 Neo4j 关系类型
func relType(relation string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(relation) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}

func (w *walker) goTerms() error {
	repo := biodb.NewGoRepo(w.e.setting.GetDatabase())

	err := repo.Terms(w.ctx, func(batch []biodb.GoTerm) error {
		nodes := make([]Node, len(batch))
		for i := range batch {
			nodes[i] = Node{Label: LabelGoTerm, ID: batch[i].Code(), Name: batch[i].Name}
		}
		return w.onNode(nodes)
	})
	if err != nil {
		return err
	}

	triples, err := repo.Triples(w.ctx)
	if err != nil {
		return err
	}
	edges := make([]Edge, 0, len(triples))
	for t := range triples {
		edges = append(edges, Edge{Label: LabelGoTerm, From: biodb.GoCode(t.Term1), Rel: relType(t.Relation), To: biodb.GoCode(t.Term2)})
	}
	return w.emitEdges(edges)
}

func (w *walker) ecoTerms() error {
	repo := biodb.NewEcoRepo(w.e.setting.GetDatabase())

	err := repo.Terms(w.ctx, func(batch []biodb.EcoTerm) error {
		nodes := make([]Node, len(batch))
		for i := range batch {
			nodes[i] = Node{Label: LabelEcoTerm, ID: batch[i].Code(), Name: batch[i].Name}
		}
		return w.onNode(nodes)
	})
	if err != nil {
		return err
	}

	triples, err := repo.Triples(w.ctx)
	if err != nil {
		return err
	}
	edges := make([]Edge, 0, len(triples))
	for t := range triples {
		edges = append(edges, Edge{Label: LabelEcoTerm, From: "ECO:" + t.Term1, Rel: relType(t.Relation), To: "ECO:" + t.Term2})
	}
	return w.emitEdges(edges)
}

func (w *walker) taxa() error {
	repo := biodb.NewTaxonRepo(w.e.setting.GetDatabase())

	err := repo.Taxa(w.ctx, func(batch []biodb.Taxon) error {
		nodes := make([]Node, len(batch))
		for i := range batch {
			nodes[i] = Node{Label: LabelTaxon, ID: strconv.FormatInt(batch[i].Taxid, 10), Name: batch[i].ScientificName}
		}
		return w.onNode(nodes)
	})
	if err != nil {
		return err
	}

	size := w.e.setting.BatchSize
	edges := make([]Edge, 0, size)
	err = repo.Edges(w.ctx, func(taxid, parent int64) error {
		if taxid == parent {
			return nil
		}
		edges = append(edges, Edge{Label: LabelTaxon, From: strconv.FormatInt(taxid, 10), Rel: RelChildOf, To: strconv.FormatInt(parent, 10)})
		if len(edges) < size {
			return nil
		}
		err := w.onEdge(edges)
		edges = make([]Edge, 0, size)
		return err
	})
	if err != nil {
		return err
	}
	if len(edges) > 0 {
		return w.onEdge(edges)
	}
	return nil
}

// emitEdges 排序后分批回调，保证输出稳定
func (w *walker) emitEdges(edges []Edge) error {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		if edges[i].Rel != edges[j].Rel {
			return edges[i].Rel < edges[j].Rel
		}
		return edges[i].To < edges[j].To
	})

	for _, part := range utils.SliceChunk(edges, w.e.setting.BatchSize) {
		if err := w.onEdge(part); err != nil {
			return err
		}
	}
	return nil
}
