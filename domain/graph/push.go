package graph

import (
	"context"
	"fmt"
	"github.com/pkg/errors"
	"pseudoenzymes-backend/utils"
	"sort"
	"strings"
)

var ErrNoRunner = errors.New("no neo4j runner configured")

func constraintCypher(label string) string {
	return fmt.Sprintf("CREATE CONSTRAINT IF NOT EXISTS ON (n:%s) ASSERT n.id IS UNIQUE", label)
}

func nodeCypher(label string) string {
	return fmt.Sprintf(`
		UNWIND $rows AS row
		MERGE (n:%s {id: row.id})
		SET n.name = row.name
	`, label)
}

func edgeCypher(label, rel string) string {
	return fmt.Sprintf(`
		UNWIND $rows AS row
		MATCH (a:%s {id: row.from}), (b:%s {id: row.to})
		MERGE (a)-[:%s]->(b)
	`, label, label, rel)
}

func (e *Exporter) run(cypher string, rows []map[string]interface{}) error {
	_, err := e.setting.Runner.Execute(cypher, map[string]interface{}{"rows": rows})
	return err
}

/*
Push 把 GO、ECO 与分类树写入 Neo4j。节点按 id MERGE，重复执行不会产生重复节点或边。
*/
func (e *Exporter) Push(ctx context.Context) (*ExportResult, error) {
	if e.setting.Runner == nil {
		return nil, ErrNoRunner
	}

	for _, label := range []string{LabelGoTerm, LabelEcoTerm, LabelTaxon} {
		if _, err := e.setting.Runner.Execute(constraintCypher(label), nil); err != nil {
			return nil, utils.WrapErrorf(err, "create constraint on [%s] fail", label)
		}
	}

	result := &ExportResult{}

	onNode := func(nodes []Node) error {
		byLabel := make(map[string][]map[string]interface{})
		for _, n := range nodes {
			byLabel[n.Label] = append(byLabel[n.Label], map[string]interface{}{"id": n.ID, "name": n.Name})
		}
		for _, label := range sortedKeys(byLabel) {
			if err := e.run(nodeCypher(label), byLabel[label]); err != nil {
				return utils.WrapErrorf(err, "merge [%s] nodes fail", label)
			}
		}
		result.Nodes += int64(len(nodes))
		return nil
	}

	onEdge := func(edges []Edge) error {
		byType := make(map[string][]map[string]interface{})
		for _, edge := range edges {
			key := edge.Label + ":" + edge.Rel
			byType[key] = append(byType[key], map[string]interface{}{"from": edge.From, "to": edge.To})
		}
		for _, key := range sortedKeys(byType) {
			label, rel, _ := strings.Cut(key, ":")
			if err := e.run(edgeCypher(label, rel), byType[key]); err != nil {
				return utils.WrapErrorf(err, "merge [%s] edges of [%s] fail", rel, label)
			}
		}
		result.Edges += int64(len(edges))
		return nil
	}

	if err := e.walk(ctx, onNode, onEdge); err != nil {
		return nil, utils.WrapError(err, "push graph to neo4j fail")
	}

	e.setting.Logger.Infof("graph pushed to neo4j: nodes=%d edges=%d", result.Nodes, result.Edges)
	return result, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
