package graph

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"pseudoenzymes-backend/utils"
)

const (
	NodesFile     = "graph_nodes.csv"
	RelationsFile = "graph_relations.csv"
)

/*
WriteCSV 把图写成两个 CSV 文件，可用 LOAD CSV 或 neo4j-admin import 导入：

	graph_nodes.csv     label,id,name
	graph_relations.csv label,from,rel,to
*/
func (e *Exporter) WriteCSV(ctx context.Context, dir string) (*ExportResult, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, utils.WrapErrorf(err, "create dir [%s] fail", dir)
	}

	nodeFile, err := os.Create(filepath.Join(dir, NodesFile))
	if err != nil {
		return nil, utils.WrapError(err, "create nodes csv fail")
	}
	defer nodeFile.Close()

	relationFile, err := os.Create(filepath.Join(dir, RelationsFile))
	if err != nil {
		return nil, utils.WrapError(err, "create relations csv fail")
	}
	defer relationFile.Close()

	nodeCSV := csv.NewWriter(nodeFile)
	relationCSV := csv.NewWriter(relationFile)

	// 写文件头
	if err = nodeCSV.Write([]string{"label", "id", "name"}); err != nil {
		return nil, utils.WrapError(err, "write nodes header fail")
	}
	if err = relationCSV.Write([]string{"label", "from", "rel", "to"}); err != nil {
		return nil, utils.WrapError(err, "write relations header fail")
	}

	result := &ExportResult{}
	err = e.walk(ctx, func(nodes []Node) error {
		for _, n := range nodes {
			if err := nodeCSV.Write([]string{n.Label, n.ID, n.Name}); err != nil {
				return utils.WrapErrorf(err, "record node [%s] fail", n.ID)
			}
		}
		result.Nodes += int64(len(nodes))
		return nil
	}, func(edges []Edge) error {
		for _, edge := range edges {
			if err := relationCSV.Write([]string{edge.Label, edge.From, edge.Rel, edge.To}); err != nil {
				return utils.WrapErrorf(err, "record edge <%s, %s, %s> fail", edge.From, edge.Rel, edge.To)
			}
		}
		result.Edges += int64(len(edges))
		return nil
	})
	if err != nil {
		return nil, utils.WrapError(err, "write graph csv fail")
	}

	nodeCSV.Flush()
	relationCSV.Flush()
	if err = nodeCSV.Error(); err != nil {
		return nil, utils.WrapError(err, "flush nodes csv fail")
	}
	if err = relationCSV.Error(); err != nil {
		return nil, utils.WrapError(err, "flush relations csv fail")
	}
	return result, nil
}
