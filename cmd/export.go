package cmd

import (
	"github.com/spf13/cobra"
	"path/filepath"
	"pseudoenzymes-backend/domain/bulkload"
	"pseudoenzymes-backend/domain/report"
	"strconv"
	"time"
)

var (
	exportCutoff string
	exportNeo4j  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "导出 CSV、报表与图",
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "把蛋白与各关联表导出为 CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		counts, err := a.loader.DumpAll(cmd.Context(), a.config.Paths.CsvDir)
		if err != nil {
			return err
		}
		rows := make([][]string, 0, len(bulkload.Dumps))
		for _, dump := range bulkload.Dumps {
			rows = append(rows, []string{dump.Name + ".csv", itoa(counts[dump.Name])})
		}
		renderKeyValues(cmd.OutOrStdout(), []string{"File", "Rows"}, rows)
		return nil
	},
}

var exportPdbEcCmd = &cobra.Command{
	Use:   "pdb-ec",
	Short: "PDB 结构到 EC 编号的报表，区分截止日期前后",
	RunE: func(cmd *cobra.Command, args []string) error {
		cutoff := report.DefaultCutoff
		if exportCutoff != "" {
			parsed, err := time.Parse("2006-01-02", exportCutoff)
			if err != nil {
				return err
			}
			cutoff = parsed
		}

		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.reporter.WritePdbToEc(cmd.Context(), a.config.Paths.OutDir, cutoff)
		if err != nil {
			return err
		}
		s := r.Summary
		renderKeyValues(cmd.OutOrStdout(), []string{"Item", "Count"}, [][]string{
			{"all pdbs", strconv.Itoa(s.AllPdbs)},
			{"pdbs before cutoff", strconv.Itoa(s.PreviousPdbs)},
			{"pdbs after cutoff", strconv.Itoa(s.RecentPdbs)},
			{"all ec numbers", strconv.Itoa(s.AllEcs)},
			{"ec numbers before cutoff", strconv.Itoa(s.PreviousEcs)},
			{"ec numbers after cutoff", strconv.Itoa(s.RecentEcs)},
			{"ec numbers only after cutoff", strconv.Itoa(s.RecentOnlyEcs)},
		})
		return nil
	},
}

var exportGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "导出 GO、ECO 与分类树，写 CSV 或直接写入 Neo4j",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := loadApp()
		if err != nil {
			return err
		}
		defer a.Close()

		exporter, closer, err := a.graphExporter(exportNeo4j)
		if err != nil {
			return err
		}
		defer closer()

		var nodes, edges int64
		if exportNeo4j {
			result, err := exporter.Push(cmd.Context())
			if err != nil {
				return err
			}
			nodes, edges = result.Nodes, result.Edges
		} else {
			result, err := exporter.WriteCSV(cmd.Context(), filepath.Join(a.config.Paths.OutDir, "graph"))
			if err != nil {
				return err
			}
			nodes, edges = result.Nodes, result.Edges
		}
		renderKeyValues(cmd.OutOrStdout(), []string{"Item", "Count"}, [][]string{
			{"nodes", itoa(nodes)},
			{"edges", itoa(edges)},
		})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportCSVCmd, exportPdbEcCmd, exportGraphCmd)

	exportPdbEcCmd.Flags().StringVar(&exportCutoff, "cutoff", "", "截止日期 YYYY-MM-DD，默认 2021-01-01")
	exportGraphCmd.Flags().BoolVar(&exportNeo4j, "neo4j", false, "写入配置中的 Neo4j 而不是 CSV")
}
