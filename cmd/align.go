package cmd

import (
	"context"
	"github.com/spf13/cobra"
	"pseudoenzymes-backend/domain/msa"
	"pseudoenzymes-backend/domain/pipeline"
	"pseudoenzymes-backend/repository/biodb"
)

var alignName string

var alignCmd = &cobra.Command{
	Use:   "align",
	Short: "按 CATH 超家族导出结构域序列并调用 mafft / trimal / fasttree",
	Long: `依次执行：导出每个超家族的结构域序列（{family}_in.fasta）、mafft 比对（{family}_out.fasta）、
trimal 与 fasttree 建树（{family}.tree），最后把比对结果导入库中。每一步也可以单独执行。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAligner(cmd, func(ctx context.Context, a *app) error {
			for _, step := range []func(ctx context.Context, a *app) error{exportFamilies, runAlign, runTrees, loadAlignments} {
				if err := step(ctx, a); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(alignCmd)
	alignCmd.PersistentFlags().StringVar(&alignName, "name", msa.DomainStrip, "导入时比对的名称，同名比对整体替换")

	for _, sub := range []struct {
		use, short string
		run        func(ctx context.Context, a *app) error
	}{
		{"export", "导出每个超家族的结构域序列", exportFamilies},
		{"run", "对导出的序列执行 mafft", runAlign},
		{"trees", "trimal 修剪后用 fasttree 建树", runTrees},
		{"load", "导入 *_out.fasta", loadAlignments},
	} {
		run := sub.run
		alignCmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withAligner(cmd, run)
			},
		})
	}
}

func withAligner(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(cmd.Context(), a)
}

func exportFamilies(ctx context.Context, a *app) error {
	families, err := a.aligner.ExportFamilies(ctx, a.config.Paths.MsaDir)
	if err != nil {
		return err
	}
	a.logger.Infof("exported %d families to [%s]", len(families), a.config.Paths.MsaDir)
	return nil
}

func runAlign(ctx context.Context, a *app) error {
	n, err := a.aligner.Align(ctx, a.config.Paths.MsaDir)
	if err != nil {
		return err
	}
	a.logger.Infof("aligned %d families", n)
	return nil
}

func runTrees(ctx context.Context, a *app) error {
	n, err := a.aligner.Trees(ctx, a.config.Paths.MsaDir, a.config.Paths.TreeDir)
	if err != nil {
		return err
	}
	a.logger.Infof("built %d trees", n)
	return nil
}

func loadAlignments(ctx context.Context, a *app) error {
	p := a.pipeline()
	results, err := p.Run(ctx, []pipeline.Step{{
		Name:   "msa-load",
		Source: a.config.Paths.MsaDir,
		Run: func(ctx context.Context) (biodb.SchemaStepStats, error) {
			return a.aligner.Load(ctx, a.config.Paths.MsaDir, alignName)
		},
	}})
	for _, r := range results {
		a.logger.Infof("msa [%s]: created=%d deleted=%d dropped=%d unresolved=%d",
			alignName, r.Stats.Created, r.Stats.Deleted, r.Stats.Dropped, r.Stats.Unresolved)
	}
	return err
}
