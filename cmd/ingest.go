package cmd

import (
	"github.com/spf13/cobra"
	"pseudoenzymes-backend/domain/pipeline"
	"strings"
)

var (
	ingestPrune    bool
	linkFullReload bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [step...]",
	Short: "导入实体",
	Long: `按依赖顺序导入分类树、GO、ECO、EC、CATH、PDB 与 UniProt 蛋白。
不指定步骤时执行全部实体导入步骤，每个步骤都可以单独重复执行。

可选步骤：` + strings.Join([]string{
		pipeline.StepTaxonomy, pipeline.StepGoTerms, pipeline.StepEcoTerms, pipeline.StepEcEntries,
		pipeline.StepEcSynonyms, pipeline.StepCathSuperfamilies, pipeline.StepPdbEntries,
		pipeline.StepProteins, pipeline.StepPdbProteins, pipeline.StepPrune,
	}, ", "),
	Example: `  # 全部实体
  pseudoenzymes ingest --config config.yaml

  # 只重新导入 GO 与 ECO
  pseudoenzymes ingest go-terms eco-terms

  # 导入后删除上游已废弃的 SwissProt 条目
  pseudoenzymes ingest proteins --prune`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSteps(cmd, args, false, func(c *pipeline.Catalog) []pipeline.Step {
			steps := c.IngestSteps()
			if ingestPrune {
				steps = append(steps, c.PruneStep())
			}
			return steps
		})
	},
}

var linkCmd = &cobra.Command{
	Use:   "link [step...]",
	Short: "导入关联",
	Long: `导入蛋白与 GO、EC、CATH、PDB 之间的关联，要求实体已经导入。

可选步骤：` + strings.Join([]string{
		pipeline.StepGoLinks, pipeline.StepEcLinksSwissProt, pipeline.StepEcLinksEnzymeDat,
		pipeline.StepCathLinks, pipeline.StepPdbLinks,
	}, ", "),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSteps(cmd, args, linkFullReload, (*pipeline.Catalog).LinkSteps)
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(linkCmd)

	ingestCmd.Flags().BoolVar(&ingestPrune, "prune", false, "最后删除上游已废弃的 SwissProt 条目")
	linkCmd.Flags().BoolVar(&linkFullReload, "full-reload", false, "清空 GO 关联后在无二级索引的情况下重新导入")
}

func runSteps(cmd *cobra.Command, names []string, fullReload bool, defaults func(c *pipeline.Catalog) []pipeline.Step) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()

	catalog := a.catalog(fullReload)
	steps := defaults(catalog)
	if len(names) > 0 {
		if steps, err = catalog.Select(names); err != nil {
			return err
		}
	}

	p := a.pipeline()
	a.logger.Infof("run [%s] with %d steps", p.RunUUID(), len(steps))
	results, err := p.Run(cmd.Context(), steps)
	renderResults(cmd.OutOrStdout(), results)
	return err
}
