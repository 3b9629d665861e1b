package cmd

import (
	"fmt"
	"github.com/spf13/cobra"
	"pseudoenzymes-backend/domain/enzyme"
	"sort"
	"strconv"
	"strings"
)

var (
	classifyFilter       enzyme.Filter
	classifyExperimental bool
	classifyDisputed     bool
	classifyStats        bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "计算 EC、关键词、GO 三种酶判定集合",
	Long: `分别按 EC 编号、UniProt 关键词和 GO "catalytic activity" 后代（qualifier 为 enables）判定酶，
输出三个集合的大小与不一致的蛋白，不做裁决。长度边界为闭区间，0 表示不限。`,
	Example: `  # 20 到 1000 个残基的 SwissProt 蛋白，GO 证据只用实验证据
  pseudoenzymes classify --min-length 20 --max-length 1000 --reviewed-only --experimental-only

  # 列出不一致的蛋白
  pseudoenzymes classify --disputed`,
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().IntVar(&classifyFilter.MinLength, "min-length", 0, "最短序列长度（含）")
	classifyCmd.Flags().IntVar(&classifyFilter.MaxLength, "max-length", 0, "最长序列长度（含）")
	classifyCmd.Flags().BoolVar(&classifyFilter.ReviewedOnly, "reviewed-only", false, "只考虑 SwissProt 条目")
	classifyCmd.Flags().BoolVar(&classifyExperimental, "experimental-only", false, "GO 判定只使用实验证据")
	classifyCmd.Flags().BoolVar(&classifyDisputed, "disputed", false, "列出判定不一致的蛋白")
	classifyCmd.Flags().BoolVar(&classifyStats, "stats", false, "输出单结构域蛋白数与各 CATH 超家族的 EC3 数")
}

func runClassify(cmd *cobra.Command, args []string) error {
	a, err := loadApp()
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	classification, err := a.classifier.Classify(ctx, classifyFilter, classifyExperimental)
	if err != nil {
		return err
	}

	s := classification.Summary()
	renderKeyValues(out, []string{"Set", "Proteins"}, [][]string{
		{enzyme.SetEc, strconv.Itoa(s.Ec)},
		{enzyme.SetKeyword, strconv.Itoa(s.Keyword)},
		{enzyme.SetGo, strconv.Itoa(s.Go)},
		{"union", strconv.Itoa(s.Union)},
		{"agreed", strconv.Itoa(s.Agreed)},
		{"disputed", strconv.Itoa(s.Disputed)},
	})

	if classifyDisputed {
		accessions := make([]string, 0, len(classification.Disputed))
		for accession := range classification.Disputed {
			accessions = append(accessions, accession)
		}
		sort.Strings(accessions)
		for _, accession := range accessions {
			fmt.Fprintf(out, "%s\t%s\n", accession, strings.Join(classification.Disputed[accession], ","))
		}
	}

	if classifyStats {
		return printStats(cmd, a)
	}
	return nil
}

func printStats(cmd *cobra.Command, a *app) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	single, err := a.classifier.SingleDomainProteins(ctx)
	if err != nil {
		return err
	}
	inRange, err := a.classifier.CountByLength(ctx, classifyFilter.MinLength, classifyFilter.MaxLength)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "single-domain proteins: %d\nproteins in length range: %d\n", len(single), inRange)

	perFamily, err := a.classifier.Ec3PerFamily(ctx)
	if err != nil {
		return err
	}
	families := make([]string, 0, len(perFamily))
	for family := range perFamily {
		families = append(families, family)
	}
	sort.Strings(families)
	rows := make([][]string, 0, len(families))
	for _, family := range families {
		rows = append(rows, []string{family, strconv.Itoa(perFamily[family])})
	}
	renderKeyValues(out, []string{"CATH superfamily", "Distinct EC3"}, rows)
	return nil
}
