package pipeline

import (
	"context"
	"fmt"
	"pseudoenzymes-backend/config"
	"pseudoenzymes-backend/domain/bulkload"
	"pseudoenzymes-backend/domain/linker"
	"pseudoenzymes-backend/domain/reconcile"
	"pseudoenzymes-backend/repository/biodb"
	"strings"
)

const (
	StepTaxonomy          = "taxonomy"
	StepGoTerms           = "go-terms"
	StepEcoTerms          = "eco-terms"
	StepEcEntries         = "ec-entries"
	StepEcSynonyms        = "ec-synonyms"
	StepCathSuperfamilies = "cath-superfamilies"
	StepPdbEntries        = "pdb-entries"
	StepProteins          = "proteins"
	StepPdbProteins       = "pdb-proteins"
	StepPrune             = "prune"
	StepGoLinks           = "go-links"
	StepEcLinksSwissProt  = "ec-links-swissprot"
	StepEcLinksEnzymeDat  = "ec-links-enzyme-dat"
	StepCathLinks         = "cath-links"
	StepPdbLinks          = "pdb-links"
)

/*
Catalog 由配置中的路径生成全部步骤

	FullReload 为真时 GO 关联先清空再在无二级索引的情况下导入；
*/
type Catalog struct {
	Paths      config.PathsConfig
	Reconciler *reconcile.Reconciler
	Linker     *linker.Linker
	Loader     *bulkload.Loader
	FullReload bool
}

// IsGAF 按扩展名判断 GO 注释文件是 GAF 还是 GPA
func IsGAF(path string) bool {
	name := strings.TrimSuffix(strings.ToLower(path), ".gz")
	return strings.HasSuffix(name, ".gaf")
}

/*
IngestSteps 实体导入步骤，按依赖顺序：分类树先于蛋白，本体与 EC 先于关联
*/
func (c *Catalog) IngestSteps() []Step {
	p := c.Paths
	r := c.Reconciler
	return []Step{
		{
			Name:   StepTaxonomy,
			Source: p.TaxNodes,
			Run: func(ctx context.Context) (biodb.SchemaStepStats, error) {
				return r.Taxa(ctx, reconcile.TaxonomyPaths{Names: p.TaxNames, Nodes: p.TaxNodes, Merged: p.TaxMerged})
			},
		},
		{Name: StepGoTerms, Source: p.GoOntology, Run: bind(r.GoTerms, p.GoOntology)},
		{Name: StepEcoTerms, Source: p.EcoOntology, Run: bind(r.EcoTerms, p.EcoOntology)},
		{
			Name:   StepEcEntries,
			Source: p.EcDat,
			Run: func(ctx context.Context) (biodb.SchemaStepStats, error) {
				return r.EcEntries(ctx, p.EcClasses, p.EcDat)
			},
		},
		{Name: StepEcSynonyms, Source: p.EcIntenz, Run: bind(r.EcSynonyms, p.EcIntenz)},
		{Name: StepCathSuperfamilies, Source: p.CathNames, Run: bind(r.CathSuperfamilies, p.CathNames)},
		{Name: StepPdbEntries, Source: p.PdbEntries, Run: bind(r.PdbEntries, p.PdbEntries)},
		{Name: StepProteins, Source: p.UniProtSprot, Run: bind(r.Proteins, p.UniProtSprot)},
		{Name: StepPdbProteins, Source: p.UniProtPdb, Run: bind(r.Proteins, p.UniProtPdb)},
	}
}

/*
LinkSteps 关联导入步骤，要求实体已经导入
*/
func (c *Catalog) LinkSteps() []Step {
	p := c.Paths
	l := c.Linker
	return []Step{
		{Name: StepGoLinks, Source: p.GoAnnotations, Run: c.goLinks},
		{Name: StepEcLinksSwissProt, Source: p.UniProtSprot, Run: bind(l.EcFromSwissProt, p.UniProtSprot)},
		{Name: StepEcLinksEnzymeDat, Source: p.EcDat, Run: bind(l.EcFromEnzymeDat, p.EcDat)},
		{Name: StepCathLinks, Source: p.CathDomains, Run: bind(l.CathDomains, p.CathDomains)},
		{Name: StepPdbLinks, Source: p.PdbSifts, Run: bind(l.PdbFromSifts, p.PdbSifts)},
	}
}

func (c *Catalog) PruneStep() Step {
	return Step{Name: StepPrune, Source: c.Paths.UniProtSprot, Run: bind(c.Reconciler.Prune, c.Paths.UniProtSprot)}
}

// All 全部步骤，prune 不在其中，需要显式选择
func (c *Catalog) All() []Step {
	return append(c.IngestSteps(), c.LinkSteps()...)
}

/*
Select 按名字挑出步骤，保持 names 的顺序
*/
func (c *Catalog) Select(names []string) ([]Step, error) {
	byName := make(map[string]Step)
	for _, step := range append(c.All(), c.PruneStep()) {
		byName[step.Name] = step
	}

	steps := make([]Step, 0, len(names))
	for _, name := range names {
		step, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownStep, name)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func (c *Catalog) goLinks(ctx context.Context) (biodb.SchemaStepStats, error) {
	path := c.Paths.GoAnnotations
	load := func(ctx context.Context) (biodb.SchemaStepStats, error) {
		if IsGAF(path) {
			return c.Linker.GoFromGAF(ctx, path, c.Paths.GafEcoMapping)
		}
		return c.Linker.GoFromGPA(ctx, path)
	}

	if c.FullReload && c.Loader != nil {
		return c.Loader.ReloadGoAnnotations(ctx, load)
	}
	return load(ctx)
}

func bind(fn func(ctx context.Context, path string) (biodb.SchemaStepStats, error), path string) func(ctx context.Context) (biodb.SchemaStepStats, error) {
	return func(ctx context.Context) (biodb.SchemaStepStats, error) {
		return fn(ctx, path)
	}
}
