package reconcile

import (
	"context"
	"gorm.io/gorm"
	"pseudoenzymes-backend/domain/parser"
	"pseudoenzymes-backend/repository/biodb"
	"pseudoenzymes-backend/utils"
	"sort"
)

/*
TaxidMap 历史 taxid 到当前 taxid 的映射，当前 taxid 映射到自身
*/
type TaxidMap map[int64]int64

/*
NewTaxidMap 由当前 taxid 集合和每个节点合并进来的历史 taxid 列表构造映射。
当前 taxid 总是映射到自身；同一个历史 taxid 出现在多个列表中时取较小的当前 taxid，
与遍历顺序无关。
*/
func NewTaxidMap(current map[int64]struct{}, merged map[int64][]int64) TaxidMap {
	m := make(TaxidMap, len(current))
	for taxid := range current {
		m[taxid] = taxid
	}

	owners := make([]int64, 0, len(merged))
	for taxid := range merged {
		owners = append(owners, taxid)
	}
	sort.Slice(owners, func(i, j int) bool { return owners[i] < owners[j] })

	for _, owner := range owners {
		if _, ok := current[owner]; !ok {
			continue
		}
		for _, old := range merged[owner] {
			if _, taken := m[old]; taken {
				continue
			}
			m[old] = owner
		}
	}
	return m
}

// Resolve 返回当前 taxid，无法映射时返回 nil
func (m TaxidMap) Resolve(taxid int64) *int64 {
	if current, ok := m[taxid]; ok {
		return utils.Int64ToPtr(current)
	}
	return nil
}

func (r *Reconciler) LoadTaxidMap(ctx context.Context) (TaxidMap, error) {
	repo := biodb.NewTaxonRepo(r.db())
	current, err := repo.AllTaxids(ctx)
	if err != nil {
		return nil, utils.WrapError(err, "load current taxids fail")
	}
	merged, err := repo.MergedLists(ctx)
	if err != nil {
		return nil, utils.WrapError(err, "load merged taxids fail")
	}
	return NewTaxidMap(current, merged), nil
}

/*
TaxonomyPaths NCBI taxdump 的三个文件
*/
type TaxonomyPaths struct {
	Names  string
	Nodes  string
	Merged string
}

/*
Taxa 导入 NCBI 分类树。以 nodes.dmp 中的节点为准，names.dmp 提供学名与俗名，
merged.dmp 的历史 taxid 挂到合并后的节点上。根节点的父节点是自身，存为空。
已存在的 taxid 不再写入，但 merged.dmp 中新增的历史 taxid 会并入它的列表（计为 Updated）。
*/
func (r *Reconciler) Taxa(ctx context.Context, paths TaxonomyPaths) (biodb.SchemaStepStats, error) {
	var stats biodb.SchemaStepStats
	p := r.setting.Parser
	taxa := make(map[int64]*biodb.Taxon)

	nodeStats, err := p.ReadTaxNodesFile(paths.Nodes, func(record parser.TaxNodeRecord) error {
		taxon := &biodb.Taxon{Taxid: record.Taxid, Rank: record.Rank}
		if record.Parent != record.Taxid {
			taxon.ParentTaxid = utils.Int64ToPtr(record.Parent)
		}
		taxa[record.Taxid] = taxon
		return nil
	})
	stats.Read += nodeStats.Records
	stats.Dropped += nodeStats.Dropped
	if err != nil {
		return stats, utils.WrapError(err, "read taxonomy nodes fail")
	}

	nameStats, err := p.ReadTaxNamesFile(paths.Names, func(record parser.TaxNameRecord) error {
		taxon, ok := taxa[record.Taxid]
		if !ok {
			return nil
		}
		switch record.Class {
		case parser.TaxNameClassScientific:
			taxon.ScientificName = record.Name
		case parser.TaxNameClassCommon:
			taxon.CommonName = record.Name
		}
		return nil
	})
	stats.Dropped += nameStats.Dropped
	if err != nil {
		return stats, utils.WrapError(err, "read taxonomy names fail")
	}

	mergedStats, err := p.ReadTaxMergedFile(paths.Merged, func(record parser.TaxMergedRecord) error {
		taxon, ok := taxa[record.NewTaxid]
		if !ok {
			stats.Unresolved++
			return nil
		}
		taxon.OldTaxids = append(taxon.OldTaxids, record.OldTaxid)
		return nil
	})
	stats.Dropped += mergedStats.Dropped
	if err != nil {
		return stats, utils.WrapError(err, "read taxonomy merged fail")
	}

	existing, err := biodb.NewTaxonRepo(r.db()).AllTaxids(ctx)
	if err != nil {
		return stats, err
	}

	taxids := make([]int64, 0, len(taxa))
	for taxid := range taxa {
		if _, ok := existing[taxid]; ok {
			stats.Skipped++
			continue
		}
		taxids = append(taxids, taxid)
	}
	sort.Slice(taxids, func(i, j int) bool { return taxids[i] < taxids[j] })

	updated, err := r.mergeOldTaxids(ctx, taxa, existing)
	if err != nil {
		return stats, err
	}
	stats.Updated += updated

	for _, part := range utils.SliceChunk(taxids, r.setting.TaxonBatchSize) {
		batch := make([]biodb.Taxon, 0, len(part))
		for _, taxid := range part {
			batch = append(batch, *taxa[taxid])
		}

		err = r.db().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			created, err := biodb.NewTaxonRepo(tx).Create(ctx, batch)
			stats.Created += created
			return err
		})
		if err != nil {
			return stats, utils.WrapError(err, "insert taxa fail")
		}
	}

	r.logStats("taxa", stats)
	return stats, nil
}

/*
mergeOldTaxids 把文件中已存在节点的历史 taxid 并入库中的列表，返回被修改的节点数
*/
func (r *Reconciler) mergeOldTaxids(ctx context.Context, taxa map[int64]*biodb.Taxon, existing map[int64]struct{}) (int64, error) {
	repo := biodb.NewTaxonRepo(r.db())
	stored, err := repo.MergedLists(ctx)
	if err != nil {
		return 0, err
	}

	var updated int64
	for taxid, taxon := range taxa {
		if _, ok := existing[taxid]; !ok || len(taxon.OldTaxids) == 0 {
			continue
		}
		olds := make(map[int64]struct{}, len(stored[taxid])+len(taxon.OldTaxids))
		for _, old := range stored[taxid] {
			olds[old] = struct{}{}
		}
		added := false
		for _, old := range taxon.OldTaxids {
			if _, ok := olds[old]; !ok {
				olds[old] = struct{}{}
				added = true
			}
		}
		if !added {
			continue
		}

		merged := utils.SetToSlice(olds)
		sort.Slice(merged, func(i, j int) bool { return merged[i] < merged[j] })
		if err = repo.SetOldTaxids(ctx, taxid, merged); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}
