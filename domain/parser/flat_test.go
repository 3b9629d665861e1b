package parser

import (
	"bytes"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestReadTaxdump(t *testing.T) {
	p := New(nil)

	names := "1\t|\troot\t|\t\t|\tscientific name\t|\n" +
		"9606\t|\tHomo sapiens\t|\t\t|\tscientific name\t|\n" +
		"9606\t|\thuman\t|\t\t|\tgenbank common name\t|\n" +
		"x\t|\tbroken\t|\t\t|\tscientific name\t|\n"
	var nameRecords []TaxNameRecord
	stats, err := p.ReadTaxNames(strings.NewReader(names), func(record TaxNameRecord) error {
		nameRecords = append(nameRecords, record)
		return nil
	})
	require.Nil(t, err)
	assert.EqualValues(t, 1, stats.Dropped)
	require.Len(t, nameRecords, 3)
	assert.Equal(t, TaxNameRecord{Taxid: 9606, Name: "human", Class: TaxNameClassCommon}, nameRecords[2])

	nodes := "1\t|\t1\t|\tno rank\t|\t\t|\n" +
		"9606\t|\t9605\t|\tSpecies\t|\t\t|\n"
	var nodeRecords []TaxNodeRecord
	_, err = p.ReadTaxNodes(strings.NewReader(nodes), func(record TaxNodeRecord) error {
		nodeRecords = append(nodeRecords, record)
		return nil
	})
	require.Nil(t, err)
	assert.Equal(t, []TaxNodeRecord{
		{Taxid: 1, Parent: 1, Rank: "no rank"},
		{Taxid: 9606, Parent: 9605, Rank: "species"},
	}, nodeRecords)

	merged := "12\t|\t74109\t|\n30\t|\t29\t|\n"
	var mergedRecords []TaxMergedRecord
	_, err = p.ReadTaxMerged(strings.NewReader(merged), func(record TaxMergedRecord) error {
		mergedRecords = append(mergedRecords, record)
		return nil
	})
	require.Nil(t, err)
	assert.Equal(t, []TaxMergedRecord{{OldTaxid: 12, NewTaxid: 74109}, {OldTaxid: 30, NewTaxid: 29}}, mergedRecords)
}

func TestReadCath(t *testing.T) {
	p := New(nil)

	var names []CathNameRecord
	_, err := p.ReadCathNames(strings.NewReader("1.10.8.10 Helicase, Ruva Protein; domain 3\n3.40.50.1820\talpha/beta hydrolase\nbad name\n"), func(record CathNameRecord) error {
		names = append(names, record)
		return nil
	})
	require.Nil(t, err)
	assert.Equal(t, []CathNameRecord{
		{Number: "1.10.8.10", Name: "Helicase, Ruva Protein; domain 3"},
		{Number: "3.40.50.1820", Name: "alpha/beta hydrolase"},
	}, names)

	domains := "P12345\tIPR029058\tAlpha/Beta hydrolase fold\tG3DSA:3.40.50.1820\t10\t20\t1.2E-30\n" +
		"P12345\tIPR000001\tKringle\tPF00051\t30\t90\n" +
		"P12345\tIPR029058\tAlpha/Beta hydrolase fold\tG3DSA:3.40.50.1820\t50\t40\n"
	var records []CathDomainRecord
	stats, err := p.ReadCathDomains(strings.NewReader(domains), func(record CathDomainRecord) error {
		records = append(records, record)
		return nil
	})
	require.Nil(t, err)
	assert.EqualValues(t, 1, stats.Dropped)
	require.Len(t, records, 1)
	assert.Equal(t, CathDomainRecord{Accession: "P12345", CathNumber: "3.40.50.1820", StartPos: 10, EndPos: 20, Evalue: 1.2e-30}, records[0])
}

func TestReadPdb(t *testing.T) {
	p := New(nil)

	entries := "IDCODE, HEADER, ACCESSION DATE, COMPOUND, SOURCE, AUTHOR LIST, RESOLUTION, EXPERIMENT TYPE\n" +
		"------- ------\n" +
		"100D\tDNA-RNA HYBRID\t12/05/94\tCRYSTAL STRUCTURE OF A DNA-RNA HYBRID\tSYNTHETIC\tBan, C.\t1.9\tX-RAY DIFFRACTION\n" +
		"7XYZ\tHYDROLASE\t03/15/22\tINACTIVE HYDROLASE\tHUMAN\tDoe, J.\t2.1\tELECTRON MICROSCOPY\n" +
		"8ABC\tHYDROLASE\t13/40/22\tBAD DATE\tHUMAN\tDoe, J.\t2.1\tX-RAY DIFFRACTION\n"
	var records []PdbEntryRecord
	stats, err := p.ReadPdbEntries(strings.NewReader(entries), func(record PdbEntryRecord) error {
		records = append(records, record)
		return nil
	})
	require.Nil(t, err)
	assert.EqualValues(t, 1, stats.Dropped)
	require.Len(t, records, 2)
	assert.Equal(t, PdbEntryRecord{
		PdbID:  "100d",
		Title:  "crystal structure of a dna-rna hybrid",
		Date:   time.Date(1994, 12, 5, 0, 0, 0, 0, time.UTC),
		Method: "x-ray diffraction",
	}, records[0])
	assert.Equal(t, 2022, records[1].Date.Year())

	sifts := "# 2024/01/01 - 12:00 | PDB: 01.24 | UniProt: 2024.01\n" +
		"SP_PRIMARY\tPDB\n" +
		"P12345\t1ABC;2XYZ\n" +
		"Q99999\t\n"
	var siftsRecords []SiftsRecord
	stats, err = p.ReadSifts(strings.NewReader(sifts), func(record SiftsRecord) error {
		siftsRecords = append(siftsRecords, record)
		return nil
	})
	require.Nil(t, err)
	assert.EqualValues(t, 1, stats.Dropped)
	assert.Equal(t, []SiftsRecord{{Accession: "P12345", PdbIDs: []string{"1abc", "2xyz"}}}, siftsRecords)
}

func TestFasta(t *testing.T) {
	seq := strings.Repeat("ACDEFGHIKL", 17)

	var buf bytes.Buffer
	writer := NewFastaWriter(&buf)
	require.Nil(t, writer.Write("42", seq))
	require.Nil(t, writer.Write("43", "MK-V"))
	require.Nil(t, writer.Flush())

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, ">42", lines[0])
	assert.Len(t, lines[1], FastaLineWidth)
	assert.Len(t, lines[3], 10)

	var records []FastaRecord
	_, err := New(nil).ReadFasta(&buf, func(record FastaRecord) error {
		records = append(records, record)
		return nil
	})
	require.Nil(t, err)
	assert.Equal(t, []FastaRecord{{ID: "42", Sequence: seq}, {ID: "43", Sequence: "MK-V"}}, records)
}

func TestOpenGzip(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "names.dmp")
	compressed := filepath.Join(dir, "names.dmp.gz")
	content := "9606\t|\tHomo sapiens\t|\t\t|\tscientific name\t|\n"

	require.Nil(t, os.WriteFile(plain, []byte(content), 0644))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(content))
	require.Nil(t, err)
	require.Nil(t, zw.Close())
	require.Nil(t, os.WriteFile(compressed, buf.Bytes(), 0644))

	for _, path := range []string{plain, compressed} {
		var records []TaxNameRecord
		stats, err := New(nil).ReadTaxNamesFile(path, func(record TaxNameRecord) error {
			records = append(records, record)
			return nil
		})
		require.Nil(t, err, path)
		assert.EqualValues(t, 1, stats.Records)
		assert.Equal(t, "Homo sapiens", records[0].Name)
	}

	_, err = New(nil).ReadTaxNamesFile(filepath.Join(dir, "missing"), func(TaxNameRecord) error { return nil })
	assert.NotNil(t, err)
}
