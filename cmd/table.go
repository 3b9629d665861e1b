package cmd

import (
	"github.com/olekukonko/tablewriter"
	"io"
	"pseudoenzymes-backend/domain/pipeline"
	"strconv"
)

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}

/*
renderResults 以表格输出每个步骤的计数
*/
func renderResults(w io.Writer, results []pipeline.StepResult) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Step", "Read", "Created", "Skipped", "Updated", "Deleted", "Dropped", "Unresolved", "Elapsed", "Status"})
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "FAIL"
		}
		s := r.Stats
		table.Append([]string{
			r.Step, itoa(s.Read), itoa(s.Created), itoa(s.Skipped), itoa(s.Updated),
			itoa(s.Deleted), itoa(s.Dropped), itoa(s.Unresolved), r.Elapsed.Round(1e6).String(), status,
		})
	}
	table.Render()
}

func renderKeyValues(w io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.AppendBulk(rows)
	table.Render()
}
