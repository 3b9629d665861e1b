package notify

import (
	"fmt"
	"html"
	"strings"
)

const runEmailHTMLTemplate = `
<h1>Ingestion run %s</h1>
<p>Run: %s</p>
<p>Steps: %d, failed: %d</p>

<table border="1" cellpadding="4">
<tr><th>step</th><th>source</th><th>status</th><th>read</th><th>created</th><th>skipped</th><th>updated</th><th>deleted</th><th>dropped</th><th>unresolved</th></tr>
%s
</table>
%s
`

func runSubject(events []StepEvent) string {
	status := "finished"
	if failed(events) > 0 {
		status = "failed"
	}
	runUUID := ""
	if len(events) > 0 {
		runUUID = events[0].RunUUID
	}
	return fmt.Sprintf("[pseudoenzymes] ingestion %s %s", runUUID, status)
}

func failed(events []StepEvent) int {
	n := 0
	for _, e := range events {
		if e.Status == StatusFail {
			n++
		}
	}
	return n
}

/*
renderRunPage 生成一次运行的汇总邮件，每个步骤一行，失败步骤的错误附在表格后
*/
func renderRunPage(events []StepEvent) string {
	runUUID := ""
	if len(events) > 0 {
		runUUID = events[0].RunUUID
	}

	status := "finished"
	if failed(events) > 0 {
		status = "failed"
	}

	var rows, errs strings.Builder
	for _, e := range events {
		s := e.Stats
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td><td>%d</td></tr>\n",
			html.EscapeString(e.Step), html.EscapeString(e.Source), e.Status,
			s.Read, s.Created, s.Skipped, s.Updated, s.Deleted, s.Dropped, s.Unresolved)
		if e.Error != "" {
			fmt.Fprintf(&errs, "<p>%s: %s</p>\n", html.EscapeString(e.Step), html.EscapeString(e.Error))
		}
	}

	return fmt.Sprintf(runEmailHTMLTemplate, status, runUUID, len(events), failed(events), rows.String(), errs.String())
}

// renderRunText 纯文本备选正文，每个步骤一行
func renderRunText(events []StepEvent) string {
	var b strings.Builder
	for _, e := range events {
		s := e.Stats
		fmt.Fprintf(&b, "%s\t%s\tread=%d created=%d skipped=%d dropped=%d unresolved=%d",
			e.Step, e.Status, s.Read, s.Created, s.Skipped, s.Dropped, s.Unresolved)
		if e.Error != "" {
			fmt.Fprintf(&b, "\t%s", e.Error)
		}
		b.WriteString("\n")
	}
	return b.String()
}
