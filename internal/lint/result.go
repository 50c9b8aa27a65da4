package lint

import "sort"

// Severity indicates how an issue is reported. Every issue fails the gate.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is a single lint finding.
type Issue struct {
	File     string   `json:"file"`
	Line     int      `json:"line"`
	Column   int      `json:"column"`
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Result collects the findings of one lint run.
type Result struct {
	Issues     []Issue `json:"issues"`
	FilesTotal int     `json:"files_total"`
}

// Failed reports whether the run found anything at all.
func (r *Result) Failed() bool {
	return len(r.Issues) > 0
}

// ErrorCount returns the number of error-severity issues.
func (r *Result) ErrorCount() int {
	return r.count(SeverityError)
}

// WarningCount returns the number of warning-severity issues.
func (r *Result) WarningCount() int {
	return r.count(SeverityWarning)
}

func (r *Result) count(s Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == s {
			n++
		}
	}
	return n
}

// sortIssues orders issues by file, then position.
func (r *Result) sortIssues() {
	sort.SliceStable(r.Issues, func(i, j int) bool {
		a, b := r.Issues[i], r.Issues[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}
