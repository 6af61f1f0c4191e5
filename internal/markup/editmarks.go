package markup

import (
	"strings"

	"github.com/verkaro/editml-go"

	"pagekit/internal/errors"
)

// CleanEditMarks resolves EditML review marks (additions, deletions,
// highlights, comments) into the clean view of the text, leaving plain
// Markdown ready for compilation. Warnings are ignored. A trailing newline
// in src is kept.
func CleanEditMarks(src string) (string, error) {
	nodes, parseIssues := editml.Parse(src)
	for _, issue := range parseIssues {
		if issue.Severity == editml.SeverityError {
			return "", errors.Newf(errors.CodeCompile, "editml parse error: %s", issue.Message)
		}
	}
	clean, transformIssues := editml.TransformCleanView(nodes)
	for _, issue := range transformIssues {
		if issue.Severity == editml.SeverityError {
			return "", errors.Newf(errors.CodeCompile, "editml transform error: %s", issue.Message)
		}
	}
	if strings.HasSuffix(src, "\n") && !strings.HasSuffix(clean, "\n") {
		clean += "\n"
	}
	return clean, nil
}
