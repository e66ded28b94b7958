package sqlscript

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/sujan-004/etl-pipeline-project/pkg/database"
)

type StatementError struct {
	Index     int    `json:"index"`
	Statement string `json:"statement"`
	Error     string `json:"error"`
}

type ExecResult struct {
	Executed int              `json:"executed"`
	Failed   int              `json:"failed"`
	Errors   []StatementError `json:"errors,omitempty"`
}

type ExecOptions struct {
	// ContinueOnError keeps executing after a failed statement.
	ContinueOnError bool
}

var createTableRe = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?["` + "`" + `]?(\w+)`)

// Exec splits script and runs each statement in order against q.
func Exec(ctx context.Context, q database.Querier, script string, opts ExecOptions, logger ectologger.Logger) (*ExecResult, error) {
	statements := Split(script)
	logger.WithContext(ctx).Infof("Found %d SQL statements to execute", len(statements))

	result := &ExecResult{}
	for i, stmt := range statements {
		if _, err := q.ExecContext(ctx, stmt); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, StatementError{
				Index:     i + 1,
				Statement: preview(stmt),
				Error:     err.Error(),
			})
			logger.WithContext(ctx).WithError(err).WithField("statement", i+1).Warnf("Statement %d failed: %s", i+1, preview(stmt))
			if !opts.ContinueOnError {
				return result, fmt.Errorf("statement %d failed: %w", i+1, err)
			}
			continue
		}

		result.Executed++
		if m := createTableRe.FindStringSubmatch(stmt); m != nil {
			logger.WithContext(ctx).Infof("Created table: %s", m[1])
		}
	}

	return result, nil
}

func preview(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 80 {
		return stmt[:80] + "..."
	}
	return stmt
}
