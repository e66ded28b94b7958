package sqlscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "simple statements",
			script: "CREATE TABLE a (id INT);\nCREATE TABLE b (id INT);",
			want:   []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"},
		},
		{
			name:   "semicolon inside single quotes",
			script: "INSERT INTO t VALUES ('a;b'); SELECT 1;",
			want:   []string{"INSERT INTO t VALUES ('a;b')", "SELECT 1"},
		},
		{
			name:   "semicolon inside double quotes",
			script: `SELECT "x;y" FROM t; SELECT 2`,
			want:   []string{`SELECT "x;y" FROM t`, "SELECT 2"},
		},
		{
			name:   "escaped quote does not close literal",
			script: `INSERT INTO t VALUES ('it\'s; fine'); SELECT 3;`,
			want:   []string{`INSERT INTO t VALUES ('it\'s; fine')`, "SELECT 3"},
		},
		{
			name:   "doubled quote stays inside literal",
			script: "INSERT INTO t VALUES ('it''s; fine');",
			want:   []string{"INSERT INTO t VALUES ('it''s; fine')"},
		},
		{
			name:   "line comments dropped",
			script: "-- header; with semicolon\nSELECT 1; -- trailing\nSELECT 2;",
			want:   []string{"SELECT 1", "SELECT 2"},
		},
		{
			name:   "comment marker inside literal kept",
			script: "SELECT '--not a comment';",
			want:   []string{"SELECT '--not a comment'"},
		},
		{
			name:   "block comments dropped",
			script: "/* setup; */ SELECT 1;",
			want:   []string{"SELECT 1"},
		},
		{
			name:   "trailing statement without semicolon",
			script: "SELECT 1;\nSELECT 2",
			want:   []string{"SELECT 1", "SELECT 2"},
		},
		{
			name:   "delimiter directives and blanks skipped",
			script: "DELIMITER //\n;;\r\nSELECT 1;",
			want:   []string{"SELECT 1"},
		},
		{
			name:   "empty script",
			script: "  \n-- only a comment\n",
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.script))
		})
	}
}
