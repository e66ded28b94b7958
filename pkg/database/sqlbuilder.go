package database

import (
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
)

// Excluded references the proposed row inside an ON CONFLICT ... DO UPDATE.
// Both PostgreSQL and SQLite accept the upper-case spelling.
func Excluded(column string) string {
	return fmt.Sprintf("EXCLUDED.%s", column)
}

type InsertBuilder struct {
	*sqlbuilder.InsertBuilder
}

func NewInsertBuilder(flavor sqlbuilder.Flavor) *InsertBuilder {
	return &InsertBuilder{
		flavor.NewInsertBuilder(),
	}
}

// OnConflictUpdate appends an upsert clause that overwrites the given columns
// from the proposed row and bumps updated_at. Call it after Values.
func (b *InsertBuilder) OnConflictUpdate(conflict []string, columns ...string) *InsertBuilder {
	sets := make([]string, 0, len(columns)+1)
	for _, col := range columns {
		sets = append(sets, fmt.Sprintf("%s = %s", col, Excluded(col)))
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")

	b.SQL(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", strings.Join(conflict, ", "), strings.Join(sets, ", ")))
	return b
}

func (b *InsertBuilder) OnConflictDoNothing(conflict ...string) *InsertBuilder {
	if len(conflict) == 0 {
		b.SQL("ON CONFLICT DO NOTHING")
		return b
	}
	b.SQL(fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", strings.Join(conflict, ", ")))
	return b
}
