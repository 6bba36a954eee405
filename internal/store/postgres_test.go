package store

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hadiscover/hadiscover/pkg/types"
)

// The PostgreSQL backend shares row scanning and statistics logic with the
// SQLite backend; only clause construction differs. These tests pin the
// placeholder numbering since it is easy to break when adding filters.

func TestBuildPostgresWhereEmpty(t *testing.T) {
	where, args := buildPostgresWhere(types.SearchQuery{})
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestBuildPostgresWherePlaceholders(t *testing.T) {
	q := types.SearchQuery{
		Term:               "motion",
		TriggerFilter:      "state",
		ActionDomainFilter: "light",
		BlueprintOnly:      true,
	}
	where, args := buildPostgresWhere(q)

	assert.Equal(t, []interface{}{"motion", "state", "light"}, args)
	assert.Contains(t, where, "$1")
	assert.Contains(t, where, "$2")
	assert.Contains(t, where, "$3")
	assert.NotContains(t, where, "$4")
	assert.Contains(t, where, "similarity(a.alias, $1)")
	assert.Contains(t, where, "a.blueprint_path != ''")
}

func TestBuildPostgresWhereTermOnly(t *testing.T) {
	where, args := buildPostgresWhere(types.SearchQuery{Term: "motion"})

	assert.Len(t, args, 1)
	assert.Contains(t, where, "ILIKE")
	assert.NotContains(t, where, "trigger_types")
}
