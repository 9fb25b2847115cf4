package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListQuery(t *testing.T) {
	assert.Equal(t, "", listQuery("", ""))
	assert.Equal(t, "name contains 'report'", listQuery("name contains 'report'", ""))
	assert.Equal(t, "'abc123' in parents", listQuery("", "abc123"))
	assert.Equal(t, "trashed = false and 'abc123' in parents",
		listQuery("trashed = false", "abc123"))
}

func TestListQueryEscapesParentID(t *testing.T) {
	// A quote in the folder id must not terminate the query literal early.
	assert.Equal(t, `'it\'s' in parents`, listQuery("", "it's"))
	assert.Equal(t, `'a\\b' in parents`, listQuery("", `a\b`))
	assert.Equal(t, `'\\\'' in parents`, listQuery("", `\'`))
}
