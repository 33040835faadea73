package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeVersion_StaysInsideModDir(t *testing.T) {
	for _, v := range []string{"", ".", "..", "1.0/../../x", "1.0_", "1.20.0-rc.1"} {
		dir := escapeVersion(v)
		assert.NotContains(t, []string{"", ".", ".."}, dir)
		assert.NotContains(t, dir, "/")
		assert.Equal(t, v, unescapeVersion(dir))
	}
}
