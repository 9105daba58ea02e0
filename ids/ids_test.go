package ids_test

import (
	"mingle/ids"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := ids.New()
		assert.Len(t, id, ids.Length)
		for _, r := range id {
			assert.True(t, strings.ContainsRune("abcdefghijklmnopqrstuvwxyz0123456789", r))
		}
		assert.False(t, seen[id], "duplicate identifier generated")
		seen[id] = true
	}
}
