package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "short", TruncateForLog("short", 10))
	assert.Equal(t, "abc...", TruncateForLog("abcdef", 3))
	assert.Equal(t, "", TruncateForLog("anything", 0))
}

func TestIntersect(t *testing.T) {
	assert.Equal(t, []string{"b", "c"}, Intersect([]string{"a", "b", "c"}, []string{"c", "b", "d"}))
	assert.Nil(t, Intersect([]string{"a"}, nil))
	assert.Nil(t, Intersect([]string{"a"}, []string{"b"}))
}

func TestHead(t *testing.T) {
	items := []string{"a", "b", "c"}
	assert.Equal(t, []string{"a", "b"}, Head(items, 2))
	assert.Equal(t, items, Head(items, 5))
}
