package output

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinWithAnd(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  string
	}{
		{"empty", nil, ""},
		{"single", []string{"a"}, "a"},
		{"two", []string{"a", "b"}, "a and b"},
		{"three", []string{"a", "b", "c"}, "a, b and c"},
		{"four", []string{"a", "b", "c", "d"}, "a, b, c and d"},
		{"five", []string{"one", "two", "three", "four", "five"}, "one, two, three, four and five"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, JoinWithAnd(tt.items))
		})
	}
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "commit", Pluralize(1, "commit", "commits"))
	assert.Equal(t, "commits", Pluralize(2, "commit", "commits"))
	assert.Equal(t, "commits", Pluralize(0, "commit", "commits"))
}
