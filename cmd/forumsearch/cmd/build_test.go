package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitCommaList(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   ", nil},
		{"single", "askgo", []string{"askgo"}},
		{"multiple", "askgo,golang,programming", []string{"askgo", "golang", "programming"}},
		{"trims whitespace", " askgo , golang ,programming ", []string{"askgo", "golang", "programming"}},
		{"drops empty entries", "askgo,,golang", []string{"askgo", "golang"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, splitCommaList(tc.in))
		})
	}
}
