package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalConfirmer(t *testing.T) {
	tests := []struct {
		name      string
		assumeYes bool
		input     string
		expected  bool
	}{
		{"assume yes skips prompt", true, "", true},
		{"answer y", false, "y\n", true},
		{"answer yes", false, "yes\n", true},
		{"answer uppercase", false, "Y\n", true},
		{"answer n", false, "n\n", false},
		{"empty answer declines", false, "\n", false},
		{"closed input declines", false, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			c := &terminalConfirmer{
				assumeYes: tc.assumeYes,
				in:        strings.NewReader(tc.input),
				out:       out,
			}
			assert.Equal(t, tc.expected, c.Confirm("Do you trust this certificate?", "self signed"))
		})
	}
}
