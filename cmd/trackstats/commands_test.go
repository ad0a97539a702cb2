package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatch_Usage(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"render"}},
		{"analyze without input", []string{"analyze"}},
		{"analyze extra args", []string{"analyze", "a.json", "h1", "extra"}},
		{"bands without dir", []string{"bands"}},
		{"batch without input", []string{"batch"}},
		{"concat without dirs", []string{"concat", "out.csv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, dispatch(context.Background(), tt.args), errUsage)
		})
	}
}

func TestOptionalArg(t *testing.T) {
	args := []string{"tracks.json", `"first half"`}
	assert.Equal(t, "first half", optionalArg(args, 1))
	assert.Equal(t, "", optionalArg(args, 2))
}
