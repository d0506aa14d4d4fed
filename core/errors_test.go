package core

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestIsShutdown(t *testing.T) {
	sd := NewShutdownError("integrity check failed")

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
		{name: "shutdown", err: sd, want: true},
		{name: "wrapped", err: errors.Wrap(sd, "saving"), want: true},
		{name: "fmt wrapped", err: fmt.Errorf("saving: %w", sd), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsShutdown(tt.err))
		})
	}
}
