package parley_test

import (
	"testing"

	"github.com/fwojciec/parley"
	"github.com/stretchr/testify/assert"
)

func TestSenderForRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		role   string
		want   parley.Sender
		wantOK bool
	}{
		{"user", parley.SenderUser, true},
		{"assistant", parley.SenderAssistant, true},
		{"ai", parley.SenderAssistant, true},
		{"model", parley.SenderAssistant, true},
		{"system", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			t.Parallel()
			got, ok := parley.SenderForRole(tt.role)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}
