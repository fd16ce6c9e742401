package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"already international", "+263771234567", "+263771234567"},
		{"local with leading zero", "0771234567", "+263771234567"},
		{"bare digits", "263771234567", "+263771234567"},
		{"spaces stripped", " 077 123 4567 ", "+263771234567"},
		{"us number untouched", "+14155552671", "+14155552671"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.raw, "263")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizePhoneRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "abc", "+0123456789", "12", "+1234567890123456"} {
		t.Run(raw, func(t *testing.T) {
			_, err := NormalizePhone(raw, "263")
			assert.ErrorIs(t, err, ErrInvalidPhone)
		})
	}
}
