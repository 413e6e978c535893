package conv

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		want    float64
		missing bool
		wantErr bool
	}{
		{"float64", 0.5, 0.5, false, false},
		{"int", 3, 3, false, false},
		{"numeric string", " 1.25 ", 1.25, false, false},
		{"bool", true, 1, false, false},
		{"bytes", []byte("2"), 2, false, false},
		{"nil", nil, 0, true, true},
		{"empty string", "", 0, true, true},
		{"word", "abc", 0, false, true},
		{"struct", struct{}{}, 0, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFloat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, tt.missing, errors.Is(err, ErrMissing))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSliceAnyToString(t *testing.T) {
	got := SliceAnyToString([]any{"a", 12.0, struct{}{}, "b"})
	assert.Equal(t, []string{"a", "12", "b"}, got)
	assert.Nil(t, SliceAnyToString("not a slice"))
}
