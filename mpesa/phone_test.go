package mpesa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "leading zero", input: "0712345678", want: "254712345678"},
		{name: "bare subscriber number", input: "712345678", want: "254712345678"},
		{name: "full form", input: "254712345678", want: "254712345678"},
		{name: "international prefix", input: "+254712345678", want: "254712345678"},
		{name: "new 1xx range", input: "0110123456", want: "254110123456"},
		{name: "surrounding whitespace", input: " 0712345678 ", want: "254712345678"},
		{name: "too short", input: "12345", wantErr: true},
		{name: "too long", input: "25471234567890", wantErr: true},
		{name: "non-digit", input: "07123456a8", wantErr: true},
		{name: "wrong country code", input: "255712345678", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePhone(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidPhone)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Len(t, got, 12)
		})
	}
}
