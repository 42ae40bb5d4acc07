package idcard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: " \n\t\r\n  ",
			want:  "",
		},
		{
			name:  "collapses runs and drops blank lines",
			input: "  Họ và   tên \n\n\t NGUYỄN  VĂN AN  \r\n",
			want:  "Họ và tên\nNGUYỄN VĂN AN",
		},
		{
			name:  "carriage returns split lines",
			input: "Số: 079201012345\rNgày sinh: 01/01/1990",
			want:  "Số: 079201012345\nNgày sinh: 01/01/1990",
		},
		{
			name:  "composes decomposed diacritics",
			input: "Nguye\u0302\u0303n",
			want:  "Nguy\u1ec5n",
		},
		{
			name:  "non-breaking space counts as whitespace",
			input: "Đường\u00a0185",
			want:  "Đường 185",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, input := range []string{sampleFront, sampleBack, sampleLegacyFront, "", "a\n\n b  c"} {
		once := Normalize(input)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestNormalizeText_Merged(t *testing.T) {
	n := NormalizeText(RawText{Front: " a \n", Back: "\n b"})
	assert.Equal(t, "a", n.Front)
	assert.Equal(t, "b", n.Back)
	assert.Equal(t, "a\nb", n.Merged())
}
