package price

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		text  string
		want  float64
		valid bool
	}{
		{text: "1.999,00", want: 1999, valid: true},
		{text: "1,999.00", want: 1999, valid: true},
		{text: "9,99", want: 9.99, valid: true},
		{text: "1.999", want: 1999, valid: true},
		{text: "15% off", valid: false},
		{text: "0,00", valid: false},
		{text: "1500000", valid: false},
		{text: "€ 12,50", want: 12.5, valid: true},
		{text: "$1,299", want: 1299, valid: true},
		{text: "19.99 lei", want: 19.99, valid: true},
		{text: "1 299,90 RON", want: 1299.9, valid: true},
		{text: "1 299,90 €", want: 1299.9, valid: true},
		{text: "Rs. 500", want: 500, valid: true},
		{text: "£7", want: 7, valid: true},
		{text: "1.234.567", valid: false},
		{text: "0.999", want: 0.999, valid: true},
		{text: "12-15", valid: false},
		{text: "-5", valid: false},
		{text: "Sold out", valid: false},
		{text: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := Parse(tt.text)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestParserCeiling(t *testing.T) {
	p := Parser{Ceiling: 100}

	_, ok := p.Parse("100,01")
	assert.False(t, ok)

	got, ok := p.Parse("100")
	assert.True(t, ok)
	assert.Equal(t, 100.0, got)

	// a zero ceiling falls back to the default bound
	got, ok = Parser{}.Parse("999999")
	assert.True(t, ok)
	assert.Equal(t, 999999.0, got)
}
