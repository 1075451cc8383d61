package locale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":      "ar",
		"en":    "en",
		"en-GB": "en",
		"ar-SY": "ar",
		"fr":    "ar",
		"!!":    "ar",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), in)
	}
}
