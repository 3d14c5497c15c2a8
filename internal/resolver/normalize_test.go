package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCompany(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Initech", "initech"},
		{"corporate suffix", "Initech, Inc.", "initech"},
		{"multiple suffixes", "Hooli Holdings LLC", "hooli holdings"},
		{"ltd", "Pied Piper Ltd", "pied piper"},
		{"extra whitespace", "  Pied   Piper  ", "pied piper"},
		{"unicode width", "Ｉｎｉｔｅｃｈ", "initech"},
		{"empty", "", ""},
		{"only suffix", "Inc.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCompany(tt.input))
		})
	}
}

func TestNormalizeCompanySameBucket(t *testing.T) {
	variants := []string{"Initech", "initech", "INITECH, INC.", "Initech Incorporated"}
	for _, v := range variants {
		assert.Equal(t, "initech", NormalizeCompany(v), "variant %q", v)
	}
}

func TestNormalizePosition(t *testing.T) {
	assert.Equal(t, "Software Engineer", NormalizePosition("  Software   Engineer "))
}

func TestBucketKey(t *testing.T) {
	assert.Equal(t, "initech", BucketKey("Initech, Inc.", "thread-9"))
	assert.Equal(t, "thread-9", BucketKey("", "thread-9"))
	assert.Equal(t, "", BucketKey("", ""))
}
