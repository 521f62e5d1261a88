package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsStrongToken(t *testing.T) {
	cases := []struct {
		name  string
		token string
		want  bool
	}{
		{"too short", "Ab1!", false},
		{"missing special", "Abcdefghijk1", false},
		{"missing digit", "Abcdefghijk!", false},
		{"missing upper", "abcdefghijk1!", false},
		{"missing lower", "ABCDEFGHIJK1!", false},
		{"meets all requirements", "Str0ng!Passw0rd", true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, IsStrongToken(c.token))
		})
	}
}
