package internal_test

import (
	"testing"

	"github.com/sagarc03/stowgate/database/internal"
	"github.com/stretchr/testify/assert"
)

func TestEscapeLikePattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain", input: "docs/guide/", want: "docs/guide/"},
		{name: "percent", input: "100%/", want: `100\%/`},
		{name: "underscore", input: "my_dir/", want: `my\_dir/`},
		{name: "backslash", input: `a\b`, want: `a\\b`},
		{name: "all", input: `%_\`, want: `\%\_\\`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, internal.EscapeLikePattern(tt.input))
		})
	}
}
