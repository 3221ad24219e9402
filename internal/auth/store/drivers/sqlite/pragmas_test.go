package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWithPragmas(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		want string
	}{
		{"file", "auth.db", "auth.db?" + defaultPragmas + "&_pragma=journal_mode(WAL)"},
		{"file with params", "auth.db?_txlock=immediate", "auth.db?_txlock=immediate&" + defaultPragmas + "&_pragma=journal_mode(WAL)"},
		{"file with own journal mode", "auth.db?_pragma=journal_mode(DELETE)", "auth.db?_pragma=journal_mode(DELETE)&" + defaultPragmas},
		{"file with own pragmas", "auth.db?_pragma=foreign_keys(1)", "auth.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"},
		{"memory", ":memory:", ":memory:?" + defaultPragmas},
		{"shared memory", "file:auth?mode=memory&cache=shared", "file:auth?mode=memory&cache=shared&" + defaultPragmas},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, withPragmas(tt.dsn))
		})
	}
}
