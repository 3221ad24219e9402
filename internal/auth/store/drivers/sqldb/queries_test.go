package sqldb

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	q := `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`

	require.Equal(t, q, Dialect{Name: "sqlite"}.Rebind(q))
	require.Equal(t,
		`UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`,
		Dialect{Name: "postgres", Numbered: true}.Rebind(q),
	)
	require.Equal(t, deleteExpiredSessions, Dialect{Name: "sqlite"}.Rebind(deleteExpiredSessions))
}
