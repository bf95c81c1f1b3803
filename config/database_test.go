package config

import "testing"

func TestSqliteDSNPragmaJoin(t *testing.T) {
	cases := []struct {
		uri  string
		want string
	}{
		{"data/blog.db", "data/blog.db?_journal_mode=WAL&_foreign_keys=ON"},
		{"file:blog?cache=shared", "file:blog?cache=shared&_journal_mode=WAL&_foreign_keys=ON"},
		{"file:memdb?mode=memory&cache=shared", "file:memdb?mode=memory&cache=shared&_journal_mode=WAL&_foreign_keys=ON"},
	}
	for _, c := range cases {
		if got := sqliteDSN(c.uri); got != c.want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", c.uri, got, c.want)
		}
	}
}
