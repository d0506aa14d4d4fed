package sqlxrepos

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/cantine/core"
	"github.com/trezcool/cantine/storage/database"
	"github.com/trezcool/cantine/storage/database/dbtest"
)

func prepareDB(t *testing.T) core.DB {
	t.Helper()

	conf := &core.Config{Database: core.DatabaseConfig{Engine: database.EngineSQLite, Name: ":memory:"}}
	db, err := database.Open(conf)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func TestRepositories(t *testing.T) {
	dbtest.RunRepositoryTests(t, func(t *testing.T) dbtest.Repos {
		db := prepareDB(t)
		return dbtest.Repos{
			Meals:    NewMealRepository(db),
			Students: NewStudentRepository(db),
			Store:    NewSelectionStore(db),
		}
	})
}

func Test_orderBy(t *testing.T) {
	allowed := map[string]bool{"name": true}

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		def      []core.DBOrdering
		want     string
	}{
		{name: "none", want: ""},
		{name: "default", def: []core.DBOrdering{{Field: "name", Ascending: true}}, want: " ORDER BY name ASC"},
		{name: "allowed", ordering: []core.DBOrdering{{Field: "name"}}, want: " ORDER BY name DESC"},
		{
			name:     "not allowed falls back",
			ordering: []core.DBOrdering{{Field: "name; DROP TABLE meal"}},
			def:      []core.DBOrdering{{Field: "name", Ascending: true}},
			want:     " ORDER BY name ASC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, orderBy(tt.ordering, allowed, tt.def...))
		})
	}
}
