package stor

import (
	"testing"
	"time"

	"github.com/driftkit/drift/pkg/graphdb"
	"github.com/driftkit/drift/pkg/graphdb/gmodel"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type nullLogger struct{}

func (l *nullLogger) Printf(_ string, _ ...interface{}) {
}

// newGormTestStors opens the shared in-memory sqlite database, runs migrations,
// and clears out rows left behind by earlier tests in the process.
func newGormTestStors(t *testing.T) *Stors {
	gormLogger := logger.New(&nullLogger{},
		logger.Config{
			SlowThreshold:             time.Second * 5,
			LogLevel:                  logger.Silent,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  false,
		})
	db, err := gorm.Open(sqlite.Open(graphdb.SqliteInMemoryDSN), &gorm.Config{Logger: gormLogger})
	require.NoErrorf(t, err, "gorm.Open failed: %s", err)

	sqlitedb, err := db.DB()
	require.NoError(t, err)

	// Set the sqlite db to 1 connection. This gets around table lock issues from
	// multiple threads.
	sqlitedb.SetMaxOpenConns(1)

	err = graphdb.RunMigrations(db)
	require.NoErrorf(t, err, "Migration failed with: %s", err)

	// cache=shared keeps the database alive across connections, so start clean.
	require.NoError(t, db.Exec("delete from links").Error)
	require.NoError(t, db.Exec("delete from attributes").Error)
	require.NoError(t, db.Exec("delete from entities").Error)

	return NewGormStors(db)
}

// forEachStors runs fn as a subtest against both the gorm and in-memory
// implementations so the two stay behaviorally aligned.
func forEachStors(t *testing.T, fn func(t *testing.T, stors *Stors)) {
	t.Run("gorm", func(t *testing.T) {
		fn(t, newGormTestStors(t))
	})

	t.Run("inmemory", func(t *testing.T) {
		fn(t, NewInMemoryStors())
	})
}

func mustCreateEntity(t *testing.T, stors *Stors, entityUUID, entityType string) *gmodel.Entity {
	entity, err := stors.EntityStor.CreateEntity(&gmodel.Entity{
		UUID:       entityUUID,
		EntityType: entityType,
		Name:       entityUUID,
	})
	require.NoError(t, err)
	return entity
}
