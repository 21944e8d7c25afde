package graphdb

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/driftkit/drift/pkg/graphdb/gmodel"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SqliteInMemoryDSN is the DSN for a shared in-memory sqlite database, used by
// tests and by driftd when it runs without a configured MySQL server.
const SqliteInMemoryDSN = "file::memory:?cache=shared"

func MakeDSNFromEnv() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		os.Getenv("DRIFT_DB_USERNAME"),
		os.Getenv("DRIFT_DB_PASSWORD"),
		os.Getenv("DRIFT_DB_HOST"),
		os.Getenv("DRIFT_DB_PORT"),
		os.Getenv("DRIFT_DB_DATABASE"))
}

const maxDBRetries = 5

// MustConnectToDB will attempt to connect to the database maxDBRetries times. If it isn't successful
// after that number of retries then it will call log.Fatalf(), which will cause the server to exit.
// Between retry attempts it will sleep for 3 seconds.
func MustConnectToDB() *gorm.DB {
	var (
		err error
		db  *gorm.DB
	)

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	retryCount := 1
	for {
		db, err = gorm.Open(mysql.Open(MakeDSNFromEnv()), gormConfig)
		switch {
		case err == nil:
			// Connected to db, yay!
			return db
		case retryCount >= maxDBRetries:
			// Retry limit exceeded :-(
			log.Fatalf("Failed to open db (%s): %s", MakeDSNFromEnv(), err)
		default:
			// Couldn't connect, so increment count, then wait a bit before trying again.
			retryCount++
			time.Sleep(3 * time.Second)
		}
	}
}

// ConnectToSqliteDB opens a sqlite database. Pass SqliteInMemoryDSN for a
// throwaway in-memory instance.
func ConnectToSqliteDB(dsn string) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	return gorm.Open(sqlite.Open(dsn), gormConfig)
}

// RunMigrations creates or updates the entity, attribute and link tables.
func RunMigrations(db *gorm.DB) error {
	return db.AutoMigrate(&gmodel.Entity{}, &gmodel.Attribute{}, &gmodel.Link{})
}
