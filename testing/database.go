// Package testing provides a throwaway PostgreSQL database and fixtures for integration tests
package testing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/amirphl/photo-moderation/migrations"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrDatabaseUnavailable is returned by SetupTestDB when no PostgreSQL server answers
var ErrDatabaseUnavailable = errors.New("test database server is unavailable")

// TestDBConfig holds configuration for test database connections
type TestDBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	SSLMode  string
}

// GetTestDBConfig loads test database configuration from environment variables
func GetTestDBConfig() *TestDBConfig {
	return &TestDBConfig{
		Host:     getEnv("TEST_DB_HOST", "localhost"),
		Port:     getEnvAsInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		SSLMode:  getEnv("TEST_DB_SSL_MODE", "disable"),
	}
}

func (c *TestDBConfig) dsn(dbName string) string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.SSLMode)
	if dbName != "" {
		dsn += " dbname=" + dbName
	}
	return dsn
}

// TestDB represents a test database instance
type TestDB struct {
	DB     *gorm.DB
	SQLX   *sqlx.DB
	Name   string
	config *TestDBConfig
}

// SetupTestDB creates a uniquely named database and applies every migration to it
func SetupTestDB() (*TestDB, error) {
	cfg := GetTestDBConfig()
	dbName := fmt.Sprintf("photo_moderation_test_%d_%d", time.Now().Unix(), rand.Intn(10000))

	admin, err := openAdmin(cfg)
	if err != nil {
		return nil, err
	}
	defer admin.Close()

	if _, err := admin.Exec("CREATE DATABASE " + dbName); err != nil {
		return nil, fmt.Errorf("failed to create test database %s: %w", dbName, err)
	}

	tdb := &TestDB{Name: dbName, config: cfg}
	if _, err := migrations.Up(cfg.dsn(dbName)); err != nil {
		_ = tdb.dropDatabase()
		return nil, fmt.Errorf("failed to run migrations on test database %s: %w", dbName, err)
	}

	db, err := gorm.Open(postgres.Open(cfg.dsn(dbName)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		_ = tdb.dropDatabase()
		return nil, fmt.Errorf("failed to connect to test database %s: %w", dbName, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		_ = tdb.dropDatabase()
		return nil, err
	}

	tdb.DB = db
	tdb.SQLX = sqlx.NewDb(sqlDB, "postgres")
	return tdb, nil
}

func openAdmin(cfg *TestDBConfig) (*sql.DB, error) {
	admin, err := sql.Open("postgres", cfg.dsn(""))
	if err != nil {
		return nil, fmt.Errorf("failed to open admin connection: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := admin.PingContext(ctx); err != nil {
		admin.Close()
		return nil, fmt.Errorf("%w: %v", ErrDatabaseUnavailable, err)
	}
	return admin, nil
}

// TeardownTestDB closes connections and drops the test database
func (tdb *TestDB) TeardownTestDB() error {
	if tdb.DB != nil {
		if sqlDB, err := tdb.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
	return tdb.dropDatabase()
}

func (tdb *TestDB) dropDatabase() error {
	admin, err := openAdmin(tdb.config)
	if err != nil {
		log.Printf("Warning: failed to connect to PostgreSQL for cleanup: %v", err)
		return err
	}
	defer admin.Close()

	if _, err := admin.Exec(
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()",
		tdb.Name,
	); err != nil {
		log.Printf("Warning: failed to terminate connections to test database %s: %v", tdb.Name, err)
	}

	if _, err := admin.Exec("DROP DATABASE IF EXISTS " + tdb.Name); err != nil {
		log.Printf("Warning: failed to drop test database %s: %v", tdb.Name, err)
		return err
	}
	return nil
}

// ClearAllTables removes all rows except the seeded roles
func (tdb *TestDB) ClearAllTables() error {
	tables := []string{
		"audit_log",
		"messages",
		"likes",
		"photo_tags",
		"tags",
		"photos",
		"user_roles",
		"users",
	}
	for _, table := range tables {
		if err := tdb.DB.Exec(fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// TestWithDB sets up a test database, runs testFunc and drops the database again.
// The error wraps ErrDatabaseUnavailable when no server could be reached.
func TestWithDB(testFunc func(*TestDB) error) error {
	testDB, err := SetupTestDB()
	if err != nil {
		return fmt.Errorf("failed to setup test database: %w", err)
	}
	defer func() {
		if cleanupErr := testDB.TeardownTestDB(); cleanupErr != nil {
			log.Printf("Warning: failed to cleanup test database: %v", cleanupErr)
		}
	}()

	return testFunc(testDB)
}

// CreateTestContext creates a context for testing
func CreateTestContext() context.Context {
	return context.Background()
}
