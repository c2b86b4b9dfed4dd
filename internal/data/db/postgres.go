package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/trailhead-backend/internal/platform/envutil"
	"github.com/yungbote/trailhead-backend/internal/platform/logger"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

type Service struct {
	db      *gorm.DB
	dialect string
	log     *logger.Logger
}

// NewService opens the database selected by DB_DRIVER (postgres by default,
// sqlite for local runs with SQLITE_PATH).
func NewService(logg *logger.Logger) (*Service, error) {
	switch strings.ToLower(envutil.String("DB_DRIVER", DialectPostgres, logg)) {
	case DialectSQLite:
		return NewSQLiteService(logg, envutil.String("SQLITE_PATH", "trailhead.db", logg))
	default:
		return NewPostgresService(logg)
	}
}

func NewPostgresService(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "PostgresService")

	postgresHost := envutil.String("POSTGRES_HOST", "localhost", logg)
	postgresPort := envutil.String("POSTGRES_PORT", "5432", logg)
	postgresUser := envutil.String("POSTGRES_USER", "postgres", logg)
	postgresPassword := envutil.String("POSTGRES_PASSWORD", "", logg)
	postgresName := envutil.String("POSTGRES_NAME", "trailhead", logg)
	sslMode := envutil.String("POSTGRES_SSLMODE", "disable", logg)

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		postgresUser,
		postgresPassword,
		postgresHost,
		postgresPort,
		postgresName,
		sslMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	return &Service{db: db, dialect: DialectPostgres, log: serviceLog}, nil
}

func NewSQLiteService(logg *logger.Logger, path string) (*Service, error) {
	serviceLog := logg.With("service", "SQLiteService")
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY under concurrent requests.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	serviceLog.Info("Using sqlite database", "path", path)
	return &Service{db: db, dialect: DialectSQLite, log: serviceLog}, nil
}

// gormConfig translates driver errors into gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
func gormConfig() *gorm.Config {
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
	}
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Dialect() string { return s.dialect }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
