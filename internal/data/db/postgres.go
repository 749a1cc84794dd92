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

	"github.com/yungbote/surveyreport-backend/internal/platform/envutil"
	"github.com/yungbote/surveyreport-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
	MaxOpen    int
	MaxIdle    int
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		Driver:     strings.ToLower(envutil.String("DATABASE_DRIVER", DriverPostgres, log)),
		Host:       envutil.String("POSTGRES_HOST", "localhost", log),
		Port:       envutil.String("POSTGRES_PORT", "5432", log),
		User:       envutil.String("POSTGRES_USER", "postgres", log),
		Password:   envutil.String("POSTGRES_PASSWORD", "", log),
		Name:       envutil.String("POSTGRES_NAME", "surveyreport", log),
		SSLMode:    envutil.String("POSTGRES_SSLMODE", "disable", log),
		SQLitePath: envutil.String("SQLITE_PATH", "surveyreport.db", log),
		MaxOpen:    envutil.Int("DATABASE_MAX_OPEN_CONNS", 20, log),
		MaxIdle:    envutil.Int("DATABASE_MAX_IDLE_CONNS", 5, log),
	}
}

type DatabaseService struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

func NewDatabaseService(cfg Config, logg *logger.Logger) (*DatabaseService, error) {
	serviceLog := logg.With("service", "DatabaseService", "driver", cfg.Driver)

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gcfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
	}

	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case DriverSQLite:
		db, err = gorm.Open(sqlite.Open(cfg.SQLitePath), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite %q: %w", cfg.SQLitePath, err)
		}
		// sqlite serializes writers; one connection avoids SQLITE_BUSY under the worker.
		if sqlDB, derr := db.DB(); derr == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	case DriverPostgres, "":
		dsn := fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s",
			cfg.User,
			cfg.Password,
			cfg.Host,
			cfg.Port,
			cfg.Name,
			cfg.SSLMode,
		)
		db, err = gorm.Open(postgres.Open(dsn), gcfg)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		if sqlDB, derr := db.DB(); derr == nil {
			sqlDB.SetMaxOpenConns(cfg.MaxOpen)
			sqlDB.SetMaxIdleConns(cfg.MaxIdle)
		}
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", cfg.Driver)
	}

	serviceLog.Info("Database connected")
	return &DatabaseService{db: db, driver: cfg.Driver, log: serviceLog}, nil
}

func (s *DatabaseService) DB() *gorm.DB { return s.db }

func (s *DatabaseService) Driver() string { return s.driver }

func (s *DatabaseService) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
