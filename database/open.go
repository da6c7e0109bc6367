package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rpupo63/rooms-blog-backend/config"
	"github.com/rpupo63/rooms-blog-backend/errs"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

// DSN builds the primary connection string. DATABASE_URL wins; otherwise
// DB_TYPE=supa assembles it from the SUPABASE_DB_* settings.
func DSN(cfg map[string]string) (string, error) {
	if url := config.GetString(cfg, "DATABASE_URL", ""); url != "" {
		return url, nil
	}

	switch dbType := config.GetString(cfg, "DB_TYPE", "supa"); dbType {
	case "supa":
		host := config.GetString(cfg, "SUPABASE_DB_HOST", "")
		if host == "" {
			return "", errs.NewEnvironmentVariableError("SUPABASE_DB_HOST")
		}
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			host,
			config.GetString(cfg, "SUPABASE_DB_USER", "postgres"),
			config.GetString(cfg, "SUPABASE_DB_PASSWORD", ""),
			config.GetString(cfg, "SUPABASE_DB_NAME", "postgres"),
			config.GetString(cfg, "SUPABASE_DB_PORT", "5432"),
			config.GetString(cfg, "SUPABASE_DB_SSLMODE", "require"),
		), nil
	default:
		return "", errs.NewConfigError("DB_TYPE", fmt.Errorf("unsupported database type %q", dbType))
	}
}

// Open connects to postgres and, when DATABASE_REPLICA_URL is set, routes
// reads to the replica through dbresolver.
func Open(cfg map[string]string) (*gorm.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Duration(config.GetInt(cfg, "DB_SLOW_QUERY_SECONDS", 10)) * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		return nil, errs.NewDatabaseError("connect to", "database", err)
	}

	resolver := dbresolver.Register(dbresolver.Config{
		Replicas: replicas(cfg),
		Policy:   dbresolver.RandomPolicy{},
	}).
		SetMaxOpenConns(config.GetInt(cfg, "DB_MAX_OPEN_CONNS", 20)).
		SetMaxIdleConns(config.GetInt(cfg, "DB_MAX_IDLE_CONNS", 5)).
		SetConnMaxLifetime(time.Duration(config.GetInt(cfg, "DB_CONN_MAX_LIFETIME_MINUTES", 30)) * time.Minute)
	if err := db.Use(resolver); err != nil {
		return nil, errs.NewConfigError("database resolver", err)
	}

	// Test database connection
	var result int
	if err := db.Raw("SELECT 1").Scan(&result).Error; err != nil {
		return nil, errs.NewDatabaseError("test", "database connection", err)
	}
	return db, nil
}

func replicas(cfg map[string]string) []gorm.Dialector {
	var dialectors []gorm.Dialector
	for _, url := range config.GetStrings(cfg, "DATABASE_REPLICA_URL", nil) {
		dialectors = append(dialectors, postgres.New(postgres.Config{
			DSN:                  url,
			PreferSimpleProtocol: true,
		}))
	}
	return dialectors
}
