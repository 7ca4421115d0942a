package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/VectorBits/solflow/src/internal/workflow"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrNotFound is returned by Latest when the target has no recorded run.
var ErrNotFound = errors.New("run not found")

// Run is one extraction recorded in the history table.
type Run struct {
	ID            string    `gorm:"primaryKey;size:36"`
	Target        string    `gorm:"index;not null"`
	WorkspaceRoot string
	ModelHash     string    `gorm:"size:66"`
	CreatedAt     time.Time `gorm:"index"`
	OK            bool
	EntryPoints   int
	Variables     int
	Payload       string `gorm:"type:text"`
}

func (Run) TableName() string { return "workflow_runs" }

// Document decodes the stored payload.
func (r *Run) Document() (*workflow.Document, error) {
	var doc workflow.Document
	if err := json.Unmarshal([]byte(r.Payload), &doc); err != nil {
		return nil, fmt.Errorf("decode run %s payload: %w", r.ID, err)
	}
	return &doc, nil
}

// NewRun snapshots a document for the store.
func NewRun(target, workspaceRoot, modelHash string, doc *workflow.Document) (*Run, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return &Run{
		ID:            uuid.NewString(),
		Target:        target,
		WorkspaceRoot: workspaceRoot,
		ModelHash:     modelHash,
		CreatedAt:     time.Now().UTC(),
		OK:            doc.OK,
		EntryPoints:   doc.EntryPointCount(),
		Variables:     doc.VariableCount(),
		Payload:       string(payload),
	}, nil
}

type Store struct {
	DB *gorm.DB
}

// Open connects to the run history database and migrates its schema.
// For sqlite the DSN is a file path whose directory is created on demand.
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case DriverSQLite, "sqlite3":
		if dsn == "" {
			dsn = filepath.Join("data", "solflow.db")
		}
		if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres, "postgresql":
		if dsn == "" {
			return nil, fmt.Errorf("postgres store requires a dsn")
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if err := db.AutoMigrate(&Run{}); err != nil {
		return nil, fmt.Errorf("migrate run table: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Save(ctx context.Context, run *Run) error {
	if run == nil {
		return fmt.Errorf("nil run")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if err := s.DB.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// Latest returns the newest run for target.
func (s *Store) Latest(ctx context.Context, target string) (*Run, error) {
	var run Run
	err := s.DB.WithContext(ctx).
		Where("target = ?", target).
		Order("created_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	return &run, nil
}

// List returns runs newest first. An empty target lists every target;
// limit <= 0 means no limit.
func (s *Store) List(ctx context.Context, target string, limit int) ([]Run, error) {
	q := s.DB.WithContext(ctx).Order("created_at DESC")
	if target != "" {
		q = q.Where("target = ?", target)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
