package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/courseloom/courseloom-backend/internal/platform/logger"
)

// documentRow is the single-table SQL rendition of a document: one row per
// (collection, doc id) with the payload in a JSON column. datatypes.JSON
// picks the column type per dialect (jsonb on postgres, json on sqlite).
type documentRow struct {
	Collection string         `gorm:"column:collection;primaryKey" json:"collection"`
	DocID      string         `gorm:"column:doc_id;primaryKey" json:"doc_id"`
	Data       datatypes.JSON `gorm:"column:data" json:"data"`
	CreatedAt  time.Time      `gorm:"column:created_at;not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (documentRow) TableName() string { return "documents" }

type SQLStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// OpenSQL connects the named dialect and migrates the documents table.
// driver is "postgres" or "sqlite"; dsn is passed to the dialector as-is.
func OpenSQL(driver, dsn string, log *logger.Logger) (*SQLStore, error) {
	var dial gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres":
		dial = postgres.Open(dsn)
	case "sqlite":
		dial = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("docstore: unknown sql driver %q", driver)
	}
	db, err := gorm.Open(dial, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("docstore: open %s: %w", driver, err)
	}
	return NewSQLStore(db, log)
}

func NewSQLStore(db *gorm.DB, log *logger.Logger) (*SQLStore, error) {
	storeLog := log.With("service", "SQLDocStore")
	storeLog.Info("Migrating documents table...")
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		storeLog.Error("Migration failed", "error", err)
		return nil, fmt.Errorf("docstore: migrate documents: %w", err)
	}
	return &SQLStore{db: db, log: storeLog}, nil
}

func (s *SQLStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Document{}, ErrNoDocument
		}
		return Document{}, fmt.Errorf("docstore: sql get: %w", err)
	}
	return rowToDocument(row)
}

func (s *SQLStore) Upsert(ctx context.Context, collection, id string, fields map[string]any, merge bool) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("docstore: encode payload: %w", err)
	}

	if !merge {
		now := time.Now().UTC()
		row := documentRow{Collection: collection, DocID: id, Data: datatypes.JSON(payload), CreatedAt: now, UpdatedAt: now}
		err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("docstore: sql replace: %w", err)
		}
		return nil
	}

	op := func() error { return s.mergeTx(ctx, collection, id, fields, payload) }
	err = op()
	if err != nil && retryable(err) {
		// Lost a concurrent first-create race; the second pass merges
		// into the row the winner inserted.
		err = op()
	}
	if err != nil {
		return fmt.Errorf("docstore: sql merge: %w", err)
	}
	return nil
}

func (s *SQLStore) mergeTx(ctx context.Context, collection, id string, fields map[string]any, payload []byte) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Where("collection = ? AND doc_id = ?", collection, id)
		if tx.Dialector.Name() == "postgres" {
			q = q.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var row documentRow
		err := q.First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			now := time.Now().UTC()
			return tx.Create(&documentRow{
				Collection: collection,
				DocID:      id,
				Data:       datatypes.JSON(payload),
				CreatedAt:  now,
				UpdatedAt:  now,
			}).Error
		}
		if err != nil {
			return err
		}

		existing := make(map[string]any)
		if len(row.Data) > 0 {
			if err := json.Unmarshal(row.Data, &existing); err != nil {
				return fmt.Errorf("decode stored payload: %w", err)
			}
		}
		for k, v := range fields {
			existing[k] = v
		}
		merged, err := json.Marshal(existing)
		if err != nil {
			return fmt.Errorf("encode merged payload: %w", err)
		}
		return tx.Model(&documentRow{}).
			Where("collection = ? AND doc_id = ?", collection, id).
			Updates(map[string]any{"data": datatypes.JSON(merged), "updated_at": time.Now().UTC()}).Error
	})
}

func (s *SQLStore) Query(ctx context.Context, collection, field, value string) ([]Document, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Where(datatypes.JSONQuery("data").Equals(value, field)).
		Order("doc_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("docstore: sql query: %w", err)
	}
	return rowsToDocuments(rows)
}

func (s *SQLStore) All(ctx context.Context, collection string) ([]Document, error) {
	var rows []documentRow
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("doc_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("docstore: sql all: %w", err)
	}
	return rowsToDocuments(rows)
}

func (s *SQLStore) Delete(ctx context.Context, collection, id string) error {
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		Delete(&documentRow{}).Error
	if err != nil {
		return fmt.Errorf("docstore: sql delete: %w", err)
	}
	return nil
}

func (s *SQLStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SQLStore) DB() *gorm.DB { return s.db }

func rowToDocument(row documentRow) (Document, error) {
	fields := make(map[string]any)
	if len(row.Data) > 0 {
		if err := json.Unmarshal(row.Data, &fields); err != nil {
			return Document{}, fmt.Errorf("docstore: decode stored payload: %w", err)
		}
	}
	return Document{ID: row.DocID, Fields: fields}, nil
}

func rowsToDocuments(rows []documentRow) ([]Document, error) {
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		doc, err := rowToDocument(row)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// retryable reports whether err is a conflict or transient class worth one
// more pass: unique violation from a lost insert race, serialization
// failure, deadlock, lock timeout.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505", "40001", "40P01", "55P03":
			return true
		}
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "serialization")
}
