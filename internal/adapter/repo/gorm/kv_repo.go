package gormrepo

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gardensync/internal/app/ports"
)

type layoutDocument struct {
	DocKey    string    `gorm:"column:doc_key;primaryKey"`
	Body      []byte    `gorm:"column:body;type:jsonb"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (layoutDocument) TableName() string { return "layout_documents" }

type KeyValueRepo struct {
	db *gorm.DB
}

func NewKeyValueRepo(db *gorm.DB) KeyValueRepo {
	return KeyValueRepo{db: db}
}

func (r KeyValueRepo) Get(ctx context.Context, key string) (json.RawMessage, error) {
	var m layoutDocument
	if err := getDBFromCtx(ctx, r.db).WithContext(ctx).Where("doc_key = ?", key).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return json.RawMessage(m.Body), nil
}

func (r KeyValueRepo) Set(ctx context.Context, key string, value json.RawMessage) error {
	m := layoutDocument{DocKey: key, Body: []byte(value), UpdatedAt: time.Now()}
	return getDBFromCtx(ctx, r.db).WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "doc_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"body", "updated_at"}),
	}).Create(&m).Error
}

func (r KeyValueRepo) Delete(ctx context.Context, key string) error {
	return getDBFromCtx(ctx, r.db).WithContext(ctx).Where("doc_key = ?", key).Delete(&layoutDocument{}).Error
}
