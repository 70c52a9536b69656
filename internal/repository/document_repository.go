package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"bizadvisor/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Replace installs the new document row for its session, removing any prior
// row in the same transaction so a session never shows two active documents.
func (r *DocumentRepository) Replace(doc *model.Document) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", doc.SessionID).Delete(&model.Document{}).Error; err != nil {
			return err
		}
		return tx.Create(doc).Error
	})
	if err != nil {
		return fmt.Errorf("replace document failed: %w", err)
	}
	return nil
}

func (r *DocumentRepository) GetBySessionID(sessionID uint) (*model.Document, error) {
	var doc model.Document
	if err := r.db.Where("session_id = ?", sessionID).First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document failed: %w", err)
	}
	return &doc, nil
}

func (r *DocumentRepository) DeleteBySessionID(sessionID uint) error {
	if err := r.db.Where("session_id = ?", sessionID).Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete documents by session failed: %w", err)
	}
	return nil
}
