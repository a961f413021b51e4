package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lit-review/models"
)

// ListTags returns the full tag vocabulary.
func (s *ScreeningService) ListTags() ([]models.Tag, error) {
	var tags []models.Tag
	err := s.DB.Order("name").Find(&tags).Error
	return tags, err
}

// DocumentTags returns the tag names of one document, sorted.
func (s *ScreeningService) DocumentTags(documentID uint) ([]string, error) {
	names := []string{}
	err := s.DB.Model(&models.Tag{}).
		Joins("JOIN document_tag dt ON dt.tag_id = tag.id").
		Where("dt.document_id = ?", documentID).
		Order("tag.name").
		Pluck("tag.name", &names).Error
	return names, err
}

// SetDocumentTags replaces a document's tags with the given names. New names
// are created in the vocabulary on demand; blank names are ignored.
func (s *ScreeningService) SetDocumentTags(documentID uint, names []string) ([]string, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", documentID).
			Delete(&models.DocumentTag{}).Error; err != nil {
			return err
		}
		for _, name := range names {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			tag, err := getOrCreateTag(tx, name)
			if err != nil {
				return err
			}
			link := models.DocumentTag{DocumentID: documentID, TagID: tag.ID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&link).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.DocumentTags(documentID)
}

func getOrCreateTag(tx *gorm.DB, name string) (*models.Tag, error) {
	var tag models.Tag
	err := tx.Where("name = ?", name).First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	tag = models.Tag{Name: name}
	if err := tx.Create(&tag).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = tx.Where("name = ?", name).First(&tag).Error
		}
		if err != nil {
			return nil, err
		}
	}
	return &tag, nil
}

// ListExclusionCodes returns the exclusion-code vocabulary.
func (s *ScreeningService) ListExclusionCodes() ([]models.ExclusionCode, error) {
	var codes []models.ExclusionCode
	err := s.DB.Order("code").Find(&codes).Error
	return codes, err
}

// EnsureExclusionCode returns the code row for code, creating it with the
// given description when it does not exist yet. Existing descriptions are
// never overwritten.
func (s *ScreeningService) EnsureExclusionCode(code, description string) (*models.ExclusionCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("exclusion code must not be empty")
	}

	var existing models.ExclusionCode
	err := s.DB.Where("code = ?", code).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created := models.ExclusionCode{Code: code, Description: description}
	if err := s.DB.Create(&created).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			err = s.DB.Where("code = ?", code).First(&created).Error
		}
		if err != nil {
			return nil, err
		}
	}
	return &created, nil
}
