package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"lit-review/models"
)

// ReviewDetail is the legacy single-pass review with its exclusion codes.
type ReviewDetail struct {
	models.Review
	ExclusionCodes []string `json:"exclusion_codes"`
}

// EffectiveReview is the legacy review surfaced for a document, with
// duplicate-group fallback. Inherited marks a decision taken from a sibling.
type EffectiveReview struct {
	DocumentID     uint     `json:"document_id"`
	Included       *bool    `json:"included"`
	Notes          string   `json:"notes,omitempty"`
	Domain         *string  `json:"domain,omitempty"`
	Reference      *bool    `json:"reference,omitempty"`
	ExclusionCodes []string `json:"exclusion_codes,omitempty"`
	Inherited      bool     `json:"inherited"`
}

// GetReview loads the legacy review row for a document, or nil when the
// document has none (imports always create one, so nil means an unknown id).
func (s *ScreeningService) GetReview(documentID uint) (*ReviewDetail, error) {
	var review models.Review
	err := s.DB.Where("document_id = ?", documentID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.reviewDetail(&review)
}

func (s *ScreeningService) reviewDetail(review *models.Review) (*ReviewDetail, error) {
	detail := ReviewDetail{Review: *review, ExclusionCodes: []string{}}
	err := s.DB.Model(&models.ExclusionCode{}).
		Joins("JOIN review_exclusion_code rec ON rec.exclusion_code_id = exclusion_code.id").
		Where("rec.review_id = ?", review.ID).
		Order("exclusion_code.code").
		Pluck("exclusion_code.code", &detail.ExclusionCodes).Error
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// SaveReview updates the legacy single-pass review. Exclusion codes are
// replaced when codes is non-nil, with unknown strings dropped.
func (s *ScreeningService) SaveReview(documentID uint, included *bool, notes string, domain *string, reference *bool, codes []string) (*ReviewDetail, error) {
	if domain != nil && *domain != models.DomainHealth && *domain != models.DomainEnvironmental {
		return nil, fmt.Errorf("invalid domain %q", *domain)
	}

	var saved models.Review
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var review models.Review
		err := tx.Where("document_id = ?", documentID).First(&review).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			review = models.Review{DocumentID: documentID}
		} else if err != nil {
			return err
		}

		review.Included = included
		review.Notes = notes
		review.Domain = domain
		review.Reference = reference
		if err := tx.Save(&review).Error; err != nil {
			return err
		}

		if codes != nil {
			if err := tx.Where("review_id = ?", review.ID).
				Delete(&models.ReviewExclusionCode{}).Error; err != nil {
				return err
			}
			known, err := mapExclusionCodes(tx, codes)
			if err != nil {
				return err
			}
			for _, code := range known {
				link := models.ReviewExclusionCode{ReviewID: review.ID, ExclusionCodeID: code.ID}
				if err := tx.Create(&link).Error; err != nil {
					return err
				}
			}
		}
		saved = review
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.reviewDetail(&saved)
}

// GetEffectiveReview resolves the legacy review surfaced for a document:
// its own decision when one exists, otherwise the newest decided
// duplicate-group sibling, otherwise pending.
func (s *ScreeningService) GetEffectiveReview(documentID uint) (*EffectiveReview, error) {
	own, err := s.GetReview(documentID)
	if err != nil {
		return nil, err
	}
	if own != nil && own.Included != nil {
		return &EffectiveReview{
			DocumentID:     documentID,
			Included:       own.Included,
			Notes:          own.Notes,
			Domain:         own.Domain,
			Reference:      own.Reference,
			ExclusionCodes: own.ExclusionCodes,
		}, nil
	}

	var doc models.Document
	if err := s.DB.First(&doc, documentID).Error; err != nil {
		return nil, err
	}
	if doc.DuplicateGroupID != nil {
		// Legacy reviews carry no timestamp; the highest id wins as tie-break.
		var sibling models.Review
		err := s.DB.
			Joins("JOIN document d ON d.id = review.document_id").
			Where("d.duplicate_group_id = ? AND d.id <> ? AND review.included IS NOT NULL",
				*doc.DuplicateGroupID, documentID).
			Order("review.id DESC").
			First(&sibling).Error
		if err == nil {
			detail, err := s.reviewDetail(&sibling)
			if err != nil {
				return nil, err
			}
			return &EffectiveReview{
				DocumentID:     sibling.DocumentID,
				Included:       sibling.Included,
				Notes:          sibling.Notes,
				Domain:         sibling.Domain,
				Reference:      sibling.Reference,
				ExclusionCodes: detail.ExclusionCodes,
				Inherited:      true,
			}, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return &EffectiveReview{DocumentID: documentID}, nil
}
