package db

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"

	"sc3/internal/domain"
)

// ResultRepository persists verification results as JSON documents with
// an indexed verdict column for listing.
type ResultRepository struct {
	db *gorm.DB
}

func NewResultRepository(db *gorm.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) Save(ctx context.Context, result domain.VerificationResult) error {
	if r.db == nil {
		return errDBUnavailable
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	model := ResultModel{
		ID:         result.ID,
		Passed:     result.Passed,
		VerifiedAt: result.VerifiedAt,
		ResultJSON: raw,
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *ResultRepository) Get(ctx context.Context, id string) (domain.VerificationResult, error) {
	if r.db == nil {
		return domain.VerificationResult{}, errDBUnavailable
	}
	var model ResultModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.VerificationResult{}, domain.ErrNotFound
		}
		return domain.VerificationResult{}, err
	}
	var result domain.VerificationResult
	if err := json.Unmarshal(model.ResultJSON, &result); err != nil {
		return domain.VerificationResult{}, err
	}
	return result, nil
}

func (r *ResultRepository) List(ctx context.Context, limit int) ([]domain.VerificationResult, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var models []ResultModel
	if err := r.db.WithContext(ctx).
		Order("verified_at DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	results := make([]domain.VerificationResult, 0, len(models))
	for _, model := range models {
		var result domain.VerificationResult
		if err := json.Unmarshal(model.ResultJSON, &result); err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}
