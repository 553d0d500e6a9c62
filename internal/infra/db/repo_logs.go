package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"sc3/internal/domain"
)

// LogRepository persists immutable logs and their entries. The append
// path is transactional: the entry row and the log head move together or
// not at all.
type LogRepository struct {
	db *gorm.DB
}

func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{db: db}
}

func (r *LogRepository) SaveLog(ctx context.Context, log domain.ImmutableLog) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := LogModel{
		ID:         log.ID,
		Name:       log.Name,
		HeadHash:   log.HeadHash,
		EntryCount: log.EntryCount,
		Sealed:     log.Sealed,
		CreatedAt:  log.CreatedAt,
	}
	if !log.LastEntryAt.IsZero() {
		at := log.LastEntryAt
		model.LastEntryAt = &at
	}
	return r.db.WithContext(ctx).Save(&model).Error
}

func (r *LogRepository) AppendEntry(ctx context.Context, logID string, entry domain.ImmutableLogEntry, headHash string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model, err := entryToModel(logID, entry)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		at := entry.Timestamp
		return tx.Model(&LogModel{}).
			Where("id = ?", logID).
			Updates(map[string]any{
				"head_hash":     headHash,
				"entry_count":   entry.Sequence + 1,
				"last_entry_at": &at,
			}).Error
	})
}

func (r *LogRepository) Seal(ctx context.Context, logID string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	result := r.db.WithContext(ctx).
		Model(&LogModel{}).
		Where("id = ?", logID).
		Update("sealed", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *LogRepository) GetLog(ctx context.Context, logID string) (domain.ImmutableLog, error) {
	if r.db == nil {
		return domain.ImmutableLog{}, errDBUnavailable
	}
	var model LogModel
	err := r.db.WithContext(ctx).Where("id = ?", logID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ImmutableLog{}, domain.ErrNotFound
		}
		return domain.ImmutableLog{}, err
	}

	var entryModels []LogEntryModel
	if err := r.db.WithContext(ctx).
		Where("log_id = ?", logID).
		Order("sequence ASC").
		Find(&entryModels).Error; err != nil {
		return domain.ImmutableLog{}, err
	}

	log := logFromModel(model)
	log.Entries = make([]domain.ImmutableLogEntry, 0, len(entryModels))
	for _, entryModel := range entryModels {
		entry, err := entryFromModel(entryModel)
		if err != nil {
			return domain.ImmutableLog{}, err
		}
		log.Entries = append(log.Entries, entry)
	}
	return log, nil
}

func (r *LogRepository) ListLogs(ctx context.Context) ([]domain.ImmutableLog, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []LogModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	logs := make([]domain.ImmutableLog, 0, len(models))
	for _, model := range models {
		logs = append(logs, logFromModel(model))
	}
	return logs, nil
}

func logFromModel(model LogModel) domain.ImmutableLog {
	log := domain.ImmutableLog{
		ID:         model.ID,
		Name:       model.Name,
		HeadHash:   model.HeadHash,
		EntryCount: model.EntryCount,
		Sealed:     model.Sealed,
		CreatedAt:  model.CreatedAt,
	}
	if model.LastEntryAt != nil {
		log.LastEntryAt = *model.LastEntryAt
	}
	return log
}

func entryToModel(logID string, entry domain.ImmutableLogEntry) (LogEntryModel, error) {
	model := LogEntryModel{
		LogID:        logID,
		Sequence:     entry.Sequence,
		Timestamp:    entry.Timestamp.UTC().Truncate(time.Nanosecond),
		Type:         string(entry.Type),
		ArtifactHash: entry.ArtifactHash,
		BuildID:      entry.BuildID,
		DataHash:     entry.DataHash,
		PreviousHash: entry.PreviousHash,
	}
	if entry.Payload != nil {
		raw, err := json.Marshal(entry.Payload)
		if err != nil {
			return LogEntryModel{}, err
		}
		model.PayloadJSON = raw
	}
	if entry.Signature != nil {
		model.SigAlg = entry.Signature.Alg
		model.SigKeyID = entry.Signature.KeyID
		model.SigValue = entry.Signature.Value
	}
	return model, nil
}

func entryFromModel(model LogEntryModel) (domain.ImmutableLogEntry, error) {
	entry := domain.ImmutableLogEntry{
		Sequence:     model.Sequence,
		Timestamp:    model.Timestamp,
		Type:         domain.LogEntryType(model.Type),
		ArtifactHash: model.ArtifactHash,
		BuildID:      model.BuildID,
		DataHash:     model.DataHash,
		PreviousHash: model.PreviousHash,
	}
	if len(model.PayloadJSON) > 0 {
		if err := json.Unmarshal(model.PayloadJSON, &entry.Payload); err != nil {
			return domain.ImmutableLogEntry{}, err
		}
	}
	if model.SigValue != "" {
		entry.Signature = &domain.Signature{
			Alg:   model.SigAlg,
			KeyID: model.SigKeyID,
			Value: model.SigValue,
		}
	}
	return entry, nil
}
