package db

import "time"

type LogModel struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"index;not null"`
	HeadHash    string    `gorm:"not null"`
	EntryCount  int64     `gorm:"not null"`
	Sealed      bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	LastEntryAt *time.Time
}

type LogEntryModel struct {
	ID           int64     `gorm:"primaryKey"`
	LogID        string    `gorm:"type:uuid;index:idx_log_sequence,unique;not null"`
	Sequence     int64     `gorm:"index:idx_log_sequence,unique;not null"`
	Timestamp    time.Time `gorm:"not null"`
	Type         string    `gorm:"not null"`
	ArtifactHash string    `gorm:"index"`
	BuildID      string    `gorm:"index"`
	DataHash     string    `gorm:"not null"`
	PreviousHash string    `gorm:"not null"`
	PayloadJSON  []byte    `gorm:"type:jsonb"`
	SigAlg       string
	SigKeyID     string
	SigValue     string
}

type ResultModel struct {
	ID         string    `gorm:"type:uuid;primaryKey"`
	Passed     bool      `gorm:"index;not null"`
	VerifiedAt time.Time `gorm:"index;not null"`
	ResultJSON []byte    `gorm:"type:jsonb;not null"`
}
