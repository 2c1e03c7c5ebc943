package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Pillar is the fixed top-level theme of a submission.
type Pillar string

const (
	PillarCultural      Pillar = "Cultural"
	PillarSocial        Pillar = "Social"
	PillarEconomic      Pillar = "Economic"
	PillarEnvironmental Pillar = "Environmental"
	PillarTechnical     Pillar = "Technical"
)

// Pillars lists every pillar in display order.
var Pillars = []Pillar{PillarCultural, PillarSocial, PillarEconomic, PillarEnvironmental, PillarTechnical}

func ParsePillar(s string) (Pillar, bool) {
	for _, p := range Pillars {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// Status is the moderation state of a submission.
type Status string

const (
	StatusPending           Status = "Pending"
	StatusApproved          Status = "Approved"
	StatusRejected          Status = "Rejected"
	StatusRevisionRequested Status = "Revision Requested"
)

var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusRevisionRequested}

func ParseStatus(s string) (Status, bool) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// Sensitivity controls who may see the documented knowledge.
type Sensitivity string

const (
	SensitivityPublic     Sensitivity = "Public"
	SensitivityRestricted Sensitivity = "Restricted"
	SensitivitySacred     Sensitivity = "Sacred"
)

func ParseSensitivity(s string) (Sensitivity, bool) {
	switch Sensitivity(s) {
	case SensitivityPublic, SensitivityRestricted, SensitivitySacred:
		return Sensitivity(s), true
	}
	return "", false
}

// FileType is the coarse classification of an attached file.
type FileType string

const (
	FileImage    FileType = "image"
	FileVideo    FileType = "video"
	FileAudio    FileType = "audio"
	FileDocument FileType = "document"
)

type Metadata struct {
	IsPracticeActive       bool        `json:"is_practice_active"`
	EstimatedAgeOfPractice string      `json:"estimated_age_of_practice"`
	SourceOfInformation    string      `json:"source_of_information"`
	SensitivityLevel       Sensitivity `json:"sensitivity_level" gorm:"not null;default:'Public'"`
}

type Submission struct {
	ID                      uuid.UUID                   `json:"id" gorm:"type:uuid;primaryKey"`
	UserID                  uuid.UUID                   `json:"user_id" gorm:"type:uuid;not null;index"`
	User                    *User                       `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Title                   string                      `json:"title" gorm:"not null"`
	Pillar                  Pillar                      `json:"pillar" gorm:"not null;index"`
	Category                string                      `json:"category"`
	Description             string                      `json:"description" gorm:"type:text"`
	Location                Location                    `json:"location" gorm:"embedded;embeddedPrefix:location_"`
	Tags                    datatypes.JSONSlice[string] `json:"tags"`
	DateOfDocumentation     time.Time                   `json:"date_of_documentation"`
	Status                  Status                      `json:"status" gorm:"not null;default:'Approved';index"`
	Metadata                Metadata                    `json:"metadata" gorm:"embedded;embeddedPrefix:metadata_"`
	IsLinkedToAncestralLand bool                        `json:"is_linked_to_ancestral_land"`
	Files                   []SubmissionFile            `json:"files" gorm:"foreignKey:SubmissionID"`
	AdminNotes              string                      `json:"admin_notes" gorm:"type:text"`
	CreatedAt               time.Time                   `json:"created_at"`
	UpdatedAt               time.Time                   `json:"updated_at"`
}

func (s *Submission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.DateOfDocumentation.IsZero() {
		s.DateOfDocumentation = time.Now()
	}
	if s.Metadata.SensitivityLevel == "" {
		s.Metadata.SensitivityLevel = SensitivityPublic
	}
	if s.Tags == nil {
		s.Tags = datatypes.JSONSlice[string]{}
	}
	return nil
}

// SubmissionFile is an uploaded file attached to a submission. Position
// keeps attachment order; files are only ever appended.
type SubmissionFile struct {
	ID           uint      `json:"-" gorm:"primaryKey"`
	SubmissionID uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`
	Position     int       `json:"-" gorm:"not null"`
	URL          string    `json:"url" gorm:"not null"`
	PublicID     string    `json:"public_id"`
	Caption      string    `json:"caption"`
	Description  string    `json:"description"`
	FileType     FileType  `json:"file_type"`
	OriginalName string    `json:"original_name"`
}

// SubmissionStatusHistory is the audit trail of status changes.
type SubmissionStatusHistory struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SubmissionID uuid.UUID `json:"submission_id" gorm:"type:uuid;not null;index"`
	FromStatus   Status    `json:"from_status"`
	ToStatus     Status    `json:"to_status" gorm:"not null"`
	ChangedBy    uuid.UUID `json:"changed_by" gorm:"type:uuid"`
	Note         string    `json:"note"`
	CreatedAt    time.Time `json:"created_at"`
}
