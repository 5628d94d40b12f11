// models.go this is our database models
package main

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkMode string

const (
	WorkModeRemote   WorkMode = "REMOTE"
	WorkModeInPerson WorkMode = "INPERSON"
	WorkModeHybrid   WorkMode = "HYBRID"
)

// Status is informational only; any status may follow any other.
type Status string

const (
	StatusApplied            Status = "APPLIED"
	StatusPhoneScreen        Status = "PHONESCREEN"
	StatusInterview          Status = "INTERVIEW"
	StatusTakeHomeAssessment Status = "TAKEHOMEASSESSMENT"
	StatusOffer              Status = "OFFER"
	StatusRejected           Status = "REJECTED"
	StatusDeclined           Status = "DECLINED"
)

type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	EmailAddress string    `gorm:"uniqueIndex;size:320;not null" json:"emailAddress"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type JobApplication struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	UserID          string    `gorm:"index;size:36;not null" json:"userId"`
	User            *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Company         string    `json:"company"`
	Position        string    `json:"position"`
	Location        string    `json:"location"`
	WorkMode        WorkMode  `gorm:"size:16;not null;default:REMOTE;check:work_mode IN ('REMOTE','INPERSON','HYBRID')" json:"workMode"`
	Status          Status    `gorm:"size:32;not null;default:APPLIED;check:status IN ('APPLIED','PHONESCREEN','INTERVIEW','TAKEHOMEASSESSMENT','OFFER','REJECTED','DECLINED')" json:"status"`
	ApplicationDate time.Time `gorm:"index;not null" json:"applicationDate"`
	Link            string    `json:"link"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (a *JobApplication) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Session backs the cookie transport; the id is the cookie value.
type Session struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"index;size:36;not null"`
	User      *User     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
}

// normalizeEnum canonicalizes free-form client input, so "Phone Screen" and
// "phone-screen" both become "PHONESCREEN". It does not validate.
func normalizeEnum(value string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, strings.ToUpper(value))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
