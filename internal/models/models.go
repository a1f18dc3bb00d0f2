package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionStatus string

const (
	TransactionStatusIssued   TransactionStatus = "issued"
	TransactionStatusReturned TransactionStatus = "returned"
)

// User is an identity record consumed by the lending workflow. Credentials and
// sessions live in the upstream auth layer; only the staff/active bits matter here.
type User struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	// Plain not-null booleans: a default:true tag would make GORM drop an
	// explicit false on insert.
	IsStaff  bool `gorm:"not null" json:"is_staff"`
	IsActive bool `gorm:"not null" json:"is_active"`
}

type Book struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CodeNo          string    `gorm:"size:50;uniqueIndex;not null" json:"code_no"`
	Title           string    `gorm:"size:255;not null;index" json:"title"`
	Author          string    `gorm:"size:255;not null" json:"author"`
	Category        string    `gorm:"size:100" json:"category"`
	ISBN            string    `gorm:"size:20;column:isbn" json:"isbn"`
	TotalCopies     int       `gorm:"not null" json:"total_copies"`
	AvailableCopies int       `gorm:"not null" json:"available_copies"`
}

// Member links one User to a library membership. At most one membership per user.
type Member struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User            User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Phone           string    `gorm:"size:20" json:"phone"`
	Adhaar          string    `gorm:"size:20" json:"adhaar"`
	MembershipType  string    `gorm:"size:50" json:"membership_type"`
	MembershipStart time.Time `gorm:"not null" json:"membership_start"`
	MembershipEnd   time.Time `gorm:"not null" json:"membership_end"`
}

// Transaction is one lending ledger entry. It is created at issuance, mutated once
// at return (return_date, fine, status) and after that only fine_paid may change.
// Ledger rows are never deleted.
type Transaction struct {
	ID         uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	User       User              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	BookID     uuid.UUID         `gorm:"type:uuid;not null;index" json:"book_id"`
	Book       Book              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"-"`
	IssueDate  time.Time         `gorm:"not null" json:"issue_date"`
	DueDate    time.Time         `gorm:"not null;index" json:"due_date"`
	ReturnDate *time.Time        `json:"return_date"`
	Fine       float64           `gorm:"not null;default:0" json:"fine"`
	FinePaid   bool              `gorm:"not null;default:false" json:"fine_paid"`
	Status     TransactionStatus `gorm:"size:20;not null;index" json:"status"`
}

// BeforeCreate hooks assign UUIDs client-side. Keys are never generated by the
// database, so the migrated schema is identical on postgres and sqlite and
// needs no uuid extension.

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (b *Book) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (m *Member) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

func (t *Transaction) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
