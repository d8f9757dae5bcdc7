package models

import (
	"time"
)

// Contact represents a Ralph Xpert signup captured by the lead form
type Contact struct {
	ID            string    `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Nom           string    `gorm:"type:varchar(255);not null" json:"nom"`          // Display name, always suffixed with " (RXP)"
	NumeroComplet string    `gorm:"type:varchar(64);not null" json:"numeroComplet"` // Country code + number
	Timestamp     time.Time `gorm:"index" json:"timestamp"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (Contact) TableName() string {
	return "contacts"
}

// Message represents a contact-form submission
type Message struct {
	ID        string    `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Nom       string    `gorm:"type:varchar(255);not null" json:"nom"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Telephone string    `gorm:"type:varchar(64)" json:"telephone"`
	Sujet     string    `gorm:"type:varchar(255)" json:"sujet"`
	Message   string    `gorm:"type:text" json:"message"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	Read      bool      `gorm:"default:false" json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}

// AdminUser is a dashboard account. Password holds either the plaintext
// value or a bcrypt hash.
type AdminUser struct {
	Username  string     `gorm:"primaryKey;type:varchar(255)" json:"username"`
	Password  string     `gorm:"type:varchar(255);not null" json:"password"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func (AdminUser) TableName() string {
	return "admin_users"
}

// MessagePatch carries a partial message update. Nil fields are left untouched.
type MessagePatch struct {
	Nom       *string `json:"nom"`
	Email     *string `json:"email"`
	Telephone *string `json:"telephone"`
	Sujet     *string `json:"sujet"`
	Message   *string `json:"message"`
	Read      *bool   `json:"read"`
}

// Apply merges the patch into m.
func (p MessagePatch) Apply(m *Message) {
	if p.Nom != nil {
		m.Nom = *p.Nom
	}
	if p.Email != nil {
		m.Email = *p.Email
	}
	if p.Telephone != nil {
		m.Telephone = *p.Telephone
	}
	if p.Sujet != nil {
		m.Sujet = *p.Sujet
	}
	if p.Message != nil {
		m.Message = *p.Message
	}
	if p.Read != nil {
		m.Read = *p.Read
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p MessagePatch) IsEmpty() bool {
	return p.Nom == nil && p.Email == nil && p.Telephone == nil &&
		p.Sujet == nil && p.Message == nil && p.Read == nil
}

// RecentEntry is the public view of a recent signup shown on the homepage
type RecentEntry struct {
	Nom    string `json:"nom"`
	Numero string `json:"numero"`
}

// Stats aggregates dashboard and homepage counters
type Stats struct {
	TotalContacts    int           `json:"totalContacts"`
	TotalMessages    int           `json:"totalMessages"`
	NewMessages      int           `json:"newMessages"`
	ReadMessages     int           `json:"readMessages"`
	TodayContacts    int           `json:"todayContacts"`
	TodayMessages    int           `json:"todayMessages"`
	ReadRate         int           `json:"readRate"`
	RecentEntries    []RecentEntry `json:"recentEntries"`
	ObjectifPourcent int           `json:"objectifPourcent"`
}
