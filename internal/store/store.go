// Package store persists contacts, contact-form messages and admin accounts.
//
// Two backends share the same semantics: a directory of whole-file JSON
// documents (the default) and a SQL database reached through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ralph-xpert/internal/models"
)

// ErrNotFound is returned when an update or delete targets an unknown id.
var ErrNotFound = errors.New("not found")

// OpError wraps an underlying storage failure with the operation and the
// file or table it concerned.
type OpError struct {
	Op   string
	Path string
	Err  error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}
	base := e.Op
	if e.Path != "" {
		base += fmt.Sprintf(" (path=%s)", e.Path)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

type Store interface {
	ListContacts(ctx context.Context) ([]models.Contact, error)
	CreateContact(ctx context.Context, nom, numeroComplet string) (models.Contact, error)
	UpdateContact(ctx context.Context, id, nom, numeroComplet string) error
	DeleteContact(ctx context.Context, id string) error
	DeleteAllContacts(ctx context.Context) error

	ListMessages(ctx context.Context) ([]models.Message, error)
	CreateMessage(ctx context.Context, m models.Message) (models.Message, error)
	UpdateMessage(ctx context.Context, id string, patch models.MessagePatch) error
	// ToggleMessageRead flips the read flag atomically and returns the new value.
	ToggleMessageRead(ctx context.Context, id string) (bool, error)
	DeleteMessage(ctx context.Context, id string) error

	ListAdmins(ctx context.Context) ([]models.AdminUser, error)
	SaveAdmin(ctx context.Context, admin models.AdminUser) error
	TouchAdminLogin(ctx context.Context, username string, at time.Time) error

	Close() error
}

// newID derives a record id from the clock in Unix milliseconds, bumping
// it until taken reports the id as free.
func newID(now time.Time, taken func(string) bool) string {
	n := now.UnixMilli()
	for {
		id := strconv.FormatInt(n, 10)
		if !taken(id) {
			return id
		}
		n++
	}
}
