package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"ralph-xpert/internal/models"
)

const (
	ContactsFile = "contacts.json"
	MessagesFile = "messages.json"
	AdminFile    = "admin.json"
)

// JSONStore keeps each collection in its own JSON array file under dir.
// Every mutation rewrites the whole file.
type JSONStore struct {
	dir    string
	mu     sync.Mutex
	now    func() time.Time
	logger *zap.Logger

	bootstrap *models.AdminUser
	seeded    bool
}

type Option func(*JSONStore)

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *JSONStore) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *JSONStore) { s.logger = logger }
}

// WithBootstrapAdmin is written to admin.json when that file does not exist.
// An existing file is never touched, even when empty or malformed.
func WithBootstrapAdmin(admin models.AdminUser) Option {
	return func(s *JSONStore) {
		if admin.Username != "" && admin.Password != "" {
			s.bootstrap = &admin
		}
	}
}

var _ Store = (*JSONStore)(nil)

// NewJSONStore creates dir and any missing collection file as an empty array,
// except admin.json which starts with the bootstrap admin when one is set.
func NewJSONStore(dir string, opts ...Option) (*JSONStore, error) {
	s := &JSONStore{
		dir:    dir,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &OpError{Op: "jsonstore.mkdir", Path: dir, Err: err}
	}
	for _, name := range []string{ContactsFile, MessagesFile, AdminFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			continue
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, &OpError{Op: "jsonstore.stat", Path: path, Err: err}
		}
		if name == AdminFile && s.bootstrap != nil {
			if err := writeList(s, AdminFile, []models.AdminUser{*s.bootstrap}); err != nil {
				return nil, err
			}
			s.seeded = true
			s.logger.Info("Bootstrap admin account created", zap.String("username", s.bootstrap.Username))
			continue
		}
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return nil, &OpError{Op: "jsonstore.init", Path: path, Err: err}
		}
	}
	return s, nil
}

// Seeded reports whether the bootstrap admin was written by this open.
func (s *JSONStore) Seeded() bool { return s.seeded }

// Dir returns the data directory.
func (s *JSONStore) Dir() string { return s.dir }

func (s *JSONStore) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readList decodes a JSON array file. A missing or malformed file reads as
// an empty list.
func readList[T any](s *JSONStore, name string) []T {
	path := s.path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("Failed to read data file", zap.String("path", path), zap.Error(err))
		return []T{}
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		s.logger.Warn("Malformed data file", zap.String("path", path), zap.Error(err))
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	return out
}

// writeList replaces a JSON array file via a temp file and rename.
func writeList[T any](s *JSONStore, name string, list []T) error {
	path := s.path(name)
	if list == nil {
		list = []T{}
	}
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return &OpError{Op: "jsonstore.marshal", Path: path, Err: err}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return &OpError{Op: "jsonstore.write", Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return &OpError{Op: "jsonstore.rename", Path: path, Err: err}
	}
	return nil
}

// Contacts

func (s *JSONStore) ListContacts(ctx context.Context) ([]models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readList[models.Contact](s, ContactsFile), nil
}

func (s *JSONStore) CreateContact(ctx context.Context, nom, numeroComplet string) (models.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts := readList[models.Contact](s, ContactsFile)
	now := s.now().UTC()
	c := models.Contact{
		ID: newID(now, func(id string) bool {
			for _, existing := range contacts {
				if existing.ID == id {
					return true
				}
			}
			return false
		}),
		Nom:           nom,
		NumeroComplet: numeroComplet,
		Timestamp:     now,
		CreatedAt:     now,
	}

	contacts = append(contacts, c)
	if err := writeList(s, ContactsFile, contacts); err != nil {
		return models.Contact{}, err
	}
	return c, nil
}

func (s *JSONStore) UpdateContact(ctx context.Context, id, nom, numeroComplet string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts := readList[models.Contact](s, ContactsFile)
	for i := range contacts {
		if contacts[i].ID == id {
			contacts[i].Nom = nom
			contacts[i].NumeroComplet = numeroComplet
			return writeList(s, ContactsFile, contacts)
		}
	}
	return ErrNotFound
}

func (s *JSONStore) DeleteContact(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contacts := readList[models.Contact](s, ContactsFile)
	kept := make([]models.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	if len(kept) == len(contacts) {
		return ErrNotFound
	}
	return writeList(s, ContactsFile, kept)
}

func (s *JSONStore) DeleteAllContacts(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeList(s, ContactsFile, []models.Contact{})
}

// Messages

func (s *JSONStore) ListMessages(ctx context.Context) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readList[models.Message](s, MessagesFile), nil
}

func (s *JSONStore) CreateMessage(ctx context.Context, m models.Message) (models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := readList[models.Message](s, MessagesFile)
	now := s.now().UTC()
	m.ID = newID(now, func(id string) bool {
		for _, existing := range messages {
			if existing.ID == id {
				return true
			}
		}
		return false
	})
	m.Timestamp = now
	m.CreatedAt = now
	m.Read = false

	messages = append(messages, m)
	if err := writeList(s, MessagesFile, messages); err != nil {
		return models.Message{}, err
	}
	return m, nil
}

func (s *JSONStore) UpdateMessage(ctx context.Context, id string, patch models.MessagePatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := readList[models.Message](s, MessagesFile)
	for i := range messages {
		if messages[i].ID == id {
			patch.Apply(&messages[i])
			return writeList(s, MessagesFile, messages)
		}
	}
	return ErrNotFound
}

func (s *JSONStore) ToggleMessageRead(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := readList[models.Message](s, MessagesFile)
	for i := range messages {
		if messages[i].ID == id {
			messages[i].Read = !messages[i].Read
			if err := writeList(s, MessagesFile, messages); err != nil {
				return false, err
			}
			return messages[i].Read, nil
		}
	}
	return false, ErrNotFound
}

func (s *JSONStore) DeleteMessage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages := readList[models.Message](s, MessagesFile)
	kept := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(messages) {
		return ErrNotFound
	}
	return writeList(s, MessagesFile, kept)
}

// Admins

func (s *JSONStore) ListAdmins(ctx context.Context) ([]models.AdminUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return readList[models.AdminUser](s, AdminFile), nil
}

func (s *JSONStore) SaveAdmin(ctx context.Context, admin models.AdminUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admins := readList[models.AdminUser](s, AdminFile)
	for i := range admins {
		if admins[i].Username == admin.Username {
			admins[i] = admin
			return writeList(s, AdminFile, admins)
		}
	}
	return writeList(s, AdminFile, append(admins, admin))
}

func (s *JSONStore) TouchAdminLogin(ctx context.Context, username string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	admins := readList[models.AdminUser](s, AdminFile)
	for i := range admins {
		if admins[i].Username == username {
			t := at.UTC()
			admins[i].LastLogin = &t
			return writeList(s, AdminFile, admins)
		}
	}
	return ErrNotFound
}

func (s *JSONStore) Close() error { return nil }
