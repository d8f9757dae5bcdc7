package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"ralph-xpert/internal/models"
)

// SQLStore persists the same collections in a SQL database through gorm.
type SQLStore struct {
	db     *gorm.DB
	now    func() time.Time
	seed   *models.AdminUser
	seeded bool
}

type SQLOption func(*SQLStore)

// WithSeedAdmin inserts admin when the admin table is created by this open.
// A table that already exists is left as is, even when empty.
func WithSeedAdmin(admin models.AdminUser) SQLOption {
	return func(s *SQLStore) {
		if admin.Username != "" && admin.Password != "" {
			s.seed = &admin
		}
	}
}

var _ Store = (*SQLStore)(nil)

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, &OpError{Op: "sqlstore.open", Path: path, Err: err}
	}
	return db, nil
}

// OpenPostgres connects with a libpq style DSN or URL.
func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, &OpError{Op: "sqlstore.open", Path: "postgres", Err: err}
	}
	return db, nil
}

// NewSQLStore runs the auto-migration and wraps db.
func NewSQLStore(db *gorm.DB, now func() time.Time, opts ...SQLOption) (*SQLStore, error) {
	if now == nil {
		now = time.Now
	}
	s := &SQLStore{db: db, now: now}
	for _, opt := range opts {
		opt(s)
	}

	adminsExisted := db.Migrator().HasTable(&models.AdminUser{})
	if err := db.AutoMigrate(&models.Contact{}, &models.Message{}, &models.AdminUser{}); err != nil {
		return nil, &OpError{Op: "sqlstore.migrate", Err: err}
	}
	if !adminsExisted && s.seed != nil {
		if err := db.Create(s.seed).Error; err != nil {
			return nil, &OpError{Op: "sqlstore.seed", Path: "admin_users", Err: err}
		}
		s.seeded = true
	}
	return s, nil
}

// Seeded reports whether the bootstrap admin was inserted by this open.
func (s *SQLStore) Seeded() bool { return s.seeded }

// DB exposes the underlying handle, used by the data migration command.
func (s *SQLStore) DB() *gorm.DB { return s.db }

func (s *SQLStore) taken(ctx context.Context, model interface{}) func(string) bool {
	return func(id string) bool {
		var n int64
		if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
			return false
		}
		return n > 0
	}
}

// chronological orders rows by insertion time; the column name is quoted by
// the dialect because "timestamp" is a keyword in postgres.
func chronological(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}

// Contacts

func (s *SQLStore) ListContacts(ctx context.Context) ([]models.Contact, error) {
	contacts := []models.Contact{}
	if err := s.db.WithContext(ctx).Scopes(chronological).Find(&contacts).Error; err != nil {
		return nil, &OpError{Op: "sqlstore.list", Path: "contacts", Err: err}
	}
	return contacts, nil
}

func (s *SQLStore) CreateContact(ctx context.Context, nom, numeroComplet string) (models.Contact, error) {
	now := s.now().UTC()
	c := models.Contact{
		ID:            newID(now, s.taken(ctx, &models.Contact{})),
		Nom:           nom,
		NumeroComplet: numeroComplet,
		Timestamp:     now,
		CreatedAt:     now,
	}
	if err := s.db.WithContext(ctx).Create(&c).Error; err != nil {
		return models.Contact{}, &OpError{Op: "sqlstore.create", Path: "contacts", Err: err}
	}
	return c, nil
}

func (s *SQLStore) UpdateContact(ctx context.Context, id, nom, numeroComplet string) error {
	result := s.db.WithContext(ctx).Model(&models.Contact{}).Where("id = ?", id).
		Updates(map[string]interface{}{"nom": nom, "numero_complet": numeroComplet})
	if result.Error != nil {
		return &OpError{Op: "sqlstore.update", Path: "contacts", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) DeleteContact(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Contact{})
	if result.Error != nil {
		return &OpError{Op: "sqlstore.delete", Path: "contacts", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) DeleteAllContacts(ctx context.Context) error {
	err := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Contact{}).Error
	if err != nil {
		return &OpError{Op: "sqlstore.delete_all", Path: "contacts", Err: err}
	}
	return nil
}

// Messages

func (s *SQLStore) ListMessages(ctx context.Context) ([]models.Message, error) {
	messages := []models.Message{}
	if err := s.db.WithContext(ctx).Scopes(chronological).Find(&messages).Error; err != nil {
		return nil, &OpError{Op: "sqlstore.list", Path: "messages", Err: err}
	}
	return messages, nil
}

func (s *SQLStore) CreateMessage(ctx context.Context, m models.Message) (models.Message, error) {
	now := s.now().UTC()
	m.ID = newID(now, s.taken(ctx, &models.Message{}))
	m.Timestamp = now
	m.CreatedAt = now
	m.Read = false
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return models.Message{}, &OpError{Op: "sqlstore.create", Path: "messages", Err: err}
	}
	return m, nil
}

func (s *SQLStore) UpdateMessage(ctx context.Context, id string, patch models.MessagePatch) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Message
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return &OpError{Op: "sqlstore.update", Path: "messages", Err: err}
		}
		patch.Apply(&m)
		if err := tx.Save(&m).Error; err != nil {
			return &OpError{Op: "sqlstore.update", Path: "messages", Err: err}
		}
		return nil
	})
}

func (s *SQLStore) ToggleMessageRead(ctx context.Context, id string) (bool, error) {
	var read bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var m models.Message
		if err := tx.Where("id = ?", id).First(&m).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return &OpError{Op: "sqlstore.toggle", Path: "messages", Err: err}
		}
		read = !m.Read
		if err := tx.Model(&models.Message{}).Where("id = ?", id).Update("read", read).Error; err != nil {
			return &OpError{Op: "sqlstore.toggle", Path: "messages", Err: err}
		}
		return nil
	})
	return read, err
}

func (s *SQLStore) DeleteMessage(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Message{})
	if result.Error != nil {
		return &OpError{Op: "sqlstore.delete", Path: "messages", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Admins

func (s *SQLStore) ListAdmins(ctx context.Context) ([]models.AdminUser, error) {
	admins := []models.AdminUser{}
	if err := s.db.WithContext(ctx).Order("username asc").Find(&admins).Error; err != nil {
		return nil, &OpError{Op: "sqlstore.list", Path: "admin_users", Err: err}
	}
	return admins, nil
}

func (s *SQLStore) SaveAdmin(ctx context.Context, admin models.AdminUser) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&admin).Error
	if err != nil {
		return &OpError{Op: "sqlstore.save", Path: "admin_users", Err: err}
	}
	return nil
}

func (s *SQLStore) TouchAdminLogin(ctx context.Context, username string, at time.Time) error {
	result := s.db.WithContext(ctx).Model(&models.AdminUser{}).Where("username = ?", username).
		Update("last_login", at.UTC())
	if result.Error != nil {
		return &OpError{Op: "sqlstore.touch", Path: "admin_users", Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Import copies records verbatim, keeping their ids and timestamps. Rows
// whose id already exists are skipped. It returns the number inserted.
func (s *SQLStore) Import(ctx context.Context, contacts []models.Contact, messages []models.Message, admins []models.AdminUser) (int64, error) {
	var inserted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skip := func() *gorm.DB { return tx.Clauses(clause.OnConflict{DoNothing: true}) }
		if len(contacts) > 0 {
			result := skip().CreateInBatches(&contacts, 100)
			if result.Error != nil {
				return &OpError{Op: "sqlstore.import", Path: "contacts", Err: result.Error}
			}
			inserted += result.RowsAffected
		}
		if len(messages) > 0 {
			result := skip().CreateInBatches(&messages, 100)
			if result.Error != nil {
				return &OpError{Op: "sqlstore.import", Path: "messages", Err: result.Error}
			}
			inserted += result.RowsAffected
		}
		if len(admins) > 0 {
			result := skip().CreateInBatches(&admins, 100)
			if result.Error != nil {
				return &OpError{Op: "sqlstore.import", Path: "admin_users", Err: result.Error}
			}
			inserted += result.RowsAffected
		}
		return nil
	})
	return inserted, err
}
