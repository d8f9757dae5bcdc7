package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ralph-xpert/internal/config"
	"ralph-xpert/internal/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)}
}

func backends(t *testing.T) map[string]func(clock *fakeClock) Store {
	return map[string]func(clock *fakeClock) Store{
		"json": func(clock *fakeClock) Store {
			s, err := NewJSONStore(t.TempDir(), WithNow(clock.Now))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(clock *fakeClock) Store {
			db, err := OpenSQLite(filepath.Join(t.TempDir(), "rxp.db"))
			require.NoError(t, err)
			s, err := NewSQLStore(db, clock.Now)
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close() })
			return s
		},
	}
}

func TestStore_Contacts(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newClock()
			s := open(clock)

			list, err := s.ListContacts(ctx)
			require.NoError(t, err)
			assert.NotNil(t, list)
			assert.Empty(t, list)

			c1, err := s.CreateContact(ctx, "Alice (RXP)", "+33 612345678")
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprint(clock.t.UnixMilli()), c1.ID)
			assert.True(t, c1.Timestamp.Equal(clock.t))

			// Same millisecond: id is bumped instead of colliding.
			c2, err := s.CreateContact(ctx, "Bob (RXP)", "+1 5550100")
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprint(clock.t.UnixMilli()+1), c2.ID)

			list, err = s.ListContacts(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, c1.ID, list[0].ID)
			assert.Equal(t, "+1 5550100", list[1].NumeroComplet)

			require.NoError(t, s.UpdateContact(ctx, c1.ID, "Alicia (RXP)", "+33 600000000"))
			list, _ = s.ListContacts(ctx)
			assert.Equal(t, "Alicia (RXP)", list[0].Nom)
			assert.Equal(t, "+33 600000000", list[0].NumeroComplet)

			assert.ErrorIs(t, s.UpdateContact(ctx, "missing", "x", "y"), ErrNotFound)
			assert.ErrorIs(t, s.DeleteContact(ctx, "missing"), ErrNotFound)

			require.NoError(t, s.DeleteContact(ctx, c1.ID))
			list, _ = s.ListContacts(ctx)
			require.Len(t, list, 1)
			assert.Equal(t, c2.ID, list[0].ID)

			require.NoError(t, s.DeleteAllContacts(ctx))
			list, _ = s.ListContacts(ctx)
			assert.Empty(t, list)
		})
	}
}

func TestStore_Messages(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newClock()
			s := open(clock)

			m, err := s.CreateMessage(ctx, models.Message{
				Nom:     "Chloé",
				Email:   "chloe@example.com",
				Sujet:   "Question",
				Message: "Bonjour",
				Read:    true,
			})
			require.NoError(t, err)
			assert.NotEmpty(t, m.ID)
			assert.False(t, m.Read, "new messages always start unread")

			read := true
			subject := "Question urgente"
			require.NoError(t, s.UpdateMessage(ctx, m.ID, models.MessagePatch{Read: &read, Sujet: &subject}))

			list, err := s.ListMessages(ctx)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.True(t, list[0].Read)
			assert.Equal(t, "Question urgente", list[0].Sujet)
			assert.Equal(t, "Bonjour", list[0].Message)

			assert.ErrorIs(t, s.UpdateMessage(ctx, "missing", models.MessagePatch{Read: &read}), ErrNotFound)
			assert.ErrorIs(t, s.DeleteMessage(ctx, "missing"), ErrNotFound)

			require.NoError(t, s.DeleteMessage(ctx, m.ID))
			list, _ = s.ListMessages(ctx)
			assert.Empty(t, list)
		})
	}
}

func TestStore_ToggleMessageRead(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(newClock())

			m, err := s.CreateMessage(ctx, models.Message{Nom: "Kofi", Email: "kofi@example.com", Message: "Salut"})
			require.NoError(t, err)

			read, err := s.ToggleMessageRead(ctx, m.ID)
			require.NoError(t, err)
			assert.True(t, read)

			read, err = s.ToggleMessageRead(ctx, m.ID)
			require.NoError(t, err)
			assert.False(t, read)

			_, err = s.ToggleMessageRead(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestJSONStore_ConcurrentTogglesDoNotLoseFlips(t *testing.T) {
	ctx := context.Background()
	s, err := NewJSONStore(t.TempDir(), WithNow(newClock().Now))
	require.NoError(t, err)

	m, err := s.CreateMessage(ctx, models.Message{Nom: "Awa", Email: "awa@example.com", Message: "Bonjour"})
	require.NoError(t, err)

	const toggles = 20
	var g errgroup.Group
	for i := 0; i < toggles; i++ {
		g.Go(func() error {
			_, err := s.ToggleMessageRead(ctx, m.ID)
			return err
		})
	}
	require.NoError(t, g.Wait())

	list, err := s.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].Read, "an even number of flips ends where it started")
}

func TestStore_Admins(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(newClock())

			admins, err := s.ListAdmins(ctx)
			require.NoError(t, err)
			assert.Empty(t, admins)

			require.NoError(t, s.SaveAdmin(ctx, models.AdminUser{Username: "AdminAdmin", Password: "AdminAdmin"}))
			require.NoError(t, s.SaveAdmin(ctx, models.AdminUser{Username: "AdminAdmin", Password: "changed"}))
			at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
			require.NoError(t, s.TouchAdminLogin(ctx, "AdminAdmin", at))
			assert.ErrorIs(t, s.TouchAdminLogin(ctx, "ghost", at), ErrNotFound)

			admins, err = s.ListAdmins(ctx)
			require.NoError(t, err)
			require.Len(t, admins, 1)
			assert.Equal(t, "changed", admins[0].Password)
			require.NotNil(t, admins[0].LastLogin)
			assert.True(t, admins[0].LastLogin.Equal(at))
		})
	}
}

func TestJSONStore_InitializesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	_, err := NewJSONStore(dir)
	require.NoError(t, err)

	for _, name := range []string{ContactsFile, MessagesFile, AdminFile} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, "[]", string(b))
	}
}

func TestJSONStore_BootstrapAdminOnlyOnCreate(t *testing.T) {
	admin := models.AdminUser{Username: "AdminAdmin", Password: "AdminAdmin"}

	t.Run("missing file is seeded", func(t *testing.T) {
		s, err := NewJSONStore(t.TempDir(), WithBootstrapAdmin(admin))
		require.NoError(t, err)
		assert.True(t, s.Seeded())

		admins, err := s.ListAdmins(context.Background())
		require.NoError(t, err)
		require.Len(t, admins, 1)
		assert.Equal(t, "AdminAdmin", admins[0].Username)
	})

	t.Run("existing empty list is kept", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, AdminFile), []byte("[]"), 0o644))

		s, err := NewJSONStore(dir, WithBootstrapAdmin(admin))
		require.NoError(t, err)
		assert.False(t, s.Seeded())

		b, err := os.ReadFile(filepath.Join(dir, AdminFile))
		require.NoError(t, err)
		assert.Equal(t, "[]", string(b))
	})

	t.Run("blank credentials seed nothing", func(t *testing.T) {
		dir := t.TempDir()
		s, err := NewJSONStore(dir, WithBootstrapAdmin(models.AdminUser{Username: "AdminAdmin"}))
		require.NoError(t, err)
		assert.False(t, s.Seeded())

		b, err := os.ReadFile(filepath.Join(dir, AdminFile))
		require.NoError(t, err)
		assert.Equal(t, "[]", string(b))
	})
}

func TestSQLStore_SeedsAdminOnlyWhenTableIsCreated(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seed.db")
	admin := models.AdminUser{Username: "AdminAdmin", Password: "AdminAdmin"}

	db, err := OpenSQLite(path)
	require.NoError(t, err)
	s, err := NewSQLStore(db, nil, WithSeedAdmin(admin))
	require.NoError(t, err)
	assert.True(t, s.Seeded())

	admins, err := s.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, admins, 1)

	require.NoError(t, db.Where("1 = 1").Delete(&models.AdminUser{}).Error)
	require.NoError(t, s.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	s, err = NewSQLStore(db, nil, WithSeedAdmin(admin))
	require.NoError(t, err)
	defer s.Close()
	assert.False(t, s.Seeded())

	admins, err = s.ListAdmins(ctx)
	require.NoError(t, err)
	assert.Empty(t, admins, "an emptied admin table stays empty")
}

func TestJSONStore_KeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	existing := `[{"id":"1700000000000","nom":"Old (RXP)","numeroComplet":"+229 97000000","timestamp":"2023-11-14T22:13:20.000Z","createdAt":"2023-11-14T22:13:20.000Z"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ContactsFile), []byte(existing), 0o644))

	s, err := NewJSONStore(dir)
	require.NoError(t, err)

	list, err := s.ListContacts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Old (RXP)", list[0].Nom)
	assert.Equal(t, 2023, list[0].Timestamp.Year())
}

func TestJSONStore_MalformedFileReadsEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, MessagesFile), []byte("{not json"), 0o644))

	list, err := s.ListMessages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestJSONStore_WritesIndentedWithoutTempLeftovers(t *testing.T) {
	dir := t.TempDir()
	s, err := NewJSONStore(dir, WithNow(newClock().Now))
	require.NoError(t, err)

	_, err = s.CreateContact(context.Background(), "Ama (RXP)", "+225 0700000000")
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, ContactsFile))
	require.NoError(t, err)
	assert.Contains(t, string(b), "\n  {\n    \"id\": \"")
	assert.Contains(t, string(b), `"numeroComplet": "+225 0700000000"`)

	_, err = os.Stat(filepath.Join(dir, ContactsFile+".tmp"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSQLStore_Import(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "import.db"))
	require.NoError(t, err)
	s, err := NewSQLStore(db, nil)
	require.NoError(t, err)
	defer s.Close()

	ts := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	contacts := []models.Contact{
		{ID: "1717228800000", Nom: "A (RXP)", NumeroComplet: "+1 1", Timestamp: ts, CreatedAt: ts},
		{ID: "1717228800001", Nom: "B (RXP)", NumeroComplet: "+1 2", Timestamp: ts.Add(time.Second), CreatedAt: ts},
	}
	messages := []models.Message{{ID: "1717228800002", Nom: "C", Email: "c@example.com", Timestamp: ts, Read: true}}

	n, err := s.Import(ctx, contacts, messages, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = s.Import(ctx, contacts, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	list, err := s.ListContacts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1717228800000", list[0].ID)

	msgs, err := s.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Read)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("json with bootstrap admin", func(t *testing.T) {
		cfg := config.Default()
		cfg.DataDir = t.TempDir()
		s, err := Open(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer s.Close()

		admins, err := s.ListAdmins(ctx)
		require.NoError(t, err)
		require.Len(t, admins, 1)
		assert.Equal(t, "AdminAdmin", admins[0].Username)
		assert.IsType(t, &JSONStore{}, s)
	})

	t.Run("json keeps an existing empty admin list", func(t *testing.T) {
		cfg := config.Default()
		cfg.DataDir = t.TempDir()
		path := filepath.Join(cfg.DataDir, AdminFile)
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))

		s, err := Open(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer s.Close()

		admins, err := s.ListAdmins(ctx)
		require.NoError(t, err)
		assert.Empty(t, admins)

		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "[]", string(b))
	})

	t.Run("json leaves a malformed admin file untouched", func(t *testing.T) {
		cfg := config.Default()
		cfg.DataDir = t.TempDir()
		path := filepath.Join(cfg.DataDir, AdminFile)
		malformed := `[{"username":"boss","password":"secret"},]`
		require.NoError(t, os.WriteFile(path, []byte(malformed), 0o644))

		s, err := Open(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer s.Close()

		b, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, malformed, string(b))
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := config.Default()
		cfg.StorageDriver = config.DriverSQLite
		cfg.DBPath = filepath.Join(t.TempDir(), "rxp.db")
		s, err := Open(ctx, cfg, zap.NewNop())
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &SQLStore{}, s)

		admins, err := s.ListAdmins(ctx)
		require.NoError(t, err)
		require.Len(t, admins, 1)
		assert.Equal(t, "AdminAdmin", admins[0].Username)
	})

	t.Run("postgres without url", func(t *testing.T) {
		cfg := config.Default()
		cfg.StorageDriver = config.DriverPostgres
		_, err := Open(ctx, cfg, zap.NewNop())
		require.Error(t, err)
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := config.Default()
		cfg.StorageDriver = "mongo"
		_, err := Open(ctx, cfg, zap.NewNop())
		require.Error(t, err)
	})
}

func TestOpError(t *testing.T) {
	base := errors.New("disk full")
	err := error(&OpError{Op: "jsonstore.write", Path: "/data/contacts.json", Err: base})

	assert.Equal(t, "jsonstore.write (path=/data/contacts.json): disk full", err.Error())
	assert.ErrorIs(t, err, base)

	var oe *OpError
	require.True(t, errors.As(err, &oe))
	assert.Equal(t, "jsonstore.write", oe.Op)
}
