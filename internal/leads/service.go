// Package leads holds the Ralph Xpert business rules on top of a store:
// RXP naming, validation, search, message filters and dashboard counters.
package leads

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"ralph-xpert/internal/models"
	"ralph-xpert/internal/store"
)

// Suffix is appended to every stored contact name.
const Suffix = " (RXP)"

const DefaultMemberGoal = 2000

type Service struct {
	store    store.Store
	notifier Notifier
	now      func() time.Time
	loc      *time.Location
	goal     int
	logger   *zap.Logger
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone used to decide what "today" means.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithMemberGoal(goal int) Option {
	return func(s *Service) { s.goal = goal }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:    st,
		notifier: NopNotifier{},
		now:      time.Now,
		loc:      time.Local,
		goal:     DefaultMemberGoal,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.goal <= 0 {
		s.goal = DefaultMemberGoal
	}
	return s
}

// Location is the zone used for day boundaries and exports.
func (s *Service) Location() *time.Location { return s.loc }

// Now returns the service clock.
func (s *Service) Now() time.Time { return s.now() }

// WithSuffix returns nom with exactly one trailing RXP suffix.
func WithSuffix(nom string) string {
	return strings.TrimSuffix(strings.TrimSpace(nom), Suffix) + Suffix
}

// Contacts

func (s *Service) ListContacts(ctx context.Context) ([]models.Contact, error) {
	return s.store.ListContacts(ctx)
}

// AddContact registers a signup as "<nom> (RXP)" / "<codePays> <numero>".
func (s *Service) AddContact(ctx context.Context, nom, codePays, numero string) (models.Contact, error) {
	nom = strings.TrimSpace(nom)
	codePays = strings.TrimSpace(codePays)
	numero = strings.TrimSpace(numero)
	if nom == "" || codePays == "" || numero == "" {
		return models.Contact{}, invalid(MsgAllFieldsRequired)
	}

	c, err := s.store.CreateContact(ctx, WithSuffix(nom), codePays+" "+numero)
	if err != nil {
		return models.Contact{}, err
	}
	s.logger.Info("Contact added", zap.String("id", c.ID))
	s.notifier.ContactAdded(ctx, c)
	return c, nil
}

func (s *Service) UpdateContact(ctx context.Context, id, nom, numeroComplet string) error {
	nom = strings.TrimSpace(nom)
	numeroComplet = strings.TrimSpace(numeroComplet)
	if nom == "" || numeroComplet == "" {
		return invalid(MsgNameAndNumberRequired)
	}
	if err := s.store.UpdateContact(ctx, id, WithSuffix(nom), numeroComplet); err != nil {
		return err
	}
	s.notifier.Changed(ctx, KindContacts)
	return nil
}

func (s *Service) DeleteContact(ctx context.Context, id string) error {
	if err := s.store.DeleteContact(ctx, id); err != nil {
		return err
	}
	s.notifier.Changed(ctx, KindContacts)
	return nil
}

func (s *Service) DeleteAllContacts(ctx context.Context) error {
	if err := s.store.DeleteAllContacts(ctx); err != nil {
		return err
	}
	s.logger.Info("All contacts deleted")
	s.notifier.Changed(ctx, KindContacts)
	return nil
}

// SearchContacts requires a non-empty query. A blank query such as " " is
// a real search and matches names containing a space.
func (s *Service) SearchContacts(ctx context.Context, q string) ([]models.Contact, error) {
	if q == "" {
		return nil, invalid(MsgSearchQueryRequired)
	}
	contacts, err := s.store.ListContacts(ctx)
	if err != nil {
		return nil, err
	}
	return MatchContacts(contacts, q), nil
}

// MatchContacts keeps contacts whose name contains q ignoring case, or whose
// number contains q verbatim. An empty q keeps everything.
func MatchContacts(contacts []models.Contact, q string) []models.Contact {
	if q == "" {
		return contacts
	}
	lower := strings.ToLower(q)
	out := []models.Contact{}
	for _, c := range contacts {
		if strings.Contains(strings.ToLower(c.Nom), lower) || strings.Contains(c.NumeroComplet, q) {
			out = append(out, c)
		}
	}
	return out
}

// Messages

// MessageInput is a contact-form submission.
type MessageInput struct {
	Nom       string `json:"nom"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
	Sujet     string `json:"sujet"`
	Message   string `json:"message"`
}

func (s *Service) ListMessages(ctx context.Context) ([]models.Message, error) {
	return s.store.ListMessages(ctx)
}

// Messages lists messages narrowed by a search term and a read filter.
func (s *Service) Messages(ctx context.Context, term, filter string) ([]models.Message, error) {
	messages, err := s.store.ListMessages(ctx)
	if err != nil {
		return nil, err
	}
	return FilterMessages(messages, term, filter, s.now(), s.loc), nil
}

func (s *Service) AddMessage(ctx context.Context, in MessageInput) (models.Message, error) {
	in.Nom = strings.TrimSpace(in.Nom)
	in.Email = strings.TrimSpace(in.Email)
	in.Telephone = strings.TrimSpace(in.Telephone)
	in.Sujet = strings.TrimSpace(in.Sujet)
	if in.Nom == "" || in.Email == "" || in.Sujet == "" || strings.TrimSpace(in.Message) == "" {
		return models.Message{}, invalid(MsgRequiredFieldsMissing)
	}

	m, err := s.store.CreateMessage(ctx, models.Message{
		Nom:       in.Nom,
		Email:     in.Email,
		Telephone: in.Telephone,
		Sujet:     in.Sujet,
		Message:   in.Message,
	})
	if err != nil {
		return models.Message{}, err
	}
	s.logger.Info("Message received", zap.String("id", m.ID))
	s.notifier.MessageReceived(ctx, m)
	return m, nil
}

func (s *Service) UpdateMessage(ctx context.Context, id string, patch models.MessagePatch) error {
	if patch.IsEmpty() {
		return invalid(MsgNothingToUpdate)
	}
	if err := s.store.UpdateMessage(ctx, id, patch); err != nil {
		return err
	}
	s.notifier.Changed(ctx, KindMessages)
	return nil
}

// ToggleRead flips the read flag and returns the new value.
func (s *Service) ToggleRead(ctx context.Context, id string) (bool, error) {
	read, err := s.store.ToggleMessageRead(ctx, id)
	if err != nil {
		return false, err
	}
	s.notifier.Changed(ctx, KindMessages)
	return read, nil
}

func (s *Service) DeleteMessage(ctx context.Context, id string) error {
	if err := s.store.DeleteMessage(ctx, id); err != nil {
		return err
	}
	s.notifier.Changed(ctx, KindMessages)
	return nil
}

// Stats computes the dashboard counters at the current time.
func (s *Service) Stats(ctx context.Context) (models.Stats, error) {
	contacts, err := s.store.ListContacts(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	messages, err := s.store.ListMessages(ctx)
	if err != nil {
		return models.Stats{}, err
	}
	return ComputeStats(contacts, messages, s.now(), s.loc, s.goal), nil
}
