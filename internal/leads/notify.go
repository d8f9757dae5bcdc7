package leads

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"ralph-xpert/internal/models"
	"ralph-xpert/internal/whatsapp"
	"ralph-xpert/internal/ws"
)

// Collections named in change notifications.
const (
	KindContacts = "contacts"
	KindMessages = "messages"
)

// Notifier is told about every successful mutation.
type Notifier interface {
	ContactAdded(ctx context.Context, c models.Contact)
	MessageReceived(ctx context.Context, m models.Message)
	Changed(ctx context.Context, kind string)
}

type NopNotifier struct{}

func (NopNotifier) ContactAdded(context.Context, models.Contact)    {}
func (NopNotifier) MessageReceived(context.Context, models.Message) {}
func (NopNotifier) Changed(context.Context, string)                 {}

// MultiNotifier fans out to each notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) ContactAdded(ctx context.Context, c models.Contact) {
	for _, n := range m {
		n.ContactAdded(ctx, c)
	}
}

func (m MultiNotifier) MessageReceived(ctx context.Context, msg models.Message) {
	for _, n := range m {
		n.MessageReceived(ctx, msg)
	}
}

func (m MultiNotifier) Changed(ctx context.Context, kind string) {
	for _, n := range m {
		n.Changed(ctx, kind)
	}
}

// Broadcaster is implemented by *ws.Hub.
type Broadcaster interface {
	BroadcastEvent(eventType string, data interface{})
}

// HubNotifier pushes change events to connected dashboards.
type HubNotifier struct {
	Hub Broadcaster
}

func (h HubNotifier) ContactAdded(_ context.Context, c models.Contact) {
	h.Hub.BroadcastEvent(ws.EventContactsChanged, c)
}

func (h HubNotifier) MessageReceived(_ context.Context, m models.Message) {
	h.Hub.BroadcastEvent(ws.EventMessagesChanged, m)
}

func (h HubNotifier) Changed(_ context.Context, kind string) {
	switch kind {
	case KindContacts:
		h.Hub.BroadcastEvent(ws.EventContactsChanged, nil)
	case KindMessages:
		h.Hub.BroadcastEvent(ws.EventMessagesChanged, nil)
	}
}

// Sender is the part of the WhatsApp client used for notifications.
type Sender interface {
	Enabled() bool
	SendText(ctx context.Context, to, body string) (*whatsapp.SendResponse, error)
	SendTemplate(ctx context.Context, to, templateName, languageCode string) (*whatsapp.SendResponse, error)
}

// WhatsAppNotifier welcomes new contacts and alerts the admin about new
// contact-form messages. Sends run in the background; Wait blocks until
// the pending ones finish.
type WhatsAppNotifier struct {
	Sender           Sender
	WelcomeMessage   string
	WelcomeTemplate  string
	TemplateLanguage string
	AdminNumber      string
	Logger           *zap.Logger
	Timeout          time.Duration

	wg sync.WaitGroup
}

func (w *WhatsAppNotifier) ContactAdded(ctx context.Context, c models.Contact) {
	if w.Sender == nil || !w.Sender.Enabled() {
		return
	}
	if w.WelcomeTemplate == "" && w.WelcomeMessage == "" {
		return
	}
	to := whatsapp.NormalizeNumber(c.NumeroComplet)
	w.send(ctx, "welcome", func(ctx context.Context) error {
		if w.WelcomeTemplate != "" {
			_, err := w.Sender.SendTemplate(ctx, to, w.WelcomeTemplate, w.TemplateLanguage)
			return err
		}
		_, err := w.Sender.SendText(ctx, to, w.WelcomeMessage)
		return err
	})
}

func (w *WhatsAppNotifier) MessageReceived(ctx context.Context, m models.Message) {
	if w.Sender == nil || !w.Sender.Enabled() || w.AdminNumber == "" {
		return
	}
	to := whatsapp.NormalizeNumber(w.AdminNumber)
	body := fmt.Sprintf("Nouveau message de %s (%s)\nSujet : %s\n\n%s", m.Nom, m.Email, m.Sujet, m.Message)
	w.send(ctx, "admin_alert", func(ctx context.Context) error {
		_, err := w.Sender.SendText(ctx, to, body)
		return err
	})
}

func (w *WhatsAppNotifier) Changed(context.Context, string) {}

// Wait blocks until every background send has returned.
func (w *WhatsAppNotifier) Wait() {
	w.wg.Wait()
}

func (w *WhatsAppNotifier) send(ctx context.Context, kind string, fn func(context.Context) error) {
	timeout := w.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	logger := w.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// The request context ends with the HTTP response.
	base := context.WithoutCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ctx, cancel := context.WithTimeout(base, timeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			logger.Warn("WhatsApp notification failed", zap.String("kind", kind), zap.Error(err))
			return
		}
		logger.Debug("WhatsApp notification sent", zap.String("kind", kind))
	}()
}
