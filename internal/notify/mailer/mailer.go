// Package mailer turns booking domain events into emails for the requester.
package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"

	"gather/pkg/locale"
	"gather/pkg/logger"
	"gather/pkg/model"

	"github.com/skip2/go-qrcode"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	qrName = "booking-code.png"
	qrSize = 256
)

// Sender delivers composed messages. *gomail.Dialer satisfies it.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Mailer struct {
	sender Sender
	from   string
	tmpl   *template.Template
	log    *logger.Logger
}

func New(cfg Config, log *logger.Logger) (*Mailer, error) {
	return NewWithSender(gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password), cfg.From, log)
}

func NewWithSender(sender Sender, from string, log *logger.Logger) (*Mailer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/booking.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &Mailer{
		sender: sender,
		from:   from,
		tmpl:   tmpl,
		log:    log,
	}, nil
}

type content struct {
	Subject string
	Heading string
	Intro   string
	WithQR  bool
}

type view struct {
	content
	Name      string
	BookingID string
	Seats     int
	Status    model.BookingStatus
	QRName    string
	SentAt    string
}

// contentFor picks the wording for an event. The bool is false for events
// the requester does not need to hear about.
func contentFor(event model.DomainEvent) (content, bool) {
	if event.Type == model.BookingCreated {
		return content{
			Subject: "We received your booking",
			Heading: "Booking received",
			Intro:   "Thanks for signing up. Your seats are held while the organisers review your booking.",
			WithQR:  true,
		}, true
	}

	switch event.NewStatus {
	case model.BookingConfirmed:
		return content{
			Subject: "Your booking is confirmed",
			Heading: "Booking confirmed",
			Intro:   "Good news, your booking has been confirmed. See you there.",
			WithQR:  true,
		}, true
	case model.BookingPaid:
		return content{
			Subject: "Payment received",
			Heading: "Payment received",
			Intro:   "We have recorded your payment for this booking.",
		}, true
	case model.BookingCancelled:
		return content{
			Subject: "Your booking was cancelled",
			Heading: "Booking cancelled",
			Intro:   "Your booking has been cancelled and the seats released.",
		}, true
	}
	return content{}, false
}

// Compose renders the email for event. It returns nil and no error when the
// event needs no email.
func (m *Mailer) Compose(event model.DomainEvent) (*gomail.Message, error) {
	c, ok := contentFor(event)
	if !ok || event.Email == "" {
		return nil, nil
	}

	var body bytes.Buffer
	err := m.tmpl.ExecuteTemplate(&body, "booking.html", view{
		content:   c,
		Name:      event.Name,
		BookingID: event.BookingID,
		Seats:     event.Seats,
		Status:    event.NewStatus,
		QRName:    qrName,
		SentAt:    event.OccurredAt.In(locale.LocationForPhone(event.Phone)).Format(time.RFC1123),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", event.Email)
	msg.SetHeader("Subject", c.Subject)
	msg.SetBody("text/html", body.String())

	if c.WithQR {
		png, err := qrcode.Encode(event.BookingID, qrcode.Medium, qrSize)
		if err != nil {
			return nil, fmt.Errorf("failed to generate booking code: %w", err)
		}
		msg.Embed(qrName, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(png)
			return err
		}), gomail.SetHeader(map[string][]string{
			"Content-Type": {"image/png"},
		}))
	}

	return msg, nil
}

func (m *Mailer) Deliver(msg *gomail.Message) error {
	if err := m.sender.DialAndSend(msg); err != nil {
		return err
	}
	m.log.Debug("Email sent", "to", msg.GetHeader("To"), "subject", msg.GetHeader("Subject"))
	return nil
}
