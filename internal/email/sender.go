package email

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gopkg.in/gomail.v2"
)

// Attachment is a single file carried by a message.
type Attachment struct {
	Filename string
	Data     []byte
}

// Message is the job-supplied part of an envelope. The sender identity
// always comes from configuration.
type Message struct {
	To         string
	Subject    string
	Body       string
	Attachment *Attachment
}

// Dialer opens one SMTP session. *gomail.Dialer satisfies it.
type Dialer interface {
	Dial() (gomail.SendCloser, error)
}

type Sender struct {
	From    string
	Dialer  Dialer
	Limiter *rate.Limiter
	Retries uint64
	Log     *zap.Logger
}

// NewLimiter throttles sends to perSecond. A rate of zero or less means
// unlimited and yields a nil limiter.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), max(1, int(perSecond)))
}

// NewSender builds a Sender that authenticates with the given credentials.
// gomail upgrades the session with STARTTLS when the server offers it.
func NewSender(host string, port int, user, password, from string, limiter *rate.Limiter, retries uint64, logger *zap.Logger) *Sender {
	return &Sender{
		From:    from,
		Dialer:  gomail.NewDialer(host, port, user, password),
		Limiter: limiter,
		Retries: retries,
		Log:     logger,
	}
}

// Send delivers msg and reports whether the SMTP server accepted it.
// Failures are logged, never returned.
func (s *Sender) Send(ctx context.Context, msg Message) bool {
	if s.Limiter != nil {
		if err := s.Limiter.Wait(ctx); err != nil {
			s.logger().Warn("send throttle interrupted",
				zap.String("to", msg.To),
				zap.Error(err),
			)
			return false
		}
	}

	if err := s.SendWithRetry(ctx, s.build(msg)); err != nil {
		s.logger().Error("email send failed",
			zap.String("to", msg.To),
			zap.Error(err),
		)
		return false
	}

	s.logger().Info("email delivered", zap.String("to", msg.To))
	return true
}

func (s *Sender) build(msg Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if a := msg.Attachment; a != nil {
		data := a.Data
		m.Attach(a.Filename,
			gomail.SetHeader(map[string][]string{
				"Content-Type": {"application/octet-stream"},
			}),
			gomail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(data)
				return err
			}),
		)
	}

	return m
}

// deliver opens a fresh session for a single message and always closes it.
func (s *Sender) deliver(m *gomail.Message) error {
	sc, err := s.Dialer.Dial()
	if err != nil {
		return fmt.Errorf("smtp dial error: %w", err)
	}
	defer sc.Close()

	if err := gomail.Send(sc, m); err != nil {
		return fmt.Errorf("smtp send error: %w", err)
	}

	return nil
}

// SendWithRetry retries delivery with exponential backoff, at most s.Retries
// extra attempts.
func (s *Sender) SendWithRetry(ctx context.Context, m *gomail.Message) error {
	operation := func() error {
		return s.deliver(m)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond

	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, s.Retries), ctx))
}

func (s *Sender) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
