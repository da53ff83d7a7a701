package notifications

import (
	"context"
	"fmt"
	"time"

	"clinic-portal/internal/configs"

	"github.com/go-gomail/gomail"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, message Message) error
}

// SMTPSender delivers messages through an SMTP server.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender creates a sender for the configured SMTP server.
func NewSMTPSender(config configs.SMTP) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
		from:   config.From,
	}
}

func (s *SMTPSender) Send(ctx context.Context, message Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", message.To)
	m.SetHeader("Subject", message.Subject)
	m.SetBody("text/html", message.Body)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("error sending email: %w", err)
	}
	return nil
}

// LogSender writes messages to the log instead of delivering them. It is used when no SMTP
// server is configured.
type LogSender struct {
	logger zerolog.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (l *LogSender) Send(ctx context.Context, message Message) error {
	l.logger.Info().Str("to", message.To).Str("subject", message.Subject).Msg("notification not delivered, no smtp server configured")
	return nil
}

// NewSender creates the sender for the configuration.
func NewSender(config configs.Config, logger zerolog.Logger) Sender {
	if config.SMTP().Host == "" {
		return NewLogSender(logger)
	}
	return NewSMTPSender(config.SMTP())
}

// Marker records that a reminder was sent, so a batch run twice does not remind twice.
type Marker interface {

	// Mark records the key for the ttl. It returns false when the key was already recorded.
	Mark(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Unmark forgets the key, so a failed delivery can be retried.
	Unmark(ctx context.Context, key string) error
}

// RedisMarker records keys in Redis.
type RedisMarker struct {
	client *redis.Client
}

// NewRedisMarker creates a marker backed by the Redis server at addr.
func NewRedisMarker(addr string) *RedisMarker {
	return &RedisMarker{client: redis.NewClient(&redis.Options{Network: "tcp", Addr: addr})}
}

func (r *RedisMarker) Mark(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	marked, err := r.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("could not mark %s: %w", key, err)
	}
	return marked, nil
}

func (r *RedisMarker) Unmark(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

// Close releases the Redis client.
func (r *RedisMarker) Close() error {
	return r.client.Close()
}

// reminderKey identifies the reminder of an appointment on a date.
func reminderKey(details Details) string {
	return fmt.Sprintf("clinic:reminder:%s:%s", details.AppointmentUUID, details.FormattedDate())
}
