package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/medilab/lis/internal/platform/db"
)

// Message statuses.
const (
	StatusPending = "pending"
	StatusSent    = "sent"
	StatusFailed  = "failed"
)

// ErrMessageNotFound is returned when an outbox row does not exist.
var ErrMessageNotFound = errors.New("outbox message not found")

// Message is one queued email. Rows are written inside the transaction
// that made them necessary, so a committed publish always has its mail
// on record even if delivery lags.
type Message struct {
	ID         uuid.UUID `json:"id"`
	Recipients []string  `json:"recipients"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	Status     string    `json:"status"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// OutboxRepo persists queued emails.
type OutboxRepo interface {
	Enqueue(ctx context.Context, msg *Message) error
	Pending(ctx context.Context, limit int) ([]Message, error)
	MarkSent(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	GetByID(ctx context.Context, id uuid.UUID) (*Message, error)
}

type outboxRepoPG struct {
	pool *pgxpool.Pool
}

func NewOutboxRepoPG(pool *pgxpool.Pool) OutboxRepo {
	return &outboxRepoPG{pool: pool}
}

func (r *outboxRepoPG) conn(ctx context.Context) db.Querier {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const outboxCols = `id, recipients, subject, body, status, attempts, COALESCE(last_error, ''), created_at, updated_at`

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	err := row.Scan(&m.ID, &m.Recipients, &m.Subject, &m.Body, &m.Status,
		&m.Attempts, &m.LastError, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *outboxRepoPG) Enqueue(ctx context.Context, msg *Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	msg.Status = StatusPending

	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO email_outbox (id, recipients, subject, body, status, attempts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, NOW(), NOW())`,
		msg.ID, msg.Recipients, msg.Subject, msg.Body, msg.Status)
	if err != nil {
		return fmt.Errorf("enqueue outbox message: %w", err)
	}
	return nil
}

func (r *outboxRepoPG) Pending(ctx context.Context, limit int) ([]Message, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+outboxCols+`
		FROM email_outbox
		WHERE status = $1
		ORDER BY created_at
		LIMIT $2`, StatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending outbox messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outbox message: %w", err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

func (r *outboxRepoPG) MarkSent(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE email_outbox
		SET status = $1, attempts = attempts + 1, last_error = NULL, updated_at = NOW()
		WHERE id = $2`, StatusSent, id)
	if err != nil {
		return fmt.Errorf("mark outbox message sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *outboxRepoPG) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE email_outbox
		SET status = $1, attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE id = $3`, StatusFailed, reason, id)
	if err != nil {
		return fmt.Errorf("mark outbox message failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *outboxRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	m, err := scanMessage(r.conn(ctx).QueryRow(ctx, `
		SELECT `+outboxCols+` FROM email_outbox WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("get outbox message: %w", err)
	}
	return m, nil
}

// Dispatcher drains the outbox on an interval. A message with no
// recipients can never be delivered and is failed immediately.
type Dispatcher struct {
	repo     OutboxRepo
	sender   EmailSender
	logger   zerolog.Logger
	interval time.Duration
	batch    int
}

func NewDispatcher(repo OutboxRepo, sender EmailSender, logger zerolog.Logger, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		repo:     repo,
		sender:   sender,
		logger:   logger,
		interval: interval,
		batch:    50,
	}
}

// Run polls until ctx is canceled. Call it on its own goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchOnce(ctx)
		}
	}
}

// DispatchOnce sends one batch of pending messages and returns how many
// were delivered.
func (d *Dispatcher) DispatchOnce(ctx context.Context) int {
	msgs, err := d.repo.Pending(ctx, d.batch)
	if err != nil {
		d.logger.Error().Err(err).Msg("outbox scan failed")
		return 0
	}

	sent := 0
	for i := range msgs {
		msg := &msgs[i]
		if len(msg.Recipients) == 0 {
			if err := d.repo.MarkFailed(ctx, msg.ID, "no recipients"); err != nil {
				d.logger.Error().Err(err).Str("message_id", msg.ID.String()).Msg("mark failed")
			}
			continue
		}

		if err := d.sender.SendEmail(ctx, msg.Recipients, msg.Subject, msg.Body); err != nil {
			d.logger.Error().Err(err).
				Str("message_id", msg.ID.String()).
				Int("attempts", msg.Attempts+1).
				Msg("email delivery failed")
			if mferr := d.repo.MarkFailed(ctx, msg.ID, err.Error()); mferr != nil {
				d.logger.Error().Err(mferr).Str("message_id", msg.ID.String()).Msg("mark failed")
			}
			continue
		}

		if err := d.repo.MarkSent(ctx, msg.ID); err != nil {
			d.logger.Error().Err(err).Str("message_id", msg.ID.String()).Msg("mark sent")
			continue
		}
		sent++
	}
	return sent
}
