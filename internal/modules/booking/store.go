// README: Booking store backed by PostgreSQL with optimistic status versioning.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wayfarer/internal/types"
)

// StatusPatch carries the fields a transition may set.
type StatusPatch struct {
	Confirmed       *types.Money
	ProviderOrderID string
	Reference       string
	FailureReason   string
}

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	Get(ctx context.Context, id uuid.UUID) (*Booking, error)
	FindPending(ctx context.Context, conversationID uuid.UUID, option int) (*Booking, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, version int, patch StatusPatch) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
}

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, b *Booking) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO bookings (
			id, conversation_id, owner_id, offer_id, option_no,
			status, status_version, currency, quoted_amount,
			traveler_first, traveler_last, traveler_email,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9,
			$10, $11, $12,
			$13, $13
		)`,
		b.ID, b.ConversationID, b.OwnerID, b.OfferID, b.Option,
		string(b.Status), b.StatusVersion, b.Quoted.Currency, b.Quoted.Amount,
		b.Traveler.FirstName, b.Traveler.LastName, b.Traveler.Email,
		b.CreatedAt,
	)
	return err
}

const selectBooking = `
	SELECT id, conversation_id, owner_id, offer_id, option_no,
	       status, status_version, currency, quoted_amount::float8, confirmed_amount::float8,
	       traveler_first, traveler_last, traveler_email,
	       provider_order_id, reference, failure_reason,
	       created_at, updated_at
	FROM bookings`

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var confirmed *float64
	var orderID, reference, reason *string
	err := row.Scan(
		&b.ID, &b.ConversationID, &b.OwnerID, &b.OfferID, &b.Option,
		&b.Status, &b.StatusVersion, &b.Quoted.Currency, &b.Quoted.Amount, &confirmed,
		&b.Traveler.FirstName, &b.Traveler.LastName, &b.Traveler.Email,
		&orderID, &reference, &reason,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if confirmed != nil {
		b.Confirmed = &types.Money{Amount: *confirmed, Currency: b.Quoted.Currency}
	}
	b.ProviderOrderID = deref(orderID)
	b.Reference = deref(reference)
	b.FailureReason = deref(reason)
	return &b, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return scanBooking(s.db.QueryRow(ctx, selectBooking+` WHERE id = $1`, id))
}

// FindPending returns the latest booking for the option still waiting on a
// price re-confirmation.
func (s *Store) FindPending(ctx context.Context, conversationID uuid.UUID, option int) (*Booking, error) {
	return scanBooking(s.db.QueryRow(ctx, selectBooking+`
		WHERE conversation_id = $1 AND option_no = $2 AND status = $3
		ORDER BY created_at DESC
		LIMIT 1`, conversationID, option, string(StatusPriceChanged)))
}

func (s *Store) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, version int, patch StatusPatch) (bool, error) {
	var confirmed *float64
	if patch.Confirmed != nil {
		confirmed = &patch.Confirmed.Amount
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE bookings
		SET status = $1,
		    status_version = status_version + 1,
		    confirmed_amount = COALESCE($2, confirmed_amount),
		    provider_order_id = COALESCE(NULLIF($3, ''), provider_order_id),
		    reference = COALESCE(NULLIF($4, ''), reference),
		    failure_reason = COALESCE(NULLIF($5, ''), failure_reason),
		    updated_at = $6
		WHERE id = $7 AND status = $8 AND status_version = $9`,
		string(to), confirmed, patch.ProviderOrderID, patch.Reference, patch.FailureReason,
		time.Now().UTC(), id, string(from), version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO booking_events (booking_id, from_status, to_status, created_at)
		VALUES ($1, $2, $3, $4)`,
		e.BookingID, string(e.FromStatus), string(e.ToStatus), e.CreatedAt,
	)
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
