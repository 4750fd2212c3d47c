package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/queueflow/backend/domain"
	"github.com/queueflow/backend/repository"
)

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository returns a Postgres-backed implementation of TicketRepository.
func NewTicketRepository(pool *pgxpool.Pool) repository.TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `
	id, seq, number, department_id, service_id,
	customer_name, customer_phone, customer_email,
	status, assigned_staff_id, suggested_staff_id,
	created_at, called_at, completed_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	if ticket == nil {
		return nil, domain.ErrInvalidPayload
	}
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.Status == "" {
		ticket.Status = domain.StatusWaiting
	}

	const query = `
	INSERT INTO tickets (id, number, department_id, service_id, customer_name, customer_phone, customer_email, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING seq, created_at
	`

	if err := r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Number,
		ticket.DepartmentID,
		ticket.ServiceID,
		ticket.Customer.Name,
		nullString(ticket.Customer.Phone),
		nullString(ticket.Customer.Email),
		string(ticket.Status),
	).Scan(&ticket.Seq, &ticket.CreatedAt); err != nil {
		return nil, err
	}

	return ticket, nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return scanTicket(r.pool.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	const query = `SELECT ` + ticketColumns + ` FROM tickets WHERE number = $1`
	return scanTicket(r.pool.QueryRow(ctx, query, number))
}

func (r *ticketRepository) ListActive(ctx context.Context, departmentID string) ([]domain.Ticket, error) {
	const query = `
	SELECT ` + ticketColumns + `
	FROM tickets
	WHERE department_id = $1
	  AND status IN ('waiting', 'called')
	ORDER BY created_at ASC, seq ASC
	`
	rows, err := r.pool.Query(ctx, query, departmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (r *ticketRepository) ListByStaff(ctx context.Context, staffID string, statuses []domain.TicketStatus) ([]domain.Ticket, error) {
	const query = `
	SELECT ` + ticketColumns + `
	FROM tickets
	WHERE assigned_staff_id = $1
	  AND status = ANY($2)
	ORDER BY created_at ASC, seq ASC
	`
	rows, err := r.pool.Query(ctx, query, staffID, statusStrings(statuses))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (r *ticketRepository) SelectOldestWaiting(ctx context.Context, departmentID string) (*domain.Ticket, error) {
	const query = `
	SELECT ` + ticketColumns + `
	FROM tickets
	WHERE department_id = $1
	  AND status = 'waiting'
	ORDER BY created_at ASC, seq ASC
	LIMIT 1
	`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, departmentID))
	if err != nil {
		if errors.Is(err, domain.ErrTicketNotFound) {
			return nil, domain.ErrEmptyQueue
		}
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, ticket *domain.Ticket, observed domain.TicketStatus) error {
	if ticket == nil {
		return domain.ErrInvalidPayload
	}

	// Compare-and-swap on the status the caller observed: a concurrent
	// transition of the same row makes this a no-op instead of a lost update.
	const query = `
	UPDATE tickets
	SET status = $3,
		assigned_staff_id = $4,
		called_at = $5,
		completed_at = $6
	WHERE id = $1 AND status = $2
	`
	tag, err := r.pool.Exec(ctx, query,
		ticket.ID,
		string(observed),
		string(ticket.Status),
		nullString(ticket.AssignedStaffID),
		nullTimePtr(ticket.CalledAt),
		nullTimePtr(ticket.CompletedAt),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, getErr := r.GetByID(ctx, ticket.ID); errors.Is(getErr, domain.ErrTicketNotFound) {
			return domain.ErrTicketNotFound
		}
		return domain.ErrQueueBusy
	}
	return nil
}

func (r *ticketRepository) SetSuggestedStaff(ctx context.Context, ticketID, staffID string) error {
	const query = `UPDATE tickets SET suggested_staff_id = $2 WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, ticketID, nullString(staffID))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (r *ticketRepository) CountWorkload(ctx context.Context, staffID string) (int, error) {
	const query = `
	SELECT COUNT(*)
	FROM tickets
	WHERE (status = 'called' AND assigned_staff_id = $1)
	   OR (status = 'waiting' AND suggested_staff_id = $1)
	`
	var count int
	if err := r.pool.QueryRow(ctx, query, staffID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) CountWaitingBefore(ctx context.Context, departmentID string, seq int64) (int, error) {
	const query = `
	SELECT COUNT(*)
	FROM tickets
	WHERE department_id = $1
	  AND status = 'waiting'
	  AND seq < $2
	`
	var count int
	if err := r.pool.QueryRow(ctx, query, departmentID, seq).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanTicket(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var (
		phone     *string
		email     *string
		status    string
		assigned  *string
		suggested *string
		calledAt  *time.Time
		doneAt    *time.Time
	)

	if err := row.Scan(
		&ticket.ID,
		&ticket.Seq,
		&ticket.Number,
		&ticket.DepartmentID,
		&ticket.ServiceID,
		&ticket.Customer.Name,
		&phone,
		&email,
		&status,
		&assigned,
		&suggested,
		&ticket.CreatedAt,
		&calledAt,
		&doneAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}

	ticket.Status = domain.TicketStatus(status)
	ticket.Customer.Phone = deref(phone)
	ticket.Customer.Email = deref(email)
	ticket.AssignedStaffID = deref(assigned)
	ticket.SuggestedStaffID = deref(suggested)
	ticket.CalledAt = calledAt
	ticket.CompletedAt = doneAt

	return &ticket, nil
}

func collectTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var tickets []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *ticket)
	}
	return tickets, rows.Err()
}
