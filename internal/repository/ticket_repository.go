package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// TicketFilter captures listing parameters. OwnerScopeID restricts
// results to tickets whose creator carries the id in any chain slot or
// is the id itself; CreatedBy restricts to a single creator.
type TicketFilter struct {
	CreatedBy    *string
	OwnerScopeID *string
	Status       *domain.TicketStatus
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	SearchTerm   *string
	Limit        int
	Offset       int
}

// TicketCounts aggregates ticket totals by status.
type TicketCounts struct {
	Total   int
	Pending int
	Solved  int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error)
	CountInSubtree(ctx context.Context, ownerID string, from, to *time.Time) (TicketCounts, error)
	ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.description, t.status, t.notes, t.ip_address, t.device_name, t.alternate_ip,
               t.created_by, t.created_at, t.updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (description, status, notes, ip_address, device_name, alternate_ip, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Description,
		ticket.Status,
		ticket.Notes,
		ticket.Device.IPAddress,
		ticket.Device.DeviceName,
		ticket.Device.AlternateIP,
		ticket.CreatedBy,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET description=$1, status=$2, notes=$3, ip_address=$4, device_name=$5,
            alternate_ip=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Description,
		ticket.Status,
		ticket.Notes,
		ticket.Device.IPAddress,
		ticket.Device.DeviceName,
		ticket.Device.AlternateIP,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets t WHERE t.id=$1`
	var ticket domain.Ticket
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&ticket.ID,
		&ticket.Description,
		&ticket.Status,
		&ticket.Notes,
		&ticket.Device.IPAddress,
		&ticket.Device.DeviceName,
		&ticket.Device.AlternateIP,
		&ticket.CreatedBy,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func buildTicketClauses(filter TicketFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("t.created_by=$%d", len(args)))
	}
	if filter.OwnerScopeID != nil {
		args = append(args, *filter.OwnerScopeID)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(a.system_owner_id=%[1]s OR a.super_admin_id=%[1]s OR a.admin_id=%[1]s OR a.it_person_id=%[1]s OR t.created_by=%[1]s)",
			placeholder))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(t.description) LIKE %[1]s OR LOWER(t.id::text) LIKE %[1]s OR LOWER(a.username) LIKE %[1]s OR LOWER(a.email) LIKE %[1]s)",
			placeholder))
	}
	return clauses, args
}

// ListWithFilter returns the page of matching tickets newest-first
// along with the total match count.
func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int, error) {
	clauses, args := buildTicketClauses(filter)
	where := strings.Join(clauses, " AND ")

	countQuery := fmt.Sprintf(
		`SELECT COUNT(*) FROM tickets t JOIN accounts a ON a.id = t.created_by WHERE %s`, where)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(
		`SELECT %s FROM tickets t JOIN accounts a ON a.id = t.created_by
         WHERE %s ORDER BY t.created_at DESC LIMIT %d OFFSET %d`,
		ticketColumns, where, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Description,
			&ticket.Status,
			&ticket.Notes,
			&ticket.Device.IPAddress,
			&ticket.Device.DeviceName,
			&ticket.Device.AlternateIP,
			&ticket.CreatedBy,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, ticket)
	}
	return result, total, rows.Err()
}

// CountInSubtree aggregates ticket totals over the owner's subtree
// with an optional inclusive creation window.
func (r *ticketRepository) CountInSubtree(ctx context.Context, ownerID string, from, to *time.Time) (TicketCounts, error) {
	clauses := []string{
		"(a.system_owner_id=$1 OR a.super_admin_id=$1 OR a.admin_id=$1 OR a.it_person_id=$1 OR t.created_by=$1)",
	}
	args := []any{ownerID}
	if from != nil {
		args = append(args, *from)
		clauses = append(clauses, fmt.Sprintf("t.created_at >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		clauses = append(clauses, fmt.Sprintf("t.created_at <= $%d", len(args)))
	}

	query := fmt.Sprintf(`
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE t.status='PENDING'),
               COUNT(*) FILTER (WHERE t.status='SOLVED')
        FROM tickets t JOIN accounts a ON a.id = t.created_by
        WHERE %s`, strings.Join(clauses, " AND "))

	var counts TicketCounts
	err := r.pool.QueryRow(ctx, query, args...).Scan(&counts.Total, &counts.Pending, &counts.Solved)
	return counts, err
}

// ArchiveOlderThan moves tickets created before cutoff, together with
// their attachments, into the archive tables inside one transaction.
// Returns the number of tickets moved.
func (r *ticketRepository) ArchiveOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `
        INSERT INTO attachments_archive (id, ticket_id, name, url, file_type, created_at)
        SELECT att.id, att.ticket_id, att.name, att.url, att.file_type, att.created_at
        FROM attachments att JOIN tickets t ON t.id = att.ticket_id
        WHERE t.created_at < $1`, cutoff); err != nil {
		return 0, err
	}

	cmd, err := tx.Exec(ctx, `
        INSERT INTO tickets_archive (id, description, status, notes, ip_address, device_name, alternate_ip,
                                     created_by, created_at, updated_at)
        SELECT id, description, status, notes, ip_address, device_name, alternate_ip,
               created_by, created_at, updated_at
        FROM tickets WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}

	if _, err := tx.Exec(ctx, `
        DELETE FROM attachments WHERE ticket_id IN (SELECT id FROM tickets WHERE created_at < $1)`, cutoff); err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tickets WHERE created_at < $1`, cutoff); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}
