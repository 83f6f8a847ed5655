package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AttachmentInput describes raw attachment metadata supplied by a
// caller, before validation.
type AttachmentInput struct {
	Name     string
	URL      string
	FileType *string
}

// AttachmentValidator sanitizes attachment metadata. The ticket
// service treats the implementation as opaque.
type AttachmentValidator interface {
	Validate(inputs []AttachmentInput) ([]domain.Attachment, error)
}

// TicketService scopes ticket visibility and mutation to the caller's
// owned subtree and enforces the close/reopen rules.
type TicketService struct {
	tickets     repository.TicketRepository
	attachments repository.AttachmentRepository
	accounts    repository.AccountRepository
	validator   AttachmentValidator
	dispatcher  events.Dispatcher
	now         func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	AttachmentRepo repository.AttachmentRepository
	AccountRepo    repository.AccountRepository
	Validator      AttachmentValidator
	Dispatcher     events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		attachments: deps.AttachmentRepo,
		accounts:    deps.AccountRepo,
		validator:   deps.Validator,
		dispatcher:  deps.Dispatcher,
		now:         time.Now,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Description string
	Device      domain.DeviceInfo
	Attachments []AttachmentInput
}

// TicketUpdateInput describes a partial ticket update. Nil fields are
// left untouched.
type TicketUpdateInput struct {
	Description *string
	Notes       *string
	Status      *domain.TicketStatus
	Device      *domain.DeviceInfo
}

// TicketListInput describes listing filters.
type TicketListInput struct {
	Status      *domain.TicketStatus
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Search      *string
	Page        int
	Limit       int
}

// TicketPage is a single page of results with totals.
type TicketPage struct {
	Items     []domain.Ticket
	Total     int
	Page      int
	PageCount int
}

// CreateTicket opens a new pending ticket. Only active users and IT
// persons raise tickets.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput, creatorID string) (*domain.Ticket, error) {
	creator, err := s.loadCaller(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	if !creator.Active {
		return nil, apperrors.NewForbidden("creator account deactivated")
	}
	if creator.Role != domain.RoleUser && creator.Role != domain.RoleItPerson {
		return nil, apperrors.NewForbidden("only users and IT persons create tickets")
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.NewValidationError("description required", nil)
	}

	var attachments []domain.Attachment
	if len(input.Attachments) > 0 && s.validator != nil {
		attachments, err = s.validator.Validate(input.Attachments)
		if err != nil {
			return nil, apperrors.NewValidationError("invalid attachments", map[string]any{"reason": err.Error()})
		}
	}

	ticket := &domain.Ticket{
		Description: description,
		Status:      domain.TicketStatusPending,
		Device:      input.Device,
		CreatedBy:   creator.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	for i := range attachments {
		attachments[i].TicketID = ticket.ID
		if err := s.attachments.Create(ctx, &attachments[i]); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	ticket.Attachments = attachments

	s.publish(ctx, events.Event{
		Type:    events.EventTicketCreated,
		ActorID: creator.ID,
		Payload: events.TicketCreatedPayload{TicketID: ticket.ID, CreatedBy: creator.ID},
	})
	return ticket, nil
}

// GetTicket returns the ticket with attachments when the caller may
// see it: users only their own, managers anything whose creator sits
// in their subtree.
func (s *TicketService) GetTicket(ctx context.Context, ticketID, callerID string) (*domain.Ticket, error) {
	caller, err := s.loadCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTicketAccess(ctx, caller, ticket); err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	ticket.Attachments = attachments
	return ticket, nil
}

// ListTickets returns the caller-scoped page, newest first. Users are
// scoped to their own tickets, everyone else to their whole subtree.
func (s *TicketService) ListTickets(ctx context.Context, callerID string, input TicketListInput) (*TicketPage, error) {
	caller, err := s.loadCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}

	page := input.Page
	if page < 1 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	filter := repository.TicketFilter{
		Status:      input.Status,
		CreatedFrom: input.CreatedFrom,
		SearchTerm:  input.Search,
		Limit:       limit,
		Offset:      (page - 1) * limit,
	}
	if input.CreatedTo != nil {
		to := endOfDay(*input.CreatedTo)
		filter.CreatedTo = &to
	}
	if authz.CanViewTickets(caller.Role) {
		filter.OwnerScopeID = &caller.ID
	} else {
		filter.CreatedBy = &caller.ID
	}

	items, total, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &TicketPage{
		Items:     items,
		Total:     total,
		Page:      page,
		PageCount: (total + limit - 1) / limit,
	}, nil
}

// UpdateTicket applies a partial update under the subtree ownership
// rules. Setting status to solved is restricted to IT persons, checked
// before ownership; a solved ticket never persists with empty notes,
// whether the close and the notes arrive together or the notes are
// edited later. Reopening carries no notes requirement. All checks run
// against the latest stored state.
func (s *TicketService) UpdateTicket(ctx context.Context, ticketID string, input TicketUpdateInput, updaterID string) (*domain.Ticket, error) {
	updater, err := s.loadCaller(ctx, updaterID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.NewValidationError("unknown ticket status", map[string]any{"status": *input.Status})
	}

	closing := input.Status != nil && *input.Status == domain.TicketStatusSolved
	if closing && updater.Role != domain.RoleItPerson {
		return nil, apperrors.NewForbidden("only IT persons close tickets")
	}

	if err := s.checkTicketAccess(ctx, updater, ticket); err != nil {
		return nil, err
	}

	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return nil, apperrors.NewValidationError("description cannot be empty", nil)
		}
		ticket.Description = description
	}
	if input.Notes != nil {
		ticket.Notes = strings.TrimSpace(*input.Notes)
	}
	if input.Device != nil {
		ticket.Device = *input.Device
	}

	oldStatus := ticket.Status
	if input.Status != nil {
		ticket.Status = *input.Status
	}
	// The invariant holds on the stored state, not just the close
	// request: a solved ticket never carries empty notes.
	if ticket.Status == domain.TicketStatusSolved && ticket.Notes == "" {
		return nil, apperrors.NewValidationError("notes required on solved tickets", nil)
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if input.Status != nil && oldStatus != ticket.Status {
		eventType := events.EventTicketClosed
		if ticket.Status == domain.TicketStatusPending {
			eventType = events.EventTicketReopened
		}
		s.publish(ctx, events.Event{
			Type:    eventType,
			ActorID: updater.ID,
			Payload: events.TicketStatusPayload{
				TicketID:  ticket.ID,
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
	}
	return ticket, nil
}

// AddAttachments appends validated attachments to an existing ticket,
// under the same access rule as updates.
func (s *TicketService) AddAttachments(ctx context.Context, ticketID string, inputs []AttachmentInput, callerID string) ([]domain.Attachment, error) {
	caller, err := s.loadCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTicketAccess(ctx, caller, ticket); err != nil {
		return nil, err
	}
	if s.validator == nil || len(inputs) == 0 {
		return nil, apperrors.NewValidationError("attachments required", nil)
	}
	attachments, err := s.validator.Validate(inputs)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid attachments", map[string]any{"reason": err.Error()})
	}
	for i := range attachments {
		attachments[i].TicketID = ticket.ID
		if err := s.attachments.Create(ctx, &attachments[i]); err != nil {
			return nil, apperrors.MapError(err)
		}
	}
	return attachments, nil
}

// checkTicketAccess enforces the scope rule: users see only tickets
// they created; managers see tickets whose creator chain carries them
// or that they created themselves.
func (s *TicketService) checkTicketAccess(ctx context.Context, caller *domain.Account, ticket *domain.Ticket) error {
	if ticket.CreatedBy == caller.ID {
		return nil
	}
	if !authz.CanViewTickets(caller.Role) {
		return apperrors.NewForbidden("ticket outside caller scope")
	}
	creator, err := s.accounts.GetByID(ctx, ticket.CreatedBy)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewForbidden("ticket outside caller scope")
		}
		return apperrors.MapError(err)
	}
	if !domain.Owns(caller, creator) {
		return apperrors.NewForbidden("ticket outside caller scope")
	}
	return nil
}

func (s *TicketService) loadCaller(ctx context.Context, id string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("caller", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return account, nil
}

func (s *TicketService) loadTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// endOfDay pushes the inclusive upper bound of a date filter to the
// last instant of that day.
func endOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
