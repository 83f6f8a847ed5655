package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

// fakeAccountRepo keeps accounts in memory and mirrors the SQL
// semantics the services depend on.
type fakeAccountRepo struct {
	accounts map[string]*domain.Account
	seq      int
	updates  int
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
}

func (f *fakeAccountRepo) add(account *domain.Account) *domain.Account {
	if account.ID == "" {
		f.seq++
		account.ID = fmt.Sprintf("acc-%d", f.seq)
	}
	copied := *account
	f.accounts[copied.ID] = &copied
	return account
}

func (f *fakeAccountRepo) Create(_ context.Context, account *domain.Account) error {
	f.seq++
	account.ID = fmt.Sprintf("acc-%d", f.seq)
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	copied := *account
	f.accounts[copied.ID] = &copied
	return nil
}

func (f *fakeAccountRepo) CreateWithinQuota(ctx context.Context, account *domain.Account, creatorID string, limit int) error {
	count, _ := f.CountActiveCreatedBy(ctx, creatorID)
	if count >= limit {
		return repository.ErrQuotaExceeded
	}
	return f.Create(ctx, account)
}

func (f *fakeAccountRepo) Update(_ context.Context, account *domain.Account) error {
	if _, ok := f.accounts[account.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.updates++
	account.UpdatedAt = time.Now()
	copied := *account
	f.accounts[copied.ID] = &copied
	return nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id string) (*domain.Account, error) {
	account, ok := f.accounts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *account
	return &copied, nil
}

func (f *fakeAccountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	for _, account := range f.accounts {
		if account.Username == username {
			copied := *account
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	for _, account := range f.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAccountRepo) FindIdentityConflict(_ context.Context, username, email string) (bool, bool, error) {
	var usernameTaken, emailTaken bool
	for _, account := range f.accounts {
		if account.Username == username {
			usernameTaken = true
		}
		if account.Email == email {
			emailTaken = true
		}
	}
	return usernameTaken, emailTaken, nil
}

func (f *fakeAccountRepo) CountActiveCreatedBy(_ context.Context, creatorID string) (int, error) {
	count := 0
	for _, account := range f.accounts {
		if account.Active && account.CreatedBy != nil && *account.CreatedBy == creatorID {
			count++
		}
	}
	return count, nil
}

func (f *fakeAccountRepo) CountActiveInSubtree(_ context.Context, ownerID string) (map[domain.Role]int, error) {
	counts := make(map[domain.Role]int)
	for _, account := range f.accounts {
		if account.Active && account.Chain.Contains(ownerID) {
			counts[account.Role]++
		}
	}
	return counts, nil
}

// fakeTicketRepo keeps tickets in memory. Subtree filters join through
// the account repo the same way the SQL does.
type fakeTicketRepo struct {
	tickets  map[string]*domain.Ticket
	accounts *fakeAccountRepo
	seq      int
}

func newFakeTicketRepo(accounts *fakeAccountRepo) *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.Ticket), accounts: accounts}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.seq++
	ticket.ID = fmt.Sprintf("tkt-%d", f.seq)
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = time.Now()
	}
	ticket.UpdatedAt = ticket.CreatedAt
	copied := *ticket
	f.tickets[copied.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := f.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = time.Now()
	copied := *ticket
	f.tickets[copied.ID] = &copied
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (f *fakeTicketRepo) matchesScope(ticket *domain.Ticket, ownerID string) bool {
	if ticket.CreatedBy == ownerID {
		return true
	}
	creator, ok := f.accounts.accounts[ticket.CreatedBy]
	if !ok {
		return false
	}
	return creator.Chain.Contains(ownerID)
}

// matchesSearch mirrors the SQL search clause: case-insensitive
// substring over description, id, creator username and creator email.
func (f *fakeTicketRepo) matchesSearch(ticket *domain.Ticket, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	haystacks := []string{ticket.Description, ticket.ID}
	if creator, ok := f.accounts.accounts[ticket.CreatedBy]; ok {
		haystacks = append(haystacks, creator.Username, creator.Email)
	}
	for _, h := range haystacks {
		if strings.Contains(strings.ToLower(h), term) {
			return true
		}
	}
	return false
}

func (f *fakeTicketRepo) ListWithFilter(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	var matched []domain.Ticket
	for _, ticket := range f.tickets {
		if filter.CreatedBy != nil && ticket.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.OwnerScopeID != nil && !f.matchesScope(ticket, *filter.OwnerScopeID) {
			continue
		}
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
			continue
		}
		if filter.CreatedTo != nil && ticket.CreatedAt.After(*filter.CreatedTo) {
			continue
		}
		if filter.SearchTerm != nil && *filter.SearchTerm != "" {
			if !f.matchesSearch(ticket, *filter.SearchTerm) {
				continue
			}
		}
		matched = append(matched, *ticket)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	if filter.Offset >= total {
		return nil, total, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return matched[filter.Offset:end], total, nil
}

func (f *fakeTicketRepo) CountInSubtree(_ context.Context, ownerID string, from, to *time.Time) (repository.TicketCounts, error) {
	var counts repository.TicketCounts
	for _, ticket := range f.tickets {
		if !f.matchesScope(ticket, ownerID) {
			continue
		}
		if from != nil && ticket.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && ticket.CreatedAt.After(*to) {
			continue
		}
		counts.Total++
		switch ticket.Status {
		case domain.TicketStatusPending:
			counts.Pending++
		case domain.TicketStatusSolved:
			counts.Solved++
		}
	}
	return counts, nil
}

func (f *fakeTicketRepo) ArchiveOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	moved := 0
	for id, ticket := range f.tickets {
		if ticket.CreatedAt.Before(cutoff) {
			delete(f.tickets, id)
			moved++
		}
	}
	return moved, nil
}

// fakeAttachmentRepo keeps attachments in memory.
type fakeAttachmentRepo struct {
	attachments map[string][]domain.Attachment
	seq         int
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: make(map[string][]domain.Attachment)}
}

func (f *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	f.seq++
	attachment.ID = fmt.Sprintf("att-%d", f.seq)
	attachment.CreatedAt = time.Now()
	f.attachments[attachment.TicketID] = append(f.attachments[attachment.TicketID], *attachment)
	return nil
}

func (f *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	return f.attachments[ticketID], nil
}

func strPtr(s string) *string { return &s }

// hierarchy bundles one account per role, chained owner → super admin
// → admin → IT person → user.
type hierarchy struct {
	Owner      *domain.Account
	SuperAdmin *domain.Account
	Admin      *domain.Account
	ItPerson   *domain.Account
	User       *domain.Account
}

func seedHierarchy(repo *fakeAccountRepo) hierarchy {
	owner := &domain.Account{
		ID:       "owner-1",
		Username: "root",
		Email:    "root@helpdesk.local",
		Role:     domain.RoleSystemOwner,
		Active:   true,
	}
	repo.add(owner)

	limit := 700
	bt := domain.BusinessMedium
	superAdmin := &domain.Account{
		ID:           "sa-1",
		Username:     "tenant",
		Email:        "tenant@helpdesk.local",
		Role:         domain.RoleSuperAdmin,
		Active:       true,
		Location:     "Oslo",
		CreatedBy:    &owner.ID,
		Chain:        domain.ChildChain(owner),
		BusinessType: &bt,
		AccountLimit: &limit,
	}
	repo.add(superAdmin)

	admin := &domain.Account{
		ID:        "adm-1",
		Username:  "admin",
		Email:     "admin@helpdesk.local",
		Role:      domain.RoleAdmin,
		Active:    true,
		CreatedBy: &superAdmin.ID,
		Chain:     domain.ChildChain(superAdmin),
	}
	repo.add(admin)

	itPerson := &domain.Account{
		ID:        "it-1",
		Username:  "techie",
		Email:     "techie@helpdesk.local",
		Role:      domain.RoleItPerson,
		Active:    true,
		CreatedBy: &admin.ID,
		Chain:     domain.ChildChain(admin),
	}
	repo.add(itPerson)

	user := &domain.Account{
		ID:        "usr-1",
		Username:  "enduser",
		Email:     "enduser@helpdesk.local",
		Role:      domain.RoleUser,
		Active:    true,
		CreatedBy: &itPerson.ID,
		Chain:     domain.ChildChain(itPerson),
	}
	repo.add(user)

	return hierarchy{Owner: owner, SuperAdmin: superAdmin, Admin: admin, ItPerson: itPerson, User: user}
}

