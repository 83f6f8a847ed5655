package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// CreateAccountRequest payload for provisioning accounts.
type CreateAccountRequest struct {
	Role         domain.Role          `json:"role" validate:"required"`
	Username     string               `json:"username" validate:"required,min=3"`
	Email        string               `json:"email" validate:"required,email"`
	Password     string               `json:"password" validate:"required,min=8"`
	Location     string               `json:"location"`
	BusinessType *domain.BusinessType `json:"business_type,omitempty"`
	ExpiryDate   *time.Time           `json:"expiry_date,omitempty"`
}

// ToInput converts the request to the service input shape.
func (r CreateAccountRequest) ToInput() service.CreateAccountInput {
	return service.CreateAccountInput{
		Role:         r.Role,
		Username:     r.Username,
		Email:        r.Email,
		Password:     r.Password,
		Location:     r.Location,
		BusinessType: r.BusinessType,
		ExpiryDate:   r.ExpiryDate,
	}
}

// UpdateAccountRequest payload for partial updates. Absent fields are
// left untouched.
type UpdateAccountRequest struct {
	Username     *string              `json:"username,omitempty" validate:"omitempty,min=3"`
	Email        *string              `json:"email,omitempty" validate:"omitempty,email"`
	Location     *string              `json:"location,omitempty"`
	BusinessType *domain.BusinessType `json:"business_type,omitempty"`
	ExpiryDate   *time.Time           `json:"expiry_date,omitempty"`
}

// ToInput converts the request to the service input shape.
func (r UpdateAccountRequest) ToInput() service.UpdateAccountInput {
	return service.UpdateAccountInput{
		Username:     r.Username,
		Email:        r.Email,
		Location:     r.Location,
		BusinessType: r.BusinessType,
		ExpiryDate:   r.ExpiryDate,
	}
}

// OwnerChainResponse mirrors the ancestry slots of an account.
type OwnerChainResponse struct {
	SystemOwnerID *string `json:"system_owner_id,omitempty"`
	SuperAdminID  *string `json:"super_admin_id,omitempty"`
	AdminID       *string `json:"admin_id,omitempty"`
	ItPersonID    *string `json:"it_person_id,omitempty"`
}

// AccountResponse is the wire shape of an account. Credentials never
// appear here.
type AccountResponse struct {
	ID           string               `json:"id"`
	Username     string               `json:"username"`
	Email        string               `json:"email"`
	Role         domain.Role          `json:"role"`
	Active       bool                 `json:"active"`
	Location     string               `json:"location,omitempty"`
	CreatedBy    *string              `json:"created_by,omitempty"`
	Chain        OwnerChainResponse   `json:"owner_chain"`
	BusinessType *domain.BusinessType `json:"business_type,omitempty"`
	AccountLimit *int                 `json:"account_limit,omitempty"`
	ExpiryDate   *time.Time           `json:"expiry_date,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// NewAccountResponse maps a domain account to the wire shape.
func NewAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		Role:      account.Role,
		Active:    account.Active,
		Location:  account.Location,
		CreatedBy: account.CreatedBy,
		Chain: OwnerChainResponse{
			SystemOwnerID: account.Chain.SystemOwnerID,
			SuperAdminID:  account.Chain.SuperAdminID,
			AdminID:       account.Chain.AdminID,
			ItPersonID:    account.Chain.ItPersonID,
		},
		BusinessType: account.BusinessType,
		AccountLimit: account.AccountLimit,
		ExpiryDate:   account.ExpiryDate,
		CreatedAt:    account.CreatedAt,
		UpdatedAt:    account.UpdatedAt,
	}
}
