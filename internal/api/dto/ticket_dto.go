package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// DeviceInfoRequest describes the reporting device.
type DeviceInfoRequest struct {
	IPAddress   string `json:"ip_address" validate:"required,ip"`
	DeviceName  string `json:"device_name" validate:"required"`
	AlternateIP string `json:"alternate_ip,omitempty" validate:"omitempty,ip"`
}

// AttachmentRequest describes attachment metadata supplied on create.
type AttachmentRequest struct {
	Name     string  `json:"name" validate:"required"`
	URL      string  `json:"url" validate:"required,url"`
	FileType *string `json:"file_type,omitempty"`
}

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Description string              `json:"description" validate:"required"`
	Device      DeviceInfoRequest   `json:"device" validate:"required"`
	Attachments []AttachmentRequest `json:"attachments,omitempty" validate:"omitempty,dive"`
}

// ToInput converts the request to the service input shape.
func (r CreateTicketRequest) ToInput() service.TicketCreateInput {
	return service.TicketCreateInput{
		Description: r.Description,
		Device: domain.DeviceInfo{
			IPAddress:   r.Device.IPAddress,
			DeviceName:  r.Device.DeviceName,
			AlternateIP: r.Device.AlternateIP,
		},
		Attachments: toAttachmentInputs(r.Attachments),
	}
}

// UpdateTicketRequest payload for partial updates.
type UpdateTicketRequest struct {
	Description *string              `json:"description,omitempty"`
	Notes       *string              `json:"notes,omitempty"`
	Status      *domain.TicketStatus `json:"status,omitempty"`
	Device      *DeviceInfoRequest   `json:"device,omitempty"`
}

// ToInput converts the request to the service input shape.
func (r UpdateTicketRequest) ToInput() service.TicketUpdateInput {
	input := service.TicketUpdateInput{
		Description: r.Description,
		Notes:       r.Notes,
		Status:      r.Status,
	}
	if r.Device != nil {
		input.Device = &domain.DeviceInfo{
			IPAddress:   r.Device.IPAddress,
			DeviceName:  r.Device.DeviceName,
			AlternateIP: r.Device.AlternateIP,
		}
	}
	return input
}

// CloseTicketRequest payload for resolving a ticket.
type CloseTicketRequest struct {
	Notes string `json:"notes" validate:"required"`
}

// AddAttachmentsRequest payload.
type AddAttachmentsRequest struct {
	Attachments []AttachmentRequest `json:"attachments" validate:"required,min=1,dive"`
}

func toAttachmentInputs(reqs []AttachmentRequest) []service.AttachmentInput {
	if len(reqs) == 0 {
		return nil
	}
	inputs := make([]service.AttachmentInput, 0, len(reqs))
	for _, a := range reqs {
		inputs = append(inputs, service.AttachmentInput{Name: a.Name, URL: a.URL, FileType: a.FileType})
	}
	return inputs
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	FileType  *string   `json:"file_type,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID          string               `json:"id"`
	Description string               `json:"description"`
	Status      domain.TicketStatus  `json:"status"`
	Notes       string               `json:"notes,omitempty"`
	IPAddress   string               `json:"ip_address"`
	DeviceName  string               `json:"device_name"`
	AlternateIP string               `json:"alternate_ip,omitempty"`
	CreatedBy   string               `json:"created_by"`
	Attachments []AttachmentResponse `json:"attachments"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// NewTicketResponse maps a domain ticket to the wire shape.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	attachments := make([]AttachmentResponse, 0, len(ticket.Attachments))
	for i := range ticket.Attachments {
		attachments = append(attachments, NewAttachmentResponse(&ticket.Attachments[i]))
	}
	return TicketResponse{
		ID:          ticket.ID,
		Description: ticket.Description,
		Status:      ticket.Status,
		Notes:       ticket.Notes,
		IPAddress:   ticket.Device.IPAddress,
		DeviceName:  ticket.Device.DeviceName,
		AlternateIP: ticket.Device.AlternateIP,
		CreatedBy:   ticket.CreatedBy,
		Attachments: attachments,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewAttachmentResponse maps attachment metadata to the wire shape.
func NewAttachmentResponse(attachment *domain.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:        attachment.ID,
		Name:      attachment.Name,
		URL:       attachment.URL,
		FileType:  attachment.FileType,
		CreatedAt: attachment.CreatedAt,
	}
}

// TicketPageResponse is a page of tickets with totals.
type TicketPageResponse struct {
	Items     []TicketResponse `json:"items"`
	Total     int              `json:"total"`
	Page      int              `json:"page"`
	PageCount int              `json:"page_count"`
}

// NewTicketPageResponse maps a service page to the wire shape.
func NewTicketPageResponse(page *service.TicketPage) TicketPageResponse {
	items := make([]TicketResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, NewTicketResponse(&page.Items[i]))
	}
	return TicketPageResponse{
		Items:     items,
		Total:     page.Total,
		Page:      page.Page,
		PageCount: page.PageCount,
	}
}
