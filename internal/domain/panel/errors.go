package panel

import "github.com/procurement/backoffice/internal/domain/shared"

// Panel errors
var (
	ErrUnknownResource  = shared.NewDomainError("UNKNOWN_RESOURCE", "Resource is not registered in the panel")
	ErrPageNotFound     = shared.NewDomainError("PAGE_NOT_FOUND", "Resource does not have this page")
	ErrActionNotAllowed = shared.NewDomainError("ACTION_NOT_ALLOWED", "Action is not available for this resource")
)
