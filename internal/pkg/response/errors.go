package response

import (
	"errors"

	"github.com/cargoport/core/internal/pkg/faults"
	"github.com/gin-gonic/gin"
)

// FromError maps the shared error taxonomy onto HTTP responses. Remote
// unavailability keeps its structured remediation payload; everything else
// degrades to the matching status code.
func FromError(c *gin.Context, err error) {
	switch {
	case faults.IsValidation(err):
		UnprocessableEntity(c, err.Error())
	case faults.IsNotFound(err):
		NotFound(c)
	case faults.IsUnavailable(err):
		var ue *faults.UnavailableError
		errors.As(err, &ue)
		BadGateway(c, ue.Reason, gin.H{
			"remediation": ue.Remediation,
			"attempts":    ue.Attempts,
		})
	default:
		InternalError(c, err)
	}
}
