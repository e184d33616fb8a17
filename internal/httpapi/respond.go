package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shelfward/shelfward/internal/domain"
	"github.com/shelfward/shelfward/internal/identity"
)

const logMsgInternalError = "request failed with internal error"

// respondError maps a service error to a status class and a single
// descriptive message. Infrastructure errors are logged and surfaced as an
// opaque 500 so storage detail never leaks to clients.
func (a *API) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrBookInactive),
		errors.Is(err, domain.ErrBookUnavailable),
		errors.Is(err, domain.ErrNothingToUpdate):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})

	case errors.Is(err, domain.ErrBookNotFound),
		errors.Is(err, domain.ErrReservationNotFound),
		errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})

	case errors.Is(err, domain.ErrEmailAlreadyInUse),
		errors.Is(err, domain.ErrReservationAlreadyClosed):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})

	case errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, identity.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"message": err.Error()})

	case errors.Is(err, domain.ErrForbidden),
		errors.Is(err, domain.ErrUserDisabled):
		c.JSON(http.StatusForbidden, gin.H{"message": err.Error()})

	default:
		if a.logger != nil {
			a.logger.Error(logMsgInternalError, "error", err.Error(), "path", c.FullPath())
		}

		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}
