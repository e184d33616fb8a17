package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type createReservationRequest struct {
	BookID int64 `json:"bookId"`
}

// POST /v1/reservations
func (a *API) handleCreateReservation(c *gin.Context) {
	var in createReservationRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	caller, _ := callerFrom(c)

	created, err := a.reservations.Create(c.Request.Context(), caller.UserID, in.BookID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// POST /v1/reservations/:id/return
func (a *API) handleReturnReservation(c *gin.Context) {
	reservationID, ok := pathID(c, "id")
	if !ok {
		return
	}

	caller, _ := callerFrom(c)

	returned, err := a.reservations.Return(c.Request.Context(), caller, reservationID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, returned)
}

// GET /v1/reservations/book/:bookId
func (a *API) handleReservationsByBook(c *gin.Context) {
	bookID, ok := pathID(c, "bookId")
	if !ok {
		return
	}

	reservations, err := a.reservations.ListByBook(c.Request.Context(), bookID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reservations)
}

// GET /v1/reservations/user/:userId
func (a *API) handleReservationsByUser(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	caller, _ := callerFrom(c)

	reservations, err := a.reservations.ListByUser(c.Request.Context(), caller, userID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reservations)
}
