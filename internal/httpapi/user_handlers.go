package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type userUpdateRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// GET /v1/users/me
func (a *API) handleGetMe(c *gin.Context) {
	caller, _ := callerFrom(c)

	user, err := a.identity.Get(c.Request.Context(), caller.UserID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GET /v1/users/:id
//
// Public view: id and name only, no email, no permission flags.
func (a *API) handleGetUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := a.identity.Get(c.Request.Context(), userID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": user.ID, "name": user.Name})
}

// PUT /v1/users/:id
func (a *API) handleUpdateUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var in userUpdateRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request body"})
		return
	}

	caller, _ := callerFrom(c)

	user, err := a.identity.Update(c.Request.Context(), caller, userID, in.Name, in.Password)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DELETE /v1/users/:id
func (a *API) handleDeleteUser(c *gin.Context) {
	userID, ok := pathID(c, "id")
	if !ok {
		return
	}

	caller, _ := callerFrom(c)

	user, err := a.identity.Deactivate(c.Request.Context(), caller, userID)
	if err != nil {
		a.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "user disabled", "user": user})
}
