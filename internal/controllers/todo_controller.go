package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/yata-app/yata-api/internal/middleware"
	"github.com/yata-app/yata-api/internal/models"
	"github.com/yata-app/yata-api/internal/services"
)

// TodoController serves the todo resource. The same handlers sit behind all
// three credential schemes; they only consume the resolved principal.
type TodoController struct {
	todos services.TodoService
}

func NewTodoController(todos services.TodoService) *TodoController {
	return &TodoController{todos: todos}
}

type todoRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// GetAllTodos returns the principal's todos, newest first.
func (tc *TodoController) GetAllTodos(c *gin.Context) {
	userID, ok := tc.resourceOwner(c)
	if !ok {
		return
	}

	todos, err := tc.todos.List(userID)
	if err != nil {
		log.WithError(err).Error("Failed to list todos")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to list todos"))
		return
	}

	c.JSON(http.StatusOK, todos)
}

// GetTodoByID returns a single todo owned by the principal.
func (tc *TodoController) GetTodoByID(c *gin.Context) {
	userID, ok := tc.resourceOwner(c)
	if !ok {
		return
	}

	todo, err := tc.todos.GetByID(c.Param("id"), userID)
	if err != nil {
		log.WithError(err).Error("Failed to load todo")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to load todo"))
		return
	}
	if todo == nil {
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "Todo not found"))
		return
	}

	c.JSON(http.StatusOK, todo)
}

// CreateTodo creates a todo owned by the principal.
func (tc *TodoController) CreateTodo(c *gin.Context) {
	userID, ok := tc.resourceOwner(c)
	if !ok {
		return
	}

	var req todoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, err.Error()))
		return
	}

	todo, err := tc.todos.Create(userID, req.Title, req.Description, req.Completed)
	if err != nil {
		log.WithError(err).Error("Failed to create todo")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to create todo"))
		return
	}

	c.JSON(http.StatusCreated, todo)
}

// UpdateTodo patches the provided fields of one of the principal's todos.
func (tc *TodoController) UpdateTodo(c *gin.Context) {
	userID, ok := tc.resourceOwner(c)
	if !ok {
		return
	}

	var update services.TodoUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, models.NewAPIError(models.ErrBadRequest, err.Error()))
		return
	}

	todo, err := tc.todos.Update(c.Param("id"), userID, update)
	if err != nil {
		log.WithError(err).Error("Failed to update todo")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to update todo"))
		return
	}
	if todo == nil {
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "Todo not found"))
		return
	}

	c.JSON(http.StatusOK, todo)
}

// DeleteTodo removes one of the principal's todos.
func (tc *TodoController) DeleteTodo(c *gin.Context) {
	userID, ok := tc.resourceOwner(c)
	if !ok {
		return
	}

	deleted, err := tc.todos.Delete(c.Param("id"), userID)
	if err != nil {
		log.WithError(err).Error("Failed to delete todo")
		c.JSON(http.StatusInternalServerError, models.NewAPIError(models.ErrInternalServer, "Failed to delete todo"))
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, models.NewAPIError(models.ErrNotFound, "Todo not found"))
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// resourceOwner resolves the user whose todos the principal may touch. An
// OAuth client without a resource-owner mapping has no todos to act on.
func (tc *TodoController) resourceOwner(c *gin.Context) (string, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.NewAPIError(models.ErrUnauthorized, "Not authenticated"))
		return "", false
	}

	if principal.UserID == "" {
		c.JSON(http.StatusForbidden, models.NewAPIError(models.ErrForbidden,
			"Client has no resource-owner mapping"))
		return "", false
	}
	return principal.UserID, true
}
