package services

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yata-app/yata-api/internal/models"
)

// TodoUpdate carries the mutable todo fields; nil means "leave unchanged".
type TodoUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type TodoService interface {
	List(userID string) ([]models.Todo, error)
	GetByID(todoID, userID string) (*models.Todo, error)
	Create(userID, title, description string, completed bool) (*models.Todo, error)
	Update(todoID, userID string, update TodoUpdate) (*models.Todo, error)
	Delete(todoID, userID string) (bool, error)
}

type todoService struct {
	db *gorm.DB
}

func NewTodoService(db *gorm.DB) TodoService {
	return &todoService{db: db}
}

func (s *todoService) List(userID string) ([]models.Todo, error) {
	var todos []models.Todo
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&todos).Error; err != nil {
		return nil, err
	}
	return todos, nil
}

func (s *todoService) GetByID(todoID, userID string) (*models.Todo, error) {
	var todo models.Todo
	err := s.db.Where("id = ? AND user_id = ?", todoID, userID).First(&todo).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (s *todoService) Create(userID, title, description string, completed bool) (*models.Todo, error) {
	todo := &models.Todo{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Completed:   completed,
	}
	if err := s.db.Create(todo).Error; err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) Update(todoID, userID string, update TodoUpdate) (*models.Todo, error) {
	todo, err := s.GetByID(todoID, userID)
	if err != nil || todo == nil {
		return nil, err
	}

	if update.Title != nil {
		todo.Title = *update.Title
	}
	if update.Description != nil {
		todo.Description = *update.Description
	}
	if update.Completed != nil {
		todo.Completed = *update.Completed
	}

	if err := s.db.Save(todo).Error; err != nil {
		return nil, err
	}
	return todo, nil
}

func (s *todoService) Delete(todoID, userID string) (bool, error) {
	result := s.db.Where("id = ? AND user_id = ?", todoID, userID).Delete(&models.Todo{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
