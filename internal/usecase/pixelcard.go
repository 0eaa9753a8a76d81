package usecase

import (
	"errors"
	"strings"

	"pixelcard-backend/internal/entity"
)

// Закрытый набор видов ошибок: delivery-слой ветвится по ним через errors.Is
var (
	ErrPixelCardNotFound = errors.New("pixel card not found")
	ErrInvalidID         = errors.New("invalid pixel card id")
	ErrStorage           = errors.New("storage error")
	ErrDatabase          = errors.New("database error")
	ErrNetwork           = errors.New("network error")
)

// ValidationError собирает все нарушения входных данных, найденные за один
// проход валидации
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

type PixelCard interface {
	// Add валидирует запрос, декодирует изображение, сохраняет файл в
	// хранилище и вставляет запись метаданных
	Add(request *entity.AddPixelCardRequest) (*entity.PixelCardResponse, error)
	// Generate прогоняет фотографию через генератор пиксель-арта,
	// после чего сохраняет результат как Add
	Generate(request *entity.AddPixelCardRequest) (*entity.PixelCardResponse, error)
	// Get возвращает карточку по идентификатору
	Get(id string) (*entity.PixelCardResponse, error)
	// List возвращает страницу галереи
	List(page *entity.Pagination) (*entity.PixelCardListResponse, error)
	// ListByUserName возвращает страницу галереи с фильтром по имени владельца
	ListByUserName(name string, page *entity.Pagination) (*entity.PixelCardListResponse, error)
	// Exists проверяет наличие карточки
	Exists(id string) (bool, error)
	// Recent возвращает n последних карточек
	Recent(n int) ([]*entity.PixelCardResponse, error)
}
