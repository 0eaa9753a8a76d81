package repo

import (
	"errors"

	"pixelcard-backend/internal/entity"
)

var ErrPixelCardNotFound = errors.New("pixel card not found")

type PixelCard interface {
	// Add вставляет запись метаданных и возвращает её вместе с присвоенным
	// идентификатором и временными метками
	Add(card *entity.PixelCard) (*entity.PixelCard, error)
	// Get возвращает карточку по идентификатору
	Get(id string) (*entity.PixelCard, error)
	// List возвращает страницу карточек (от новых к старым) и общее количество
	List(page int, limit int) ([]*entity.PixelCard, int, error)
	// ListByUserName — то же, что List, но с фильтром по точному имени владельца
	ListByUserName(name string, page int, limit int) ([]*entity.PixelCard, int, error)
	// Exists проверяет наличие карточки с таким идентификатором
	Exists(id string) (bool, error)
	// Recent возвращает n последних карточек
	Recent(n int) ([]*entity.PixelCard, error)
}
