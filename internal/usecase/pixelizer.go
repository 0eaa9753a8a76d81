package usecase

import "errors"

// ErrNoImage возвращается, если внешний сервис не вернул изображение в ответе
var ErrNoImage = errors.New("no image in response")

type Pixelizer interface {
	// Pixelize отправляет фотографию (data URI) внешнему сервису и возвращает
	// стилизованный пиксель-арт портрет, тоже в виде data URI
	Pixelize(imageData string) (string, error)
}
