package repo

type Blob interface {
	// Upload сохраняет файл в объектное хранилище и возвращает публичный URL
	Upload(path string, raw []byte, contentType string) (string, error)
	// Remove удаляет файл из хранилища
	Remove(path string) error
}
