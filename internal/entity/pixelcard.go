package entity

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	// MaxUserNameLen ограничивает длину отображаемого имени владельца
	MaxUserNameLen = 50
	// MaxFileSize ограничивает размер декодированного изображения (10 МиБ)
	MaxFileSize = 10 << 20
)

const (
	MimeTypePNG  = "image/png"
	MimeTypeJPEG = "image/jpeg"
)

var (
	userNameRegexp  = regexp.MustCompile(`^[a-zA-Z0-9 \-_'.]+$`)
	imageDataRegexp = regexp.MustCompile(`^data:(image/(?:png|jpeg));base64,(.+)$`)
)

// IsAllowedMimeType проверяет, что тип файла входит в закрытый набор
// поддерживаемых типов
func IsAllowedMimeType(mimeType string) bool {
	return mimeType == MimeTypePNG || mimeType == MimeTypeJPEG
}

// PixelCard — сгенерированный пиксель-арт портрет вместе с метаданными
type PixelCard struct {
	ID        string
	UserName  string
	FilePath  string
	FileURL   string
	FileSize  int64
	MimeType  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PixelCardResponse — внешнее представление карточки. Не содержит путь в
// хранилище и тип файла: это внутренние детали
type PixelCardResponse struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	ImageURL  string    `json:"imageUrl"`
	CreatedAt time.Time `json:"createdAt"`
	FileSize  int64     `json:"fileSize"`
}

func (p *PixelCard) ToResponse() *PixelCardResponse {
	return &PixelCardResponse{
		ID:        p.ID,
		UserName:  p.UserName,
		ImageURL:  p.FileURL,
		CreatedAt: p.CreatedAt,
		FileSize:  p.FileSize,
	}
}

type AddPixelCardRequest struct {
	UserName  string `json:"userName"`
	ImageData string `json:"imageData"`
}

// Validate проверяет каждое поле независимо и собирает все нарушения разом,
// чтобы клиент мог показать полное объяснение за один проход
func (r *AddPixelCardRequest) Validate() []string {
	violations := ValidateUserName(r.UserName)
	return append(violations, ValidateImageData(r.ImageData)...)
}

// UpdatePixelCardRequest зарезервирован: карточки после создания не изменяются,
// ни одна операция этот запрос не принимает
type UpdatePixelCardRequest struct {
	UserName string `json:"userName"`
}

// ValidateUserName возвращает список нарушений для имени владельца.
// Пустой список означает, что имя корректно
func ValidateUserName(name string) []string {
	var violations []string
	if len(name) == 0 {
		violations = append(violations, "имя не может быть пустым")
		return violations
	}
	if len(name) > MaxUserNameLen {
		violations = append(violations, fmt.Sprintf("имя не может быть длиннее %d символов", MaxUserNameLen))
	}
	if !userNameRegexp.MatchString(name) {
		violations = append(violations, "имя содержит недопустимые символы (разрешены буквы, цифры, пробел, дефис, подчёркивание, апостроф и точка)")
	}
	return violations
}

// ValidateImageData возвращает список нарушений для изображения в формате
// data URI. Размер оценивается по base64 без декодирования буфера
func ValidateImageData(data string) []string {
	var violations []string
	if data == "" {
		violations = append(violations, "изображение не может быть пустым")
		return violations
	}
	matches := imageDataRegexp.FindStringSubmatch(data)
	if matches == nil {
		violations = append(violations, "изображение должно быть data URI вида data:image/(png|jpeg);base64,...")
		return violations
	}
	if EstimateBase64Size(matches[2]) > MaxFileSize {
		violations = append(violations, fmt.Sprintf("размер изображения превышает %d МиБ", MaxFileSize>>20))
	}
	return violations
}

// EstimateBase64Size оценивает длину декодированных данных: floor(L*3/4) минус
// количество хвостовых символов '='
func EstimateBase64Size(encoded string) int64 {
	padding := int64(len(encoded) - len(strings.TrimRight(encoded, "=")))
	return int64(len(encoded))*3/4 - padding
}

// ParseImageDataURI извлекает тип файла и декодирует содержимое data URI
func ParseImageDataURI(data string) (string, []byte, error) {
	matches := imageDataRegexp.FindStringSubmatch(data)
	if matches == nil {
		return "", nil, errors.New("изображение должно быть data URI вида data:image/(png|jpeg);base64,...")
	}
	raw, err := base64.StdEncoding.DecodeString(matches[2])
	if err != nil {
		return "", nil, fmt.Errorf("некорректная base64 кодировка: %v", err)
	}
	return matches[1], raw, nil
}

// ToImageDataURI собирает data URI из типа файла и сырых байтов
func ToImageDataURI(mimeType string, raw []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(raw))
}
