package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/labstack/gommon/log"

	"pixelcard-backend/internal/entity"
	"pixelcard-backend/internal/repo"
	"pixelcard-backend/internal/usecase"
)

type PixelCard struct {
	pixelCardRepo repo.PixelCard
	blobRepo      repo.Blob
	pixelizer     usecase.Pixelizer
}

func NewPixelCard(pixelCardRepo repo.PixelCard, blobRepo repo.Blob, pixelizer usecase.Pixelizer) usecase.PixelCard {
	return &PixelCard{
		pixelCardRepo: pixelCardRepo,
		blobRepo:      blobRepo,
		pixelizer:     pixelizer,
	}
}

// Add выполняет цепочку сохранения. Каждый шаг открывает дорогу следующему:
// при ошибке цепочка прерывается, а вид ошибки говорит, какой шаг не прошёл
func (p *PixelCard) Add(request *entity.AddPixelCardRequest) (*entity.PixelCardResponse, error) {
	// 1. валидация запроса целиком, без остановки на первом нарушении
	if violations := request.Validate(); len(violations) > 0 {
		return nil, &usecase.ValidationError{Violations: violations}
	}

	// 2. декодирование data URI
	mimeType, raw, err := entity.ParseImageDataURI(request.ImageData)
	if err != nil {
		return nil, &usecase.ValidationError{Violations: []string{err.Error()}}
	}
	if len(raw) == 0 {
		return nil, &usecase.ValidationError{Violations: []string{"изображение не содержит данных"}}
	}
	if int64(len(raw)) > entity.MaxFileSize {
		return nil, &usecase.ValidationError{
			Violations: []string{fmt.Sprintf("размер изображения превышает %d МиБ", entity.MaxFileSize>>20)},
		}
	}
	// содержимое должно соответствовать типу, заявленному в префиксе
	if detected := mimetype.Detect(raw); !detected.Is(mimeType) {
		return nil, &usecase.ValidationError{
			Violations: []string{fmt.Sprintf("содержимое файла (%s) не соответствует заявленному типу %s", detected.String(), mimeType)},
		}
	}

	// 3. уникальное имя файла + путь, разбитый по году/месяцу
	filePath := newFilePath(mimeType, time.Now().UTC())

	// 4. загрузка в объектное хранилище
	fileURL, err := p.blobRepo.Upload(filePath, raw, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: загрузка файла %s: %v", usecase.ErrStorage, filePath, err)
	}

	// 5. запись метаданных
	card, err := p.pixelCardRepo.Add(&entity.PixelCard{
		UserName: request.UserName,
		FilePath: filePath,
		FileURL:  fileURL,
		FileSize: int64(len(raw)),
		MimeType: mimeType,
	})
	if err != nil {
		// чистим уже загруженный файл, чтобы не копить осиротевшие объекты
		if removeErr := p.blobRepo.Remove(filePath); removeErr != nil {
			log.Errorf("не удалось удалить файл %s после неудачной вставки метаданных: %v", filePath, removeErr)
		}
		return nil, fmt.Errorf("%w: сохранение метаданных: %v", usecase.ErrDatabase, err)
	}

	// 6. внешнее представление
	return card.ToResponse(), nil
}

func (p *PixelCard) Generate(request *entity.AddPixelCardRequest) (*entity.PixelCardResponse, error) {
	if violations := request.Validate(); len(violations) > 0 {
		return nil, &usecase.ValidationError{Violations: violations}
	}
	pixelized, err := p.pixelizer.Pixelize(request.ImageData)
	if err != nil {
		if errors.Is(err, usecase.ErrNoImage) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: генерация пиксель-арта: %v", usecase.ErrNetwork, err)
	}
	return p.Add(&entity.AddPixelCardRequest{
		UserName:  request.UserName,
		ImageData: pixelized,
	})
}

func (p *PixelCard) Get(id string) (*entity.PixelCardResponse, error) {
	// формат идентификатора проверяем до похода в базу
	if _, err := uuid.Parse(id); err != nil {
		return nil, usecase.ErrInvalidID
	}
	card, err := p.pixelCardRepo.Get(id)
	switch {
	case errors.Is(err, repo.ErrPixelCardNotFound):
		return nil, usecase.ErrPixelCardNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: чтение карточки %s: %v", usecase.ErrDatabase, id, err)
	}
	return card.ToResponse(), nil
}

func (p *PixelCard) List(page *entity.Pagination) (*entity.PixelCardListResponse, error) {
	page.Normalize()
	cards, total, err := p.pixelCardRepo.List(page.Page, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: чтение галереи: %v", usecase.ErrDatabase, err)
	}
	return listResponse(cards, total, page), nil
}

func (p *PixelCard) ListByUserName(name string, page *entity.Pagination) (*entity.PixelCardListResponse, error) {
	page.Normalize()
	cards, total, err := p.pixelCardRepo.ListByUserName(name, page.Page, page.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: чтение галереи пользователя %s: %v", usecase.ErrDatabase, name, err)
	}
	return listResponse(cards, total, page), nil
}

func (p *PixelCard) Exists(id string) (bool, error) {
	// синтаксически неверный идентификатор точно не существует
	if _, err := uuid.Parse(id); err != nil {
		return false, nil
	}
	exists, err := p.pixelCardRepo.Exists(id)
	if err != nil {
		return false, fmt.Errorf("%w: проверка наличия карточки %s: %v", usecase.ErrDatabase, id, err)
	}
	return exists, nil
}

func (p *PixelCard) Recent(n int) ([]*entity.PixelCardResponse, error) {
	if n < 1 {
		n = entity.DefaultLimit
	}
	if n > entity.MaxLimit {
		n = entity.MaxLimit
	}
	cards, err := p.pixelCardRepo.Recent(n)
	if err != nil {
		return nil, fmt.Errorf("%w: чтение последних карточек: %v", usecase.ErrDatabase, err)
	}
	responses := make([]*entity.PixelCardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, card.ToResponse())
	}
	return responses, nil
}

// newFilePath собирает путь вида 2025/01/<uuid>.png — раскладка по
// году и месяцу, чтобы в бакете не рос один плоский каталог
func newFilePath(mimeType string, now time.Time) string {
	extension := "png"
	if mimeType == entity.MimeTypeJPEG {
		extension = "jpg"
	}
	return fmt.Sprintf("%04d/%02d/%s.%s", now.Year(), int(now.Month()), uuid.New().String(), extension)
}

func listResponse(cards []*entity.PixelCard, total int, page *entity.Pagination) *entity.PixelCardListResponse {
	responses := make([]*entity.PixelCardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, card.ToResponse())
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + page.Limit - 1) / page.Limit
	}
	return &entity.PixelCardListResponse{
		PixelCards: responses,
		Pagination: entity.PaginationResponse{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}
}
