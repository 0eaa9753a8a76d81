package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"pixelcard-backend/internal/entity"
	"pixelcard-backend/internal/repo"
	"pixelcard-backend/internal/usecase"
)

// pngDataURI собирает корректный data URI с настоящей PNG-сигнатурой,
// чтобы проверка содержимого по magic-байтам проходила
func pngDataURI(payloadLen int) string {
	raw := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, payloadLen)...)
	return entity.ToImageDataURI(entity.MimeTypePNG, raw)
}

type fakePixelCardRepo struct {
	addFunc    func(card *entity.PixelCard) (*entity.PixelCard, error)
	getFunc    func(id string) (*entity.PixelCard, error)
	listFunc   func(page, limit int) ([]*entity.PixelCard, int, error)
	existsFunc func(id string) (bool, error)
	recentN    int
	added      []*entity.PixelCard
}

func (f *fakePixelCardRepo) Add(card *entity.PixelCard) (*entity.PixelCard, error) {
	f.added = append(f.added, card)
	if f.addFunc != nil {
		return f.addFunc(card)
	}
	inserted := *card
	inserted.ID = "a2cfc713-5b92-4f3a-b9a5-6d2fbb5e42c1"
	inserted.CreatedAt = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	inserted.UpdatedAt = inserted.CreatedAt
	return &inserted, nil
}

func (f *fakePixelCardRepo) Get(id string) (*entity.PixelCard, error) {
	if f.getFunc != nil {
		return f.getFunc(id)
	}
	return nil, repo.ErrPixelCardNotFound
}

func (f *fakePixelCardRepo) List(page, limit int) ([]*entity.PixelCard, int, error) {
	if f.listFunc != nil {
		return f.listFunc(page, limit)
	}
	return []*entity.PixelCard{}, 0, nil
}

func (f *fakePixelCardRepo) ListByUserName(name string, page, limit int) ([]*entity.PixelCard, int, error) {
	return f.List(page, limit)
}

func (f *fakePixelCardRepo) Exists(id string) (bool, error) {
	if f.existsFunc != nil {
		return f.existsFunc(id)
	}
	return false, nil
}

func (f *fakePixelCardRepo) Recent(n int) ([]*entity.PixelCard, error) {
	f.recentN = n
	return []*entity.PixelCard{}, nil
}

type fakeBlobRepo struct {
	uploadErr error
	uploads   []string
	removed   []string
}

func (f *fakeBlobRepo) Upload(path string, raw []byte, contentType string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, path)
	return "http://localhost:9000/pixelcards/" + path, nil
}

func (f *fakeBlobRepo) Remove(path string) error {
	f.removed = append(f.removed, path)
	return nil
}

type fakePixelizer struct {
	result string
	err    error
	calls  int
}

func (f *fakePixelizer) Pixelize(imageData string) (string, error) {
	f.calls++
	return f.result, f.err
}

func newTestService() (*fakePixelCardRepo, *fakeBlobRepo, *fakePixelizer, usecase.PixelCard) {
	cardRepo := &fakePixelCardRepo{}
	blobRepo := &fakeBlobRepo{}
	pixelizer := &fakePixelizer{}
	return cardRepo, blobRepo, pixelizer, NewPixelCard(cardRepo, blobRepo, pixelizer)
}

func TestAddAggregatesViolations(t *testing.T) {
	cardRepo, blobRepo, _, pixelCards := newTestService()
	_, err := pixelCards.Add(&entity.AddPixelCardRequest{UserName: "", ImageData: "not-a-data-uri"})
	var validationErr *usecase.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("ожидали ValidationError, получили %v", err)
	}
	if len(validationErr.Violations) < 2 {
		t.Errorf("Violations = %v, ожидали нарушения по обоим полям", validationErr.Violations)
	}
	if len(blobRepo.uploads) != 0 || len(cardRepo.added) != 0 {
		t.Error("невалидный запрос не должен доходить до хранилища и базы")
	}
}

func TestAddRejectsOversizeImage(t *testing.T) {
	_, blobRepo, _, pixelCards := newTestService()
	// декодируется в чуть больше 10 МиБ
	oversize := "data:image/png;base64," + strings.Repeat("AAAA", (entity.MaxFileSize/3)+1)
	_, err := pixelCards.Add(&entity.AddPixelCardRequest{UserName: "Alice", ImageData: oversize})
	var validationErr *usecase.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("ожидали ValidationError, получили %v", err)
	}
	if len(blobRepo.uploads) != 0 {
		t.Error("изображение сверх лимита не должно доходить до загрузки")
	}
}

func TestAddRejectsMismatchedContent(t *testing.T) {
	_, blobRepo, _, pixelCards := newTestService()
	// заявлен png, а содержимое — обычный текст
	_, err := pixelCards.Add(&entity.AddPixelCardRequest{
		UserName:  "Alice",
		ImageData: "data:image/png;base64,aGVsbG8gd29ybGQ=",
	})
	var validationErr *usecase.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("ожидали ValidationError, получили %v", err)
	}
	if len(blobRepo.uploads) != 0 {
		t.Error("файл с подменённым типом не должен доходить до загрузки")
	}
}

func TestAddStorageFailureStopsInsert(t *testing.T) {
	cardRepo, blobRepo, _, pixelCards := newTestService()
	blobRepo.uploadErr = errors.New("bucket unavailable")
	_, err := pixelCards.Add(&entity.AddPixelCardRequest{UserName: "Alice", ImageData: pngDataURI(64)})
	if !errors.Is(err, usecase.ErrStorage) {
		t.Fatalf("ожидали ErrStorage, получили %v", err)
	}
	if len(cardRepo.added) != 0 {
		t.Error("после ошибки загрузки вставка метаданных не должна выполняться")
	}
}

func TestAddInsertFailureRemovesBlob(t *testing.T) {
	cardRepo, blobRepo, _, pixelCards := newTestService()
	cardRepo.addFunc = func(card *entity.PixelCard) (*entity.PixelCard, error) {
		return nil, errors.New("insert failed")
	}
	_, err := pixelCards.Add(&entity.AddPixelCardRequest{UserName: "Alice", ImageData: pngDataURI(64)})
	if !errors.Is(err, usecase.ErrDatabase) {
		t.Fatalf("ожидали ErrDatabase, получили %v", err)
	}
	if len(blobRepo.removed) != 1 {
		t.Fatalf("removed = %v, ожидали удаление одного загруженного файла", blobRepo.removed)
	}
	if blobRepo.removed[0] != blobRepo.uploads[0] {
		t.Errorf("удалён %s, а загружен %s", blobRepo.removed[0], blobRepo.uploads[0])
	}
}

func TestAddSuccess(t *testing.T) {
	cardRepo, _, _, pixelCards := newTestService()
	response, err := pixelCards.Add(&entity.AddPixelCardRequest{UserName: "Alice", ImageData: pngDataURI(64)})
	if err != nil {
		t.Fatalf("Add вернула ошибку: %v", err)
	}
	if response.ID == "" {
		t.Error("в ответе отсутствует идентификатор")
	}
	if response.UserName != "Alice" {
		t.Errorf("UserName = %q, ожидали %q", response.UserName, "Alice")
	}
	if response.FileSize != 8+64 {
		t.Errorf("FileSize = %d, ожидали %d", response.FileSize, 8+64)
	}
	if response.ImageURL == "" {
		t.Error("в ответе отсутствует URL изображения")
	}
	if len(cardRepo.added) != 1 {
		t.Fatalf("ожидали одну вставку, получили %d", len(cardRepo.added))
	}
	card := cardRepo.added[0]
	if card.MimeType != entity.MimeTypePNG {
		t.Errorf("MimeType = %q, ожидали %q", card.MimeType, entity.MimeTypePNG)
	}
	if !strings.HasSuffix(card.FilePath, ".png") {
		t.Errorf("FilePath = %q, ожидали расширение .png", card.FilePath)
	}
}

func TestGenerate(t *testing.T) {
	cardRepo, _, pixelizer, pixelCards := newTestService()
	pixelizer.result = pngDataURI(32)
	response, err := pixelCards.Generate(&entity.AddPixelCardRequest{UserName: "Alice", ImageData: pngDataURI(64)})
	if err != nil {
		t.Fatalf("Generate вернула ошибку: %v", err)
	}
	if pixelizer.calls != 1 {
		t.Errorf("Pixelize вызван %d раз, ожидали 1", pixelizer.calls)
	}
	// сохраняется результат генерации, а не исходная фотография
	if response.FileSize != 8+32 {
		t.Errorf("FileSize = %d, ожидали %d", response.FileSize, 8+32)
	}
	if len(cardRepo.added) != 1 {
		t.Fatalf("ожидали одну вставку, получили %d", len(cardRepo.added))
	}
}

func TestGenerateValidatesBeforePixelize(t *testing.T) {
	_, _, pixelizer, pixelCards := newTestService()
	_, err := pixelCards.Generate(&entity.AddPixelCardRequest{UserName: "", ImageData: "bad"})
	var validationErr *usecase.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("ожидали ValidationError, получили %v", err)
	}
	if pixelizer.calls != 0 {
		t.Error("невалидный запрос не должен доходить до сервиса генерации")
	}
}

func TestGenerateNetworkFailure(t *testing.T) {
	_, _, pixelizer, pixelCards := newTestService()
	pixelizer.err = errors.New("connection refused")
	_, err := pixelCards.Generate(&entity.AddPixelCardRequest{UserName: "Alice", ImageData: pngDataURI(64)})
	if !errors.Is(err, usecase.ErrNetwork) {
		t.Fatalf("ожидали ErrNetwork, получили %v", err)
	}
}

func TestGenerateNoImage(t *testing.T) {
	_, _, pixelizer, pixelCards := newTestService()
	pixelizer.err = usecase.ErrNoImage
	_, err := pixelCards.Generate(&entity.AddPixelCardRequest{UserName: "Alice", ImageData: pngDataURI(64)})
	if !errors.Is(err, usecase.ErrNoImage) {
		t.Fatalf("ожидали ErrNoImage, получили %v", err)
	}
}

func TestGetInvalidID(t *testing.T) {
	cardRepo, _, _, pixelCards := newTestService()
	cardRepo.getFunc = func(id string) (*entity.PixelCard, error) {
		t.Fatal("репозиторий не должен вызываться для неверного идентификатора")
		return nil, nil
	}
	_, err := pixelCards.Get("not-a-uuid")
	if !errors.Is(err, usecase.ErrInvalidID) {
		t.Fatalf("ожидали ErrInvalidID, получили %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	_, _, _, pixelCards := newTestService()
	_, err := pixelCards.Get("a2cfc713-5b92-4f3a-b9a5-6d2fbb5e42c1")
	if !errors.Is(err, usecase.ErrPixelCardNotFound) {
		t.Fatalf("ожидали ErrPixelCardNotFound, получили %v", err)
	}
}

func TestGetDatabaseFailure(t *testing.T) {
	cardRepo, _, _, pixelCards := newTestService()
	cardRepo.getFunc = func(id string) (*entity.PixelCard, error) {
		return nil, errors.New("connection reset")
	}
	_, err := pixelCards.Get("a2cfc713-5b92-4f3a-b9a5-6d2fbb5e42c1")
	if !errors.Is(err, usecase.ErrDatabase) {
		t.Fatalf("ожидали ErrDatabase, получили %v", err)
	}
}

func TestListEmpty(t *testing.T) {
	_, _, _, pixelCards := newTestService()
	response, err := pixelCards.List(&entity.Pagination{Page: 1, Limit: 12})
	if err != nil {
		t.Fatalf("List вернула ошибку: %v", err)
	}
	if len(response.PixelCards) != 0 {
		t.Errorf("PixelCards = %v, ожидали пустой список", response.PixelCards)
	}
	want := entity.PaginationResponse{Page: 1, Limit: 12, Total: 0, TotalPages: 0}
	if response.Pagination != want {
		t.Errorf("Pagination = %+v, ожидали %+v", response.Pagination, want)
	}
}

func TestListTotalPages(t *testing.T) {
	cardRepo, _, _, pixelCards := newTestService()
	cardRepo.listFunc = func(page, limit int) ([]*entity.PixelCard, int, error) {
		return []*entity.PixelCard{}, 25, nil
	}
	response, err := pixelCards.List(&entity.Pagination{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("List вернула ошибку: %v", err)
	}
	if response.Pagination.TotalPages != 3 {
		t.Errorf("TotalPages = %d, ожидали 3", response.Pagination.TotalPages)
	}
}

func TestExistsMalformedID(t *testing.T) {
	cardRepo, _, _, pixelCards := newTestService()
	cardRepo.existsFunc = func(id string) (bool, error) {
		t.Fatal("репозиторий не должен вызываться для неверного идентификатора")
		return false, nil
	}
	exists, err := pixelCards.Exists("not-a-uuid")
	if err != nil {
		t.Fatalf("Exists вернула ошибку: %v", err)
	}
	if exists {
		t.Error("синтаксически неверный идентификатор не может существовать")
	}
}

func TestRecentClampsN(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{1000, 100},
		{0, 20},
		{-1, 20},
		{5, 5},
	}
	for _, tt := range tests {
		cardRepo, _, _, pixelCards := newTestService()
		if _, err := pixelCards.Recent(tt.n); err != nil {
			t.Fatalf("Recent(%d) вернула ошибку: %v", tt.n, err)
		}
		if cardRepo.recentN != tt.want {
			t.Errorf("Recent(%d) запросила %d записей, ожидали %d", tt.n, cardRepo.recentN, tt.want)
		}
	}
}
