package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"pixelcard-backend/internal/entity"
	"pixelcard-backend/internal/repo"
)

var queryBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var pixelCardColumns = []string{"id", "user_name", "file_path", "file_url", "file_size", "mime_type", "created_at", "updated_at"}

// pixelCardRow — форма записи в таблице pixelcard, из которой выводятся
// остальные представления
type pixelCardRow struct {
	ID        string    `db:"id"`
	UserName  string    `db:"user_name"`
	FilePath  string    `db:"file_path"`
	FileURL   string    `db:"file_url"`
	FileSize  int64     `db:"file_size"`
	MimeType  string    `db:"mime_type"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r *pixelCardRow) toEntity() (*entity.PixelCard, error) {
	if r.ID == "" {
		return nil, errors.New("у записи отсутствует идентификатор")
	}
	if r.UserName == "" {
		return nil, errors.New("у записи отсутствует имя владельца")
	}
	if r.FilePath == "" || r.FileURL == "" {
		return nil, errors.New("у записи отсутствует путь или URL файла")
	}
	if r.FileSize <= 0 {
		return nil, fmt.Errorf("недопустимый размер файла: %d", r.FileSize)
	}
	if !entity.IsAllowedMimeType(r.MimeType) {
		return nil, fmt.Errorf("недопустимый тип файла: %s", r.MimeType)
	}
	return &entity.PixelCard{
		ID:        r.ID,
		UserName:  r.UserName,
		FilePath:  r.FilePath,
		FileURL:   r.FileURL,
		FileSize:  r.FileSize,
		MimeType:  r.MimeType,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}, nil
}

func rowFromEntity(card *entity.PixelCard) *pixelCardRow {
	return &pixelCardRow{
		ID:        card.ID,
		UserName:  card.UserName,
		FilePath:  card.FilePath,
		FileURL:   card.FileURL,
		FileSize:  card.FileSize,
		MimeType:  card.MimeType,
		CreatedAt: card.CreatedAt,
		UpdatedAt: card.UpdatedAt,
	}
}

type PixelCard struct {
	db *sqlx.DB
}

func NewPixelCard(db *sqlx.DB) repo.PixelCard {
	return &PixelCard{db: db}
}

func (p *PixelCard) Add(card *entity.PixelCard) (*entity.PixelCard, error) {
	row := rowFromEntity(card)
	query := `INSERT INTO pixelcard (user_name, file_path, file_url, file_size, mime_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`
	err := p.db.QueryRow(query, row.UserName, row.FilePath, row.FileURL, row.FileSize, row.MimeType).
		Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return row.toEntity()
}

func (p *PixelCard) Get(id string) (*entity.PixelCard, error) {
	row := &pixelCardRow{}
	query := `SELECT id, user_name, file_path, file_url, file_size, mime_type, created_at, updated_at
		FROM pixelcard WHERE id = $1`
	err := p.db.Get(row, query, id)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, repo.ErrPixelCardNotFound
	case err != nil:
		return nil, err
	}
	return row.toEntity()
}

func (p *PixelCard) List(page int, limit int) ([]*entity.PixelCard, int, error) {
	return p.list(page, limit, nil)
}

func (p *PixelCard) ListByUserName(name string, page int, limit int) ([]*entity.PixelCard, int, error) {
	return p.list(page, limit, sq.Eq{"user_name": name})
}

// list сначала считает количество строк и не выполняет второй запрос,
// если выбирать нечего
func (p *PixelCard) list(page int, limit int, where sq.Sqlizer) ([]*entity.PixelCard, int, error) {
	countBuilder := queryBuilder.Select("COUNT(*)").From("pixelcard")
	selectBuilder := queryBuilder.Select(pixelCardColumns...).From("pixelcard")
	if where != nil {
		countBuilder = countBuilder.Where(where)
		selectBuilder = selectBuilder.Where(where)
	}

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := p.db.Get(&total, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []*entity.PixelCard{}, 0, nil
	}

	query, args, err := selectBuilder.
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64((page - 1) * limit)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}
	cards, err := p.selectCards(query, args...)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

func (p *PixelCard) Exists(id string) (bool, error) {
	var exists bool
	err := p.db.Get(&exists, "SELECT EXISTS (SELECT 1 FROM pixelcard WHERE id = $1)", id)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (p *PixelCard) Recent(n int) ([]*entity.PixelCard, error) {
	query := `SELECT id, user_name, file_path, file_url, file_size, mime_type, created_at, updated_at
		FROM pixelcard
		ORDER BY created_at DESC
		LIMIT $1`
	return p.selectCards(query, n)
}

func (p *PixelCard) selectCards(query string, args ...any) ([]*entity.PixelCard, error) {
	rows, err := p.db.Queryx(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cards := make([]*entity.PixelCard, 0)
	for rows.Next() {
		row := pixelCardRow{}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		card, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}
