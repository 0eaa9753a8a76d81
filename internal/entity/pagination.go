package entity

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Pagination — параметры постраничного запроса из query string
type Pagination struct {
	Page  int `query:"page" json:"page"`
	Limit int `query:"limit" json:"limit"`
}

// Normalize приводит параметры к безопасным значениям: отсутствующие или
// выходящие за границы значения заменяются значениями по умолчанию
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 || p.Limit > MaxLimit {
		p.Limit = DefaultLimit
	}
}

type PaginationResponse struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type PixelCardListResponse struct {
	PixelCards []*PixelCardResponse `json:"pixelCards"`
	Pagination PaginationResponse   `json:"pagination"`
}
