package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"pixelcard-backend/internal/delivery/http/utils"
	"pixelcard-backend/internal/entity"
	"pixelcard-backend/internal/usecase"
)

type PixelCard struct {
	pixelCardUseCase usecase.PixelCard
}

func NewPixelCard(pixelCardUseCase usecase.PixelCard) *PixelCard {
	return &PixelCard{
		pixelCardUseCase: pixelCardUseCase,
	}
}

func (p *PixelCard) Configure(server *echo.Group) {
	server.POST("", p.Add)
	server.POST("/generate", p.Generate)
	server.GET("", p.List)
	server.GET("/recent", p.Recent)
	server.GET("/user/:name", p.ListByUserName)
	server.GET("/:id", p.Get)
	server.HEAD("/:id", p.Exists)
}

func (p *PixelCard) Add(c echo.Context) error {
	request := &entity.AddPixelCardRequest{}
	if err := utils.ReadJSON(c, request); err != nil {
		return utils.Error(c, http.StatusBadRequest, utils.CodeValidation, "Неверный формат запроса")
	}
	response, err := p.pixelCardUseCase.Add(request)
	if err != nil {
		return p.handleError(c, err)
	}
	return c.JSON(http.StatusCreated, response)
}

func (p *PixelCard) Generate(c echo.Context) error {
	request := &entity.AddPixelCardRequest{}
	if err := utils.ReadJSON(c, request); err != nil {
		return utils.Error(c, http.StatusBadRequest, utils.CodeValidation, "Неверный формат запроса")
	}
	response, err := p.pixelCardUseCase.Generate(request)
	if err != nil {
		return p.handleError(c, err)
	}
	return c.JSON(http.StatusCreated, response)
}

func (p *PixelCard) List(c echo.Context) error {
	page := &entity.Pagination{}
	if err := utils.ReadQuery(c, page); err != nil {
		return utils.Error(c, http.StatusBadRequest, utils.CodeValidation, "Неверные параметры страницы")
	}
	response, err := p.pixelCardUseCase.List(page)
	if err != nil {
		return p.handleError(c, err)
	}
	return c.JSON(http.StatusOK, response)
}

func (p *PixelCard) ListByUserName(c echo.Context) error {
	page := &entity.Pagination{}
	if err := utils.ReadQuery(c, page); err != nil {
		return utils.Error(c, http.StatusBadRequest, utils.CodeValidation, "Неверные параметры страницы")
	}
	response, err := p.pixelCardUseCase.ListByUserName(c.Param("name"), page)
	if err != nil {
		return p.handleError(c, err)
	}
	return c.JSON(http.StatusOK, response)
}

func (p *PixelCard) Get(c echo.Context) error {
	response, err := p.pixelCardUseCase.Get(c.Param("id"))
	if err != nil {
		return p.handleError(c, err)
	}
	return c.JSON(http.StatusOK, response)
}

func (p *PixelCard) Exists(c echo.Context) error {
	exists, err := p.pixelCardUseCase.Exists(c.Param("id"))
	if err != nil {
		return p.handleError(c, err)
	}
	if !exists {
		return c.NoContent(http.StatusNotFound)
	}
	return c.NoContent(http.StatusOK)
}

func (p *PixelCard) Recent(c echo.Context) error {
	// некорректное значение n заменяется значением по умолчанию в usecase
	n, _ := strconv.Atoi(c.QueryParam("n"))
	response, err := p.pixelCardUseCase.Recent(n)
	if err != nil {
		return p.handleError(c, err)
	}
	return c.JSON(http.StatusOK, response)
}

func (p *PixelCard) handleError(c echo.Context, err error) error {
	var validationErr *usecase.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return utils.Error(c, http.StatusBadRequest, utils.CodeValidation, "Неверные данные запроса", validationErr.Violations...)
	case errors.Is(err, usecase.ErrInvalidID):
		return utils.Error(c, http.StatusBadRequest, utils.CodeValidation, "Неверный формат идентификатора")
	case errors.Is(err, usecase.ErrPixelCardNotFound):
		return utils.Error(c, http.StatusNotFound, utils.CodeNotFound, "Карточка не найдена")
	case errors.Is(err, usecase.ErrStorage):
		c.Logger().Errorf("Ошибка хранилища: %v", err)
		return utils.Error(c, http.StatusInternalServerError, utils.CodeStorage, "Ошибка при сохранении файла")
	case errors.Is(err, usecase.ErrDatabase):
		c.Logger().Errorf("Ошибка базы данных: %v", err)
		return utils.Error(c, http.StatusInternalServerError, utils.CodeDatabase, "Ошибка при работе с базой данных")
	case errors.Is(err, usecase.ErrNetwork), errors.Is(err, usecase.ErrNoImage):
		c.Logger().Errorf("Ошибка внешнего сервиса: %v", err)
		return utils.Error(c, http.StatusBadGateway, utils.CodeNetwork, "Сервис генерации недоступен")
	default:
		c.Logger().Errorf("Непредвиденная ошибка: %v", err)
		return utils.Error(c, http.StatusInternalServerError, utils.CodeUnknown, "Произошла непредвиденная ошибка")
	}
}
