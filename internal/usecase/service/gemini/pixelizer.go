package gemini

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"pixelcard-backend/internal/entity"
	"pixelcard-backend/internal/usecase"
	"pixelcard-backend/pkg/retry"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash-exp"
	defaultTimeout = 60 * time.Second
)

// Инструкция фиксированная, чтобы все портреты в галерее выглядели одинаково
const pixelArtInstruction = "Transform this photo into a pixel art portrait. " +
	"Crop to a front-facing portrait, replace the background with plain white, " +
	"and render the subject in a consistent retro pixel art style."

type Pixelizer struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewPixelizer создаёт клиент внешнего сервиса генерации. httpClient может
// быть nil — тогда используется клиент с таймаутом по умолчанию
func NewPixelizer(apiKey string, httpClient *http.Client) (usecase.Pixelizer, error) {
	if apiKey == "" {
		return nil, errors.New("не задан API-ключ сервиса генерации")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Pixelizer{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		httpClient: httpClient,
	}, nil
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *Pixelizer) Pixelize(imageData string) (string, error) {
	mimeType, raw, err := entity.ParseImageDataURI(imageData)
	if err != nil {
		return "", err
	}

	request := generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{Text: pixelArtInstruction},
				{InlineData: &inlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(raw),
				}},
			},
		}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE"},
		},
	}
	body, err := json.Marshal(request)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", p.baseURL, p.model)

	// повторяем только транспортные сбои: ответ сервиса, даже ошибочный,
	// считаем окончательным
	var responseBody []byte
	var statusCode int
	err = retry.Retry(func() error {
		httpRequest, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		httpRequest.Header.Set("Content-Type", "application/json")
		httpRequest.Header.Set("x-goog-api-key", p.apiKey)

		httpResponse, err := p.httpClient.Do(httpRequest)
		if err != nil {
			return err
		}
		defer func() { _ = httpResponse.Body.Close() }()
		statusCode = httpResponse.StatusCode
		responseBody, err = io.ReadAll(httpResponse.Body)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("запрос к сервису генерации: %w", err)
	}

	var response generateContentResponse
	if err := json.Unmarshal(responseBody, &response); err != nil {
		return "", fmt.Errorf("некорректный ответ сервиса генерации: %w", err)
	}
	if statusCode != http.StatusOK {
		if response.Error != nil {
			return "", fmt.Errorf("сервис генерации вернул ошибку %d: %s", response.Error.Code, response.Error.Message)
		}
		return "", fmt.Errorf("сервис генерации вернул статус %d", statusCode)
	}

	for _, candidate := range response.Candidates {
		for _, candidatePart := range candidate.Content.Parts {
			if candidatePart.InlineData != nil && candidatePart.InlineData.Data != "" {
				outMimeType := candidatePart.InlineData.MimeType
				if outMimeType == "" {
					outMimeType = entity.MimeTypePNG
				}
				return fmt.Sprintf("data:%s;base64,%s", outMimeType, candidatePart.InlineData.Data), nil
			}
		}
	}
	return "", usecase.ErrNoImage
}
