package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// UpstreamError — неуспешный ответ LLM-сервиса. Статус и тело ответа
// сохраняются как есть и попадают в сообщение об ошибке для клиента.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ошибка LLM-сервиса: %d - %s", e.Status, e.Body)
}

// Message — одна реплика истории чата. Sender: "user" или "assistant".
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
}

// Classification — структурированные поля, извлечённые из свободного текста.
// Отсутствующие в ответе сервиса поля остаются пустыми строками.
type Classification struct {
	Impression string `json:"impression"`
	Attraction string `json:"attraction"`
	Concern    string `json:"concern"`
	Aspiration string `json:"aspiration"`
	NextStep   string `json:"next_step"`
	Other      string `json:"other"`
}

// Client — HTTP-клиент внешнего LLM-сервиса (classify/chat/rephrase/deep dive).
// Никакого состояния между вызовами: вся история чата передаётся целиком.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// New создаёт клиента для LLM-сервиса по базовому URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   http.DefaultClient,
	}
}

// postJSON отправляет payload на path и декодирует JSON-ответ в out.
// Любой не-2xx статус возвращается как *UpstreamError с телом ответа.
func (c *Client) postJSON(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка обращения к LLM-сервису: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}

	return json.Unmarshal(raw, out)
}

type textRequest struct {
	Text string `json:"text"`
}

type replyResponse struct {
	Reply string `json:"reply"`
}

// Classify отправляет текст фидбека на /classify-feedback и возвращает
// разложенные по категориям поля.
func (c *Client) Classify(ctx context.Context, text string) (*Classification, error) {
	var out Classification
	if err := c.postJSON(ctx, "/classify-feedback", textRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat отправляет полную историю сообщений на /chat и возвращает одну реплику.
func (c *Client) Chat(ctx context.Context, messages []Message) (string, error) {
	payload := struct {
		Messages []Message `json:"messages"`
	}{Messages: messages}

	var out replyResponse
	if err := c.postJSON(ctx, "/chat", payload, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// Rephrase переформулирует свободный текст через /chat/rephrase.
func (c *Client) Rephrase(ctx context.Context, text string) (string, error) {
	var out replyResponse
	if err := c.postJSON(ctx, "/chat/rephrase", textRequest{Text: text}, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// DeepDiveQuestions генерирует уточняющие вопросы через /chat/deep_dive_questions.
func (c *Client) DeepDiveQuestions(ctx context.Context, text string) (string, error) {
	var out replyResponse
	if err := c.postJSON(ctx, "/chat/deep_dive_questions", textRequest{Text: text}, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// Analyze — двухшаговый конвейер анализа длинной заметки.
// Шаг 1: переформулировка исходного текста. Шаг 2: генерация уточняющих
// вопросов уже по переформулированному тексту, не по исходному.
// Любая ошибка прерывает конвейер без повторов и частичных результатов.
func (c *Client) Analyze(ctx context.Context, text string) (string, error) {
	rephrased, err := c.Rephrase(ctx, text)
	if err != nil {
		return "", err
	}

	questions, err := c.DeepDiveQuestions(ctx, rephrased)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("こんな感じですね、%s。\n\n%s", rephrased, questions), nil
}
