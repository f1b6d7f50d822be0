package handlers

import (
	"time"

	"mensetsu_note/internal/llm"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// Handler держит все зависимости обработчиков: базу, клиента LLM-сервиса
// и Redis для кэша. Зависимости передаются явно при создании, глобальных
// переменных нет.
type Handler struct {
	DB    *gorm.DB
	LLM   *llm.Client
	Redis *redis.Client
}

func New(db *gorm.DB, llmClient *llm.Client, redisClient *redis.Client) *Handler {
	return &Handler{
		DB:    db,
		LLM:   llmClient,
		Redis: redisClient,
	}
}

// parseDate разбирает дату из запроса: сначала формат YYYY-MM-DD,
// затем полный RFC3339 (так присылает форма фронтенда).
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}
