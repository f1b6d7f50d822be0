package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"mensetsu_note/internal/llm"
	"mensetsu_note/internal/response"

	"github.com/gin-gonic/gin"
)

type ClassifyRequest struct {
	Text string `json:"text" binding:"required"`
}

type ChatRequest struct {
	Messages []llm.Message `json:"messages" binding:"required"`
}

type AnalyzeRequest struct {
	Text string `json:"text" binding:"required"`
}

// ClassifyFeedbackHandler раскладывает свободный текст по полям фидбека
// @Summary		Классификация текста фидбека
// @Description	Отправляет текст в LLM-сервис и возвращает структурированные поля, результат кэшируется в Redis
// @Tags			llm
// @Accept			json
// @Produce		json
// @Param			request	body		ClassifyRequest	true	"Свободный текст фидбека"
// @Success		200		{object}	llm.Classification	"Разобранные поля"
// @Failure		400		{object}	response.ErrorResponse	"Текст обязателен (VALIDATION_ERROR)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка LLM-сервиса (LLM_ERROR)"
// @Router			/api/feedbacks/classify [post]
func (h *Handler) ClassifyFeedbackHandler(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Текст обязателен",
			Details: err.Error(),
		})
		return
	}

	cacheKey := "classify_" + req.Text

	// Проверка кэша: один и тот же текст не гоняем через LLM повторно
	if cached, err := h.Redis.Get(c.Request.Context(), cacheKey).Result(); err == nil && cached != "" {
		var result llm.Classification
		if err := json.Unmarshal([]byte(cached), &result); err == nil {
			c.JSON(http.StatusOK, result)
			return
		}
	}

	result, err := h.LLM.Classify(c.Request.Context(), req.Text)
	if err != nil {
		log.Println("Ошибка классификации фидбека:", err)
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "LLM_ERROR",
			Message: "Ошибка при обращении к LLM-сервису",
			Details: err.Error(),
		})
		return
	}

	// Кэширование результата на 6 часов, ошибки Redis не критичны
	if raw, err := json.Marshal(result); err == nil {
		h.Redis.Set(c.Request.Context(), cacheKey, string(raw), time.Hour*6)
	}

	c.JSON(http.StatusOK, result)
}

// ChatHandler пересылает историю чата в LLM-сервис
// @Summary		Чат с ассистентом
// @Description	Отправляет полную историю сообщений в LLM-сервис и возвращает одну реплику. Состояние на сервере не хранится
// @Tags			llm
// @Accept			json
// @Produce		json
// @Param			request	body		ChatRequest	true	"История сообщений"
// @Success		200		{object}	response.ChatResponse	"Ответ ассистента"
// @Failure		400		{object}	response.ErrorResponse	"Массив сообщений обязателен (VALIDATION_ERROR)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка LLM-сервиса (LLM_ERROR)"
// @Router			/api/feedbacks/chat [post]
func (h *Handler) ChatHandler(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Массив сообщений обязателен",
			Details: err.Error(),
		})
		return
	}

	reply, err := h.LLM.Chat(c.Request.Context(), req.Messages)
	if err != nil {
		log.Println("Ошибка чата с LLM:", err)
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "LLM_ERROR",
			Message: "Ошибка при обращении к LLM-сервису",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.ChatResponse{Reply: reply})
}

// AnalyzeHandler запускает двухшаговый анализ длинной заметки
// @Summary		Анализ свободного текста
// @Description	Переформулирует текст и генерирует уточняющие вопросы двумя последовательными вызовами LLM-сервиса
// @Tags			llm
// @Accept			json
// @Produce		json
// @Param			request	body		AnalyzeRequest	true	"Свободный текст"
// @Success		200		{object}	response.ChatResponse	"Составленный ответ"
// @Failure		400		{object}	response.ErrorResponse	"Текст обязателен (VALIDATION_ERROR)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка LLM-сервиса (LLM_ERROR)"
// @Router			/api/feedbacks/chat/analyze [post]
func (h *Handler) AnalyzeHandler(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Текст обязателен",
			Details: err.Error(),
		})
		return
	}

	reply, err := h.LLM.Analyze(c.Request.Context(), req.Text)
	if err != nil {
		log.Println("Ошибка анализа текста:", err)
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "LLM_ERROR",
			Message: "Ошибка при обращении к LLM-сервису",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.ChatResponse{Reply: reply})
}
