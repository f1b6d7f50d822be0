package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"mensetsu_note/internal/models"
	"mensetsu_note/internal/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CreateFeedbackRequest struct {
	Impression string `json:"impression"`
	Attraction string `json:"attraction"`
	Concern    string `json:"concern"`
	Aspiration string `json:"aspiration"`
	NextStep   string `json:"next_step"`
	Other      string `json:"other"`
	ScheduleID uint   `json:"scheduleId" binding:"required"`
}

type UpdateFeedbackRequest struct {
	Impression *string `json:"impression"`
	Attraction *string `json:"attraction"`
	Concern    *string `json:"concern"`
	Aspiration *string `json:"aspiration"`
	NextStep   *string `json:"next_step"`
	Other      *string `json:"other"`
}

// ListFeedbacksHandler возвращает список всех фидбеков
// @Summary		Список фидбеков
// @Description	Возвращает все фидбеки вместе с их расписаниями
// @Tags			feedbacks
// @Accept			json
// @Produce		json
// @Success		200	{array}		models.Feedback	"Список фидбеков"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/feedbacks [get]
func (h *Handler) ListFeedbacksHandler(c *gin.Context) {
	var feedbacks []models.Feedback
	if err := h.DB.Preload("Schedule").Find(&feedbacks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки фидбеков",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, feedbacks)
}

// GetFeedbackHandler возвращает один фидбек по ID
// @Summary		Фидбек по ID
// @Description	Возвращает фидбек вместе с расписанием
// @Tags			feedbacks
// @Accept			json
// @Produce		json
// @Param			id	path		string	true	"ID фидбека"
// @Success		200	{object}	models.Feedback	"Фидбек"
// @Failure		400	{object}	response.ErrorResponse	"Неверный идентификатор (INVALID_FEEDBACK_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Фидбек не найден (FEEDBACK_NOT_FOUND)"
// @Router			/api/feedbacks/{id} [get]
func (h *Handler) GetFeedbackHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_FEEDBACK_ID",
			Message: "Неверный идентификатор фидбека",
		})
		return
	}

	var feedback models.Feedback
	if err := h.DB.Preload("Schedule").First(&feedback, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "FEEDBACK_NOT_FOUND",
			Message: "Фидбек не найден",
		})
		return
	}

	c.JSON(http.StatusOK, feedback)
}

// GetFeedbackByScheduleHandler возвращает фидбек конкретного расписания
// @Summary		Фидбек по расписанию
// @Description	Возвращает фидбек, привязанный к расписанию. Если фидбека нет — 200 с null, не 404, чтобы фронтенду было проще
// @Tags			feedbacks
// @Accept			json
// @Produce		json
// @Param			scheduleId	path		string	true	"ID расписания"
// @Success		200			{object}	models.Feedback	"Фидбек или null"
// @Failure		400			{object}	response.ErrorResponse	"Неверный идентификатор (INVALID_SCHEDULE_ID)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/feedbacks/schedule/{scheduleId} [get]
func (h *Handler) GetFeedbackByScheduleHandler(c *gin.Context) {
	scheduleID, err := strconv.Atoi(c.Param("scheduleId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SCHEDULE_ID",
			Message: "Неверный идентификатор расписания",
		})
		return
	}

	var feedback models.Feedback
	err = h.DB.Preload("Schedule").Where("schedule_id = ?", scheduleID).First(&feedback).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, nil)
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки фидбека",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, feedback)
}

// CreateFeedbackHandler создаёт фидбек для расписания
// @Summary		Создание фидбека
// @Description	Создаёт фидбек, привязанный к расписанию. У расписания может быть только один фидбек
// @Tags			feedbacks
// @Accept			json
// @Produce		json
// @Param			feedback	body		CreateFeedbackRequest	true	"Данные фидбека"
// @Success		201			{object}	models.Feedback	"Созданный фидбек"
// @Failure		400			{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		404			{object}	response.ErrorResponse	"Расписание не найдено (SCHEDULE_NOT_FOUND)"
// @Failure		409			{object}	response.ErrorResponse	"Фидбек уже существует (FEEDBACK_EXISTS)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/feedbacks [post]
func (h *Handler) CreateFeedbackHandler(c *gin.Context) {
	var req CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "scheduleId обязателен",
			Details: err.Error(),
		})
		return
	}

	var existing models.Feedback
	if err := h.DB.Where("schedule_id = ?", req.ScheduleID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, response.ErrorResponse{
			Code:    "FEEDBACK_EXISTS",
			Message: "Фидбек для этого расписания уже существует",
		})
		return
	}

	feedback := models.Feedback{
		Impression: req.Impression,
		Attraction: req.Attraction,
		Concern:    req.Concern,
		Aspiration: req.Aspiration,
		NextStep:   req.NextStep,
		Other:      req.Other,
		ScheduleID: req.ScheduleID,
	}

	if err := h.DB.Create(&feedback).Error; err != nil {
		// Гонка двух одновременных создании решается уникальным индексом в базе:
		// проигравший запрос получает конфликт, а не перезаписывает чужой фидбек.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, response.ErrorResponse{
				Code:    "FEEDBACK_EXISTS",
				Message: "Фидбек для этого расписания уже существует",
			})
			return
		}
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "SCHEDULE_NOT_FOUND",
				Message: "Расписание не найдено",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании фидбека",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, feedback)
}

// UpdateFeedbackHandler обновляет фидбек
// @Summary		Обновление фидбека
// @Description	Обновляет только переданные поля фидбека, остальные не трогает
// @Tags			feedbacks
// @Accept			json
// @Produce		json
// @Param			id			path		string					true	"ID фидбека"
// @Param			feedback	body		UpdateFeedbackRequest	true	"Изменяемые поля"
// @Success		200			{object}	models.Feedback	"Обновлённый фидбек"
// @Failure		400			{object}	response.ErrorResponse	"Ошибка валидации (INVALID_FEEDBACK_ID, VALIDATION_ERROR)"
// @Failure		404			{object}	response.ErrorResponse	"Фидбек не найден (FEEDBACK_NOT_FOUND)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/feedbacks/{id} [put]
func (h *Handler) UpdateFeedbackHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_FEEDBACK_ID",
			Message: "Неверный идентификатор фидбека",
		})
		return
	}

	var req UpdateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var feedback models.Feedback
	if err := h.DB.First(&feedback, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "FEEDBACK_NOT_FOUND",
			Message: "Фидбек не найден",
		})
		return
	}

	updates := map[string]interface{}{}
	if req.Impression != nil {
		updates["impression"] = *req.Impression
	}
	if req.Attraction != nil {
		updates["attraction"] = *req.Attraction
	}
	if req.Concern != nil {
		updates["concern"] = *req.Concern
	}
	if req.Aspiration != nil {
		updates["aspiration"] = *req.Aspiration
	}
	if req.NextStep != nil {
		updates["next_step"] = *req.NextStep
	}
	if req.Other != nil {
		updates["other"] = *req.Other
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&feedback).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{
				Code:    "DB_ERROR",
				Message: "Ошибка при обновлении фидбека",
				Details: err.Error(),
			})
			return
		}
		// Перечитываем запись, чтобы вернуть актуальное состояние
		h.DB.First(&feedback, id)
	}

	c.JSON(http.StatusOK, feedback)
}

// DeleteFeedbackHandler удаляет фидбек
// @Summary		Удаление фидбека
// @Description	Удаляет фидбек по ID
// @Tags			feedbacks
// @Accept			json
// @Produce		json
// @Param			id	path		string	true	"ID фидбека"
// @Success		200	{object}	response.SuccessResponse	"Фидбек удалён"
// @Failure		400	{object}	response.ErrorResponse	"Неверный идентификатор (INVALID_FEEDBACK_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Фидбек не найден (FEEDBACK_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/feedbacks/{id} [delete]
func (h *Handler) DeleteFeedbackHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_FEEDBACK_ID",
			Message: "Неверный идентификатор фидбека",
		})
		return
	}

	var feedback models.Feedback
	if err := h.DB.First(&feedback, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "FEEDBACK_NOT_FOUND",
			Message: "Фидбек не найден",
		})
		return
	}

	if err := h.DB.Delete(&feedback).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при удалении фидбека",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Фидбек удалён"})
}
