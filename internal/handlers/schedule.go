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

type CreateScheduleRequest struct {
	Title       string `json:"title" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Description string `json:"description"`
}

type UpdateScheduleRequest struct {
	Title       *string `json:"title"`
	Date        *string `json:"date"`
	Description *string `json:"description"`
}

// ListSchedulesHandler возвращает список расписаний
// @Summary		Список расписаний
// @Description	Возвращает все расписания вместе с фидбеком, опционально фильтрует по точной дате
// @Tags			schedules
// @Accept			json
// @Produce		json
// @Param			date	query		string	false	"Дата в формате YYYY-MM-DD"
// @Success		200		{array}		models.Schedule	"Список расписаний"
// @Failure		400		{object}	response.ErrorResponse	"Неверный формат даты (VALIDATION_ERROR)"
// @Failure		500		{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/schedules [get]
func (h *Handler) ListSchedulesHandler(c *gin.Context) {
	query := h.DB.Preload("Feedback")

	if dateStr := c.Query("date"); dateStr != "" {
		date, err := parseDate(dateStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Неверный формат даты",
				Details: err.Error(),
			})
			return
		}
		query = query.Where("date = ?", date)
	}

	var schedules []models.Schedule
	if err := query.Find(&schedules).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки расписаний",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, schedules)
}

// GetScheduleHandler возвращает одно расписание по ID
// @Summary		Расписание по ID
// @Description	Возвращает расписание вместе с привязанным фидбеком
// @Tags			schedules
// @Accept			json
// @Produce		json
// @Param			id	path		string	true	"ID расписания"
// @Success		200	{object}	models.Schedule	"Расписание"
// @Failure		400	{object}	response.ErrorResponse	"Неверный идентификатор (INVALID_SCHEDULE_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Расписание не найдено (SCHEDULE_NOT_FOUND)"
// @Router			/api/schedules/{id} [get]
func (h *Handler) GetScheduleHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SCHEDULE_ID",
			Message: "Неверный идентификатор расписания",
		})
		return
	}

	var schedule models.Schedule
	if err := h.DB.Preload("Feedback").First(&schedule, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SCHEDULE_NOT_FOUND",
			Message: "Расписание не найдено",
		})
		return
	}

	c.JSON(http.StatusOK, schedule)
}

// CreateScheduleHandler создаёт новое расписание
// @Summary		Создание расписания
// @Description	Создаёт запись в календаре, title и date обязательны
// @Tags			schedules
// @Accept			json
// @Produce		json
// @Param			schedule	body		CreateScheduleRequest	true	"Данные расписания"
// @Success		201			{object}	models.Schedule	"Созданное расписание"
// @Failure		400			{object}	response.ErrorResponse	"Ошибка валидации (VALIDATION_ERROR)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/schedules [post]
func (h *Handler) CreateScheduleHandler(c *gin.Context) {
	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Название и дата обязательны",
			Details: err.Error(),
		})
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Неверный формат даты",
			Details: err.Error(),
		})
		return
	}

	schedule := models.Schedule{
		Title:       req.Title,
		Date:        date,
		Description: req.Description,
	}

	if err := h.DB.Create(&schedule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при создании расписания",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// UpdateScheduleHandler обновляет расписание
// @Summary		Обновление расписания
// @Description	Обновляет только переданные поля расписания
// @Tags			schedules
// @Accept			json
// @Produce		json
// @Param			id			path		string					true	"ID расписания"
// @Param			schedule	body		UpdateScheduleRequest	true	"Изменяемые поля"
// @Success		200			{object}	models.Schedule	"Обновлённое расписание"
// @Failure		400			{object}	response.ErrorResponse	"Ошибка валидации (INVALID_SCHEDULE_ID, VALIDATION_ERROR)"
// @Failure		404			{object}	response.ErrorResponse	"Расписание не найдено (SCHEDULE_NOT_FOUND)"
// @Failure		500			{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/schedules/{id} [put]
func (h *Handler) UpdateScheduleHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SCHEDULE_ID",
			Message: "Неверный идентификатор расписания",
		})
		return
	}

	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: "Ошибка валидации данных",
			Details: err.Error(),
		})
		return
	}

	var schedule models.Schedule
	if err := h.DB.First(&schedule, id).Error; err != nil {
		c.JSON(http.StatusNotFound, response.ErrorResponse{
			Code:    "SCHEDULE_NOT_FOUND",
			Message: "Расписание не найдено",
		})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "Неверный формат даты",
				Details: err.Error(),
			})
			return
		}
		updates["date"] = date
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&schedule).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{
				Code:    "DB_ERROR",
				Message: "Ошибка при обновлении расписания",
				Details: err.Error(),
			})
			return
		}
		// Перечитываем запись, чтобы вернуть актуальное состояние
		h.DB.First(&schedule, id)
	}

	c.JSON(http.StatusOK, schedule)
}

// DeleteScheduleHandler удаляет расписание
// @Summary		Удаление расписания
// @Description	Удаляет расписание по ID
// @Tags			schedules
// @Accept			json
// @Produce		json
// @Param			id	path		string	true	"ID расписания"
// @Success		200	{object}	response.SuccessResponse	"Расписание удалено"
// @Failure		400	{object}	response.ErrorResponse	"Неверный идентификатор (INVALID_SCHEDULE_ID)"
// @Failure		404	{object}	response.ErrorResponse	"Расписание не найдено (SCHEDULE_NOT_FOUND)"
// @Failure		500	{object}	response.ErrorResponse	"Ошибка сервера (DB_ERROR)"
// @Router			/api/schedules/{id} [delete]
func (h *Handler) DeleteScheduleHandler(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{
			Code:    "INVALID_SCHEDULE_ID",
			Message: "Неверный идентификатор расписания",
		})
		return
	}

	var schedule models.Schedule
	if err := h.DB.First(&schedule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{
				Code:    "SCHEDULE_NOT_FOUND",
				Message: "Расписание не найдено",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка загрузки расписания",
			Details: err.Error(),
		})
		return
	}

	if err := h.DB.Delete(&schedule).Error; err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{
			Code:    "DB_ERROR",
			Message: "Ошибка при удалении расписания",
			Details: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Расписание удалено"})
}
