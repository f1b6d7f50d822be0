package models

import "time"

// Schedule — запись в календаре собеседований.
type Schedule struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`             // Название встречи
	Date        time.Time `gorm:"index;not null" json:"date"`        // Дата собеседования
	Description string    `gorm:"type:text" json:"description"`      // Необязательное описание
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	// Связь один к одному: у расписания ноль или один фидбек
	Feedback *Feedback `gorm:"foreignKey:ScheduleID" json:"feedback,omitempty"`
}

// Допустимые значения поля Aspiration (заполняются на японском, как в анкете)
const (
	AspirationHigh   = "高め"
	AspirationMedium = "普通"
	AspirationLow    = "低め"
)

// Допустимые значения поля NextStep
const (
	NextStepProceed = "次に進めたい"
	NextStepHold    = "保留"
	NextStepDecline = "辞退"
)

// Feedback — структурированный отзыв после собеседования.
// ScheduleID уникален: второй фидбек для того же расписания отклоняется базой.
type Feedback struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Impression string    `gorm:"type:text" json:"impression"` // Общее впечатление
	Attraction string    `gorm:"type:text" json:"attraction"` // Что привлекло
	Concern    string    `gorm:"type:text" json:"concern"`    // Что смущает
	Aspiration string    `json:"aspiration"`                  // Уровень интереса кандидата
	NextStep   string    `gorm:"column:next_step" json:"next_step"`
	Other      string    `gorm:"type:text" json:"other"`
	ScheduleID uint      `gorm:"uniqueIndex;not null" json:"scheduleId"`
	CreatedAt  time.Time `json:"createdAt"`

	Schedule *Schedule `json:"schedule,omitempty"`
}
