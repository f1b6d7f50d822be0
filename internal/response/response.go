package response

// SuccessResponse представляет успешный ответ API
type SuccessResponse struct {
	Message string `json:"message" example:"Операция успешно выполнена"`
}

// ErrorResponse представляет ответ с ошибкой API
type ErrorResponse struct {
	// Код ошибки для программной обработки
	// example: VALIDATION_ERROR
	Code string `json:"code"`

	// Человекочитаемое сообщение об ошибке
	// example: Ошибка валидации данных
	Message string `json:"message"`

	// Дополнительные детали об ошибке (опционально)
	// example: поле title обязательно
	Details string `json:"details,omitempty"`
}

// ChatResponse представляет ответ LLM-сервиса с одной репликой
type ChatResponse struct {
	// Текст ответа ассистента
	// example: こんな感じですね、...
	Reply string `json:"reply"`
}
