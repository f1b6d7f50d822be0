package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"mensetsu_note/internal/llm"
	"mensetsu_note/internal/models"
	"mensetsu_note/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeLLM — заглушка LLM-сервиса со счётчиками вызовов.
type fakeLLM struct {
	rephraseCalls  int32
	deepDiveCalls  int32
	rephraseStatus int
}

func (f *fakeLLM) server() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/classify-feedback":
			json.NewEncoder(w).Encode(map[string]string{
				"impression": "全体的に良い",
				"aspiration": "高め",
				"next_step":  "次に進めたい",
			})
		case "/chat":
			json.NewEncoder(w).Encode(map[string]string{"reply": "わかりました"})
		case "/chat/rephrase":
			atomic.AddInt32(&f.rephraseCalls, 1)
			if f.rephraseStatus != 0 {
				w.WriteHeader(f.rephraseStatus)
				w.Write([]byte("rephrase down"))
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"reply": "R"})
		case "/chat/deep_dive_questions":
			atomic.AddInt32(&f.deepDiveCalls, 1)
			json.NewEncoder(w).Encode(map[string]string{"reply": "Q"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

// setupTestServer поднимает API поверх отдельной in-memory базы sqlite.
func setupTestServer(t *testing.T, llmURL string) (*httptest.Server, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatal("Ошибка открытия тестовой базы:", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	// Один коннект, иначе пул раздаст чистые in-memory базы без таблиц
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Schedule{}, &models.Feedback{}); err != nil {
		t.Fatal("Ошибка при миграции тестовой базы:", err)
	}

	h := New(db, llm.New(llmURL), storage.NewRedis())
	ts := httptest.NewServer(NewRouter(h))
	t.Cleanup(ts.Close)
	return ts, db
}

func postJSON(t *testing.T, url string, payload interface{}) *http.Response {
	body, err := json.Marshal(payload)
	assert.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(body))
	assert.NoError(t, err)
	return res
}

func doJSON(t *testing.T, method, url string, payload interface{}) *http.Response {
	var body bytes.Buffer
	if payload != nil {
		assert.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req, err := http.NewRequest(method, url, &body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := http.DefaultClient.Do(req)
	assert.NoError(t, err)
	return res
}

func decodeBody(t *testing.T, res *http.Response, out interface{}) {
	defer res.Body.Close()
	assert.NoError(t, json.NewDecoder(res.Body).Decode(out))
}

func TestScheduleFeedbackFlow(t *testing.T) {
	fake := &fakeLLM{}
	llmSrv := fake.server()
	defer llmSrv.Close()
	ts, _ := setupTestServer(t, llmSrv.URL)

	// 1. Создаём расписание
	res := postJSON(t, ts.URL+"/api/schedules", map[string]string{
		"title": "A",
		"date":  "2024-01-01",
	})
	assert.Equal(t, http.StatusCreated, res.StatusCode, "Расписание не создалось")

	var schedule models.Schedule
	decodeBody(t, res, &schedule)
	assert.NotZero(t, schedule.ID)
	assert.Equal(t, "A", schedule.Title)

	// 2. Фидбека ещё нет: 200 и null, не 404
	res, err := http.Get(fmt.Sprintf("%s/api/feedbacks/schedule/%d", ts.URL, schedule.ID))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var raw json.RawMessage
	decodeBody(t, res, &raw)
	assert.Equal(t, "null", string(raw), "Без фидбека должен возвращаться null")

	// 3. Создаём фидбек
	res = postJSON(t, ts.URL+"/api/feedbacks", map[string]interface{}{
		"scheduleId": schedule.ID,
		"aspiration": "高め",
		"impression": "良い印象",
	})
	assert.Equal(t, http.StatusCreated, res.StatusCode, "Фидбек не создался")
	var feedback models.Feedback
	decodeBody(t, res, &feedback)
	assert.Equal(t, schedule.ID, feedback.ScheduleID)

	// 4. Второй фидбек для того же расписания — конфликт
	res = postJSON(t, ts.URL+"/api/feedbacks", map[string]interface{}{
		"scheduleId": schedule.ID,
		"aspiration": "低め",
	})
	assert.Equal(t, http.StatusConflict, res.StatusCode, "Дубликат фидбека должен давать 409")
	res.Body.Close()

	// Оригинальный фидбек не перезаписан
	res, err = http.Get(fmt.Sprintf("%s/api/feedbacks/%d", ts.URL, feedback.ID))
	assert.NoError(t, err)
	var unchanged models.Feedback
	decodeBody(t, res, &unchanged)
	assert.Equal(t, "高め", unchanged.Aspiration, "Конфликт не должен менять существующий фидбек")

	// 5. Частичное обновление: меняем только next_step
	res = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/feedbacks/%d", ts.URL, feedback.ID), map[string]string{
		"next_step": "保留",
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var updated models.Feedback
	decodeBody(t, res, &updated)
	assert.Equal(t, "保留", updated.NextStep)
	assert.Equal(t, "高め", updated.Aspiration, "Остальные поля не должны меняться")
	assert.Equal(t, "良い印象", updated.Impression, "Остальные поля не должны меняться")

	// 6. Фильтр по дате
	var schedules []models.Schedule
	res, err = http.Get(ts.URL + "/api/schedules?date=2024-01-01")
	assert.NoError(t, err)
	decodeBody(t, res, &schedules)
	assert.Len(t, schedules, 1)
	assert.NotNil(t, schedules[0].Feedback, "Фидбек должен подгружаться вместе с расписанием")

	res, err = http.Get(ts.URL + "/api/schedules?date=2024-01-02")
	assert.NoError(t, err)
	decodeBody(t, res, &schedules)
	assert.Len(t, schedules, 0, "На другую дату расписаний быть не должно")
}

func TestScheduleValidation(t *testing.T) {
	fake := &fakeLLM{}
	llmSrv := fake.server()
	defer llmSrv.Close()
	ts, _ := setupTestServer(t, llmSrv.URL)

	// Без названия
	res := postJSON(t, ts.URL+"/api/schedules", map[string]string{"date": "2024-01-01"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()

	// Без даты
	res = postJSON(t, ts.URL+"/api/schedules", map[string]string{"title": "A"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()

	// Кривая дата
	res = postJSON(t, ts.URL+"/api/schedules", map[string]string{"title": "A", "date": "вчера"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()

	// Неизвестный ID
	getRes, err := http.Get(ts.URL + "/api/schedules/9999")
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, getRes.StatusCode)
	getRes.Body.Close()
}

func TestScheduleUpdateAndDelete(t *testing.T) {
	fake := &fakeLLM{}
	llmSrv := fake.server()
	defer llmSrv.Close()
	ts, _ := setupTestServer(t, llmSrv.URL)

	res := postJSON(t, ts.URL+"/api/schedules", map[string]string{
		"title":       "一次面接",
		"date":        "2024-03-15",
		"description": "エンジニア候補",
	})
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	var schedule models.Schedule
	decodeBody(t, res, &schedule)

	// Частичное обновление: только название
	res = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/schedules/%d", ts.URL, schedule.ID), map[string]string{
		"title": "二次面接",
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var updated models.Schedule
	decodeBody(t, res, &updated)
	assert.Equal(t, "二次面接", updated.Title)
	assert.Equal(t, "エンジニア候補", updated.Description)

	// Удаление
	res = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/schedules/%d", ts.URL, schedule.ID), nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	res = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/schedules/%d", ts.URL, schedule.ID), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode, "Повторное удаление должно давать 404")
	res.Body.Close()
}

func TestFeedbackDelete(t *testing.T) {
	fake := &fakeLLM{}
	llmSrv := fake.server()
	defer llmSrv.Close()
	ts, db := setupTestServer(t, llmSrv.URL)

	schedule := models.Schedule{Title: "面談", Date: mustDate(t, "2024-02-01")}
	assert.NoError(t, db.Create(&schedule).Error)
	feedback := models.Feedback{ScheduleID: schedule.ID, Aspiration: "普通"}
	assert.NoError(t, db.Create(&feedback).Error)

	res := doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/feedbacks/%d", ts.URL, feedback.ID), nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	res = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/feedbacks/%d", ts.URL, feedback.ID), nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res.Body.Close()

	// После удаления снова 200 с null
	getRes, err := http.Get(fmt.Sprintf("%s/api/feedbacks/schedule/%d", ts.URL, schedule.ID))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, getRes.StatusCode)
	var raw json.RawMessage
	decodeBody(t, getRes, &raw)
	assert.Equal(t, "null", string(raw))
}

func TestFeedbackUniqueIndexAtStore(t *testing.T) {
	fake := &fakeLLM{}
	llmSrv := fake.server()
	defer llmSrv.Close()
	_, db := setupTestServer(t, llmSrv.URL)

	schedule := models.Schedule{Title: "最終面接", Date: mustDate(t, "2024-04-01")}
	assert.NoError(t, db.Create(&schedule).Error)

	first := models.Feedback{ScheduleID: schedule.ID, Aspiration: "高め"}
	assert.NoError(t, db.Create(&first).Error)

	// Гонку одновременных создании разрешает уникальный индекс в базе
	second := models.Feedback{ScheduleID: schedule.ID, Aspiration: "低め"}
	err := db.Create(&second).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey, "Второй фидбек должен упираться в уникальный индекс")
}

func TestClassifyHandler(t *testing.T) {
	fake := &fakeLLM{}
	llmSrv := fake.server()
	defer llmSrv.Close()
	ts, _ := setupTestServer(t, llmSrv.URL)

	res := postJSON(t, ts.URL+"/api/feedbacks/classify", map[string]string{
		"text": "今日はCTOと話した。技術スタックが面白い。",
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var result llm.Classification
	decodeBody(t, res, &result)
	assert.Equal(t, "高め", result.Aspiration)
	assert.Equal(t, "次に進めたい", result.NextStep)
	assert.Equal(t, "", result.Concern, "Отсутствующие поля — пустые строки")

	// Пустой текст — ошибка валидации ещё до обращения к сервису
	res = postJSON(t, ts.URL+"/api/feedbacks/classify", map[string]string{"text": ""})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()
}

func TestChatHandler(t *testing.T) {
	fake := &fakeLLM{}
	llmSrv := fake.server()
	defer llmSrv.Close()
	ts, _ := setupTestServer(t, llmSrv.URL)

	res := postJSON(t, ts.URL+"/api/feedbacks/chat", map[string]interface{}{
		"messages": []map[string]string{
			{"sender": "user", "text": "こんにちは"},
		},
	})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var reply map[string]string
	decodeBody(t, res, &reply)
	assert.Equal(t, "わかりました", reply["reply"])

	// Без messages — 400
	res = postJSON(t, ts.URL+"/api/feedbacks/chat", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	res.Body.Close()
}

func TestAnalyzeHandler(t *testing.T) {
	fake := &fakeLLM{}
	llmSrv := fake.server()
	defer llmSrv.Close()
	ts, _ := setupTestServer(t, llmSrv.URL)

	res := postJSON(t, ts.URL+"/api/feedbacks/chat/analyze", map[string]string{"text": "長い面接メモ"})
	assert.Equal(t, http.StatusOK, res.StatusCode)
	var reply map[string]string
	decodeBody(t, res, &reply)
	assert.Equal(t, "こんな感じですね、R。\n\nQ", reply["reply"])
	assert.Equal(t, int32(1), fake.rephraseCalls)
	assert.Equal(t, int32(1), fake.deepDiveCalls)
}

func TestAnalyzeHandlerUpstreamFailure(t *testing.T) {
	fake := &fakeLLM{rephraseStatus: http.StatusInternalServerError}
	llmSrv := fake.server()
	defer llmSrv.Close()
	ts, _ := setupTestServer(t, llmSrv.URL)

	res := postJSON(t, ts.URL+"/api/feedbacks/chat/analyze", map[string]string{"text": "長い面接メモ"})
	assert.Equal(t, http.StatusInternalServerError, res.StatusCode)

	var errBody map[string]string
	decodeBody(t, res, &errBody)
	assert.Equal(t, "LLM_ERROR", errBody["code"])
	assert.Contains(t, errBody["details"], "500", "Статус апстрима попадает в детали ошибки")
	assert.Contains(t, errBody["details"], "rephrase down", "Тело ответа апстрима попадает в детали ошибки")

	// Второй шаг конвейера так и не вызывался
	assert.Equal(t, int32(0), fake.deepDiveCalls)
}

func mustDate(t *testing.T, value string) time.Time {
	parsed, err := parseDate(value)
	assert.NoError(t, err)
	return parsed
}
