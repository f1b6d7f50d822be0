package main

import (
	"fmt"
	"log"
	"os"

	_ "mensetsu_note/docs"
	"mensetsu_note/internal/handlers"
	"mensetsu_note/internal/llm"
	"mensetsu_note/internal/models"
	"mensetsu_note/internal/storage"

	"github.com/joho/godotenv"
)

// @Title	面接ノート — расписание собеседований и фидбек по кандидатам
func main() {
	key := os.Getenv("ENV_CHEK")
	if key == "" {
		fmt.Println("Подключение к .env")
		err := godotenv.Load()
		if err != nil {
			log.Fatal("Ошибка получения .env")
		}
	}

	db, err := storage.Connect()
	if err != nil {
		log.Fatal("Ошибка подключения к базе данных... ", err.Error())
	}

	if err := db.AutoMigrate(&models.Schedule{}, &models.Feedback{}); err != nil {
		log.Fatal("Ошибка при миграции... ", err.Error())
	}

	llmURL := os.Getenv("LLM_SERVICE_URL")
	if llmURL == "" {
		llmURL = "http://localhost:8000"
	}

	h := handlers.New(db, llm.New(llmURL), storage.NewRedis())
	r := handlers.NewRouter(h)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Ошибка запуска сервера...", err.Error())
	}
}
