package main

import (
	"encoding/gob"
	"log"
	"net/http"
	"os"

	"quiztutor"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
)

const (
	masterAccountUsername = "admin"
	masterAccountName     = "Master Admin"
)

func init() {
	gob.Register(quiztutor.Session{})
}

func main() {
	// .env is optional; real env vars win
	if err := godotenv.Load(); err != nil {
		quiztutor.VerboseLog("No .env file loaded: %v", err)
	}

	quiztutor.SetVerbose(os.Getenv("QUIZTUTOR_VERBOSE") != "")

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("OPENAI_API_KEY environment variable is required")
	}

	masterPassword := os.Getenv("MASTER_PASSWORD")
	if masterPassword == "" {
		log.Fatal("MASTER_PASSWORD environment variable is required")
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		log.Fatal("SESSION_SECRET environment variable is required")
	}

	dbPath := os.Getenv("QUIZTUTOR_DB")
	if dbPath == "" {
		dbPath = "./quiztutor.db"
	}

	db, err := quiztutor.OpenDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	if err := db.EnsureMasterAccount(masterAccountUsername, masterAccountName, masterPassword); err != nil {
		log.Fatalf("Failed to provision master account: %v", err)
	}

	gateway := quiztutor.NewGateway(apiKey)

	server := &Server{
		db:      db,
		gateway: gateway,
		builder: quiztutor.NewQuizBuilder(db, gateway),
		store:   sessions.NewCookieStore([]byte(sessionSecret)),
	}

	router := mux.NewRouter()
	server.RegisterRoutes(router)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8180"
	}

	log.Printf("Starting server on port %s", port)
	log.Fatal(http.ListenAndServe(":"+port, router))
}
