package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"time"

	"quiztutor"
)

func main() {
	var (
		importFile = flag.String("import", "", "Import questions from a JSON file (replaces the original set)")
		exportFile = flag.String("export", "", "Export the original questions to a JSON file")
		analyze    = flag.Bool("analyze", false, "Re-classify difficulty with AI during import")
		dbPath     = flag.String("db", "./quiztutor.db", "Path to the SQLite database")
		apiKey     = flag.String("api-key", "", "OpenAI API key, needed with -analyze (or set OPENAI_API_KEY env var)")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	quiztutor.SetVerbose(*verbose)

	if *importFile == "" && *exportFile == "" {
		log.Fatal("Nothing to do. Use -import or -export.")
	}

	db, err := quiztutor.OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	if *importFile != "" {
		runImport(db, *importFile, *analyze, *apiKey)
	}

	if *exportFile != "" {
		runExport(db, *exportFile)
	}
}

func runImport(db *quiztutor.DB, path string, analyze bool, apiKey string) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("Failed to open import file: %v", err)
	}
	defer f.Close()

	items, err := quiztutor.ParseQuestionsJSON(f)
	if err != nil {
		log.Fatalf("Failed to parse import file: %v", err)
	}

	if analyze {
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
			if apiKey == "" {
				log.Fatal("OpenAI API key is required with -analyze. Use -api-key flag or set OPENAI_API_KEY environment variable.")
			}
		}

		gateway := quiztutor.NewGateway(apiKey)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		log.Printf("Analyzing difficulty of %d questions...", len(items))
		if failures := quiztutor.AnalyzeImportDifficulties(ctx, gateway, items); failures > 0 {
			log.Printf("Difficulty analysis failed for %d questions, kept medium", failures)
		}
	}

	result, err := db.ImportOriginals(items)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Printf("Imported %d questions, skipped %d", result.Imported, result.Skipped)
}

func runExport(db *quiztutor.DB, path string) {
	items, err := db.ExportOriginals()
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	f, err := os.Create(path)
	if err != nil {
		log.Fatalf("Failed to create export file: %v", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(items); err != nil {
		log.Fatalf("Failed to write export file: %v", err)
	}
	log.Printf("Exported %d questions to %s", len(items), path)
}
