package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"quiztutor"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

const sessionName = "quiztutor-session"

// Server holds the webserver dependencies. All cross-request shared state
// lives in the database; the cookie session carries only the logged-in
// identity and that user's quiz session.
type Server struct {
	db      *quiztutor.DB
	gateway *quiztutor.Gateway
	builder *quiztutor.QuizBuilder
	store   *sessions.CookieStore
}

func (s *Server) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/register", s.handleRegister).Methods("POST")
	api.HandleFunc("/login", s.handleLogin).Methods("POST")
	api.HandleFunc("/logout", s.handleLogout).Methods("POST")

	api.HandleFunc("/quiz/start", s.withUser(s.handleQuizStart)).Methods("POST")
	api.HandleFunc("/quiz/current", s.withUser(s.handleQuizCurrent)).Methods("GET")
	api.HandleFunc("/quiz/select", s.withUser(s.handleQuizSelect)).Methods("POST")
	api.HandleFunc("/quiz/advance", s.withUser(s.handleQuizAdvance)).Methods("POST")
	api.HandleFunc("/quiz/results", s.withUser(s.handleQuizResults)).Methods("POST")
	api.HandleFunc("/quiz/reset", s.withUser(s.handleQuizReset)).Methods("POST")

	api.HandleFunc("/notes", s.withUser(s.handleNotes)).Methods("GET")
	api.HandleFunc("/notes/{variant}/{id}", s.withUser(s.handleNoteDelete)).Methods("DELETE")
	api.HandleFunc("/stats", s.withUser(s.handleStats)).Methods("GET")

	api.HandleFunc("/explanations/{variant}/{id}", s.withUser(s.handleExplanation)).Methods("GET")

	api.HandleFunc("/chat", s.withUser(s.handleChat)).Methods("POST")
	api.HandleFunc("/chat/sessions", s.withUser(s.handleChatSessions)).Methods("GET")
	api.HandleFunc("/chat/sessions/{id}", s.withUser(s.handleChatHistory)).Methods("GET")
	api.HandleFunc("/chat/sessions/{id}", s.withUser(s.handleChatDelete)).Methods("DELETE")

	api.HandleFunc("/account", s.withUser(s.handleAccountDelete)).Methods("DELETE")

	api.HandleFunc("/admin/questions", s.withAdmin(s.handleQuestionAdd)).Methods("POST")
	api.HandleFunc("/admin/questions", s.withAdmin(s.handleQuestionsClear)).Methods("DELETE")
	api.HandleFunc("/admin/questions/{id}", s.withAdmin(s.handleQuestionUpdate)).Methods("PUT")
	api.HandleFunc("/admin/questions-export", s.withAdmin(s.handleExport)).Methods("GET")
	api.HandleFunc("/admin/questions-import", s.withAdmin(s.handleImport)).Methods("POST")
	api.HandleFunc("/admin/questions-analyze", s.withAdmin(s.handleAnalyzeAll)).Methods("POST")
	api.HandleFunc("/admin/modified", s.withAdmin(s.handleModifiedList)).Methods("GET")
	api.HandleFunc("/admin/modified", s.withAdmin(s.handleModifiedClear)).Methods("DELETE")
	api.HandleFunc("/admin/modified/{id}", s.withAdmin(s.handleModifiedDelete)).Methods("DELETE")
	api.HandleFunc("/admin/explanations", s.withAdmin(s.handleExplanationsClear)).Methods("DELETE")
	api.HandleFunc("/admin/users", s.withAdmin(s.handleUserList)).Methods("GET")
	api.HandleFunc("/admin/users/{username}", s.withAdmin(s.handleUserDelete)).Methods("DELETE")
}

// --- session plumbing ---

func (s *Server) withUser(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := s.store.Get(r, sessionName)
		username, _ := session.Values["username"].(string)
		if username == "" {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		h(w, r, username)
	}
}

func (s *Server) withAdmin(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := s.store.Get(r, sessionName)
		username, _ := session.Values["username"].(string)
		role, _ := session.Values["role"].(string)
		if username == "" {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		if role != quiztutor.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin role required")
			return
		}
		h(w, r, username)
	}
}

func (s *Server) quizSession(r *http.Request) (*sessions.Session, quiztutor.Session) {
	session, _ := s.store.Get(r, sessionName)
	quiz, _ := session.Values["quiz"].(quiztutor.Session)
	return session, quiz
}

func (s *Server) saveQuiz(w http.ResponseWriter, r *http.Request, session *sessions.Session, quiz quiztutor.Session) {
	session.Values["quiz"] = quiz
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}
}

// --- JSON plumbing ---

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeDomainError maps domain outcomes to status codes. AI structural and
// upstream errors get distinct codes so clients can word their guidance;
// none of them trigger a retry here.
func writeDomainError(w http.ResponseWriter, err error) {
	var malformed *quiztutor.MalformedAIResponseError
	var incomplete *quiztutor.IncompleteGeneratedQuestionError

	switch {
	case errors.Is(err, quiztutor.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, quiztutor.ErrDuplicateUsername):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, quiztutor.ErrQuestionNotFound),
		errors.Is(err, quiztutor.ErrNotFound),
		errors.Is(err, quiztutor.ErrNoQuestionsAvailable):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, quiztutor.ErrAIQuotaExceeded):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, quiztutor.ErrAIServerError),
		errors.Is(err, quiztutor.ErrGenerationFailed),
		errors.As(err, &malformed),
		errors.As(err, &incomplete):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// --- auth ---

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if req.Name == "" {
		req.Name = req.Username
	}

	if err := s.db.CreateUser(req.Username, req.Name, req.Password, quiztutor.RoleUser); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"username": req.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	user, err := s.db.Authenticate(req.Username, req.Password)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	session, _ := s.store.Get(r, sessionName)
	session.Values["username"] = user.Username
	session.Values["role"] = user.Role
	delete(session.Values, "quiz")
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": user.Username, "name": user.Name, "role": user.Role})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	session, _ := s.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// --- quiz flow ---

func (s *Server) handleQuizStart(w http.ResponseWriter, r *http.Request, username string) {
	var req struct {
		Mode       string `json:"mode"`
		Count      int    `json:"count"`
		Difficulty string `json:"difficulty"`
		QuestionID int64  `json:"question_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Count <= 0 {
		req.Count = 10
	}

	var difficulty quiztutor.Difficulty
	if req.Difficulty != "" {
		d, ok := quiztutor.ParseDifficulty(req.Difficulty)
		if !ok {
			writeError(w, http.StatusBadRequest, "difficulty must be easy, medium or hard")
			return
		}
		difficulty = d
	}

	var refs []quiztutor.QuizRef
	var err error
	switch req.Mode {
	case "random":
		refs, err = s.builder.RandomOriginal(req.Count, difficulty)
	case "modified":
		refs, err = s.builder.RandomModified(r.Context(), req.Count)
	case "single":
		refs, err = s.builder.SingleByID(req.QuestionID)
	case "retry":
		refs, err = s.builder.RetryWrong(username)
	default:
		writeError(w, http.StatusBadRequest, "mode must be random, modified, single or retry")
		return
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}

	session, quiz := s.quizSession(r)
	if err := quiz.Start(refs); err != nil {
		writeDomainError(w, err)
		return
	}
	s.saveQuiz(w, r, session, quiz)
	writeJSON(w, http.StatusOK, map[string]interface{}{"total": len(refs)})
}

// questionView is a question as shown mid-quiz: no answer key.
type questionView struct {
	ID        int64             `json:"id"`
	Variant   quiztutor.Variant `json:"variant"`
	Question  string            `json:"question"`
	Options   map[string]string `json:"options"`
	Required  int               `json:"required"`
	MediaURL  string            `json:"media_url,omitempty"`
	MediaType string            `json:"media_type,omitempty"`
}

func (s *Server) handleQuizCurrent(w http.ResponseWriter, r *http.Request, username string) {
	_, quiz := s.quizSession(r)
	ref, err := quiz.Current()
	if err != nil {
		writeError(w, http.StatusNotFound, "no active quiz")
		return
	}

	q, err := s.db.GetQuestion(ref.ID, ref.Variant)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"index": quiz.Cursor,
		"total": len(quiz.Questions),
		"question": questionView{
			ID:        q.ID,
			Variant:   q.Variant,
			Question:  q.Text,
			Options:   q.Options,
			Required:  q.AnswerCount(),
			MediaURL:  q.MediaURL,
			MediaType: string(q.MediaType),
		},
		"chosen": quiz.Choice(quiz.Cursor),
	})
}

func (s *Server) handleQuizSelect(w http.ResponseWriter, r *http.Request, username string) {
	var req struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	session, quiz := s.quizSession(r)
	ref, err := quiz.Current()
	if err != nil {
		writeError(w, http.StatusNotFound, "no active quiz")
		return
	}

	q, err := s.db.GetQuestion(ref.ID, ref.Variant)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if _, ok := q.Options[req.Label]; !ok {
		writeError(w, http.StatusBadRequest, "label is not an option of this question")
		return
	}

	quiz.Select(quiz.Cursor, req.Label, q.AnswerCount())
	s.saveQuiz(w, r, session, quiz)
	writeJSON(w, http.StatusOK, map[string]interface{}{"chosen": quiz.Choice(quiz.Cursor)})
}

func (s *Server) handleQuizAdvance(w http.ResponseWriter, r *http.Request, username string) {
	var req struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	session, quiz := s.quizSession(r)
	if !quiz.Active() {
		writeError(w, http.StatusNotFound, "no active quiz")
		return
	}
	quiz.Advance(req.Delta)
	s.saveQuiz(w, r, session, quiz)
	writeJSON(w, http.StatusOK, map[string]interface{}{"index": quiz.Cursor, "total": len(quiz.Questions)})
}

func (s *Server) handleQuizResults(w http.ResponseWriter, r *http.Request, username string) {
	_, quiz := s.quizSession(r)
	if !quiz.Active() {
		writeError(w, http.StatusNotFound, "no active quiz")
		return
	}

	// Every visit to results appends a fresh attempt per question.
	result, err := s.db.GradeAndRecord(username, &quiz)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleQuizReset(w http.ResponseWriter, r *http.Request, username string) {
	session, quiz := s.quizSession(r)
	quiz.Reset()
	s.saveQuiz(w, r, session, quiz)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// --- notes and stats ---

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request, username string) {
	records, err := s.db.WrongAnswers(username)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	// Attach question details; drop records whose question has been deleted.
	type note struct {
		Record   quiztutor.AnswerRecord `json:"record"`
		Question *quiztutor.Question    `json:"question"`
	}
	notes := make([]note, 0, len(records))
	for _, rec := range records {
		q, err := s.db.GetQuestion(rec.QuestionID, rec.Variant)
		if errors.Is(err, quiztutor.ErrQuestionNotFound) {
			continue
		}
		if err != nil {
			writeDomainError(w, err)
			return
		}
		notes = append(notes, note{Record: rec, Question: q})
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleNoteDelete(w http.ResponseWriter, r *http.Request, username string) {
	vars := mux.Vars(r)
	variant := quiztutor.Variant(vars["variant"])
	if !variant.Valid() {
		writeError(w, http.StatusBadRequest, "variant must be original or modified")
		return
	}
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}

	if err := s.db.DeleteAnswers(username, id, variant); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, username string) {
	total, correct, accuracy, err := s.db.UserStats(username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	missed, err := s.db.TopMissed(username, 5)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total":      total,
		"correct":    correct,
		"accuracy":   accuracy,
		"top_missed": missed,
	})
}

// --- explanations ---

func (s *Server) handleExplanation(w http.ResponseWriter, r *http.Request, username string) {
	vars := mux.Vars(r)
	variant := quiztutor.Variant(vars["variant"])
	if !variant.Valid() {
		writeError(w, http.StatusBadRequest, "variant must be original or modified")
		return
	}
	id, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}

	exp, err := s.db.ExplainQuestion(r.Context(), s.gateway, id, variant)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, exp)
}

// --- chat tutor ---

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, username string) {
	var req struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	var history []quiztutor.ChatMessage
	title := req.Message
	if len(title) > 60 {
		title = title[:60]
	}
	if req.SessionID == "" {
		req.SessionID = quiztutor.NewChatSessionID()
	} else {
		var err error
		history, err = s.db.ChatHistory(username, req.SessionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		if len(history) > 0 {
			title = history[0].Title
		}
	}

	reply, err := s.gateway.ChatReply(r.Context(), history, req.Message)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	userMsg := quiztutor.ChatMessage{
		Username: username, SessionID: req.SessionID,
		Role: quiztutor.ChatRoleUser, Content: req.Message, Title: title,
	}
	assistantMsg := quiztutor.ChatMessage{
		Username: username, SessionID: req.SessionID,
		Role: quiztutor.ChatRoleAssistant, Content: reply, Title: title,
	}
	if err := s.db.AppendChatMessage(&userMsg); err != nil {
		writeDomainError(w, err)
		return
	}
	if err := s.db.AppendChatMessage(&assistantMsg); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"session_id": req.SessionID, "reply": reply})
}

func (s *Server) handleChatSessions(w http.ResponseWriter, r *http.Request, username string) {
	sessions, err := s.db.ChatSessions(username)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request, username string) {
	history, err := s.db.ChatHistory(username, mux.Vars(r)["id"])
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}

func (s *Server) handleChatDelete(w http.ResponseWriter, r *http.Request, username string) {
	if err := s.db.DeleteChatSession(username, mux.Vars(r)["id"]); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- account ---

func (s *Server) handleAccountDelete(w http.ResponseWriter, r *http.Request, username string) {
	if username == masterAccountUsername {
		writeError(w, http.StatusForbidden, "the master account cannot be deleted")
		return
	}
	if err := s.db.DeleteUser(username); err != nil {
		writeDomainError(w, err)
		return
	}

	session, _ := s.store.Get(r, sessionName)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		log.Printf("Session save error: %v", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "account deleted"})
}

// --- admin: question management ---

type questionPayload struct {
	Question   string            `json:"question"`
	Options    map[string]string `json:"options"`
	Answer     []string          `json:"answer"`
	Difficulty string            `json:"difficulty"`
	MediaURL   string            `json:"media_url"`
	MediaType  string            `json:"media_type"`
}

func (p *questionPayload) toQuestion() (*quiztutor.Question, error) {
	difficulty, ok := quiztutor.ParseDifficulty(p.Difficulty)
	if !ok {
		difficulty = quiztutor.DifficultyMedium
	}
	q := quiztutor.Question{
		Variant:    quiztutor.VariantOriginal,
		Text:       strings.TrimSpace(p.Question),
		Options:    p.Options,
		Answer:     p.Answer,
		Difficulty: difficulty,
		MediaURL:   p.MediaURL,
		MediaType:  quiztutor.MediaType(p.MediaType),
	}
	if q.Text == "" {
		return nil, errors.New("question text is required")
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return &q, nil
}

func (s *Server) handleQuestionAdd(w http.ResponseWriter, r *http.Request, username string) {
	var req questionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	q, err := req.toQuestion()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := s.db.AddOriginal(q)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (s *Server) handleQuestionUpdate(w http.ResponseWriter, r *http.Request, username string) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}
	var req questionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	q, err := req.toQuestion()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	q.ID = id

	if err := s.db.UpdateOriginal(q); err != nil {
		writeDomainError(w, err)
		return
	}

	// The cached explanation describes the old wording.
	if err := s.db.DeleteExplanation(id, quiztutor.VariantOriginal); err != nil {
		log.Printf("Failed to invalidate explanation for question %d: %v", id, err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// handleAnalyzeAll re-runs the AI difficulty classifier over every authored
// question, rewriting tags in place. Per-question failures keep the old tag.
func (s *Server) handleAnalyzeAll(w http.ResponseWriter, r *http.Request, username string) {
	ids, err := s.db.QuestionIDs(quiztutor.VariantOriginal)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	analyzed, failures := 0, 0
	for _, id := range ids {
		q, err := s.db.GetQuestion(id, quiztutor.VariantOriginal)
		if err != nil {
			failures++
			continue
		}
		difficulty, err := s.gateway.AnalyzeDifficulty(r.Context(), q.Text)
		if err != nil {
			quiztutor.VerboseLog("Difficulty analysis failed for question %d: %v", id, err)
			failures++
			continue
		}
		if err := s.db.UpdateDifficulty(id, difficulty); err != nil {
			failures++
			continue
		}
		analyzed++
	}
	writeJSON(w, http.StatusOK, map[string]int{"analyzed": analyzed, "failures": failures})
}

func (s *Server) handleQuestionsClear(w http.ResponseWriter, r *http.Request, username string) {
	if err := s.db.ClearQuestions(quiztutor.VariantOriginal); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, username string) {
	items, err := s.db.ExportOriginals()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request, username string) {
	items, err := quiztutor.ParseQuestionsJSON(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	analysisFailures := 0
	if r.URL.Query().Get("analyze") == "1" {
		analysisFailures = quiztutor.AnalyzeImportDifficulties(r.Context(), s.gateway, items)
	}

	result, err := s.db.ImportOriginals(items)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"imported":          result.Imported,
		"skipped":           result.Skipped,
		"analysis_failures": analysisFailures,
	})
}

// --- admin: AI variants, explanations, users ---

func (s *Server) handleModifiedList(w http.ResponseWriter, r *http.Request, username string) {
	questions, err := s.db.AllModified()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (s *Server) handleModifiedDelete(w http.ResponseWriter, r *http.Request, username string) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}
	if err := s.db.DeleteModified(id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleModifiedClear(w http.ResponseWriter, r *http.Request, username string) {
	if err := s.db.ClearQuestions(quiztutor.VariantModified); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleExplanationsClear(w http.ResponseWriter, r *http.Request, username string) {
	if err := s.db.DeleteAllExplanations(); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleUserList(w http.ResponseWriter, r *http.Request, username string) {
	users, err := s.db.ListUsers()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request, username string) {
	target := mux.Vars(r)["username"]
	if target == masterAccountUsername {
		writeError(w, http.StatusForbidden, "the master account cannot be deleted")
		return
	}
	if err := s.db.DeleteUser(target); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
