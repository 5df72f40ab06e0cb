// Package apitest runs an in-process stand-in for the crime-report API so the
// client components can be exercised over real HTTP.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const Secret = "apitest-secret"

type User struct {
	ID       string
	Name     string
	Email    string
	Password string
	Role     string
	Location string
	Phone    string
}

type Report struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	CrimeType   string    `json:"crimeType"`
	Severity    string    `json:"severity"`
	UserID      any       `json:"userId,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Votes       struct {
		Helpful   []string `json:"helpful"`
		Unhelpful []string `json:"unhelpful"`
	} `json:"votes"`
}

type Reputation struct {
	Score  int              `json:"score"`
	Level  string           `json:"level"`
	Badges []map[string]any `json:"badges"`
	Stats  struct {
		ReportsSubmitted int `json:"reportsSubmitted"`
		HelpfulVotes     int `json:"helpfulVotes"`
	} `json:"stats"`
}

type LeaderRow struct {
	ID         string     `json:"_id"`
	Name       string     `json:"name"`
	Reputation Reputation `json:"reputation"`
}

type Prediction struct {
	ID          string    `json:"_id"`
	UserID      string    `json:"userId"`
	Location    string    `json:"location"`
	CrimeType   string    `json:"crimeType,omitempty"`
	RiskLevel   string    `json:"riskLevel"`
	Probability float64   `json:"probability"`
	CreatedAt   time.Time `json:"createdAt"`
}

type failure struct {
	status int
	body   string
}

// Server is safe for concurrent use by the handlers and the test goroutine.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	users       map[string]*User
	reports     []*Report
	predictions []Prediction
	reputations map[string]Reputation
	leaderboard []LeaderRow
	stats       map[string]int
	calls       map[string]int
	failures    map[string]failure
	gates       map[string]chan struct{}
	nextID      int
	lastAuth    string
	lastReport  map[string]any
}

func New() *Server {
	s := &Server{
		users:       make(map[string]*User),
		reputations: make(map[string]Reputation),
		stats:       map[string]int{},
		calls:       make(map[string]int),
		failures:    make(map[string]failure),
		gates:       make(map[string]chan struct{}),
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.track)
	r.Get("/test", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
	})
	r.Post("/auth/register", s.register)
	r.Post("/auth/login", s.login)
	r.Get("/reports", s.listReports)
	r.Post("/reports", s.createReport)
	r.Post("/reputation/vote/{reportID}", s.vote)
	r.Get("/reputation/user/{userID}", s.userReputation)
	r.Get("/reputation/leaderboard", s.getLeaderboard)
	r.Post("/predictions", s.createPrediction)
	r.Get("/predictions/my-predictions", s.myPredictions)
	r.Get("/admin/users", s.adminUsers)
	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, http.StatusOK, s.stats)
	})
	return r
}

// route keys look like "POST /reports" and use the chi pattern.
func routeKey(r *http.Request) string {
	pattern := r.URL.Path
	if strings.HasPrefix(pattern, "/reputation/vote/") {
		pattern = "/reputation/vote/{reportID}"
	} else if strings.HasPrefix(pattern, "/reputation/user/") {
		pattern = "/reputation/user/{userID}"
	}
	return r.Method + " " + pattern
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := routeKey(r)
		s.mu.Lock()
		s.calls[key]++
		s.lastAuth = r.Header.Get("Authorization")
		gate := s.gates[key]
		delete(s.gates, key)
		f, failing := s.failures[key]
		delete(s.failures, key)
		s.mu.Unlock()

		if gate != nil {
			<-gate
		}
		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Calls reports how many times route (e.g. "GET /reports") was hit.
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// LastAuthorization is the Authorization header of the most recent call.
func (s *Server) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuth
}

// LastReportBody is the decoded body of the most recent report creation.
func (s *Server) LastReportBody() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReport
}

func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// FailNext makes the next call to route answer with status and a {"msg"} body.
func (s *Server) FailNext(route string, status int, msg string) {
	body, _ := json.Marshal(map[string]string{"msg": msg})
	s.FailNextRaw(route, status, string(body))
}

func (s *Server) FailNextRaw(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = failure{status: status, body: body}
}

// Hold blocks the next call to route until the returned release func runs.
func (s *Server) Hold(route string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.gates[route] = ch
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

func (s *Server) AddUser(u User) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		s.nextID++
		u.ID = fmt.Sprintf("user-%d", s.nextID)
	}
	if u.Role == "" {
		u.Role = "user"
	}
	cp := u
	s.users[strings.ToLower(u.Email)] = &cp
	return &cp
}

// SeedReports replaces the collection; the first element is the newest.
func (s *Server) SeedReports(reports ...Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = s.reports[:0]
	for i := range reports {
		r := reports[i]
		if r.Votes.Helpful == nil {
			r.Votes.Helpful = []string{}
		}
		if r.Votes.Unhelpful == nil {
			r.Votes.Unhelpful = []string{}
		}
		s.reports = append(s.reports, &r)
	}
}

func (s *Server) SetReputation(userID string, rep Reputation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reputations[userID] = rep
}

func (s *Server) SetLeaderboard(rows ...LeaderRow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaderboard = rows
}

func (s *Server) SetStats(stats map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = stats
}

// Token mints a token the way the real API does.
func Token(u *User, ttl time.Duration) string {
	claims := jwt.MapClaims{"id": u.ID, "email": u.Email, "role": u.Role}
	if ttl != 0 {
		claims["exp"] = time.Now().Add(ttl).Unix()
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(Secret))
	if err != nil {
		panic(err)
	}
	return tok
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name, Email, Password, Location, Phone string
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid body")
		return
	}
	if in.Name == "" || in.Email == "" || in.Password == "" {
		writeMsg(w, http.StatusBadRequest, "Please enter all required fields")
		return
	}
	s.mu.Lock()
	_, exists := s.users[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if exists {
		writeMsg(w, http.StatusBadRequest, "User already exists")
		return
	}
	u := s.AddUser(User{Name: in.Name, Email: in.Email, Password: in.Password, Location: in.Location, Phone: in.Phone})
	writeJSON(w, http.StatusCreated, map[string]any{"msg": "User registered", "user": map[string]string{"id": u.ID, "email": u.Email}})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct{ Email, Password string }
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid body")
		return
	}
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if !ok || u.Password != in.Password {
		writeMsg(w, http.StatusBadRequest, "Invalid credentials")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": Token(u, time.Hour),
		"user":  map[string]string{"id": u.ID, "name": u.Name, "email": u.Email, "role": u.Role},
	})
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Report, len(s.reports))
	copy(out, s.reports)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) authUser(r *http.Request) (*User, bool) {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if raw == "" {
		return nil, false
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(Secret), nil
	})
	if err != nil {
		return nil, false
	}
	email, _ := claims["email"].(string)
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[strings.ToLower(email)]
	return u, ok
}

func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authUser(r)
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}
	var in map[string]any
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMsg(w, http.StatusBadRequest, "invalid body")
		return
	}
	str := func(k string) string { v, _ := in[k].(string); return v }

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastReport = in
	s.nextID++
	rep := &Report{
		ID:          fmt.Sprintf("report-%d", s.nextID),
		Title:       str("title"),
		Description: str("description"),
		Location:    str("location"),
		CrimeType:   str("crimeType"),
		Severity:    str("severity"),
		UserID:      map[string]string{"_id": u.ID, "name": u.Name},
		CreatedAt:   time.Now().UTC(),
	}
	rep.Votes.Helpful = []string{}
	rep.Votes.Unhelpful = []string{}
	s.reports = append([]*Report{rep}, s.reports...)
	writeJSON(w, http.StatusCreated, rep)
}

func (s *Server) vote(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized"})
		return
	}
	var in struct {
		VoteType string `json:"voteType"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	id := chi.URLParam(r, "reportID")

	s.mu.Lock()
	defer s.mu.Unlock()
	var rep *Report
	for _, candidate := range s.reports {
		if candidate.ID == id {
			rep = candidate
		}
	}
	if rep == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Report not found"})
		return
	}
	if author, ok := rep.UserID.(map[string]string); ok && author["_id"] == u.ID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "You cannot vote on your own report"})
		return
	}
	rep.Votes.Helpful = without(rep.Votes.Helpful, u.ID)
	rep.Votes.Unhelpful = without(rep.Votes.Unhelpful, u.ID)
	switch in.VoteType {
	case "helpful":
		rep.Votes.Helpful = append(rep.Votes.Helpful, u.ID)
	case "unhelpful":
		rep.Votes.Unhelpful = append(rep.Votes.Unhelpful, u.ID)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid vote type"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Vote recorded"})
}

func (s *Server) userReputation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "userID")
	s.mu.Lock()
	rep, ok := s.reputations[id]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"reputation": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reputation": rep})
}

func (s *Server) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.leaderboard
	if rows == nil {
		rows = []LeaderRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// createPrediction scores a location by how many reports mention it.
func (s *Server) createPrediction(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authUser(r)
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}
	var in struct {
		Location  string `json:"location"`
		CrimeType string `json:"crimeType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Location == "" {
		writeMsg(w, http.StatusBadRequest, "Location is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	hits := 0
	for _, rep := range s.reports {
		if strings.Contains(strings.ToLower(rep.Location), strings.ToLower(in.Location)) {
			hits++
		}
	}
	prob := 0.1 + 0.3*float64(hits)
	if prob > 0.95 {
		prob = 0.95
	}
	level := "low"
	switch {
	case hits >= 2:
		level = "high"
	case hits == 1:
		level = "medium"
	}
	s.nextID++
	p := Prediction{
		ID:          fmt.Sprintf("prediction-%d", s.nextID),
		UserID:      u.ID,
		Location:    in.Location,
		CrimeType:   in.CrimeType,
		RiskLevel:   level,
		Probability: prob,
		CreatedAt:   time.Now().UTC(),
	}
	s.predictions = append(s.predictions, p)
	s.stats["predictionsMade"]++
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) myPredictions(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authUser(r)
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Prediction{}
	for i := len(s.predictions) - 1; i >= 0; i-- {
		if s.predictions[i].UserID == u.ID {
			out = append(out, s.predictions[i])
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) adminUsers(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authUser(r)
	if !ok {
		writeMsg(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}
	if u.Role != "admin" {
		writeMsg(w, http.StatusForbidden, "Access denied")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]string, 0, len(s.users))
	for _, usr := range s.users {
		out = append(out, map[string]string{"_id": usr.ID, "name": usr.Name, "email": usr.Email, "role": usr.Role, "location": usr.Location})
	}
	sort.Slice(out, func(i, j int) bool { return out[i]["_id"] < out[j]["_id"] })
	writeJSON(w, http.StatusOK, out)
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMsg(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}
