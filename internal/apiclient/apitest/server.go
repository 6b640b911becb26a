// Package apitest runs an in-memory Listo backend for tests.
package apitest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	BasePath  = "/api/v1"
	wireTime  = "2006-01-02T15:04:05"
	tokenTTL  = 24 * time.Hour
	ctxUserID = "apitest.email"
)

var signingKey = []byte("apitest-signing-key")

type Subtask struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Subject     string    `json:"subject"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	DueDate     *string   `json:"dueDate"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
	Subtasks    []Subtask `json:"subtasks"`
}

type user struct {
	ID       int64
	FullName string
	Email    string
	Password string
}

type failure struct {
	code      int
	remaining int
}

// Server mimics the Spring backend closely enough for client tests: zone-less
// timestamps, 403 on a missing token, null fields ignored on PUT. Ids are
// small JSON numbers rather than the backend's UUID strings, so the client's
// tolerant id decoding is exercised and tests can address tasks as #1, #2.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	now      func() time.Time
	tasks    []Task
	users    map[string]*user
	nextID   int64
	failures map[string]*failure
	requests []string
}

func NewServer() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{
		now:      time.Now,
		users:    make(map[string]*user),
		nextID:   1,
		failures: make(map[string]*failure),
	}
	s.Server = httptest.NewServer(s.router())
	return s
}

// BaseURL is the value to hand to apiclient.Options.
func (s *Server) BaseURL() string {
	return s.URL + BasePath
}

func (s *Server) SetNow(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// AddUser registers an account and returns a valid token for it.
func (s *Server) AddUser(fullName, email, password string) string {
	s.mu.Lock()
	s.users[strings.ToLower(email)] = &user{ID: int64(len(s.users) + 1), FullName: fullName, Email: email, Password: password}
	s.mu.Unlock()
	return s.IssueToken(email, tokenTTL)
}

// IssueToken signs a token for email; a negative ttl yields an expired one.
func (s *Server) IssueToken(email string, ttl time.Duration) string {
	s.mu.Lock()
	now := s.now()
	s.mu.Unlock()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return signed
}

// Seed stores tasks, assigning ids to the tasks and their subtasks.
func (s *Server) Seed(tasks ...Task) []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		t.ID = s.allocID()
		stamp := s.now().Format(wireTime)
		if t.CreatedAt == "" {
			t.CreatedAt = stamp
		}
		if t.UpdatedAt == "" {
			t.UpdatedAt = stamp
		}
		if t.Status == "" {
			t.Status = "TODO"
		}
		if t.Priority == "" {
			t.Priority = "MEDIUM"
		}
		subtasks := make([]Subtask, len(t.Subtasks))
		for i, st := range t.Subtasks {
			st.ID = s.allocID()
			subtasks[i] = st
		}
		t.Subtasks = subtasks
		s.tasks = append(s.tasks, t)
		out = append(out, cloneTask(t))
	}
	return out
}

// Tasks returns a snapshot of the stored tasks.
func (s *Server) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = cloneTask(t)
	}
	return out
}

// Fail makes the next times requests to method+route answer code; times <= 0
// fails until ClearFailures. route is the gin pattern below BasePath, e.g.
// "/tasks/:id".
func (s *Server) Fail(method, route string, code, times int) {
	s.mu.Lock()
	s.failures[method+" "+route] = &failure{code: code, remaining: times}
	s.mu.Unlock()
}

func (s *Server) ClearFailures() {
	s.mu.Lock()
	s.failures = make(map[string]*failure)
	s.mu.Unlock()
}

// Requests lists "METHOD /path" for every request received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// CountRequests counts received requests starting with prefix.
func (s *Server) CountRequests(prefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.record(), s.injectFailures())

	api := r.Group(BasePath)
	{
		auth := api.Group("/auth")
		auth.POST("/register", s.registerAction)
		auth.POST("/authenticate", s.authenticateAction)

		secured := api.Group("", s.requireToken())
		secured.GET("/tasks", s.listTasksAction)
		secured.POST("/tasks", s.createTaskAction)
		secured.PUT("/tasks/:id", s.updateTaskAction)
		secured.DELETE("/tasks/:id", s.deleteTaskAction)
		secured.POST("/tasks/:id/subtasks", s.createSubtaskAction)
		secured.PUT("/subtasks/:id", s.updateSubtaskAction)
		secured.DELETE("/subtasks/:id", s.deleteSubtaskAction)
		secured.GET("/users/me", s.meAction)
		secured.PUT("/users/me", s.updateMeAction)
		secured.PUT("/users/me/password", s.changePasswordAction)
	}
	return r
}

func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := strings.TrimPrefix(c.Request.URL.Path, BasePath)
		s.mu.Lock()
		s.requests = append(s.requests, c.Request.Method+" "+path)
		s.mu.Unlock()
		c.Next()
	}
}

func (s *Server) injectFailures() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.Method + " " + strings.TrimPrefix(c.FullPath(), BasePath)
		s.mu.Lock()
		f, ok := s.failures[key]
		code := 0
		if ok {
			code = f.code
			if f.remaining > 0 {
				f.remaining--
				if f.remaining == 0 {
					delete(s.failures, key)
				}
			}
		}
		s.mu.Unlock()
		if ok {
			c.AbortWithStatusJSON(code, gin.H{"message": "injected failure"})
			return
		}
		c.Next()
	}
}

func (s *Server) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return signingKey, nil
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
			return
		}
		c.Set(ctxUserID, strings.ToLower(claims.Subject))
		c.Next()
	}
}

func (s *Server) registerAction(c *gin.Context) {
	var req struct {
		FullName        string `json:"fullName"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid registration"})
		return
	}
	if req.Password != req.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Passwords do not match"})
		return
	}
	s.mu.Lock()
	_, exists := s.users[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if exists {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Email already in use"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": s.AddUser(req.FullName, req.Email, req.Password)})
}

func (s *Server) authenticateAction(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid request"})
		return
	}
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(req.Email)]
	valid := ok && u.Password == req.Password
	s.mu.Unlock()
	if !valid {
		c.JSON(http.StatusForbidden, gin.H{"message": "Bad credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": s.IssueToken(u.Email, tokenTTL)})
}

func (s *Server) listTasksAction(c *gin.Context) {
	c.JSON(http.StatusOK, s.Tasks())
}

type taskBody struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Subject     *string `json:"subject"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	DueDate     *string `json:"dueDate"`
}

func (s *Server) createTaskAction(c *gin.Context) {
	var body taskBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Title == nil || strings.TrimSpace(*body.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Title is required"})
		return
	}
	t := Task{Title: *body.Title}
	applyBody(&t, body)
	created := s.Seed(t)[0]
	c.JSON(http.StatusOK, created)
}

func (s *Server) updateTaskAction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body taskBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			applyBody(&s.tasks[i], body)
			s.tasks[i].UpdatedAt = s.now().Format(wireTime)
			c.JSON(http.StatusOK, cloneTask(s.tasks[i]))
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
}

func (s *Server) deleteTaskAction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
}

func (s *Server) createSubtaskAction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body Subtask
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Title is required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			body.ID = s.allocID()
			s.tasks[i].Subtasks = append(s.tasks[i].Subtasks, body)
			c.JSON(http.StatusOK, body)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
}

func (s *Server) updateSubtaskAction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var body struct {
		Title     *string `json:"title"`
		Completed *bool   `json:"completed"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.findSubtask(id)
	if st == nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Subtask not found"})
		return
	}
	if body.Title != nil {
		st.Title = *body.Title
	}
	if body.Completed != nil {
		st.Completed = *body.Completed
	}
	c.JSON(http.StatusOK, *st)
}

func (s *Server) deleteSubtaskAction(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		for j, st := range s.tasks[i].Subtasks {
			if st.ID == id {
				s.tasks[i].Subtasks = append(s.tasks[i].Subtasks[:j], s.tasks[i].Subtasks[j+1:]...)
				c.Status(http.StatusNoContent)
				return
			}
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"message": "Subtask not found"})
}

func (s *Server) meAction(c *gin.Context) {
	u := s.currentUser(c)
	if u == nil {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	c.JSON(http.StatusOK, profile(u))
}

func (s *Server) updateMeAction(c *gin.Context) {
	var body struct {
		FullName string `json:"fullName"`
		Email    string `json:"email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}
	u := s.currentUser(c)
	if u == nil {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	s.mu.Lock()
	delete(s.users, strings.ToLower(u.Email))
	u.FullName = body.FullName
	u.Email = body.Email
	s.users[strings.ToLower(u.Email)] = u
	s.mu.Unlock()
	c.JSON(http.StatusOK, profile(u))
}

func (s *Server) changePasswordAction(c *gin.Context) {
	var body struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid body"})
		return
	}
	u := s.currentUser(c)
	if u == nil {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Password != body.CurrentPassword {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Current password is incorrect"})
		return
	}
	if body.NewPassword != body.ConfirmPassword {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Passwords do not match"})
		return
	}
	u.Password = body.NewPassword
	c.Status(http.StatusOK)
}

func (s *Server) currentUser(c *gin.Context) *user {
	email := c.GetString(ctxUserID)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[email]
}

// findSubtask must be called with s.mu held.
func (s *Server) findSubtask(id int64) *Subtask {
	for i := range s.tasks {
		for j := range s.tasks[i].Subtasks {
			if s.tasks[i].Subtasks[j].ID == id {
				return &s.tasks[i].Subtasks[j]
			}
		}
	}
	return nil
}

// allocID must be called with s.mu held.
func (s *Server) allocID() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
		return 0, false
	}
	return id, true
}

func applyBody(t *Task, body taskBody) {
	if body.Title != nil {
		t.Title = *body.Title
	}
	if body.Description != nil {
		t.Description = *body.Description
	}
	if body.Subject != nil {
		t.Subject = *body.Subject
	}
	if body.Status != nil {
		t.Status = *body.Status
	}
	if body.Priority != nil {
		t.Priority = *body.Priority
	}
	if body.DueDate != nil {
		due := *body.DueDate
		t.DueDate = &due
	}
}

func profile(u *user) gin.H {
	return gin.H{
		"id":       strconv.FormatInt(u.ID, 10),
		"fullName": u.FullName,
		"email":    u.Email,
		"role":     "USER",
	}
}

func cloneTask(t Task) Task {
	out := t
	if t.DueDate != nil {
		due := *t.DueDate
		out.DueDate = &due
	}
	out.Subtasks = append([]Subtask{}, t.Subtasks...)
	return out
}
