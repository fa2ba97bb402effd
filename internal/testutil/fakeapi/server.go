// Package fakeapi is an in-memory Faunagram backend on echo for tests.
// It implements the REST surface the client uses, bearer token checks
// included, and counts calls per route so tests can assert on traffic.
package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/tphakala/faunagram-go/internal/model"
)

// BasePath is the API prefix served by the fake backend
const BasePath = "/api/v1"

const ctxUserID = "user_id"

// Server is a running fake backend
type Server struct {
	e   *echo.Echo
	srv *httptest.Server

	mu        sync.Mutex
	nextID    int
	now       time.Time
	users     map[int]*model.User
	passwords map[int]string
	tokens    map[string]int
	animals   map[int]*model.Animal
	sightings map[int]*model.Sighting
	comments  map[int]*model.Comment
	calls     map[string]int
}

// New starts a fake backend that is closed when the test ends
func New(tb testing.TB) *Server {
	tb.Helper()

	s := &Server{
		e:         echo.New(),
		nextID:    100,
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		users:     make(map[int]*model.User),
		passwords: make(map[int]string),
		tokens:    make(map[string]int),
		animals:   make(map[int]*model.Animal),
		sightings: make(map[int]*model.Sighting),
		comments:  make(map[int]*model.Comment),
		calls:     make(map[string]int),
	}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.routes()

	s.srv = httptest.NewServer(s.e)
	tb.Cleanup(s.srv.Close)
	return s
}

// URL returns the API base URL
func (s *Server) URL() string {
	return s.srv.URL + BasePath
}

func (s *Server) routes() {
	g := s.e.Group(BasePath, s.countCalls, s.authenticate)

	g.POST("/login", s.login)
	g.GET("/current_user", s.currentUser, requireUser)

	g.GET("/users", s.listUsers)
	g.POST("/users", s.signup)
	g.GET("/users/:id", s.getUser)
	g.PUT("/users/:id", s.updateUser, requireUser)
	g.DELETE("/users/:id", s.deleteUser, requireUser)

	g.GET("/animals", s.listAnimals)
	g.GET("/animals/:id", s.getAnimal)

	g.GET("/sightings", s.listSightings)
	g.POST("/sightings", s.createSighting, requireUser)
	g.GET("/sightings/:id", s.getSighting)
	g.PUT("/sightings/:id", s.updateSighting, requireUser)
	g.DELETE("/sightings/:id", s.deleteSighting, requireUser)

	g.GET("/comments", s.listComments)
	g.POST("/comments", s.createComment, requireUser)
	g.GET("/comments/:id", s.getComment)
	g.PUT("/comments/:id", s.updateComment, requireUser)
	g.DELETE("/comments/:id", s.deleteComment, requireUser)
	g.GET("/comments/:id/comments", s.listReplies)
}

// Calls returns how many times METHOD path was requested, path without the
// API prefix and query, e.g. Calls("GET", "/comments/7/comments").
func (s *Server) Calls(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method+" "+path]
}

// TotalCalls returns the number of requests served
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// SeedUser creates a user with a password
func (s *Server) SeedUser(username, name, password string) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.addUserLocked(username, name, password)
	return *u
}

// SeedAnimal creates an animal with a fixed id
func (s *Server) SeedAnimal(a model.Animal) model.Animal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.newIDLocked()
	}
	s.animals[a.ID] = &a
	return a
}

// SeedSighting stores a sighting with a fixed id
func (s *Server) SeedSighting(sg model.Sighting) model.Sighting {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sg.ID == 0 {
		sg.ID = s.newIDLocked()
	}
	if sg.CreatedAt.IsZero() {
		sg.CreatedAt = s.tickLocked()
		sg.UpdatedAt = sg.CreatedAt
	}
	s.sightings[sg.ID] = &sg
	return sg
}

// SeedComment stores a comment as userID
func (s *Server) SeedComment(userID int, in model.NewComment) model.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.addCommentLocked(userID, in)
}

// IssueToken returns a valid token for userID
func (s *Server) IssueToken(userID int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueTokenLocked(userID)
}

// RevokeTokens invalidates every issued token
func (s *Server) RevokeTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.tokens)
}

// Sightings returns a snapshot of stored sightings ordered by id
func (s *Server) Sightings() []model.Sighting {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Sighting, 0, len(s.sightings))
	for _, sg := range s.sightings {
		out = append(out, *sg)
	}
	slices.SortFunc(out, func(a, b model.Sighting) int { return a.ID - b.ID })
	return out
}

func (s *Server) newIDLocked() int {
	s.nextID++
	return s.nextID
}

func (s *Server) tickLocked() time.Time {
	s.now = s.now.Add(time.Minute)
	return s.now
}

func (s *Server) issueTokenLocked(userID int) string {
	token := uuid.NewString()
	s.tokens[token] = userID
	return token
}

func (s *Server) addUserLocked(username, name, password string) *model.User {
	u := &model.User{ID: s.newIDLocked(), Username: username, Name: name, CreatedAt: s.tickLocked()}
	s.users[u.ID] = u
	s.passwords[u.ID] = password
	return u
}

func (s *Server) addCommentLocked(userID int, in model.NewComment) *model.Comment {
	ts := s.tickLocked()
	c := &model.Comment{
		ID:              s.newIDLocked(),
		Body:            in.Body,
		UserID:          userID,
		CommentableType: in.CommentableType,
		CommentableID:   in.CommentableID,
		CreatedAt:       ts,
		UpdatedAt:       ts,
	}
	if u, ok := s.users[userID]; ok {
		c.Username = u.Username
		uc := *u
		c.User = &uc
	}
	s.comments[c.ID] = c
	return c
}

// middleware

func (s *Server) countCalls(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := strings.TrimPrefix(c.Request().URL.Path, BasePath)
		s.mu.Lock()
		s.calls[c.Request().Method+" "+path]++
		s.mu.Unlock()
		return next(c)
	}
}

// authenticate rejects unknown tokens everywhere except login and signup,
// and stores the user id of a valid token.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if header == "" {
			return next(c)
		}

		req := c.Request()
		path := strings.TrimPrefix(req.URL.Path, BasePath)
		if req.Method == http.MethodPost && (path == "/login" || path == "/users") {
			return next(c)
		}

		token := strings.TrimPrefix(header, "Bearer ")
		s.mu.Lock()
		userID, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
		}
		c.Set(ctxUserID, userID)
		return next(c)
	}
}

func requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := c.Get(ctxUserID).(int); !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
		}
		return next(c)
	}
}

func currentUserID(c echo.Context) int {
	id, _ := c.Get(ctxUserID).(int)
	return id
}

func paramID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// handlers: auth and users

func (s *Server) login(c echo.Context) error {
	var creds model.LoginCredentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.Username == creds.Username && s.passwords[id] == creds.Password {
			return c.JSON(http.StatusOK, model.AuthResponse{User: *u, Token: s.issueTokenLocked(id)})
		}
	}
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"})
}

func (s *Server) signup(c echo.Context) error {
	var in struct {
		Name     string `json:"name"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == in.Username {
			return c.JSON(http.StatusUnprocessableEntity, map[string]any{
				"errors": map[string][]string{"username": {"has already been taken"}},
			})
		}
	}
	u := s.addUserLocked(in.Username, in.Name, in.Password)
	return c.JSON(http.StatusCreated, model.AuthResponse{User: *u, Token: s.issueTokenLocked(u.ID)})
}

func (s *Server) currentUser(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[currentUserID(c)]
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) listUsers(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	slices.SortFunc(out, func(a, b model.User) int { return a.ID - b.ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getUser(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) updateUser(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	if id != currentUserID(c) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You can only edit your own profile"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}
	if v := c.FormValue("name"); v != "" {
		u.Name = v
	}
	if v := c.FormValue("username"); v != "" {
		u.Username = v
	}
	if fh, err := c.FormFile("avatar"); err == nil {
		u.AvatarURL = "/uploads/" + filepath.Base(fh.Filename)
	}
	return c.JSON(http.StatusOK, u)
}

func (s *Server) deleteUser(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "User not found"})
	}
	delete(s.users, id)
	delete(s.passwords, id)
	for token, uid := range s.tokens {
		if uid == id {
			delete(s.tokens, token)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// handlers: animals

func (s *Server) listAnimals(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Animal, 0, len(s.animals))
	for _, a := range s.animals {
		out = append(out, *a)
	}
	slices.SortFunc(out, func(a, b model.Animal) int { return a.ID - b.ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getAnimal(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.animals[id]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Animal not found"})
	}
	return c.JSON(http.StatusOK, a)
}

// handlers: sightings

// expandLocked embeds user, animal and the top-level comment count.
func (s *Server) expandLocked(sg *model.Sighting) model.Sighting {
	out := *sg
	if u, ok := s.users[sg.UserID]; ok {
		uc := *u
		out.User = &uc
	}
	if a, ok := s.animals[sg.AnimalID]; ok {
		ac := *a
		out.Animal = &ac
	}
	out.CommentsCount = 0
	for _, cm := range s.comments {
		if cm.CommentableType == model.CommentableSighting && cm.CommentableID == sg.ID {
			out.CommentsCount++
		}
	}
	return out
}

func (s *Server) listSightings(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Sighting, 0, len(s.sightings))
	for _, sg := range s.sightings {
		out = append(out, s.expandLocked(sg))
	}
	// newest first
	slices.SortFunc(out, func(a, b model.Sighting) int { return b.ID - a.ID })
	return c.JSON(http.StatusOK, out)
}

func (s *Server) getSighting(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sg, ok := s.sightings[id]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Sighting not found"})
	}
	return c.JSON(http.StatusOK, s.expandLocked(sg))
}

func (s *Server) createSighting(c echo.Context) error {
	title, body := c.FormValue("title"), c.FormValue("body")
	animalID, _ := strconv.Atoi(c.FormValue("animal_id"))
	if title == "" || body == "" {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{"errors": []string{"Title and body are required"}})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.animals[animalID]; !ok {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{"errors": map[string]string{"animal": "must exist"}})
	}

	ts := s.tickLocked()
	sg := &model.Sighting{
		ID:        s.newIDLocked(),
		Title:     title,
		Body:      body,
		UserID:    currentUserID(c),
		AnimalID:  animalID,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	if fh, err := c.FormFile("image"); err == nil {
		sg.ImagePath = "/uploads/" + filepath.Base(fh.Filename)
	}
	s.sightings[sg.ID] = sg
	return c.JSON(http.StatusCreated, s.expandLocked(sg))
}

func (s *Server) updateSighting(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	// like sends JSON {likes}, edits send multipart
	var likes *int
	if strings.HasPrefix(c.Request().Header.Get("Content-Type"), "application/json") {
		var in struct {
			Likes *int `json:"likes"`
		}
		if err := c.Bind(&in); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
		}
		likes = in.Likes
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sg, ok := s.sightings[id]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Sighting not found"})
	}

	if likes != nil {
		if *likes < 0 {
			return c.JSON(http.StatusUnprocessableEntity, map[string]any{"errors": map[string]string{"likes": "must be non-negative"}})
		}
		sg.Likes = *likes
	} else {
		if sg.UserID != currentUserID(c) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "You can only edit your own sightings"})
		}
		if v := c.FormValue("title"); v != "" {
			sg.Title = v
		}
		if v := c.FormValue("body"); v != "" {
			sg.Body = v
		}
		if v, err := strconv.Atoi(c.FormValue("animal_id")); err == nil && v > 0 {
			sg.AnimalID = v
		}
		if fh, err := c.FormFile("image"); err == nil {
			sg.ImagePath = "/uploads/" + filepath.Base(fh.Filename)
		}
	}
	sg.UpdatedAt = s.tickLocked()
	return c.JSON(http.StatusOK, s.expandLocked(sg))
}

func (s *Server) deleteSighting(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sg, ok := s.sightings[id]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Sighting not found"})
	}
	if sg.UserID != currentUserID(c) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You can only delete your own sightings"})
	}
	delete(s.sightings, id)
	return c.NoContent(http.StatusNoContent)
}

// handlers: comments

func (s *Server) filterCommentsLocked(commentableType string, commentableID int) []model.Comment {
	out := []model.Comment{}
	for _, cm := range s.comments {
		if cm.CommentableType == commentableType && cm.CommentableID == commentableID {
			out = append(out, *cm)
		}
	}
	slices.SortFunc(out, func(a, b model.Comment) int { return a.ID - b.ID })
	return out
}

func (s *Server) listComments(c echo.Context) error {
	commentableType := c.QueryParam("commentable_type")
	commentableID, _ := strconv.Atoi(c.QueryParam("commentable_id"))

	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.filterCommentsLocked(commentableType, commentableID))
}

func (s *Server) listReplies(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, s.filterCommentsLocked(model.CommentableComment, id))
}

func (s *Server) getComment(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cm, ok := s.comments[id]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Comment not found"})
	}
	return c.JSON(http.StatusOK, cm)
}

func (s *Server) createComment(c echo.Context) error {
	var in model.NewComment
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if strings.TrimSpace(in.Body) == "" {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{"errors": []string{"Body can't be blank"}})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch in.CommentableType {
	case model.CommentableSighting:
		if _, ok := s.sightings[in.CommentableID]; !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Sighting not found"})
		}
	case model.CommentableComment:
		if _, ok := s.comments[in.CommentableID]; !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Comment not found"})
		}
	default:
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "Unknown commentable type"})
	}
	return c.JSON(http.StatusCreated, s.addCommentLocked(currentUserID(c), in))
}

func (s *Server) updateComment(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var in struct {
		Body string `json:"body"`
	}
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cm, ok := s.comments[id]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Comment not found"})
	}
	if cm.UserID != currentUserID(c) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You can only edit your own comments"})
	}
	cm.Body = in.Body
	cm.UpdatedAt = s.tickLocked()
	return c.JSON(http.StatusOK, cm)
}

func (s *Server) deleteComment(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cm, ok := s.comments[id]
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Comment not found"})
	}
	if cm.UserID != currentUserID(c) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "You can only delete your own comments"})
	}
	delete(s.comments, id)
	for rid, r := range s.comments {
		if r.CommentableType == model.CommentableComment && r.CommentableID == id {
			delete(s.comments, rid)
		}
	}
	return c.NoContent(http.StatusNoContent)
}
