package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"todo-server/internal/auth"
	"todo-server/internal/domain"
	"todo-server/internal/repository"
	"todo-server/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	auth      *auth.Service
	todos     service.TodoService
	tokens    *auth.TokenCodec
	users     repository.UserRepository
	cookieTTL time.Duration
	logger    logrus.FieldLogger
}

func NewHandler(authSvc *auth.Service, todos service.TodoService, tokens *auth.TokenCodec, users repository.UserRepository, cookieTTL time.Duration, logger logrus.FieldLogger) *Handler {
	if cookieTTL <= 0 {
		cookieTTL = auth.DefaultTokenTTL
	}
	return &Handler{
		auth:      authSvc,
		todos:     todos,
		tokens:    tokens,
		users:     users,
		cookieTTL: cookieTTL,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(requestIDMiddleware(h.logger))
	router.Use(auth.Middleware(h.tokens, h.users, h.logger))

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.GET("/me", h.me)
		authGroup.POST("/logout", h.logout)
	}

	api := router.Group("/api")
	api.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
	})

	todos := api.Group("/todos", auth.RequireAuth())
	{
		todos.POST("", h.createTodo)
		todos.GET("", h.listTodos)
		todos.GET("/:id", h.getTodo)
		todos.PUT("/:id", h.updateTodo)
		todos.DELETE("/:id", h.deleteTodo)
		todos.GET("/completed/:completed", h.listTodosByCompleted)
	}
}

// the session cookie travels cross-site from the browser frontend, so
// CORS must echo the origin and allow credentials; a wildcard origin
// would make browsers drop the cookie
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func requestIDMiddleware(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"elapsed":    time.Since(start).String(),
		}).Info("request")
	}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Register(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameTaken):
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		case isValidationError(err):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.WithError(err).Error("register failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusCreated, tokenResponse{Token: token})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrAuthenticationFailed) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.WithError(err).Error("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, tokenResponse{Token: token})
}

func (h *Handler) me(c *gin.Context) {
	identity := auth.IdentityFromContext(c.Request.Context())
	if !identity.Authenticated {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"username": identity.Username})
}

func (h *Handler) logout(c *gin.Context) {
	// overwriting the cookie only clears this browser; an already
	// issued token stays valid until its expiry
	h.clearSessionCookie(c)
	c.Status(http.StatusNoContent)
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

type todoRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	DueDate     *time.Time `json:"dueDate"`
}

type TodoResponse struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Completed   bool    `json:"completed"`
	DueDate     *string `json:"dueDate,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

type PagedResponse struct {
	Content       []TodoResponse `json:"content"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	TotalElements int64          `json:"totalElements"`
	TotalPages    int            `json:"totalPages"`
	Last          bool           `json:"last"`
	First         bool           `json:"first"`
}

func (h *Handler) createTodo(c *gin.Context) {
	var req todoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := auth.IdentityFromContext(c.Request.Context())
	todo, err := h.todos.CreateTodo(c.Request.Context(), identity.UserID, service.TodoInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.logger.WithError(err).Error("create todo failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.Header("Location", "/api/todos/"+strconv.FormatInt(todo.ID, 10))
	c.JSON(http.StatusCreated, todoToResponse(*todo))
}

func (h *Handler) getTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	identity := auth.IdentityFromContext(c.Request.Context())
	todo, err := h.todos.GetTodo(c.Request.Context(), identity.UserID, id)
	if err != nil {
		h.todoError(c, err)
		return
	}

	c.JSON(http.StatusOK, todoToResponse(*todo))
}

func (h *Handler) listTodos(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "10"))
	if err != nil || size <= 0 || size > 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid size"})
		return
	}
	sortBy := c.DefaultQuery("sortBy", "id")
	sortDir := c.DefaultQuery("sortDir", "DESC")

	identity := auth.IdentityFromContext(c.Request.Context())
	result, err := h.todos.ListTodos(c.Request.Context(), identity.UserID, repository.ListOptions{
		Page:     page,
		Size:     size,
		SortBy:   sortBy,
		SortDesc: !strings.EqualFold(sortDir, "ASC"),
	})
	if err != nil {
		h.logger.WithError(err).Error("list todos failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	content := make([]TodoResponse, len(result.Items))
	for i := range result.Items {
		content[i] = todoToResponse(result.Items[i])
	}
	c.JSON(http.StatusOK, PagedResponse{
		Content:       content,
		Page:          result.Page,
		Size:          result.Size,
		TotalElements: result.TotalElements,
		TotalPages:    result.TotalPages,
		Last:          result.Last(),
		First:         result.First(),
	})
}

func (h *Handler) listTodosByCompleted(c *gin.Context) {
	completed, err := strconv.ParseBool(c.Param("completed"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid completed flag"})
		return
	}

	identity := auth.IdentityFromContext(c.Request.Context())
	todos, err := h.todos.ListTodosByCompleted(c.Request.Context(), identity.UserID, completed)
	if err != nil {
		h.logger.WithError(err).Error("list todos by completed failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp := make([]TodoResponse, len(todos))
	for i := range todos {
		resp[i] = todoToResponse(todos[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) updateTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	var req todoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	identity := auth.IdentityFromContext(c.Request.Context())
	todo, err := h.todos.UpdateTodo(c.Request.Context(), identity.UserID, id, service.TodoInput{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		DueDate:     req.DueDate,
	})
	if err != nil {
		h.todoError(c, err)
		return
	}

	c.JSON(http.StatusOK, todoToResponse(*todo))
}

func (h *Handler) deleteTodo(c *gin.Context) {
	id, ok := todoID(c)
	if !ok {
		return
	}

	identity := auth.IdentityFromContext(c.Request.Context())
	if err := h.todos.DeleteTodo(c.Request.Context(), identity.UserID, id); err != nil {
		h.todoError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func todoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid todo id"})
		return 0, false
	}
	return id, true
}

func (h *Handler) todoError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrTodoNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "todo not found"})
		return
	}
	h.logger.WithError(err).Error("todo operation failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func isValidationError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "required") || strings.Contains(msg, "at least")
}

func todoToResponse(todo domain.Todo) TodoResponse {
	resp := TodoResponse{
		ID:          todo.ID,
		Title:       todo.Title,
		Description: todo.Description,
		Completed:   todo.Completed,
		CreatedAt:   todo.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   todo.UpdatedAt.Format(time.RFC3339),
	}
	if todo.DueDate != nil {
		v := todo.DueDate.Format(time.RFC3339)
		resp.DueDate = &v
	}
	return resp
}
