package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/userhub/apiserver/internal/services"
	"github.com/userhub/apiserver/types"
)

const maxCreateBodyBytes = 1 << 20

// UserHandler provides HTTP handlers for users and their avatars.
type UserHandler struct {
	userService   *services.UserService
	avatarService *services.AvatarService
	logger        *slog.Logger
}

// NewUserHandler constructs a handler with the provided services.
func NewUserHandler(userService *services.UserService, avatarService *services.AvatarService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		userService:   userService,
		avatarService: avatarService,
		logger:        logger,
	}
}

// UserRouter registers user routes on the given router, which is expected to
// be mounted under /api.
func UserRouter(
	r chi.Router,
	userService *services.UserService,
	avatarService *services.AvatarService,
	authMiddleware func(http.Handler) http.Handler,
	logger *slog.Logger,
) {
	handler := NewUserHandler(userService, avatarService, logger)
	if authMiddleware == nil {
		authMiddleware = RequireAuth("")
	}

	r.With(authMiddleware).Post("/users", handler.CreateUser)
	r.Route("/user/{userID}", func(r chi.Router) {
		r.Get("/", handler.GetUser)
		r.Get("/avatar", handler.GetAvatar)
		r.With(authMiddleware).Delete("/avatar", handler.DeleteAvatar)
	})
}

// CreateUserRequest is the signup payload. Unknown fields are ignored.
type CreateUserRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
}

func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	created, err := h.userService.Create(r.Context(), types.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Name:      req.Name,
		Avatar:    req.Avatar,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info("user created", h.auditAttrs(r, "user_id", created.ID)...)
	writeJSON(w, http.StatusCreated, created)
}

func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) GetAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	encoded, err := h.avatarService.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeText(w, http.StatusOK, encoded)
}

func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := parseUserID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.avatarService.Delete(r.Context(), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info("avatar deleted", h.auditAttrs(r, "user_id", id)...)
	w.WriteHeader(http.StatusNoContent)
}

// auditAttrs appends the authenticated subject, when present, to attrs.
func (h *UserHandler) auditAttrs(r *http.Request, attrs ...any) []any {
	if subject, ok := SubjectFromContext(r.Context()); ok {
		attrs = append(attrs, "subject", subject)
	}
	return attrs
}

func (h *UserHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, services.ErrAvatarNotFound):
		writeError(w, http.StatusNotFound, "avatar not found")
	case errors.Is(err, services.ErrUpstream):
		writeError(w, http.StatusBadRequest, "something went wrong")
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
