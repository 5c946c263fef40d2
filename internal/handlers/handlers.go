package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/barna-bash/URelf/internal/apperrors"
	"github.com/barna-bash/URelf/internal/auth"
	"github.com/barna-bash/URelf/internal/cache"
	"github.com/barna-bash/URelf/internal/model"
	"github.com/barna-bash/URelf/internal/service"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Pinger проверяет доступность хранилища для /ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler связывает HTTP-слой с сервисами.
type Handler struct {
	Shortener *service.ShortenerService
	Resolver  *service.ResolverService
	Usage     *service.UsageRecorder
	Accounts  *service.AccountService
	Cache     cache.Cache
	DB        Pinger
	Logger    *zap.Logger
	BaseURL   string
	ListTTL   time.Duration
}

// NewHandler создаёт Handler.
func NewHandler(shortener *service.ShortenerService, resolver *service.ResolverService, usage *service.UsageRecorder, accounts *service.AccountService, c cache.Cache, db Pinger, logger *zap.Logger, baseURL string, listTTL time.Duration) *Handler {
	return &Handler{
		Shortener: shortener,
		Resolver:  resolver,
		Usage:     usage,
		Accounts:  accounts,
		Cache:     c,
		DB:        db,
		Logger:    logger,
		BaseURL:   strings.TrimSuffix(baseURL, "/"),
		ListTTL:   listTTL,
	}
}

// Redirect обрабатывает публичный переход по короткой ссылке.
func (h *Handler) Redirect(w http.ResponseWriter, r *http.Request) {
	alias := chi.URLParam(r, "alias")
	if alias == "" {
		http.Error(w, "Bad Request: Missing alias in URL", http.StatusBadRequest)
		return
	}

	target, err := h.Resolver.Resolve(r.Context(), alias)
	if err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Location", target)
	w.WriteHeader(http.StatusTemporaryRedirect)
}

// Register выдаёт API-ключ новой учётной записи.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	apiKey, err := h.Accounts.Register(r.Context(), req.UserName, req.Email)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, model.RegisterResponse{APIKey: apiKey})
}

// ListAliases возвращает ссылки владельца. Ответ кэшируется на короткий TTL
// под ключом владелец+путь.
func (h *Handler) ListAliases(w http.ResponseWriter, r *http.Request) {
	acc, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	h.cached(w, r, cache.AccountKey(acc.ID, r.URL.Path), func() (any, error) {
		records, err := h.Shortener.List(r.Context(), acc.ID)
		if err != nil {
			return nil, err
		}
		resp := make([]model.AliasResponse, 0, len(records))
		for _, rec := range records {
			resp = append(resp, h.toResponse(rec))
		}
		return resp, nil
	})
}

// GetAlias возвращает одну ссылку владельца.
func (h *Handler) GetAlias(w http.ResponseWriter, r *http.Request) {
	acc, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	h.cached(w, r, cache.AccountKey(acc.ID, r.URL.Path), func() (any, error) {
		rec, err := h.Shortener.Get(r.Context(), acc.ID, id)
		if err != nil {
			return nil, err
		}
		return h.toResponse(rec), nil
	})
}

// CreateAlias создаёт короткую ссылку.
func (h *Handler) CreateAlias(w http.ResponseWriter, r *http.Request) {
	acc, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req model.CreateAliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	rec, err := h.Shortener.Create(r.Context(), acc, &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, h.toResponse(rec))
}

// UpdateAlias изменяет короткую ссылку.
func (h *Handler) UpdateAlias(w http.ResponseWriter, r *http.Request) {
	acc, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	var req model.UpdateAliasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	rec, err := h.Shortener.Update(r.Context(), acc, id, &req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, h.toResponse(rec))
}

// DeleteAlias удаляет короткую ссылку.
func (h *Handler) DeleteAlias(w http.ResponseWriter, r *http.Request) {
	acc, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return
	}

	if err := h.Shortener.Delete(r.Context(), acc, id); err != nil {
		h.respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Analytics возвращает сводку переходов по алиасу владельца.
// Не кэшируется: статистика меняется на каждом переходе.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	acc, ok := auth.AccountFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	alias := chi.URLParam(r, "alias")
	if alias == "" {
		http.Error(w, "Alias is required", http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	stats, err := h.Usage.RecentVisits(r.Context(), acc.ID, alias, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// Ping проверяет доступность БД.
func (h *Handler) Ping(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.Ping(r.Context()); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// cached — явная обёртка кэширования ответа: вызывает внутренний обработчик,
// забирает типизированный результат и отдельно решает кэшировать и отдать.
// Кэш best-effort: его ошибки не видны клиенту.
func (h *Handler) cached(w http.ResponseWriter, r *http.Request, key string, fn func() (any, error)) {
	body, hit, err := h.Cache.Get(r.Context(), key)
	if err != nil {
		h.Logger.Warn("Кэш ответов недоступен", zap.Error(err))
	}
	if hit {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
		return
	}

	result, err := fn()
	if err != nil {
		h.respondError(w, err)
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.Cache.Set(r.Context(), key, payload, h.ListTTL); err != nil {
		h.Logger.Warn("Не удалось записать кэш ответов",
			zap.String("key", key), zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(payload)
}

func (h *Handler) toResponse(rec *model.AliasRecord) model.AliasResponse {
	resp := model.AliasResponse{
		ID:          rec.ID,
		Alias:       rec.Alias,
		OriginalURL: rec.OriginalURL,
		Description: rec.Description,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		ExpiresAt:   rec.ExpiresAt,
	}
	if rec.Alias != "" {
		resp.ShortURL = h.BaseURL + "/" + rec.Alias
	}
	return resp
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Error("Не удалось сериализовать ответ", zap.Error(err))
	}
}

type errorResponse struct {
	Message string `json:"message"`
}

// respondError переводит доменные ошибки в HTTP-статусы.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Message: "not found"})
	case errors.Is(err, apperrors.ErrAliasTaken):
		h.writeJSON(w, http.StatusConflict, errorResponse{Message: "alias already taken"})
	case errors.Is(err, apperrors.ErrAccountExists):
		h.writeJSON(w, http.StatusConflict, errorResponse{Message: "account already exists"})
	case errors.Is(err, apperrors.ErrTooManyRequests):
		h.writeJSON(w, http.StatusTooManyRequests, errorResponse{Message: "too many requests"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "unauthorized"})
	case errors.Is(err, apperrors.ErrValidation):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	default:
		h.Logger.Error("Внутренняя ошибка", zap.Error(err))
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
	}
}
