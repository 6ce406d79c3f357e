package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-AvailabilityService/internal/domain"
)

const (
	maxBodyBytes = 1 << 20

	// retryAfterSeconds подсказка клиенту при 503
	retryAfterSeconds = 1

	msgInternalError   = "внутренняя ошибка сервера"
	msgUnavailable     = "сервис временно недоступен, повторите запрос позже"
	msgInsufficient    = "недостаточно свободной емкости"
	msgBlocked         = "ресурс заблокирован на выбранные даты"
	msgOverlap         = "ресурс уже назначен на пересекающиеся даты"
	msgInvalidInput    = "некорректные данные запроса"
	msgInvalidStatus   = "недопустимая смена статуса назначения"
	msgHoldNotFound    = "холды бронирования не найдены"
	msgHoldExpired     = "срок холдов бронирования истёк"
	msgAssignmentNotFd = "назначение не найдено"
)

// ErrorResponse модель ошибки API
type ErrorResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// RespondJSON отправляет JSON ответ
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// RespondError отправляет ошибку с сообщением
func RespondError(w http.ResponseWriter, status int, message string) {
	RespondJSON(w, status, ErrorResponse{Code: status, Message: message})
}

// RespondErrorWithDetails отправляет ошибку с подробностями
func RespondErrorWithDetails(w http.ResponseWriter, status int, message string, details interface{}) {
	RespondJSON(w, status, ErrorResponse{Code: status, Message: message, Details: details})
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusBadRequest, message)
}

func RespondNotFound(w http.ResponseWriter, message string) {
	RespondError(w, http.StatusNotFound, message)
}

func RespondInternalError(w http.ResponseWriter) {
	RespondError(w, http.StatusInternalServerError, msgInternalError)
}

// RespondUnavailable 503 с заголовком Retry-After
func RespondUnavailable(w http.ResponseWriter) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	RespondError(w, http.StatusServiceUnavailable, msgUnavailable)
}

// DecodeJSON декодирует тело запроса; неизвестные поля считаются ошибкой
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("empty request body")
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// StatusOf HTTP статус для ошибки движка
func StatusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrHoldNotFound), errors.Is(err, domain.ErrAssignmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientCapacity),
		errors.Is(err, domain.ErrResourceBlocked),
		errors.Is(err, domain.ErrOverlapConflict),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrHoldExpired):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTemporarilyUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondServiceError переводит ошибку движка в HTTP ответ и возвращает статус.
// Конфликты емкости, блокировки и пересечения отдаются с подробностями.
func RespondServiceError(w http.ResponseWriter, err error) int {
	var (
		capErr     *domain.InsufficientCapacityError
		blockedErr *domain.ResourceBlockedError
		overlapErr *domain.OverlapConflictError
	)

	switch {
	case errors.As(err, &capErr):
		RespondErrorWithDetails(w, http.StatusConflict, msgInsufficient, InsufficientCapacityDetails{
			ResourceType: string(capErr.Resource.Type),
			ResourceID:   capErr.Resource.ID,
			Date:         capErr.Date.String(),
			Requested:    capErr.Requested,
			Available:    capErr.Available,
		})
	case errors.As(err, &blockedErr):
		RespondErrorWithDetails(w, http.StatusConflict, msgBlocked, ResourceBlockedDetails{
			ResourceType: string(blockedErr.Resource.Type),
			ResourceID:   blockedErr.Resource.ID,
			Date:         blockedErr.Date.String(),
			Reason:       blockedErr.Reason,
		})
	case errors.As(err, &overlapErr):
		ids := make([]string, 0, len(overlapErr.ConflictingIDs))
		for _, id := range overlapErr.ConflictingIDs {
			ids = append(ids, id.String())
		}
		RespondErrorWithDetails(w, http.StatusConflict, msgOverlap, OverlapDetails{ConflictingIDs: ids})
	default:
		status := StatusOf(err)
		switch status {
		case http.StatusServiceUnavailable:
			RespondUnavailable(w)
		case http.StatusInternalServerError:
			RespondInternalError(w)
		default:
			RespondError(w, status, messageOf(err))
		}
		return status
	}
	return http.StatusConflict
}

func messageOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return msgInvalidInput
	case errors.Is(err, domain.ErrInvalidTransition):
		return msgInvalidStatus
	case errors.Is(err, domain.ErrHoldNotFound):
		return msgHoldNotFound
	case errors.Is(err, domain.ErrHoldExpired):
		return msgHoldExpired
	case errors.Is(err, domain.ErrAssignmentNotFound):
		return msgAssignmentNotFd
	default:
		return msgInternalError
	}
}

// InsufficientCapacityDetails подробности 409 при нехватке емкости
type InsufficientCapacityDetails struct {
	ResourceType string `json:"resourceType"`
	ResourceID   int64  `json:"resourceId"`
	Date         string `json:"date"`
	Requested    int    `json:"requested"`
	Available    int    `json:"available"`
}

// ResourceBlockedDetails подробности 409 при блокировке
type ResourceBlockedDetails struct {
	ResourceType string `json:"resourceType"`
	ResourceID   int64  `json:"resourceId"`
	Date         string `json:"date"`
	Reason       string `json:"reason"`
}

// OverlapDetails подробности 409 при пересечении назначений
type OverlapDetails struct {
	ConflictingIDs []string `json:"conflictingIds"`
}
