package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	analyticsdomain "github.com/smallbiznis/shoecare/internal/analytics/domain"
	auditdomain "github.com/smallbiznis/shoecare/internal/audit/domain"
	"github.com/smallbiznis/shoecare/internal/authorization"
	catalogdomain "github.com/smallbiznis/shoecare/internal/catalog/domain"
	customerdomain "github.com/smallbiznis/shoecare/internal/customer/domain"
	expensedomain "github.com/smallbiznis/shoecare/internal/expense/domain"
	orderdomain "github.com/smallbiznis/shoecare/internal/order/domain"
	"github.com/smallbiznis/shoecare/internal/photo"
	"github.com/smallbiznis/shoecare/pkg/db/pagination"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authorization.ErrInvalidRole):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, orderdomain.ErrOrderCompleted),
		errors.Is(err, orderdomain.ErrSettlementRequired):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	case errors.Is(err, orderdomain.ErrSettlementFailed):
		return http.StatusInternalServerError, errorPayload{
			Type:    "settlement_failed",
			Message: "settlement failed, no changes were saved",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog reports the response type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	if status >= http.StatusInternalServerError {
		return payload.Type, "internal"
	}
	return payload.Type, payload.Type
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, pagination.ErrInvalidPageToken):
		return true
	case isCustomerValidationError(err),
		isCatalogValidationError(err),
		isOrderValidationError(err),
		isPhotoValidationError(err),
		isExpenseValidationError(err),
		isAnalyticsValidationError(err),
		isAuditValidationError(err):
		return true
	default:
		return false
	}
}

func isCustomerValidationError(err error) bool {
	switch {
	case errors.Is(err, customerdomain.ErrInvalidName),
		errors.Is(err, customerdomain.ErrInvalidWhatsApp),
		errors.Is(err, customerdomain.ErrDuplicateWhatsApp),
		errors.Is(err, customerdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isCatalogValidationError(err error) bool {
	switch {
	case errors.Is(err, catalogdomain.ErrInvalidName),
		errors.Is(err, catalogdomain.ErrInvalidPrice),
		errors.Is(err, catalogdomain.ErrInvalidDuration),
		errors.Is(err, catalogdomain.ErrInvalidID),
		errors.Is(err, catalogdomain.ErrServiceInUse):
		return true
	default:
		return false
	}
}

func isOrderValidationError(err error) bool {
	switch {
	case errors.Is(err, orderdomain.ErrInvalidID),
		errors.Is(err, orderdomain.ErrCustomerRequired),
		errors.Is(err, orderdomain.ErrCustomerNotFound),
		errors.Is(err, orderdomain.ErrItemsRequired),
		errors.Is(err, orderdomain.ErrServiceRequired),
		errors.Is(err, orderdomain.ErrServiceNotFound),
		errors.Is(err, orderdomain.ErrBeforePhotoRequired),
		errors.Is(err, orderdomain.ErrAfterPhotoRequired),
		errors.Is(err, orderdomain.ErrInvalidStatus),
		errors.Is(err, orderdomain.ErrInvalidPaymentMethod):
		return true
	default:
		return false
	}
}

func isPhotoValidationError(err error) bool {
	return errors.Is(err, photo.ErrEmptyImage) || errors.Is(err, photo.ErrInvalidImage)
}

func isExpenseValidationError(err error) bool {
	switch {
	case errors.Is(err, expensedomain.ErrInvalidCategory),
		errors.Is(err, expensedomain.ErrInvalidAmount),
		errors.Is(err, expensedomain.ErrInvalidTimeRange),
		errors.Is(err, expensedomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isAnalyticsValidationError(err error) bool {
	return errors.Is(err, analyticsdomain.ErrInvalidDateRange)
}

func isAuditValidationError(err error) bool {
	switch {
	case errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, auditdomain.ErrInvalidAction):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrItemNotFound),
		errors.Is(err, expensedomain.ErrNotFound),
		errors.Is(err, photo.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	switch {
	case errors.Is(err, orderdomain.ErrOrderCompleted):
		return "order is already completed"
	case errors.Is(err, orderdomain.ErrSettlementRequired):
		return "unpaid order must be settled to complete"
	}
	return "conflict"
}

// validationErrorCode returns the sentinel text of a domain error. Wrapped
// errors are unwrapped down to the sentinel.
func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}

var validationFields = map[string]string{
	"duplicate_whatsapp":    "whatsapp",
	"customer_required":     "customer_id",
	"customer_not_found":    "customer_id",
	"items_required":        "items",
	"service_required":      "service_id",
	"service_not_found":     "service_id",
	"service_in_use":        "service_id",
	"before_photo_required": "before_photo",
	"after_photo_required":  "photo",
	"empty_image":           "photo",
	"invalid_image":         "photo",
	"invalid_date_range":    "start_date",
	"invalid_page_token":    "page_token",
	"invalid_time_range":    "from",
	"invalid_request":       "request",
}

func validationErrorField(code string) string {
	if field, ok := validationFields[code]; ok {
		return field
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

var validationMessages = map[string]string{
	"invalid_request":        "invalid request",
	"invalid_name":           "name is required",
	"invalid_whatsapp":       "whatsapp number must contain 6 to 15 digits",
	"duplicate_whatsapp":     "a customer with this whatsapp number already exists",
	"invalid_id":             "invalid id",
	"invalid_price":          "price must not be negative",
	"invalid_duration":       "duration must be at least one day",
	"service_in_use":         "service is referenced by existing orders",
	"customer_required":      "customer is required",
	"customer_not_found":     "customer does not exist",
	"items_required":         "at least one item is required",
	"service_required":       "service is required",
	"service_not_found":      "service does not exist",
	"before_photo_required":  "before photo is required",
	"after_photo_required":   "after photo is required",
	"empty_image":            "image is empty",
	"invalid_image":          "image could not be decoded",
	"invalid_status":         "invalid status",
	"invalid_payment_method": "invalid payment method",
	"invalid_category":       "invalid category",
	"invalid_amount":         "amount must be positive",
	"invalid_time_range":     "invalid time range",
	"invalid_date_range":     "invalid date range",
	"invalid_page_token":     "invalid page token",
}

func validationErrorMessage(code string) string {
	if msg, ok := validationMessages[code]; ok {
		return msg
	}
	return "invalid value"
}
