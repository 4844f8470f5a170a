package pkg

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var ExposeErrorDetails = false

func init() {
	if gin.DebugMode == gin.Mode() || gin.TestMode == gin.Mode() {
		ExposeErrorDetails = true
	}
}

// ErrorCode defines a standardized error code
type ErrorCode struct {
	Code    string
	Status  int
	Message string // default message
}

var (
	// Generic app
	ErrInvalidInputCode   = ErrorCode{Code: "APP_INVALID_INPUT", Status: http.StatusUnprocessableEntity, Message: "invalid input"}
	ErrServerCode         = ErrorCode{Code: "APP_INTERNAL", Status: http.StatusInternalServerError, Message: "internal server error"}
	ErrRecordNotFoundCode = ErrorCode{Code: "APP_NOT_FOUND", Status: http.StatusNotFound, Message: "record not found"}

	// Feature pipeline
	ErrMalformedTimestampCode = ErrorCode{Code: "FEATURE_MALFORMED_TIMESTAMP", Status: http.StatusUnprocessableEntity, Message: "malformed transaction timestamp"}
	ErrSchemaMismatchCode     = ErrorCode{Code: "FEATURE_SCHEMA_MISMATCH", Status: http.StatusInternalServerError, Message: "feature schema mismatch"}

	// Training
	ErrUnsupportedModelKindCode = ErrorCode{Code: "TRAIN_UNSUPPORTED_MODEL_KIND", Status: http.StatusBadRequest, Message: "unsupported model kind"}
	ErrDataLoadCode             = ErrorCode{Code: "TRAIN_DATA_LOAD", Status: http.StatusInternalServerError, Message: "failed to load dataset"}
	ErrTrainerStateCode         = ErrorCode{Code: "TRAIN_INVALID_STATE", Status: http.StatusConflict, Message: "trainer precondition not met"}

	// Registry
	ErrModelNotFoundCode = ErrorCode{Code: "REGISTRY_MODEL_NOT_FOUND", Status: http.StatusNotFound, Message: "model not found"}
	ErrRegistryCode      = ErrorCode{Code: "REGISTRY_INTERNAL", Status: http.StatusInternalServerError, Message: "registry error"}
)

type AppError struct {
	Code    ErrorCode
	Message string // public-facing message
	Cause   error  // internal cause (wrapped)
}

func (e AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}
func (e AppError) Unwrap() error { return e.Cause }

func NewAppError(code ErrorCode, msg string, cause error) error {
	return AppError{Code: code, Message: msg, Cause: cause}
}

// IsCode reports whether err carries the given ErrorCode.
func IsCode(err error, code ErrorCode) bool {
	var appErr AppError
	return errors.As(err, &appErr) && appErr.Code.Code == code.Code
}

// ErrorResponse defines the standardized error response format
type ErrorResponse struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ToErrorResponse converts an error into an ErrorResponse, logging details and optionally exposing error messages.
// If the error is not an AppError, it is converted to a generic 500 error.
func ToErrorResponse(logger *zap.Logger, traceID string, err error) ErrorResponse {
	var appErr AppError
	if errors.As(err, &appErr) {
		resp := ErrorResponse{
			Status:  appErr.Code.Status,
			Code:    appErr.Code.Code,
			Message: appErr.Message,
		}
		logger.Error("application error", zap.String(TraceId, traceID), zap.Error(err))
		if ExposeErrorDetails {
			resp.Details = err.Error()
		}
		return resp
	}
	// Unknown error : 500
	resp := ErrorResponse{
		Status:  ErrServerCode.Status,
		Code:    ErrServerCode.Code,
		Message: ErrServerCode.Message,
	}
	logger.Error("application error", zap.String(TraceId, traceID), zap.Error(err))
	if ExposeErrorDetails {
		resp.Details = err.Error()
	}
	return resp
}
