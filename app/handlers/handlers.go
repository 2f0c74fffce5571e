// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"fmt"
	"reflect"
	"strconv"

	"github.com/amirphl/photo-moderation/app/dto"
	businessflow "github.com/amirphl/photo-moderation/business_flow"
	"github.com/amirphl/photo-moderation/utils"
	"github.com/getsentry/sentry-go"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"go.uber.org/zap"
)

// baseHandler holds what every handler needs to answer a request
type baseHandler struct {
	validator *validator.Validate
	logger    *zap.Logger
}

func newBaseHandler(logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{validator: validator.New(), logger: logger}
}

func (h *baseHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *baseHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// validationFailed writes the 400 response for a failed validator.Struct call
func (h *baseHandler) validationFailed(c fiber.Ctx, err error) error {
	var validationErrors []string
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			validationErrors = append(validationErrors, getValidationErrorMessage(fe))
		}
	}
	return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", businessflow.CodeValidation, validationErrors)
}

// handleFlowError maps a flow error to a status code, logs it and reports
// server side failures to Sentry
func (h *baseHandler) handleFlowError(c fiber.Ctx, err error, fallback string) error {
	fields := []zap.Field{
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.String("request_id", requestid.FromContext(c)),
		zap.Error(err),
	}

	be, ok := businessflow.AsBusinessError(err)
	if !ok {
		h.logger.Error(fallback, fields...)
		captureException(c, err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, fallback, "INTERNAL_ERROR", nil)
	}

	fields = append(fields, zap.String("code", be.Code))
	switch be.Code {
	case businessflow.CodeValidation, businessflow.CodeNotFound, businessflow.CodeUnauthorized, businessflow.CodeInvalidOperation:
		h.logger.Warn(be.Message, fields...)
	default:
		h.logger.Error(be.Message, fields...)
		captureException(c, err)
	}
	return h.ErrorResponse(c, statusForCode(be.Code), be.Message, be.Code, nil)
}

func statusForCode(code string) int {
	switch code {
	case businessflow.CodeValidation, businessflow.CodeInvalidOperation:
		return fiber.StatusBadRequest
	case businessflow.CodeUnauthorized:
		return fiber.StatusForbidden
	case businessflow.CodeNotFound:
		return fiber.StatusNotFound
	case businessflow.CodeConflict:
		return fiber.StatusConflict
	case businessflow.CodeDependencyFailure:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

func captureException(c fiber.Ctx, err error) {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("method", c.Method())
		scope.SetTag("path", c.Path())
		scope.SetTag("request_id", requestid.FromContext(c))
	})
	hub.CaptureException(err)
}

// createRequestContext builds the context passed to flows. Callers must call the cancel func.
func (h *baseHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), utils.RequestTimeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, requestid.FromContext(c))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, utils.RequestTimeout)
	if userID, ok := currentUserID(c); ok {
		ctx = context.WithValue(ctx, utils.UserIDKey, userID)
	}
	if username, ok := currentUsername(c); ok {
		ctx = context.WithValue(ctx, utils.UsernameKey, username)
	}
	return ctx, cancel
}

func currentUserID(c fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(utils.LocalsUserID).(uint)
	return id, ok && id != 0
}

func currentUsername(c fiber.Ctx) (string, bool) {
	name, ok := c.Locals(utils.LocalsUsername).(string)
	return name, ok && name != ""
}

// currentUser returns the identity the auth middleware stored
func currentUser(c fiber.Ctx) (uint, string, bool) {
	id, okID := currentUserID(c)
	name, okName := currentUsername(c)
	return id, name, okID && okName
}

func (h *baseHandler) unauthenticated(c fiber.Ctx) error {
	return h.ErrorResponse(c, fiber.StatusUnauthorized, "Authentication required", "AUTHENTICATION_REQUIRED", nil)
}

func (h *baseHandler) invalidParam(c fiber.Ctx, name string) error {
	return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid "+name, businessflow.CodeValidation, nil)
}

// parseIDParam reads a positive integer route parameter
func parseIDParam(c fiber.Ctx, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// parsePageQuery reads the optional page query parameter; absent means 1
func parsePageQuery(c fiber.Ctx) (int, bool) {
	raw := c.Query("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, false
	}
	return page, true
}

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "min":
		if err.Kind() == reflect.Slice {
			return err.Field() + " must contain at least " + err.Param() + " items"
		}
		return err.Field() + " must be at least " + err.Param() + " characters"
	case "max":
		if err.Kind() == reflect.Slice {
			return err.Field() + " must contain at most " + err.Param() + " items"
		}
		return err.Field() + " must be at most " + err.Param() + " characters"
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}
