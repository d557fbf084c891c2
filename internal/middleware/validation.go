package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/temcen/placerank/internal/validation"
)

const maxBodyBytes = 64 << 10

// ValidationMiddleware checks request bodies and query strings before they reach handlers.
type ValidationMiddleware struct {
	validator *validation.SchemaValidator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware(validator *validation.SchemaValidator) *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validator,
	}
}

func (vm *ValidationMiddleware) ValidateFeedback() gin.HandlerFunc {
	return vm.validateRequestBody(validation.SchemaFeedback)
}

func (vm *ValidationMiddleware) ValidateVisit() gin.HandlerFunc {
	return vm.validateRequestBody(validation.SchemaVisit)
}

func (vm *ValidationMiddleware) ValidateSearch() gin.HandlerFunc {
	return vm.validateRequestBody(validation.SchemaSearch)
}

func (vm *ValidationMiddleware) ValidateUserProfile() gin.HandlerFunc {
	return vm.validateRequestBody(validation.SchemaUserProfile)
}

// validateRequestBody rejects bodies that do not match the named schema and restores the
// body for the handler.
func (vm *ValidationMiddleware) validateRequestBody(schemaName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		bodyBytes, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "BODY_READ_ERROR", "Failed to read request body", nil)
			return
		}
		if len(bodyBytes) > maxBodyBytes {
			abortWithError(c, http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "Request body is too large", nil)
			return
		}
		if len(bytes.TrimSpace(bodyBytes)) == 0 {
			abortWithError(c, http.StatusBadRequest, "EMPTY_BODY", "Request body is required", nil)
			return
		}

		c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

		result := vm.validator.Validate(schemaName, bodyBytes)
		if !result.Valid {
			code := "VALIDATION_ERROR"
			if len(result.Errors) == 1 && result.Errors[0].Code == "INVALID_JSON" {
				code = "INVALID_JSON"
			}
			abortWithError(c, http.StatusBadRequest, code, "Request validation failed", result.Details())
			return
		}

		c.Next()
	}
}

// ValidateRankingQuery checks the optional situational parameters of a ranking request.
func (vm *ValidationMiddleware) ValidateRankingQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		errors := make([]validation.ValidationError, 0)

		if lat := c.Query("lat"); lat != "" && !isFloatInRange(lat, -90, 90) {
			errors = append(errors, queryError("lat", "Latitude must be a number between -90 and 90", lat))
		}
		if lng := c.Query("lng"); lng != "" && !isFloatInRange(lng, -180, 180) {
			errors = append(errors, queryError("lng", "Longitude must be a number between -180 and 180", lng))
		}
		if (c.Query("lat") == "") != (c.Query("lng") == "") {
			errors = append(errors, queryError("lat", "Latitude and longitude must be given together", nil))
		}
		if at := c.Query("at"); at != "" {
			if _, err := time.Parse(time.RFC3339, at); err != nil {
				errors = append(errors, queryError("at", "at must be an RFC 3339 timestamp", at))
			}
		}
		for _, name := range []string{"mood", "weather", "region"} {
			if value := c.Query(name); len(value) > 100 || strings.ContainsAny(value, "\x00\n\r") {
				errors = append(errors, queryError(name, name+" is not a valid value", value))
			}
		}

		if len(errors) > 0 {
			result := &validation.ValidationResult{Valid: false, Errors: errors}
			abortWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Request validation failed", result.Details())
			return
		}

		c.Next()
	}
}

func queryError(field, message string, value interface{}) validation.ValidationError {
	return validation.ValidationError{
		Field:   field,
		Message: message,
		Code:    "INVALID_QUERY_PARAM",
		Value:   value,
	}
}

func isFloatInRange(value string, min, max float64) bool {
	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	return num >= min && num <= max
}
