package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"door_shop_backend/internal/services"
	"door_shop_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// apiErrorFor maps a service error onto the HTTP status and APIError body.
func apiErrorFor(err error, fallback string) *utils.APIError {
	var stockErr *services.StockError
	var stateErr *services.StateError
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		details := validationErr.Constraint
		return utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, validationErr.Error(), details)
	case errors.As(err, &stockErr):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, stockErr.Error(), "")
	case errors.Is(err, services.ErrNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, err.Error(), "")
	case errors.As(err, &stateErr):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeInvalidState, stateErr.Error(), "")
	default:
		return utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error")
	}
}

// respondServiceError logs err and writes the mapped error response.
func respondServiceError(c *gin.Context, err error, where, fallback string) {
	apiErr := apiErrorFor(err, fallback)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		utils.LogError(err, where)
	} else {
		utils.LogDebug(where, map[string]interface{}{"error": err.Error(), "status": apiErr.StatusCode})
	}
	utils.RespondWithError(c, apiErr)
}

// bindingDetails flattens validator errors into "field: tag" pairs.
func bindingDetails(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Namespace()+": "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

func bindJSON(c *gin.Context, dst interface{}, where string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.LogDebug(where+": invalid payload", map[string]interface{}{"error": err.Error()})
		utils.RespondValidationFailed(c, bindingDetails(err))
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dst interface{}, where string) bool {
	if err := c.ShouldBindQuery(dst); err != nil {
		utils.LogDebug(where+": invalid query", map[string]interface{}{"error": err.Error()})
		utils.RespondValidationFailed(c, bindingDetails(err))
		return false
	}
	return true
}

// idParam parses a positive int64 path parameter, responding 400 otherwise.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", c.Param(name)))
		return 0, false
	}
	return id, true
}

// actorID returns the authenticated user id set by the auth middleware.
func actorID(c *gin.Context) (int64, bool) {
	raw, exists := c.Get("userID")
	id, ok := raw.(int64)
	if !exists || !ok || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return 0, false
	}
	return id, true
}

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultPageSize)))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

func optionalQuery(c *gin.Context, key string) *string {
	v := strings.TrimSpace(c.Query(key))
	if v == "" {
		return nil
	}
	return &v
}

func paged(data interface{}, total, page, pageSize int) gin.H {
	return gin.H{"data": data, "total": total, "page": page, "page_size": pageSize}
}
