package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"switchwrapper/internal/model"
)

// ErrorHandler middleware handles panics
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if err, ok := recovered.(string); ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": err,
				},
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "An unexpected error occurred",
				},
			})
		}
		c.Abort()
	})
}

// Classify maps a pipeline error to an HTTP status and error code. The four
// data errors are the caller's fault and map to 422; anything else is 500.
func Classify(err error) (int, string) {
	var (
		mapping   *model.MappingError
		alignment *model.ProfileAlignmentError
		topology  *model.TopologyError
		interp    *model.InterpretationError
	)
	switch {
	case errors.As(err, &mapping):
		return http.StatusUnprocessableEntity, "MAPPING_ERROR"
	case errors.As(err, &alignment):
		return http.StatusUnprocessableEntity, "PROFILE_ALIGNMENT_ERROR"
	case errors.As(err, &topology):
		return http.StatusUnprocessableEntity, "TOPOLOGY_ERROR"
	case errors.As(err, &interp):
		return http.StatusUnprocessableEntity, "INTERPRETATION_ERROR"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// Details exposes the table and id of a typed pipeline error.
func Details(err error) map[string]interface{} {
	var table, id string
	var (
		mapping   *model.MappingError
		alignment *model.ProfileAlignmentError
		topology  *model.TopologyError
		interp    *model.InterpretationError
	)
	switch {
	case errors.As(err, &mapping):
		table, id = mapping.Table, mapping.ID
	case errors.As(err, &alignment):
		table, id = alignment.Table, alignment.ID
	case errors.As(err, &topology):
		table, id = topology.Table, topology.ID
	case errors.As(err, &interp):
		table, id = interp.Table, interp.ID
	default:
		return nil
	}
	details := map[string]interface{}{"table": table}
	if id != "" {
		details["id"] = id
	}
	return details
}
