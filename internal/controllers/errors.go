package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"route_registry/internal/apperrors"
)

// respondError maps the error taxonomy onto HTTP statuses in one place so
// every handler surfaces the same structured detail for the same failure.
func respondError(c *gin.Context, err error) {
	var validation *apperrors.ValidationError
	if errors.As(err, &validation) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error(), "field": validation.Field})
		return
	}

	var invalidArg *apperrors.InvalidArgumentError
	if errors.As(err, &invalidArg) {
		c.JSON(http.StatusBadRequest, gin.H{"error": invalidArg.Error()})
		return
	}

	var missing *apperrors.NotFoundError
	if errors.As(err, &missing) {
		c.JSON(http.StatusNotFound, gin.H{"error": missing.Error()})
		return
	}

	var duplicate *apperrors.DuplicateNameError
	if errors.As(err, &duplicate) {
		c.JSON(http.StatusConflict, gin.H{
			"error":             duplicate.Error(),
			"conflicting_route": duplicate.Conflicting,
		})
		return
	}

	var zeroDistance *apperrors.ZeroDistanceRouteError
	if errors.As(err, &zeroDistance) {
		c.JSON(http.StatusConflict, gin.H{
			"error": zeroDistance.Error(),
			"from":  gin.H{"x": zeroDistance.FromX, "y": zeroDistance.FromY},
			"to":    gin.H{"x": zeroDistance.ToX, "y": zeroDistance.ToY},
		})
		return
	}

	var invalidRebind *apperrors.InvalidRebindTargetError
	if errors.As(err, &invalidRebind) {
		c.JSON(http.StatusConflict, gin.H{"error": invalidRebind.Error(), "relation": invalidRebind.Relation})
		return
	}

	var missingRebind *apperrors.MissingRebindTargetError
	if errors.As(err, &missingRebind) {
		c.JSON(http.StatusConflict, gin.H{"error": missingRebind.Error(), "relation": missingRebind.Relation})
		return
	}

	var aborted *apperrors.ImportAbortedError
	if errors.As(err, &aborted) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":        aborted.Error(),
			"operation_id": aborted.OperationID,
			"errors":       aborted.Errors,
		})
		return
	}

	logrus.WithError(err).Error("unhandled error")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
