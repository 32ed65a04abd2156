package api

import (
	"errors"
	"net/http"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
)

func httpStatusForDomainError(err error) (int, bool) {
	var domErr *core.DomainError
	if !errors.As(err, &domErr) || domErr == nil {
		return 0, false
	}

	switch domErr.Category {
	case core.ErrCatValidation:
		return http.StatusUnprocessableEntity, true
	case core.ErrCatNotFound:
		return http.StatusNotFound, true
	case core.ErrCatState:
		if domErr.Code == core.CodeWorkflowRunning || domErr.Code == core.CodeWorkflowNotRunning {
			return http.StatusConflict, true
		}
		return http.StatusUnprocessableEntity, true
	case core.ErrCatTimeout:
		return http.StatusGatewayTimeout, true
	default:
		if domErr.Code == core.CodeRunCancelled {
			return http.StatusServiceUnavailable, true
		}
		return http.StatusInternalServerError, true
	}
}

// respondDomainError maps err to a status code and writes it with the
// error code and details.
func respondDomainError(w http.ResponseWriter, err error) {
	status, ok := httpStatusForDomainError(err)
	if !ok {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var domErr *core.DomainError
	errors.As(err, &domErr)

	body := map[string]interface{}{
		"error": domErr.Message,
		"code":  domErr.Code,
	}
	if len(domErr.Details) > 0 {
		body["details"] = domErr.Details
	}
	respondJSON(w, status, body)
}
