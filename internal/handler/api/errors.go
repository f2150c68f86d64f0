package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	xhttp "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/http"
)

// statusForKind maps stable domain error kinds to HTTP statuses. The
// envelope always carries the kind so clients can branch without
// parsing messages.
func statusForKind(kind models.ErrorKind) int {
	switch kind {
	case models.KindInvalidSignal:
		return http.StatusBadRequest
	case models.KindModelInputMismatch, models.KindInsufficientHistory:
		return http.StatusUnprocessableEntity
	case models.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case models.KindUpstreamTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func domainErrorResponse(c echo.Context, err error) error {
	kind := models.KindOf(err)
	appErr := xhttp.NewAppError("ERR_"+strings.ToUpper(string(kind)), "", err.Error(), statusForKind(kind))
	return xhttp.AppErrorResponse(c, appErr)
}
