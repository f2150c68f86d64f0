package api

import (
	"github.com/labstack/echo/v4"

	xhttp "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/http"
)

// Router groups the API handlers behind a single route registrar.
type Router struct {
	outlook *OutlookHandler
	signals *SignalsHandler
}

func NewRouter(outlook *OutlookHandler, signals *SignalsHandler) *Router {
	return &Router{outlook: outlook, signals: signals}
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	r.outlook.RegisterRoutes(e)
	r.signals.RegisterRoutes(e)
}

var _ xhttp.Handler = (*Router)(nil)
