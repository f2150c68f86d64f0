package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/domain/models"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/service/pos"
	"github.com/varunnair1234/HarborProject-CruzHacks26/internal/usecase"
	xhttp "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/http"
	xlogger "github.com/varunnair1234/HarborProject-CruzHacks26/pkg/logger"
)

// SignalsHandler accepts signal submissions, both JSON batches and raw
// POS CSV exports.
type SignalsHandler struct {
	logger   *xlogger.Logger
	ingestor *usecase.SignalIngestor
}

func NewSignalsHandler(logger *xlogger.Logger, ingestor *usecase.SignalIngestor) *SignalsHandler {
	return &SignalsHandler{logger: logger, ingestor: ingestor}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/signals", h.Ingest)
	g.POST("/signals/pos", h.IngestPOS)
}

func (h *SignalsHandler) Ingest(c echo.Context) error {
	req := &models.IngestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.ingestor.IngestBatch(c.Request().Context(), req.Location, req.Signals)
	if err != nil {
		h.logger.Error("ingest batch error", xlogger.Error(err))
		return domainErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// posUploadResponse joins the CSV parse diagnostics with the batch result
// so callers see both rows their export lost and signals validation
// rejected.
type posUploadResponse struct {
	Days     int                     `json:"days"`
	Skipped  []pos.RowError          `json:"skipped,omitempty"`
	Accepted int                     `json:"accepted"`
	Rejected []models.RejectedSignal `json:"rejected,omitempty"`
}

func (h *SignalsHandler) IngestPOS(c echo.Context) error {
	location := c.FormValue("location")
	if location == "" {
		location = c.QueryParam("location")
	}
	if location == "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "location", Message: "location is required",
		}})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code: "ERR_REQUIRED", Field: "file", Message: "csv upload is required",
		}})
	}

	f, err := fh.Open()
	if err != nil {
		return xhttp.DataResponse(c, http.StatusInternalServerError, "cannot read upload")
	}
	defer f.Close()

	parsed, err := pos.Parse(f)
	if err != nil {
		h.logger.Warn("pos upload rejected", xlogger.String("file", fh.Filename), xlogger.Error(err))
		return domainErrorResponse(c, err)
	}

	res, err := h.ingestor.IngestBatch(c.Request().Context(), location, parsed.Records)
	if err != nil {
		h.logger.Error("pos ingest error", xlogger.Error(err))
		return domainErrorResponse(c, err)
	}

	h.logger.Info("pos upload ingested",
		xlogger.String("location", location),
		xlogger.String("file", fh.Filename),
		xlogger.Int("days", parsed.Days),
		xlogger.Int("accepted", res.Accepted),
		xlogger.Int("skipped_rows", len(parsed.Skipped)))

	return xhttp.SuccessResponse(c, &posUploadResponse{
		Days:     parsed.Days,
		Skipped:  parsed.Skipped,
		Accepted: res.Accepted,
		Rejected: res.Rejected,
	})
}
