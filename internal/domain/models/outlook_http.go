package models

// Requests for outlook HTTP endpoints. Defined in domain for consistency and reuse.

type OutlookRequest struct {
	Location string `query:"location" json:"location" validate:"required"`
	Days     int    `query:"days" json:"days" default:"7" validate:"gte=1,lte=90"`
	Module   string `query:"module" json:"module" default:"demand" validate:"oneof=cashflow tourism rent demand"`
}

type AggregateRequest struct {
	Location string `query:"location" json:"location" validate:"required"`
	Days     int    `query:"days" json:"days" default:"7" validate:"gte=1,lte=90"`
}

// IngestRecord is the wire shape of one signal in an ingestion batch.
// Dates are ISO days; validation of ranges and lag happens in the ingestor.
type IngestRecord struct {
	Source string  `json:"source" validate:"required"`
	Metric string  `json:"metric" validate:"required"`
	Date   string  `json:"date" validate:"required,datetime=2006-01-02"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
}

type IngestRequest struct {
	Location string         `json:"location" validate:"required"`
	Signals  []IngestRecord `json:"signals" validate:"required,min=1,max=10000,dive"`
}

// RejectedSignal reports one rejected record of a batch with a stable kind.
type RejectedSignal struct {
	Index   int       `json:"index"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// BatchResult summarizes an ingestion batch. A rejected record never
// aborts the rest of the batch.
type BatchResult struct {
	Accepted int              `json:"accepted"`
	Rejected []RejectedSignal `json:"rejected,omitempty"`
}
