package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/pkg/errors"

	"anistream/models"
	"anistream/services/catalog"
)

func writeData(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, models.Envelope{Success: true, Data: data})
}

// writeError maps err onto the error envelope: validation 400, not found
// 404, upstream failures keep the upstream status when it is an error
// status and 502 otherwise, everything else 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := &models.EnvelopeError{Message: err.Error(), URL: r.URL.RequestURI()}

	var (
		ve *catalog.ValidationError
		nf *catalog.NotFoundError
		ue *catalog.UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		body.Message = ve.Error()
	case errors.As(err, &nf):
		status = http.StatusNotFound
		body.Message = nf.Error()
	case errors.As(err, &ue):
		status = http.StatusBadGateway
		if ue.Status >= 400 {
			status = ue.Status
		}
		if ue.Message != "" && ue.Status > 0 {
			body.Message = ue.Message
		}
		if len(ue.Details) > 0 {
			body.Details = ue.Details
		}
	}

	log.Printf("[api] %s %s -> %d: %v", r.Method, r.URL.RequestURI(), status, err)
	writeEnvelope(w, status, models.Envelope{Success: false, Error: body})
}

func writeEnvelope(w http.ResponseWriter, status int, env models.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}

// NotFound answers unknown routes with the error envelope.
func NotFound(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, http.StatusNotFound, models.Envelope{Error: &models.EnvelopeError{
		Message: "route not found",
		URL:     r.URL.RequestURI(),
	}})
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeEnvelope(w, http.StatusMethodNotAllowed, models.Envelope{Error: &models.EnvelopeError{
		Message: r.Method + " not allowed",
		URL:     r.URL.RequestURI(),
	}})
}
