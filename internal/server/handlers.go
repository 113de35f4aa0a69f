package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/formgate/pkg/clientip"
	"github.com/dmitrymomot/formgate/pkg/identity"
	"github.com/dmitrymomot/formgate/svc/intake"
)

var errBadRequest = errors.New("malformed request")

type handlers struct {
	intake *intake.Service
	log    *slog.Logger
}

type submitResponse struct {
	ID     uuid.UUID `json:"id"`
	FormID uuid.UUID `json:"formId"`
}

// submit accepts JSON objects and urlencoded or multipart form posts.
func (h *handlers) submit(r *http.Request) Response {
	formID, err := uuid.Parse(chi.URLParam(r, "formID"))
	if err != nil {
		return errorResponse(intake.ErrFormNotFound, nil)
	}

	payload, err := readPayload(r)
	if err != nil {
		return failure(h.log, r, err, nil)
	}

	rcpt, err := h.intake.Submit(r.Context(), formID, clientip.GetIPFromContext(r.Context()), payload)
	if err != nil {
		return failure(h.log, r, err, &rcpt.RateLimit)
	}
	return ok(http.StatusCreated, submitResponse{ID: rcpt.Submission.ID, FormID: rcpt.Submission.FormID}, &rcpt.RateLimit)
}

type createFormRequest struct {
	Name string `json:"name"`
}

func (h *handlers) createForm(r *http.Request) Response {
	accountID, _ := identity.AccountIDFromContext(r.Context())

	var req createFormRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 4<<10)).Decode(&req); err != nil {
		return errorResponse(fmt.Errorf("%w: %v", errBadRequest, err), nil)
	}

	form, rl, err := h.intake.CreateForm(r.Context(), accountID, req.Name)
	if err != nil {
		return failure(h.log, r, err, &rl)
	}
	return ok(http.StatusCreated, form, &rl)
}

func (h *handlers) listSubmissions(r *http.Request) Response {
	accountID, _ := identity.AccountIDFromContext(r.Context())
	formID, err := uuid.Parse(chi.URLParam(r, "formID"))
	if err != nil {
		return errorResponse(intake.ErrFormNotFound, nil)
	}
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("perPage"))

	p, err := h.intake.ListSubmissions(r.Context(), accountID, formID, page, perPage)
	if err != nil {
		return failure(h.log, r, err, nil)
	}
	return ok(http.StatusOK, p, nil)
}

func (h *handlers) usage(r *http.Request) Response {
	accountID, _ := identity.AccountIDFromContext(r.Context())
	u, err := h.intake.Usage(r.Context(), accountID)
	if err != nil {
		return failure(h.log, r, err, nil)
	}
	return ok(http.StatusOK, u, nil)
}

func readPayload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(nil, r.Body, intake.MaxPayloadBytes)
		if err := r.ParseMultipartForm(intake.MaxPayloadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		fields := make(map[string]any, len(r.PostForm))
		for k, v := range r.PostForm {
			if len(v) == 1 {
				fields[k] = v[0]
			} else {
				fields[k] = v
			}
		}
		return json.Marshal(fields)
	default:
		body, err := io.ReadAll(io.LimitReader(r.Body, intake.MaxPayloadBytes+1))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		return body, nil
	}
}
