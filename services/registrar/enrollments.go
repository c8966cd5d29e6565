package registrar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"regassist-backend/services/enrollment"

	"go.opentelemetry.io/otel/codes"
)

type enrollmentRequest struct {
	Course    string `json:"course"`
	TimeBlock string `json:"timeBlock"`
}

type enrollmentResponse struct {
	Record enrollment.Record `json:"record"`
}

type enrollmentListResponse struct {
	Records []enrollment.Record `json:"records"`
}

// identity resolves the caller's name and hashes it, ok is false (and a
// response has been written) when that is not possible.
func (s Service) identity(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	session, ok := requireSession(w, r)
	if !ok {
		return "", false
	}
	name, ok, err := s.names.Get(ctx, session)
	if err != nil {
		writeError(ctx, w, http.StatusBadGateway, "failed to reach the portal")
		return "", false
	}
	if !ok || name == "" {
		writeError(ctx, w, http.StatusUnauthorized, "not authenticated")
		return "", false
	}
	return s.store.Identity(name), true
}

func (s Service) RecordEnrollment(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "registrar:RecordEnrollment")
	defer span.End()

	var req enrollmentRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity, ok := s.identity(ctx, w, r)
	if !ok {
		return
	}

	record, err := s.store.RecordAttempt(ctx, identity, req.Course, req.TimeBlock)
	if errors.Is(err, enrollment.ErrIncompleteRecord) {
		writeError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to record enrollment attempt")
		writeError(ctx, w, http.StatusInternalServerError, "failed to record enrollment attempt")
		return
	}
	writeJson(ctx, w, http.StatusOK, enrollmentResponse{Record: record})
}

func (s Service) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "registrar:ListEnrollments")
	defer span.End()

	identity, ok := s.identity(ctx, w, r)
	if !ok {
		return
	}

	records, err := s.store.ListByIdentity(ctx, identity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list enrollment records")
		writeError(ctx, w, http.StatusInternalServerError, "failed to list enrollment records")
		return
	}
	writeJson(ctx, w, http.StatusOK, enrollmentListResponse{Records: records})
}

func (s Service) GetEnrollment(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "registrar:GetEnrollment")
	defer span.End()

	identity, ok := s.identity(ctx, w, r)
	if !ok {
		return
	}

	record, found, err := s.store.Get(ctx, identity, r.PathValue("course"), r.PathValue("timeBlock"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get enrollment record")
		writeError(ctx, w, http.StatusInternalServerError, "failed to get enrollment record")
		return
	}
	if !found {
		writeError(ctx, w, http.StatusNotFound, "no enrollment attempts for this block")
		return
	}
	writeJson(ctx, w, http.StatusOK, enrollmentResponse{Record: record})
}

// DeleteEnrollment forgets the attempts made for a block, the portal is not
// touched.
func (s Service) DeleteEnrollment(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "registrar:DeleteEnrollment")
	defer span.End()

	identity, ok := s.identity(ctx, w, r)
	if !ok {
		return
	}

	deleted, err := s.store.Delete(ctx, identity, r.PathValue("course"), r.PathValue("timeBlock"))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete enrollment record")
		writeError(ctx, w, http.StatusInternalServerError, "failed to delete enrollment record")
		return
	}
	if !deleted {
		writeError(ctx, w, http.StatusNotFound, "no enrollment attempts for this block")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
