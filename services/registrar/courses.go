package registrar

import (
	"errors"
	"log/slog"
	"net/http"

	"regassist-backend/lib/scrapers/portal"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type courseResponse struct {
	Course portal.Course `json:"course"`
}

// remoteErrorStatus maps an error reported by the portal to the status the
// frontend expects, an offering outside the term is not a failure.
func remoteErrorStatus(kind portal.RemoteErrorKind) int {
	switch kind {
	case portal.RemoteErrorNotInTerm:
		return http.StatusOK
	case portal.RemoteErrorNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func (s Service) GetCourse(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "registrar:GetCourse")
	defer span.End()

	name := r.PathValue("name")
	span.SetAttributes(attribute.String("course", name))

	course, err := s.portal.FetchCourse(ctx, name)

	var remoteErr *portal.RemoteError
	switch {
	case errors.As(err, &remoteErr):
		span.SetAttributes(attribute.String("remote_error", remoteErr.Kind.String()))
		writeError(ctx, w, remoteErrorStatus(remoteErr.Kind), remoteErr.Message)
	case errors.Is(err, portal.ErrMalformedCourseDocument):
		span.RecordError(err)
		span.SetStatus(codes.Error, "portal returned a malformed course document")
		slog.WarnContext(ctx, "malformed course document", "course", name, "err", err)
		writeError(ctx, w, http.StatusBadGateway, err.Error())
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch course")
		slog.ErrorContext(ctx, "failed to fetch course", "course", name, "err", err)
		writeError(ctx, w, http.StatusBadGateway, "failed to reach the portal")
	default:
		writeJson(ctx, w, http.StatusOK, courseResponse{Course: course})
	}
}

func (s Service) GetCourseRaw(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "registrar:GetCourseRaw")
	defer span.End()

	name := r.PathValue("name")
	span.SetAttributes(attribute.String("course", name))

	body, err := s.portal.FetchCourseXml(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch course")
		writeError(ctx, w, http.StatusBadGateway, "failed to reach the portal")
		return
	}

	w.Header().Set("Content-Type", "text/xml")
	_, err = w.Write(body)
	if err != nil {
		slog.WarnContext(ctx, "failed to write response", "err", err)
	}
}
