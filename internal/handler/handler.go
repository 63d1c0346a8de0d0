package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"journalsummarizer/internal/domain"
	"journalsummarizer/internal/journal"
	"journalsummarizer/internal/metrics"
	"journalsummarizer/internal/summarizer"
	"journalsummarizer/internal/summary"
	"log/slog"
	"net/http"
	"strings"
)

const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeJSON = "application/json"

	msgUsePOST       = "Use POST."
	msgMissingAPIKey = "OPENAI_API_KEY not set."
	msgServerError   = "Server error"
)

// Request is the framework-independent view of an inbound call.
type Request struct {
	Method string
	Body   []byte
}

// Response is what adapters write back to the caller.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

type Summarizer interface {
	Summarize(ctx context.Context, body []byte) (summary.Result, error)
}

// Handler translates summarize results and failures into responses.
type Handler struct {
	svc     Summarizer
	metrics *metrics.Metrics
	log     *slog.Logger
}

func New(svc Summarizer, m *metrics.Metrics, log *slog.Logger) *Handler {
	return &Handler{
		svc:     svc,
		metrics: m,
		log:     log,
	}
}

// Handle never returns an error: every failure becomes a response.
func (h *Handler) Handle(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			h.log.ErrorContext(ctx, "Recovered from panic while summarizing",
				"panic", r)

			resp = text(http.StatusInternalServerError, panicMessage(r))
		}

		h.metrics.ObserveRequest(resp.Status)
	}()

	if !strings.EqualFold(strings.TrimSpace(req.Method), http.MethodPost) {
		return text(http.StatusMethodNotAllowed, msgUsePOST)
	}

	result, err := h.svc.Summarize(ctx, req.Body)
	if err != nil {
		return h.translateError(ctx, err)
	}

	body, err := encodeJSON(domain.SummarizeResponse{Summary: result.Summary})
	if err != nil {
		return h.translateError(ctx, err)
	}

	return Response{
		Status:      http.StatusOK,
		ContentType: ContentTypeJSON,
		Body:        body,
	}
}

func (h *Handler) translateError(ctx context.Context, err error) Response {
	var (
		validationErr *journal.ValidationError
		upstreamErr   *summarizer.UpstreamError
	)

	switch {
	case errors.Is(err, summary.ErrMissingAPIKey):
		h.log.ErrorContext(ctx, "Summarize request is rejected because OpenAI is not configured",
			"envVar", "OPENAI_API_KEY")

		return text(http.StatusInternalServerError, msgMissingAPIKey)
	case errors.As(err, &validationErr):
		return text(http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &upstreamErr):
		return text(http.StatusBadGateway, upstreamErr.Error())
	default:
		h.log.ErrorContext(ctx, "Unexpected summarize failure",
			"error", err)

		msg := strings.TrimSpace(err.Error())
		if msg == "" {
			msg = msgServerError
		}

		return text(http.StatusInternalServerError, msg)
	}
}

func text(status int, msg string) Response {
	return Response{
		Status:      status,
		ContentType: ContentTypeText,
		Body:        []byte(msg),
	}
}

func encodeJSON(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		if msg := strings.TrimSpace(v.Error()); msg != "" {
			return msg
		}
	case string:
		if msg := strings.TrimSpace(v); msg != "" {
			return msg
		}
	}

	return msgServerError
}
