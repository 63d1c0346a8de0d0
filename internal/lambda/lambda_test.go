package lambda_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"journalsummarizer/internal/handler"
	"journalsummarizer/internal/lambda"
	"journalsummarizer/internal/prompt"
	"journalsummarizer/internal/summary"
	"log/slog"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
)

type stubSummarizer struct{}

func (stubSummarizer) Summarize(context.Context, prompt.Messages) (string, error) {
	return "unexpected", nil
}

type recordingService struct {
	body string
}

func (s *recordingService) Summarize(_ context.Context, body []byte) (summary.Result, error) {
	s.body = string(body)

	return summary.Result{Summary: "Hello"}, nil
}

func newAdapter(svc handler.Summarizer) *lambda.Adapter {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	return lambda.New(handler.New(svc, nil, log), log)
}

func event(method string, body string, base64Encoded bool) events.APIGatewayV2HTTPRequest {
	var e events.APIGatewayV2HTTPRequest
	e.RequestContext.HTTP.Method = method
	e.Body = body
	e.IsBase64Encoded = base64Encoded

	return e
}

func TestHandlePost(t *testing.T) {
	svc := &recordingService{}

	resp, err := newAdapter(svc).Handle(context.Background(), event(http.MethodPost, `{"entries":[]}`, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.StatusCode != http.StatusOK || resp.Body != `{"summary":"Hello"}` {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if resp.Headers["Content-Type"] != handler.ContentTypeJSON {
		t.Fatalf("unexpected headers: %v", resp.Headers)
	}

	if svc.body != `{"entries":[]}` {
		t.Fatalf("unexpected forwarded body %q", svc.body)
	}
}

func TestHandleBase64Body(t *testing.T) {
	svc := &recordingService{}
	encoded := base64.StdEncoding.EncodeToString([]byte(`{"topics":["a"]}`))

	if _, err := newAdapter(svc).Handle(context.Background(), event(http.MethodPost, encoded, true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if svc.body != `{"topics":["a"]}` {
		t.Fatalf("expected decoded body, got %q", svc.body)
	}
}

func TestHandleInvalidBase64Body(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		wantStatus int
		wantBody   string
		wantCalled bool
	}{
		{"get", http.MethodGet, http.StatusMethodNotAllowed, "Use POST.", false},
		{"post", http.MethodPost, http.StatusOK, `{"summary":"Hello"}`, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			svc := &recordingService{body: "unset"}

			resp, err := newAdapter(svc).Handle(context.Background(), event(test.method, "%%%", true))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if resp.StatusCode != test.wantStatus || resp.Body != test.wantBody {
				t.Fatalf("unexpected response: %+v", resp)
			}

			if called := svc.body != "unset"; called != test.wantCalled {
				t.Fatalf("expected service call = %v, got %v", test.wantCalled, called)
			}

			if test.wantCalled && svc.body != "" {
				t.Fatalf("expected empty forwarded body, got %q", svc.body)
			}
		})
	}
}

func TestHandleInvalidBase64BodyUsesPlaceholder(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := summary.New(stubSummarizer{}, summary.Options{}, log)
	adapter := lambda.New(handler.New(svc, nil, log), log)

	resp, err := adapter.Handle(context.Background(), event(http.MethodPost, "%%%", true))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var payload struct {
		Summary string `json:"summary"`
	}
	if err = json.Unmarshal([]byte(resp.Body), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if payload.Summary != summary.PlaceholderSummary {
		t.Fatalf("expected placeholder summary, got %q", payload.Summary)
	}
}

func TestHandleGet(t *testing.T) {
	resp, err := newAdapter(&recordingService{}).Handle(context.Background(), event(http.MethodGet, `{"entries":[]}`, false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.StatusCode != http.StatusMethodNotAllowed || resp.Body != "Use POST." {
		t.Fatalf("unexpected response: %+v", resp)
	}

	if resp.Headers["Allow"] != http.MethodPost {
		t.Fatalf("expected Allow header, got %v", resp.Headers)
	}
}
