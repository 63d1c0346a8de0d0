package lambda

import (
	"context"
	"encoding/base64"
	"journalsummarizer/internal/handler"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	awslambda "github.com/aws/aws-lambda-go/lambda"
)

// Adapter serves the summarize handler behind API Gateway HTTP APIs and
// Lambda function URLs (payload format 2.0).
type Adapter struct {
	handler *handler.Handler
	log     *slog.Logger
}

func New(h *handler.Handler, log *slog.Logger) *Adapter {
	return &Adapter{
		handler: h,
		log:     log,
	}
}

// Start hands control to the Lambda runtime. It does not return.
func (a *Adapter) Start() {
	awslambda.Start(a.Handle)
}

func (a *Adapter) Handle(
	ctx context.Context,
	event events.APIGatewayV2HTTPRequest,
) (events.APIGatewayV2HTTPResponse, error) {
	body := []byte(event.Body)
	if event.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(event.Body)
		if err != nil {
			// Undecodable bodies are treated like empty ones.
			a.log.WarnContext(ctx, "Failed to decode base64 request body",
				"error", err,
				"method", event.RequestContext.HTTP.Method,
				"requestID", event.RequestContext.RequestID)

			decoded = nil
		}
		body = decoded
	}

	resp := a.handler.Handle(ctx, handler.Request{
		Method: event.RequestContext.HTTP.Method,
		Body:   body,
	})

	headers := map[string]string{"Content-Type": resp.ContentType}
	if resp.Status == http.StatusMethodNotAllowed {
		headers["Allow"] = http.MethodPost
	}

	return events.APIGatewayV2HTTPResponse{
		StatusCode: resp.Status,
		Headers:    headers,
		Body:       string(resp.Body),
	}, nil
}
