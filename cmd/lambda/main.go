package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"mindcanvas/infrastructure/config"
	"mindcanvas/infrastructure/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

var (
	chiLambda *chiadapter.ChiLambdaV2
	container *di.Container

	coldStart     = true
	coldStartTime time.Time
)

// init runs during cold start. The execution environment is frozen between
// invocations, so there is no autosave ticker: mutating requests save
// before the response is returned.
func init() {
	coldStartTime = time.Now()
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg.IsLambda = true
	cfg.AutoSave = false
	cfg.Storage.Watch = false

	container, _, err = di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}

	mux, ok := container.Handler.(*chi.Mux)
	if !ok {
		log.Fatal("Failed to cast handler to chi.Mux")
	}
	chiLambda = chiadapter.NewV2(mux)

	container.Logger.Info("Lambda cold start completed", zap.Duration("duration", time.Since(coldStartTime)))
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	// Restore picks up writes from other instances between invocations.
	if !coldStart {
		if _, err := container.Session.Restore(ctx); err != nil {
			container.Logger.Warn("Failed to refresh document", zap.Error(err))
		}
	}

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)
	if err != nil {
		return resp, err
	}

	if mutates(req.RequestContext.HTTP.Method, req.RequestContext.HTTP.Path) && resp.StatusCode < 400 {
		if err := container.Session.Save(ctx); err != nil {
			container.Logger.Error("Failed to save document", zap.Error(err))
		}
	}

	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		coldStart = false
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}
	if req.RequestContext.RequestID != "" {
		resp.Headers["X-Request-ID"] = req.RequestContext.RequestID
	}

	if resp.StatusCode >= 500 {
		container.Logger.Error("Lambda error response",
			zap.String("method", req.RequestContext.HTTP.Method),
			zap.String("path", req.RequestContext.HTTP.Path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", resp.Body),
		)
	}
	return resp, nil
}

// mutates reports whether the request changed the mind map. Clearing
// storage is excluded so the save does not undo it.
func mutates(method, path string) bool {
	if strings.HasSuffix(path, "/document/stored") {
		return false
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func main() {
	lambda.Start(Handler)
}
