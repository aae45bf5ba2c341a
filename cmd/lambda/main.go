package main

import (
	"context"
	"log"
	"time"

	"smartdocs-backend/internal/di"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"go.uber.org/zap"
)

var (
	// chiLambda wraps the Chi router for AWS Lambda integration
	chiLambda *chiadapter.ChiLambdaV2

	container *di.Container
)

// init runs during cold start
func init() {
	started := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	container, err = di.NewContainer(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	chiLambda = chiadapter.NewV2(container.Router)

	container.Logger.Info("Lambda cold start completed", zap.Duration("duration", time.Since(started)))
}

// Handler is the Lambda function handler
func Handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	coldStart := container.ColdStart.MarkRequest()

	resp, err := chiLambda.ProxyWithContextV2(ctx, req)
	if resp.Headers == nil {
		resp.Headers = make(map[string]string)
	}
	if coldStart {
		resp.Headers["X-Cold-Start"] = "true"
		resp.Headers["X-Cold-Start-Duration"] = container.ColdStart.GetTimeSinceColdStart().String()
	} else {
		resp.Headers["X-Cold-Start"] = "false"
	}
	resp.Headers["X-Lambda-Request-ID"] = req.RequestContext.RequestID

	fields := []zap.Field{
		zap.String("method", req.RequestContext.HTTP.Method),
		zap.String("path", req.RequestContext.HTTP.Path),
		zap.String("request_id", req.RequestContext.RequestID),
		zap.Int("status_code", resp.StatusCode),
		zap.Bool("cold_start", coldStart),
	}
	if resp.StatusCode >= 500 {
		container.Logger.Error("Lambda error response", append(fields, zap.String("body", resp.Body))...)
	} else {
		container.Logger.Info("Lambda response", fields...)
	}
	return resp, err
}

func main() {
	lambda.Start(Handler)
}
