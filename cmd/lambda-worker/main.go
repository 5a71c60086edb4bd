package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"vetted-backend/internal/bootstrap"
	"vetted-backend/internal/shared/config"
	"vetted-backend/internal/shared/metrics"
	"vetted-backend/internal/shared/telemetry"
	"vetted-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	proc     workerproc.Processor
)

func initApp() {
	cfg, err := config.Load()
	if err != nil {
		initErr = err
		return
	}
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	proc = built.AnalysesService
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}
	return processRecords(ctx, proc, event.Records), nil
}

// processRecords never reports item failures: failed analyses are already recorded and
// are not retried by redelivery.
func processRecords(ctx context.Context, p workerproc.Processor, records []events.SQSMessage) events.SQSEventResponse {
	for _, record := range records {
		metrics.IncQueueJob("received")
		threadID, err := workerproc.HandleBody(ctx, p, record.Body)
		fields := map[string]any{"sqs_message_id": record.MessageId}
		if err != nil {
			fields["error"] = err.Error()
			telemetry.Error("worker.analysis.failed", fields)
			metrics.IncQueueJob("failed")
			continue
		}
		fields["thread_id"] = threadID
		telemetry.Info("worker.analysis.completed", fields)
		metrics.IncQueueJob("completed")
	}
	return events.SQSEventResponse{BatchItemFailures: []events.SQSBatchItemFailure{}}
}

func main() {
	lambda.Start(handler)
}
