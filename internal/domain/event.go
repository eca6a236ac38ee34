package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// RawEvent represents an unprocessed analysis result from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// SerializeReport marshals assembled report fields into an OutputEvent keyed
// by record ID.
func SerializeReport(report ReportFields, generatedAt time.Time) (OutputEvent, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize report: %w", err)
	}
	return OutputEvent{
		Key:   []byte(strconv.FormatInt(report.RecordID, 10)),
		Value: data,
		Headers: map[string]string{
			"severity":     string(report.Severity),
			"generated_at": generatedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
