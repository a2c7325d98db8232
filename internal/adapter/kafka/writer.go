package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/icoads-msg1-etl/internal/config"
	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// publishBatch bounds the number of messages handed to one WriteMessages call.
const publishBatch = 1000

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes rows to a Kafka topic.
// It implements pipeline.CollectionSaver.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Save publishes every row, collections in ascending key order and rows in
// collection order.
func (w *Writer) Save(ctx context.Context, collections domain.Collections) error {
	for _, key := range collections.Keys() {
		rows := collections[key]
		for start := 0; start < len(rows); start += publishBatch {
			end := min(start+publishBatch, len(rows))
			msgs := make([]kafkago.Message, 0, end-start)
			for i := start; i < end; i++ {
				msg, err := serializeToMessage(key, rows[i])
				if err != nil {
					return err
				}
				msgs = append(msgs, msg)
			}
			if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
				return fmt.Errorf("publish collection %s: %w", key, err)
			}
		}
		w.logger.Info("collection published", "key", key, "rows", len(rows))
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a row into a Kafka message keyed by its ID.
func serializeToMessage(collection string, row domain.Row) (kafkago.Message, error) {
	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize row: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(row.ID()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "collection", Value: []byte(collection)},
			{Key: "data_group", Value: []byte(strconv.Itoa(int(row.DataGroup)))},
			{Key: "source_file", Value: []byte(row.SourceFile)},
		},
	}, nil
}
