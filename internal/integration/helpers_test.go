//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/icoads-msg1-etl/internal/adapter/archive"
	"github.com/couchcryptid/icoads-msg1-etl/internal/domain"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker for the lifetime of the test and
// returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("test-cluster"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// coded returns a fully reported record of group c.
func coded(c domain.Category, year, month, lon int) domain.Coded {
	var r domain.Coded
	r[1] = year - 1799
	r[2] = month
	r[3] = 2
	r[4] = 1 + lon*2
	r[5] = 201
	r[6], r[7] = 1, 1
	r[8] = int(c)
	r[9] = 5
	for slot := 10; slot <= 33; slot++ {
		r[slot] = 1000 + slot
	}
	for slot := 34; slot < domain.SlotCount; slot++ {
		r[slot] = slot % 16
	}
	return r
}

// writeArchive writes a group archive with months payloads of n records
// each, a sync-invalid window after every record. It returns the archive
// name and the number of records written.
func writeArchive(t *testing.T, dir string, c domain.Category, months, n int) (string, int) {
	t.Helper()
	name := "MSG1_1960_G" + strconv.Itoa(int(c)) + "_TEST.tar"
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()

	w := archive.NewWriter(f, time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC))
	padding := make([]byte, domain.RecordSize)
	padding[1] = 0x02

	total := 0
	for month := 1; month <= months; month++ {
		var data []byte
		for i := range n {
			rec, err := domain.Encode(coded(c, 1960, month, i))
			require.NoError(t, err)
			data = append(data, rec[:]...)
			data = append(data, padding...)
			total++
		}
		require.NoError(t, w.AddPayload("MSG1.1960."+twoDigits(month)+archive.ExtGzip, data))
	}
	require.NoError(t, w.Close())
	return name, total
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
