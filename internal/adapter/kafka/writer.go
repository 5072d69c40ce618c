package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/beccaRND/ci-fund-intelligence/internal/config"
	"github.com/beccaRND/ci-fund-intelligence/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces one message per ranked assessment to the assessment topic.
// It implements pipeline.Publisher.
type Publisher struct {
	writer messageWriter
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured assessment topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAssessmentTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Publish writes every assessment of a ranking run in a single
// WriteMessages call, keyed by project so a project's history stays on one partition.
func (p *Publisher) Publish(ctx context.Context, result pipeline.PortfolioResult) error {
	if len(result.Assessments) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(result.Assessments))
	for i := range result.Assessments {
		msg, err := serializeToMessage(result.RunID, result.GeneratedAt, result.Assessments[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write assessments: %w", err)
	}
	p.logger.Debug("assessments published", "run_id", result.RunID, "count", len(msgs))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a RankedAssessment into a Kafka message.
func serializeToMessage(runID string, generatedAt time.Time, a pipeline.RankedAssessment) (kafkago.Message, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize assessment: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(a.ProjectID),
		Value: data,
		Time:  generatedAt,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "priority_rank", Value: []byte(strconv.Itoa(a.PriorityRank))},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}
