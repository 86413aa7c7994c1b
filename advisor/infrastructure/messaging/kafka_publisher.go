package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/suletetes/techverse-advisor/advisor/domain/entity"
	"github.com/suletetes/techverse-advisor/pkg/logging"
	"github.com/suletetes/techverse-advisor/pkg/metrics"
	"github.com/suletetes/techverse-advisor/shared/common"
)

// PublisherConfig represents Kafka publisher configuration
type PublisherConfig struct {
	Brokers  []string `json:"brokers"`
	ClientID string   `json:"client_id"`

	ReportsTopic string `json:"reports_topic"`
	IndexesTopic string `json:"indexes_topic"`

	BatchSize    int           `json:"batch_size"`
	BatchTimeout time.Duration `json:"batch_timeout"`
	MaxRetries   int           `json:"max_retries"`
	WriteTimeout time.Duration `json:"write_timeout"`

	RequiredAcks kafka.RequiredAcks `json:"required_acks"`
	Compression  kafka.Compression  `json:"compression"`
}

// DefaultPublisherConfig returns the standard publisher settings
func DefaultPublisherConfig() *PublisherConfig {
	return &PublisherConfig{
		Brokers:      []string{"localhost:9092"},
		ClientID:     "advisor-publisher",
		ReportsTopic: "advisor.reports",
		IndexesTopic: "advisor.indexes",
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxRetries:   3,
		WriteTimeout: 30 * time.Second,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
	}
}

// PublisherStats represents publisher statistics
type PublisherStats struct {
	MessagesSent   int64     `json:"messages_sent"`
	MessagesFailed int64     `json:"messages_failed"`
	LastSendTime   time.Time `json:"last_send_time"`
	IsConnected    bool      `json:"is_connected"`
}

// reportEvent is the message body announcing a completed report. Consumers
// fetch the full report from the archive by ID.
type reportEvent struct {
	ReportID            string    `json:"report_id"`
	GeneratedAt         time.Time `json:"generated_at"`
	Score               int       `json:"score"`
	CriticalIssues      int       `json:"critical_issues"`
	RecommendationCount int       `json:"recommendation_count"`
	MissingIndexes      int       `json:"missing_indexes"`
	DuplicateIssues     int       `json:"duplicate_issues"`
	SlowQueries         int       `json:"slow_queries"`
	Degraded            []string  `json:"degraded,omitempty"`
}

// indexEvent is the message body announcing one applied index remediation
type indexEvent struct {
	Collection string    `json:"collection"`
	IndexName  string    `json:"index_name"`
	Priority   string    `json:"priority"`
	Status     string    `json:"status"`
	AppliedAt  time.Time `json:"applied_at"`
}

// KafkaPublisher implements repository.EventPublisher using Kafka
type KafkaPublisher struct {
	writers map[string]*kafka.Writer
	logger  *logging.Logger
	metrics *metrics.Collector
	config  *PublisherConfig

	statsMu sync.RWMutex
	stats   PublisherStats
}

// NewKafkaPublisher creates a Kafka publisher for advisory events
func NewKafkaPublisher(logger *logging.Logger, collector *metrics.Collector, config *PublisherConfig) *KafkaPublisher {
	if config == nil {
		config = DefaultPublisherConfig()
	}

	p := &KafkaPublisher{
		writers: make(map[string]*kafka.Writer),
		logger:  logger.WithComponent("kafka-publisher"),
		metrics: collector,
		config:  config,
	}

	for _, topic := range []string{config.ReportsTopic, config.IndexesTopic} {
		p.writers[topic] = &kafka.Writer{
			Addr:         kafka.TCP(config.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			MaxAttempts:  config.MaxRetries,
			BatchSize:    config.BatchSize,
			BatchTimeout: config.BatchTimeout,
			WriteTimeout: config.WriteTimeout,
			RequiredAcks: config.RequiredAcks,
			Compression:  config.Compression,
			ErrorLogger:  kafka.LoggerFunc(p.logKafkaError),
		}
	}

	p.stats.IsConnected = true
	p.logger.Info("Kafka publisher initialized",
		logging.Strings("brokers", config.Brokers),
		logging.Strings("topics", []string{config.ReportsTopic, config.IndexesTopic}))

	return p
}

// PublishReportGenerated announces a completed report
func (p *KafkaPublisher) PublishReportGenerated(ctx context.Context, report *entity.PerformanceReport) error {
	body := reportEvent{
		ReportID:            report.ID,
		GeneratedAt:         report.GeneratedAt,
		Score:               report.Score,
		CriticalIssues:      report.CriticalIssues,
		RecommendationCount: report.RecommendationCount,
		MissingIndexes:      len(report.MissingIndexes),
		DuplicateIssues:     len(report.Duplicates.Issues),
		SlowQueries:         report.QueryPerformance.SlowQueryCount,
		Degraded:            report.Degraded,
	}

	headers := []kafka.Header{
		{Key: "report_id", Value: []byte(report.ID)},
		{Key: "score", Value: []byte(fmt.Sprintf("%d", report.Score))},
		{Key: "message_type", Value: []byte("report_generated")},
	}

	return p.publish(ctx, p.config.ReportsTopic, report.ID, body, headers)
}

// PublishIndexCreated announces one applied index remediation
func (p *KafkaPublisher) PublishIndexCreated(ctx context.Context, result entity.RemediationResult) error {
	body := indexEvent{
		Collection: result.Collection,
		IndexName:  result.IndexName,
		Priority:   string(result.Priority),
		Status:     string(result.Status),
		AppliedAt:  time.Now().UTC(),
	}

	headers := []kafka.Header{
		{Key: "collection", Value: []byte(result.Collection)},
		{Key: "index_name", Value: []byte(result.IndexName)},
		{Key: "message_type", Value: []byte("index_created")},
	}

	return p.publish(ctx, p.config.IndexesTopic, result.Collection+"/"+result.IndexName, body, headers)
}

func (p *KafkaPublisher) publish(ctx context.Context, topic, key string, body interface{}, headers []kafka.Header) error {
	writer, exists := p.writers[topic]
	if !exists {
		return common.WrapError(
			fmt.Errorf("no writer configured for topic: %s", topic),
			common.ErrCodeInvalidInput, "invalid topic")
	}

	value, err := json.Marshal(body)
	if err != nil {
		return common.WrapError(err, common.ErrCodeInternal, "failed to marshal event")
	}

	headers = append(headers,
		kafka.Header{Key: "produced_at", Value: []byte(time.Now().UTC().Format(time.RFC3339))},
		kafka.Header{Key: "producer_id", Value: []byte(p.config.ClientID)})

	message := kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
	}

	if err := writer.WriteMessages(ctx, message); err != nil {
		p.updateStats(func(stats *PublisherStats) {
			stats.MessagesFailed++
		})
		if p.metrics != nil {
			p.metrics.RecordError("kafka_publish_error", "advisor")
			p.metrics.RecordMessageSent(topic, "failed")
		}
		p.logger.Error("Failed to publish advisory event",
			logging.String("topic", topic),
			logging.String("key", key),
			logging.Any("error", err))
		return common.ErrEventPublish(topic, err)
	}

	p.updateStats(func(stats *PublisherStats) {
		stats.MessagesSent++
		stats.LastSendTime = time.Now()
	})
	if p.metrics != nil {
		p.metrics.RecordMessageSent(topic, "success")
	}

	p.logger.Debug("Advisory event published",
		logging.String("topic", topic),
		logging.String("key", key))

	return nil
}

// Stats returns a copy of the publisher statistics
func (p *KafkaPublisher) Stats() PublisherStats {
	p.statsMu.RLock()
	defer p.statsMu.RUnlock()
	return p.stats
}

// Close closes all Kafka writers
func (p *KafkaPublisher) Close() error {
	var closeErrors []error
	for topic, writer := range p.writers {
		if err := writer.Close(); err != nil {
			closeErrors = append(closeErrors, err)
			p.logger.Error("Failed to close Kafka writer",
				logging.String("topic", topic),
				logging.Any("error", err))
		}
	}

	p.updateStats(func(stats *PublisherStats) {
		stats.IsConnected = false
	})

	if len(closeErrors) > 0 {
		return common.WrapError(
			fmt.Errorf("failed to close %d writers", len(closeErrors)),
			common.ErrCodeInternal, "failed to close Kafka publisher")
	}

	p.logger.Info("Kafka publisher closed")
	return nil
}

func (p *KafkaPublisher) updateStats(update func(*PublisherStats)) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	update(&p.stats)
}

func (p *KafkaPublisher) logKafkaError(msg string, args ...interface{}) {
	p.logger.Error(fmt.Sprintf("Kafka publisher: "+msg, args...))
}
