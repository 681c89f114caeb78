package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TrendForge/internal/domain/models"
	"TrendForge/internal/domain/repository"
	pkgkafka "TrendForge/pkg/kafka"
)

// ClickHouseStorage implements CandleStorage for ClickHouse.
type ClickHouseStorage struct {
	db    *sql.DB
	table string
}

// NewClickHouseStorage creates ClickHouse storage.
func NewClickHouseStorage(db *sql.DB, table string) repository.CandleStorage {
	return &ClickHouseStorage{db: db, table: table}
}

func (s *ClickHouseStorage) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseStorage) Store(ctx context.Context, c *models.Candle) error {
	q := fmt.Sprintf("INSERT INTO %s (bucket, symbol, open, high, low, close, vol, source) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		c.Bucket,
		c.Symbol,
		c.Open,
		c.High,
		c.Low,
		c.Close,
		c.Volume,
		"stream",
	)
	return err
}

func (s *ClickHouseStorage) StoreBatch(ctx context.Context, candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	// Batch insert using VALUES multi-row to reduce round-trips.
	// Chunk size tuned to 2000 rows per batch.
	const chunkSize = 2000
	for start := 0; start < len(candles); start += chunkSize {
		end := start + chunkSize
		if end > len(candles) {
			end = len(candles)
		}

		// Build VALUES list
		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*8)
		for _, c := range candles[start:end] {
			if c == nil || c.Symbol == "" || c.Bucket.IsZero() {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args,
				c.Bucket,
				c.Symbol,
				c.Open,
				c.High,
				c.Low,
				c.Close,
				c.Volume,
				"stream",
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (bucket, symbol, open, high, low, close, vol, source) VALUES %s", s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseStorage) Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Candle, error) {
	q := fmt.Sprintf("SELECT bucket, symbol, open, high, low, close, vol FROM %s WHERE symbol = ? AND bucket >= ? AND bucket <= ? ORDER BY bucket DESC LIMIT ?", s.table)
	rows, err := s.db.QueryContext(ctx, q, symbol, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []*models.Candle
	for rows.Next() {
		var c models.Candle
		if err := rows.Scan(&c.Bucket, &c.Symbol, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		candles = append(candles, &c)
	}
	return candles, rows.Err()
}

func (s *ClickHouseStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseStorage) Close() error {
	return nil // Managed by pkg
}

// KafkaCandlePublisher implements CandlePublisher for Kafka.
type KafkaCandlePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaCandlePublisher creates a Kafka candle publisher.
func NewKafkaCandlePublisher(producer *pkgkafka.Producer, topic string) repository.CandlePublisher {
	return &KafkaCandlePublisher{producer: producer, topic: topic}
}

func candlePayload(c *models.Candle) map[string]interface{} {
	return map[string]interface{}{
		"symbol": c.Symbol,
		"t":      c.Bucket.Unix(),
		"o":      c.Open,
		"h":      c.High,
		"l":      c.Low,
		"c":      c.Close,
		"v":      c.Volume,
	}
}

func (p *KafkaCandlePublisher) Publish(ctx context.Context, c *models.Candle) error {
	return p.producer.Publish(ctx, p.topic, []byte(c.Symbol), candlePayload(c))
}

func (p *KafkaCandlePublisher) PublishBatch(ctx context.Context, candles []*models.Candle) error {
	if len(candles) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(candles))
	for i, c := range candles {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(c.Symbol),
			Value: candlePayload(c),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaCandlePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// KafkaSamplePublisher implements SamplePublisher for Kafka. Labeled rows
// are keyed by symbol so one symbol's samples stay ordered per partition.
type KafkaSamplePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSamplePublisher creates a Kafka sample publisher.
func NewKafkaSamplePublisher(producer *pkgkafka.Producer, topic string) repository.SamplePublisher {
	return &KafkaSamplePublisher{producer: producer, topic: topic}
}

func (p *KafkaSamplePublisher) Publish(ctx context.Context, r *models.DatasetRecord) error {
	return p.producer.Publish(ctx, p.topic, []byte(r.Symbol), r)
}

func (p *KafkaSamplePublisher) PublishBatch(ctx context.Context, records []*models.DatasetRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(records))
	for i, r := range records {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(r.Symbol),
			Value: r,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSamplePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
