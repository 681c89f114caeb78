package clickhouse

import "fmt"

// CandleSchema returns idempotent DDL for the candle tables. Buckets are
// keyed (symbol, bucket) under ReplacingMergeTree so re-ingested candles
// collapse to one row per bucket.
func CandleSchema(database string) []string {
	table := func(name, ttl string) string {
		return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s.%s (
    bucket DateTime,
    symbol LowCardinality(String),
    open   Float64,
    high   Float64,
    low    Float64,
    close  Float64,
    vol    Float64,
    source LowCardinality(String) DEFAULT 'stream'
) ENGINE = ReplacingMergeTree
ORDER BY (symbol, bucket)
TTL bucket + INTERVAL %s`, database, name, ttl)
	}
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		table("candles_1s", "7 DAY"),
		table("candles_1m", "180 DAY"),
	}
}
