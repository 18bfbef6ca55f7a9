// Copyright 2024 Jack Bister
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package postgres_events

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackbister/histsuck/pkg/histsuck/events"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go.uber.org/dig"
	"go.uber.org/zap"
)

type postgresEventRepository struct {
	conn *pgxpool.Pool

	logger *zap.Logger
}

type PostgresEventRepositoryParams struct {
	dig.In

	Conn   *pgxpool.Pool
	Logger *zap.Logger
}

func NewPostgresEventRepository(p PostgresEventRepositoryParams) (events.Repository, error) {
	_, err := p.Conn.Exec(context.TODO(), "CREATE TABLE IF NOT EXISTS Events (id BIGSERIAL NOT NULL PRIMARY KEY, host TEXT NOT NULL, source TEXT NOT NULL, source_id TEXT NOT NULL, data_type TEXT NOT NULL, history_type TEXT NOT NULL, history_value TEXT, filename TEXT, item_number INT NOT NULL, recorded_time timestamptz NOT NULL);")
	if err != nil {
		return nil, fmt.Errorf("error creating events table: %w", err)
	}
	_, err = p.Conn.Exec(context.TODO(), "CREATE UNIQUE INDEX IF NOT EXISTS UX_Events_Entry ON Events(host, source, history_type, recorded_time, COALESCE(history_value, ''), COALESCE(filename, ''));")
	if err != nil {
		return nil, fmt.Errorf("error creating events unique index: %w", err)
	}
	_, err = p.Conn.Exec(context.TODO(), "CREATE INDEX IF NOT EXISTS IX_Events_RecordedTime ON Events(recorded_time);")
	if err != nil {
		return nil, fmt.Errorf("error creating events recorded_time index: %w", err)
	}
	return &postgresEventRepository{
		conn:   p.Conn,
		logger: p.Logger.Named("postgresEventRepository"),
	}, nil
}

func (repo *postgresEventRepository) AddBatch(ctx context.Context, evts []events.StoredEvent) error {
	startTime := time.Now()
	tx, err := repo.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("error starting transaction for adding event batch: %w", err)
	}
	numberOfDuplicates := map[string]int64{}
	for _, evt := range evts {
		tag, err := tx.Exec(ctx, "INSERT INTO Events(host, source, source_id, data_type, history_type, history_value, filename, item_number, recorded_time) VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9) ON CONFLICT DO NOTHING;",
			evt.Host, evt.Source, evt.SourceId, evt.DataType, evt.HistoryType, evt.HistoryValue, evt.Filename, evt.ItemNumber, evt.RecordedTime)
		if err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("error executing add statement for source=%s: %w", evt.Source, err)
		}
		if tag.RowsAffected() == 0 {
			numberOfDuplicates[evt.Source]++
		}
	}
	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("error committing event batch: %w", err)
	}
	for k, v := range numberOfDuplicates {
		repo.logger.Info("skipped adding events because they appear to be duplicates (same host, source, history type, recorded time and value as an existing event)",
			zap.Int64("numEvents", v), zap.String("source", k))
	}
	repo.logger.Info("added events",
		zap.Int("numEvents", len(evts)),
		zap.Stringer("duration", time.Since(startTime)))
	return nil
}

func buildFilterQuery(f events.Filter) (string, []any) {
	var sb strings.Builder
	args := make([]any, 0, 5)
	param := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	sb.WriteString("SELECT id, host, source, source_id, data_type, history_type, history_value, filename, item_number, recorded_time FROM Events WHERE 1=1")
	if f.Source != "" {
		sb.WriteString(" AND source = " + param(f.Source))
	}
	if f.HistoryType != "" {
		sb.WriteString(" AND history_type = " + param(f.HistoryType))
	}
	if f.StartTime != nil {
		sb.WriteString(" AND recorded_time >= " + param(*f.StartTime))
	}
	if f.EndTime != nil {
		sb.WriteString(" AND recorded_time < " + param(*f.EndTime))
	}
	sb.WriteString(" ORDER BY recorded_time DESC, id DESC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT " + param(f.Limit))
	}
	sb.WriteString(";")
	return sb.String(), args
}

func (repo *postgresEventRepository) Filter(ctx context.Context, f events.Filter) ([]events.StoredEvent, error) {
	query, args := buildFilterQuery(f)
	rows, err := repo.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying events: %w", err)
	}
	defer rows.Close()
	ret := []events.StoredEvent{}
	for rows.Next() {
		var evt events.StoredEvent
		err := rows.Scan(&evt.Id, &evt.Host, &evt.Source, &evt.SourceId, &evt.DataType, &evt.HistoryType, &evt.HistoryValue, &evt.Filename, &evt.ItemNumber, &evt.RecordedTime)
		if err != nil {
			return nil, fmt.Errorf("error scanning event row: %w", err)
		}
		evt.RecordedTime = evt.RecordedTime.UTC()
		ret = append(ret, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return ret, nil
}

func (repo *postgresEventRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	tag, err := repo.conn.Exec(ctx, "DELETE FROM Events WHERE recorded_time < $1;", t)
	if err != nil {
		return 0, fmt.Errorf("error deleting events before time=%v: %w", t, err)
	}
	return tag.RowsAffected(), nil
}
