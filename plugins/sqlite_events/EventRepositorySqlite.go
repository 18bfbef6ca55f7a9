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

package sqlite_events

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackbister/histsuck/pkg/histsuck/events"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

type sqliteEventRepository struct {
	db *sql.DB

	logger *zap.Logger
}

type SqliteEventRepositoryParams struct {
	dig.In

	Db     *sql.DB
	Logger *zap.Logger
}

func NewSqliteEventRepository(p SqliteEventRepositoryParams) (events.Repository, error) {
	_, err := p.Db.Exec("CREATE TABLE IF NOT EXISTS Events (id INTEGER NOT NULL PRIMARY KEY AUTOINCREMENT, host TEXT NOT NULL, source TEXT NOT NULL, source_id TEXT NOT NULL, data_type TEXT NOT NULL, history_type TEXT NOT NULL, history_value TEXT, filename TEXT, item_number INTEGER NOT NULL, recorded_time INTEGER NOT NULL);")
	if err != nil {
		return nil, fmt.Errorf("error creating events table: %w", err)
	}
	// Re-parsing a file must not store the same history entry again, even though the entry
	// gets a new source id and usually a new item number.
	_, err = p.Db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS UX_Events_Entry ON Events(host, source, history_type, recorded_time, IFNULL(history_value, ''), IFNULL(filename, ''));")
	if err != nil {
		return nil, fmt.Errorf("error creating events unique index: %w", err)
	}
	_, err = p.Db.Exec("CREATE INDEX IF NOT EXISTS IX_Events_RecordedTime ON Events(recorded_time);")
	if err != nil {
		return nil, fmt.Errorf("error creating events recorded_time index: %w", err)
	}
	return &sqliteEventRepository{
		db:     p.Db,
		logger: p.Logger.Named("sqliteEventRepository"),
	}, nil
}

func (repo *sqliteEventRepository) AddBatch(ctx context.Context, evts []events.StoredEvent) error {
	startTime := time.Now()
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction for adding event batch: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT OR IGNORE INTO Events (host, source, source_id, data_type, history_type, history_value, filename, item_number, recorded_time) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing add statement: %w", err)
	}
	defer stmt.Close()
	numberOfDuplicates := map[string]int64{}
	for _, evt := range evts {
		res, err := stmt.ExecContext(ctx, evt.Host, evt.Source, evt.SourceId, evt.DataType, evt.HistoryType, evt.HistoryValue, evt.Filename, evt.ItemNumber, evt.RecordedTime.Unix())
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("error executing add statement for source=%s: %w", evt.Source, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			numberOfDuplicates[evt.Source]++
		}
	}
	err = tx.Commit()
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
	sb.WriteString("SELECT id, host, source, source_id, data_type, history_type, history_value, filename, item_number, recorded_time FROM Events WHERE 1=1")
	if f.Source != "" {
		sb.WriteString(" AND source = ?")
		args = append(args, f.Source)
	}
	if f.HistoryType != "" {
		sb.WriteString(" AND history_type = ?")
		args = append(args, f.HistoryType)
	}
	if f.StartTime != nil {
		sb.WriteString(" AND recorded_time >= ?")
		args = append(args, f.StartTime.Unix())
	}
	if f.EndTime != nil {
		sb.WriteString(" AND recorded_time < ?")
		args = append(args, f.EndTime.Unix())
	}
	sb.WriteString(" ORDER BY recorded_time DESC, id DESC")
	if f.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, f.Limit)
	}
	sb.WriteString(";")
	return sb.String(), args
}

func (repo *sqliteEventRepository) Filter(ctx context.Context, f events.Filter) ([]events.StoredEvent, error) {
	query, args := buildFilterQuery(f)
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying events: %w", err)
	}
	defer rows.Close()
	ret := []events.StoredEvent{}
	for rows.Next() {
		var evt events.StoredEvent
		var historyValue, filename sql.NullString
		var recordedTime int64
		err := rows.Scan(&evt.Id, &evt.Host, &evt.Source, &evt.SourceId, &evt.DataType, &evt.HistoryType, &historyValue, &filename, &evt.ItemNumber, &recordedTime)
		if err != nil {
			return nil, fmt.Errorf("error scanning event row: %w", err)
		}
		if historyValue.Valid {
			evt.HistoryValue = &historyValue.String
		}
		if filename.Valid {
			evt.Filename = &filename.String
		}
		evt.RecordedTime = time.Unix(recordedTime, 0).UTC()
		ret = append(ret, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return ret, nil
}

func (repo *sqliteEventRepository) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := repo.db.ExecContext(ctx, "DELETE FROM Events WHERE recorded_time < ?;", t.Unix())
	if err != nil {
		return 0, fmt.Errorf("error deleting events before time=%v: %w", t, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting number of deleted events: %w", err)
	}
	return n, nil
}
