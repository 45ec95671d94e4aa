package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"phonereuse/entity"
	"phonereuse/internal/config"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySql keeps the registry in a single table, rewritten as a whole on every save.
type MySql struct {
	db         *sql.DB
	prefix     string
	statements map[string]*sql.Stmt
	mu         sync.Mutex
}

func NewSQLClient(conf *config.Config) (*MySql, error) {
	if !conf.MySQL.Enabled {
		return nil, fmt.Errorf("mysql client is disabled in configuration")
	}
	connectionURI := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		conf.MySQL.UserName, conf.MySQL.Password, conf.MySQL.HostName, conf.MySQL.Port, conf.MySQL.Database)
	db, err := sql.Open("mysql", connectionURI)
	if err != nil {
		return nil, fmt.Errorf("sql connect: %w", err)
	}

	// try to ping three times with a 10-second interval; wait for a database to start
	for i := 0; i < 3; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		if i == 2 {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		time.Sleep(10 * time.Second)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	return newMySql(db, conf.MySQL.Prefix)
}

func newMySql(db *sql.DB, prefix string) (*MySql, error) {
	sdb := &MySql{
		db:         db,
		prefix:     prefix,
		statements: make(map[string]*sql.Stmt),
	}
	if err := sdb.createTableIfNotExists(); err != nil {
		return nil, err
	}
	return sdb, nil
}

func (s *MySql) Close() {
	s.closeStmt()
	_ = s.db.Close()
}

func (s *MySql) Load(ctx context.Context) ([]entity.PhoneRecord, error) {
	stmt, err := s.stmtSelectPhoneNumbers()
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("select phone numbers: %w", err)
	}
	defer rows.Close()

	records := make([]entity.PhoneRecord, 0)
	for rows.Next() {
		var record entity.PhoneRecord
		var services string
		if err = rows.Scan(
			&record.PhoneNumber,
			&record.CountryCode,
			&record.ActivationID,
			&record.FirstUsed,
			&record.LastUsed,
			&services,
			&record.TimesUsed,
		); err != nil {
			return nil, fmt.Errorf("scan phone number: %w", err)
		}
		if err = json.Unmarshal([]byte(services), &record.Services); err != nil {
			return nil, fmt.Errorf("decode services of %s: %w", record.PhoneNumber, err)
		}
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("read phone numbers: %w", err)
	}
	return records, nil
}

// Save replaces the table content inside one transaction.
func (s *MySql) Save(ctx context.Context, records []entity.PhoneRecord) error {
	insert, err := s.stmtInsertPhoneNumber()
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err = tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %sphone_number", s.prefix)); err != nil {
		return fmt.Errorf("clear phone numbers: %w", err)
	}

	txInsert := tx.StmtContext(ctx, insert)
	for i := range records {
		services, err := json.Marshal(records[i].Services)
		if err != nil {
			return fmt.Errorf("encode services of %s: %w", records[i].PhoneNumber, err)
		}
		if _, err = txInsert.ExecContext(ctx,
			records[i].PhoneNumber,
			records[i].CountryCode,
			records[i].ActivationID,
			records[i].FirstUsed.UTC(),
			records[i].LastUsed.UTC(),
			string(services),
			records[i].TimesUsed,
		); err != nil {
			return fmt.Errorf("insert %s: %w", records[i].PhoneNumber, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit phone numbers: %w", err)
	}
	return nil
}
