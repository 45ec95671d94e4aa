package database

import (
	"database/sql"
	"fmt"
)

func (s *MySql) prepareStmt(name, query string) (*sql.Stmt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if stmt, ok := s.statements[name]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, fmt.Errorf("prepare statement [%s]: %w", name, err)
	}

	s.statements[name] = stmt
	return stmt, nil
}

func (s *MySql) closeStmt() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, stmt := range s.statements {
		_ = stmt.Close()
		delete(s.statements, name)
	}
}

func (s *MySql) createTableIfNotExists() error {
	query := fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %sphone_number (
                   phone_number VARCHAR(32) NOT NULL,
                   country_code VARCHAR(16) NOT NULL DEFAULT '',
                   activation_id VARCHAR(64) NOT NULL DEFAULT '',
                   first_used DATETIME(6) NOT NULL,
                   last_used DATETIME(6) NOT NULL,
                   services TEXT NOT NULL,
                   times_used INT NOT NULL DEFAULT 1,
                   PRIMARY KEY (phone_number)
                   ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		s.prefix,
	)
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create table %sphone_number: %w", s.prefix, err)
	}
	return nil
}

func (s *MySql) stmtSelectPhoneNumbers() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`SELECT phone_number, country_code, activation_id, first_used, last_used, services, times_used
                   FROM %sphone_number`,
		s.prefix,
	)
	return s.prepareStmt("selectPhoneNumbers", query)
}

func (s *MySql) stmtInsertPhoneNumber() (*sql.Stmt, error) {
	query := fmt.Sprintf(
		`INSERT INTO %sphone_number 
                   (phone_number, country_code, activation_id, first_used, last_used, services, times_used)
                   VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.prefix,
	)
	return s.prepareStmt("insertPhoneNumber", query)
}
