package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"speechcoach/internal/models"
)

// ListOptions controls ordering and size of list queries.
// Sort is a column name, prefixed with "-" for descending order.
type ListOptions struct {
	Sort  string
	Limit int
}

// orderClause builds an ORDER BY clause from a whitelisted sort key
func orderClause(sort string, allowed map[string]bool, fallback string) string {
	column := strings.TrimPrefix(sort, "-")
	if !allowed[column] {
		return " ORDER BY " + fallback
	}
	direction := "ASC"
	if strings.HasPrefix(sort, "-") {
		direction = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", column, direction, direction)
}

// limitClause appends a LIMIT when limit is positive
func limitClause(limit int, args []interface{}) (string, []interface{}) {
	if limit <= 0 {
		return "", args
	}
	return " LIMIT ?", append(args, limit)
}

func encodeStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeStrings(raw string) ([]string, error) {
	values := []string{}
	if raw == "" {
		return values, nil
	}
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}

// notFound converts sql.ErrNoRows into models.ErrNotFound
func notFound(err error, entity string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %d", models.ErrNotFound, entity, id)
	}
	return err
}

// requireAffected reports ErrNotFound when an UPDATE or DELETE touched no rows
func requireAffected(result sql.Result, entity string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", models.ErrNotFound, entity, id)
	}
	return nil
}
