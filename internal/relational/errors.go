package relational

import "fmt"

// QueryError 携带失败的 SQL，便于排查。
type QueryError struct {
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("执行 SQL 失败: %v (sql: %s)", e.Err, e.Query)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}
