package influx

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nerrad567/influxgw/internal/series"
)

// User is an account on the database cluster.
type User struct {
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

// Query runs q against db and returns the raw response.
//
// Parameters:
//   - ctx: Context for cancellation; each host attempt is also bounded by the request timeout
//   - db: Database name; empty uses the configured default (may stay empty for server-wide statements)
//   - q: InfluxQL statement(s)
//
// Returns:
//   - *series.Response: Decoded response with numbers kept as json.Number
//   - error: *failover.ApplicationError, *failover.ExhaustedRetriesError or failover.ErrNoHostsAvailable
func (c *Client) Query(ctx context.Context, db, q string) (*series.Response, error) {
	if strings.TrimSpace(q) == "" {
		return nil, ErrQueryRequired
	}
	if db == "" {
		db = c.cfg.Database
	}
	return c.query(ctx, http.MethodGet, db, q)
}

// QueryNormalized runs q and groups the result by series name.
func (c *Client) QueryNormalized(ctx context.Context, db, q string) (series.Result, error) {
	raw, err := c.Query(ctx, db, q)
	if err != nil {
		return nil, err
	}
	return series.Normalize(raw)
}

// CreateDatabase creates a database.
func (c *Client) CreateDatabase(ctx context.Context, name string) error {
	if name == "" {
		return ErrEmptyName
	}
	return c.exec(ctx, "", "CREATE DATABASE "+quoteIdent(name))
}

// DropDatabase deletes a database and all of its data.
func (c *Client) DropDatabase(ctx context.Context, name string) error {
	if name == "" {
		return ErrEmptyName
	}
	return c.exec(ctx, "", "DROP DATABASE "+quoteIdent(name))
}

// Databases lists database names.
func (c *Client) Databases(ctx context.Context) ([]string, error) {
	result, err := c.showNormalized(ctx, "", "SHOW DATABASES")
	if err != nil {
		return nil, err
	}
	return stringColumn(result, "databases", "name"), nil
}

// Measurements lists the measurements of db.
func (c *Client) Measurements(ctx context.Context, db string) ([]string, error) {
	db, err := c.database(db)
	if err != nil {
		return nil, err
	}
	result, err := c.showNormalized(ctx, db, "SHOW MEASUREMENTS")
	if err != nil {
		return nil, err
	}
	return stringColumn(result, "measurements", "name"), nil
}

// DropSeries deletes every series of measurement in db.
func (c *Client) DropSeries(ctx context.Context, db, measurement string) error {
	if measurement == "" {
		return ErrEmptyName
	}
	db, err := c.database(db)
	if err != nil {
		return err
	}
	return c.exec(ctx, db, "DROP SERIES FROM "+quoteIdent(measurement))
}

// CreateUser creates a user. Admin users are granted all privileges.
func (c *Client) CreateUser(ctx context.Context, name, password string, admin bool) error {
	if name == "" {
		return ErrEmptyName
	}
	q := fmt.Sprintf("CREATE USER %s WITH PASSWORD %s", quoteIdent(name), quoteString(password))
	if admin {
		q += " WITH ALL PRIVILEGES"
	}
	return c.exec(ctx, "", q)
}

// Users lists the cluster's users.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	result, err := c.showNormalized(ctx, "", "SHOW USERS")
	if err != nil {
		return nil, err
	}

	var users []User
	for _, entries := range result {
		for _, entry := range entries {
			name, _ := entry.Values["user"].(string)
			if name == "" {
				continue
			}
			admin, _ := entry.Values["admin"].(bool)
			users = append(users, User{Name: name, Admin: admin})
		}
	}
	return users, nil
}

// SetPassword changes a user's password.
func (c *Client) SetPassword(ctx context.Context, name, password string) error {
	if name == "" {
		return ErrEmptyName
	}
	return c.exec(ctx, "", fmt.Sprintf("SET PASSWORD FOR %s = %s", quoteIdent(name), quoteString(password)))
}

// DropUser deletes a user.
func (c *Client) DropUser(ctx context.Context, name string) error {
	if name == "" {
		return ErrEmptyName
	}
	return c.exec(ctx, "", "DROP USER "+quoteIdent(name))
}

// ContinuousQueries lists continuous queries. The server groups them into
// one series per database; a non-empty db keeps only that database's series.
func (c *Client) ContinuousQueries(ctx context.Context, db string) (series.Result, error) {
	result, err := c.showNormalized(ctx, "", "SHOW CONTINUOUS QUERIES")
	if err != nil {
		return nil, err
	}
	if db == "" {
		return result, nil
	}
	filtered := series.Result{}
	if entries, ok := result[db]; ok {
		filtered[db] = entries
	}
	return filtered, nil
}

// DropContinuousQuery deletes the continuous query name from db.
func (c *Client) DropContinuousQuery(ctx context.Context, db, name string) error {
	if name == "" {
		return ErrEmptyName
	}
	db, err := c.database(db)
	if err != nil {
		return err
	}
	return c.exec(ctx, db, fmt.Sprintf("DROP CONTINUOUS QUERY %s ON %s", quoteIdent(name), quoteIdent(db)))
}

func (c *Client) showNormalized(ctx context.Context, db, q string) (series.Result, error) {
	raw, err := c.query(ctx, http.MethodGet, db, q)
	if err != nil {
		return nil, err
	}
	return series.Normalize(raw)
}

// stringColumn collects the string values of one column.
func stringColumn(result series.Result, name, column string) []string {
	values := result.Column(name, column)
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// quoteIdent double-quotes an InfluxQL identifier.
func quoteIdent(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

// quoteString single-quotes an InfluxQL string literal.
func quoteString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`)
	return `'` + r.Replace(s) + `'`
}
