package series

import "sort"

// Response is the JSON body returned by the InfluxDB /query endpoint.
type Response struct {
	Results []StatementResult `json:"results"`
	Err     string            `json:"error,omitempty"`
}

// StatementResult is the outcome of one statement in a query.
type StatementResult struct {
	StatementID int    `json:"statement_id"`
	Series      []Row  `json:"series,omitempty"`
	Partial     bool   `json:"partial,omitempty"`
	Err         string `json:"error,omitempty"`
}

// Row is one series in columnar form.
type Row struct {
	Name    string            `json:"name"`
	Tags    map[string]string `json:"tags,omitempty"`
	Columns []string          `json:"columns"`
	Values  [][]any           `json:"values,omitempty"`
}

// Error returns the first error reported by the server, either at the top
// level or for any statement. It returns "" when the response is clean.
func (r *Response) Error() string {
	if r == nil {
		return ""
	}
	if r.Err != "" {
		return r.Err
	}
	for _, res := range r.Results {
		if res.Err != "" {
			return res.Err
		}
	}
	return ""
}

// Entry is one row of a series with its values keyed by column name.
type Entry struct {
	Tags   map[string]string `json:"tags"`
	Values map[string]any    `json:"values"`
}

// Result maps series name to its rows in response order.
type Result map[string][]Entry

// Names returns the series names in lexical order.
func (r Result) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Column returns the value of column for every entry of the named series,
// skipping entries that lack it.
func (r Result) Column(name, column string) []any {
	var out []any
	for _, entry := range r[name] {
		if v, ok := entry.Values[column]; ok {
			out = append(out, v)
		}
	}
	return out
}
