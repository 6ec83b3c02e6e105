package series

import (
	"encoding/json"
	"fmt"
	"io"
)

// Decode reads a /query response body. Numbers are kept as json.Number so
// integer timestamps and counters survive without float rounding.
func Decode(r io.Reader) (*Response, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var resp Response
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResult, err)
	}
	return &resp, nil
}

// Normalize groups every series in raw by name.
//
// Rows from several statements or several series entries with the same name
// are appended in input order. Each entry receives its own copy of the
// series tags, empty when the series has none.
//
// Returns a *MalformedResultError if any row's value count differs from its
// column count. A nil raw yields an empty Result.
func Normalize(raw *Response) (Result, error) {
	out := Result{}
	if raw == nil {
		return out, nil
	}
	for _, res := range raw.Results {
		if err := appendRows(out, res.Series); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// NormalizeSeries is Normalize for the series of a single statement.
func NormalizeSeries(rows []Row) (Result, error) {
	out := Result{}
	if err := appendRows(out, rows); err != nil {
		return nil, err
	}
	return out, nil
}

func appendRows(out Result, rows []Row) error {
	for _, row := range rows {
		entries := out[row.Name]
		for i, values := range row.Values {
			if len(values) != len(row.Columns) {
				return &MalformedResultError{
					Series:  row.Name,
					Row:     i,
					Columns: len(row.Columns),
					Values:  len(values),
				}
			}
			record := make(map[string]any, len(row.Columns))
			for j, column := range row.Columns {
				record[column] = values[j]
			}
			entries = append(entries, Entry{Tags: copyTags(row.Tags), Values: record})
		}
		if entries != nil {
			out[row.Name] = entries
		} else if _, seen := out[row.Name]; !seen {
			out[row.Name] = []Entry{}
		}
	}
	return nil
}

func copyTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}
