// Package series reshapes InfluxDB query responses.
//
// The /query endpoint answers with a columnar structure: one column-name list
// per series plus positional value arrays. Normalize turns that into records
// keyed by column name, grouped by series name, with each row carrying the tags
// of the series it came from.
//
//	raw, err := series.Decode(resp.Body)
//	if err != nil {
//	    return err
//	}
//	result, err := series.Normalize(raw)
//	for _, entry := range result["response_time"] {
//	    fmt.Println(entry.Tags["host"], entry.Values["value"])
//	}
//
// Normalize is a pure function. It never truncates or pads rows; a value array
// whose length differs from the column list is reported as a
// *MalformedResultError.
package series
