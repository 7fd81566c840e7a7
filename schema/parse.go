package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FieldError names a field that failed validation and why.
type FieldError struct {
	Section string // "info" or "innings[N]" (1-based)
	Field   string
	Reason  string
}

func (e FieldError) String() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Section, e.Reason)
	}
	return fmt.Sprintf("%s.%s: %s", e.Section, e.Field, e.Reason)
}

// ValidationError rejects a whole record. It carries one entry per
// failing field so callers can log exactly what was wrong upstream.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.String()
	}
	return "record rejected: " + strings.Join(msgs, "; ")
}

func reject(section, field, reason string) error {
	return &ValidationError{Fields: []FieldError{{Section: section, Field: field, Reason: reason}}}
}

// Parse validates raw record bytes and returns a fully-typed Record,
// or a *ValidationError naming the failing fields. It is a pure
// function of its input: no I/O, no logging.
//
// Validation happens in stages. Required info fields (teams, dates,
// match_type, gender) are checked loosely first so a record missing
// them is rejected with a clear reason instead of a cascade of type
// errors. The info section is then decoded strictly; any wrong-typed
// field rejects the whole record. Each innings is decoded
// independently; a failing innings is dropped and reported via
// Record.Skipped without failing the record. A record with zero
// surviving innings is rejected outright.
func Parse(data []byte) (*Record, error) {
	var raw struct {
		Info    json.RawMessage   `json:"info"`
		Innings []json.RawMessage `json:"innings"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, reject("record", "", "invalid JSON: "+err.Error())
	}
	if len(raw.Info) == 0 {
		return nil, reject("record", "info", "missing required field")
	}

	if err := checkRequiredInfo(raw.Info); err != nil {
		return nil, err
	}

	info, err := parseInfo(raw.Info)
	if err != nil {
		return nil, err
	}

	rec := &Record{Info: *info}
	for i, rawInn := range raw.Innings {
		section := fmt.Sprintf("innings[%d]", i+1)
		inn, err := parseInnings(rawInn, section)
		if err != nil {
			var verr *ValidationError
			if errors.As(err, &verr) {
				rec.Skipped = append(rec.Skipped, verr.Fields...)
				continue
			}
			return nil, err
		}
		rec.Innings = append(rec.Innings, *inn)
	}
	if len(rec.Innings) == 0 {
		return nil, reject("innings", "", "no valid innings")
	}
	return rec, nil
}

// checkRequiredInfo enforces presence of the required info fields
// before the strict typed decode. Only non-emptiness is checked here;
// wrong types are caught by parseInfo.
func checkRequiredInfo(rawInfo json.RawMessage) error {
	var loose map[string]json.RawMessage
	if err := json.Unmarshal(rawInfo, &loose); err != nil {
		return reject("info", "", "expected an object")
	}

	var missing []FieldError
	for _, field := range []string{"teams", "dates", "match_type", "gender"} {
		if isEmptyValue(loose[field]) {
			missing = append(missing, FieldError{Section: "info", Field: field, Reason: "missing required field"})
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// isEmptyValue reports whether a raw JSON value is absent, null, an
// empty string, or an empty array.
func isEmptyValue(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	switch s {
	case "", "null", `""`, "[]":
		return true
	}
	return false
}

func parseInfo(rawInfo json.RawMessage) (*Info, error) {
	info := Info{BallsPerOver: 6}
	if err := json.Unmarshal(rawInfo, &info); err != nil {
		return nil, typeError("info", err)
	}

	var bad []FieldError
	addBad := func(field, reason string) {
		bad = append(bad, FieldError{Section: "info", Field: field, Reason: reason})
	}
	if len(info.Teams) < 2 {
		addBad("teams", "two team names are required")
	} else if info.Teams[0] == info.Teams[1] {
		addBad("teams", "team names must be distinct")
	}
	if info.Season == "" {
		addBad("season", "missing required field")
	}
	if info.TeamType == "" {
		addBad("team_type", "missing required field")
	}
	if len(info.Players) == 0 {
		addBad("players", "missing required field")
	}
	if info.Toss != nil && (info.Toss.Winner == "" || info.Toss.Decision == "") {
		addBad("toss", "winner and decision are required")
	}
	if info.Event != nil && info.Event.Name == "" {
		addBad("event.name", "missing required field")
	}
	if len(bad) > 0 {
		return nil, &ValidationError{Fields: bad}
	}
	return &info, nil
}

func parseInnings(rawInn json.RawMessage, section string) (*Innings, error) {
	var inn Innings
	if err := json.Unmarshal(rawInn, &inn); err != nil {
		return nil, typeError(section, err)
	}
	if inn.Team == "" {
		return nil, reject(section, "team", "missing required field")
	}
	if inn.Overs == nil {
		return nil, reject(section, "overs", "missing required field")
	}
	for oi, over := range inn.Overs {
		for di, d := range over.Deliveries {
			if d.Batter == "" || d.Bowler == "" || d.NonStriker == "" {
				field := fmt.Sprintf("overs[%d].deliveries[%d]", oi, di)
				return nil, reject(section, field, "batter, bowler and non_striker are required")
			}
			for wi, w := range d.Wickets {
				if w.Kind == "" || w.PlayerOut == "" {
					field := fmt.Sprintf("overs[%d].deliveries[%d].wickets[%d]", oi, di, wi)
					return nil, reject(section, field, "kind and player_out are required")
				}
			}
		}
	}
	return &inn, nil
}

// typeError converts a json decode failure into a ValidationError,
// surfacing the offending field name when the decoder knows it.
func typeError(section string, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return reject(section, typeErr.Field, fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value))
	}
	return reject(section, "", err.Error())
}
