package normalize

import (
	"testing"

	"github.com/jeffekeanyanwu/z-odi/schema"
)

func boolPtr(b bool) *bool    { return &b }
func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func baseInfo() schema.Info {
	return schema.Info{
		BallsPerOver: 6,
		Dates:        []string{"2021-01-20"},
		Gender:       "male",
		MatchType:    "ODI",
		Season:       "2020/21",
		TeamType:     "international",
		Teams:        []string{"Bangladesh", "West Indies"},
		Players: map[string][]string{
			"Bangladesh":  {"Tamim Iqbal", "Shakib Al Hasan"},
			"West Indies": {"K Mayers"},
		},
		Registry: schema.Registry{People: map[string]string{"Tamim Iqbal": "6a26e6e3"}},
	}
}

func delivery(batter string, runs int) schema.Delivery {
	return schema.Delivery{
		Batter:     batter,
		Bowler:     "Mustafizur Rahman",
		NonStriker: "R Shepherd",
		Runs:       schema.Runs{Batter: runs, Total: runs},
	}
}

func TestFlattenBallNumbering(t *testing.T) {
	rec := &schema.Record{
		Info: baseInfo(),
		Innings: []schema.Innings{{
			Team: "West Indies",
			Overs: []schema.Over{
				{Over: 0, Deliveries: []schema.Delivery{delivery("a", 0), delivery("a", 1), delivery("a", 4)}},
				{Over: 7, Deliveries: []schema.Delivery{delivery("b", 2), delivery("b", 0)}},
			},
		}},
	}

	rows := Flatten(rec)
	if got := len(rows.Deliveries); got != 5 {
		t.Fatalf("got %d delivery rows, want 5", got)
	}

	// Ball numbers restart at 1 for every over, independent of the
	// over's own label.
	wantBalls := []struct{ over, ball int }{{0, 1}, {0, 2}, {0, 3}, {7, 1}, {7, 2}}
	for i, want := range wantBalls {
		d := rows.Deliveries[i]
		if d.Over != want.over || d.Ball != want.ball {
			t.Errorf("delivery %d: over=%d ball=%d, want over=%d ball=%d",
				i, d.Over, d.Ball, want.over, want.ball)
		}
		if d.InningsNumber != 1 {
			t.Errorf("delivery %d: innings=%d, want 1", i, d.InningsNumber)
		}
	}
}

func TestFlattenInningsNumbering(t *testing.T) {
	inn := func(team string) schema.Innings {
		return schema.Innings{
			Team:  team,
			Overs: []schema.Over{{Over: 0, Deliveries: []schema.Delivery{delivery("x", 1)}}},
		}
	}
	rec := &schema.Record{
		Info:    baseInfo(),
		Innings: []schema.Innings{inn("West Indies"), inn("Bangladesh")},
	}

	rows := Flatten(rec)
	if len(rows.Deliveries) != 2 {
		t.Fatalf("got %d delivery rows, want 2", len(rows.Deliveries))
	}
	if rows.Deliveries[0].InningsNumber != 1 || rows.Deliveries[1].InningsNumber != 2 {
		t.Errorf("innings numbers = %d, %d, want 1, 2",
			rows.Deliveries[0].InningsNumber, rows.Deliveries[1].InningsNumber)
	}
}

func TestFlattenEmptyOversContributeNothing(t *testing.T) {
	rec := &schema.Record{
		Info: baseInfo(),
		Innings: []schema.Innings{
			{Team: "West Indies", Overs: []schema.Over{}},
			{Team: "Bangladesh", Overs: []schema.Over{{Over: 0, Deliveries: []schema.Delivery{}}}},
		},
	}
	rows := Flatten(rec)
	if len(rows.Deliveries) != 0 {
		t.Errorf("got %d delivery rows, want 0", len(rows.Deliveries))
	}
}

func TestFlattenFirstWicketOnly(t *testing.T) {
	d := delivery("K Mayers", 0)
	d.Wickets = []schema.Wicket{
		{Kind: "run out", PlayerOut: "K Mayers", Fielders: []schema.Fielder{
			{Name: "Tamim Iqbal"},
			{Name: "Sub Fielder", Substitute: boolPtr(true)},
		}},
		{Kind: "obstructing the field", PlayerOut: "R Shepherd"},
	}
	rec := &schema.Record{
		Info: baseInfo(),
		Innings: []schema.Innings{{
			Team:  "West Indies",
			Overs: []schema.Over{{Over: 3, Deliveries: []schema.Delivery{d}}},
		}},
	}

	rows := Flatten(rec)
	row := rows.Deliveries[0]
	if row.WicketKind == nil || *row.WicketKind != "run out" {
		t.Errorf("WicketKind = %v, want run out", row.WicketKind)
	}
	if row.PlayerOut == nil || *row.PlayerOut != "K Mayers" {
		t.Errorf("PlayerOut = %v, want K Mayers", row.PlayerOut)
	}
	// Fielders flatten to names only; substitution metadata is dropped.
	if row.Fielders == nil || *row.Fielders != `["Tamim Iqbal","Sub Fielder"]` {
		t.Errorf("Fielders = %v, want both names as JSON", row.Fielders)
	}
}

func TestFlattenExtrasNullVersusZero(t *testing.T) {
	withExtras := delivery("a", 0)
	withExtras.Extras = &schema.Extras{Wides: intPtr(1)}
	without := delivery("a", 0)

	rec := &schema.Record{
		Info: baseInfo(),
		Innings: []schema.Innings{{
			Team:  "West Indies",
			Overs: []schema.Over{{Over: 0, Deliveries: []schema.Delivery{withExtras, without}}},
		}},
	}

	rows := Flatten(rec)
	first, second := rows.Deliveries[0], rows.Deliveries[1]
	if first.ExtrasWides == nil || *first.ExtrasWides != 1 {
		t.Errorf("ExtrasWides = %v, want 1", first.ExtrasWides)
	}
	// Sub-fields of a present extras object stay nil when absent,
	// and the whole breakdown is nil when the object is absent:
	// zero and "not applicable" remain distinguishable.
	if first.ExtrasByes != nil {
		t.Errorf("ExtrasByes = %v, want nil", first.ExtrasByes)
	}
	if second.ExtrasWides != nil || second.ExtrasByes != nil {
		t.Errorf("second delivery extras = %v/%v, want nil/nil", second.ExtrasWides, second.ExtrasByes)
	}
}

func TestFlattenTossDefaults(t *testing.T) {
	info := baseInfo()
	rec := &schema.Record{Info: info, Innings: []schema.Innings{{Team: "West Indies"}}}

	rows := Flatten(rec)
	if rows.Match.TossWinner != "unknown" || rows.Match.TossDecision != "unknown" {
		t.Errorf("toss defaults = %q/%q, want unknown/unknown",
			rows.Match.TossWinner, rows.Match.TossDecision)
	}
	if rows.Match.TossUncontested {
		t.Error("TossUncontested = true, want false default")
	}

	info.Toss = &schema.Toss{Winner: "Bangladesh", Decision: "field"}
	rows = Flatten(&schema.Record{Info: info, Innings: rec.Innings})
	if rows.Match.TossWinner != "Bangladesh" || rows.Match.TossDecision != "field" {
		t.Errorf("toss = %q/%q, want Bangladesh/field", rows.Match.TossWinner, rows.Match.TossDecision)
	}
}

func TestFlattenPlayerIdentity(t *testing.T) {
	rec := &schema.Record{Info: baseInfo(), Innings: []schema.Innings{{Team: "West Indies"}}}

	rows := Flatten(rec)
	if len(rows.Players) != 3 {
		t.Fatalf("got %d player rows, want 3", len(rows.Players))
	}
	if len(rows.MatchPlayers) != 3 {
		t.Fatalf("got %d match_player rows, want 3", len(rows.MatchPlayers))
	}

	// Teams iterate in info.teams order, so Bangladesh players come first.
	byName := map[string]PlayerRow{}
	for _, p := range rows.Players {
		byName[p.Name] = p
	}
	if p := byName["Tamim Iqbal"]; p.ID != "6a26e6e3" || p.RegistryID == nil {
		t.Errorf("registered player id = %q, want registry id", p.ID)
	}
	if p := byName["Shakib Al Hasan"]; p.ID != "Shakib Al Hasan" || p.RegistryID != nil {
		t.Errorf("unregistered player id = %q, want raw name fallback", p.ID)
	}
	if rows.Players[0].Name != "Tamim Iqbal" {
		t.Errorf("first player = %q, want Tamim Iqbal (teams order)", rows.Players[0].Name)
	}
	if rows.MatchPlayers[2].Team != "West Indies" {
		t.Errorf("last match player team = %q, want West Indies", rows.MatchPlayers[2].Team)
	}
}

func TestFlattenDuplicatePlayerListedOnce(t *testing.T) {
	info := baseInfo()
	info.Players["Bangladesh"] = []string{"Tamim Iqbal", "Tamim Iqbal"}
	rec := &schema.Record{Info: info, Innings: []schema.Innings{{Team: "West Indies"}}}

	rows := Flatten(rec)
	count := 0
	for _, p := range rows.Players {
		if p.ID == "6a26e6e3" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("duplicate player produced %d rows, want 1", count)
	}
}

func TestFlattenOfficials(t *testing.T) {
	info := baseInfo()
	info.Officials = &schema.Officials{
		Umpires:        []string{"A Umpire", "B Umpire"},
		TVUmpires:      []string{"C Umpire"},
		MatchReferees:  []string{"D Referee"},
		ReserveUmpires: nil,
	}
	rec := &schema.Record{Info: info, Innings: []schema.Innings{{Team: "West Indies"}}}

	rows := Flatten(rec)
	want := []OfficialRow{
		{Name: "D Referee", Role: "match_referee"},
		{Name: "C Umpire", Role: "tv_umpire"},
		{Name: "A Umpire", Role: "umpire"},
		{Name: "B Umpire", Role: "umpire"},
	}
	if len(rows.Officials) != len(want) {
		t.Fatalf("got %d official rows, want %d", len(rows.Officials), len(want))
	}
	for i, w := range want {
		if rows.Officials[i] != w {
			t.Errorf("official %d = %+v, want %+v", i, rows.Officials[i], w)
		}
	}
}

func TestFlattenMatchRow(t *testing.T) {
	info := baseInfo()
	info.City = strPtr("Mirpur")
	info.Event = &schema.Event{Name: "Tri Series", MatchNumber: intPtr(3)}
	info.Outcome = &schema.Outcome{Winner: strPtr("Bangladesh"), By: map[string]int{"wickets": 6}}
	info.PlayerOfMatch = []string{"Shakib Al Hasan"}
	rec := &schema.Record{Info: info, Innings: []schema.Innings{{Team: "West Indies"}}}

	m := Flatten(rec).Match
	if m.Team1 != "Bangladesh" || m.Team2 != "West Indies" {
		t.Errorf("teams = %q/%q", m.Team1, m.Team2)
	}
	if m.Dates != `["2021-01-20"]` {
		t.Errorf("Dates = %q, want JSON array", m.Dates)
	}
	if m.EventName == nil || *m.EventName != "Tri Series" {
		t.Errorf("EventName = %v, want Tri Series", m.EventName)
	}
	if m.OutcomeBy == nil || *m.OutcomeBy != `{"wickets":6}` {
		t.Errorf("OutcomeBy = %v, want JSON object", m.OutcomeBy)
	}
	if m.PlayerOfMatch == nil || *m.PlayerOfMatch != `["Shakib Al Hasan"]` {
		t.Errorf("PlayerOfMatch = %v", m.PlayerOfMatch)
	}
}

func TestFlattenInningsFlags(t *testing.T) {
	rec := &schema.Record{
		Info: baseInfo(),
		Innings: []schema.Innings{{
			Team:      "West Indies",
			Declared:  boolPtr(true),
			SuperOver: boolPtr(true),
			Overs:     []schema.Over{{Over: 0, Deliveries: []schema.Delivery{delivery("a", 0)}}},
		}},
	}
	d := Flatten(rec).Deliveries[0]
	if !d.Declared || d.Forfeited || !d.SuperOver {
		t.Errorf("flags = declared=%v forfeited=%v super_over=%v, want true/false/true",
			d.Declared, d.Forfeited, d.SuperOver)
	}
}
