package querybuilder

import "testing"

func TestSelectToSQL(t *testing.T) {
	t.Parallel()

	query, args, err := Select("match_id", "seq", "runs").
		From("ball_events").
		Where(Eq("match_id", "m1"), Expr("provider_ball_id IS NOT NULL")).
		OrderBy("seq").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "SELECT match_id, seq, runs FROM ball_events WHERE match_id = $1 AND provider_ball_id IS NOT NULL ORDER BY seq LIMIT 10"
	if query != want {
		t.Fatalf("unexpected query:\ngot=%s\nwant=%s", query, want)
	}
	if len(args) != 1 || args[0] != "m1" {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestSelectInEmptyValues(t *testing.T) {
	t.Parallel()

	query, args, err := Select("id").
		From("fantasy_teams").
		Where(In("id", nil)).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}
	if query != "SELECT id FROM fantasy_teams WHERE 1=0" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestInsertModelSuffixPlaceholders(t *testing.T) {
	t.Parallel()

	type row struct {
		MatchID  string  `db:"match_id"`
		PlayerID string  `db:"player_id"`
		Points   float64 `db:"points"`
	}

	query, args, err := InsertModel("player_match_stats", row{
		MatchID:  "m1",
		PlayerID: "p1",
		Points:   42.5,
	}, "ON CONFLICT (match_id, player_id) DO UPDATE SET points = EXCLUDED.points")
	if err != nil {
		t.Fatalf("InsertModel error: %v", err)
	}

	want := "INSERT INTO player_match_stats (match_id, player_id, points) VALUES ($1, $2, $3) ON CONFLICT (match_id, player_id) DO UPDATE SET points = EXCLUDED.points"
	if query != want {
		t.Fatalf("unexpected query:\ngot=%s\nwant=%s", query, want)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args length: %d", len(args))
	}
}

func TestUpdateToSQL(t *testing.T) {
	t.Parallel()

	query, args, err := Update("matches").
		Set("status", "live").
		Where(Eq("id", "m1"), Eq("status", "upcoming")).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}

	want := "UPDATE matches SET status = $1 WHERE id = $2 AND status = $3"
	if query != want {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 3 {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestDeleteRequiresConditions(t *testing.T) {
	t.Parallel()

	if _, _, err := DeleteFrom("ball_events").ToSQL(); err == nil {
		t.Fatal("expected error for delete without conditions")
	}

	query, args, err := DeleteFrom("ball_events").
		Where(Eq("match_id", "m1"), Eq("provider_ball_id", "105")).
		ToSQL()
	if err != nil {
		t.Fatalf("ToSQL error: %v", err)
	}
	if query != "DELETE FROM ball_events WHERE match_id = $1 AND provider_ball_id = $2" {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 2 {
		t.Fatalf("unexpected args: %v", args)
	}
}
