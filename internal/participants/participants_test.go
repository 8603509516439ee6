package participants

import (
	"reflect"
	"strings"
	"testing"
)

func roster() []Member {
	return []Member{
		{ID: "u3", Name: "Carla", Email: "carla@example.com"},
		{ID: "u1", Name: "Ana", Email: "ana@example.com"},
		{ID: "u2", Name: "Bruno", Email: "bruno@example.com"},
	}
}

func ids(ds []Display) string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return strings.Join(out, ",")
}

func TestResolve_RosterIsAuthoritative(t *testing.T) {
	t.Parallel()

	got := Resolve([]string{"u1", "gone", "u3", "u1"}, roster())
	if ids(got) != "u3,u1" {
		t.Fatalf("expected roster order without unknown ids, got %s", ids(got))
	}
	for _, d := range got {
		if d.ID == "gone" {
			t.Fatalf("unknown id leaked into the result")
		}
	}

	again := Resolve([]string{"u3", "u1", "gone"}, roster())
	if !reflect.DeepEqual(got, again) {
		t.Fatalf("order depends on input order: %s vs %s", ids(got), ids(again))
	}
}

func TestResolve_EmptyInputs(t *testing.T) {
	t.Parallel()

	if got := Resolve(nil, roster()); len(got) != 0 {
		t.Fatalf("expected no participants, got %v", got)
	}
	if got := Resolve([]string{"u1"}, nil); len(got) != 0 {
		t.Fatalf("expected no participants without a roster, got %v", got)
	}
}

func TestStage_EditSession(t *testing.T) {
	t.Parallel()

	s := NewStage([]string{"u1", "u2"})
	if s.Dirty() {
		t.Fatalf("fresh stage should not be dirty")
	}

	s.Add("u3")
	s.Add("u3")
	s.Remove("u1")
	s.Remove("missing")

	if got := strings.Join(s.IDs(), ","); got != "u2,u3" {
		t.Fatalf("unexpected staged ids %s", got)
	}
	added, removed := s.Diff()
	if strings.Join(added, ",") != "u3" || strings.Join(removed, ",") != "u1" {
		t.Fatalf("unexpected diff added=%v removed=%v", added, removed)
	}
	if !s.Dirty() {
		t.Fatalf("stage should be dirty")
	}

	s.Reset()
	if s.Dirty() || strings.Join(s.IDs(), ",") != "u1,u2" {
		t.Fatalf("reset did not restore persisted ids: %v", s.IDs())
	}

	s.Add("u4")
	s.Commit()
	if s.Dirty() {
		t.Fatalf("committed stage should not be dirty")
	}
}

func TestStage_ZeroValueIsUsable(t *testing.T) {
	t.Parallel()

	var s Stage
	if s.Dirty() || len(s.IDs()) != 0 {
		t.Fatalf("zero stage should be empty and clean")
	}
	s.Remove("u1")
	s.Add(" u1 ")
	added, removed := s.Diff()
	if strings.Join(added, ",") != "u1" || len(removed) != 0 {
		t.Fatalf("unexpected diff added=%v removed=%v", added, removed)
	}
}
