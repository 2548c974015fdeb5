package discovery

import (
	"reflect"
	"testing"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

func TestDedupKeepsFirst(t *testing.T) {
	in := []domain.MarketRecord{
		{ConditionID: "a", Question: "first a"},
		{ConditionID: "b", Question: "b"},
		{ConditionID: "a", Question: "second a"},
		{ConditionID: "c", Question: "c"},
	}
	got := Dedup(in)

	want := []string{"first a", "b", "c"}
	var questions []string
	for _, r := range got {
		questions = append(questions, r.Question)
	}
	if !reflect.DeepEqual(questions, want) {
		t.Errorf("got %v, want %v", questions, want)
	}
	if len(in) != 4 || in[2].Question != "second a" {
		t.Error("input was modified")
	}
}

func TestDedupIdempotent(t *testing.T) {
	in := []domain.MarketRecord{{ConditionID: "x"}, {ConditionID: "y"}, {ConditionID: "x"}}
	once := Dedup(in)
	if twice := Dedup(once); !reflect.DeepEqual(once, twice) {
		t.Errorf("Dedup not idempotent: %v vs %v", once, twice)
	}
}

func TestDedupEmpty(t *testing.T) {
	if got := Dedup(nil); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}
