package domain

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func fixtures() []Destination {
	base := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	return []Destination{
		{ID: "01", Name: "Rome", Date: base.AddDate(0, 2, 0), Priority: PriorityMaybe},
		{ID: "02", Name: "Florence", Date: base, Priority: PriorityMust},
		{ID: "03", Name: "Naples", Date: base.AddDate(0, 1, 0), Priority: PriorityMeh},
	}
}

func namesOf(ds []Destination) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name
	}
	return out
}

func TestQueryApplySearch(t *testing.T) {
	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{name: "empty matches all", search: "", want: []string{"Florence", "Naples", "Rome"}},
		{name: "prefix", search: "Flor", want: []string{"Florence"}},
		{name: "case insensitive", search: "flor", want: []string{"Florence"}},
		{name: "substring", search: "pl", want: []string{"Naples"}},
		{name: "no match", search: "Paris", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Query{Search: tt.search}.Apply(DefaultLocale(), fixtures())
			if !reflect.DeepEqual(namesOf(got), tt.want) {
				t.Errorf("Apply(search=%q) = %v, want %v", tt.search, namesOf(got), tt.want)
			}
		})
	}
}

func TestQueryApplySearchIgnoresDiacritics(t *testing.T) {
	all := []Destination{
		{ID: "1", Name: "Besançon"},
		{ID: "2", Name: "Zürich"},
		{ID: "3", Name: "Lyon"},
	}

	got := Query{Search: "zur"}.Apply(DefaultLocale(), all)
	if !reflect.DeepEqual(namesOf(got), []string{"Zürich"}) {
		t.Errorf("Apply(zur) = %v, want [Zürich]", namesOf(got))
	}

	got = Query{Search: "CON"}.Apply(DefaultLocale(), all)
	if !reflect.DeepEqual(namesOf(got), []string{"Besançon"}) {
		t.Errorf("Apply(CON) = %v, want [Besançon]", namesOf(got))
	}
}

func TestQueryApplySort(t *testing.T) {
	tests := []struct {
		name string
		sort SortKey
		want []string
	}{
		{name: "name ascending", sort: SortByName, want: []string{"Florence", "Naples", "Rome"}},
		{name: "priority descending", sort: SortByPriority, want: []string{"Florence", "Rome", "Naples"}},
		{name: "date ascending", sort: SortByDate, want: []string{"Florence", "Naples", "Rome"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Query{Sort: tt.sort}.Apply(DefaultLocale(), fixtures())
			if !reflect.DeepEqual(namesOf(got), tt.want) {
				t.Errorf("Apply(sort=%s) = %v, want %v", tt.sort, namesOf(got), tt.want)
			}
		})
	}
}

func TestQueryApplyTiesBrokenByID(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	all := []Destination{
		{ID: "c", Name: "Rome", Date: day, Priority: PriorityMaybe},
		{ID: "a", Name: "Rome", Date: day, Priority: PriorityMaybe},
		{ID: "b", Name: "rome", Date: day, Priority: PriorityMaybe},
	}

	for _, key := range []SortKey{SortByName, SortByPriority, SortByDate} {
		got := Query{Sort: key}.Apply(DefaultLocale(), all)
		ids := []string{got[0].ID, got[1].ID, got[2].ID}
		if !reflect.DeepEqual(ids, []string{"a", "b", "c"}) {
			t.Errorf("Apply(sort=%s) ids = %v, want [a b c]", key, ids)
		}
	}
}

func TestQueryApplyLocaleAwareNames(t *testing.T) {
	all := []Destination{
		{ID: "1", Name: "zermatt"},
		{ID: "2", Name: "Évian"},
		{ID: "3", Name: "Annecy"},
		{ID: "4", Name: "Route 10"},
		{ID: "5", Name: "Route 9"},
	}

	got := Query{}.Apply(DefaultLocale(), all)
	want := []string{"Annecy", "Évian", "Route 9", "Route 10", "zermatt"}
	if !reflect.DeepEqual(namesOf(got), want) {
		t.Errorf("Apply() = %v, want %v", namesOf(got), want)
	}
}

func TestQueryApplyDoesNotModifyInput(t *testing.T) {
	all := fixtures()
	_ = Query{Sort: SortByPriority, Search: "o"}.Apply(DefaultLocale(), all)
	if !reflect.DeepEqual(namesOf(all), []string{"Rome", "Florence", "Naples"}) {
		t.Errorf("input reordered: %v", namesOf(all))
	}
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in      string
		want    SortKey
		wantErr bool
	}{
		{in: "", want: SortByName},
		{in: "name", want: SortByName},
		{in: "Priority", want: SortByPriority},
		{in: " date ", want: SortByDate},
		{in: "rating", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortKey(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidSortKey) {
					t.Errorf("ParseSortKey(%q) error = %v, want ErrInvalidSortKey", tt.in, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseSortKey(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
			}
		})
	}
}

func TestParseLocale(t *testing.T) {
	loc, err := ParseLocale("it")
	if err != nil {
		t.Fatalf("ParseLocale(it) error = %v", err)
	}
	if loc.String() != "it" {
		t.Errorf("String() = %q, want it", loc.String())
	}
	if _, err := ParseLocale("not a locale!"); err == nil {
		t.Error("ParseLocale should reject malformed tags")
	}
}
