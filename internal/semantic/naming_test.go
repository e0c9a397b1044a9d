package semantic

import "testing"

func TestStemGroupsRelatedNames(t *testing.T) {
	a := Stem("searchFunctions")
	b := Stem("searching_function")
	if a != b {
		t.Fatalf("Stem(searchFunctions)=%q, Stem(searching_function)=%q, want equal", a, b)
	}
}

func TestGroupByStem(t *testing.T) {
	names := []string{"search", "searching", "searches", "authenticate"}
	groups := GroupByStem(names)

	searchStem := Stem("search")
	group := groups[searchStem]
	if len(group) != 3 {
		t.Fatalf("expected search/searching/searches to share a stem, got groups=%v", groups)
	}
	for _, name := range group {
		if name == "authenticate" {
			t.Fatalf("authenticate should not group with search, got %v", group)
		}
	}
}
