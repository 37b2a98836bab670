package store

import (
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

func s(v string) types.AttributeValue { return &types.AttributeValueMemberS{Value: v} }
func n(v int) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", v)}
}

func TestConvertSortKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"createTime", "create_time"},
		{"-createTime", "-create_time"},
		{"likedNb", "liked_nb"},
		{"-uploadTime", "-upload_time"},
		{"name", "name"},
		{"somethingElse", "somethingElse"},
		{"-somethingElse", "-somethingElse"},
		{"create_time", "create_time"},
	}
	for _, tt := range tests {
		if got := ConvertSortKey(tt.in); got != tt.want {
			t.Errorf("ConvertSortKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func testRows() []Row {
	return []Row{
		{"id": s("a"), "create_time": n(100), "liked_nb": n(3), "access_level": s("everyone")},
		{"id": s("b"), "create_time": n(200), "liked_nb": n(1), "access_level": s("private")},
		{"id": s("c"), "create_time": n(300), "liked_nb": n(3), "access_level": s("everyone")},
		{"id": s("d"), "create_time": n(400), "liked_nb": n(2), "access_level": s("everyone")},
	}
}

func ids(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = attrString(r, "id")
	}
	return out
}

func assertIDs(t *testing.T, rows []Row, want ...string) {
	t.Helper()
	got := ids(rows)
	if len(got) != len(want) {
		t.Fatalf("got ids %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got ids %v, want %v", got, want)
		}
	}
}

func TestFilterRowsOrdering(t *testing.T) {
	rows, err := FilterRows(testRows(), []string{"-likedNb", "createTime"}, nil, "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, rows, "a", "c", "d", "b")
}

func TestFilterRowsAccessLevelBeforeSlicing(t *testing.T) {
	// The page window applies to the filtered set, not the raw partition:
	// row "b" is filtered out, so the second page entry is "d".
	nb := 2
	rows, err := FilterRows(testRows(), []string{"createTime"}, &nb, "everyone", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, rows, "c", "d")
}

func TestFilterRowsUnboundedNb(t *testing.T) {
	rows, err := FilterRows(testRows(), []string{"createTime"}, nil, "", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, rows, "c", "d")
}

func TestFilterRowsStartIndexPastEnd(t *testing.T) {
	rows, err := FilterRows(testRows(), []string{"createTime"}, nil, "", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected empty page, got %v", ids(rows))
	}
}

func TestFilterRowsNegativeNb(t *testing.T) {
	nb := -1
	if _, err := FilterRows(testRows(), nil, &nb, "", 0); err == nil {
		t.Fatal("expected error for negative nb")
	}
}

func TestFilterRowsDoesNotMutateInput(t *testing.T) {
	rows := testRows()
	if _, err := FilterRows(rows, []string{"-createTime"}, nil, "", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertIDs(t, rows, "a", "b", "c", "d")
}
