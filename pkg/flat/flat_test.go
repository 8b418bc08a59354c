package flat

import (
	"strings"
	"testing"
)

func TestSetInsertKeepsOrder(t *testing.T) {
	s := NewSet[int]()
	for _, v := range []int{5, 1, 4, 2, 3} {
		s.Insert(v)
	}

	if s.Len() != 5 {
		t.Fatalf("Len = %d, want 5", s.Len())
	}

	var got []int
	for v := range s.All() {
		got = append(got, v)
	}
	want := []int{1, 2, 3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("elements = %v, want %v", got, want)
		}
	}
}

func TestSetInsertDeduplicates(t *testing.T) {
	s := NewSet[string]()
	s.Insert("b")
	s.Insert("a")
	s.Insert("b")

	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
	if !s.Contains("a") || !s.Contains("b") {
		t.Error("set should contain a and b")
	}
	if s.Contains("c") {
		t.Error("set should not contain c")
	}
}

type entry struct {
	name  string
	count int
}

func compareEntries(a, b entry) int {
	return strings.Compare(a.name, b.name)
}

func TestSetInsertReplacesEquivalent(t *testing.T) {
	s := NewSetFunc(compareEntries)
	s.Insert(entry{name: "x", count: 1})
	s.Insert(entry{name: "y", count: 2})

	// Same identity under the compare function, different payload.
	s.Insert(entry{name: "x", count: 9})

	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}

	got, ok := s.Get(entry{name: "x"})
	if !ok {
		t.Fatal("expected to find entry x")
	}
	if got.count != 9 {
		t.Errorf("count = %d, want 9", got.count)
	}
}

func TestSetGetMissing(t *testing.T) {
	s := NewSet[int]()
	s.Insert(1)

	if _, ok := s.Get(2); ok {
		t.Error("Get(2) should report missing")
	}
}

func TestSetClear(t *testing.T) {
	s := NewSet[int]()
	s.Insert(1)
	s.Insert(2)
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("Len = %d, want 0 after Clear", s.Len())
	}
	if s.Contains(1) {
		t.Error("cleared set should not contain 1")
	}
}

func TestSetAllStopsEarly(t *testing.T) {
	s := NewSet[int]()
	for i := 1; i <= 10; i++ {
		s.Insert(i)
	}

	var seen int
	for range s.All() {
		seen++
		if seen == 3 {
			break
		}
	}
	if seen != 3 {
		t.Errorf("seen = %d, want 3", seen)
	}
}

func TestMapSetGet(t *testing.T) {
	m := NewMap[string, int]()
	m.Set("b", 2)
	m.Set("a", 1)
	m.Set("c", 3)
	m.Set("a", 10) // overwrite

	if m.Len() != 3 {
		t.Fatalf("Len = %d, want 3", m.Len())
	}

	v, ok := m.Get("a")
	if !ok || v != 10 {
		t.Errorf("Get(a) = %d, %v, want 10, true", v, ok)
	}
	if _, ok := m.Get("z"); ok {
		t.Error("Get(z) should report missing")
	}
	if !m.Contains("c") {
		t.Error("map should contain c")
	}

	var keys []string
	var values []int
	for k, v := range m.All() {
		keys = append(keys, k)
		values = append(values, v)
	}
	wantKeys := []string{"a", "b", "c"}
	wantValues := []int{10, 2, 3}
	for i := range wantKeys {
		if keys[i] != wantKeys[i] || values[i] != wantValues[i] {
			t.Fatalf("entries = %v/%v, want %v/%v", keys, values, wantKeys, wantValues)
		}
	}
}

func TestMapClear(t *testing.T) {
	m := NewMap[int, string]()
	m.Set(1, "one")
	m.Clear()

	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0 after Clear", m.Len())
	}
	if m.Contains(1) {
		t.Error("cleared map should not contain key 1")
	}
}
