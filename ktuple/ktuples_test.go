package ktuple

import "testing"

func TestSetUnionAndContains(t *testing.T) {
	bits, err := BitsFor(10)
	if err != nil {
		t.Fatal(err)
	}
	k := 2
	a := NewSet(bits, k)
	a.Add(mustPush(t, Empty(bits, k), 5))

	b := NewSet(bits, k)
	b.Add(mustPush(t, Empty(bits, k), 6))

	if !a.Union(b) {
		t.Error("Union should report a change when merging a disjoint set")
	}
	if a.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", a.Len())
	}
	if !a.Contains(mustPush(t, Empty(bits, k), 6)) {
		t.Error("a should contain the unioned tuple")
	}
	if a.Union(b) {
		t.Error("re-unioning the same set should report no change")
	}
}

func TestSetEqual(t *testing.T) {
	bits, err := BitsFor(10)
	if err != nil {
		t.Fatal(err)
	}
	k := 2
	a := NewSet(bits, k)
	a.Add(mustPush(t, Empty(bits, k), 5))
	b := NewSet(bits, k)
	b.Add(mustPush(t, Empty(bits, k), 5))

	if !a.Equal(b) {
		t.Error("sets with the same single member should be equal")
	}
	b.Add(mustPush(t, Empty(bits, k), 6))
	if a.Equal(b) {
		t.Error("sets with different membership should not be equal")
	}
}

func TestConcatAllIsCrossProduct(t *testing.T) {
	bits, err := BitsFor(10)
	if err != nil {
		t.Fatal(err)
	}
	k := 2
	a := NewSet(bits, k)
	a.Add(mustPush(t, Empty(bits, k), 5))
	a.Add(mustPush(t, Empty(bits, k), 6))

	b := NewSet(bits, k)
	b.Add(mustPush(t, Empty(bits, k), 7))

	out, err := ConcatAll(a, b, k)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 2 {
		t.Fatalf("ConcatAll Len() = %d, want 2", out.Len())
	}
	if !out.Contains(mustPush(t, Empty(bits, k), 5, 7)) || !out.Contains(mustPush(t, Empty(bits, k), 6, 7)) {
		t.Error("ConcatAll should contain the cross product of members")
	}
}

func TestSetRetag(t *testing.T) {
	bits, err := BitsFor(10)
	if err != nil {
		t.Fatal(err)
	}
	a := NewSet(bits, 1)
	a.Add(mustPush(t, Empty(bits, 1), 5))

	retagged := a.Retag(3)
	if retagged.Len() != 1 {
		t.Fatalf("Retag should preserve membership, got Len()=%d", retagged.Len())
	}
	if !retagged.Contains(mustPush(t, Empty(bits, 3), 5)) {
		t.Error("retagged set should still contain its member under the new k")
	}
}
