package acheron

import "testing"

type record struct {
	ID    uint64
	Score float64
	Tag   [16]byte
}

func TestMakeFree(t *testing.T) {
	a := newTestLocal(t)

	s, err := Make[record](a, 100)
	if err != nil {
		t.Fatalf("Make: %v", err)
	}
	if len(s) != 100 {
		t.Fatalf("Make: want len 100 got %d", len(s))
	}
	for i := range s {
		s[i] = record{ID: uint64(i), Score: float64(i) * 1.5}
	}
	for i := range s {
		if s[i].ID != uint64(i) || s[i].Score != float64(i)*1.5 {
			t.Fatalf("element %d: readback mismatch", i)
		}
	}
	if err := Free(a, s); err != nil {
		t.Fatalf("Free: %v", err)
	}
}

func TestMakeZeroLen(t *testing.T) {
	a := newTestLocal(t)
	s, err := Make[int](a, 0)
	if s != nil || err != nil {
		t.Fatalf("Make(0): want (nil, nil) got (%v, %v)", s, err)
	}
	if err := Free(a, s); err != nil {
		t.Fatalf("Free(nil): %v", err)
	}
}

func TestMakeZeroSizedType(t *testing.T) {
	a := newTestLocal(t)
	s, err := Make[struct{}](a, 10)
	if s != nil || err != nil {
		t.Fatalf("Make[struct{}]: want (nil, nil) got (%v, %v)", s, err)
	}
}

func TestNewDelete(t *testing.T) {
	a := newTestLocal(t)

	r, err := New[record](a)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.ID = 42
	copy(r.Tag[:], "hello")
	if r.ID != 42 || string(r.Tag[:5]) != "hello" {
		t.Fatalf("readback mismatch")
	}
	if err := Delete(a, r); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := Delete[record](a, nil); err != nil {
		t.Fatalf("Delete(nil): %v", err)
	}
}

// 大切片要落到直接映射路径，Free 也要能按同样的换算找回去
func TestMakeLarge(t *testing.T) {
	a := newTestLocal(t)

	s, err := Make[uint64](a, 1<<20) // 8MiB
	if err != nil {
		t.Fatalf("Make large: %v", err)
	}
	s[0], s[len(s)-1] = 1, 2
	if st := a.Stats(); st.DirectCount != 1 {
		t.Fatalf("Stats: want 1 direct mapping got %d", st.DirectCount)
	}
	if err := Free(a, s); err != nil {
		t.Fatalf("Free large: %v", err)
	}
}
