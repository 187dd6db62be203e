package database

import "testing"

type sampleBlob struct {
	A int    `json:"a"`
	B string `json:"b"`
}

func TestLazyDecodesOnFirstRead(t *testing.T) {
	l := NewLazy[sampleBlob]([]byte(`{"a":5,"b":"hi"}`))
	if l.IsDirty() {
		t.Fatal("freshly loaded blob should not be dirty")
	}
	if got := l.Get().A; got != 5 {
		t.Fatalf("expected a=5, got %d", got)
	}
}

func TestLazyMutableMarksDirty(t *testing.T) {
	l := NewLazy[sampleBlob]([]byte(`{"a":1,"b":"x"}`))
	l.Mutable().A = 2
	if !l.IsDirty() {
		t.Fatal("expected Mutable() to mark dirty")
	}

	enc, err := l.Serialised()
	if err != nil {
		t.Fatalf("Serialised() error = %v", err)
	}
	if l.IsDirty() {
		t.Fatal("expected dirty flag to clear after serialisation")
	}

	reloaded := NewLazy[sampleBlob](enc)
	if reloaded.Get().A != 2 {
		t.Fatalf("expected round-tripped a=2, got %d", reloaded.Get().A)
	}
}

func TestLazyDefaultStartsDirty(t *testing.T) {
	l := NewLazyDefault[sampleBlob]()
	if !l.IsDirty() {
		t.Fatal("a freshly-created record with no backing bytes should be dirty")
	}
}
