package crypto

import (
	"bytes"
	"errors"
	"testing"

	"veritas/internal/domain"
)

func TestCanonicalForm_RedactsVolatileKeys(t *testing.T) {
	first := map[string]any{"name": "A", "_id": "x1", "updatedAt": "t0"}
	second := map[string]any{"updatedAt": "t1", "name": "A", "_id": "x2"}

	formA, err := CanonicalForm(first)
	if err != nil {
		t.Fatalf("canonical form: %v", err)
	}
	formB, err := CanonicalForm(second)
	if err != nil {
		t.Fatalf("canonical form: %v", err)
	}

	bytesA, err := Canonicalize(formA)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	bytesB, err := Canonicalize(formB)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if !bytes.Equal(bytesA, bytesB) {
		t.Fatalf("canonical bytes differ: %s vs %s", bytesA, bytesB)
	}
	if Fingerprint(bytesA) != Fingerprint(bytesB) {
		t.Fatal("fingerprints differ for records that are equal after redaction")
	}
	if string(bytesA) != `{"name":"A"}` {
		t.Fatalf("unexpected canonical bytes: %s", bytesA)
	}
}

func TestCanonicalForm_NestedRedaction(t *testing.T) {
	doc := map[string]any{
		"sections": []any{
			map[string]any{"heading": "Work", "_id": "s1", "user": "u9"},
			map[string]any{"heading": "Education", "createdAt": "2024-01-01"},
		},
	}
	form, err := CanonicalForm(doc)
	if err != nil {
		t.Fatalf("canonical form: %v", err)
	}
	out, err := Canonicalize(form)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	want := `{"sections":[{"heading":"Work"},{"heading":"Education"}]}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestCanonicalForm_FileObjectKeepsOnlyFilename(t *testing.T) {
	doc := map[string]any{
		"attachment": map[string]any{
			"filename":  "cv.pdf",
			"url":       "https://cdn.example/v123/cv.pdf",
			"secureUrl": "https://cdn.example/v123/cv.pdf?sig=abc",
		},
	}
	form, err := CanonicalForm(doc)
	if err != nil {
		t.Fatalf("canonical form: %v", err)
	}
	out, err := Canonicalize(form)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	want := `{"attachment":{"filename":"cv.pdf"}}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestCanonicalForm_RejectsScalarTopLevel(t *testing.T) {
	for _, input := range []any{"a string", 42, true, nil, []any{"x"}} {
		if _, err := CanonicalForm(input); !errors.Is(err, domain.ErrInvalidInputKind) {
			t.Fatalf("input %v: expected ErrInvalidInputKind, got %v", input, err)
		}
	}
}

func TestCanonicalize_KeyOrderIndependence(t *testing.T) {
	a := map[string]any{"z": 1, "a": map[string]any{"y": true, "b": "v"}, "m": []any{"1", "2"}}
	b := map[string]any{"a": map[string]any{"b": "v", "y": true}, "m": []any{"1", "2"}, "z": 1}

	outA, err := Canonicalize(a)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	outB, err := Canonicalize(b)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if !bytes.Equal(outA, outB) {
		t.Fatalf("canonical bytes differ: %s vs %s", outA, outB)
	}
	if string(outA) != `{"a":{"b":"v","y":true},"m":["1","2"],"z":1}` {
		t.Fatalf("unexpected canonical bytes: %s", outA)
	}
}

func TestCanonicalize_SequenceOrderPreserved(t *testing.T) {
	out, err := Canonicalize(map[string]any{"s": []any{"b", "a"}})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if string(out) != `{"s":["b","a"]}` {
		t.Fatalf("sequence order not preserved: %s", out)
	}
}

func TestCanonicalize_Numbers(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{0, `{"n":0}`},
		{float64(10), `{"n":10}`},
		{-1.5, `{"n":-1.5}`},
		{0.000001, `{"n":0.000001}`},
		{float64(9007199254740992), `{"n":9007199254740992}`},
		{1e30, `{"n":1e30}`},
	}
	for _, tc := range cases {
		out, err := Canonicalize(map[string]any{"n": tc.in})
		if err != nil {
			t.Fatalf("canonicalize %v: %v", tc.in, err)
		}
		if string(out) != tc.want {
			t.Fatalf("got %s, want %s", out, tc.want)
		}
	}
}

func TestCanonicalize_StringEscapes(t *testing.T) {
	out, err := Canonicalize(map[string]any{"s": "a\"b\\c\nd"})
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	want := `{"s":"a\"b\\c\nd"}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestFingerprint_Sensitivity(t *testing.T) {
	base := map[string]any{"name": "A", "summary": "engineer"}
	changed := map[string]any{"name": "A", "summary": "designer"}

	outA, _ := Canonicalize(base)
	outB, _ := Canonicalize(changed)
	if Fingerprint(outA) == Fingerprint(outB) {
		t.Fatal("fingerprint did not change for a non-redacted field change")
	}
}
