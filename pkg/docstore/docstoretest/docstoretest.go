// Package docstoretest provides a conformance suite every docstore backend
// must pass.
package docstoretest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/blueprints/pkg/docstore"
)

// Factory opens a fresh, empty store for one subtest.
type Factory func(t *testing.T) docstore.Store

// Run exercises the full [docstore.Store] contract against stores returned
// by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s docstore.Store)
	}{
		{"FindOneAbsent", testFindOneAbsent},
		{"InsertMintsNativeKey", testInsertMintsNativeKey},
		{"InsertStringKey", testInsertStringKey},
		{"InsertDuplicate", testInsertDuplicate},
		{"NativeAndStringKeysDistinct", testKeyKindsDistinct},
		{"Replace", testReplace},
		{"ReplaceMissing", testReplaceMissing},
		{"Remove", testRemove},
		{"Truncate", testTruncate},
		{"Scan", testScan},
		{"ScanStops", testScanStops},
		{"ParseNativeKey", testParseNativeKey},
		{"AppendIfAbsent", testAppendIfAbsent},
		{"AppendSeedsDocument", testAppendSeeds},
		{"UpdateElement", testUpdateElement},
		{"PullElement", testPullElement},
		{"ConcurrentAppends", testConcurrentAppends},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func testFindOneAbsent(t *testing.T, s docstore.Store) {
	doc, err := s.Collection("c").FindOne(context.Background(), docstore.Str("missing"))
	if err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if doc != nil {
		t.Errorf("FindOne(missing) = %v, want nil", doc)
	}
}

func testInsertMintsNativeKey(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	c := s.Collection("c")

	key, err := c.Insert(ctx, docstore.Document{"name": "a"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if key.Kind != docstore.NativeKey || key.IsZero() {
		t.Fatalf("Insert key = %+v, want non-empty native key", key)
	}

	doc, err := c.FindOne(ctx, key)
	if err != nil || doc == nil {
		t.Fatalf("FindOne = %v, %v", doc, err)
	}
	if got, _ := doc.Key(); got != key {
		t.Errorf("doc key = %+v, want %+v", got, key)
	}
	if doc["name"] != "a" {
		t.Errorf("doc[name] = %v, want a", doc["name"])
	}

	other, err := c.Insert(ctx, docstore.Document{})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if other == key {
		t.Error("two inserts minted the same key")
	}
}

func testInsertStringKey(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	c := s.Collection("c")

	key, err := c.Insert(ctx, docstore.Document{docstore.KeyField: docstore.Str("t:1")})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if key != docstore.Str("t:1") {
		t.Errorf("Insert key = %+v, want string t:1", key)
	}
	doc, err := c.FindOne(ctx, docstore.Str("t:1"))
	if err != nil || doc == nil {
		t.Fatalf("FindOne = %v, %v", doc, err)
	}
}

func testInsertDuplicate(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	c := s.Collection("c")
	doc := docstore.Document{docstore.KeyField: docstore.Str("dup")}

	if _, err := c.Insert(ctx, doc); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if _, err := c.Insert(ctx, doc); !errors.Is(err, docstore.ErrDuplicateKey) {
		t.Errorf("second Insert error = %v, want ErrDuplicateKey", err)
	}
}

func testKeyKindsDistinct(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	c := s.Collection("c")

	native, err := c.Insert(ctx, docstore.Document{"kind": "native"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	str := docstore.Str(native.Value)
	if _, err := c.Insert(ctx, docstore.Document{docstore.KeyField: str, "kind": "string"}); err != nil {
		t.Fatalf("Insert string twin: %v", err)
	}

	a, _ := c.FindOne(ctx, native)
	b, _ := c.FindOne(ctx, str)
	if a == nil || b == nil {
		t.Fatalf("FindOne = %v, %v; want both present", a, b)
	}
	if a["kind"] != "native" || b["kind"] != "string" {
		t.Errorf("kinds = %v, %v; want native, string", a["kind"], b["kind"])
	}
}

func testReplace(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	c := s.Collection("c")
	key, _ := c.Insert(ctx, docstore.Document{"a": "1", "b": "2"})

	if err := c.Replace(ctx, key, docstore.Document{"a": "3"}); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	doc, _ := c.FindOne(ctx, key)
	if doc["a"] != "3" {
		t.Errorf("doc[a] = %v, want 3", doc["a"])
	}
	if _, ok := doc["b"]; ok {
		t.Error("Replace kept field b")
	}
}

func testReplaceMissing(t *testing.T, s docstore.Store) {
	err := s.Collection("c").Replace(context.Background(), docstore.Str("nope"), docstore.Document{})
	if !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("Replace(missing) error = %v, want ErrNotFound", err)
	}
}

func testRemove(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	c := s.Collection("c")
	key, _ := c.Insert(ctx, docstore.Document{})

	ok, err := c.Remove(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Remove = %v, %v; want true, nil", ok, err)
	}
	ok, err = c.Remove(ctx, key)
	if err != nil || ok {
		t.Errorf("second Remove = %v, %v; want false, nil", ok, err)
	}
	if doc, _ := c.FindOne(ctx, key); doc != nil {
		t.Errorf("FindOne after Remove = %v, want nil", doc)
	}
}

func testTruncate(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	c := s.Collection("c")
	other := s.Collection("other")
	for i := range 3 {
		c.Insert(ctx, docstore.Document{docstore.KeyField: docstore.Str(fmt.Sprint(i))})
	}
	otherKey, _ := other.Insert(ctx, docstore.Document{})

	if err := c.Truncate(ctx); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if n := count(t, c); n != 0 {
		t.Errorf("count after Truncate = %d, want 0", n)
	}
	if doc, _ := other.FindOne(ctx, otherKey); doc == nil {
		t.Error("Truncate removed a document from another collection")
	}
}

func testScan(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	c := s.Collection("c")
	want := []string{"a", "b", "c"}
	for _, k := range want {
		c.Insert(ctx, docstore.Document{docstore.KeyField: docstore.Str(k)})
	}

	var got []string
	err := c.Scan(ctx, func(d docstore.Document) error {
		k, ok := d.Key()
		if !ok {
			t.Errorf("scanned document %v has no key", d)
		}
		got = append(got, k.Value)
		return nil
	})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	sort.Strings(got)
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Scan keys = %v, want %v", got, want)
	}
}

func testScanStops(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	c := s.Collection("c")
	for i := range 5 {
		c.Insert(ctx, docstore.Document{docstore.KeyField: docstore.Str(fmt.Sprint(i))})
	}

	stop := errors.New("stop")
	seen := 0
	err := c.Scan(ctx, func(docstore.Document) error {
		seen++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("Scan error = %v, want stop", err)
	}
	if seen != 1 {
		t.Errorf("Scan visited %d documents after stop, want 1", seen)
	}
}

func testParseNativeKey(t *testing.T, s docstore.Store) {
	key := s.NewNativeKey()
	got, ok := s.ParseNativeKey(key.Value)
	if !ok || got != key {
		t.Errorf("ParseNativeKey(%q) = %+v, %v; want %+v, true", key.Value, got, ok, key)
	}
	for _, bad := range []string{"", "t:1", "v1|son|v2"} {
		if _, ok := s.ParseNativeKey(bad); ok {
			t.Errorf("ParseNativeKey(%q) = true, want false", bad)
		}
	}
}

func testAppendIfAbsent(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	c := s.Collection("c")
	key := docstore.Str("v1|son")

	elem, appended, err := c.AppendIfAbsent(ctx, key, "targets", "id", docstore.Document{"id": "v2"}, nil)
	if err != nil || !appended {
		t.Fatalf("AppendIfAbsent = %v, %v; want appended", appended, err)
	}
	if elem["id"] != "v2" {
		t.Errorf("elem[id] = %v, want v2", elem["id"])
	}

	if err := mustUpdate(c, key, "v2", docstore.Document{"w": "x"}); err != nil {
		t.Fatal(err)
	}

	elem, appended, err = c.AppendIfAbsent(ctx, key, "targets", "id", docstore.Document{"id": "v2"}, nil)
	if err != nil || appended {
		t.Fatalf("second AppendIfAbsent = %v, %v; want not appended", appended, err)
	}
	if elem["w"] != "x" {
		t.Errorf("existing elem[w] = %v, want x", elem["w"])
	}

	if _, _, err := c.AppendIfAbsent(ctx, key, "targets", "id", docstore.Document{"id": "v3"}, nil); err != nil {
		t.Fatalf("AppendIfAbsent v3: %v", err)
	}
	doc, _ := c.FindOne(ctx, key)
	if got := ids(doc, "targets"); fmt.Sprint(got) != "[v2 v3]" {
		t.Errorf("targets = %v, want [v2 v3]", got)
	}
}

func testAppendSeeds(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	c := s.Collection("c")
	key := docstore.Str("v1|son")
	seed := docstore.Document{"out": "v1", "label": "son"}

	if _, _, err := c.AppendIfAbsent(ctx, key, "targets", "id", docstore.Document{"id": "v2"}, seed); err != nil {
		t.Fatalf("AppendIfAbsent: %v", err)
	}
	doc, _ := c.FindOne(ctx, key)
	if doc["out"] != "v1" || doc["label"] != "son" {
		t.Errorf("seeded doc = %v, want out=v1 label=son", doc)
	}
}

func testUpdateElement(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	c := s.Collection("c")
	key := docstore.Str("r")
	c.AppendIfAbsent(ctx, key, "targets", "id", docstore.Document{"id": "a", "keep": "k", "drop": "d"}, nil)
	c.AppendIfAbsent(ctx, key, "targets", "id", docstore.Document{"id": "b"}, nil)

	ok, err := c.UpdateElement(ctx, key, "targets", "id", "a", docstore.Document{"note": "n"}, []string{"drop"})
	if err != nil || !ok {
		t.Fatalf("UpdateElement = %v, %v; want true", ok, err)
	}
	doc, _ := c.FindOne(ctx, key)
	elems := doc.Elements("targets")
	if len(elems) != 2 {
		t.Fatalf("len(targets) = %d, want 2", len(elems))
	}
	a := elems[0]
	if a["note"] != "n" || a["keep"] != "k" {
		t.Errorf("updated elem = %v, want note=n keep=k", a)
	}
	if _, ok := a["drop"]; ok {
		t.Error("UpdateElement did not unset drop")
	}
	if _, ok := elems[1]["note"]; ok {
		t.Error("UpdateElement touched another element")
	}

	if ok, err := c.UpdateElement(ctx, key, "targets", "id", "zz", docstore.Document{"x": "y"}, nil); err != nil || ok {
		t.Errorf("UpdateElement(missing elem) = %v, %v; want false, nil", ok, err)
	}
	if ok, err := c.UpdateElement(ctx, docstore.Str("nope"), "targets", "id", "a", docstore.Document{"x": "y"}, nil); err != nil || ok {
		t.Errorf("UpdateElement(missing doc) = %v, %v; want false, nil", ok, err)
	}
}

func testPullElement(t *testing.T, s docstore.Store) {
	ctx := context.Background()
	c := s.Collection("c")
	key := docstore.Str("r")
	for _, id := range []string{"a", "b", "c"} {
		c.AppendIfAbsent(ctx, key, "targets", "id", docstore.Document{"id": id}, nil)
	}

	ok, err := c.PullElement(ctx, key, "targets", "id", "b")
	if err != nil || !ok {
		t.Fatalf("PullElement = %v, %v; want true", ok, err)
	}
	doc, _ := c.FindOne(ctx, key)
	if got := ids(doc, "targets"); fmt.Sprint(got) != "[a c]" {
		t.Errorf("targets = %v, want [a c]", got)
	}

	if ok, err := c.PullElement(ctx, key, "targets", "id", "b"); err != nil || ok {
		t.Errorf("second PullElement = %v, %v; want false, nil", ok, err)
	}
	if ok, err := c.PullElement(ctx, docstore.Str("nope"), "targets", "id", "b"); err != nil || ok {
		t.Errorf("PullElement(missing doc) = %v, %v; want false, nil", ok, err)
	}
}

func testConcurrentAppends(t *testing.T, s docstore.Store) {
	const n = 16
	ctx := context.Background()
	c := s.Collection("c")
	key := docstore.Str("v1|son")

	g, gctx := errgroup.WithContext(ctx)
	for i := range n {
		g.Go(func() error {
			_, _, err := c.AppendIfAbsent(gctx, key, "targets", "id", docstore.Document{"id": fmt.Sprintf("t%02d", i)}, nil)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent AppendIfAbsent: %v", err)
	}

	doc, _ := c.FindOne(ctx, key)
	if got := len(doc.Elements("targets")); got != n {
		t.Errorf("len(targets) = %d, want %d", got, n)
	}
}

func mustUpdate(c docstore.Collection, key docstore.Key, id string, set docstore.Document) error {
	ok, err := c.UpdateElement(context.Background(), key, "targets", "id", id, set, nil)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("UpdateElement(%s) matched nothing", id)
	}
	return nil
}

func count(t *testing.T, c docstore.Collection) int {
	t.Helper()
	n := 0
	if err := c.Scan(context.Background(), func(docstore.Document) error {
		n++
		return nil
	}); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	return n
}

func ids(doc docstore.Document, field string) []string {
	var out []string
	for _, e := range doc.Elements(field) {
		if s, ok := e["id"].(string); ok {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
