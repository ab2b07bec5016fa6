package mongostore

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/matzehuels/blueprints/pkg/docstore"
)

func TestKeyConversion(t *testing.T) {
	oid := primitive.NewObjectID()

	id, err := toID(docstore.Native(oid.Hex()))
	if err != nil {
		t.Fatalf("toID(native): %v", err)
	}
	if id != oid {
		t.Errorf("toID(native) = %v, want %v", id, oid)
	}

	id, err = toID(docstore.Str(oid.Hex()))
	if err != nil || id != oid.Hex() {
		t.Errorf("toID(string) = %v, %v; want plain string", id, err)
	}

	if _, err := toID(docstore.Native("t:1")); !errors.Is(err, docstore.ErrInvalidKey) {
		t.Errorf("toID(bad native) error = %v, want ErrInvalidKey", err)
	}

	tests := []struct {
		in   any
		want docstore.Key
	}{
		{oid, docstore.Native(oid.Hex())},
		{"t:1", docstore.Str("t:1")},
	}
	for _, tt := range tests {
		got, err := fromID(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("fromID(%v) = %+v, %v; want %+v", tt.in, got, err, tt.want)
		}
	}
	if _, err := fromID(42); err == nil {
		t.Error("fromID(42) should fail")
	}
}

func TestFromBSON(t *testing.T) {
	m := bson.M{
		"_id": "v1|son",
		"targets": bson.A{
			bson.D{{Key: "id", Value: "v2"}, {Key: "w", Value: int32(1)}},
			bson.M{"id": "v3"},
		},
	}
	doc, err := fromBSON(m)
	if err != nil {
		t.Fatal(err)
	}
	if key, _ := doc.Key(); key != docstore.Str("v1|son") {
		t.Errorf("key = %+v, want string v1|son", key)
	}
	elems := doc.Elements("targets")
	if len(elems) != 2 {
		t.Fatalf("len(targets) = %d, want 2", len(elems))
	}
	if elems[0]["id"] != "v2" || elems[1]["id"] != "v3" {
		t.Errorf("targets = %v", elems)
	}
}

func TestParseNativeKey(t *testing.T) {
	s := &Store{}
	key := s.NewNativeKey()
	if got, ok := s.ParseNativeKey(key.Value); !ok || got != key {
		t.Errorf("ParseNativeKey(%q) = %+v, %v", key.Value, got, ok)
	}
	for _, bad := range []string{"", "t:1", "ZZZZZZZZZZZZZZZZZZZZZZZZ"} {
		if _, ok := s.ParseNativeKey(bad); ok {
			t.Errorf("ParseNativeKey(%q) = true, want false", bad)
		}
	}
}

func TestConnectRequiresFields(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no uri", Options{Database: "graphs"}},
		{"no database", Options{URI: "mongodb://localhost:27017"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Connect(context.Background(), tt.opts); err == nil {
				t.Error("Connect() succeeded, want error")
			}
		})
	}
}

func TestConnectUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	_, err = Connect(context.Background(), Options{
		URI:      "mongodb://" + addr + "/?directConnection=true",
		Database: "graphs",
		Timeout:  500 * time.Millisecond,
	})
	if err == nil || !strings.Contains(err.Error(), "ping mongo") {
		t.Errorf("Connect(%s) error = %v, want ping failure", addr, err)
	}
}
