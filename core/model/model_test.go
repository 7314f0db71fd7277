package model_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/artpar/entrack/core/model"
	"github.com/artpar/entrack/domain/comparer"
)

func buildUserModel(t *testing.T) *model.Model {
	t.Helper()

	b := model.NewBuilder()
	b.Entity("user").Table("users").
		Property("id", model.KindUUID).Key().
		Property("email", model.KindString).Unique().
		Property("age", model.KindInt).Nullable().
		Property("avatar", model.KindBytes).Nullable().
		Property("created_at", model.KindTimestamp)

	m, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return m
}

func TestBuilder_BuildsValidModel(t *testing.T) {
	m := buildUserModel(t)

	e, ok := m.Entity("user")
	if !ok {
		t.Fatal("entity user not found")
	}
	if e.Table != "users" {
		t.Errorf("Table = %q, want users", e.Table)
	}
	if got := e.KeyProperty().Name; got != "id" {
		t.Errorf("key property = %q, want id", got)
	}
	if len(e.Properties) != 5 {
		t.Fatalf("len(Properties) = %d, want 5", len(e.Properties))
	}

	// Every property gets a comparer matching its kind's Go type.
	for _, p := range e.Properties {
		if p.Comparer == nil {
			t.Errorf("property %q has no comparer", p.Name)
			continue
		}
		if p.Comparer.Type() != p.Kind.GoType() {
			t.Errorf("property %q comparer type = %s, want %s", p.Name, p.Comparer.Type(), p.Kind.GoType())
		}
	}
}

func TestBuilder_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *model.Builder
	}{
		{"no entities", func() *model.Builder {
			return model.NewBuilder()
		}},
		{"no properties", func() *model.Builder {
			b := model.NewBuilder()
			b.Entity("empty")
			return b
		}},
		{"no key", func() *model.Builder {
			b := model.NewBuilder()
			b.Entity("user").Property("email", model.KindString)
			return b
		}},
		{"two keys", func() *model.Builder {
			b := model.NewBuilder()
			b.Entity("user").
				Property("id", model.KindUUID).Key().
				Property("other", model.KindUUID).Key()
			return b
		}},
		{"nullable key", func() *model.Builder {
			b := model.NewBuilder()
			b.Entity("user").Property("id", model.KindUUID).Key().Nullable()
			return b
		}},
		{"duplicate property", func() *model.Builder {
			b := model.NewBuilder()
			b.Entity("user").
				Property("id", model.KindUUID).Key().
				Property("id", model.KindString)
			return b
		}},
		{"duplicate entity", func() *model.Builder {
			b := model.NewBuilder()
			b.Entity("user").Property("id", model.KindUUID).Key()
			b.Entity("user").Property("id", model.KindUUID).Key()
			return b
		}},
		{"unknown kind", func() *model.Builder {
			b := model.NewBuilder()
			b.Entity("user").Property("id", model.Kind("decimal")).Key()
			return b
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.build().Build(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBuilder_RejectsMismatchedComparer(t *testing.T) {
	intCmp, err := comparer.New[int64](comparer.DefaultDef[int64]())
	if err != nil {
		t.Fatalf("New comparer: %v", err)
	}

	b := model.NewBuilder()
	b.Entity("user").
		Property("id", model.KindUUID).Key().
		Property("name", model.KindString).Comparer(intCmp.Erased())
	if _, err := b.Build(); err == nil {
		t.Error("string property with int64 comparer: expected error")
	}
}

func TestKind_GoTypes(t *testing.T) {
	tests := []struct {
		kind model.Kind
		want reflect.Type
	}{
		{model.KindString, reflect.TypeOf((*string)(nil)).Elem()},
		{model.KindInt, reflect.TypeOf((*int64)(nil)).Elem()},
		{model.KindFloat, reflect.TypeOf((*float64)(nil)).Elem()},
		{model.KindBool, reflect.TypeOf((*bool)(nil)).Elem()},
		{model.KindTimestamp, reflect.TypeOf((*time.Time)(nil)).Elem()},
		{model.KindBytes, reflect.TypeOf((*[]byte)(nil)).Elem()},
		{model.KindJSON, reflect.TypeOf((*string)(nil)).Elem()},
		{model.KindUUID, reflect.TypeOf((*string)(nil)).Elem()},
	}
	for _, tt := range tests {
		if got := tt.kind.GoType(); got != tt.want {
			t.Errorf("GoType(%s) = %v, want %v", tt.kind, got, tt.want)
		}
	}
	if model.Kind("decimal").Valid() {
		t.Error("unknown kind reported valid")
	}
}

func TestUUIDKind_FoldsKeyComparison(t *testing.T) {
	m := buildUserModel(t)
	e, _ := m.Entity("user")
	id, _ := e.Property("id")

	if !id.Comparer.KeyEqual("ABC-DEF", "abc-def") {
		t.Error("uuid key comparison should fold case")
	}
	if id.Comparer.Equal("ABC-DEF", "abc-def") {
		t.Error("uuid value comparison should be case-sensitive")
	}
}

func TestSchema_Introspection(t *testing.T) {
	m := buildUserModel(t)

	ms := m.Schema()
	if ms.Count != 1 || len(ms.Entities) != 1 {
		t.Fatalf("Schema count = %d, want 1", ms.Count)
	}
	if ms.Entities[0].Key != "id" {
		t.Errorf("summary key = %q, want id", ms.Entities[0].Key)
	}

	e, _ := m.Entity("user")
	es := e.Schema()
	if len(es.Properties) != 5 {
		t.Fatalf("len(schema properties) = %d, want 5", len(es.Properties))
	}
	if es.Properties[0].GoType != "string" {
		t.Errorf("id go_type = %q, want string", es.Properties[0].GoType)
	}
}
