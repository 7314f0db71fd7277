package model_test

import (
	"testing"

	"github.com/artpar/entrack/core/model"
)

const userYAML = `
entities:
  - name: user
    table: users
    properties:
      - { name: id, kind: uuid, key: true }
      - { name: email, kind: string, unique: true }
      - { name: age, kind: int, nullable: true }
      - { name: bio, kind: string, column: biography, column_type: CLOB }
`

func TestParseYAML(t *testing.T) {
	m, err := model.ParseYAML([]byte(userYAML))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}

	e, ok := m.Entity("user")
	if !ok {
		t.Fatal("entity user not found")
	}
	if e.Table != "users" {
		t.Errorf("Table = %q, want users", e.Table)
	}
	if got := e.KeyProperty().Name; got != "id" {
		t.Errorf("key = %q, want id", got)
	}

	bio, ok := e.Property("bio")
	if !ok {
		t.Fatal("property bio not found")
	}
	if bio.Column != "biography" {
		t.Errorf("bio column = %q, want biography", bio.Column)
	}
	if bio.ColumnType != "CLOB" {
		t.Errorf("bio column type = %q, want CLOB", bio.ColumnType)
	}

	// Order follows the YAML list.
	if e.Properties[1].Name != "email" || e.Properties[2].Name != "age" {
		t.Errorf("property order = %q, %q; want email, age", e.Properties[1].Name, e.Properties[2].Name)
	}
}

func TestParseYAML_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"invalid yaml", "entities: ["},
		{"unknown kind", `
entities:
  - name: user
    properties:
      - { name: id, kind: decimal, key: true }
`},
		{"no key", `
entities:
  - name: user
    properties:
      - { name: email, kind: string }
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := model.ParseYAML([]byte(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
}
