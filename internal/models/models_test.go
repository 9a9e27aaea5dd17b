package models

import (
	"reflect"
	"strings"
	"testing"
)

// gormTag extracts the gorm tag from a struct field.
func gormTag(t *testing.T, typ reflect.Type, fieldName string) string {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	return f.Tag.Get("gorm")
}

// assertGormTag checks that a struct field's gorm tag contains the expected value.
func assertGormTag(t *testing.T, typ reflect.Type, fieldName, expected string) {
	t.Helper()
	tag := gormTag(t, typ, fieldName)
	if !strings.Contains(tag, expected) {
		t.Errorf("%s.%s gorm tag = %q, want to contain %q", typ.Name(), fieldName, tag, expected)
	}
}

// assertFieldType checks that a struct field has the expected Go type.
func assertFieldType(t *testing.T, typ reflect.Type, fieldName, expectedType string) {
	t.Helper()
	f, ok := typ.FieldByName(fieldName)
	if !ok {
		t.Fatalf("%s.%s: field not found", typ.Name(), fieldName)
	}
	got := f.Type.String()
	if got != expectedType {
		t.Errorf("%s.%s type = %q, want %q", typ.Name(), fieldName, got, expectedType)
	}
}

func TestCategory_Fields(t *testing.T) {
	typ := reflect.TypeOf(Category{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "size:36")
	assertGormTag(t, typ, "OwnerID", "not null")
	assertGormTag(t, typ, "OwnerID", "index")
	assertGormTag(t, typ, "Name", "not null")
	assertFieldType(t, typ, "CreatedAt", "time.Time")
}

func TestMindMap_Fields(t *testing.T) {
	typ := reflect.TypeOf(MindMap{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "ID", "autoIncrement")
	assertGormTag(t, typ, "OwnerID", "uniqueIndex:idx_mind_map_owner_category")
	assertGormTag(t, typ, "CategoryID", "uniqueIndex:idx_mind_map_owner_category")
	assertGormTag(t, typ, "Data", "not null")
	assertFieldType(t, typ, "CategoryID", "*string")
	assertFieldType(t, typ, "Data", "datatypes.JSON")
}

func TestReport_Fields(t *testing.T) {
	typ := reflect.TypeOf(Report{})

	assertGormTag(t, typ, "ID", "primaryKey")
	assertGormTag(t, typ, "OwnerID", "index")
	assertGormTag(t, typ, "Body", "type:text")
	assertGormTag(t, typ, "Provider", "size:32")
	assertFieldType(t, typ, "PeriodStart", "time.Time")
}
