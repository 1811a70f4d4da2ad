package dataset

import (
	"testing"
)

func TestFileType_IsValid(t *testing.T) {
	tests := []struct {
		fileType FileType
		valid    bool
	}{
		{FileTypeCSV, true},
		{FileTypeParquet, true},
		{FileType("xlsx"), false},
		{FileType(""), false},
	}
	for _, tt := range tests {
		t.Run(string(tt.fileType), func(t *testing.T) {
			if got := tt.fileType.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestColumnMetadata_IsPresent(t *testing.T) {
	tests := []struct {
		name    string
		meta    ColumnMetadata
		present bool
	}{
		{"zero value", ColumnMetadata{}, false},
		{"with names", NewColumnMetadata([]string{"a"}, nil, nil, nil), true},
		{"error", NewColumnMetadataError("broken"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.IsPresent(); got != tt.present {
				t.Errorf("IsPresent() = %v, want %v", got, tt.present)
			}
		})
	}
}

func TestColumnMetadata_HasColumn(t *testing.T) {
	m := NewColumnMetadata([]string{"title", "score"}, nil, nil, nil)
	if !m.HasColumn("title") {
		t.Error("HasColumn(title) = false, want true")
	}
	if m.HasColumn("missing") {
		t.Error("HasColumn(missing) = true, want false")
	}
}

func TestNewColumnMetadata_CopiesInputs(t *testing.T) {
	names := []string{"a"}
	types := map[string]string{"a": "string"}
	m := NewColumnMetadata(names, types, nil, []string{"a"})

	names[0] = "mutated"
	types["a"] = "number"

	if got := m.Names()[0]; got != "a" {
		t.Errorf("Names()[0] = %q, want %q", got, "a")
	}
	if got := m.Types()["a"]; got != "string" {
		t.Errorf("Types()[a] = %q, want %q", got, "string")
	}
}

func TestFile_WithColumns(t *testing.T) {
	f := NewFile(1, 2, "data.csv", "/tmp/data.csv", FileTypeCSV, 10)
	if f.Columns().IsPresent() {
		t.Error("new file should have no column metadata")
	}

	updated := f.WithColumns(NewColumnMetadata([]string{"a"}, nil, nil, nil))
	if !updated.Columns().IsPresent() {
		t.Error("WithColumns should set metadata")
	}
	if f.Columns().IsPresent() {
		t.Error("WithColumns must not mutate the receiver")
	}
	if updated.Name() != "data.csv" || updated.RowCount() != 10 {
		t.Error("WithColumns must preserve other fields")
	}
}

func TestFile_WithID(t *testing.T) {
	f := NewFile(1, 2, "data.csv", "/tmp/data.csv", FileTypeCSV, 0)
	if got := f.WithID(42).ID(); got != 42 {
		t.Errorf("WithID(42).ID() = %d, want 42", got)
	}
}
