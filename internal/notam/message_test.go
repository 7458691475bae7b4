package notam

import "testing"

func TestNormalise(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"single line", "E) TEST AREA", "E) TEST AREA"},
		{"unix newline", "A\nB", "A B"},
		{"windows newline", "A\r\nB", "A B"},
		{"double space", "A  B", "A B"},
		{"many spaces and tabs", "A \t   B", "A B"},
		{"nbsp", "A\u00a0B", "A B"},
		{"leading and trailing", "  \nE) X\n ", "E) X"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalise(tt.in); got != tt.want {
				t.Errorf("Normalise(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalise_LineBreakStyleInvariant(t *testing.T) {
	if Normalise("A\nB") != Normalise("A B") {
		t.Error("line break and space should normalise identically")
	}
	if Normalise("A\r\n\r\nB") != Normalise("A  B") {
		t.Error("blank lines and double spaces should normalise identically")
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantID     string
		wantText   string
		wantSource string
	}{
		{
			name:       "plain text",
			payload:    "E) TEST\nAREA",
			wantText:   "E) TEST AREA",
			wantSource: "nats",
		},
		{
			name:       "flat json with numeric id",
			payload:    `{"id": 42, "text": "E) ONE\n TWO"}`,
			wantID:     "42",
			wantText:   "E) ONE TWO",
			wantSource: "nats",
		},
		{
			name:       "wrapper keeps its own source",
			payload:    `{"message": {"id": "A1234/26", "source": "faa", "text": "E)  X"}}`,
			wantID:     "A1234/26",
			wantText:   "E) X",
			wantSource: "faa",
		},
		{
			name:       "json without text is treated as text",
			payload:    `{"foo": "bar"}`,
			wantText:   `{"foo": "bar"}`,
			wantSource: "nats",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Decode("nats", []byte(tt.payload))
			if string(m.ID) != tt.wantID {
				t.Errorf("ID = %q, want %q", m.ID, tt.wantID)
			}
			if m.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", m.Text, tt.wantText)
			}
			if m.Source != tt.wantSource {
				t.Errorf("Source = %q, want %q", m.Source, tt.wantSource)
			}
		})
	}
}

func TestMessageLabel(t *testing.T) {
	m := NewMessage("stdin", "E) X")
	if got := m.Label(); got != "stdin:4" {
		t.Errorf("Label = %q, want stdin:4", got)
	}
	m.ID = "A1/26"
	if got := m.Label(); got != "A1/26" {
		t.Errorf("Label = %q, want A1/26", got)
	}
}
