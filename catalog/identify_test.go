package catalog

import "testing"

func TestIdentifyByFilename(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"my_paracetamol_photo.jpg", "Paracetamol"},
		{"MY_PARACETAMOL_PHOTO.JPG", "Paracetamol"},
		{"dolo 650 strip.png", "Dolo 650"},
		{"insulin lispro pen.jpeg", "Insulin lispro"},
		{"t-minic.jpg", "T-minic"},
		{"xyz.jpg", UnknownDrug},
		{"", UnknownDrug},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := IdentifyByFilename(tt.filename); got != tt.expected {
				t.Errorf("IdentifyByFilename(%q) = %q, expected %q", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestIdentifyByFilenameFirstListedWins(t *testing.T) {
	// "calcitriol" is listed before "paracetamol"
	if got := IdentifyByFilename("paracetamol_and_calcitriol.jpg"); got != "Calcitriol" {
		t.Errorf("Expected Calcitriol, got %s", got)
	}
}

func TestCatalogIdentifyByFilename(t *testing.T) {
	c := newTestCatalog()
	if got := c.IdentifyByFilename("aspirin.png"); got != "Aspirin" {
		t.Errorf("Expected Aspirin, got %s", got)
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"aspirin":    "Aspirin",
		"vitamin c":  "Vitamin c",
		"b-complex":  "B-complex",
		"\u00e9ther": "\u00c9ther",
		"":           "",
		"ALREADY UP": "Already up",
	}
	for in, want := range tests {
		if got := capitalize(in); got != want {
			t.Errorf("capitalize(%q) = %q, expected %q", in, got, want)
		}
	}
}
