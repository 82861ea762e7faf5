package ingest_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/nmarkham/citetype/internal/ingest"
)

const sampleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Neural dynamics of reaching</title>
  <style>p { margin: 0; }</style>
</head>
<body>
  <h1>Neural dynamics of reaching</h1>
  <p>We recorded population activity during a delayed reach task.</p>
  <h2>Methods</h2>
  <p>Recordings were obtained from DANDI: 000003 and reanalyzed.</p>
  <ul><li>Monkey J</li><li>Monkey N</li></ul>
  <h2>Results</h2>
  <p>Preparatory activity predicted reach direction.</p>
  <script>console.log("tracking");</script>
</body>
</html>`

func TestIngestHTMLSections(t *testing.T) {
	chunks, err := ingest.Ingest([]byte(sampleHTML), ingest.MediumHTML)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	want := []struct {
		section  string
		contains string
	}{
		{"Neural dynamics of reaching", "population activity"},
		{"Methods", "DANDI: 000003"},
		{"Methods", "Monkey J"},
		{"Methods", "Monkey N"},
		{"Results", "Preparatory activity"},
	}

	if len(chunks) != len(want) {
		t.Fatalf("len(chunks) = %d, want %d", len(chunks), len(want))
	}

	for i, w := range want {
		if chunks[i].Section != w.section {
			t.Errorf("chunks[%d].Section = %q, want %q", i, chunks[i].Section, w.section)
		}
		if !strings.Contains(chunks[i].Text, w.contains) {
			t.Errorf("chunks[%d].Text = %q, want substring %q", i, chunks[i].Text, w.contains)
		}
		if chunks[i].Page != 0 {
			t.Errorf("chunks[%d].Page = %d, want 0", i, chunks[i].Page)
		}
	}
}

func TestIngestHTMLDropsScriptAndStyle(t *testing.T) {
	chunks, err := ingest.Ingest([]byte(sampleHTML), ingest.MediumHTML)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	for i, c := range chunks {
		if strings.Contains(c.Text, "console.log") || strings.Contains(c.Text, "margin") {
			t.Errorf("chunks[%d] contains script or style text: %q", i, c.Text)
		}
	}
}

func TestIngestHTMLNoHeadings(t *testing.T) {
	chunks, err := ingest.Ingest([]byte("<html><body><p>Bare paragraph.</p></body></html>"), ingest.MediumHTML)
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	if chunks[0].Section != "" {
		t.Errorf("Section = %q, want empty", chunks[0].Section)
	}
}

func TestIngestCorruptPDF(t *testing.T) {
	_, err := ingest.Ingest([]byte("not a pdf at all"), ingest.MediumPDF)
	if !errors.Is(err, ingest.ErrUnreadable) {
		t.Errorf("error = %v, want ErrUnreadable", err)
	}
}

func TestParseMedium(t *testing.T) {
	if m, err := ingest.ParseMedium("pdf"); err != nil || m != ingest.MediumPDF {
		t.Errorf("ParseMedium(pdf) = %v, %v", m, err)
	}
	if m, err := ingest.ParseMedium("html"); err != nil || m != ingest.MediumHTML {
		t.Errorf("ParseMedium(html) = %v, %v", m, err)
	}
	if _, err := ingest.ParseMedium("docx"); err == nil {
		t.Error("ParseMedium(docx) succeeded, want error")
	}
}
