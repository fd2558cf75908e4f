package views

import (
	"bytes"
	"strings"
	"testing"
)

type viewUser struct {
	Username string
}

func TestTemplatesRender(t *testing.T) {
	tmpl, err := Templates()
	if err != nil {
		t.Fatalf("Templates returned error: %v", err)
	}

	for _, name := range []string{"homepage.html", "login.html", "signup.html", "userpage.html"} {
		if tmpl.Lookup(name) == nil {
			t.Fatalf("template %s not found", name)
		}
	}

	var buf bytes.Buffer
	data := map[string]any{
		"user":     &viewUser{Username: "alice"},
		"messages": []string{"hello <b>"},
	}
	if err := tmpl.ExecuteTemplate(&buf, "userpage.html", data); err != nil {
		t.Fatalf("execute userpage: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "alice") {
		t.Fatalf("expected username in output: %s", out)
	}
	if !strings.Contains(out, "hello &lt;b&gt;") {
		t.Fatalf("expected escaped message in output: %s", out)
	}
}

func TestErrorNoticeCarriesCode(t *testing.T) {
	tmpl, err := Templates()
	if err != nil {
		t.Fatalf("Templates returned error: %v", err)
	}

	var buf bytes.Buffer
	data := map[string]any{"error": "bad", "code": "INVALID_CREDENTIALS"}
	if err := tmpl.ExecuteTemplate(&buf, "login.html", data); err != nil {
		t.Fatalf("execute login: %v", err)
	}
	if !strings.Contains(buf.String(), `data-code="INVALID_CREDENTIALS"`) {
		t.Fatalf("expected error code in output: %s", buf.String())
	}
}
