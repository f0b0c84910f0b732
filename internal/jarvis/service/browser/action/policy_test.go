package action

import "testing"

func TestURLPolicyRejectsDisallowedSchemes(t *testing.T) {
	p := URLPolicy{}
	for _, raw := range []string{
		"file:///etc/passwd",
		"javascript:alert(1)",
		"data:text/html,hi",
		"about:blank",
	} {
		if _, err := p.Check(raw); err == nil {
			t.Errorf("Check(%q) should be rejected", raw)
		}
	}
}

func TestURLPolicyAcceptsHTTPS(t *testing.T) {
	p := URLPolicy{}
	out, err := p.Check("HTTPS://Example.com/Path#frag")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if out != "https://example.com/Path" {
		t.Fatalf("sanitized URL = %q, want fragment dropped and host lowercased", out)
	}
}

func TestURLPolicyBlocksPrivateAddresses(t *testing.T) {
	p := URLPolicy{BlockPrivateAddr: true}
	for _, raw := range []string{
		"http://127.0.0.1/",
		"http://10.0.0.5/",
		"http://192.168.1.1/",
		"http://169.254.1.1/",
	} {
		if _, err := p.Check(raw); err == nil {
			t.Errorf("Check(%q) should be blocked", raw)
		}
	}
}

func TestURLPolicyAllowsLocalhostWhenConfigured(t *testing.T) {
	p := URLPolicy{BlockPrivateAddr: true, AllowLocalhost: true}
	if _, err := p.Check("http://localhost:8080/"); err != nil {
		t.Fatalf("localhost should be permitted: %v", err)
	}
	if _, err := p.Check("http://127.0.0.1:8080/"); err != nil {
		t.Fatalf("loopback literal should be permitted when AllowLocalhost: %v", err)
	}
}

func TestCheckScriptAcceptsExpressionReads(t *testing.T) {
	for _, script := range []string{"document.title", "window.location.href"} {
		if err := CheckScript(script); err != nil {
			t.Errorf("CheckScript(%q) should be accepted, got %v", script, err)
		}
	}
}

func TestCheckScriptRejectsStatementForms(t *testing.T) {
	for _, script := range []string{
		"function() {}",
		"() => 1",
		"let x = 1",
		"const x = 1",
		"var x = 1",
		"if (true) { 1 }",
		"for (;;) {}",
		"while (true) {}",
		"document.title = 'x'",
	} {
		if err := CheckScript(script); err == nil {
			t.Errorf("CheckScript(%q) should be rejected", script)
		}
	}
}
