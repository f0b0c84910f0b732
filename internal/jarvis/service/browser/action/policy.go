// Package action implements the action engine: one user-visible browser
// operation per call, enforcing input validation, the URL/script safety
// policy, per-action timeouts, and browser-step budget accounting.
package action

import (
	"net"
	"net/url"
	"strings"

	"github.com/jarvisrun/jarvis/internal/jarvis/pkg/apierr"
)

// URLPolicy decides whether a navigation target is admissible and produces
// the sanitized form (fragment dropped, host lowercased) used downstream.
type URLPolicy struct {
	BlockPrivateAddr bool
	AllowLocalhost   bool
}

var allowedSchemes = map[string]bool{"http": true, "https": true}

// Check validates raw against the URL policy and returns the sanitized URL.
func (p URLPolicy) Check(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return "", apierr.New(apierr.PolicyViolation, apierr.CodeURLBlocked, "URL must be absolute")
	}
	scheme := strings.ToLower(u.Scheme)
	if !allowedSchemes[scheme] {
		return "", apierr.Newf(apierr.PolicyViolation, apierr.CodeURLBlocked, "scheme %q is not permitted", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if p.BlockPrivateAddr {
		isLoopbackHost := host == "localhost"
		if ip := net.ParseIP(host); ip != nil {
			if p.isBlockedIP(ip, isLoopbackHost) {
				return "", apierr.New(apierr.PolicyViolation, apierr.CodeURLBlocked, "host resolves to a private or loopback address")
			}
		} else if isLoopbackHost && !p.AllowLocalhost {
			return "", apierr.New(apierr.PolicyViolation, apierr.CodeURLBlocked, "localhost is not permitted")
		}
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String(), nil
}

func (p URLPolicy) isBlockedIP(ip net.IP, isLoopbackHost bool) bool {
	if ip.IsLoopback() {
		return !p.AllowLocalhost
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	return isPrivateRFC1918(ip)
}

func isPrivateRFC1918(ip net.IP) bool {
	for _, cidr := range []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"} {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if block.Contains(ip) {
			return true
		}
	}
	return false
}

// scriptBannedSubstrings are the coarse, defense-in-depth substrings that
// disqualify an evaluate() script. The policy intentionally accepts only
// expression-style reads like "document.title".
var scriptBannedSubstrings = []string{
	"function", "=>", "{", "}", "[", "]",
	"let ", "const ", "var ", "=", "if", "for", "while",
}

// CheckScript rejects any script whose trimmed form contains a banned
// substring. It is a filter, not a sandbox.
func CheckScript(script string) error {
	trimmed := strings.TrimSpace(script)
	for _, bad := range scriptBannedSubstrings {
		if strings.Contains(trimmed, bad) {
			return apierr.Newf(apierr.PolicyViolation, apierr.CodeScriptUnsafe, "script contains disallowed token %q", bad)
		}
	}
	return nil
}
