package attribution

import (
	"fmt"
	"net/url"
	"strings"
)

// RefParam is the inbound query parameter carrying a referral code.
const RefParam = "ref"

// ResolveQuery stores the ref parameter as the visitor's active referral code.
// A later ref overwrites an earlier one (last touch). The code is not validated here.
func ResolveQuery(kv KV, query url.Values) (string, bool) {
	code := strings.TrimSpace(query.Get(RefParam))
	if code == "" {
		return "", false
	}
	kv.Set(KeyReferralCode, code)
	return code, true
}

// ResolveURL is ResolveQuery for a full or relative URL.
func ResolveURL(kv KV, rawURL string) (string, bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	code, ok := ResolveQuery(kv, u.Query())
	return code, ok, nil
}

// ActiveCode returns the stored referral code, if any.
func ActiveCode(kv KV) (string, bool) {
	code, ok := kv.Get(KeyReferralCode)
	if !ok || strings.TrimSpace(code) == "" {
		return "", false
	}
	return code, true
}
