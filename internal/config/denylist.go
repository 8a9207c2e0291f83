package config

// denylistGroup is a set of sensitive domains sharing one reason.
type denylistGroup struct {
	reason  string
	domains []string
}

var defaultDenylist = []denylistGroup{
	{"banking", []string{
		"chase.com", "bankofamerica.com", "wellsfargo.com", "citi.com",
		"usbank.com", "capitalone.com", "ally.com", "schwab.com",
		"fidelity.com", "vanguard.com", "tdameritrade.com", "etrade.com",
		"robinhood.com", "paypal.com", "venmo.com", "zelle.com", "mint.com",
		"personalcapital.com", "navyfederal.org", "pnc.com", "regions.com",
		"truist.com",
	}},
	{"banking_kr", []string{
		"kbstar.com", "shinhan.com", "wooribank.com", "kebhana.com",
		"ibk.co.kr", "kakaobank.com", "toss.im", "upbit.com",
	}},
	{"password_manager", []string{
		"1password.com", "lastpass.com", "bitwarden.com", "dashlane.com",
		"keepersecurity.com", "nordpass.com",
	}},
	{"identity", []string{
		"accounts.google.com", "login.microsoftonline.com", "login.live.com",
		"auth0.com", "okta.com", "onelogin.com", "duo.com",
	}},
	{"healthcare", []string{
		"mychart.com", "mychartsso.com", "portal.anthem.com",
		"member.cigna.com", "member.aetna.com", "member.uhc.com", "kp.org",
		"healthcare.gov", "medicare.gov", "nhis.or.kr",
	}},
	{"government", []string{
		"irs.gov", "ssa.gov", "login.gov", "id.me", "turbotax.intuit.com",
		"hrblock.com", "hometax.go.kr", "gov.kr",
	}},
	{"insurance", []string{
		"geico.com", "progressive.com", "statefarm.com", "allstate.com",
		"usaa.com",
	}},
	{"crypto", []string{"coinbase.com", "binance.com", "kraken.com", "gemini.com"}},
	{"payroll", []string{"workday.com", "adp.com", "gusto.com", "paychex.com"}},
}

// DefaultDenylistDomains returns the curated domains whose visits are redacted
// before they reach the classifier. Subdomains match too.
func DefaultDenylistDomains() []string {
	var out []string
	for _, g := range defaultDenylist {
		out = append(out, g.domains...)
	}
	return out
}
