package portal

import "strings"

// The portal's pages are not ours, everything below is an exact-match contract
// with its current markup and endpoints. If the portal changes, these change.
const (
	loginPath         = "/login.jsp"
	logoutQuery       = "logout=link"
	keepAlivePath     = "/realtime.jsp"
	academicPlansPath = "/api/getAcademicPlans"
	criteriaPath      = "/criteria.jsp"
	classDataPath     = "/getclassdata.jsp"

	loginUsernameField = "word1"
	loginPasswordField = "word2"
	loginSubmitField   = "login"

	sessionCookieName = "JSESSIONID"

	notAuthenticatedMarker = "Not Authenticated"
	nameStartMarker        = `<span class="autho_text header_invader_text_top">`
	nameEndMarker          = "</span>"

	notOfferedInTermPhrase = "is only available"
	notFoundPhrase         = "could not be found in any"
)

func sessionCookieHeader(session Session) string {
	return sessionCookieName + "=" + string(session)
}

// parseSetCookie takes the value between the first '=' and the first ';'
// of a raw Set-Cookie header value.
func parseSetCookie(header string) Session {
	start := strings.Index(header, "=")
	if start < 0 {
		return NoSession
	}
	value := header[start+1:]
	end := strings.Index(value, ";")
	if end >= 0 {
		value = value[:end]
	}
	return Session(value)
}

// extractName returns the profile name from the criteria page, ok is false when
// the page reports that the session is not authenticated. A page without the
// name span yields an empty name.
func extractName(html string) (name string, ok bool) {
	if strings.Contains(html, notAuthenticatedMarker) {
		return "", false
	}
	start := strings.Index(html, nameStartMarker)
	if start < 0 {
		return "", true
	}
	rest := html[start+len(nameStartMarker):]
	end := strings.Index(rest, nameEndMarker)
	if end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}
