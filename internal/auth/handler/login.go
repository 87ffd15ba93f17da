package handler

import (
	"html/template"
	"net/http"
)

var loginPage = template.Must(template.New("login").Parse(`<!DOCTYPE html>
<html>
<head><title>Sign in</title></head>
<body>
<h1>Sign in</h1>
{{if .Error}}<p class="error">Sign-in failed: {{.Error}}</p>{{end}}
<a href="{{.AuthorizeURL}}">Continue with your account</a>
</body>
</html>
`))

// handleLogin renders the sign-in page. An error query from a failed
// callback is surfaced; a redirectTo query is threaded into the authorize
// URL so the flow returns the user where they were headed.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Error        string
		AuthorizeURL string
	}{
		Error:        r.URL.Query().Get("error"),
		AuthorizeURL: h.identity.AuthorizeURL(sanitizeRedirect(r.URL.Query().Get("redirectTo"))),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginPage.Execute(w, data); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render login page", "error", err)
	}
}
