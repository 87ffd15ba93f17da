package handler

import "net/http"

// draftRedirect is a redirect under construction. The callback decides its
// destination in stages: session cookies are queued as soon as the token
// exchange succeeds, and the target may change once the profile is known.
// Holding both until write guarantees a retarget never drops a Set-Cookie.
type draftRedirect struct {
	target  string
	status  int
	cookies []*http.Cookie
}

func newDraftRedirect(target string, status int) *draftRedirect {
	return &draftRedirect{target: target, status: status}
}

func (d *draftRedirect) addCookies(cookies ...*http.Cookie) {
	d.cookies = append(d.cookies, cookies...)
}

// rebase changes the destination, keeping status and queued cookies.
func (d *draftRedirect) rebase(target string) {
	d.target = target
}

func (d *draftRedirect) write(w http.ResponseWriter, r *http.Request) {
	for _, c := range d.cookies {
		http.SetCookie(w, c)
	}
	http.Redirect(w, r, d.target, d.status)
}
