package visitor

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const (
	cookieName = "storefront-visitor"
	idKey      = "visitor_id"
	cookieAge  = 365 * 24 * 60 * 60
)

// Sessions issues and reads the signed visitor cookie.
type Sessions struct {
	store *sessions.CookieStore
}

func NewSessions(secret string, secure bool) *Sessions {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cookieAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

// Identify returns the visitor id carried by r, minting a new one and
// setting the cookie on w when there is none. A cookie that fails signature
// checks is replaced.
func (s *Sessions) Identify(w http.ResponseWriter, r *http.Request) (string, error) {
	// Get hands back a fresh session alongside a decode error.
	session, _ := s.store.Get(r, cookieName)
	if id, ok := session.Values[idKey].(string); ok {
		if _, err := uuid.Parse(id); err == nil {
			return id, nil
		}
	}

	id := uuid.NewString()
	session.Values[idKey] = id
	if err := session.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}
