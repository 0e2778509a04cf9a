// Package cookie reads and writes the CineVerse HTTP cookies.
//
// Plain cookies carry non-sensitive values such as the language choice.
// Signed cookies append an HMAC-SHA256 tag keyed by the application key and
// bound to the cookie name, so a value signed for one cookie is rejected
// when presented under another name.
//
//	m := cookie.New(cookie.WithSecret(cfg.Key), cookie.WithSecure(true))
//	m.Set(w, "lang", "rw", 365*24*3600)
//	if err := m.SetSigned(w, "remember_web", token, 0); err != nil {
//		return err
//	}
//	v, err := m.GetSigned(r, "remember_web")
package cookie
