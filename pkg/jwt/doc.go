// Package jwt issues and verifies the HS256 access tokens returned by the
// API login and refresh endpoints.
//
//	svc, err := jwt.New(jwt.Config{Secret: secret, Issuer: "cineverse", Audience: appURL, Expiry: time.Hour})
//	token, claims, err := svc.Issue(user.ID, user.Username, user.Role)
//	claims, err = svc.Parse(token)
//
// Every token carries a random jti (uuid v4) so it can be revoked before
// its natural expiry by a denylist kept outside this package.
package jwt
