// Package cineverse assembles the CineVerse backend: configuration,
// connections, domain services, middleware and routes.
//
// Configuration comes from the environment:
//
//	cfg, err := cineverse.LoadConfig()
//	if err != nil {
//		return err
//	}
//	app, err := cineverse.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer app.Close()
//	return app.Run(ctx)
//
// Routes are grouped as follows. Every route runs the requestid, logging,
// recover and timeout middleware. /api/v1 adds cors and throttle and serves
// JSON. The web pages add locale and sit last, since their catch-all route
// answers every unmatched GET with the single-page application shell.
package cineverse
