// Package catalog serves the movie catalog and everything users attach to
// it: watchlists, ratings, reviews, analytics events and site settings.
//
// Listing queries run through the database gateway's query builder. The hot
// listings (trending, popular, top rated, upcoming, now playing, featured)
// are cached with cache.GetOrSet for Config.CacheTTL; admin writes clear
// the listing cache.
//
//	movies, _ := cache.Open[[]catalog.Movie](cacheCfg, cacheCfg.Driver, "movies", clients)
//	svc := catalog.NewService(conn, movies, catalog.WithConfig(cfg.Catalog))
//	page, err := svc.List(ctx, catalog.Filter{Genre: "drama", Sort: catalog.SortRating})
//
// Review bodies and overviews are reduced to plain text with the sanitizer
// package before they are stored. Ratings are integers from 1 to 10, one per
// user and movie; rating again replaces the previous value.
package catalog
