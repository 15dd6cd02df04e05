// Package services talks to the remote music catalog and its OAuth server.
//
// # Paged Fetcher
//
// [Fetcher] issues authenticated GET requests. A 429 answer is retried after the server's
// Retry-After (default one second) plus one second, forever by default; inject a [RetryPolicy]
// and a [Sleeper] to bound or observe the waits. Other error statuses surface as
// [shared.RemoteAPIError]. [Fetcher.FetchAll] follows the top-level "next" link and gathers
// "items" (or "tracks.items") across pages, in order and without deduplication.
//
// # Catalog
//
// [SpotifyClient] implements [Catalog] on top of the fetcher, reducing listing entries to
// [models.PlaylistSummary] and playlist items to [models.TrackRecord].
//
// # OAuth
//
// [OAuthFlow] implements [Authenticator] with golang.org/x/oauth2. The authorization-code flow binds
// a one-shot callback listener (see the server package) for the lifetime of the call and always
// stops it before returning. Token endpoint failures surface as [shared.TokenExchangeError].
package services
