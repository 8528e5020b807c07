// Package zoom provides a client for the Zoom REST API recording catalog.
//
// The package covers the read-only surface a sync run needs:
//   - Listing the meetings of the authenticated account
//   - Listing the recording assets of a meeting
//   - Fetching meeting metadata for enrichment
//
// Authentication uses Zoom's server-to-server OAuth (account_credentials
// grant). NewTokenSource returns an oauth2.TokenSource that caches the
// short-lived bearer token and re-acquires it only on expiry.
//
// Failure policy follows per-item isolation: ListMeetings propagates errors
// (fatal to the run), while ListRecordings and GetMeeting absorb per-meeting
// failures so a single meeting cannot abort the batch. A 404 from the
// recordings listing means the meeting simply has no recordings and yields
// an empty slice.
//
// Example usage:
//
//	tokens := zoom.NewTokenSource(ctx, zoom.Credentials{
//	    ClientID:     cfg.Zoom.ClientID,
//	    ClientSecret: cfg.Zoom.ClientSecret,
//	    AccountID:    cfg.Zoom.AccountID,
//	})
//	client, err := zoom.NewClient(tokens, nil)
//	if err != nil {
//	    return err
//	}
//	meetings, err := client.ListMeetings(ctx)
package zoom
