package auth

import "context"

// SetIdentityForTest injects an identity into the context for testing purposes.
func SetIdentityForTest(ctx context.Context, userID, partyID string) context.Context {
	return WithIdentity(ctx, Identity{UserID: userID, PartyID: partyID})
}
