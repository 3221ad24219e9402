/*
Package authsdk provides a client SDK for the RodneyAuth authentication
service, and the error and wire types the service itself writes.

# Overview

RodneyAuth keeps sessions server-side and identifies them with an HttpOnly
cookie. The SDKClient therefore carries a cookie jar: once a login call
succeeds, every later call on the same client is made as that user.

	client := authsdk.NewSDKClient("https://auth.example.com")

	// Password step
	flow, err := client.LoginPassword(ctx, "alice@example.com", "correct horse")

	// Accounts with an authenticator are sent to the TOTP step
	if flow.ChallengeExpiresAt != nil {
		flow, err = client.LoginTOTP(ctx, "alice@example.com", code)
	}

	me, err := client.GetSession(ctx)

# Errors

Failed calls return an *APIError. Compare against the predefined values
with errors.Is:

	if errors.Is(err, authsdk.ErrInvalidCredentials) {
		// wrong email or password
	}

Redirects are not followed; FlowResponse.RedirectTo names the page the
browser would go to next.
*/
package authsdk
