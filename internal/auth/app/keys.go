package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/rodneyauth/pkg/cryptox"
	"github.com/aussiebroadwan/rodneyauth/pkg/jwtx"
)

// ticketKeyPurpose binds the derived key to ticket signing.
const ticketKeyPurpose = "tickets/hs256"

// InitTickets derives the ticket signing key from the pepper.
//
// The key is never stored: it is recomputed from the pepper on every start,
// so enrollment and challenge tickets stay valid across restarts and
// replicas that share a pepper file. Rotating the pepper invalidates every
// outstanding ticket along with every password hash.
func InitTickets(cfg Config, logger *slog.Logger) (*jwtx.Tickets, error) {
	key, err := cryptox.DeriveKey(ticketKeyPurpose)
	if err != nil {
		return nil, fmt.Errorf("failed to derive ticket key: %w", err)
	}

	tickets, err := jwtx.NewTickets(key, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tickets: %w", err)
	}

	logger.Info("ticket signer ready", "issuer", cfg.Issuer, "algorithm", "HS256")
	return tickets, nil
}
