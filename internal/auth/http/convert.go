package http

import (
	"github.com/aussiebroadwan/rodneyauth/internal/auth/domain"
	"github.com/aussiebroadwan/rodneyauth/internal/auth/service"
	"github.com/aussiebroadwan/rodneyauth/pkg/authsdk"
)

func toUserProfile(p domain.Profile) authsdk.UserProfile {
	return authsdk.UserProfile{
		ID:                p.ID,
		Email:             p.Email,
		Name:              p.Name,
		Role:              p.Role.String(),
		TwoFactorEnabled:  p.TwoFactorEnabled,
		RequiresTwoFactor: p.RequiresTwoFactor,
		CreatedAt:         p.CreatedAt,
	}
}

func toSessionResponse(u *domain.SessionUser) authsdk.SessionResponse {
	return authsdk.SessionResponse{
		UserProfile: toUserProfile(u.Profile),
		ExpiresAt:   u.ExpiresAt,
	}
}

func toEnrollmentResponse(e domain.TOTPEnrollment) authsdk.EnrollmentResponse {
	return authsdk.EnrollmentResponse{
		Secret:     e.Secret,
		OTPAuthURL: e.OTPAuthURL,
		QRCode:     e.QRCode,
		Issuer:     e.Issuer,
		Account:    e.Account,
		Ticket:     e.Ticket,
		ExpiresAt:  e.ExpiresAt,
	}
}

func toFlowResponse(o service.Outcome) authsdk.FlowResponse {
	resp := authsdk.FlowResponse{RedirectTo: o.RedirectTo}
	if o.User != nil {
		p := toUserProfile(*o.User)
		resp.User = &p
	}
	if o.Challenge != nil {
		exp := o.Challenge.ExpiresAt
		resp.ChallengeExpiresAt = &exp
	}
	if o.Enrollment != nil {
		enr := toEnrollmentResponse(*o.Enrollment)
		resp.Enrollment = &enr
	}
	return resp
}
