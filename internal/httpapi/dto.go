package httpapi

// Request payloads for the auth endpoints.

type requestOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type validateOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}
