package proto

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type MeRequest struct{}

type MeResponse struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	ExpiresAt int64  `json:"expires_at"`
}

func (x *LoginResponse) GetToken() string {
	if x == nil {
		return ""
	}
	return x.Token
}

func (x *MeResponse) GetEmail() string {
	if x == nil {
		return ""
	}
	return x.Email
}
