package domain

// LoginRequest carries the credentials for a token login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ClientRegistration is the self-registration payload of a hotel guest.
type ClientRegistration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// StaffRegistration is the registration-with-code payload of hotel personnel.
// The server decides whether Code and Role are honoured; the client only relays them.
type StaffRegistration struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	Code     string `json:"code"`
	HotelID  int64  `json:"hotel_id"`
	Role     Role   `json:"role"`
	FullName string `json:"full_name"`
}
