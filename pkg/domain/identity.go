package domain

// Identity is the current user record returned by the identity endpoint.
type Identity struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Role     Role    `json:"role"`
	Hotel    *Hotel  `json:"hotel"`
	Client   *Client `json:"client"`
}

// Hotel is the hotel a staff member is attached to.
type Hotel struct {
	ID         int64  `json:"id_hotel"`
	City       string `json:"city"`
	Name       string `json:"name"`
	NumOfRooms int    `json:"num_of_rooms"`
	Address    string `json:"address"`
	ImageURL   string `json:"image_url,omitempty"`
}

// Client is the guest record linked to a client account.
type Client struct {
	ID           int64  `json:"id_client"`
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	FathersName  string `json:"fathers_name"`
	HomeAddress  string `json:"home_adress"`
	MobileNumber string `json:"mobile_number"`
	Email        string `json:"email"`
}
