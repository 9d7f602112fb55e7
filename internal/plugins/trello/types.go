package trello

type member struct {
	FullName string `json:"fullName"`
	Username string `json:"username"`
	Email    string `json:"email"`
	URL      string `json:"url"`
}

// entity is the id/name pair shared by boards, lists and cards in listings
type entity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type board struct {
	Name  string   `json:"name"`
	Desc  string   `json:"desc"`
	URL   string   `json:"url"`
	Lists []entity `json:"lists"`
	Cards []entity `json:"cards"`
}

type card struct {
	Name string `json:"name"`
	Desc string `json:"desc"`
	Due  string `json:"due"`
	URL  string `json:"url"`
}

type cardList struct {
	Name   string   `json:"name"`
	Closed bool     `json:"closed"`
	Cards  []entity `json:"cards"`
}
