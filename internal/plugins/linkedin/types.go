package linkedin

const (
	shareContentKey = "com.linkedin.ugc.ShareContent"
	visibilityKey   = "com.linkedin.ugc.MemberNetworkVisibility"
)

type profile struct {
	ID        string `json:"id"`
	FirstName string `json:"localizedFirstName"`
	LastName  string `json:"localizedLastName"`
	Headline  string `json:"headline"`
}

type connection struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type shareCommentary struct {
	Text string `json:"text"`
}

type shareContent struct {
	ShareCommentary    shareCommentary `json:"shareCommentary"`
	ShareMediaCategory string          `json:"shareMediaCategory,omitempty"`
}

// ugcPost is a user-generated post. Content and visibility are keyed by LinkedIn type names.
type ugcPost struct {
	Author          string                  `json:"author,omitempty"`
	LifecycleState  string                  `json:"lifecycleState,omitempty"`
	SpecificContent map[string]shareContent `json:"specificContent"`
	Visibility      map[string]string       `json:"visibility,omitempty"`
}

func newShare(author, text string) ugcPost {
	return ugcPost{
		Author:         author,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]shareContent{
			shareContentKey: {ShareCommentary: shareCommentary{Text: text}, ShareMediaCategory: "NONE"},
		},
		Visibility: map[string]string{visibilityKey: "PUBLIC"},
	}
}

func (p ugcPost) text() string {
	if c, ok := p.SpecificContent[shareContentKey]; ok && c.ShareCommentary.Text != "" {
		return c.ShareCommentary.Text
	}
	return "No text"
}
