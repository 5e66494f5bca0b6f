package account

import (
	"net/url"
)

const avatarBaseURL = "https://ui-avatars.com/api/"

// AvatarURL returns a generated initials avatar for accounts without a picture
func AvatarURL(name string) string {
	q := url.Values{}
	q.Set("name", name)
	q.Set("background", "random")
	q.Set("size", "128")
	return avatarBaseURL + "?" + q.Encode()
}
