package common

import (
	"time"

	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tendant/dental-idm/pkg/account"
)

// UserResponse is the public view of an account
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Age       string    `json:"age,omitempty"`
	Country   string    `json:"country,omitempty"`
	Picture   string    `json:"picture,omitempty"`
	Origin    string    `json:"origin"`
	Verified  bool      `json:"verified"`
	Blocked   bool      `json:"blocked"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

var userCopyOption = copier.Option{
	Converters: []copier.TypeConverter{
		{
			SrcType: primitive.ObjectID{},
			DstType: copier.String,
			Fn: func(src interface{}) (interface{}, error) {
				return src.(primitive.ObjectID).Hex(), nil
			},
		},
	},
}

// NewUserResponse maps an account to its public view. Credentials and
// pending secrets have no counterpart and are never copied.
func NewUserResponse(u *account.User) (UserResponse, error) {
	var resp UserResponse
	if u == nil {
		return resp, nil
	}
	err := copier.CopyWithOption(&resp, u, userCopyOption)
	return resp, err
}
