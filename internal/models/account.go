package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountType selects the collection an account lives in and the dashboard it sees.
type AccountType string

const (
	AccountUser     AccountType = "user"
	AccountSeller   AccountType = "seller"
	AccountBusiness AccountType = "business"
	AccountEmployer AccountType = "employer"
)

// AllAccountTypes lists every account type in declaration order.
var AllAccountTypes = []AccountType{AccountUser, AccountSeller, AccountBusiness, AccountEmployer}

// ResetLookupOrder is the order in which collections are searched for a reset request.
var ResetLookupOrder = []AccountType{AccountBusiness, AccountSeller, AccountEmployer, AccountUser}

var collections = map[AccountType]string{
	AccountUser:     "users",
	AccountSeller:   "sellers",
	AccountBusiness: "businesses",
	AccountEmployer: "employers",
}

// ParseAccountType accepts the lowercase account type names only.
func ParseAccountType(s string) (AccountType, bool) {
	t := AccountType(strings.TrimSpace(s))
	_, ok := collections[t]
	return t, ok
}

// Valid reports whether t is one of AllAccountTypes.
func (t AccountType) Valid() bool {
	_, ok := collections[t]
	return ok
}

// Collection returns the Mongo collection name backing this account type.
func (t AccountType) Collection() string {
	return collections[t]
}

func (t AccountType) String() string { return string(t) }

// Account is a stored account of any type.
type Account struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email           string             `bson:"email" json:"email"`
	Password        string             `bson:"password" json:"-"`
	AccountType     AccountType        `bson:"account_type" json:"accountType"`
	Name            string             `bson:"name,omitempty" json:"name,omitempty"`
	BusinessName    string             `bson:"business_name,omitempty" json:"businessName,omitempty"`
	BusinessAddress string             `bson:"business_address,omitempty" json:"businessAddress,omitempty"`
	BusinessPhone   string             `bson:"business_phone,omitempty" json:"businessPhone,omitempty"`
	CompanyName     string             `bson:"company_name,omitempty" json:"companyName,omitempty"`
	Website         string             `bson:"website,omitempty" json:"website,omitempty"`
	ProfileImageKey string             `bson:"profile_image_key,omitempty" json:"-"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}

// AccountSummary is the user object returned by the auth endpoints.
type AccountSummary struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	AccountType  AccountType `json:"accountType"`
	Name         string      `json:"name,omitempty"`
	BusinessName string      `json:"businessName,omitempty"`
	CompanyName  string      `json:"companyName,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// Summary returns the public view of a.
func (a *Account) Summary() AccountSummary {
	return AccountSummary{
		ID:           a.ID.Hex(),
		Email:        a.Email,
		AccountType:  a.AccountType,
		Name:         a.Name,
		BusinessName: a.BusinessName,
		CompanyName:  a.CompanyName,
		CreatedAt:    a.CreatedAt,
	}
}
