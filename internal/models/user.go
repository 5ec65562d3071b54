package models

type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleReviewer UserRole = "reviewer"
	UserRoleUser     UserRole = "user"
)

// IsReviewer reports whether the role may review assets and manage
// collection visibility. Admins subsume reviewers.
func (r UserRole) IsReviewer() bool {
	return r == UserRoleReviewer || r == UserRoleAdmin
}

type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusApproved UserStatus = "approved"
	UserStatusRejected UserStatus = "rejected"
)

func ValidUserStatus(value UserStatus) bool {
	switch value {
	case UserStatusPending, UserStatusApproved, UserStatusRejected:
		return true
	default:
		return false
	}
}

type User struct {
	BaseModel
	Email        string       `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string       `json:"-" gorm:"type:text;not null"`
	Name         string       `json:"name" gorm:"type:varchar(100);not null"`
	Role         UserRole     `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	Status       UserStatus   `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Assets       []Asset      `json:"-" gorm:"foreignKey:UploaderID"`
	Collections  []Collection `json:"-" gorm:"foreignKey:OwnerID"`
}
