package cache

import (
	"fmt"
	"time"
)

const (
	CategoryListKey   = "forum:categories"
	UserProfilePrefix = "forum:user:%d:profile"
)

const (
	CategoryListTTL = 10 * time.Minute
	UserProfileTTL  = 2 * time.Minute
)

func UserProfileKey(userID uint) string {
	return fmt.Sprintf(UserProfilePrefix, userID)
}
