package domain

import "time"

// User is an identity record. PasswordHash never leaves the process.
type User struct {
	ID           string    `gorm:"primaryKey;size:36" json:"_id"`
	FullName     string    `gorm:"size:255;not null" json:"fullName"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Image        string    `gorm:"size:1024" json:"image,omitempty"`
	IsAdmin      bool      `gorm:"not null;default:false;index:idx_users_is_admin" json:"isAdmin"`
	LikedMovies  []string  `gorm:"-" json:"likedMovies"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// LikedMovie is one entry of a user's liked list in relational stores.
// Insertion order is the primary key order.
type LikedMovie struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_liked_movies_user_movie,priority:1"`
	MovieID   string    `gorm:"size:64;not null;uniqueIndex:idx_liked_movies_user_movie,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
}
