package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sandeepkv93/movie-catalog-backend/internal/domain"
	"github.com/sandeepkv93/movie-catalog-backend/internal/observability"
)

// ProfileUpdate carries the self-service fields of an identity. Empty
// values are left untouched.
type ProfileUpdate struct {
	FullName string
	Email    string
	Image    string
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindPublicByID loads the identity without its password hash.
	FindPublicByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListPaged(ctx context.Context, req PageRequest) (PageResult[domain.User], error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	SetAdmin(ctx context.Context, email string, isAdmin bool) error
	// DeleteNonAdmin removes a non-admin identity and its liked list.
	DeleteNonAdmin(ctx context.Context, id string) error
	LikedMovies(ctx context.Context, userID string) ([]string, error)
	AddLikedMovie(ctx context.Context, userID, movieID string) ([]string, error)
	ClearLikedMovies(ctx context.Context, userID string) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	err := r.db.WithContext(ctx).Create(user).Error
	if isUniqueViolation(err) {
		err = ErrDuplicateEmail
	}
	if err == nil && user.LikedMovies == nil {
		user.LikedMovies = []string{}
	}
	observability.RecordRepositoryOperation(ctx, "user", "create", outcomeFor(err))
	return err
}

func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := r.findOne(ctx, id, false)
	observability.RecordRepositoryOperation(ctx, "user", "find_by_id", outcomeFor(err))
	return u, err
}

func (r *GormUserRepository) FindPublicByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := r.findOne(ctx, id, true)
	observability.RecordRepositoryOperation(ctx, "user", "find_public_by_id", outcomeFor(err))
	return u, err
}

func (r *GormUserRepository) findOne(ctx context.Context, id string, public bool) (*domain.User, error) {
	if !validUUID(id) {
		return nil, ErrInvalidUserID
	}
	q := r.db.WithContext(ctx)
	if public {
		q = q.Omit("password_hash")
	}
	var u domain.User
	if err := q.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	likes, err := r.likedMovies(r.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	u.LikedMovies = likes
	return &u, nil
}

func (r *GormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = ErrUserNotFound
	}
	observability.RecordRepositoryOperation(ctx, "user", "find_by_email", outcomeFor(err))
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *GormUserRepository) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Omit("password_hash").Order("created_at asc, id asc").Find(&users).Error
	if err == nil {
		err = r.attachLikedMovies(ctx, users)
	}
	observability.RecordRepositoryOperation(ctx, "user", "list", outcomeFor(err))
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormUserRepository) ListPaged(ctx context.Context, req PageRequest) (PageResult[domain.User], error) {
	req = req.Normalize()
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "user", "list_paged", "error")
		return PageResult[domain.User]{}, err
	}
	var items []domain.User
	err := r.db.WithContext(ctx).Omit("password_hash").
		Order("created_at asc, id asc").
		Offset(req.Offset()).Limit(req.PageSize).
		Find(&items).Error
	if err == nil {
		err = r.attachLikedMovies(ctx, items)
	}
	observability.RecordRepositoryOperation(ctx, "user", "list_paged", outcomeFor(err))
	if err != nil {
		return PageResult[domain.User]{}, err
	}
	return newPageResult(req, items, total), nil
}

func (r *GormUserRepository) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) error {
	if !validUUID(id) {
		return ErrInvalidUserID
	}
	updates := map[string]any{}
	if update.FullName != "" {
		updates["full_name"] = update.FullName
	}
	if update.Email != "" {
		updates["email"] = update.Email
	}
	if update.Image != "" {
		updates["image"] = update.Image
	}
	var err error
	if len(updates) == 0 {
		err = r.exists(ctx, id)
	} else {
		res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(updates)
		switch {
		case isUniqueViolation(res.Error):
			err = ErrDuplicateEmail
		case res.Error != nil:
			err = res.Error
		case res.RowsAffected == 0:
			err = ErrUserNotFound
		}
	}
	observability.RecordRepositoryOperation(ctx, "user", "update_profile", outcomeFor(err))
	return err
}

func (r *GormUserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if !validUUID(id) {
		return ErrInvalidUserID
	}
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Update("password_hash", hash)
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrUserNotFound
	}
	observability.RecordRepositoryOperation(ctx, "user", "update_password", outcomeFor(err))
	return err
}

func (r *GormUserRepository) SetAdmin(ctx context.Context, email string, isAdmin bool) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("email = ?", strings.TrimSpace(strings.ToLower(email))).
		Update("is_admin", isAdmin)
	err := res.Error
	if err == nil && res.RowsAffected == 0 {
		err = ErrUserNotFound
	}
	observability.RecordRepositoryOperation(ctx, "user", "set_admin", outcomeFor(err))
	return err
}

func (r *GormUserRepository) DeleteNonAdmin(ctx context.Context, id string) error {
	if !validUUID(id) {
		return ErrInvalidUserID
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND is_admin = ?", id, false).Delete(&domain.User{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&domain.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return ErrAdminProtected
			}
			return ErrUserNotFound
		}
		return tx.Where("user_id = ?", id).Delete(&domain.LikedMovie{}).Error
	})
	observability.RecordRepositoryOperation(ctx, "user", "delete", outcomeFor(err))
	return err
}

func (r *GormUserRepository) LikedMovies(ctx context.Context, userID string) ([]string, error) {
	if !validUUID(userID) {
		return nil, ErrInvalidUserID
	}
	var likes []string
	err := r.exists(ctx, userID)
	if err == nil {
		likes, err = r.likedMovies(r.db.WithContext(ctx), userID)
	}
	observability.RecordRepositoryOperation(ctx, "user", "liked_movies", outcomeFor(err))
	if err != nil {
		return nil, err
	}
	return likes, nil
}

func (r *GormUserRepository) AddLikedMovie(ctx context.Context, userID, movieID string) ([]string, error) {
	if !validUUID(userID) {
		return nil, ErrInvalidUserID
	}
	var likes []string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}
		entry := &domain.LikedMovie{UserID: userID, MovieID: movieID, CreatedAt: time.Now().UTC()}
		if err := tx.Create(entry).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrMovieAlreadyLiked
			}
			return err
		}
		if err := tx.Model(&domain.User{}).Where("id = ?", userID).Update("updated_at", time.Now().UTC()).Error; err != nil {
			return err
		}
		var err error
		likes, err = r.likedMovies(tx, userID)
		return err
	})
	observability.RecordRepositoryOperation(ctx, "user", "add_liked_movie", outcomeFor(err))
	if err != nil {
		return nil, err
	}
	return likes, nil
}

func (r *GormUserRepository) ClearLikedMovies(ctx context.Context, userID string) error {
	if !validUUID(userID) {
		return ErrInvalidUserID
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).Where("id = ?", userID).Update("updated_at", time.Now().UTC())
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return tx.Where("user_id = ?", userID).Delete(&domain.LikedMovie{}).Error
	})
	observability.RecordRepositoryOperation(ctx, "user", "clear_liked_movies", outcomeFor(err))
	return err
}

func (r *GormUserRepository) exists(ctx context.Context, id string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *GormUserRepository) likedMovies(tx *gorm.DB, userID string) ([]string, error) {
	likes := []string{}
	err := tx.Model(&domain.LikedMovie{}).
		Where("user_id = ?", userID).
		Order("id asc").
		Pluck("movie_id", &likes).Error
	if err != nil {
		return nil, err
	}
	return likes, nil
}

func (r *GormUserRepository) attachLikedMovies(ctx context.Context, users []domain.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, 0, len(users))
	for i := range users {
		ids = append(ids, users[i].ID)
		users[i].LikedMovies = []string{}
	}
	var rows []domain.LikedMovie
	if err := r.db.WithContext(ctx).Where("user_id IN ?", ids).Order("id asc").Find(&rows).Error; err != nil {
		return err
	}
	byUser := make(map[string][]string, len(users))
	for _, row := range rows {
		byUser[row.UserID] = append(byUser[row.UserID], row.MovieID)
	}
	for i := range users {
		if likes, ok := byUser[users[i].ID]; ok {
			users[i].LikedMovies = likes
		}
	}
	return nil
}

func validUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
