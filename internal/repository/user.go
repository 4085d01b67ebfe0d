package repository

import (
	"context"

	"videotube/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository defines persistence operations for users and their
// watch history.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// ByIDs loads every user in ids, in no particular order.
	ByIDs(ctx context.Context, ids []uint) ([]*models.User, error)
	// Update writes the given columns. The id and credentials are never
	// touched through this path.
	Update(ctx context.Context, id uint, fields UserFields) (*models.User, error)
	UpdatePassword(ctx context.Context, id uint, hash string) error

	// AppendWatch adds a video to the user's history unless already present.
	AppendWatch(ctx context.Context, userID, videoID uint) error
	// WatchHistory returns the user's entries, most recent first.
	WatchHistory(ctx context.Context, userID uint) ([]models.WatchEntry, error)
}

// UserFields lists the mutable profile columns. Nil fields are left as is.
type UserFields struct {
	FullName      *string
	Email         *string
	Avatar        *string
	AvatarKey     *string
	CoverImage    *string
	CoverImageKey *string
}

func (f UserFields) columns() map[string]any {
	cols := make(map[string]any)
	set := func(name string, v *string) {
		if v != nil {
			cols[name] = *v
		}
	}
	set("full_name", f.FullName)
	set("email", f.Email)
	set("avatar", f.Avatar)
	set("avatar_key", f.AvatarKey)
	set("cover_image", f.CoverImage)
	set("cover_image_key", f.CoverImageKey)
	return cols
}

type userRepository struct {
	base
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{base: newBase(db, "users")}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) (err error) {
	ctx, end := r.observe(ctx, "Create")
	defer end(&err)

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("User with this username or email already exists")
		}
		return r.translate(err, "User", user.Username)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (_ *models.User, err error) {
	ctx, end := r.observe(ctx, "GetByID")
	defer end(&err)

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, r.translate(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (_ *models.User, err error) {
	ctx, end := r.observe(ctx, "GetByEmail")
	defer end(&err)

	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, r.translate(err, "User", email)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (_ *models.User, err error) {
	ctx, end := r.observe(ctx, "GetByUsername")
	defer end(&err)

	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, r.translate(err, "User", username)
	}
	return &user, nil
}

func (r *userRepository) ByIDs(ctx context.Context, ids []uint) (_ []*models.User, err error) {
	ctx, end := r.observe(ctx, "ByIDs")
	defer end(&err)

	var users []*models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, r.translate(err, "User", ids)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, id uint, fields UserFields) (_ *models.User, err error) {
	ctx, end := r.observe(ctx, "Update")
	defer end(&err)

	cols := fields.columns()
	if len(cols) > 0 {
		res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
		if res.Error != nil {
			if isUniqueViolation(res.Error) {
				return nil, models.NewConflictError("Email is already in use")
			}
			return nil, r.translate(res.Error, "User", id)
		}
		if res.RowsAffected == 0 {
			return nil, models.NewNotFoundError("User", id)
		}
	}

	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, r.translate(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uint, hash string) (err error) {
	ctx, end := r.observe(ctx, "UpdatePassword")
	defer end(&err)

	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password", hash)
	if res.Error != nil {
		return r.translate(res.Error, "User", id)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	return nil
}

func (r *userRepository) AppendWatch(ctx context.Context, userID, videoID uint) (err error) {
	ctx, end := r.observe(ctx, "AppendWatch")
	defer end(&err)

	entry := models.WatchEntry{UserID: userID, VideoID: videoID}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&entry).Error
	return r.translate(err, "WatchEntry", videoID)
}

func (r *userRepository) WatchHistory(ctx context.Context, userID uint) (_ []models.WatchEntry, err error) {
	ctx, end := r.observe(ctx, "WatchHistory")
	defer end(&err)

	var entries []models.WatchEntry
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Find(&entries).Error; err != nil {
		return nil, r.translate(err, "WatchEntry", userID)
	}
	return entries, nil
}
